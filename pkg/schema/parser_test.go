package schema

import "testing"

func mustParse(t *testing.T, src string) *Schema {
	t.Helper()
	s, errs := ParseFile("t.bilrost", src)
	if len(errs) != 0 {
		t.Fatalf("ParseFile(%q) errors: %v", src, errs)
	}
	return s
}

func TestParsePackage(t *testing.T) {
	s := mustParse(t, "package acme.widgets;")
	if s.Package == nil || s.Package.Name != "acme.widgets" {
		t.Fatalf("Package = %+v", s.Package)
	}
}

func TestParseEmptyMessage(t *testing.T) {
	s := mustParse(t, "message Empty {}")
	if len(s.Messages) != 1 || s.Messages[0].Name != "Empty" {
		t.Fatalf("Messages = %+v", s.Messages)
	}
}

func TestParseScalarFields(t *testing.T) {
	s := mustParse(t, `
message Point {
  float64 x = 1;
  float64 y = 2;
}`)
	msg := s.Messages[0]
	if len(msg.Fields) != 2 {
		t.Fatalf("Fields = %+v", msg.Fields)
	}
	if msg.Fields[0].Name != "x" || msg.Fields[0].Number != 1 || msg.Fields[0].Kind != KindSingular {
		t.Fatalf("field 0 = %+v", msg.Fields[0])
	}
	if _, ok := msg.Fields[0].Type.(*ScalarType); !ok {
		t.Fatalf("field 0 type = %T, want *ScalarType", msg.Fields[0].Type)
	}
}

func TestParseFieldModifiers(t *testing.T) {
	s := mustParse(t, `
message Record {
  optional string nickname = 1;
  unpacked int32 history = 2;
  packed uint32 flags = 3;
  set string tags = 4;
}`)
	fields := s.Messages[0].Fields
	want := []Kind{KindOptional, KindUnpacked, KindPacked, KindSet}
	for i, k := range want {
		if fields[i].Kind != k {
			t.Fatalf("field %d kind = %s, want %s", i, fields[i].Kind, k)
		}
	}
}

func TestParseMapField(t *testing.T) {
	s := mustParse(t, `message M { map<string, int32> counters = 1; }`)
	f := s.Messages[0].Fields[0]
	if f.Kind != KindMap {
		t.Fatalf("Kind = %s, want map", f.Kind)
	}
	mt, ok := f.Type.(*MapType)
	if !ok {
		t.Fatalf("Type = %T, want *MapType", f.Type)
	}
	if mt.Key.String() != "string" || mt.Value.String() != "int32" {
		t.Fatalf("MapType = %+v", mt)
	}
}

func TestParseNamedTypeField(t *testing.T) {
	s := mustParse(t, `
message Circle { float64 radius = 1; }
message Shape { Circle circle = 1; }`)
	f := s.Messages[1].Fields[0]
	nt, ok := f.Type.(*NamedType)
	if !ok || nt.Name != "Circle" {
		t.Fatalf("Type = %+v", f.Type)
	}
}

func TestParseOneof(t *testing.T) {
	s := mustParse(t, `
message Circle { float64 radius = 1; }
message Square { float64 side = 1; }
message Shape {
  oneof value {
    Circle circle = 1;
    Square square = 2;
  }
}`)
	msg := s.Messages[2]
	if len(msg.Oneofs) != 1 {
		t.Fatalf("Oneofs = %+v", msg.Oneofs)
	}
	group := msg.Oneofs[0]
	if group.Name != "value" || len(group.Members) != 2 {
		t.Fatalf("group = %+v", group)
	}
	for _, m := range group.Members {
		if m.Kind != KindOneofMember {
			t.Fatalf("member %+v has kind %s, want oneof member", m, m.Kind)
		}
	}
}

func TestParseEnum(t *testing.T) {
	s := mustParse(t, `
enum Color {
  red = 0;
  green = 1;
  blue = 2;
}`)
	if len(s.Enums) != 1 {
		t.Fatalf("Enums = %+v", s.Enums)
	}
	enum := s.Enums[0]
	if len(enum.Values) != 3 || enum.Values[1].Name != "green" || enum.Values[1].Number != 1 {
		t.Fatalf("Values = %+v", enum.Values)
	}
}

func TestParseDocComments(t *testing.T) {
	s := mustParse(t, "/// a record of a sale\nmessage Sale {}")
	msg := s.Messages[0]
	if len(msg.Comments) != 1 || msg.Comments[0].Text != "a record of a sale" {
		t.Fatalf("Comments = %+v", msg.Comments)
	}
}

func TestParseErrorOnMissingBrace(t *testing.T) {
	_, errs := ParseFile("t.bilrost", "message Foo")
	if len(errs) == 0 {
		t.Fatal("expected a parse error")
	}
}

func TestParseErrorOnMissingFieldNumber(t *testing.T) {
	_, errs := ParseFile("t.bilrost", "message Foo { int32 x = ; }")
	if len(errs) == 0 {
		t.Fatal("expected a parse error")
	}
}

func TestParseSynchronizesAfterError(t *testing.T) {
	// A malformed first message should not prevent a well-formed second
	// message from parsing.
	s, errs := ParseFile("t.bilrost", "message Bad { int32 = 1; }\nmessage Good { int32 x = 1; }")
	if len(errs) == 0 {
		t.Fatal("expected a parse error from the malformed message")
	}
	found := false
	for _, m := range s.Messages {
		if m.Name == "Good" {
			found = true
		}
	}
	if !found {
		t.Fatalf("messages = %+v, want Good to have parsed despite the earlier error", s.Messages)
	}
}
