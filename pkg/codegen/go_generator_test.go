package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bilrost-rs/bilrost-go/pkg/schema"
)

func generate(t *testing.T, src string, opts Options) string {
	t.Helper()
	s, errs := schema.ParseFile("t.bilrost", src)
	if len(errs) != 0 {
		t.Fatalf("ParseFile errors: %v", errs)
	}
	if errs := schema.Validate(s); len(errs) != 0 {
		for _, e := range errs {
			if e.Severity == schema.SeverityError {
				t.Fatalf("Validate errors: %v", errs)
			}
		}
	}

	var buf bytes.Buffer
	gen := NewGoGenerator()
	if err := gen.Generate(&buf, s, opts); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return buf.String()
}

func TestGoGeneratorSimpleMessage(t *testing.T) {
	out := generate(t, `
package widgets;

message Point {
  float64 x = 1;
  float64 y = 2;
}`, DefaultOptions())

	if !strings.Contains(out, "package widgets") {
		t.Error("expected package declaration")
	}
	if !strings.Contains(out, "type Point struct") {
		t.Error("expected Point struct")
	}
	if !strings.Contains(out, "X float64") || !strings.Contains(out, "Y float64") {
		t.Errorf("expected X/Y fields, got:\n%s", out)
	}
	if !strings.Contains(out, "func (m *Point) BilrostSchema() *bilrost.Schema") {
		t.Error("expected BilrostSchema method")
	}
	if !strings.Contains(out, "bilrost.NewSchema(") {
		t.Error("expected bilrost.NewSchema call")
	}
}

func TestGoGeneratorFieldModifiers(t *testing.T) {
	out := generate(t, `
message Record {
  optional string nickname = 1;
  unpacked int32 history = 2;
  packed uint32 flags = 3;
  set string tags = 4;
}`, DefaultOptions())

	if !strings.Contains(out, "Nickname *string") {
		t.Errorf("expected optional field as pointer, got:\n%s", out)
	}
	if !strings.Contains(out, "History []int32") {
		t.Errorf("expected unpacked field as slice, got:\n%s", out)
	}
	if !strings.Contains(out, "Flags []uint32") {
		t.Errorf("expected packed field as slice, got:\n%s", out)
	}
	if !strings.Contains(out, "Tags []string") {
		t.Errorf("expected set field as slice, got:\n%s", out)
	}
	if !strings.Contains(out, "Kind: bilrost.Optional") {
		t.Error("expected bilrost.Optional in field table")
	}
	if !strings.Contains(out, "Kind: bilrost.Packed") {
		t.Error("expected bilrost.Packed in field table")
	}
	if !strings.Contains(out, "Kind: bilrost.Set") {
		t.Error("expected bilrost.Set in field table")
	}
}

func TestGoGeneratorMapField(t *testing.T) {
	out := generate(t, `message M { map<string, int32> counters = 1; }`, DefaultOptions())

	if !strings.Contains(out, "Counters map[string]int32") {
		t.Errorf("expected map field, got:\n%s", out)
	}
	if !strings.Contains(out, "Key: bilrost.Text, Val: bilrost.Int") {
		t.Errorf("expected Key/Val encodings in field table, got:\n%s", out)
	}
}

func TestGoGeneratorNestedMessage(t *testing.T) {
	out := generate(t, `
message Point { float64 x = 1; float64 y = 2; }
message Circle {
  Point center = 1;
  float64 radius = 2;
}`, DefaultOptions())

	if !strings.Contains(out, "Center *Point") {
		t.Errorf("expected nested message field as pointer, got:\n%s", out)
	}
	if !strings.Contains(out, "Message: (&Point{}).BilrostSchema()") {
		t.Errorf("expected nested message wired through FieldEntry.Message, got:\n%s", out)
	}
}

func TestGoGeneratorEnum(t *testing.T) {
	out := generate(t, `
enum Status {
  unknown = 0;
  active = 1;
  inactive = 2;
}`, DefaultOptions())

	if !strings.Contains(out, "type Status int32") {
		t.Errorf("expected Status type, got:\n%s", out)
	}
	if !strings.Contains(out, "StatusActive Status = 1") {
		t.Errorf("expected StatusActive constant, got:\n%s", out)
	}
	if !strings.Contains(out, "var statusEncoding = bilrost.Enum(") {
		t.Errorf("expected generated enum Encoding, got:\n%s", out)
	}
}

func TestGoGeneratorOneof(t *testing.T) {
	out := generate(t, `
message Circle { float64 radius = 1; }
message Square { float64 side = 1; }
message Shape {
  oneof value {
    Circle circle = 1;
    Square square = 2;
  }
}`, DefaultOptions())

	if !strings.Contains(out, "Value ShapeValue") {
		t.Errorf("expected oneof struct field, got:\n%s", out)
	}
	if !strings.Contains(out, "type ShapeValue interface{ isShapeValue() }") {
		t.Errorf("expected oneof interface, got:\n%s", out)
	}
	if !strings.Contains(out, "type ShapeValueCircle struct") || !strings.Contains(out, "type ShapeValueSquare struct") {
		t.Errorf("expected oneof variant wrapper types, got:\n%s", out)
	}
	if !strings.Contains(out, "Kind: bilrost.OneofMember") {
		t.Errorf("expected oneof field table entries, got:\n%s", out)
	}
}

func TestGoGeneratorComments(t *testing.T) {
	opts := DefaultOptions()
	opts.GenerateComments = true
	out := generate(t, "/// a point in the plane\nmessage Point { float64 x = 1; }", opts)

	if !strings.Contains(out, "// a point in the plane") {
		t.Errorf("expected doc comment, got:\n%s", out)
	}
}

func TestGoGeneratorCommentsDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.GenerateComments = false
	out := generate(t, "/// a point in the plane\nmessage Point { float64 x = 1; }", opts)

	if strings.Contains(out, "a point in the plane") {
		t.Errorf("expected comments to be suppressed, got:\n%s", out)
	}
}

func TestGoGeneratorCustomPackage(t *testing.T) {
	opts := DefaultOptions()
	opts.Package = "mypkg"
	out := generate(t, "package ignored;\nmessage M {}", opts)

	if !strings.Contains(out, "package mypkg") {
		t.Errorf("expected custom package override, got:\n%s", out)
	}
}
