package schema

import (
	"strings"
	"testing"
)

func validate(t *testing.T, src string) []ValidationError {
	t.Helper()
	s, errs := ParseFile("t.bilrost", src)
	if len(errs) != 0 {
		t.Fatalf("ParseFile errors: %v", errs)
	}
	return Validate(s)
}

func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidatorAcceptsWellFormedSchema(t *testing.T) {
	errs := validate(t, `
message Point {
  float64 x = 1;
  float64 y = 2;
}
message Shape {
  Point origin = 1;
  oneof payload {
    Point start = 2;
    Point end = 3;
  }
}`)
	for _, e := range errs {
		if e.Severity == SeverityError {
			t.Fatalf("unexpected error: %v", e)
		}
	}
}

func TestValidatorRejectsDuplicateFieldNumber(t *testing.T) {
	errs := validate(t, `
message M {
  int32 a = 1;
  int32 b = 1;
}`)
	if !hasError(errs, "ascend") {
		t.Fatalf("errors = %v, want a non-ascending-tag error", errs)
	}
}

func TestValidatorRejectsNonAscendingTags(t *testing.T) {
	errs := validate(t, `
message M {
  int32 a = 2;
  int32 b = 1;
}`)
	if !hasError(errs, "ascend") {
		t.Fatalf("errors = %v, want a non-ascending-tag error", errs)
	}
}

func TestValidatorChecksAscendingAcrossOneofMembers(t *testing.T) {
	errs := validate(t, `
message Circle { float64 radius = 1; }
message M {
  int32 a = 5;
  oneof payload {
    Circle c = 1;
  }
}`)
	if !hasError(errs, "ascend") {
		t.Fatalf("errors = %v, want an error about tag 1 following tag 5", errs)
	}
}

func TestValidatorRejectsDuplicateFieldName(t *testing.T) {
	errs := validate(t, `
message M {
  int32 a = 1;
  int32 a = 2;
}`)
	if !hasError(errs, "duplicate field name") {
		t.Fatalf("errors = %v", errs)
	}
}

func TestValidatorRejectsUndefinedType(t *testing.T) {
	errs := validate(t, `message M { Nope field = 1; }`)
	if !hasError(errs, "undefined type") {
		t.Fatalf("errors = %v", errs)
	}
}

func TestValidatorRejectsUnorderableMapKey(t *testing.T) {
	errs := validate(t, `message M { map<bytes, int32> m = 1; }`)
	if !hasError(errs, "not orderable") {
		t.Fatalf("errors = %v", errs)
	}
}

func TestValidatorRejectsUnorderableSetElement(t *testing.T) {
	errs := validate(t, `message M { set float64 m = 1; }`)
	if !hasError(errs, "not orderable") {
		t.Fatalf("errors = %v", errs)
	}
}

func TestValidatorAllowsEnumAsMapKey(t *testing.T) {
	errs := validate(t, `
enum Color { red = 0; green = 1; }
message M { map<Color, int32> m = 1; }`)
	if hasError(errs, "not orderable") || hasError(errs, "must be scalar or enum") {
		t.Fatalf("errors = %v", errs)
	}
}

func TestValidatorRejectsMessageAsMapKey(t *testing.T) {
	errs := validate(t, `
message K {}
message M { map<K, int32> m = 1; }`)
	if !hasError(errs, "must be scalar or enum") {
		t.Fatalf("errors = %v", errs)
	}
}

func TestValidatorRejectsDuplicateEnumValueNumber(t *testing.T) {
	errs := validate(t, `
enum E {
  a = 0;
  b = 0;
}`)
	if !hasError(errs, "duplicate enum value number") {
		t.Fatalf("errors = %v", errs)
	}
}

func TestValidatorWarnsOnMissingZeroValue(t *testing.T) {
	s, perrs := ParseFile("t.bilrost", `enum E { a = 1; b = 2; }`)
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	errs := Validate(s)
	found := false
	for _, e := range errs {
		if e.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want a warning about the missing zero value", errs)
	}
}

func TestValidatorRejectsDuplicateTypeName(t *testing.T) {
	errs := validate(t, `
message M {}
message M {}`)
	if !hasError(errs, "duplicate type name") {
		t.Fatalf("errors = %v", errs)
	}
}
