package codegen

import (
	"testing"

	"github.com/bilrost-rs/bilrost-go/pkg/schema"
)

func TestCaseConversions(t *testing.T) {
	tests := []struct {
		input  string
		pascal string
		camel  string
	}{
		{"foo", "Foo", "foo"},
		{"fooBar", "FooBar", "fooBar"},
		{"FooBar", "FooBar", "fooBar"},
		{"foo_bar", "FooBar", "fooBar"},
		{"FOO_BAR", "FooBar", "fooBar"},
		{"foo-bar", "FooBar", "fooBar"},
		{"", "", ""},
		{"a", "A", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToPascalCase(tt.input); got != tt.pascal {
				t.Errorf("ToPascalCase(%q) = %q, want %q", tt.input, got, tt.pascal)
			}
			if got := ToCamelCase(tt.input); got != tt.camel {
				t.Errorf("ToCamelCase(%q) = %q, want %q", tt.input, got, tt.camel)
			}
		})
	}
}

func TestGeneratorRegistry(t *testing.T) {
	gen, ok := Get(LanguageGo)
	if !ok {
		t.Fatal("Go generator not registered")
	}
	if gen.Language() != LanguageGo {
		t.Errorf("Language() = %s, want %s", gen.Language(), LanguageGo)
	}
	if gen.FileExtension() != ".go" {
		t.Errorf("FileExtension() = %s, want .go", gen.FileExtension())
	}
}

func TestIndent(t *testing.T) {
	input := "line1\nline2\nline3"
	expected := "\t\tline1\n\t\tline2\n\t\tline3"
	if got := Indent(input, 2); got != expected {
		t.Errorf("Indent() = %q, want %q", got, expected)
	}
}

func TestGoComment(t *testing.T) {
	input := "This is a comment\nWith multiple lines"
	expected := "// This is a comment\n// With multiple lines"
	if got := GoComment(input); got != expected {
		t.Errorf("GoComment() = %q, want %q", got, expected)
	}
}

func TestGeneratorError(t *testing.T) {
	err := &GeneratorError{
		Message:  "test error",
		Position: schema.Position{Filename: "test.bilrost", Line: 10, Column: 5},
	}
	if want := "test.bilrost:10:5: test error"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err2 := &GeneratorError{Message: "no position"}
	if err2.Error() != "no position" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "no position")
	}
}
