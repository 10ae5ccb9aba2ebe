// Package codegen turns a parsed schema into a Go source file that wires
// each message into the bilrost engine: a struct definition plus a
// BilrostSchema method building the message's field table.
package codegen

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bilrost-rs/bilrost-go/pkg/schema"
)

// Language represents a target code generation language.
type Language string

// LanguageGo is the only registered backend: generating marshal/unmarshal
// code in other languages would duplicate the field-table logic pkg/bilrost
// already implements generically, rather than exercising new surface.
const LanguageGo Language = "go"

// Generator is the interface for code generators.
type Generator interface {
	Generate(w io.Writer, schema *schema.Schema, options Options) error
	Language() Language
	FileExtension() string
}

// Options configures code generation.
type Options struct {
	// Package overrides the package name from the schema's package decl.
	Package string

	// GenerateComments includes doc comments from the schema.
	GenerateComments bool
}

// DefaultOptions returns the default code generation options.
func DefaultOptions() Options {
	return Options{GenerateComments: true}
}

var registry = make(map[Language]Generator)

// Register registers a generator for a language.
func Register(gen Generator) {
	registry[gen.Language()] = gen
}

// Get returns the generator for a language.
func Get(lang Language) (Generator, bool) {
	gen, ok := registry[lang]
	return gen, ok
}

// titleCaser is used for converting strings to title case.
var titleCaser = cases.Title(language.English)

// ToPascalCase converts a string to PascalCase.
func ToPascalCase(s string) string {
	parts := splitName(s)
	for i, p := range parts {
		parts[i] = titleCaser.String(strings.ToLower(p))
	}
	return strings.Join(parts, "")
}

// ToCamelCase converts a string to camelCase.
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if len(pascal) == 0 {
		return ""
	}
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// splitName splits a name into parts based on underscores and case
// transitions.
func splitName(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	var current strings.Builder

	for i, r := range s {
		if r == '_' || r == '-' {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			continue
		}

		if i > 0 && isUpper(r) && !isUpper(rune(s[i-1])) {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// Indent indents each non-empty line of s by the given number of tabs.
func Indent(s string, tabs int) string {
	indent := strings.Repeat("\t", tabs)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// GoComment wraps text as a Go doc comment.
func GoComment(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "// " + line
	}
	return strings.Join(lines, "\n")
}

// GeneratorError represents a code generation error.
type GeneratorError struct {
	Message  string
	Position schema.Position
}

func (e *GeneratorError) Error() string {
	if e.Position.Filename != "" {
		return fmt.Sprintf("%s:%d:%d: %s",
			e.Position.Filename, e.Position.Line, e.Position.Column, e.Message)
	}
	return e.Message
}
