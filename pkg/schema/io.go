package schema

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Loader loads and validates schema files.
type Loader struct {
	loaded       map[string]*Schema
	loadedErrors map[string][]error
}

// NewLoader creates a new schema loader.
func NewLoader() *Loader {
	return &Loader{
		loaded:       make(map[string]*Schema),
		loadedErrors: make(map[string][]error),
	}
}

// LoadFile loads and validates a single schema file.
func (l *Loader) LoadFile(path string) (*Schema, []error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to resolve path: %w", err)}
	}

	if schema, ok := l.loaded[absPath]; ok {
		return schema, l.loadedErrors[absPath]
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read file %s: %w", absPath, err)}
	}

	schema, parseErrors := ParseFile(absPath, string(content))
	var allErrors []error
	for _, e := range parseErrors {
		allErrors = append(allErrors, e)
	}

	if len(parseErrors) == 0 {
		for _, e := range Validate(schema) {
			if e.Severity == SeverityError {
				allErrors = append(allErrors, e)
			}
		}
	}

	l.loaded[absPath] = schema
	l.loadedErrors[absPath] = allErrors
	return schema, allErrors
}

// GetSchema returns a loaded schema by its path.
func (l *Loader) GetSchema(path string) *Schema {
	absPath, _ := filepath.Abs(path)
	return l.loaded[absPath]
}

// AllSchemas returns all loaded schemas.
func (l *Loader) AllSchemas() map[string]*Schema {
	result := make(map[string]*Schema, len(l.loaded))
	for k, v := range l.loaded {
		result[k] = v
	}
	return result
}

// Writer pretty-prints a Schema back to its textual form.
type Writer struct {
	indent string
}

// NewWriter creates a new schema writer.
func NewWriter() *Writer {
	return &Writer{indent: "  "}
}

// SetIndent sets the indentation string (default is two spaces).
func (w *Writer) SetIndent(indent string) { w.indent = indent }

// WriteSchema writes a schema to out.
func (w *Writer) WriteSchema(out io.Writer, schema *Schema) error {
	if schema.Package != nil {
		fmt.Fprintf(out, "package %s;\n\n", schema.Package.Name)
	}

	for i, msg := range schema.Messages {
		w.writeMessage(out, msg)
		if i < len(schema.Messages)-1 || len(schema.Enums) > 0 {
			fmt.Fprintln(out)
		}
	}

	for i, enum := range schema.Enums {
		w.writeEnum(out, enum)
		if i < len(schema.Enums)-1 {
			fmt.Fprintln(out)
		}
	}

	return nil
}

func (w *Writer) writeMessage(out io.Writer, msg *Message) {
	for _, comment := range msg.Comments {
		if comment.IsDoc {
			fmt.Fprintf(out, "/// %s\n", comment.Text)
		}
	}

	fmt.Fprintf(out, "message %s {\n", msg.Name)

	for _, field := range msg.Fields {
		w.writeField(out, w.indent, field)
	}
	for _, group := range msg.Oneofs {
		fmt.Fprintf(out, "%soneof %s {\n", w.indent, group.Name)
		for _, member := range group.Members {
			w.writeField(out, w.indent+w.indent, member)
		}
		fmt.Fprintf(out, "%s}\n", w.indent)
	}

	fmt.Fprintln(out, "}")
}

func (w *Writer) writeField(out io.Writer, indent string, field *Field) {
	for _, comment := range field.Comments {
		if comment.IsDoc {
			fmt.Fprintf(out, "%s/// %s\n", indent, comment.Text)
		}
	}

	modStr := ""
	switch field.Kind {
	case KindOptional:
		modStr = "optional "
	case KindUnpacked:
		modStr = "unpacked "
	case KindPacked:
		modStr = "packed "
	case KindSet:
		modStr = "set "
	}

	fmt.Fprintf(out, "%s%s%s %s = %d;\n", indent, modStr, field.Type.String(), field.Name, field.Number)
}

func (w *Writer) writeEnum(out io.Writer, enum *Enum) {
	for _, comment := range enum.Comments {
		if comment.IsDoc {
			fmt.Fprintf(out, "/// %s\n", comment.Text)
		}
	}

	fmt.Fprintf(out, "enum %s {\n", enum.Name)
	for _, val := range enum.Values {
		for _, comment := range val.Comments {
			if comment.IsDoc {
				fmt.Fprintf(out, "%s/// %s\n", w.indent, comment.Text)
			}
		}
		fmt.Fprintf(out, "%s%s = %d;\n", w.indent, val.Name, val.Number)
	}
	fmt.Fprintln(out, "}")
}

// WriteToFile writes a schema to a file.
func WriteToFile(path string, schema *Schema) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := NewWriter()
	return writer.WriteSchema(f, schema)
}

// FormatSchema returns a formatted string representation of a schema.
func FormatSchema(schema *Schema) string {
	var sb strings.Builder
	writer := NewWriter()
	_ = writer.WriteSchema(&sb, schema) // strings.Builder never errors
	return sb.String()
}

// LoadAndValidate is a convenience function that loads a schema file and
// returns all errors (parse + validation).
func LoadAndValidate(path string) (*Schema, []error) {
	loader := NewLoader()
	return loader.LoadFile(path)
}
