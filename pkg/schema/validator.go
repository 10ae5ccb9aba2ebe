package schema

import (
	"fmt"
	"sort"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Position Position
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		e.Position.Filename, e.Position.Line, e.Position.Column,
		e.Severity, e.Message)
}

// Severity indicates the severity of a validation error.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Validator validates schema definitions.
type Validator struct {
	schema *Schema
	errors []ValidationError
	types  map[string]TypeDefKind // message/enum names in scope
}

// TypeDefKind indicates the kind of type definition.
type TypeDefKind int

const (
	TypeDefMessage TypeDefKind = iota
	TypeDefEnum
)

func (k TypeDefKind) String() string {
	switch k {
	case TypeDefMessage:
		return "message"
	case TypeDefEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// NewValidator creates a new validator for the given schema.
func NewValidator(schema *Schema) *Validator {
	return &Validator{
		schema: schema,
		types:  make(map[string]TypeDefKind),
	}
}

// Validate performs validation and returns any errors.
func (v *Validator) Validate() []ValidationError {
	v.errors = nil

	v.collectTypes()

	for _, msg := range v.schema.Messages {
		v.validateMessage(msg)
	}
	for _, enum := range v.schema.Enums {
		v.validateEnum(enum)
	}

	sort.Slice(v.errors, func(i, j int) bool {
		if v.errors[i].Position.Line != v.errors[j].Position.Line {
			return v.errors[i].Position.Line < v.errors[j].Position.Line
		}
		return v.errors[i].Position.Column < v.errors[j].Position.Column
	})

	return v.errors
}

func (v *Validator) collectTypes() {
	for _, msg := range v.schema.Messages {
		if _, ok := v.types[msg.Name]; ok {
			v.addError(msg.Position, "duplicate type name %q", msg.Name)
			continue
		}
		v.types[msg.Name] = TypeDefMessage
	}
	for _, enum := range v.schema.Enums {
		if _, ok := v.types[enum.Name]; ok {
			v.addError(enum.Position, "duplicate type name %q", enum.Name)
			continue
		}
		v.types[enum.Name] = TypeDefEnum
	}
}

// declaredField pairs a field with the declaration-order offset used to
// check that tags ascend across both plain fields and oneof members.
type declaredField struct {
	field  *Field
	offset int
}

// validateMessage validates a message definition.
func (v *Validator) validateMessage(msg *Message) {
	var declared []declaredField
	for _, f := range msg.Fields {
		declared = append(declared, declaredField{f, f.Position.Offset})
	}
	for _, g := range msg.Oneofs {
		for _, m := range g.Members {
			declared = append(declared, declaredField{m, m.Position.Offset})
		}
	}
	sort.Slice(declared, func(i, j int) bool { return declared[i].offset < declared[j].offset })

	fieldNames := make(map[string]bool)
	lastNumber := 0
	for _, d := range declared {
		f := d.field

		if f.Number <= 0 {
			v.addError(f.Position, "field number must be positive, got %d", f.Number)
		} else if f.Number <= lastNumber {
			v.addError(f.Position, "field numbers must ascend in declaration order: %d does not follow %d", f.Number, lastNumber)
		} else {
			lastNumber = f.Number
		}

		if fieldNames[f.Name] {
			v.addError(f.Position, "duplicate field name %q", f.Name)
		} else {
			fieldNames[f.Name] = true
		}

		v.validateTypeRef(f.Type, msg.Name, f.Name)

		switch f.Kind {
		case KindMap:
			mt, ok := f.Type.(*MapType)
			if !ok {
				v.addError(f.Position, "field %s.%s has kind map but its type is not map<K, V>", msg.Name, f.Name)
			} else {
				v.validateKeyType(mt.Key, msg.Name, f.Name, "map key")
			}
		case KindSet:
			v.validateKeyType(f.Type, msg.Name, f.Name, "set element")
		}
	}

	for _, g := range msg.Oneofs {
		if len(g.Members) == 0 {
			v.addWarning(g.Position, "oneof %q has no members", g.Name)
		}
		for _, m := range g.Members {
			if _, ok := m.Type.(*MapType); ok {
				v.addError(m.Position, "oneof member %s.%s cannot be a map", msg.Name, m.Name)
			}
		}
	}
}

// validateEnum validates an enum definition.
func (v *Validator) validateEnum(enum *Enum) {
	valueNumbers := make(map[int]string)
	valueNames := make(map[string]bool)

	hasZero := false
	for _, val := range enum.Values {
		if val.Number == 0 {
			hasZero = true
			break
		}
	}
	if !hasZero && len(enum.Values) > 0 {
		v.addWarning(enum.Position, "enum %q should have a zero value (conventionally for unknown/default)", enum.Name)
	}

	for _, val := range enum.Values {
		if val.Number < 0 {
			v.addError(val.Position, "enum value number must be non-negative, got %d", val.Number)
		}
		if existing, ok := valueNumbers[val.Number]; ok {
			v.addError(val.Position, "duplicate enum value number %d (also used by %q)", val.Number, existing)
		} else {
			valueNumbers[val.Number] = val.Name
		}
		if valueNames[val.Name] {
			v.addError(val.Position, "duplicate enum value name %q", val.Name)
		} else {
			valueNames[val.Name] = true
		}
	}
}

// validateTypeRef validates that a referenced named type is in scope.
func (v *Validator) validateTypeRef(typeRef TypeRef, msgName, fieldName string) {
	switch t := typeRef.(type) {
	case *ScalarType:
		// always valid; IsScalar was checked at parse time.
	case *NamedType:
		if _, ok := v.types[t.Name]; !ok {
			v.addError(t.Position, "undefined type %q in field %s.%s", t.Name, msgName, fieldName)
		}
	case *MapType:
		v.validateTypeRef(t.Key, msgName, fieldName)
		v.validateTypeRef(t.Value, msgName, fieldName)
	}
}

// validateKeyType ensures a map-key or set-element type is orderable: a
// scalar other than bytes/float32/float64, or an enum.
func (v *Validator) validateKeyType(t TypeRef, msgName, fieldName, role string) {
	switch rt := t.(type) {
	case *ScalarType:
		switch rt.Name {
		case "bytes", "float32", "float64":
			v.addError(rt.Position, "%s type %q is not orderable in field %s.%s", role, rt.Name, msgName, fieldName)
		}
	case *NamedType:
		if kind, ok := v.types[rt.Name]; ok && kind != TypeDefEnum {
			v.addError(rt.Position, "%s type must be scalar or enum, not %s, in field %s.%s", role, kind, msgName, fieldName)
		}
	case *MapType:
		v.addError(t.Pos(), "%s type must be scalar or enum in field %s.%s", role, msgName, fieldName)
	}
}

func (v *Validator) addError(pos Position, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
}

func (v *Validator) addWarning(pos Position, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

// HasErrors returns true if there are any error-severity issues.
func (v *Validator) HasErrors() bool {
	for _, err := range v.errors {
		if err.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity issues.
func (v *Validator) Errors() []ValidationError {
	var errors []ValidationError
	for _, err := range v.errors {
		if err.Severity == SeverityError {
			errors = append(errors, err)
		}
	}
	return errors
}

// Warnings returns only the warning-severity issues.
func (v *Validator) Warnings() []ValidationError {
	var warnings []ValidationError
	for _, err := range v.errors {
		if err.Severity == SeverityWarning {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Validate is a convenience function that validates a schema.
func Validate(schema *Schema) []ValidationError {
	validator := NewValidator(schema)
	return validator.Validate()
}
