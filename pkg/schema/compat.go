package schema

import (
	"fmt"
)

// BreakingChangeType indicates the kind of breaking change detected.
type BreakingChangeType int

const (
	// FieldNumberReused indicates a field number was reused for a field
	// with a different type, kind, or name.
	FieldNumberReused BreakingChangeType = iota
	// FieldTypeChanged indicates a field's type was changed.
	FieldTypeChanged
	// FieldKindChanged indicates a field's Kind (and so its admissible
	// wire representation) was changed.
	FieldKindChanged
	// FieldRemoved indicates a field present in the old schema is gone.
	FieldRemoved
	// EnumValueReused indicates an enum value number was reused with a
	// different name.
	EnumValueReused
	// EnumValueRemoved indicates an enum value was removed.
	EnumValueRemoved
	// MessageRemoved indicates a message was removed.
	MessageRemoved
	// EnumRemoved indicates an enum was removed.
	EnumRemoved
)

func (t BreakingChangeType) String() string {
	switch t {
	case FieldNumberReused:
		return "field number reused"
	case FieldTypeChanged:
		return "field type changed"
	case FieldKindChanged:
		return "field kind changed"
	case FieldRemoved:
		return "field removed"
	case EnumValueReused:
		return "enum value number reused"
	case EnumValueRemoved:
		return "enum value removed"
	case MessageRemoved:
		return "message removed"
	case EnumRemoved:
		return "enum removed"
	default:
		return "unknown breaking change"
	}
}

// BreakingChange represents an incompatible schema change.
type BreakingChange struct {
	Type     BreakingChangeType
	Message  string
	Location string
}

func (b BreakingChange) Error() string {
	if b.Location != "" {
		return fmt.Sprintf("%s: %s at %s", b.Type, b.Message, b.Location)
	}
	return fmt.Sprintf("%s: %s", b.Type, b.Message)
}

// CompatibilityReport contains the results of a schema compatibility check.
type CompatibilityReport struct {
	Breaking []BreakingChange
	Warnings []string
}

// IsCompatible returns true if no breaking changes were detected.
func (r *CompatibilityReport) IsCompatible() bool {
	return len(r.Breaking) == 0
}

// CheckCompatibility compares an old and new schema and reports changes
// that would make messages encoded under old unreadable, or ambiguously
// readable, under new. A wire-compatible evolution may add new messages,
// enums, and fields with fresh tags; it must never repurpose a tag already
// in use, change what a tag decodes as, or drop a tag still referenced.
func CheckCompatibility(oldSchema, newSchema *Schema) *CompatibilityReport {
	report := &CompatibilityReport{}

	oldMessages := messagesByName(oldSchema)
	newMessages := messagesByName(newSchema)

	for name, oldMsg := range oldMessages {
		newMsg, ok := newMessages[name]
		if !ok {
			report.Breaking = append(report.Breaking, BreakingChange{
				Type:     MessageRemoved,
				Message:  fmt.Sprintf("message %q was removed", name),
				Location: name,
			})
			continue
		}
		checkMessageCompat(oldMsg, newMsg, report)
	}

	oldEnums := enumsByName(oldSchema)
	newEnums := enumsByName(newSchema)
	for name, oldEnum := range oldEnums {
		newEnum, ok := newEnums[name]
		if !ok {
			report.Breaking = append(report.Breaking, BreakingChange{
				Type:     EnumRemoved,
				Message:  fmt.Sprintf("enum %q was removed", name),
				Location: name,
			})
			continue
		}
		checkEnumCompat(oldEnum, newEnum, report)
	}

	return report
}

func checkMessageCompat(oldMsg, newMsg *Message, report *CompatibilityReport) {
	oldFields := allFieldsByTag(oldMsg)
	newFields := allFieldsByTag(newMsg)

	for tag, oldField := range oldFields {
		newField, ok := newFields[tag]
		loc := fmt.Sprintf("%s.%s (tag %d)", oldMsg.Name, oldField.Name, tag)
		if !ok {
			report.Breaking = append(report.Breaking, BreakingChange{
				Type:     FieldRemoved,
				Message:  fmt.Sprintf("field %q was removed", oldField.Name),
				Location: loc,
			})
			continue
		}
		if newField.Type.String() != oldField.Type.String() {
			report.Breaking = append(report.Breaking, BreakingChange{
				Type:     FieldTypeChanged,
				Message:  fmt.Sprintf("type changed from %s to %s", oldField.Type, newField.Type),
				Location: loc,
			})
			continue
		}
		if newField.Kind != oldField.Kind {
			report.Breaking = append(report.Breaking, BreakingChange{
				Type:     FieldKindChanged,
				Message:  fmt.Sprintf("kind changed from %s to %s", oldField.Kind, newField.Kind),
				Location: loc,
			})
		}
		if newField.Name != oldField.Name {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: field renamed from %q to %q (wire-compatible, source-incompatible)", loc, oldField.Name, newField.Name))
		}
	}
}

func checkEnumCompat(oldEnum, newEnum *Enum, report *CompatibilityReport) {
	oldValues := make(map[int]string, len(oldEnum.Values))
	for _, v := range oldEnum.Values {
		oldValues[v.Number] = v.Name
	}
	newValues := make(map[int]string, len(newEnum.Values))
	for _, v := range newEnum.Values {
		newValues[v.Number] = v.Name
	}

	for num, name := range oldValues {
		newName, ok := newValues[num]
		loc := fmt.Sprintf("%s.%s (%d)", oldEnum.Name, name, num)
		if !ok {
			report.Breaking = append(report.Breaking, BreakingChange{
				Type:     EnumValueRemoved,
				Message:  fmt.Sprintf("enum value %q was removed", name),
				Location: loc,
			})
			continue
		}
		if newName != name {
			report.Breaking = append(report.Breaking, BreakingChange{
				Type:     EnumValueReused,
				Message:  fmt.Sprintf("value %d renamed from %q to %q", num, name, newName),
				Location: loc,
			})
		}
	}
}

func messagesByName(s *Schema) map[string]*Message {
	m := make(map[string]*Message, len(s.Messages))
	for _, msg := range s.Messages {
		m[msg.Name] = msg
	}
	return m
}

func enumsByName(s *Schema) map[string]*Enum {
	m := make(map[string]*Enum, len(s.Enums))
	for _, e := range s.Enums {
		m[e.Name] = e
	}
	return m
}

func allFieldsByTag(msg *Message) map[int]*Field {
	m := make(map[int]*Field, len(msg.Fields))
	for _, f := range msg.Fields {
		m[f.Number] = f
	}
	for _, g := range msg.Oneofs {
		for _, member := range g.Members {
			m[member.Number] = member
		}
	}
	return m
}
