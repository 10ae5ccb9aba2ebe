// Package schema provides types and parsing for Bilrost schema files.
//
// Schema files (.bilrost) declare the messages, enums, and oneofs that
// pkg/codegen turns into a Go source file defining a BilrostSchema method
// per message.
package schema

// Position represents a position in source code.
type Position struct {
	Filename string
	Line     int
	Column   int
	Offset   int
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	End() Position
}

// Schema represents a complete schema file.
type Schema struct {
	Position Position
	Package  *Package
	Messages []*Message
	Enums    []*Enum
	Comments []*Comment
}

func (s *Schema) Pos() Position { return s.Position }
func (s *Schema) End() Position {
	if len(s.Messages) > 0 {
		return s.Messages[len(s.Messages)-1].End()
	}
	if len(s.Enums) > 0 {
		return s.Enums[len(s.Enums)-1].End()
	}
	if s.Package != nil {
		return s.Package.End()
	}
	return s.Position
}

// Package declares the package name for generated code.
type Package struct {
	Position Position
	EndPos   Position
	Name     string
}

func (p *Package) Pos() Position { return p.Position }
func (p *Package) End() Position { return p.EndPos }

// Message represents a message (struct) definition.
type Message struct {
	Position Position
	EndPos   Position
	Name     string
	Fields   []*Field
	Oneofs   []*OneofGroup
	Comments []*Comment
}

func (m *Message) Pos() Position { return m.Position }
func (m *Message) End() Position { return m.EndPos }

// OneofGroup is a set of mutually-exclusive member fields sharing a single
// discriminator. Each message-scoped oneof declaration gets its own Group
// index, assigned in declaration order starting at 0.
type OneofGroup struct {
	Position Position
	EndPos   Position
	Name     string
	Group    int
	Members  []*Field
	Comments []*Comment
}

func (g *OneofGroup) Pos() Position { return g.Position }
func (g *OneofGroup) End() Position { return g.EndPos }

// Kind mirrors the cardinality/representation a field's value takes on the
// wire (bilrost.Kind in the generated code).
type Kind int

const (
	KindSingular Kind = iota
	KindOptional
	KindUnpacked
	KindPacked
	KindSet
	KindMap
	KindOneofMember
)

func (k Kind) String() string {
	switch k {
	case KindSingular:
		return "singular"
	case KindOptional:
		return "optional"
	case KindUnpacked:
		return "unpacked"
	case KindPacked:
		return "packed"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindOneofMember:
		return "oneof member"
	default:
		return "unknown"
	}
}

// Field represents a field within a message or a member of a oneof group.
type Field struct {
	Position Position
	EndPos   Position
	Name     string
	Number   int
	Type     TypeRef
	Kind     Kind
	Comments []*Comment

	// OneofGroup is the enclosing group index; only meaningful when
	// Kind == KindOneofMember.
	OneofGroup int
}

func (f *Field) Pos() Position { return f.Position }
func (f *Field) End() Position { return f.EndPos }

// TypeRef represents a type reference.
type TypeRef interface {
	Node
	typeRefNode()
	String() string
}

// ScalarType represents a built-in scalar type.
type ScalarType struct {
	Position Position
	EndPos   Position
	Name     string // bool, int32, uint64, float32, float64, string, bytes, ...
}

func (t *ScalarType) Pos() Position  { return t.Position }
func (t *ScalarType) End() Position  { return t.EndPos }
func (t *ScalarType) typeRefNode()   {}
func (t *ScalarType) String() string { return t.Name }

// NamedType represents a reference to a message or enum declared in the
// same schema file.
type NamedType struct {
	Position Position
	EndPos   Position
	Name     string
}

func (t *NamedType) Pos() Position  { return t.Position }
func (t *NamedType) End() Position  { return t.EndPos }
func (t *NamedType) typeRefNode()   {}
func (t *NamedType) String() string { return t.Name }

// MapType represents a map[Key]Value type. Its Kind is always KindMap;
// there is no separate "map" modifier keyword.
type MapType struct {
	Position Position
	EndPos   Position
	Key      TypeRef
	Value    TypeRef
}

func (t *MapType) Pos() Position  { return t.Position }
func (t *MapType) End() Position  { return t.EndPos }
func (t *MapType) typeRefNode()   {}
func (t *MapType) String() string { return "map<" + t.Key.String() + ", " + t.Value.String() + ">" }

// Enum represents an enum definition.
type Enum struct {
	Position Position
	EndPos   Position
	Name     string
	Values   []*EnumValue
	Comments []*Comment
}

func (e *Enum) Pos() Position { return e.Position }
func (e *Enum) End() Position { return e.EndPos }

// EnumValue represents a single enum value.
type EnumValue struct {
	Position Position
	EndPos   Position
	Name     string
	Number   int
	Comments []*Comment
}

func (v *EnumValue) Pos() Position { return v.Position }
func (v *EnumValue) End() Position { return v.EndPos }

// Comment represents a comment in the schema.
type Comment struct {
	Position Position
	EndPos   Position
	Text     string
	IsDoc    bool // true for /// doc comments
}

func (c *Comment) Pos() Position { return c.Position }
func (c *Comment) End() Position { return c.EndPos }

// ScalarTypes defines the built-in scalar types, each with a leaf Encoding
// in pkg/bilrost.
var ScalarTypes = map[string]bool{
	"bool":     true,
	"int32":    true,
	"int64":    true,
	"uint32":   true,
	"uint64":   true,
	"fixed32":  true,
	"fixed64":  true,
	"sfixed32": true,
	"sfixed64": true,
	"float32":  true,
	"float64":  true,
	"string":   true,
	"bytes":    true,
}

// IsScalar returns true if the type name is a scalar type.
func IsScalar(name string) bool {
	return ScalarTypes[name]
}
