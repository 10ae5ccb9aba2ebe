package codegen

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bilrost-rs/bilrost-go/pkg/schema"
)

// GoGenerator emits a Go source file that defines, for every message in a
// schema, a struct and the BilrostSchema method pkg/bilrost needs to
// marshal and unmarshal it. It does not emit any encode/decode logic of
// its own: that logic already lives once, generically, in the engine.
type GoGenerator struct{}

// NewGoGenerator returns a Go code generator.
func NewGoGenerator() *GoGenerator { return &GoGenerator{} }

func (g *GoGenerator) Language() Language    { return LanguageGo }
func (g *GoGenerator) FileExtension() string { return ".go" }

func init() {
	Register(NewGoGenerator())
}

type goContext struct {
	Schema  *schema.Schema
	Options Options
	out     *bufio.Writer
}

// Generate writes the Go source for s to w.
func (g *GoGenerator) Generate(w io.Writer, s *schema.Schema, opts Options) error {
	c := &goContext{Schema: s, Options: opts, out: bufio.NewWriter(w)}

	for _, msg := range s.Messages {
		if err := c.checkMessage(msg); err != nil {
			return err
		}
	}

	c.writeHeader()
	for _, e := range s.Enums {
		c.writeEnum(e)
	}
	for _, msg := range s.Messages {
		c.writeMessage(msg)
	}
	return c.out.Flush()
}

// checkMessage rejects constructs the generator does not yet know how to
// translate into a field table, rather than emitting something that
// would silently mis-encode.
func (c *goContext) checkMessage(msg *schema.Message) error {
	for _, f := range msg.Fields {
		if err := c.checkFieldType(msg, f); err != nil {
			return err
		}
	}
	for _, group := range msg.Oneofs {
		for _, f := range group.Members {
			if err := c.checkFieldType(msg, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *goContext) checkFieldType(msg *schema.Message, f *schema.Field) error {
	if mt, ok := f.Type.(*schema.MapType); ok {
		if _, ok := mt.Key.(*schema.MapType); ok {
			return &GeneratorError{Message: fmt.Sprintf("%s.%s: map keys cannot themselves be maps", msg.Name, f.Name), Position: f.Position}
		}
	}
	return nil
}

func (c *goContext) packageName() string {
	if c.Options.Package != "" {
		return c.Options.Package
	}
	if c.Schema.Package != nil {
		parts := strings.Split(c.Schema.Package.Name, ".")
		return parts[len(parts)-1]
	}
	return "generated"
}

func (c *goContext) writeHeader() {
	fmt.Fprintf(c.out, "// Code generated from a bilrost schema. DO NOT EDIT.\n\n")
	fmt.Fprintf(c.out, "package %s\n\n", c.packageName())
	fmt.Fprintf(c.out, "import (\n\t\"reflect\"\n\n\t\"github.com/bilrost-rs/bilrost-go/pkg/bilrost\"\n)\n")
}

func (c *goContext) writeComments(comments []*schema.Comment) {
	if !c.Options.GenerateComments {
		return
	}
	for _, cm := range comments {
		for _, line := range strings.Split(cm.Text, "\n") {
			fmt.Fprintf(c.out, "// %s\n", line)
		}
	}
}

func (c *goContext) writeEnum(e *schema.Enum) {
	c.writeComments(e.Comments)
	typeName := ToPascalCase(e.Name)
	fmt.Fprintf(c.out, "\ntype %s int32\n\nconst (\n", typeName)
	for _, v := range e.Values {
		fmt.Fprintf(c.out, "\t%s%s %s = %d\n", typeName, ToPascalCase(v.Name), typeName, v.Number)
	}
	fmt.Fprintf(c.out, ")\n\n")

	encName := c.enumEncodingName(e.Name)
	fmt.Fprintf(c.out, "var %s = bilrost.Enum(\n", encName)
	fmt.Fprintf(c.out, "\tfunc(v int64) (uint32, bool) {\n\t\tswitch %s(v) {\n", typeName)
	for _, v := range e.Values {
		fmt.Fprintf(c.out, "\t\tcase %s%s:\n\t\t\treturn %d, true\n", typeName, ToPascalCase(v.Name), v.Number)
	}
	fmt.Fprintf(c.out, "\t\tdefault:\n\t\t\treturn 0, false\n\t\t}\n\t},\n")
	fmt.Fprintf(c.out, "\tfunc(w uint32) (int64, bool) {\n\t\tswitch w {\n")
	for _, v := range e.Values {
		fmt.Fprintf(c.out, "\t\tcase %d:\n\t\t\treturn int64(%s%s), true\n", v.Number, typeName, ToPascalCase(v.Name))
	}
	fmt.Fprintf(c.out, "\t\tdefault:\n\t\t\treturn 0, false\n\t\t}\n\t},\n)\n")
}

func (c *goContext) enumEncodingName(name string) string {
	return ToCamelCase(name) + "Encoding"
}

func (c *goContext) writeMessage(msg *schema.Message) {
	c.writeComments(msg.Comments)
	typeName := ToPascalCase(msg.Name)

	fmt.Fprintf(c.out, "\ntype %s struct {\n", typeName)
	for _, f := range msg.Fields {
		c.writeComments(f.Comments)
		fmt.Fprintf(c.out, "\t%s %s\n", ToPascalCase(f.Name), c.goFieldType(f))
	}
	for _, group := range msg.Oneofs {
		fmt.Fprintf(c.out, "\t%s %s\n", ToPascalCase(group.Name), c.oneofInterfaceName(msg, group))
	}
	fmt.Fprintf(c.out, "}\n")

	for _, group := range msg.Oneofs {
		c.writeOneof(msg, group)
	}

	c.writeSchemaMethod(msg)
}

func (c *goContext) writeOneof(msg *schema.Message, group *schema.OneofGroup) {
	iface := c.oneofInterfaceName(msg, group)
	fmt.Fprintf(c.out, "\ntype %s interface{ is%s() }\n", iface, iface)
	for _, m := range group.Members {
		variant := c.oneofVariantTypeName(msg, group, m)
		fmt.Fprintf(c.out, "\ntype %s struct {\n\t%s %s\n}\n", variant, ToPascalCase(m.Name), c.leafGoType(m.Type))
		fmt.Fprintf(c.out, "\nfunc (%s) is%s() {}\n", variant, iface)
	}
}

func (c *goContext) writeSchemaMethod(msg *schema.Message) {
	typeName := ToPascalCase(msg.Name)
	fmt.Fprintf(c.out, "\nfunc (m *%s) BilrostSchema() *bilrost.Schema {\n\treturn bilrost.NewSchema(\n", typeName)

	for i, f := range msg.Fields {
		fmt.Fprintf(c.out, "\t\t%s,\n", c.fieldEntry(f, i))
	}
	ifaceFieldIndex := len(msg.Fields)
	for _, group := range msg.Oneofs {
		for _, m := range group.Members {
			fmt.Fprintf(c.out, "\t\t%s,\n", c.oneofFieldEntry(msg, group, m, ifaceFieldIndex))
		}
		ifaceFieldIndex++
	}

	fmt.Fprintf(c.out, "\t)\n}\n")
}

// goFieldType returns the Go type a struct field for f should declare.
func (c *goContext) goFieldType(f *schema.Field) string {
	switch f.Kind {
	case schema.KindOptional:
		return "*" + c.leafGoType(f.Type)
	case schema.KindUnpacked, schema.KindPacked, schema.KindSet:
		return "[]" + c.leafGoType(f.Type)
	case schema.KindMap:
		mt := f.Type.(*schema.MapType)
		return fmt.Sprintf("map[%s]%s", c.leafGoType(mt.Key), c.leafGoType(mt.Value))
	default:
		if c.isMessageType(f.Type) {
			return "*" + c.leafGoType(f.Type)
		}
		return c.leafGoType(f.Type)
	}
}

func (c *goContext) isMessageType(t schema.TypeRef) bool {
	nt, ok := t.(*schema.NamedType)
	if !ok {
		return false
	}
	for _, m := range c.Schema.Messages {
		if m.Name == nt.Name {
			return true
		}
	}
	return false
}

func (c *goContext) isEnumType(t schema.TypeRef) bool {
	nt, ok := t.(*schema.NamedType)
	if !ok {
		return false
	}
	for _, e := range c.Schema.Enums {
		if e.Name == nt.Name {
			return true
		}
	}
	return false
}

func (c *goContext) leafGoType(t schema.TypeRef) string {
	switch typ := t.(type) {
	case *schema.ScalarType:
		return c.goScalarType(typ.Name)
	case *schema.NamedType:
		return ToPascalCase(typ.Name)
	case *schema.MapType:
		return fmt.Sprintf("map[%s]%s", c.leafGoType(typ.Key), c.leafGoType(typ.Value))
	default:
		return "any"
	}
}

func (c *goContext) goScalarType(name string) string {
	switch name {
	case "bool":
		return "bool"
	case "int32":
		return "int32"
	case "int64":
		return "int64"
	case "uint32":
		return "uint32"
	case "uint64":
		return "uint64"
	case "fixed32":
		return "uint32"
	case "fixed64":
		return "uint64"
	case "sfixed32":
		return "int32"
	case "sfixed64":
		return "int64"
	case "float32":
		return "float32"
	case "float64":
		return "float64"
	case "string":
		return "string"
	case "bytes":
		return "[]byte"
	default:
		return "any"
	}
}

// scalarEncoding returns the bilrost.Encoding value for a scalar leaf type.
func (c *goContext) scalarEncoding(name string) string {
	switch name {
	case "bool":
		return "bilrost.Bool"
	case "int32", "int64":
		return "bilrost.Int"
	case "uint32", "uint64":
		return "bilrost.Uint"
	case "fixed32", "sfixed32":
		return "bilrost.Fixed32"
	case "fixed64", "sfixed64":
		return "bilrost.Fixed64"
	case "float32":
		return "bilrost.Float32"
	case "float64":
		return "bilrost.Float64"
	case "string":
		return "bilrost.Text"
	case "bytes":
		return "bilrost.Bytes"
	default:
		return "bilrost.Uint"
	}
}

// leafEncoding returns the Go expression for the Encoding governing a
// field's leaf (or element, or map key/value) type. Message-typed leaves
// return "" since those are wired through FieldEntry.Message instead.
func (c *goContext) leafEncoding(t schema.TypeRef) string {
	switch typ := t.(type) {
	case *schema.ScalarType:
		return c.scalarEncoding(typ.Name)
	case *schema.NamedType:
		if c.isEnumType(t) {
			return c.enumEncodingName(typ.Name)
		}
		return ""
	default:
		return ""
	}
}

func (c *goContext) oneofInterfaceName(msg *schema.Message, group *schema.OneofGroup) string {
	return ToPascalCase(msg.Name) + ToPascalCase(group.Name)
}

func (c *goContext) oneofVariantTypeName(msg *schema.Message, group *schema.OneofGroup, member *schema.Field) string {
	return ToPascalCase(msg.Name) + ToPascalCase(group.Name) + ToPascalCase(member.Name)
}

func (c *goContext) kindConst(k schema.Kind) string {
	switch k {
	case schema.KindOptional:
		return "bilrost.Optional"
	case schema.KindUnpacked:
		return "bilrost.Unpacked"
	case schema.KindPacked:
		return "bilrost.Packed"
	case schema.KindSet:
		return "bilrost.Set"
	case schema.KindMap:
		return "bilrost.Map"
	case schema.KindOneofMember:
		return "bilrost.OneofMember"
	default:
		return "bilrost.Singular"
	}
}

func (c *goContext) accessorExpr(f *schema.Field, index int) string {
	if f.Kind == schema.KindOptional || (f.Kind == schema.KindSingular && c.isMessageType(f.Type)) {
		return fmt.Sprintf("bilrost.PointerField(%d)", index)
	}
	return fmt.Sprintf("bilrost.StructField(%d)", index)
}

// fieldEntry renders one bilrost.FieldEntry literal for a plain (non-oneof)
// field at the given struct field index.
func (c *goContext) fieldEntry(f *schema.Field, index int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{Tag: %d, Kind: %s, Accessor: %s", f.Number, c.kindConst(f.Kind), c.accessorExpr(f, index))

	switch f.Kind {
	case schema.KindMap:
		mt := f.Type.(*schema.MapType)
		if c.isMessageType(mt.Value) {
			fmt.Fprintf(&b, ", Key: %s, Message: (&%s{}).BilrostSchema()", c.leafEncoding(mt.Key), c.leafGoType(mt.Value))
		} else {
			fmt.Fprintf(&b, ", Key: %s, Val: %s", c.leafEncoding(mt.Key), c.leafEncoding(mt.Value))
		}
		if less := c.enumOrderBy(mt.Key); less != "" {
			fmt.Fprintf(&b, ", Less: %s", less)
		}
	case schema.KindSet:
		if c.isMessageType(f.Type) {
			fmt.Fprintf(&b, ", Message: (&%s{}).BilrostSchema()", c.leafGoType(f.Type))
		} else {
			fmt.Fprintf(&b, ", Elem: %s", c.leafEncoding(f.Type))
		}
		if less := c.enumOrderBy(f.Type); less != "" {
			fmt.Fprintf(&b, ", Less: %s", less)
		}
	default:
		if c.isMessageType(f.Type) {
			fmt.Fprintf(&b, ", Message: (&%s{}).BilrostSchema()", c.leafGoType(f.Type))
		} else {
			fmt.Fprintf(&b, ", Elem: %s", c.leafEncoding(f.Type))
		}
	}
	b.WriteString("}")
	return b.String()
}

// enumOrderBy returns a Less comparator expression for an enum-typed set
// element or map key. Enums are backed by int32 but aren't in the
// engine's naturally-orderable set, so a schema using one as a Set or Map
// key must supply an explicit comparator.
func (c *goContext) enumOrderBy(t schema.TypeRef) string {
	if !c.isEnumType(t) {
		return ""
	}
	return "func(a, b reflect.Value) bool { return a.Int() < b.Int() }"
}

// oneofFieldEntry renders the FieldEntry for a oneof member, wired through
// an OneofVariant accessor onto the group's interface-typed struct field.
func (c *goContext) oneofFieldEntry(msg *schema.Message, group *schema.OneofGroup, member *schema.Field, ifaceIndex int) string {
	variant := c.oneofVariantTypeName(msg, group, member)
	payloadField := ToPascalCase(member.Name)

	var encField string
	if c.isMessageType(member.Type) {
		encField = fmt.Sprintf("Message: (&%s{}).BilrostSchema()", c.leafGoType(member.Type))
	} else {
		encField = fmt.Sprintf("Elem: %s", c.leafEncoding(member.Type))
	}

	accessor := fmt.Sprintf(`bilrost.OneofVariant(%d,
			func() reflect.Value { return reflect.New(reflect.TypeOf(%s{}).Field(0).Type).Elem() },
			func(v reflect.Value) reflect.Value {
				return reflect.ValueOf(%s{%s: v.Interface().(%s)})
			},
			func(iface reflect.Value) (reflect.Value, bool) {
				w, ok := iface.Interface().(%s)
				if !ok {
					return reflect.Value{}, false
				}
				return reflect.ValueOf(w.%s), true
			},
		)`, ifaceIndex, variant, variant, payloadField, c.leafGoType(member.Type), variant, payloadField)

	return fmt.Sprintf("{Tag: %d, Kind: bilrost.OneofMember, OneofGroup: %d, Accessor: %s, %s}",
		member.Number, group.Group, accessor, encField)
}
