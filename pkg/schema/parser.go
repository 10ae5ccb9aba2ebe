package schema

import (
	"fmt"
	"strconv"
)

// Parser parses schema source code into an AST.
type Parser struct {
	lexer    *Lexer
	current  Token
	previous Token
	errors   []ParseError
	comments []*Comment // collected doc comments awaiting a declaration
}

// ParseError represents a parsing error.
type ParseError struct {
	Position Position
	Message  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Position.Filename, e.Position.Line, e.Position.Column, e.Message)
}

// NewParser creates a new parser for the given input.
func NewParser(filename, input string) *Parser {
	p := &Parser{
		lexer: NewLexer(filename, input),
	}
	p.advance() // load first token
	return p
}

// Parse parses the entire schema file.
func (p *Parser) Parse() (*Schema, []ParseError) {
	schema := &Schema{
		Position: p.current.Position,
	}

	p.collectComments()

	if p.check(TokenPackage) {
		pkg, err := p.parsePackage()
		if err != nil {
			p.errors = append(p.errors, *err)
		} else {
			schema.Package = pkg
		}
	}

	for !p.check(TokenEOF) {
		p.collectComments()

		switch {
		case p.check(TokenMessage):
			msg, err := p.parseMessage()
			if err != nil {
				p.errors = append(p.errors, *err)
				p.synchronize()
			} else {
				schema.Messages = append(schema.Messages, msg)
			}
		case p.check(TokenEnum):
			enum, err := p.parseEnum()
			if err != nil {
				p.errors = append(p.errors, *err)
				p.synchronize()
			} else {
				schema.Enums = append(schema.Enums, enum)
			}
		case p.check(TokenEOF):
		default:
			p.errors = append(p.errors, ParseError{
				Position: p.current.Position,
				Message:  fmt.Sprintf("unexpected token: %s", p.current.Type),
			})
			p.advance()
		}
	}

	schema.Comments = p.comments
	return schema, p.errors
}

// parsePackage parses: 'package' identifier ('.' identifier)* ';'
func (p *Parser) parsePackage() (*Package, *ParseError) {
	startPos := p.current.Position
	p.advance() // consume 'package'

	if !p.check(TokenIdent) {
		return nil, p.error("expected package name")
	}
	name := p.current.Value
	p.advance()

	for p.check(TokenDot) {
		p.advance()
		if !p.check(TokenIdent) {
			return nil, p.error("expected identifier after '.' in package name")
		}
		name += "." + p.current.Value
		p.advance()
	}

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after package name") {
		return nil, p.error("expected ';' after package name")
	}

	return &Package{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
	}, nil
}

// parseMessage parses: 'message' identifier '{' (field | oneof)* '}'
func (p *Parser) parseMessage() (*Message, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position
	p.advance() // consume 'message'

	if !p.check(TokenIdent) {
		return nil, p.error("expected message name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenLBrace, "expected '{' after message name") {
		return nil, p.error("expected '{' after message name")
	}

	msg := &Message{
		Position: startPos,
		Name:     name,
		Comments: docComments,
	}

	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		p.collectComments()
		if p.check(TokenRBrace) {
			break
		}
		if p.check(TokenOneof) {
			group, err := p.parseOneof()
			if err != nil {
				return nil, err
			}
			group.Group = len(msg.Oneofs)
			msg.Oneofs = append(msg.Oneofs, group)
			continue
		}
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		msg.Fields = append(msg.Fields, field)
	}

	msg.EndPos = p.current.Position
	if !p.consume(TokenRBrace, "expected '}'") {
		return nil, p.error("expected '}'")
	}

	return msg, nil
}

// parseOneof parses: 'oneof' identifier '{' member* '}'
func (p *Parser) parseOneof() (*OneofGroup, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position
	p.advance() // consume 'oneof'

	if !p.check(TokenIdent) {
		return nil, p.error("expected oneof name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenLBrace, "expected '{' after oneof name") {
		return nil, p.error("expected '{' after oneof name")
	}

	group := &OneofGroup{
		Position: startPos,
		Name:     name,
		Comments: docComments,
	}

	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		p.collectComments()
		if p.check(TokenRBrace) {
			break
		}
		member, err := p.parseField()
		if err != nil {
			return nil, err
		}
		member.Kind = KindOneofMember
		group.Members = append(group.Members, member)
	}

	group.EndPos = p.current.Position
	if !p.consume(TokenRBrace, "expected '}'") {
		return nil, p.error("expected '}'")
	}

	return group, nil
}

// parseField parses: modifier? type identifier '=' number ';'
func (p *Parser) parseField() (*Field, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position

	kind := KindSingular
	switch p.current.Type {
	case TokenOptional:
		kind = KindOptional
		p.advance()
	case TokenUnpacked:
		kind = KindUnpacked
		p.advance()
	case TokenPacked:
		kind = KindPacked
		p.advance()
	case TokenSet:
		kind = KindSet
		p.advance()
	}

	typeRef, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}
	if _, ok := typeRef.(*MapType); ok {
		kind = KindMap
	}

	if !p.check(TokenIdent) {
		return nil, p.error("expected field name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenEquals, "expected '=' after field name") {
		return nil, p.error("expected '=' after field name")
	}

	if !p.check(TokenInt) {
		return nil, p.error("expected field number")
	}
	num, parseErr := strconv.Atoi(p.current.Value)
	if parseErr != nil {
		return nil, p.error("invalid field number")
	}
	p.advance()

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after field") {
		return nil, p.error("expected ';' after field")
	}

	return &Field{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
		Number:   num,
		Type:     typeRef,
		Kind:     kind,
		Comments: docComments,
	}, nil
}

// parseTypeRef parses a type reference: a scalar name, a message/enum name,
// or 'map' '<' type ',' type '>'.
func (p *Parser) parseTypeRef() (TypeRef, *ParseError) {
	startPos := p.current.Position

	if p.check(TokenMap) {
		p.advance()
		if !p.consume(TokenLAngle, "expected '<' after 'map'") {
			return nil, p.error("expected '<' after 'map'")
		}
		keyType, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		if !p.consume(TokenComma, "expected ',' after map key type") {
			return nil, p.error("expected ',' after map key type")
		}
		valueType, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		endPos := p.current.Position
		if !p.consume(TokenRAngle, "expected '>' after map value type") {
			return nil, p.error("expected '>' after map value type")
		}
		return &MapType{
			Position: startPos,
			EndPos:   endPos,
			Key:      keyType,
			Value:    valueType,
		}, nil
	}

	if !p.check(TokenIdent) {
		return nil, p.error("expected type name")
	}

	name := p.current.Value
	endPos := p.current.Position
	endPos.Column += len(name)
	p.advance()

	if IsScalar(name) {
		return &ScalarType{
			Position: startPos,
			EndPos:   endPos,
			Name:     name,
		}, nil
	}

	return &NamedType{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
	}, nil
}

// parseEnum parses: 'enum' identifier '{' enumValue* '}'
func (p *Parser) parseEnum() (*Enum, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position
	p.advance() // consume 'enum'

	if !p.check(TokenIdent) {
		return nil, p.error("expected enum name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenLBrace, "expected '{' after enum name") {
		return nil, p.error("expected '{' after enum name")
	}

	var values []*EnumValue
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		p.collectComments()
		if p.check(TokenRBrace) {
			break
		}
		val, err := p.parseEnumValue()
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}

	endPos := p.current.Position
	if !p.consume(TokenRBrace, "expected '}'") {
		return nil, p.error("expected '}'")
	}

	return &Enum{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
		Values:   values,
		Comments: docComments,
	}, nil
}

// parseEnumValue parses: identifier '=' number ';'
func (p *Parser) parseEnumValue() (*EnumValue, *ParseError) {
	docComments := p.getDocComments()
	startPos := p.current.Position

	if !p.check(TokenIdent) {
		return nil, p.error("expected enum value name")
	}
	name := p.current.Value
	p.advance()

	if !p.consume(TokenEquals, "expected '=' after enum value name") {
		return nil, p.error("expected '=' after enum value name")
	}

	if !p.check(TokenInt) {
		return nil, p.error("expected enum value number")
	}
	num, err := strconv.Atoi(p.current.Value)
	if err != nil {
		return nil, p.error("invalid enum value number")
	}
	p.advance()

	endPos := p.current.Position
	if !p.consume(TokenSemicolon, "expected ';' after enum value") {
		return nil, p.error("expected ';' after enum value")
	}

	return &EnumValue{
		Position: startPos,
		EndPos:   endPos,
		Name:     name,
		Number:   num,
		Comments: docComments,
	}, nil
}

// Helper methods

func (p *Parser) advance() {
	p.previous = p.current
	p.current = p.lexer.Next()

	for p.current.Type == TokenComment {
		p.current = p.lexer.Next()
	}
}

func (p *Parser) check(typ TokenType) bool {
	return p.current.Type == typ
}

func (p *Parser) consume(typ TokenType, msg string) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) error(msg string) *ParseError {
	return &ParseError{
		Position: p.current.Position,
		Message:  msg,
	}
}

// synchronize skips tokens until a likely declaration boundary.
func (p *Parser) synchronize() {
	for !p.check(TokenEOF) {
		if p.previous.Type == TokenSemicolon || p.previous.Type == TokenRBrace {
			return
		}
		switch p.current.Type {
		case TokenPackage, TokenMessage, TokenEnum:
			return
		}
		p.advance()
	}
}

// collectComments collects doc comments preceding the current position.
func (p *Parser) collectComments() {
	for p.current.Type == TokenDocComment || p.current.Type == TokenComment {
		if p.current.Type == TokenDocComment {
			p.comments = append(p.comments, &Comment{
				Position: p.current.Position,
				EndPos:   p.current.Position,
				Text:     p.current.Value,
				IsDoc:    true,
			})
		}
		p.current = p.lexer.Next()
	}
}

// getDocComments returns comments collected since the last declaration.
func (p *Parser) getDocComments() []*Comment {
	result := make([]*Comment, len(p.comments))
	copy(result, p.comments)
	p.comments = nil
	return result
}

// ParseFile is a convenience function that parses a schema file.
func ParseFile(filename, input string) (*Schema, []ParseError) {
	parser := NewParser(filename, input)
	return parser.Parse()
}
