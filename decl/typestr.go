package decl

import (
	"fmt"
	"strings"
	"unicode"
)

// RefKind distinguishes lvalue and rvalue references.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefLValue
	RefRValue
)

// SmartKind identifies standard smart-pointer templates.
type SmartKind uint8

const (
	SmartNone SmartKind = iota
	SmartUnique
	SmartShared
	SmartWeak
)

// Type is a canonicalized C++ type spelling.
type Type struct {
	Name     string
	Args     []*Type
	Pointers []bool // one entry per indirection level; true when that pointer is const
	Const    bool
	Volatile bool
	Literal  bool // non-type template argument
	Ref      RefKind
}

// ParseType canonicalizes a C++ type spelling such as
// "std::vector<std::pair<int, Pet *> > const &".
func ParseType(s string) (*Type, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &typeParser{toks: toks, src: s}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("decl: unexpected %q in type %q", p.toks[p.pos], s)
	}
	return t, nil
}

// MustParseType is ParseType for spellings known to be valid.
func MustParseType(s string) *Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Canonical returns the canonical spelling of s, or s trimmed when it
// does not parse.
func Canonical(s string) string {
	t, err := ParseType(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return t.String()
}

func (t *Type) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	if t.Const {
		b.WriteString("const ")
	}
	if t.Volatile {
		b.WriteString("volatile ")
	}
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b)
		}
		b.WriteByte('>')
	}
	for _, constPtr := range t.Pointers {
		b.WriteByte('*')
		if constPtr {
			b.WriteString(" const")
		}
	}
	switch t.Ref {
	case RefLValue:
		b.WriteByte('&')
	case RefRValue:
		b.WriteString("&&")
	}
}

// Base returns the type without cv-qualifiers, pointers and references.
// Template arguments are kept as spelled.
func (t *Type) Base() *Type {
	return &Type{Name: t.Name, Args: t.Args, Literal: t.Literal}
}

// Elem strips one level of reference, or else one level of pointer.
func (t *Type) Elem() *Type {
	c := *t
	if c.Ref != RefNone {
		c.Ref = RefNone
		return &c
	}
	if len(c.Pointers) > 0 {
		c.Pointers = append([]bool(nil), c.Pointers[:len(c.Pointers)-1]...)
	}
	return &c
}

// PointerDepth returns the number of pointer levels.
func (t *Type) PointerDepth() int {
	return len(t.Pointers)
}

// IsPointer reports whether the outermost declarator is a pointer.
func (t *Type) IsPointer() bool {
	return len(t.Pointers) > 0 && t.Ref == RefNone
}

// IsReference reports whether the outermost declarator is a reference.
func (t *Type) IsReference() bool {
	return t.Ref != RefNone
}

// IsTemplate reports whether the base names a template instantiation.
func (t *Type) IsTemplate() bool {
	return len(t.Args) > 0
}

// Smart reports which standard smart pointer the base type is.
func (t *Type) Smart() SmartKind {
	switch t.Name {
	case "std::unique_ptr":
		return SmartUnique
	case "std::shared_ptr":
		return SmartShared
	case "std::weak_ptr":
		return SmartWeak
	}
	return SmartNone
}

type typeParser struct {
	src  string
	toks []string
	pos  int
}

func (p *typeParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *typeParser) next() string {
	tok := p.peek()
	if tok != "" {
		p.pos++
	}
	return tok
}

func (p *typeParser) parse() (*Type, error) {
	t := &Type{}
	p.qualifiers(t)

	if isNumber(p.peek()) {
		t.Name = p.next()
		t.Literal = true
		return t, nil
	}

	name, err := p.baseName()
	if err != nil {
		return nil, err
	}
	t.Name = name

	if p.peek() == "<" {
		p.next()
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			t.Args = append(t.Args, arg)
			tok := p.next()
			if tok == ">" {
				break
			}
			if tok != "," {
				return nil, fmt.Errorf("decl: expected ',' or '>' in type %q", p.src)
			}
		}
	}

	// east const: "Pet const&"
	p.qualifiers(t)

	for {
		switch p.peek() {
		case "*":
			p.next()
			t.Pointers = append(t.Pointers, false)
			for p.peek() == "const" || p.peek() == "volatile" {
				if p.next() == "const" {
					t.Pointers[len(t.Pointers)-1] = true
				}
			}
		case "&", "&&":
			if t.Ref != RefNone {
				return nil, fmt.Errorf("decl: reference to reference in type %q", p.src)
			}
			if p.next() == "&" {
				t.Ref = RefLValue
			} else {
				t.Ref = RefRValue
			}
		default:
			return t, nil
		}
	}
}

func (p *typeParser) qualifiers(t *Type) {
	for {
		switch p.peek() {
		case "const":
			t.Const = true
		case "volatile":
			t.Volatile = true
		case "typename", "struct", "class", "enum":
		default:
			return
		}
		p.next()
	}
}

var builtinWords = map[string]bool{
	"unsigned": true, "signed": true, "short": true, "long": true,
	"int": true, "char": true, "double": true,
}

func (p *typeParser) baseName() (string, error) {
	tok := p.peek()
	if tok == "" || !isIdent(tok) {
		return "", fmt.Errorf("decl: expected type name in %q", p.src)
	}
	if !builtinWords[tok] {
		p.next()
		return strings.TrimPrefix(tok, "::"), nil
	}

	var unsigned, signed, char, double bool
	var longs, shorts int
	for builtinWords[p.peek()] {
		switch p.next() {
		case "unsigned":
			unsigned = true
		case "signed":
			signed = true
		case "short":
			shorts++
		case "long":
			longs++
		case "char":
			char = true
		case "double":
			double = true
		}
	}

	switch {
	case double && longs > 0:
		return "long double", nil
	case double:
		return "double", nil
	case char && unsigned:
		return "unsigned char", nil
	case char && signed:
		return "signed char", nil
	case char:
		return "char", nil
	}

	size := "int"
	switch {
	case shorts > 0:
		size = "short"
	case longs >= 2:
		size = "long long"
	case longs == 1:
		size = "long"
	}
	if unsigned {
		return "unsigned " + size, nil
	}
	return size, nil
}

func tokenize(s string) ([]string, error) {
	var toks []string
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '<' || c == ',' || c == '*':
			toks = append(toks, string(c))
			i++
		case c == '>':
			// ">>" closes two template argument lists
			toks = append(toks, ">")
			i++
		case c == '&':
			if i+1 < len(s) && s[i+1] == '&' {
				toks = append(toks, "&&")
				i += 2
			} else {
				toks = append(toks, "&")
				i++
			}
		case c == '_' || c == ':' || unicode.IsLetter(c) || unicode.IsDigit(c) || c == '-':
			j := i
			for j < len(s) {
				r := rune(s[j])
				if r == '_' || r == ':' || unicode.IsLetter(r) || unicode.IsDigit(r) || (j == i && r == '-') {
					j++
					continue
				}
				break
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			return nil, fmt.Errorf("decl: unsupported character %q in type %q", c, s)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("decl: empty type")
	}
	return toks, nil
}

func isIdent(tok string) bool {
	if tok == "" {
		return false
	}
	c := rune(tok[0])
	return c == '_' || c == ':' || unicode.IsLetter(c)
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	start := 0
	if tok[0] == '-' {
		start = 1
	}
	if start == len(tok) {
		return false
	}
	for _, r := range tok[start:] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
