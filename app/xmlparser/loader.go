package xmlparser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrMalformed      = errors.New("malformed XML document")
	ErrEntityDeclared = errors.New("entity declarations are not allowed")
)

type DiagnosticCode int

const (
	DiagSyntax DiagnosticCode = iota + 1
	DiagEntity
	DiagEmpty
	DiagExtraRoot
)

// Diagnostic is an advisory record produced while loading a document.
type Diagnostic struct {
	Message string
	Line    int
	Column  int
	Code    DiagnosticCode
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("XML error: %s (Line: %d - Column: %d - Code: %d)", d.Message, d.Line, d.Column, d.Code)
}

type Options struct {
	// RejectEntityDeclarations rejects any input containing an entity
	// declaration marker before parsing, even inside comments or CDATA.
	RejectEntityDeclarations bool
}

// Loader parses untrusted XML into a Node tree. Entities are never expanded
// and nothing is fetched from the network. A Loader keeps the diagnostics of
// its last load and must not be shared between goroutines.
type Loader struct {
	opts        Options
	diagnostics []Diagnostic
}

func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

var entityMarker = []byte("<!ENTITY")

func (l *Loader) Load(data []byte) (*Document, error) {
	l.diagnostics = nil

	if l.opts.RejectEntityDeclarations && bytes.Contains(data, entityMarker) {
		l.addDiagnostic(DiagEntity, 0, 0, "entity declaration marker found")
		return nil, fmt.Errorf("%w: input contains %s", ErrEntityDeclared, entityMarker)
	}

	doc, err := l.parse(data)
	if err != nil {
		return nil, err
	}

	if len(doc.Nodes) == 0 {
		l.addDiagnostic(DiagEmpty, 0, 0, "document is empty")
		return nil, fmt.Errorf("%w: document is empty", ErrMalformed)
	}

	if doc.Doctype != nil && len(doc.Doctype.Entities) > 0 {
		return nil, fmt.Errorf("%w: doctype declares %s", ErrEntityDeclared, strings.Join(doc.Doctype.Entities, ", "))
	}

	if doc.Root() == nil {
		l.addDiagnostic(DiagEmpty, 0, 0, "document has no root element")
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}

	return doc, nil
}

func (l *Loader) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), l.diagnostics...)
}

func (l *Loader) addDiagnostic(code DiagnosticCode, line, column int, message string) {
	l.diagnostics = append(l.diagnostics, Diagnostic{Message: message, Line: line, Column: column, Code: code})
}

func (l *Loader) parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = passthroughCharset

	doc := &Document{}
	var current *Node
	roots := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, column := dec.InputPos()
			l.addDiagnostic(DiagSyntax, line, column, err.Error())
			// A declared entity is reported as a security rejection even when
			// its use broke the parse first.
			if doc.Doctype != nil && len(doc.Doctype.Entities) > 0 {
				return nil, fmt.Errorf("%w: doctype declares %s", ErrEntityDeclared, strings.Join(doc.Doctype.Entities, ", "))
			}
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			t = t.Copy()
			n := &Node{Type: ElementNode, Name: t.Name, Attrs: t.Attr}
			if current == nil {
				roots++
				if roots > 1 {
					line, column := dec.InputPos()
					l.addDiagnostic(DiagExtraRoot, line, column, "extra content at the end of the document")
					if doc.Doctype != nil && len(doc.Doctype.Entities) > 0 {
						return nil, fmt.Errorf("%w: doctype declares %s", ErrEntityDeclared, strings.Join(doc.Doctype.Entities, ", "))
					}
					return nil, fmt.Errorf("%w: extra content at the end of the document", ErrMalformed)
				}
			}
			appendNode(doc, current, n)
			current = n
		case xml.EndElement:
			if current != nil {
				current = current.Parent
			}
		case xml.CharData:
			if current == nil {
				if len(bytes.TrimSpace(t)) == 0 {
					continue
				}
				line, column := dec.InputPos()
				l.addDiagnostic(DiagSyntax, line, column, "text content outside of the root element")
				return nil, fmt.Errorf("%w: text content outside of the root element", ErrMalformed)
			}
			if last := lastChild(current); last != nil && last.Type == TextNode {
				last.Data += string(t)
				continue
			}
			appendNode(doc, current, &Node{Type: TextNode, Data: string(t)})
		case xml.Comment:
			appendNode(doc, current, &Node{Type: CommentNode, Data: string(t)})
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			appendNode(doc, current, &Node{Type: ProcInstNode, Name: xml.Name{Local: t.Target}, Data: string(t.Inst)})
		case xml.Directive:
			raw := string(t)
			if current == nil && isDoctype(raw) {
				doc.Doctype = &Doctype{Raw: raw, Entities: declaredEntities(raw)}
				for _, name := range doc.Doctype.Entities {
					line, column := dec.InputPos()
					l.addDiagnostic(DiagEntity, line, column, "entity declared: "+name)
				}
			}
			appendNode(doc, current, &Node{Type: DirectiveNode, Data: raw})
		}
	}

	return doc, nil
}

func appendNode(doc *Document, parent, n *Node) {
	if parent == nil {
		doc.Nodes = append(doc.Nodes, n)
		return
	}
	n.Parent = parent
	parent.Children = append(parent.Children, n)
}

func lastChild(n *Node) *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// Input is converted to UTF-8 before loading, so the declared charset is ignored.
func passthroughCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

func isDoctype(directive string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(directive)), "DOCTYPE")
}

func declaredEntities(directive string) []string {
	var names []string
	rest := directive
	for {
		i := strings.Index(rest, "<!ENTITY")
		if i < 0 {
			return names
		}
		rest = rest[i+len("<!ENTITY"):]
		fields := strings.Fields(rest)
		if len(fields) > 0 && fields[0] == "%" {
			fields = fields[1:]
		}
		name := "(unnamed)"
		if len(fields) > 0 {
			name = strings.TrimPrefix(fields[0], "%")
		}
		names = append(names, name)
	}
}
