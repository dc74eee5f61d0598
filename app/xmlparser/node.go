package xmlparser

import (
	"encoding/xml"
	"strings"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

// Node is one node of a loaded document. Helper methods are nil-safe so
// lookups can be chained without checks: root.Child("author").Child("name").Text().
type Node struct {
	Type     NodeType
	Name     xml.Name
	Attrs    []xml.Attr
	Data     string
	Parent   *Node
	Children []*Node
}

type Doctype struct {
	Raw      string
	Entities []string
}

type Document struct {
	Nodes   []*Node
	Doctype *Doctype
}

// Root returns the first top-level element.
func (d *Document) Root() *Node {
	if d == nil {
		return nil
	}
	for _, n := range d.Nodes {
		if n.Type == ElementNode {
			return n
		}
	}
	return nil
}

func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	var elements []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode {
			elements = append(elements, c)
		}
	}
	return elements
}

// Child returns the first element child with the given local name, in any namespace.
func (n *Node) Child(local string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Type == ElementNode && c.Name.Local == local {
			return c
		}
	}
	return nil
}

func (n *Node) ChildNS(space, local string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Type == ElementNode && c.Name.Space == space && c.Name.Local == local {
			return c
		}
	}
	return nil
}

func (n *Node) ChildrenNamed(local string) []*Node {
	if n == nil {
		return nil
	}
	var matched []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode && c.Name.Local == local {
			matched = append(matched, c)
		}
	}
	return matched
}

// Attr returns the value of the first attribute with the given local name.
func (n *Node) Attr(local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (n *Node) AttrNS(space, local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Text concatenates the character data of all descendants.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.Type == TextNode {
		return n.Data
	}
	var b strings.Builder
	n.appendText(&b)
	return b.String()
}

func (n *Node) appendText(b *strings.Builder) {
	for _, c := range n.Children {
		switch c.Type {
		case TextNode:
			b.WriteString(c.Data)
		case ElementNode:
			c.appendText(b)
		}
	}
}

func (n *Node) HasElementChildren() bool {
	if n == nil {
		return false
	}
	for _, c := range n.Children {
		if c.Type == ElementNode {
			return true
		}
	}
	return false
}

// InnerXML serializes the children of n as markup. Namespace prefixes and
// declarations are dropped, so XHTML payloads come out as plain HTML.
func (n *Node) InnerXML() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range n.Children {
		writeNode(&b, c)
	}
	return b.String()
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

func writeNode(b *strings.Builder, n *Node) {
	switch n.Type {
	case TextNode:
		writeEscaped(b, n.Data)
	case ElementNode:
		b.WriteString("<" + n.Name.Local)
		for _, a := range n.Attrs {
			if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
				continue
			}
			name := a.Name.Local
			if a.Name.Space == xmlNamespace {
				name = "xml:" + name
			}
			b.WriteString(" " + name + `="`)
			writeEscaped(b, a.Value)
			b.WriteString(`"`)
		}
		if len(n.Children) == 0 && voidElements[n.Name.Local] {
			b.WriteString("/>")
			return
		}
		b.WriteString(">")
		for _, c := range n.Children {
			writeNode(b, c)
		}
		b.WriteString("</" + n.Name.Local + ">")
	}
}

func writeEscaped(b *strings.Builder, s string) {
	// strings.Builder never returns a write error.
	_ = xml.EscapeText(b, []byte(s))
}
