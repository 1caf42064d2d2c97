package workflow

import "strings"

// Render substitutes {{key}} tokens in value with the corresponding
// parameter. Every occurrence of each known key is replaced; tokens with
// no matching key are left byte-for-byte unchanged. Rendering a value
// with no tokens returns it as-is.
func Render(value string, params map[string]string) string {
	for k, v := range params {
		value = strings.ReplaceAll(value, "{{"+k+"}}", v)
	}
	return value
}

// RenderNode returns a copy of n with every field value rendered against
// params. The original node is never mutated — stored workflow
// definitions stay template text.
func RenderNode(n Node, params map[string]string) Node {
	rendered := Node{
		Capability: n.Capability,
		Fields:     make(map[string]string, len(n.Fields)),
	}
	for k, v := range n.Fields {
		rendered.Fields[k] = Render(v, params)
	}
	return rendered
}
