package ecw

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// parseXMLResponse decodes an ECW catalog XML document into a generic map.
// Leaf elements become strings, repeated elements become lists, and element
// attributes merge into the element's map.
func parseXMLResponse(data []byte) (map[string]any, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("ecw: empty xml document")
		}
		if err != nil {
			return nil, fmt.Errorf("ecw: malformed xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		node, err := parseXMLNode(dec, start)
		if err != nil {
			return nil, err
		}
		if m, ok := node.(map[string]any); ok {
			return m, nil
		}
		// Root held only text; keep the root element name as the key.
		return map[string]any{start.Name.Local: node}, nil
	}
}

func parseXMLNode(dec *xml.Decoder, start xml.StartElement) (any, error) {
	children := map[string]any{}
	var text strings.Builder

	for _, attr := range start.Attr {
		if _, exists := children[attr.Name.Local]; !exists {
			children[attr.Name.Local] = attr.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("ecw: malformed xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseXMLNode(dec, t)
			if err != nil {
				return nil, err
			}
			name := t.Name.Local
			existing, seen := children[name]
			if !seen {
				children[name] = child
				continue
			}
			if list, ok := existing.([]any); ok {
				children[name] = append(list, child)
			} else {
				children[name] = []any{existing, child}
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(children) == 0 {
				return strings.TrimSpace(text.String()), nil
			}
			return children, nil
		}
	}
}

// parseProgressNoteHTML reduces the rendered progress-note document to its
// titled sections. Bold and header cells act as section titles; everything
// else becomes lines under the current section.
func parseProgressNoteHTML(data []byte) (*ProgressNote, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ecw: malformed progress note html: %w", err)
	}

	note := &ProgressNote{}
	var current *ProgressNoteSection
	var fullText strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "script", "style", "head":
				return
			case "b", "strong", "th", "h1", "h2", "h3":
				title := strings.TrimSuffix(strings.TrimSpace(collectText(n)), ":")
				if title != "" {
					note.Sections = append(note.Sections, ProgressNoteSection{Title: title})
					current = &note.Sections[len(note.Sections)-1]
					fullText.WriteString(title + "\n")
				}
				return
			}
		}
		if n.Type == html.TextNode {
			for _, raw := range strings.Split(n.Data, "\n") {
				line := strings.TrimSpace(raw)
				if line == "" {
					continue
				}
				if current != nil {
					current.Lines = append(current.Lines, line)
				}
				fullText.WriteString(line + "\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	note.Text = strings.TrimSpace(fullText.String())
	return note, nil
}

func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// asList coerces a parsed XML value to a list; a single element is wrapped.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// listField reads a list from a parsed response. XML wraps repeated elements
// in a container (`<facilities><facility/>...`), JSON holds the array
// directly; both shapes resolve to the inner items.
func listField(m map[string]any, key string) []any {
	v, ok := m[key]
	if !ok {
		return nil
	}
	if container, ok := v.(map[string]any); ok && len(container) == 1 {
		for _, inner := range container {
			return asList(inner)
		}
	}
	return asList(v)
}

// stringField reads a string value from a parsed XML map, trying the given
// key both as-is and lowercased; ECW is not consistent about casing.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		if v, ok := m[strings.ToLower(k)]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
