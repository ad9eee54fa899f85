package snippetfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the on-disk encoding of a snippet file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrInvalidDocument means the file is not an object at the top level or fails to parse.
var ErrInvalidDocument = errors.New("invalid snippet document")

// FormatOf derives the format from a file name extension.
func FormatOf(name string) (Format, bool) {
	switch {
	case strings.HasSuffix(name, ".json"):
		return FormatJSON, true
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return FormatYAML, true
	}
	return "", false
}

// Decode parses data as a top-level object in the given format.
func Decode(data []byte, f Format) (Object, error) {
	switch f {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}

// Encode renders o in the given format. JSON uses four-space indentation and
// leaves non-ASCII text, slashes and HTML characters unescaped.
func Encode(o Object, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		var buf bytes.Buffer
		if err := writeJSON(&buf, o, 0); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(4)
		if err := enc.Encode(yamlNode(o)); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}

// --- JSON ---

func decodeJSON(data []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after top-level value", ErrInvalidDocument)
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrInvalidDocument)
	}
	return obj, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := Object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		list := []any{}
		for dec.More() {
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

func writeJSON(buf *bytes.Buffer, v any, depth int) error {
	switch val := v.(type) {
	case Object:
		if len(val) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{")
		for i, m := range val {
			if i > 0 {
				buf.WriteString(",")
			}
			newline(buf, depth+1)
			if err := writeJSONScalar(buf, m.Key); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := writeJSON(buf, m.Value, depth+1); err != nil {
				return err
			}
		}
		newline(buf, depth)
		buf.WriteString("}")
	case []any:
		if len(val) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[")
		for i, item := range val {
			if i > 0 {
				buf.WriteString(",")
			}
			newline(buf, depth+1)
			if err := writeJSON(buf, item, depth+1); err != nil {
				return err
			}
		}
		newline(buf, depth)
		buf.WriteString("]")
	default:
		return writeJSONScalar(buf, val)
	}
	return nil
}

func writeJSONScalar(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %v: %w", v, err)
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString("    ")
	}
}

// --- YAML ---

func decodeYAML(data []byte) (Object, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if doc.Kind == 0 {
		return Object{}, nil
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top-level value is not a mapping", ErrInvalidDocument)
	}
	return decodeYAMLMapping(root)
}

func decodeYAMLMapping(n *yaml.Node) (Object, error) {
	obj := Object{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		for val.Kind == yaml.AliasNode && val.Alias != nil {
			val = val.Alias
		}
		if val.Kind == yaml.MappingNode {
			child, err := decodeYAMLMapping(val)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: key.Value, Value: child})
			continue
		}
		var leaf any
		if err := val.Decode(&leaf); err != nil {
			return nil, fmt.Errorf("%w: key %q: %w", ErrInvalidDocument, key.Value, err)
		}
		obj = append(obj, Member{Key: key.Value, Value: leaf})
	}
	return obj, nil
}

func yamlNode(v any) *yaml.Node {
	switch val := v.(type) {
	case Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range val {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				yamlNode(m.Value))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(val.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: val.String()}
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(v)}
	}
	return n
}
