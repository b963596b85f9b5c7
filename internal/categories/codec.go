package categories

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes the store as a JSON object whose keys keep store order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s.categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, c.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, c.Keywords); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON reads a JSON object of category name to keyword array,
// keeping key order. A null keyword list is an empty category.
func (s *Store) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("category store must be a JSON object, got %v", tok)
	}

	fresh := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		var keywords []string
		if err := dec.Decode(&keywords); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		fresh.put(name, keywords)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	s.categories = fresh.categories
	s.byName = fresh.byName
	return nil
}

// MarshalYAML writes the store as an ordered YAML mapping.
func (s *Store) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range s.categories {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, kw := range c.Keywords {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kw})
		}
		if len(c.Keywords) == 0 {
			seq.Style = yaml.FlowStyle
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Name},
			seq,
		)
	}
	return root, nil
}

// UnmarshalYAML reads an ordered YAML mapping of category to keywords.
func (s *Store) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.DocumentNode && len(value.Content) == 1 {
		value = value.Content[0]
	}
	fresh := New()
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		s.categories, s.byName = fresh.categories, fresh.byName
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("category store must be a mapping (line %d)", value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		var keywords []string
		if err := val.Decode(&keywords); err != nil {
			return fmt.Errorf("category %q: %w", key.Value, err)
		}
		fresh.put(key.Value, keywords)
	}

	s.categories = fresh.categories
	s.byName = fresh.byName
	return nil
}
