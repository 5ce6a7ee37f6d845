package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Pair is one attribute-name to raw-text entry of a value record
type Pair struct {
	Name  string
	Value string
}

// SetPair assigns value to name, keeping the position of an existing entry
func SetPair(pairs []Pair, name, value string) []Pair {
	for i := range pairs {
		if pairs[i].Name == name {
			pairs[i].Value = value
			return pairs
		}
	}
	return append(pairs, Pair{Name: name, Value: value})
}

// EncodePairs serializes pairs as a JSON object, preserving their order
func EncodePairs(pairs []Pair) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Name)
		if err != nil {
			return "", err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return "", err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// DecodePairs parses a JSON object produced by EncodePairs. Non-string
// values are kept in their JSON text form.
func DecodePairs(s string) ([]Pair, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to decode attribute values: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("failed to decode attribute values: expected object")
	}

	var pairs []Pair
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to decode attribute values: %w", err)
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode attribute values: %w", err)
		}

		value := string(raw)
		if len(raw) > 0 && raw[0] == '"' {
			if err := json.Unmarshal(raw, &value); err != nil {
				return nil, fmt.Errorf("failed to decode attribute values: %w", err)
			}
		}
		pairs = append(pairs, Pair{Name: name, Value: value})
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode attribute values: %w", err)
	}
	return pairs, nil
}
