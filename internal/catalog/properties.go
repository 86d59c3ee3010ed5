package catalog

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Property describes one input argument.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Properties is an insertion-ordered property map. It always encodes as a
// JSON object, "{}" when empty, never as null or an array.
type Properties struct {
	keys   []string
	values map[string]Property
}

// Set adds or replaces a property. Replacing keeps the original position.
func (p *Properties) Set(name string, prop Property) {
	if p.values == nil {
		p.values = make(map[string]Property)
	}
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = prop
}

// Get returns the property for name.
func (p Properties) Get(name string) (Property, bool) {
	prop, ok := p.values[name]
	return prop, ok
}

// Has reports whether name is a property.
func (p Properties) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Keys returns property names in insertion order.
func (p Properties) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of properties.
func (p Properties) Len() int {
	return len(p.keys)
}

// MarshalJSON implements json.Marshaler.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping document order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return errors.New("properties must be a JSON object")
	}
	*p = Properties{}
	res.ForEach(func(key, value gjson.Result) bool {
		p.Set(key.String(), Property{
			Type:        value.Get("type").String(),
			Description: value.Get("description").String(),
		})
		return true
	})
	return nil
}

// InputSchema is the JSON-Schema-shaped input contract of a tool.
type InputSchema struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Required   []string   `json:"required"`
}

// MarshalJSON encodes required as [] rather than null when empty.
func (s InputSchema) MarshalJSON() ([]byte, error) {
	type plain InputSchema
	out := plain(s)
	if out.Type == "" {
		out.Type = "object"
	}
	if out.Required == nil {
		out.Required = []string{}
	}
	return json.Marshal(out)
}

// IsRequired reports whether name is in the required set.
func (s InputSchema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}
