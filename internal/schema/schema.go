// Package schema models an OpenAPI/Swagger document as the ordered set of
// path templates and operations that the tool catalog is built from.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidDocument is returned when the body is not a JSON object.
	ErrInvalidDocument = errors.New("schema document is not a JSON object")
	// ErrNoPaths is returned when the document has no non-empty paths object.
	ErrNoPaths = errors.New("schema document has no paths")
)

// Parameter is one declared operation parameter.
type Parameter struct {
	Name        string `json:"name"`
	In          string `json:"in,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Operation is one method on one path.
type Operation struct {
	Summary     string      `json:"summary,omitempty"`
	Description string      `json:"description,omitempty"`
	OperationID string      `json:"operationId,omitempty"`
	Parameters  []Parameter `json:"parameters"`
}

// MethodOperation pairs a lowercase HTTP method with its operation.
type MethodOperation struct {
	Method    string
	Operation Operation
}

// PathItem holds the operations of one path template in document order.
type PathItem struct {
	Path       string
	Operations []MethodOperation
}

// Schema is an ordered mapping from path template to operations.
type Schema struct {
	Paths []PathItem
	index map[string]int
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{index: make(map[string]int)}
}

// Add records op under path and method. Empty paths are ignored; an existing
// path/method pair is replaced in place.
func (s *Schema) Add(path, method string, op Operation) {
	if path == "" || method == "" {
		return
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	method = strings.ToLower(method)
	if op.Parameters == nil {
		op.Parameters = []Parameter{}
	}

	i, ok := s.index[path]
	if !ok {
		s.index[path] = len(s.Paths)
		s.Paths = append(s.Paths, PathItem{Path: path})
		i = len(s.Paths) - 1
	}
	item := &s.Paths[i]
	for j := range item.Operations {
		if item.Operations[j].Method == method {
			item.Operations[j].Operation = op
			return
		}
	}
	item.Operations = append(item.Operations, MethodOperation{Method: method, Operation: op})
}

// Len returns the number of paths.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Paths)
}

// Empty reports whether the schema has no paths.
func (s *Schema) Empty() bool {
	return s.Len() == 0
}

// OperationCount returns the number of path/method pairs.
func (s *Schema) OperationCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, p := range s.Paths {
		n += len(p.Operations)
	}
	return n
}

// Parse reads a schema document, keeping paths and methods in document order.
// Non-object entries under a path (such as path-level "parameters") are skipped.
func Parse(data []byte) (*Schema, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDocument
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, ErrInvalidDocument
	}
	paths := root.Get("paths")
	if !paths.IsObject() {
		return nil, ErrNoPaths
	}

	s := New()
	paths.ForEach(func(key, methods gjson.Result) bool {
		path := key.String()
		if path == "" || !methods.IsObject() {
			return true
		}
		methods.ForEach(func(method, op gjson.Result) bool {
			if op.IsObject() {
				s.Add(path, method.String(), parseOperation(op))
			}
			return true
		})
		return true
	})

	if s.Empty() {
		return nil, ErrNoPaths
	}
	return s, nil
}

func parseOperation(op gjson.Result) Operation {
	out := Operation{
		Summary:     op.Get("summary").String(),
		Description: op.Get("description").String(),
		OperationID: op.Get("operationId").String(),
		Parameters:  []Parameter{},
	}
	op.Get("parameters").ForEach(func(_, p gjson.Result) bool {
		if !p.IsObject() {
			return true
		}
		typ := p.Get("schema.type").String()
		if typ == "" {
			typ = p.Get("type").String()
		}
		out.Parameters = append(out.Parameters, Parameter{
			Name:        p.Get("name").String(),
			In:          p.Get("in").String(),
			Type:        typ,
			Description: p.Get("description").String(),
			Required:    p.Get("required").Bool(),
		})
		return true
	})
	return out
}

// MarshalJSON encodes the schema as {"paths": {...}} preserving order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"paths":{`)
	for i, item := range s.Paths {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Path)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":{")
		for j, mo := range item.Operations {
			if j > 0 {
				buf.WriteByte(',')
			}
			method, err := json.Marshal(mo.Method)
			if err != nil {
				return nil, err
			}
			op, err := json.Marshal(mo.Operation)
			if err != nil {
				return nil, err
			}
			buf.Write(method)
			buf.WriteByte(':')
			buf.Write(op)
		}
		buf.WriteByte('}')
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}
