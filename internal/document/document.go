// Package document models decoded JSON values of unknown, source-dependent
// shape. A Document is a closed tagged union over the six JSON kinds; map
// key order is preserved so traversals are deterministic across runs.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies which variant a Document holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Document is one decoded JSON value. The zero value is the null document.
type Document struct {
	kind   Kind
	boolV  bool
	numV   float64
	strV   string
	items  []*Document
	keys   []string
	fields map[string]*Document
}

// Null returns the null document.
func Null() *Document {
	return &Document{kind: KindNull}
}

// NewBool wraps a boolean.
func NewBool(v bool) *Document {
	return &Document{kind: KindBool, boolV: v}
}

// NewNumber wraps a number.
func NewNumber(v float64) *Document {
	return &Document{kind: KindNumber, numV: v}
}

// NewString wraps a string.
func NewString(v string) *Document {
	return &Document{kind: KindString, strV: v}
}

// NewList wraps a list of documents.
func NewList(items ...*Document) *Document {
	return &Document{kind: KindList, items: items}
}

// NewMap builds an empty ordered map document.
func NewMap() *Document {
	return &Document{kind: KindMap, fields: make(map[string]*Document)}
}

// Kind reports the variant held by the document.
func (d *Document) Kind() Kind {
	if d == nil {
		return KindNull
	}
	return d.kind
}

// Bool returns the boolean value; false for non-bool documents.
func (d *Document) Bool() bool {
	if d == nil || d.kind != KindBool {
		return false
	}
	return d.boolV
}

// Number returns the numeric value; 0 for non-number documents.
func (d *Document) Number() float64 {
	if d == nil || d.kind != KindNumber {
		return 0
	}
	return d.numV
}

// Str returns the string value; "" for non-string documents.
func (d *Document) Str() string {
	if d == nil || d.kind != KindString {
		return ""
	}
	return d.strV
}

// Len returns the element count for lists and maps, 0 otherwise.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	switch d.kind {
	case KindList:
		return len(d.items)
	case KindMap:
		return len(d.keys)
	default:
		return 0
	}
}

// Item returns the i-th list element, or nil when out of range.
func (d *Document) Item(i int) *Document {
	if d == nil || d.kind != KindList || i < 0 || i >= len(d.items) {
		return nil
	}
	return d.items[i]
}

// Items returns the underlying list elements. Callers must not mutate.
func (d *Document) Items() []*Document {
	if d == nil || d.kind != KindList {
		return nil
	}
	return d.items
}

// Keys returns map keys in their original document order.
func (d *Document) Keys() []string {
	if d == nil || d.kind != KindMap {
		return nil
	}
	return d.keys
}

// Field looks up a map value by key.
func (d *Document) Field(key string) (*Document, bool) {
	if d == nil || d.kind != KindMap {
		return nil, false
	}
	v, ok := d.fields[key]
	return v, ok
}

// Set inserts or replaces a map entry, preserving first-seen key order.
func (d *Document) Set(key string, value *Document) {
	if d == nil || d.kind != KindMap {
		return
	}
	if _, exists := d.fields[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = value
}

// Append adds an element to a list document.
func (d *Document) Append(value *Document) {
	if d == nil || d.kind != KindList {
		return
	}
	d.items = append(d.items, value)
}

// Decode parses a JSON body into a Document, preserving map key order.
func Decode(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	doc, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}

	// Reject payloads with trailing content after the first value.
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}

	return doc, nil
}

func decodeValue(dec *json.Decoder) (*Document, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeMap(dec)
		case '[':
			return decodeList(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t.String())
		}
	case bool:
		return NewBool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("parse number %q: %w", t.String(), err)
		}
		return NewNumber(f), nil
	case string:
		return NewString(t), nil
	case nil:
		return Null(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeMap(dec *json.Decoder) (*Document, error) {
	doc := NewMap()

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read map key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("map key is %T, want string", keyTok)
		}

		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, val)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read map end: %w", err)
	}

	return doc, nil
}

func decodeList(dec *json.Decoder) (*Document, error) {
	doc := NewList()

	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Append(val)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read list end: %w", err)
	}

	return doc, nil
}

// MarshalJSON round-trips a Document back to JSON, keeping map key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, d *Document) error {
	switch d.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if d.boolV {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		b, err := json.Marshal(d.numV)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(d.strV)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindList:
		buf.WriteByte('[')
		for i, item := range d.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, key := range d.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encode(buf, d.fields[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
