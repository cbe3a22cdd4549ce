package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Object is a decoded JSON object that remembers key order, heuristics
// that scan "every key containing x" must be deterministic.
type Object struct {
	Keys   []string
	Values map[string]any
}

func NewObject() *Object {
	return &Object{Values: map[string]any{}}
}

// Set appends `key` or overwrites its value in place.
func (o *Object) Set(key string, value any) {
	if _, ok := o.Values[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = value
}

func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.Values[key]
	return v, ok
}

// String returns the scalar under `key` as text, "" when missing or nested.
func (o *Object) String(key string) string {
	v, _ := o.Get(key)
	return Scalar(v)
}

// Object returns the nested object under `key`.
func (o *Object) Object(key string) (*Object, bool) {
	v, _ := o.Get(key)
	obj, ok := v.(*Object)
	return obj, ok
}

// Lookup follows a path of keys through nested objects.
func (o *Object) Lookup(path ...string) (any, bool) {
	var current any = o
	for _, key := range path {
		obj, ok := current.(*Object)
		if !ok {
			return nil, false
		}
		current, ok = obj.Get(key)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Scalar renders strings, numbers and booleans as text. nil and nested
// values render as "".
func Scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case *Object, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Decode parses JSON into *Object / []any / string / json.Number / bool / nil.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing data after json value")
	}
	return v, nil
}

// DecodeObject is Decode for payloads that must be an object.
func DecodeObject(data []byte) (*Object, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("expected a json object, got %T", v)
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				value, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, value)
			}
			_, err := dec.Token()
			return obj, err
		case '[':
			list := []any{}
			for dec.More() {
				value, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, value)
			}
			_, err := dec.Token()
			return list, err
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		return t, nil
	}
}

// Walk calls `fn` for every object nested in `v`, depth-first, parents
// before their children, in document order. returning false stops the walk.
func Walk(v any, fn func(obj *Object) bool) bool {
	switch t := v.(type) {
	case *Object:
		if !fn(t) {
			return false
		}
		for _, key := range t.Keys {
			if !Walk(t.Values[key], fn) {
				return false
			}
		}
	case []any:
		for _, item := range t {
			if !Walk(item, fn) {
				return false
			}
		}
	}
	return true
}

// FindObject returns the first nested object (walk order) for which
// `match` is true.
func FindObject(v any, match func(obj *Object) bool) (*Object, bool) {
	var found *Object
	Walk(v, func(obj *Object) bool {
		if match(obj) {
			found = obj
			return false
		}
		return true
	})
	return found, found != nil
}

// FindKey returns the first nested object stored under `key` (compared
// case-insensitively).
func FindKey(v any, key string) (*Object, bool) {
	var found *Object
	Walk(v, func(obj *Object) bool {
		for _, k := range obj.Keys {
			if !strings.EqualFold(k, key) {
				continue
			}
			if nested, ok := obj.Values[k].(*Object); ok {
				found = nested
				return false
			}
		}
		return true
	})
	return found, found != nil
}
