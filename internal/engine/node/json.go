package node

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSONObject builds a serialized node object field by field.
// The first failing write is kept and returned by Bytes.
type JSONObject struct {
	b   []byte
	err error
}

// NewJSONObject starts an object with the type discriminant and version.
func NewJSONObject(typ string, version int) *JSONObject {
	o := &JSONObject{b: []byte(`{}`)}
	o.Set("type", typ)
	o.Set("version", version)
	return o
}

// Set writes a value at path.
func (o *JSONObject) Set(path string, v any) *JSONObject {
	if o.err == nil {
		o.b, o.err = sjson.SetBytes(o.b, path, v)
	}
	return o
}

// SetRaw writes an already encoded JSON value at path.
func (o *JSONObject) SetRaw(path string, raw []byte) *JSONObject {
	if o.err == nil {
		o.b, o.err = sjson.SetRawBytes(o.b, path, raw)
	}
	return o
}

// Bytes returns the encoded object.
func (o *JSONObject) Bytes() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.b, nil
}

func versionOf(k *Klass) int {
	if k.Version <= 0 {
		return 1
	}
	return k.Version
}

// ExportText encodes the fields of a text node.
func ExportText(t *Text, version int) *JSONObject {
	return NewJSONObject(t.Type, version).
		Set("detail", int(t.Detail)).
		Set("format", int(t.Format)).
		Set("mode", t.Mode.String()).
		Set("style", t.Style).
		Set("text", t.Content)
}

// ImportText decodes the fields of a text node.
func ImportText(t *Text, obj gjson.Result) {
	t.Content = obj.Get("text").String()
	t.Format = TextFormat(obj.Get("format").Uint())
	t.Detail = TextDetail(obj.Get("detail").Uint())
	t.Mode = ParseTextMode(obj.Get("mode").String())
	t.Style = obj.Get("style").String()
}

// ExportElement encodes the fields of an element, without its children.
func ExportElement(e *Element, version int) *JSONObject {
	o := NewJSONObject(e.Type, version).
		Set("format", e.Format.String()).
		Set("indent", e.Indent)
	if e.Dir == DirNone {
		o.Set("direction", nil)
	} else {
		o.Set("direction", e.Dir.String())
	}
	return o
}

// ImportElement decodes the fields of an element, without its children.
func ImportElement(e *Element, obj gjson.Result) {
	e.Format = ParseElementFormat(obj.Get("format").String())
	e.Indent = int(obj.Get("indent").Int())
	e.Dir = ParseDirection(obj.Get("direction").String())
}

func exportTextJSON(k *Klass) func(Node) ([]byte, error) {
	return func(n Node) ([]byte, error) {
		t, ok := AsText(n)
		if !ok {
			return nil, fmt.Errorf("export %s: %w", n.Meta().Type, ErrKindMismatch)
		}
		return ExportText(t, versionOf(k)).Bytes()
	}
}

func importTextJSON(n Node, obj gjson.Result) error {
	t, ok := AsText(n)
	if !ok {
		return ErrKindMismatch
	}
	ImportText(t, obj)
	return nil
}

func exportElementJSON(k *Klass) func(Node) ([]byte, error) {
	return func(n Node) ([]byte, error) {
		e, ok := AsElement(n)
		if !ok {
			return nil, fmt.Errorf("export %s: %w", n.Meta().Type, ErrKindMismatch)
		}
		return ExportElement(e, versionOf(k)).Bytes()
	}
}

func importElementJSON(n Node, obj gjson.Result) error {
	e, ok := AsElement(n)
	if !ok {
		return ErrKindMismatch
	}
	ImportElement(e, obj)
	return nil
}

func exportLineBreakJSON(k *Klass) func(Node) ([]byte, error) {
	return func(n Node) ([]byte, error) {
		return NewJSONObject(n.Meta().Type, versionOf(k)).Bytes()
	}
}

func importNothing(Node, gjson.Result) error {
	return nil
}

func exportDecoratorJSON(k *Klass) func(Node) ([]byte, error) {
	return func(n Node) ([]byte, error) {
		d, ok := AsDecorator(n)
		if !ok {
			return nil, fmt.Errorf("export %s: %w", n.Meta().Type, ErrKindMismatch)
		}
		payload, err := json.Marshal(d.Payload)
		if err != nil {
			return nil, fmt.Errorf("export %s payload: %w", d.Type, err)
		}
		return NewJSONObject(d.Type, versionOf(k)).
			Set("inline", d.Inline).
			SetRaw("payload", payload).
			Bytes()
	}
}

func importDecoratorJSON(n Node, obj gjson.Result) error {
	d, ok := AsDecorator(n)
	if !ok {
		return ErrKindMismatch
	}
	d.Inline = obj.Get("inline").Bool()
	if p := obj.Get("payload"); p.Exists() {
		d.Payload = p.Value()
	}
	return nil
}
