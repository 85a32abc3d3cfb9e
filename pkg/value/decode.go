package value

import (
	"fmt"

	"github.com/zurustar/paperrpg/pkg/formula"
	"gopkg.in/yaml.v3"
)

// Reader decodes operands positionally from a flat command array.
// Reading past the end yields zero scalars and Default values, so missing
// trailing parameters fall back to the callee's defaults.
type Reader struct {
	list []any
	pos  int
}

// NewReader creates a Reader over list.
func NewReader(list []any) *Reader {
	return &Reader{list: list}
}

// Done reports whether every element has been consumed.
func (r *Reader) Done() bool { return r.pos >= len(r.list) }

// Pos returns the index of the next element.
func (r *Reader) Pos() int { return r.pos }

// Next returns the next raw element, or nil past the end.
func (r *Reader) Next() any {
	if r.Done() {
		return nil
	}
	v := r.list[r.pos]
	r.pos++
	return v
}

// Int reads the next element as an integer.
func (r *Reader) Int() int { return int(formula.ToFloat64(r.Next())) }

// Bool reads the next element as a flag. Content data encodes flags as 0/1.
func (r *Reader) Bool() bool { return formula.ToBool(r.Next()) }

// String reads the next element as text.
func (r *Reader) String() string { return formula.ToString(r.Next()) }

// Value reads a kind followed by its raw payload.
func (r *Reader) Value() Value {
	if r.Done() {
		return DefaultValue
	}
	kind := Kind(r.Int())
	if r.Done() {
		return New(kind, nil)
	}
	return New(kind, r.Next())
}

// UnmarshalYAML decodes a Value from content data. Accepted forms are a
// [kind, raw] pair, a {k: kind, v: raw} mapping, or a bare scalar literal.
// JSON documents decode through the same path.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var pair []any
		if err := node.Decode(&pair); err != nil {
			return err
		}
		*v = NewReader(pair).Value()
		return nil
	case yaml.MappingNode:
		var m struct {
			K int `yaml:"k"`
			V any `yaml:"v"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		*v = New(Kind(m.K), m.V)
		return nil
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			*v = New(None, nil)
		case "!!int", "!!float":
			var n float64
			if err := node.Decode(&n); err != nil {
				return err
			}
			*v = NumberOf(n)
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = SwitchOf(b)
		default:
			*v = TextOf(node.Value)
		}
		return nil
	}
	return fmt.Errorf("line %d: cannot decode value from yaml node kind %d", node.Line, node.Kind)
}
