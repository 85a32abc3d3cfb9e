// Package value provides the lazily evaluated operand used by commands and
// database entries.
//
// A Value is a kind tag plus a raw payload decoded once from content data.
// Values are immutable and shared by every invocation of the command that owns
// them; evaluation happens on demand against an Env.
package value

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/paperrpg/pkg/formula"
)

// Kind identifies how the raw payload of a Value is interpreted.
// The numbering follows the authoring tool's encoding.
type Kind int

const (
	None      Kind = 0
	Anything  Kind = 1
	Default   Kind = 2
	Number    Kind = 3
	Variable  Kind = 4
	Parameter Kind = 5
	Database  Kind = 7
	Text      Kind = 8
	Message   Kind = 9 // formula text
	Switch    Kind = 10
	Keyboard  Kind = 11
	Decimal   Kind = 12
)

var kindNames = map[Kind]string{
	None:      "None",
	Anything:  "Anything",
	Default:   "Default",
	Number:    "Number",
	Variable:  "Variable",
	Parameter: "Parameter",
	Database:  "Database",
	Text:      "Text",
	Message:   "Message",
	Switch:    "Switch",
	Keyboard:  "Keyboard",
	Decimal:   "Decimal",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Value is an immutable tagged operand.
type Value struct {
	kind Kind
	raw  any
}

// New creates a Value of the given kind.
func New(kind Kind, raw any) Value {
	return Value{kind: kind, raw: raw}
}

// NumberOf creates a Number literal.
func NumberOf(n float64) Value { return Value{kind: Number, raw: n} }

// TextOf creates a Text literal.
func TextOf(s string) Value { return Value{kind: Text, raw: s} }

// SwitchOf creates a Switch literal.
func SwitchOf(b bool) Value { return Value{kind: Switch, raw: b} }

// VariableOf creates a reference to a game variable.
func VariableOf(id int) Value { return Value{kind: Variable, raw: float64(id)} }

// ParameterOf creates a reference to a reaction parameter.
func ParameterOf(id int) Value { return Value{kind: Parameter, raw: float64(id)} }

// KeyboardOf creates a value bound to a logical key.
func KeyboardOf(id int) Value { return Value{kind: Keyboard, raw: float64(id)} }

// FormulaOf creates a Message value holding formula text.
func FormulaOf(src string) Value { return Value{kind: Message, raw: src} }

// DefaultValue is the operand used for missing trailing parameters.
var DefaultValue = Value{kind: Default}

// Kind returns the kind tag.
func (v Value) Kind() Kind { return v.kind }

// Raw returns the undecoded payload.
func (v Value) Raw() any { return v.raw }

// IsDefault reports whether the value defers to the callee's default.
func (v Value) IsDefault() bool { return v.kind == Default }

// ID returns the raw payload as an integer id (variable, parameter, key...).
func (v Value) ID() int {
	return int(formula.ToFloat64(v.raw))
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%v)", v.kind, v.raw)
}

// KeyState reports whether a logical key is currently held.
type KeyState interface {
	IsPressed(key int) bool
}

// Env is the evaluation context of a Value.
//
// Params holds the resolved parameters of the reaction being interpreted.
// Parameter values are themselves evaluated against Parent, the caller's
// environment, so a chain of calls resolves lazily.
type Env struct {
	State  formula.Lookup
	Keys   KeyState
	Params map[int]Value
	Parent *Env

	User   formula.Actor
	Target formula.Actor
	Damage float64
	Index  *int
	Random func(min, max int) int

	Log *slog.Logger
}

// MaxParameterDepth bounds parameter indirection chains.
const MaxParameterDepth = 64

func (e *Env) logger() *slog.Logger {
	if e == nil || e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// FormulaEnv returns the formula execution context derived from e.
func (e *Env) FormulaEnv() *formula.Env {
	if e == nil {
		return &formula.Env{}
	}
	return &formula.Env{
		User:   e.User,
		Target: e.Target,
		Damage: e.Damage,
		Index:  e.Index,
		Lookup: e.State,
		Random: e.Random,
	}
}

// With returns a copy of e with the battle operands replaced.
func (e *Env) With(user, target formula.Actor, damage float64) *Env {
	c := Env{}
	if e != nil {
		c = *e
	}
	c.User, c.Target, c.Damage = user, target, damage
	return &c
}

// Evaluate resolves the value. The result is a float64, string, bool or nil.
// Missing references never fail; they are logged and replaced by 0.
func (v Value) Evaluate(env *Env) any {
	return v.evaluate(env, 0)
}

func (v Value) evaluate(env *Env, depth int) any {
	switch v.kind {
	case None, Anything, Default:
		return nil
	case Number, Decimal, Database:
		return formula.ToFloat64(v.raw)
	case Text:
		return formula.ToString(v.raw)
	case Switch:
		return formula.ToBool(v.raw)
	case Variable:
		if env == nil || env.State == nil {
			return float64(0)
		}
		got, ok := env.State.Variable(v.ID())
		if !ok {
			env.logger().Warn("Variable not found, using default value 0", "variable", v.ID())
			return float64(0)
		}
		return got
	case Parameter:
		if env == nil {
			return float64(0)
		}
		p, ok := env.Params[v.ID()]
		if !ok {
			env.logger().Warn("Parameter not found, using default value 0", "parameter", v.ID())
			return float64(0)
		}
		if depth >= MaxParameterDepth {
			env.logger().Warn("Parameter chain too deep, using default value 0", "parameter", v.ID())
			return float64(0)
		}
		next := env.Parent
		if next == nil {
			next = env
		}
		return p.evaluate(next, depth+1)
	case Keyboard:
		if env == nil || env.Keys == nil {
			return false
		}
		return env.Keys.IsPressed(v.ID())
	case Message:
		src, _ := v.raw.(string)
		return formula.Evaluate(src, env.FormulaEnv(), env.logger())
	}
	env.logger().Warn("Unknown value kind, using default value 0", "kind", int(v.kind))
	return float64(0)
}

// Number evaluates v as a number.
func (v Value) Number(env *Env) float64 {
	return formula.ToFloat64(v.Evaluate(env))
}

// Int evaluates v as an integer, truncating toward zero.
func (v Value) Int(env *Env) int {
	return int(v.Number(env))
}

// Bool evaluates v as a truth value.
func (v Value) Bool(env *Env) bool {
	return formula.ToBool(v.Evaluate(env))
}

// Text evaluates v as text.
func (v Value) Text(env *Env) string {
	return formula.ToString(v.Evaluate(env))
}

// Or returns v, or fallback when v defers to a default or is empty.
func (v Value) Or(fallback Value) Value {
	if v.kind <= Default {
		return fallback
	}
	return v
}
