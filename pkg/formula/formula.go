// Package formula compiles and evaluates author-written formulas such as
// "u.atk * 2 - t.pdef" against a restricted execution context.
//
// Formulas are never executed as host code. The grammar is fixed (arithmetic,
// comparisons, logic, a conditional operator) and the only names a formula can
// reach are the ones injected through Env: the user "u", the target "t", the
// accumulated "damage", the optional loop index "i", and a whitelisted set of
// functions.
package formula

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrDivisionByZero is returned when a formula divides by zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrUnknownName is returned when a formula references a name that is not
	// part of the execution context.
	ErrUnknownName = errors.New("unknown name")

	// ErrUnknownFunction is returned for calls outside of the whitelist.
	ErrUnknownFunction = errors.New("unknown function")
)

// Actor is a battler or character visible to formulas as "u" or "t".
// Stat resolves a statistic by its abbreviation (hp, mhp, atk, lv...).
type Actor interface {
	Stat(name string) (float64, bool)
}

// Lookup exposes read-only live game state to formulas.
type Lookup interface {
	Variable(id int) (any, bool)
	ItemCount(id int) int
	Currency(id int) int
}

// Env is the execution context of a single evaluation.
type Env struct {
	User   Actor
	Target Actor
	Damage float64

	// Index is the optional loop index exposed as "i".
	Index *int

	Lookup Lookup

	// Random returns an integer in [min, max]. Defaults to math/rand.
	Random func(min, max int) int
}

// Program is a compiled formula. It is immutable and safe to share.
type Program struct {
	source string
	root   *expression
}

// Source returns the formula text the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

var cache sync.Map // string -> *Program

// Compile parses the formula source. Compiled programs are cached by text.
func Compile(source string) (*Program, error) {
	if cached, ok := cache.Load(source); ok {
		return cached.(*Program), nil
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("empty formula")
	}
	root, err := formulaParser.ParseString("", source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile formula %q: %w", source, err)
	}
	p := &Program{source: source, root: root}
	cache.Store(source, p)
	return p, nil
}

// Eval evaluates the program. The result is a float64, string, bool or nil.
func (p *Program) Eval(env *Env) (any, error) {
	if env == nil {
		env = &Env{}
	}
	return evalExpression(p.root, env)
}

// Evaluate compiles and evaluates source, absorbing every failure.
// Compilation and evaluation errors are logged and replaced by float64(0),
// because author content must never crash the runtime.
func Evaluate(source string, env *Env, log *slog.Logger) any {
	p, err := Compile(source)
	if err != nil {
		if log != nil {
			log.Warn("Formula compilation failed, using 0", "formula", source, "error", err)
		}
		return float64(0)
	}
	v, err := p.Eval(env)
	if err != nil {
		if log != nil {
			log.Warn("Formula evaluation failed, using 0", "formula", source, "error", err)
		}
		return float64(0)
	}
	return v
}

func evalExpression(e *expression, env *Env) (any, error) {
	cond, err := evalOr(e.Cond, env)
	if err != nil {
		return nil, err
	}
	if e.Then == nil {
		return cond, nil
	}
	if ToBool(cond) {
		return evalExpression(e.Then, env)
	}
	return evalExpression(e.Else, env)
}

func evalOr(e *orExpr, env *Env) (any, error) {
	v, err := evalAnd(e.Head, env)
	if err != nil || len(e.Tail) == 0 {
		return v, err
	}
	if ToBool(v) {
		return true, nil
	}
	for _, next := range e.Tail {
		v, err = evalAnd(next, env)
		if err != nil {
			return nil, err
		}
		if ToBool(v) {
			return true, nil
		}
	}
	return false, nil
}

func evalAnd(e *andExpr, env *Env) (any, error) {
	v, err := evalCmp(e.Head, env)
	if err != nil || len(e.Tail) == 0 {
		return v, err
	}
	if !ToBool(v) {
		return false, nil
	}
	for _, next := range e.Tail {
		v, err = evalCmp(next, env)
		if err != nil {
			return nil, err
		}
		if !ToBool(v) {
			return false, nil
		}
	}
	return true, nil
}

func evalCmp(e *cmpExpr, env *Env) (any, error) {
	left, err := evalSum(e.Left, env)
	if err != nil || e.Right == nil {
		return left, err
	}
	right, err := evalSum(e.Right, env)
	if err != nil {
		return nil, err
	}
	return Compare(e.Op, left, right), nil
}

func evalSum(e *sumExpr, env *Env) (any, error) {
	acc, err := evalProduct(e.Head, env)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Tail {
		rhs, err := evalProduct(op.Term, env)
		if err != nil {
			return nil, err
		}
		if op.Op == "+" {
			_, ls := acc.(string)
			_, rs := rhs.(string)
			if ls || rs {
				acc = ToString(acc) + ToString(rhs)
				continue
			}
			acc = ToFloat64(acc) + ToFloat64(rhs)
		} else {
			acc = ToFloat64(acc) - ToFloat64(rhs)
		}
	}
	return acc, nil
}

func evalProduct(e *productExpr, env *Env) (any, error) {
	acc, err := evalUnary(e.Head, env)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Tail {
		rhs, err := evalUnary(op.Factor, env)
		if err != nil {
			return nil, err
		}
		l, r := ToFloat64(acc), ToFloat64(rhs)
		switch op.Op {
		case "*":
			acc = l * r
		case "/":
			if r == 0 {
				return nil, ErrDivisionByZero
			}
			acc = l / r
		case "%":
			if r == 0 {
				return nil, ErrDivisionByZero
			}
			acc = math.Mod(l, r)
		}
	}
	return acc, nil
}

func evalUnary(e *unaryExpr, env *Env) (any, error) {
	if e.Primary != nil {
		return evalPrimary(e.Primary, env)
	}
	v, err := evalUnary(e.Operand, env)
	if err != nil {
		return nil, err
	}
	if e.Op == "!" {
		return !ToBool(v), nil
	}
	return -ToFloat64(v), nil
}

func evalPrimary(p *primary, env *Env) (any, error) {
	switch {
	case p.Number != nil:
		return *p.Number, nil
	case p.String != nil:
		return *p.String, nil
	case p.Bool != nil:
		return bool(*p.Bool), nil
	case p.Group != nil:
		return evalExpression(p.Group, env)
	case p.Ref != nil:
		return evalReference(p.Ref, env)
	}
	return nil, nil
}

func evalReference(r *reference, env *Env) (any, error) {
	if r.Args != nil {
		args := make([]any, 0, len(r.Args.List))
		for _, a := range r.Args.List {
			v, err := evalExpression(a, env)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return call(r.Name, args, env)
	}

	switch r.Name {
	case "u", "user", "t", "target":
		actor := env.User
		if r.Name == "t" || r.Name == "target" {
			actor = env.Target
		}
		if len(r.Fields) != 1 {
			return nil, fmt.Errorf("%w: %s needs exactly one field", ErrUnknownName, r.Name)
		}
		if actor == nil {
			return nil, fmt.Errorf("%w: %s is not bound", ErrUnknownName, r.Name)
		}
		v, ok := actor.Stat(r.Fields[0])
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownName, r.Name, r.Fields[0])
		}
		return v, nil
	case "damage":
		return env.Damage, nil
	case "i":
		if env.Index == nil {
			return nil, fmt.Errorf("%w: i is not bound", ErrUnknownName)
		}
		return float64(*env.Index), nil
	case "pi":
		return math.Pi, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownName, r.Name)
}

type builtin func(args []any, env *Env) (any, error)

var builtins = map[string]builtin{
	"min": func(args []any, _ *Env) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("min requires arguments")
		}
		m := ToFloat64(args[0])
		for _, a := range args[1:] {
			m = math.Min(m, ToFloat64(a))
		}
		return m, nil
	},
	"max": func(args []any, _ *Env) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("max requires arguments")
		}
		m := ToFloat64(args[0])
		for _, a := range args[1:] {
			m = math.Max(m, ToFloat64(a))
		}
		return m, nil
	},
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"sqrt":  unary(math.Sqrt),
	"pow": func(args []any, _ *Env) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow requires 2 arguments, got %d", len(args))
		}
		return math.Pow(ToFloat64(args[0]), ToFloat64(args[1])), nil
	},
	"random": func(args []any, env *Env) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("random requires 2 arguments, got %d", len(args))
		}
		lo, hi := int(ToFloat64(args[0])), int(ToFloat64(args[1]))
		if hi < lo {
			lo, hi = hi, lo
		}
		if env.Random != nil {
			return float64(env.Random(lo, hi)), nil
		}
		return float64(lo + rand.Intn(hi-lo+1)), nil
	},
	"variable": func(args []any, env *Env) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("variable requires 1 argument, got %d", len(args))
		}
		if env.Lookup == nil {
			return float64(0), nil
		}
		v, ok := env.Lookup.Variable(int(ToFloat64(args[0])))
		if !ok {
			return float64(0), nil
		}
		return v, nil
	},
	"item": func(args []any, env *Env) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("item requires 1 argument, got %d", len(args))
		}
		if env.Lookup == nil {
			return float64(0), nil
		}
		return float64(env.Lookup.ItemCount(int(ToFloat64(args[0])))), nil
	},
	"currency": func(args []any, env *Env) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("currency requires 1 argument, got %d", len(args))
		}
		if env.Lookup == nil {
			return float64(0), nil
		}
		return float64(env.Lookup.Currency(int(ToFloat64(args[0])))), nil
	},
}

func unary(f func(float64) float64) builtin {
	return func(args []any, _ *Env) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return f(ToFloat64(args[0])), nil
	}
}

func call(name string, args []any, env *Env) (any, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return fn(args, env)
}

// Compare applies a comparison operator. Numbers compare numerically, strings
// lexically; mixed operands compare as numbers.
func Compare(op string, left, right any) bool {
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case "==":
			return ls == rs
		case "!=":
			return ls != rs
		case "<":
			return ls < rs
		case "<=":
			return ls <= rs
		case ">":
			return ls > rs
		case ">=":
			return ls >= rs
		}
		return false
	}
	lb, lok := left.(bool)
	rb, rok := right.(bool)
	if lok && rok {
		switch op {
		case "==":
			return lb == rb
		case "!=":
			return lb != rb
		}
	}
	l, r := ToFloat64(left), ToFloat64(right)
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}

// ToFloat64 converts a formula value to a number. Unconvertible values are 0.
func ToFloat64(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ToBool converts a formula value to a truth value.
// Non-zero numbers and non-empty strings are true.
func ToBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		return val != ""
	default:
		return v != nil
	}
}

// ToString converts a formula value to text.
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
