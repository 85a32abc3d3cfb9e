package value

import (
	"testing"

	"gopkg.in/yaml.v3"
)

type vars map[int]any

func (v vars) Variable(id int) (any, bool) {
	got, ok := v[id]
	return got, ok
}
func (v vars) ItemCount(int) int { return 0 }
func (v vars) Currency(int) int  { return 0 }

type keys map[int]bool

func (k keys) IsPressed(id int) bool { return k[id] }

func TestEvaluate(t *testing.T) {
	env := &Env{
		State: vars{1: float64(5), 2: "name"},
		Keys:  keys{3: true},
	}

	tests := []struct {
		name     string
		value    Value
		expected any
	}{
		{"none", New(None, nil), nil},
		{"default", DefaultValue, nil},
		{"number", NumberOf(3), float64(3)},
		{"number from int payload", New(Number, 7), float64(7)},
		{"text", TextOf("hi"), "hi"},
		{"switch", SwitchOf(true), true},
		{"variable", VariableOf(1), float64(5)},
		{"text variable", VariableOf(2), "name"},
		{"missing variable", VariableOf(99), float64(0)},
		{"keyboard pressed", KeyboardOf(3), true},
		{"keyboard released", KeyboardOf(4), false},
		{"formula", FormulaOf("variable(1) * 2"), float64(10)},
		{"broken formula", FormulaOf("1 +"), float64(0)},
		{"database id", New(Database, 4), float64(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.value.Evaluate(env)
			if got != tt.expected {
				t.Errorf("Evaluate() = %#v, want %#v", got, tt.expected)
			}
		})
	}
}

func TestEvaluateNilEnv(t *testing.T) {
	if got := VariableOf(1).Evaluate(nil); got != float64(0) {
		t.Errorf("variable with nil env = %v, want 0", got)
	}
	if got := FormulaOf("1 + 1").Evaluate(nil); got != float64(2) {
		t.Errorf("formula with nil env = %v, want 2", got)
	}
	if got := KeyboardOf(1).Evaluate(nil); got != false {
		t.Errorf("keyboard with nil env = %v, want false", got)
	}
}

func TestParameterResolvesAgainstCaller(t *testing.T) {
	caller := &Env{State: vars{1: float64(42)}}
	callee := &Env{
		State:  vars{1: float64(-1)},
		Params: map[int]Value{1: VariableOf(1), 2: ParameterOf(1)},
		Parent: caller,
	}
	if got := ParameterOf(1).Number(callee); got != 42 {
		t.Errorf("parameter 1 = %v, want 42", got)
	}
	if got := ParameterOf(3).Number(callee); got != 0 {
		t.Errorf("missing parameter = %v, want 0", got)
	}
	self := &Env{Params: map[int]Value{1: ParameterOf(1)}}
	if got := ParameterOf(1).Number(self); got != 0 {
		t.Errorf("self-referencing parameter = %v, want 0", got)
	}
}

func TestReader(t *testing.T) {
	r := NewReader([]any{float64(12), 3, float64(10), 9, "u.hp", 1})
	if got := r.Int(); got != 12 {
		t.Fatalf("Int() = %d, want 12", got)
	}
	if v := r.Value(); v.Kind() != Number || v.Number(nil) != 10 {
		t.Errorf("Value() = %v, want Number(10)", v)
	}
	if v := r.Value(); v.Kind() != Message || v.Raw() != "u.hp" {
		t.Errorf("Value() = %v, want Message(u.hp)", v)
	}
	if v := r.Value(); v.Kind() != Anything || v.Raw() != nil {
		t.Errorf("truncated Value() = %v, want Anything(nil)", v)
	}
	if !r.Done() {
		t.Fatal("reader should be exhausted")
	}
	if v := r.Value(); !v.IsDefault() {
		t.Errorf("Value() past end = %v, want Default", v)
	}
	if got := r.Int(); got != 0 {
		t.Errorf("Int() past end = %d, want 0", got)
	}
}

func TestUnmarshalYAML(t *testing.T) {
	var doc struct {
		Pair    Value `yaml:"pair"`
		Mapping Value `yaml:"mapping"`
		Number  Value `yaml:"number"`
		Text    Value `yaml:"text"`
		Flag    Value `yaml:"flag"`
	}
	src := `
pair: [9, "t.hp <= 0"]
mapping: {k: 4, v: 2}
number: 1.5
text: hello
flag: true
`
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Pair.Kind() != Message || doc.Pair.Raw() != "t.hp <= 0" {
		t.Errorf("pair = %v", doc.Pair)
	}
	if doc.Mapping.Kind() != Variable || doc.Mapping.ID() != 2 {
		t.Errorf("mapping = %v", doc.Mapping)
	}
	if doc.Number.Kind() != Number || doc.Number.Number(nil) != 1.5 {
		t.Errorf("number = %v", doc.Number)
	}
	if doc.Text.Kind() != Text || doc.Text.Text(nil) != "hello" {
		t.Errorf("text = %v", doc.Text)
	}
	if doc.Flag.Kind() != Switch || !doc.Flag.Bool(nil) {
		t.Errorf("flag = %v", doc.Flag)
	}
}

func TestOr(t *testing.T) {
	fallback := NumberOf(1)
	if got := DefaultValue.Or(fallback); got != fallback {
		t.Errorf("Default.Or = %v", got)
	}
	if got := NumberOf(2).Or(fallback); got.Number(nil) != 2 {
		t.Errorf("Number.Or = %v", got)
	}
}
