package reaction

import (
	"fmt"
	"slices"
	"time"

	"github.com/zurustar/paperrpg/pkg/formula"
	"github.com/zurustar/paperrpg/pkg/value"
)

func decodeNone(*value.Reader) (any, error) { return nil, nil }

// branchState is shared by every block command that enters its body once
// and leaves when it runs again at the end of the body.
type branchState struct {
	entered bool
}

func initBranch(*Cursor, *Command) State { return &branchState{} }

// updateBranch drives Else, Choice, IfWin and IfLose. Else leaves past its
// own block; the others leave past their parent's block.
func updateBranch(c *Cursor, cmd *Command, st State) Signal {
	s := st.(*branchState)
	if !s.entered && c.HasChildren() {
		s.entered = true
		return Jump(1)
	}
	if cmd.Kind == Else {
		return c.JumpTo(c.End())
	}
	return c.JumpTo(c.Reaction().End(c.Parent()))
}

// While loops over its body until a WhileBreak inside it runs.

type whileState struct {
	broken bool
}

func initWhile(*Cursor, *Command) State { return &whileState{} }

func updateWhile(c *Cursor, _ *Command, st State) Signal {
	s := st.(*whileState)
	if s.broken || !c.HasChildren() {
		return c.JumpTo(c.End())
	}
	return Jump(1)
}

func updateWhileBreak(c *Cursor, _ *Command, _ State) Signal {
	idx, st, ok := c.Enclosing(While)
	if !ok {
		c.Report(NewRuntimeError(ErrorInvalidOperation, "WhileBreak outside of a running While"))
		return AdvanceOne
	}
	st.(*whileState).broken = true
	return c.JumpTo(c.Reaction().End(idx))
}

// Comparison is a comparison operator of conditions.
type Comparison int

const (
	CompareEqual Comparison = iota
	CompareNotEqual
	CompareGreaterOrEqual
	CompareLesserOrEqual
	CompareGreater
	CompareLesser
)

var comparisonOperators = map[Comparison]string{
	CompareEqual:          "==",
	CompareNotEqual:       "!=",
	CompareGreaterOrEqual: ">=",
	CompareLesserOrEqual:  "<=",
	CompareGreater:        ">",
	CompareLesser:         "<",
}

// Compare applies the operator to two evaluated values.
func (cmp Comparison) Compare(left, right any) bool {
	op, ok := comparisonOperators[cmp]
	if !ok {
		return false
	}
	return formula.Compare(op, left, right)
}

// ConditionKind selects what an If command tests.
type ConditionKind int

const (
	ConditionVariable ConditionKind = iota
	ConditionKey
	ConditionFormula
)

type ifParams struct {
	kind ConditionKind

	// ConditionVariable
	variable   value.Value
	comparison Comparison
	operand    value.Value

	// ConditionKey
	key     value.Value
	pressed bool

	// ConditionFormula
	formula value.Value
}

// decodeIf reads [kind, ...]:
//
//	variable: [0, variable id, comparison, operand]
//	key:      [1, key id, pressed]
//	formula:  [2, formula]
func decodeIf(r *value.Reader) (any, error) {
	p := &ifParams{kind: ConditionKind(r.Int())}
	switch p.kind {
	case ConditionVariable:
		p.variable = r.Value()
		p.comparison = Comparison(r.Int())
		p.operand = r.Value()
	case ConditionKey:
		p.key = r.Value()
		p.pressed = r.Bool()
	case ConditionFormula:
		p.formula = r.Value()
	default:
		return nil, fmt.Errorf("unknown condition kind %d", p.kind)
	}
	return p, nil
}

func (p *ifParams) test(env *value.Env) bool {
	switch p.kind {
	case ConditionVariable:
		left := value.VariableOf(p.variable.Int(env)).Evaluate(env)
		return p.comparison.Compare(left, p.operand.Evaluate(env))
	case ConditionKey:
		if env.Keys == nil {
			return !p.pressed
		}
		return env.Keys.IsPressed(p.key.Int(env)) == p.pressed
	case ConditionFormula:
		return p.formula.Bool(env)
	}
	return false
}

func updateIf(c *Cursor, cmd *Command, st State) Signal {
	s := st.(*branchState)
	r := c.Reaction()
	after := c.End()
	elseIndex := r.ElseOf(c.Index())
	if elseIndex >= 0 {
		after = r.End(elseIndex)
	}
	if s.entered {
		return c.JumpTo(after)
	}
	if cmd.Params.(*ifParams).test(c.Env()) {
		if !c.HasChildren() {
			return c.JumpTo(after)
		}
		s.entered = true
		return Jump(1)
	}
	if elseIndex >= 0 {
		return c.JumpTo(elseIndex)
	}
	return c.JumpTo(c.End())
}

func updateStopReaction(c *Cursor, _ *Command, _ State) Signal {
	c.frame.blocks = nil
	return c.JumpTo(c.Reaction().Len())
}

func updateEndGame(c *Cursor, _ *Command, _ State) Signal {
	c.Context().Quit()
	return AdvanceOne
}

type labelParams struct {
	label value.Value
}

func decodeLabel(r *value.Reader) (any, error) {
	return &labelParams{label: r.Value()}, nil
}

func updateJumpToLabel(c *Cursor, cmd *Command, _ State) Signal {
	env := c.Env()
	want := cmd.Params.(*labelParams).label.Text(env)
	r := c.Reaction()
	for i := 0; i < r.Len(); i++ {
		node := r.Node(i).Command
		if node.Kind == Label && node.Params.(*labelParams).label.Text(env) == want {
			enterBlocks(c, i)
			return c.JumpTo(i)
		}
	}
	c.Report(NewRuntimeError(ErrorUnknownID, "unknown label %q", want))
	return AdvanceOne
}

// enterBlocks rebuilds the open blocks of the frame for a jump to target:
// every block enclosing target is open, so that its owner runs again at the
// end of its body. Blocks already open keep their state.
func enterBlocks(c *Cursor, target int) {
	r := c.Reaction()
	open := make(map[int]State, len(c.frame.blocks))
	for _, b := range c.frame.blocks {
		open[b.index] = b.state
	}
	var blocks []openBlock
	for p := r.Parent(target); p >= 0; p = r.Parent(p) {
		st, ok := open[p]
		if !ok {
			st = enteredState(c, p)
		}
		blocks = append(blocks, openBlock{index: p, end: r.End(p), state: st})
	}
	slices.Reverse(blocks)
	c.frame.blocks = blocks
}

// enteredState returns the state of a block command whose body is already
// running.
func enteredState(c *Cursor, index int) State {
	cmd := c.Reaction().Node(index).Command
	switch cmd.Kind {
	case If, Else, Choice, IfWin, IfLose:
		return &branchState{entered: true}
	case While:
		return &whileState{}
	case DisplayChoice:
		return &displayChoiceState{chosen: -1, done: true}
	case StartBattle:
		return &startBattleState{done: true}
	}
	return cmd.initialize(&Cursor{in: c.in, frame: c.frame, index: index})
}

type commentParams struct {
	text string
}

func decodeComment(r *value.Reader) (any, error) {
	return &commentParams{text: r.String()}, nil
}

type waitParams struct {
	seconds value.Value
}

// decodeWait reads [seconds].
func decodeWait(r *value.Reader) (any, error) {
	return &waitParams{seconds: r.Value()}, nil
}

type waitState struct {
	start time.Time
}

func initWait(c *Cursor, _ *Command) State {
	return &waitState{start: c.Now()}
}

func updateWait(c *Cursor, cmd *Command, st State) Signal {
	s := st.(*waitState)
	d := time.Duration(cmd.Params.(*waitParams).seconds.Number(c.Env()) * float64(time.Second))
	if c.Now().Sub(s.start) >= d {
		return AdvanceOne
	}
	return Continue
}
