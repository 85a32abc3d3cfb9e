package reaction

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zurustar/paperrpg/pkg/game"
)

func TestNewReactionRejectsMalformedTrees(t *testing.T) {
	tests := []struct {
		name  string
		lists [][]any
	}{
		{"skipped depth", [][]any{{0, int(Comment), "a"}, {2, int(Comment), "b"}}},
		{"first node nested", [][]any{{1, int(Comment), "a"}}},
		{"child of a leaf", [][]any{{0, int(Comment), "a"}, {1, int(Comment), "b"}}},
		{"choice outside menu", [][]any{{0, int(Choice), 8, "yes"}}},
		{"else without if", [][]any{{0, int(Comment), "a"}, {0, int(Else)}}},
		{"win branch outside battle", [][]any{{0, int(IfWin)}}},
		{"text inside menu", [][]any{{0, int(DisplayChoice), 0}, {1, int(ShowText), 8, "", 8, "hi"}}},
		{"text inside battle", [][]any{{0, int(StartBattle), 3, 1}, {1, int(Comment), "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := make([]Node, 0, len(tt.lists))
			for _, l := range tt.lists {
				n, err := DecodeNode(l)
				require.NoError(t, err)
				nodes = append(nodes, n)
			}
			_, err := NewReaction(1, nodes)
			require.Error(t, err)
			var rerr *RuntimeError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, ErrorMalformedTree, rerr.Type)
			assert.True(t, rerr.IsFatal())
		})
	}
}

func TestDecodeCommandUnknownKind(t *testing.T) {
	_, err := DecodeCommand([]any{999})
	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ErrorUnknownCommand, rerr.Type)

	_, err = DecodeCommand(nil)
	require.Error(t, err)
}

func TestReactionStructure(t *testing.T) {
	r := build(t, 1,
		ifSwitch(0, true),
		setVar(1, 1, 1),
		[]any{0, int(Else)},
		setVar(1, 1, 2),
		[]any{0, int(While)},
		setVar(1, 1, 3),
		ifSwitch(1, true),
		setVar(2, 1, 4),
	)
	assert.Equal(t, 8, r.Len())
	assert.Equal(t, 2, r.End(0))
	assert.Equal(t, 4, r.End(2))
	assert.Equal(t, 8, r.End(4))
	assert.Equal(t, 8, r.End(6))
	assert.Equal(t, -1, r.Parent(0))
	assert.Equal(t, 4, r.Parent(6))
	assert.Equal(t, 6, r.Parent(7))
	assert.Equal(t, []int{5, 6}, r.Children(4))
	assert.Equal(t, 2, r.ElseOf(0))
	assert.Equal(t, -1, r.ElseOf(6))
}

func TestIfElse(t *testing.T) {
	tests := []struct {
		name string
		cond bool
		want float64
	}{
		{"then branch", true, 1},
		{"else branch", false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(newFakeDB())
			r := build(t, 1,
				ifSwitch(0, tt.cond),
				setVar(1, 1, 1),
				[]any{0, int(Else)},
				setVar(1, 1, 2),
				setVar(0, 3, 3),
			)
			in := run(t, ctx, r)
			assert.True(t, in.IsFinished())
			assert.NoError(t, in.Err())
			assert.Equal(t, tt.want, variable(ctx, 1))
			assert.Equal(t, float64(3), variable(ctx, 3))
		})
	}
}

func TestIfVariableComparisons(t *testing.T) {
	tests := []struct {
		cmp     Comparison
		operand float64
		want    bool
	}{
		{CompareEqual, 5, true},
		{CompareEqual, 4, false},
		{CompareNotEqual, 4, true},
		{CompareGreaterOrEqual, 5, true},
		{CompareLesserOrEqual, 6, true},
		{CompareGreater, 5, false},
		{CompareLesser, 6, true},
	}
	for _, tt := range tests {
		ctx, _ := newTestContext(newFakeDB())
		ctx.State.Variables.Set(1, float64(5))
		r := build(t, 1,
			[]any{0, int(If), int(ConditionVariable), 3, 1, int(tt.cmp), 3, tt.operand},
			setVar(1, 2, 1),
		)
		run(t, ctx, r)
		assert.Equal(t, tt.want, variable(ctx, 2) != nil, "%d %v", tt.cmp, tt.operand)
	}
}

func TestIfKeyCondition(t *testing.T) {
	keys := heldKeys{5: true}
	ctx, _ := newTestContext(newFakeDB(), WithKeys(keys))
	r := build(t, 1,
		[]any{0, int(If), int(ConditionKey), 3, 5, 1},
		setVar(1, 1, 1),
		[]any{0, int(If), int(ConditionKey), 3, 6, 1},
		setVar(1, 2, 1),
	)
	run(t, ctx, r)
	assert.Equal(t, float64(1), variable(ctx, 1))
	assert.Nil(t, variable(ctx, 2))
}

// countInitializations wraps the initializer of kind with a counter for the
// duration of the test.
func countInitializations(t *testing.T, kind Kind) *int {
	t.Helper()
	n := new(int)
	orig, ok := initializers[kind]
	initializers[kind] = func(c *Cursor, cmd *Command) State {
		*n++
		if ok {
			return orig(c, cmd)
		}
		return nil
	}
	t.Cleanup(func() {
		if ok {
			initializers[kind] = orig
		} else {
			delete(initializers, kind)
		}
	})
	return n
}

func TestSkippedCommandsAreNotInitialized(t *testing.T) {
	moves := countInitializations(t, MoveObject)
	waits := countInitializations(t, Wait)
	ctx, _ := newTestContext(newFakeDB())
	r := build(t, 1,
		ifSwitch(0, false),
		[]any{1, int(MoveObject), 3, game.HeroObjectID, 1, int(game.East), int(game.East)},
		[]any{1, int(Wait), 3, 10},
		[]any{0, int(Wait), 3, 0},
		setVar(0, 1, 1),
	)
	in := run(t, ctx, r)

	assert.True(t, in.IsFinished())
	assert.Equal(t, float64(1), variable(ctx, 1))
	assert.Equal(t, 0, *moves)
	assert.Equal(t, 1, *waits, "only the Wait outside the If runs")
	hero, _ := ctx.State.Object(game.HeroObjectID)
	assert.Equal(t, 0, hero.Pending())
}

func TestInitializeDoesNotMoveObjects(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	r := build(t, 1, []any{0, int(MoveObject), 3, game.HeroObjectID, 1, int(game.East), int(game.East)})
	in, err := NewInterpreter(ctx, r)
	require.NoError(t, err)

	c := &Cursor{in: in, frame: in.frame, index: 0}
	st := r.Node(0).Command.initialize(c)
	require.NotNil(t, st)
	hero, _ := ctx.State.Object(game.HeroObjectID)
	assert.Equal(t, 0, hero.Pending())

	in.Update()
	assert.Equal(t, 2, hero.Pending(), "the steps are queued by the first update")
	in.Update()
	assert.Equal(t, 2, hero.Pending(), "the steps are queued once")
}

func TestWhileBreak(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	r := build(t, 1,
		setVar(0, 1, 0),
		[]any{0, int(While)},
		addVar(1, 1, 1),
		[]any{1, int(If), int(ConditionVariable), 3, 1, int(CompareGreaterOrEqual), 3, 3},
		[]any{2, int(WhileBreak)},
		addVar(1, 2, 1),
		setVar(0, 3, 9),
	)
	in := run(t, ctx, r)

	assert.True(t, in.IsFinished())
	assert.Equal(t, float64(3), variable(ctx, 1))
	assert.Equal(t, float64(2), variable(ctx, 2))
	assert.Equal(t, float64(9), variable(ctx, 3))
}

func TestWhileBreakOutsideWhileIsNotFatal(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	in := run(t, ctx, build(t, 1, []any{0, int(WhileBreak)}, setVar(0, 1, 1)))

	assert.True(t, in.IsFinished())
	assert.NoError(t, in.Err())
	assert.Equal(t, float64(1), variable(ctx, 1))
}

func TestStopReaction(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	r := build(t, 1,
		[]any{0, int(While)},
		[]any{1, int(StopReaction)},
		setVar(0, 1, 1),
	)
	in := run(t, ctx, r)

	assert.True(t, in.IsFinished())
	assert.Nil(t, variable(ctx, 1))
}

func TestJumpToLabel(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	r := build(t, 1,
		[]any{0, int(JumpToLabel), 8, "end"},
		setVar(0, 1, 1),
		[]any{0, int(Label), 8, "end"},
		setVar(0, 2, 2),
		[]any{0, int(JumpToLabel), 8, "missing"},
		setVar(0, 3, 3),
	)
	in := run(t, ctx, r)

	assert.True(t, in.IsFinished())
	assert.NoError(t, in.Err())
	assert.Nil(t, variable(ctx, 1))
	assert.Equal(t, float64(2), variable(ctx, 2))
	assert.Equal(t, float64(3), variable(ctx, 3))
}

func TestJumpToLabelInsideBlocks(t *testing.T) {
	tests := []struct {
		name  string
		nodes [][]any
		want  map[int]any
	}{
		{
			name: "if body skips the else",
			nodes: [][]any{
				{0, int(JumpToLabel), 8, "a"},
				ifSwitch(0, false),
				{1, int(Label), 8, "a"},
				setVar(1, 1, 1),
				{0, int(Else)},
				setVar(1, 2, 1),
				setVar(0, 3, 9),
			},
			want: map[int]any{1: float64(1), 2: nil, 3: float64(9)},
		},
		{
			name: "choice body skips the other choices",
			nodes: [][]any{
				{0, int(JumpToLabel), 8, "b"},
				{0, int(DisplayChoice), 0},
				{1, int(Choice), 8, "Yes"},
				{2, int(Label), 8, "b"},
				setVar(2, 1, 1),
				{1, int(Choice), 8, "No"},
				setVar(2, 2, 1),
				setVar(0, 3, 9),
			},
			want: map[int]any{1: float64(1), 2: nil, 3: float64(9)},
		},
		{
			name: "while body keeps looping",
			nodes: [][]any{
				setVar(0, 1, 0),
				{0, int(JumpToLabel), 8, "c"},
				{0, int(While)},
				addVar(1, 2, 1),
				{1, int(Label), 8, "c"},
				addVar(1, 1, 1),
				{1, int(If), int(ConditionVariable), 3, 1, int(CompareGreaterOrEqual), 3, 3},
				{2, int(WhileBreak)},
				setVar(0, 3, 9),
			},
			want: map[int]any{1: float64(3), 2: float64(2), 3: float64(9)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestContext(newFakeDB())
			in := run(t, ctx, build(t, 1, tt.nodes...))

			assert.True(t, in.IsFinished())
			assert.NoError(t, in.Err())
			for id, want := range tt.want {
				assert.Equal(t, want, variable(ctx, id), "variable %d", id)
			}
		})
	}
}

func TestEndGame(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	run(t, ctx, build(t, 1, []any{0, int(EndGame)}))
	assert.True(t, ctx.QuitRequested())
}

func TestStepBudgetSpreadsLoopsOverFrames(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	r := build(t, 1,
		[]any{0, int(While)},
		addVar(1, 1, 1),
	)
	in := run(t, ctx, r, WithMaxStepsPerFrame(100))
	assert.False(t, in.IsFinished())
	assert.NoError(t, in.Err())
	first := variable(ctx, 1).(float64)
	assert.Greater(t, first, float64(0))

	in.Update()
	assert.Greater(t, variable(ctx, 1).(float64), first)
}

func TestWaitSuspends(t *testing.T) {
	ctx, clk := newTestContext(newFakeDB())
	r := build(t, 1, []any{0, int(Wait), 3, 1.5}, setVar(0, 1, 1))
	in := run(t, ctx, r)
	assert.False(t, in.IsFinished())
	assert.Equal(t, Wait, in.CurrentCommand().Kind)

	clk.Advance(time.Second)
	in.Update()
	assert.False(t, in.IsFinished())

	clk.Advance(500 * time.Millisecond)
	in.Update()
	assert.True(t, in.IsFinished())
	assert.Equal(t, float64(1), variable(ctx, 1))
}

func TestFinishedInterpreterIgnoresInput(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	in := run(t, ctx, build(t, 1, setVar(0, 1, 1)))
	require.True(t, in.IsFinished())

	assert.Nil(t, in.CurrentCommand())
	assert.Nil(t, in.CurrentState())
	in.OnKeyPressed(5)
	assert.True(t, in.OnKeyPressedAndRepeat(1))
	in.Update()
	assert.Equal(t, float64(1), variable(ctx, 1))
}

func TestNewInterpreterRejectsNilReaction(t *testing.T) {
	ctx, _ := newTestContext(newFakeDB())
	_, err := NewInterpreter(ctx, nil)
	assert.Error(t, err)
}
