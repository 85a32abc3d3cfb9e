package reaction

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/value"
)

// MaxStackDepth is the maximum number of nested reaction calls.
const MaxStackDepth = 100

// DefaultMaxStepsPerFrame bounds the commands executed by one Update call.
// A loop that never suspends is spread over several frames instead of
// freezing the frame loop.
const DefaultMaxStepsPerFrame = 10000

type openBlock struct {
	index int
	end   int
	state State
}

// Frame is one activation of a reaction.
type Frame struct {
	reaction    *Reaction
	index       int
	state       State
	initialized bool
	blocks      []openBlock

	params map[int]value.Value
	env    *value.Env
	parent *Frame
	depth  int
}

// Reaction returns the reaction being executed.
func (f *Frame) Reaction() *Reaction { return f.reaction }

// Parent returns the calling frame, or nil for a root frame.
func (f *Frame) Parent() *Frame { return f.parent }

// Depth returns the call depth, 0 for a root frame.
func (f *Frame) Depth() int { return f.depth }

// Interpreter walks one reaction across many frames.
//
// Each Update re-enters at the stored instruction index, initializes the
// command on its first visit and applies the signal returned by its update.
// All progress lives in the Frame and in the invocation states, so the owner
// may drop the interpreter at any frame boundary.
type Interpreter struct {
	id       string
	ctx      *Context
	frame    *Frame
	err      *RuntimeError
	maxSteps int
	log      *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithParameters sets the resolved parameters of the reaction.
func WithParameters(params map[int]value.Value) Option {
	return func(in *Interpreter) {
		in.frame.params = params
	}
}

// WithMaxStepsPerFrame sets the per-Update command budget.
func WithMaxStepsPerFrame(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxSteps = n
		}
	}
}

func withParentFrame(parent *Frame) Option {
	return func(in *Interpreter) {
		in.frame.parent = parent
		in.frame.depth = parent.depth + 1
	}
}

// NewInterpreter creates an interpreter positioned on the first command of r.
func NewInterpreter(ctx *Context, r *Reaction, opts ...Option) (*Interpreter, error) {
	if r == nil {
		return nil, NewRuntimeError(ErrorMalformedTree, "nil reaction")
	}
	in := &Interpreter{
		id:       uuid.NewString(),
		ctx:      ctx,
		frame:    &Frame{reaction: r},
		maxSteps: DefaultMaxStepsPerFrame,
		log:      ctx.Log,
	}
	if in.log == nil {
		in.log = slog.Default()
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.frame.depth > MaxStackDepth {
		return nil, NewRuntimeError(ErrorStackOverflow, "reaction call depth exceeds %d", MaxStackDepth).At(r.ID, -1)
	}

	env := ctx.Env()
	env.Params = in.frame.params
	if in.frame.parent != nil {
		env.Parent = in.frame.parent.env
	}
	in.frame.env = env

	in.log.Debug("Interpreter created", "interpreter", in.id, "reaction", r.ID, "commands", r.Len(), "depth", in.frame.depth)
	return in, nil
}

// ID returns the unique id of the interpreter, used in logs.
func (in *Interpreter) ID() string { return in.id }

// Context returns the execution context.
func (in *Interpreter) Context() *Context { return in.ctx }

// Frame returns the root frame.
func (in *Interpreter) Frame() *Frame { return in.frame }

// Reaction returns the reaction being executed.
func (in *Interpreter) Reaction() *Reaction { return in.frame.reaction }

// Index returns the current instruction index.
func (in *Interpreter) Index() int { return in.frame.index }

// Err returns the fatal error that stopped the interpreter, if any.
func (in *Interpreter) Err() error {
	if in.err == nil {
		return nil
	}
	return in.err
}

// IsFinished reports whether the pointer passed the last command with no
// block left open, or a fatal error stopped the interpreter.
func (in *Interpreter) IsFinished() bool {
	if in.err != nil {
		return true
	}
	f := in.frame
	return f.index >= f.reaction.Len() && len(f.blocks) == 0
}

// BlockingHero reports whether the reaction prevents the hero from moving.
func (in *Interpreter) BlockingHero() bool {
	return in.frame.reaction.BlockingHero
}

// CurrentCommand returns the active command, or nil when none is active.
func (in *Interpreter) CurrentCommand() *Command {
	f := in.frame
	if !f.initialized || f.index >= f.reaction.Len() {
		return nil
	}
	return f.reaction.Node(f.index).Command
}

// CurrentState returns the invocation state of the active command.
func (in *Interpreter) CurrentState() State {
	if in.CurrentCommand() == nil {
		return nil
	}
	return in.frame.state
}

// Update runs commands until one suspends, the reaction finishes, a fatal
// error occurs or the step budget is spent.
func (in *Interpreter) Update() {
	if in.IsFinished() {
		return
	}
	in.ctx.SetBlockingHero(in.BlockingHero())
	for steps := 0; steps < in.maxSteps; steps++ {
		if in.IsFinished() {
			return
		}
		if in.Step() == Continue {
			return
		}
	}
	in.log.Debug("Step budget spent, resuming next frame", "interpreter", in.id, "reaction", in.frame.reaction.ID, "index", in.frame.index)
}

// Step executes exactly one command update and returns its signal.
// It returns Continue when nothing could run.
func (in *Interpreter) Step() Signal {
	if in.err != nil {
		return Continue
	}
	f := in.frame
	r := f.reaction

	// The pointer reached the end of the innermost open block: the block
	// command runs again with its preserved state to decide where to go.
	if n := len(f.blocks); n > 0 && f.index >= f.blocks[n-1].end {
		b := f.blocks[n-1]
		f.blocks = f.blocks[:n-1]
		f.index, f.state, f.initialized = b.index, b.state, true
	}
	if f.index >= r.Len() {
		return Continue
	}

	cmd := r.Node(f.index).Command
	c := &Cursor{in: in, frame: f, index: f.index}
	if !f.initialized {
		f.state = cmd.initialize(c)
		f.initialized = true
	}
	sig := cmd.update(c, f.state)
	if in.err != nil || sig == Continue {
		return Continue
	}
	in.jump(int(sig))
	return sig
}

func (in *Interpreter) jump(n int) {
	f := in.frame
	from := f.index
	target := from + n
	if target < 0 || target > f.reaction.Len() {
		in.fail(NewRuntimeError(ErrorInvalidJump, "jump %d leaves the reaction", n).At(f.reaction.ID, from))
		return
	}

	// Leaving an open block discards its state; reaching its end keeps it
	// so that it runs again.
	for k := len(f.blocks); k > 0; k = len(f.blocks) {
		top := f.blocks[k-1]
		if target > top.index && target <= top.end {
			break
		}
		f.blocks = f.blocks[:k-1]
	}
	if end := f.reaction.End(from); target > from && target < end {
		f.blocks = append(f.blocks, openBlock{index: from, end: end, state: f.state})
	}
	f.index, f.state, f.initialized = target, nil, false
}

// UpdateFinish performs the commits due once the reaction is over.
func (in *Interpreter) UpdateFinish() {
	in.ctx.SetBlockingHero(false)
	in.log.Debug("Reaction finished", "interpreter", in.id, "reaction", in.frame.reaction.ID)
}

func (in *Interpreter) fail(err *RuntimeError) {
	if err.IsFatal() {
		if in.err == nil {
			in.err = err
		}
		in.log.Error("Reaction aborted", "interpreter", in.id, "error", err)
		return
	}
	in.log.Warn("Reaction error, continuing", "interpreter", in.id, "error", err)
}

func (in *Interpreter) cursor() (*Command, *Cursor) {
	cmd := in.CurrentCommand()
	if cmd == nil {
		return nil, nil
	}
	return cmd, &Cursor{in: in, frame: in.frame, index: in.frame.index}
}

// OnKeyPressed forwards a key press to the active command.
func (in *Interpreter) OnKeyPressed(key int) {
	if cmd, c := in.cursor(); cmd != nil {
		cmd.onKeyPressed(c, in.frame.state, key)
	}
}

// OnKeyReleased forwards a key release to the active command.
func (in *Interpreter) OnKeyReleased(key int) {
	if cmd, c := in.cursor(); cmd != nil {
		cmd.onKeyReleased(c, in.frame.state, key)
	}
}

// OnKeyPressedRepeat forwards a held key to the active command.
func (in *Interpreter) OnKeyPressedRepeat(key int) bool {
	if cmd, c := in.cursor(); cmd != nil {
		return cmd.onKeyPressedRepeat(c, in.frame.state, key)
	}
	return true
}

// OnKeyPressedAndRepeat forwards a debounced repeat to the active command.
func (in *Interpreter) OnKeyPressedAndRepeat(key int) bool {
	if cmd, c := in.cursor(); cmd != nil {
		return cmd.onKeyPressedAndRepeat(c, in.frame.state, key)
	}
	return true
}

// DrawHUD lets the active command emit its drawables.
func (in *Interpreter) DrawHUD(canvas hud.Canvas) {
	if cmd, c := in.cursor(); cmd != nil {
		cmd.drawHUD(c, in.frame.state, canvas)
	}
}

// Cursor is the view of the interpreter given to a command handler.
type Cursor struct {
	in    *Interpreter
	frame *Frame
	index int
}

// Context returns the execution context.
func (c *Cursor) Context() *Context { return c.in.ctx }

// Log returns the interpreter logger.
func (c *Cursor) Log() *slog.Logger { return c.in.log }

// Env returns the value environment of the frame.
func (c *Cursor) Env() *value.Env { return c.frame.env }

// Now returns the current time of the context clock.
func (c *Cursor) Now() time.Time { return c.in.ctx.Clock.Now() }

// Index returns the index of the command being run.
func (c *Cursor) Index() int { return c.index }

// Reaction returns the reaction being run.
func (c *Cursor) Reaction() *Reaction { return c.frame.reaction }

// End returns the index just past the block of the command.
func (c *Cursor) End() int { return c.frame.reaction.End(c.index) }

// Parent returns the index of the enclosing block command, or -1.
func (c *Cursor) Parent() int { return c.frame.reaction.Parent(c.index) }

// Children returns the direct children of the command.
func (c *Cursor) Children() []int { return c.frame.reaction.Children(c.index) }

// HasChildren reports whether the command has a non empty block.
func (c *Cursor) HasChildren() bool { return c.End() > c.index+1 }

// JumpTo returns the signal moving the pointer to an absolute index.
func (c *Cursor) JumpTo(target int) Signal { return Jump(target - c.index) }

// Enclosing returns the innermost open block of the given kind.
func (c *Cursor) Enclosing(kind Kind) (int, State, bool) {
	blocks := c.frame.blocks
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if c.frame.reaction.Node(b.index).Command.Kind == kind {
			return b.index, b.state, true
		}
	}
	return -1, nil, false
}

// Report logs a non fatal error, or stops the interpreter on a fatal one.
func (c *Cursor) Report(err error) {
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		rerr = NewRuntimeError(ErrorInvalidOperation, "%v", err)
	}
	if rerr.Index < 0 {
		rerr = rerr.At(c.frame.reaction.ID, c.index)
	}
	c.in.fail(rerr)
}

// Call creates an interpreter for a nested reaction invocation. Its frame is
// linked to the caller's frame.
func (c *Cursor) Call(r *Reaction, params map[int]value.Value) (*Interpreter, error) {
	return NewInterpreter(c.in.ctx, r, WithParameters(params), withParentFrame(c.frame), WithMaxStepsPerFrame(c.in.maxSteps))
}
