package reaction

import (
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/value"
)

// Signal tells the interpreter where to go after a command update.
// It is relative to the index of the command that returned it.
type Signal int

const (
	// Continue keeps the command active; it is updated again next frame.
	Continue Signal = 0
	// AdvanceOne moves to the next command.
	AdvanceOne Signal = 1
)

// Jump moves the instruction pointer by n commands.
func Jump(n int) Signal {
	return Signal(n)
}

// State is the per-activation mutable record of a command. Each kind
// allocates its own concrete type in its initializer.
type State any

// Command is one decoded command. Params is the immutable per-kind parameter
// record decoded at parse time and shared by every invocation.
type Command struct {
	Kind   Kind
	Params any
}

type (
	decodeFunc func(r *value.Reader) (any, error)
	initFunc   func(c *Cursor, cmd *Command) State
	updateFunc func(c *Cursor, cmd *Command, st State) Signal
	keyFunc    func(c *Cursor, cmd *Command, st State, key int)
	repeatFunc func(c *Cursor, cmd *Command, st State, key int) bool
	drawFunc   func(c *Cursor, cmd *Command, st State, canvas hud.Canvas)
)

// DecodeCommand decodes a flat [kind, operands...] list.
func DecodeCommand(list []any) (*Command, error) {
	r := value.NewReader(list)
	if r.Done() {
		return nil, NewRuntimeError(ErrorUnknownCommand, "empty command")
	}
	kind := Kind(r.Int())
	decode, ok := decoders[kind]
	if !ok {
		return nil, NewRuntimeError(ErrorUnknownCommand, "unknown command kind %d", int(kind))
	}
	params, err := decode(r)
	if err != nil {
		return nil, NewRuntimeError(ErrorUnknownCommand, "failed to decode %s: %v", kind, err)
	}
	return &Command{Kind: kind, Params: params}, nil
}

func (cmd *Command) initialize(c *Cursor) State {
	if f, ok := initializers[cmd.Kind]; ok {
		return f(c, cmd)
	}
	return nil
}

func (cmd *Command) update(c *Cursor, st State) Signal {
	if f, ok := updaters[cmd.Kind]; ok {
		return f(c, cmd, st)
	}
	return AdvanceOne
}

func (cmd *Command) onKeyPressed(c *Cursor, st State, key int) {
	if f, ok := keyPressedHandlers[cmd.Kind]; ok {
		f(c, cmd, st, key)
	}
}

func (cmd *Command) onKeyReleased(c *Cursor, st State, key int) {
	if f, ok := keyReleasedHandlers[cmd.Kind]; ok {
		f(c, cmd, st, key)
	}
}

func (cmd *Command) onKeyPressedRepeat(c *Cursor, st State, key int) bool {
	if f, ok := keyPressedRepeatHandlers[cmd.Kind]; ok {
		return f(c, cmd, st, key)
	}
	return true
}

func (cmd *Command) onKeyPressedAndRepeat(c *Cursor, st State, key int) bool {
	if f, ok := keyPressedAndRepeatHandlers[cmd.Kind]; ok {
		return f(c, cmd, st, key)
	}
	return true
}

func (cmd *Command) drawHUD(c *Cursor, st State, canvas hud.Canvas) {
	if f, ok := hudDrawers[cmd.Kind]; ok {
		f(c, cmd, st, canvas)
	}
}
