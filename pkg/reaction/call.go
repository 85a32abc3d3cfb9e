package reaction

import (
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/value"
)

type callParams struct {
	reactionID int
	params     map[int]value.Value
}

// decodeCallACommonReaction reads [reaction id, (parameter id, kind, raw)...].
func decodeCallACommonReaction(r *value.Reader) (any, error) {
	p := &callParams{reactionID: r.Int(), params: make(map[int]value.Value)}
	for !r.Done() {
		id := r.Int()
		p.params[id] = r.Value()
	}
	return p, nil
}

// ResolveParameters builds the parameters of one invocation. Parameters the
// caller leaves to their default take the value declared by the reaction.
func ResolveParameters(r *Reaction, given map[int]value.Value) map[int]value.Value {
	out := make(map[int]value.Value, len(r.Parameters)+len(given))
	for id, v := range given {
		out[id] = v
	}
	for _, id := range r.ParameterIDs() {
		v, ok := given[id]
		if !ok {
			v = value.New(value.None, nil)
		}
		switch {
		case v.Kind() == value.Default:
			out[id] = r.Parameters[id].Default
		case v.Kind() < value.Default:
			out[id] = value.New(v.Kind(), nil)
		}
	}
	return out
}

type callState struct {
	child  *Interpreter
	failed bool
}

func initCallACommonReaction(*Cursor, *Command) State { return &callState{} }

func (s *callState) start(c *Cursor, p *callParams) bool {
	if s.child != nil {
		return true
	}
	if s.failed {
		return false
	}
	s.failed = true
	db := c.Context().DB
	if db == nil {
		c.Report(unavailable("database"))
		return false
	}
	r, err := db.CommonReaction(p.reactionID)
	if err != nil {
		c.Report(unknownID(err))
		return false
	}
	child, err := c.Call(r, ResolveParameters(r, p.params))
	if err != nil {
		c.Report(err)
		return false
	}
	s.child, s.failed = child, false
	return true
}

func updateCallACommonReaction(c *Cursor, cmd *Command, st State) Signal {
	s := st.(*callState)
	if !s.start(c, cmd.Params.(*callParams)) {
		return AdvanceOne
	}
	ctx := c.Context()
	ctx.SetBlockingHero(s.child.BlockingHero())
	s.child.Update()
	if err := s.child.Err(); err != nil {
		c.Report(err)
		return AdvanceOne
	}
	if !s.child.IsFinished() {
		return Continue
	}
	s.child.UpdateFinish()
	ctx.SetBlockingHero(c.in.BlockingHero())
	return AdvanceOne
}

func keyPressedCallACommonReaction(_ *Cursor, _ *Command, st State, key int) {
	if child := st.(*callState).child; child != nil {
		child.OnKeyPressed(key)
	}
}

func keyReleasedCallACommonReaction(_ *Cursor, _ *Command, st State, key int) {
	if child := st.(*callState).child; child != nil {
		child.OnKeyReleased(key)
	}
}

func keyPressedRepeatCallACommonReaction(_ *Cursor, _ *Command, st State, key int) bool {
	if child := st.(*callState).child; child != nil {
		return child.OnKeyPressedRepeat(key)
	}
	return true
}

func keyPressedAndRepeatCallACommonReaction(_ *Cursor, _ *Command, st State, key int) bool {
	if child := st.(*callState).child; child != nil {
		return child.OnKeyPressedAndRepeat(key)
	}
	return true
}

func drawCallACommonReaction(_ *Cursor, _ *Command, st State, canvas hud.Canvas) {
	if child := st.(*callState).child; child != nil {
		child.DrawHUD(canvas)
	}
}
