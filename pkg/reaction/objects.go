package reaction

import (
	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/value"
)

type teleportParams struct {
	objectID  value.Value
	x, y      value.Value
	direction int
}

// decodeTeleportObject reads [object id, x, y, direction]. A direction of -1
// keeps the current facing.
func decodeTeleportObject(r *value.Reader) (any, error) {
	p := &teleportParams{objectID: r.Value(), x: r.Value(), y: r.Value(), direction: -1}
	if !r.Done() {
		p.direction = r.Int()
	}
	return p, nil
}

func object(c *Cursor, id int) (*game.MapObject, bool) {
	s, ok := state(c)
	if !ok {
		return nil, false
	}
	o, ok := s.Object(id)
	if !ok {
		c.Report(NewRuntimeError(ErrorUnknownID, "unknown object id %d", id))
	}
	return o, ok
}

func updateTeleportObject(c *Cursor, cmd *Command, _ State) Signal {
	p := cmd.Params.(*teleportParams)
	env := c.Env()
	o, ok := object(c, p.objectID.Int(env))
	if !ok {
		return AdvanceOne
	}
	o.X, o.Y = p.x.Int(env), p.y.Int(env)
	if p.direction >= 0 {
		o.Facing = game.Direction(p.direction)
	}
	return AdvanceOne
}

type moveParams struct {
	objectID value.Value
	waitEnd  bool
	steps    []game.Direction
}

// decodeMoveObject reads [object id, wait end, directions...].
func decodeMoveObject(r *value.Reader) (any, error) {
	p := &moveParams{objectID: r.Value(), waitEnd: r.Bool()}
	for !r.Done() {
		p.steps = append(p.steps, game.Direction(r.Int()))
	}
	return p, nil
}

type moveState struct {
	started bool
	object  *game.MapObject
}

func initMoveObject(*Cursor, *Command) State { return &moveState{} }

// updateMoveObject queues the steps on its first run, then waits for them
// when the command waits for the end of the move.
func updateMoveObject(c *Cursor, cmd *Command, st State) Signal {
	s := st.(*moveState)
	p := cmd.Params.(*moveParams)
	if !s.started {
		s.started = true
		o, ok := object(c, p.objectID.Int(c.Env()))
		if !ok {
			return AdvanceOne
		}
		o.Enqueue(p.steps...)
		s.object = o
	}
	if s.object == nil || !p.waitEnd {
		return AdvanceOne
	}
	if s.object.Pending() > 0 || s.object.Moving {
		return Continue
	}
	return AdvanceOne
}
