package scene

import (
	"log/slog"
	"slices"

	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/logger"
	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

// moveKeys maps the direction keys to hero steps, in priority order.
var moveKeys = []struct {
	key int
	dir game.Direction
}{
	{system.KeyUp, game.North},
	{system.KeyDown, game.South},
	{system.KeyLeft, game.West},
	{system.KeyRight, game.East},
}

// MapScene is map exploration: the hero walks while no running reaction
// blocks it, map objects walk their queued steps and reactions run side by
// side.
type MapScene struct {
	ctx          *reaction.Context
	interpreters []*reaction.Interpreter
	triggers     map[int]*reaction.Reaction
	opts         []reaction.Option
	log          *slog.Logger
}

// MapOption configures a MapScene.
type MapOption func(*MapScene)

// WithMapLogger sets the logger of the map scene.
func WithMapLogger(log *slog.Logger) MapOption {
	return func(m *MapScene) {
		m.log = log
	}
}

// WithInterpreterOptions sets the options of every interpreter started by
// the map.
func WithInterpreterOptions(opts ...reaction.Option) MapOption {
	return func(m *MapScene) {
		m.opts = append(m.opts, opts...)
	}
}

// NewMapScene creates a map scene over the state of ctx.
func NewMapScene(ctx *reaction.Context, opts ...MapOption) *MapScene {
	m := &MapScene{
		ctx:      ctx,
		triggers: make(map[int]*reaction.Reaction),
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts r alongside the reactions already running.
func (m *MapScene) Run(r *reaction.Reaction, params map[int]value.Value) (*reaction.Interpreter, error) {
	opts := slices.Clone(m.opts)
	if params != nil {
		opts = append(opts, reaction.WithParameters(params))
	}
	in, err := reaction.NewInterpreter(m.ctx, r, opts...)
	if err != nil {
		return nil, err
	}
	m.interpreters = append(m.interpreters, in)
	m.log.Debug("Reaction started", "interpreter", in.ID(), "reaction", r.ID, "name", r.Name)
	return in, nil
}

// SetTrigger runs r when the hero faces the object and presses Action.
func (m *MapScene) SetTrigger(objectID int, r *reaction.Reaction) {
	m.triggers[objectID] = r
}

// Interpreters returns the running reactions, oldest first.
func (m *MapScene) Interpreters() []*reaction.Interpreter { return m.interpreters }

// Current returns the most recently started running reaction, or nil.
func (m *MapScene) Current() *reaction.Interpreter {
	if len(m.interpreters) == 0 {
		return nil
	}
	return m.interpreters[len(m.interpreters)-1]
}

// Blocked reports whether a running reaction prevents the hero from moving.
func (m *MapScene) Blocked() bool {
	for _, in := range m.interpreters {
		if in.BlockingHero() {
			return true
		}
	}
	return false
}

// Update runs one frame of every reaction, then walks the hero and the map
// objects.
func (m *MapScene) Update() {
	running := m.interpreters[:0]
	for _, in := range m.interpreters {
		in.Update()
		if err := in.Err(); err != nil {
			m.log.Error("Reaction discarded", "interpreter", in.ID(), "reaction", in.Reaction().ID, "error", err)
			continue
		}
		if in.IsFinished() {
			in.UpdateFinish()
			continue
		}
		running = append(running, in)
	}
	clear(m.interpreters[len(running):])
	m.interpreters = running
	m.ctx.SetBlockingHero(m.Blocked())

	m.walkHero()
	now := m.ctx.Clock.Now()
	for _, o := range m.ctx.State.Objects {
		o.Advance(now)
	}
}

// walkHero queues one step for the hero while a direction key is held.
func (m *MapScene) walkHero() {
	if m.ctx.BlockingHero() || m.ctx.Keys == nil {
		return
	}
	hero, ok := m.ctx.State.Object(game.HeroObjectID)
	if !ok || hero.Moving || hero.Pending() > 0 {
		return
	}
	for _, mk := range moveKeys {
		if m.ctx.Keys.IsPressed(mk.key) {
			hero.Enqueue(mk.dir)
			return
		}
	}
}

// facing returns the object in front of the hero.
func (m *MapScene) facing() (*game.MapObject, bool) {
	hero, ok := m.ctx.State.Object(game.HeroObjectID)
	if !ok {
		return nil, false
	}
	dx, dy := hero.Facing.Delta()
	for _, o := range m.ctx.State.Objects {
		if o.ID != hero.ID && !o.Invisible && o.X == hero.X+dx && o.Y == hero.Y+dy {
			return o, true
		}
	}
	return nil, false
}

// OnKeyPressed forwards the key to the running reactions. With none
// running, Action starts the trigger of the object faced by the hero.
func (m *MapScene) OnKeyPressed(key int) {
	if len(m.interpreters) == 0 {
		if key != system.KeyAction {
			return
		}
		o, ok := m.facing()
		if !ok {
			return
		}
		if r, ok := m.triggers[o.ID]; ok {
			if _, err := m.Run(r, nil); err != nil {
				m.log.Warn("Trigger failed", "object", o.ID, "reaction", r.ID, "error", err)
			}
		}
		return
	}
	for _, in := range slices.Clone(m.interpreters) {
		in.OnKeyPressed(key)
	}
}

// OnKeyReleased forwards the key to the running reactions.
func (m *MapScene) OnKeyReleased(key int) {
	for _, in := range m.interpreters {
		in.OnKeyReleased(key)
	}
}

// OnKeyPressedRepeat forwards the key to the running reactions.
func (m *MapScene) OnKeyPressedRepeat(key int) bool {
	res := true
	for _, in := range m.interpreters {
		res = in.OnKeyPressedRepeat(key) && res
	}
	return res
}

// OnKeyPressedAndRepeat forwards the key to the running reactions.
func (m *MapScene) OnKeyPressedAndRepeat(key int) bool {
	res := true
	for _, in := range m.interpreters {
		res = in.OnKeyPressedAndRepeat(key) && res
	}
	return res
}

// DrawHUD draws the HUD of every running reaction, oldest first.
func (m *MapScene) DrawHUD(canvas hud.Canvas) {
	for _, in := range m.interpreters {
		in.DrawHUD(canvas)
	}
}

// Finished reports whether EndGame ran or the game was lost.
func (m *MapScene) Finished() bool {
	return m.ctx.QuitRequested() || m.ctx.IsGameOver()
}

// Err always returns nil: failing reactions are dropped, the map goes on.
func (m *MapScene) Err() error { return nil }
