// Package scene drives the top-level state machines of a game, one frame at
// a time.
//
// The Host keeps a stack of scenes: the map at the bottom, battles pushed on
// top of it by reactions. Only the top scene is updated, receives input and
// draws. Input and time are pushed in by the owner of the Host; nothing in
// this package polls a device or a clock of its own.
package scene

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/paperrpg/pkg/battle"
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/logger"
	"github.com/zurustar/paperrpg/pkg/reaction"
)

// Scene is a state machine driven by the Host.
type Scene interface {
	Update()
	OnKeyPressed(key int)
	OnKeyReleased(key int)
	OnKeyPressedRepeat(key int) bool
	OnKeyPressedAndRepeat(key int) bool
	DrawHUD(canvas hud.Canvas)
	// Finished reports whether the scene is over and must be popped.
	Finished() bool
	// Err returns the fatal error that stopped the scene, if any.
	Err() error
}

var (
	_ Scene = (*MapScene)(nil)
	_ Scene = (*battle.Battle)(nil)
)

// Host owns the scene stack and the execution context shared by every scene.
type Host struct {
	ctx   *reaction.Context
	db    battle.Database
	stack []Scene
	frame int
	log   *slog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Host) {
		h.log = log
	}
}

// NewHost creates a host with an empty stack. The host becomes the battle
// starter of ctx.
func NewHost(ctx *reaction.Context, db battle.Database, opts ...Option) *Host {
	h := &Host{ctx: ctx, db: db, log: logger.GetLogger()}
	for _, opt := range opts {
		opt(h)
	}
	ctx.Battles = h
	return h
}

// Context returns the execution context of the host.
func (h *Host) Context() *reaction.Context { return h.ctx }

// Frame returns the number of updates run so far.
func (h *Host) Frame() int { return h.frame }

// Push makes s the current scene.
func (h *Host) Push(s Scene) {
	h.stack = append(h.stack, s)
	h.log.Debug("Scene pushed", "scene", name(s), "depth", len(h.stack))
}

// Top returns the current scene, or nil when the stack is empty.
func (h *Host) Top() Scene {
	if len(h.stack) == 0 {
		return nil
	}
	return h.stack[len(h.stack)-1]
}

// Len returns the number of scenes on the stack.
func (h *Host) Len() int { return len(h.stack) }

// CurrentInterpreter returns the reaction interpreter the current scene is
// running in front, or nil.
func (h *Host) CurrentInterpreter() *reaction.Interpreter {
	switch s := h.Top().(type) {
	case *MapScene:
		return s.Current()
	case *battle.Battle:
		return s.Running()
	}
	return nil
}

// CurrentBattle returns the battle being played, or nil.
func (h *Host) CurrentBattle() *battle.Battle {
	b, _ := h.Top().(*battle.Battle)
	return b
}

// StartBattle implements reaction.BattleStarter. The battle is pushed on top
// of the stack and runs from the next frame.
func (h *Host) StartBattle(req reaction.BattleRequest) (reaction.BattleHandle, error) {
	b, err := battle.New(h.ctx, h.db, req)
	if err != nil {
		return nil, err
	}
	h.log.Info("Battle started", "battle", b.ID(), "troop", req.TroopID, "canEscape", req.CanEscape)
	h.Push(b)
	return b, nil
}

// Done reports whether the game is over: every scene ended, EndGame ran or
// the game was lost.
func (h *Host) Done() bool {
	return len(h.stack) == 0 || h.ctx.QuitRequested() || h.ctx.IsGameOver()
}

// Update runs one frame of the current scene. A scene that failed is
// discarded and logged; the scene below it resumes on the next frame.
func (h *Host) Update() {
	h.frame++
	s := h.Top()
	if s == nil {
		return
	}
	s.Update()
	if err := s.Err(); err != nil {
		h.log.Error("Scene discarded", "scene", name(s), "frame", h.frame, "error", err)
		h.remove(s)
		return
	}
	if s.Finished() {
		h.log.Debug("Scene finished", "scene", name(s), "frame", h.frame)
		h.remove(s)
	}
}

// remove drops s from the stack. s may no longer be on top when it pushed
// another scene during its update.
func (h *Host) remove(s Scene) {
	for i := len(h.stack) - 1; i >= 0; i-- {
		if h.stack[i] == s {
			h.stack = append(h.stack[:i], h.stack[i+1:]...)
			return
		}
	}
}

// OnKeyPressed forwards a key press to the current scene.
func (h *Host) OnKeyPressed(key int) {
	if s := h.Top(); s != nil {
		s.OnKeyPressed(key)
	}
}

// OnKeyReleased forwards a key release to the current scene.
func (h *Host) OnKeyReleased(key int) {
	if s := h.Top(); s != nil {
		s.OnKeyReleased(key)
	}
}

// OnKeyPressedRepeat forwards a held key to the current scene.
func (h *Host) OnKeyPressedRepeat(key int) bool {
	if s := h.Top(); s != nil {
		return s.OnKeyPressedRepeat(key)
	}
	return true
}

// OnKeyPressedAndRepeat forwards a debounced repeat to the current scene.
func (h *Host) OnKeyPressedAndRepeat(key int) bool {
	if s := h.Top(); s != nil {
		return s.OnKeyPressedAndRepeat(key)
	}
	return true
}

// DrawHUD lets the current scene emit its drawables.
func (h *Host) DrawHUD(canvas hud.Canvas) {
	if s := h.Top(); s != nil {
		s.DrawHUD(canvas)
	}
}

func name(s Scene) string {
	switch v := s.(type) {
	case *MapScene:
		return "map"
	case *battle.Battle:
		return "battle " + v.ID()
	}
	return fmt.Sprintf("%T", s)
}
