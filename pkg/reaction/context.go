package reaction

import (
	"log/slog"
	"math/rand"

	"github.com/zurustar/paperrpg/pkg/clock"
	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/logger"
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

// Database is the read-only view of the static game data used by commands.
// Lookups fail with an "unknown <kind> id <n>" error.
type Database interface {
	CommonReaction(id int) (*Reaction, error)
	Hero(id int) (*system.Character, error)
	Item(kind system.ItemKind, id int) (*system.CommonItem, error)
	Skill(id int) (*system.Skill, error)
	Song(id int) (*system.Song, error)
	BattleSystem() *system.BattleSystem
}

// Audio plays songs. Playback failures are reported, never fatal.
type Audio interface {
	PlayMusic(song *system.Song, volume float64) error
	StopMusic()
	PlaySound(song *system.Song, volume float64) error
}

// Outcome is the result of a finished battle.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLose
	OutcomeEscape
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLose:
		return "lose"
	case OutcomeEscape:
		return "escape"
	}
	return "none"
}

// BattleRequest describes a battle started by a reaction.
type BattleRequest struct {
	TroopID   int
	CanEscape bool
	// GameOverOnLose ends the game when the battle is lost and the reaction
	// has no IfLose branch.
	GameOverOnLose bool
}

// BattleHandle is a running battle observed by the command that started it.
type BattleHandle interface {
	Finished() bool
	Outcome() Outcome
}

// BattleStarter starts battles on behalf of reactions.
type BattleStarter interface {
	StartBattle(req BattleRequest) (BattleHandle, error)
}

// BattleControl is the battle running a reaction, if any.
type BattleControl interface {
	EndBattle(outcome Outcome)
}

// Context is the execution context threaded from the scene host through
// interpreters to commands. It replaces process-wide singletons: everything
// a command may touch is reachable from here.
type Context struct {
	DB        Database
	State     *game.State
	Keys      value.KeyState
	Clock     clock.Clock
	Audio     Audio
	Battles   BattleStarter
	Battle    BattleControl
	Formatter *hud.Formatter
	Log       *slog.Logger

	// Random returns an integer in [min, max].
	Random func(min, max int) int

	flags *flags
}

// flags are shared by every copy of a Context.
type flags struct {
	blockingHero bool
	quit         bool
	gameOver     bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the logger of the context.
func WithLogger(log *slog.Logger) ContextOption {
	return func(c *Context) {
		c.Log = log
	}
}

// WithClock sets the time source.
func WithClock(clk clock.Clock) ContextOption {
	return func(c *Context) {
		c.Clock = clk
	}
}

// WithRandom sets the random source used by formulas and commands.
func WithRandom(random func(min, max int) int) ContextOption {
	return func(c *Context) {
		c.Random = random
	}
}

// WithAudio sets the audio player.
func WithAudio(a Audio) ContextOption {
	return func(c *Context) {
		c.Audio = a
	}
}

// WithKeys sets the held key state.
func WithKeys(keys value.KeyState) ContextOption {
	return func(c *Context) {
		c.Keys = keys
	}
}

// WithBattles sets the battle starter.
func WithBattles(b BattleStarter) ContextOption {
	return func(c *Context) {
		c.Battles = b
	}
}

// NewContext creates an execution context over a database and a live state.
func NewContext(db Database, state *game.State, opts ...ContextOption) *Context {
	c := &Context{
		DB:        db,
		State:     state,
		Clock:     clock.System{},
		Formatter: hud.NewFormatter("en"),
		Log:       logger.GetLogger(),
		flags:     &flags{},
		Random: func(min, max int) int {
			return min + rand.Intn(max-min+1)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Env returns a value environment bound to the live state.
func (c *Context) Env() *value.Env {
	env := &value.Env{Keys: c.Keys, Random: c.Random, Log: c.Log}
	if c.State != nil {
		env.State = c.State
	}
	return env
}

func (c *Context) shared() *flags {
	if c.flags == nil {
		c.flags = &flags{}
	}
	return c.flags
}

// BlockingHero reports whether a running reaction prevents the hero from
// moving.
func (c *Context) BlockingHero() bool { return c.shared().blockingHero }

// SetBlockingHero sets the hero blocking flag.
func (c *Context) SetBlockingHero(b bool) { c.shared().blockingHero = b }

// Quit asks the host to end the game.
func (c *Context) Quit() { c.shared().quit = true }

// QuitRequested reports whether EndGame was executed.
func (c *Context) QuitRequested() bool { return c.shared().quit }

// GameOver marks the game as lost.
func (c *Context) GameOver() { c.shared().gameOver = true }

// IsGameOver reports whether the game was lost.
func (c *Context) IsGameOver() bool { return c.shared().gameOver }

// WithBattle returns a copy of c whose reactions run inside battle b.
// The copy shares the game flags of c.
func (c *Context) WithBattle(b BattleControl) *Context {
	c.shared()
	cp := *c
	cp.Battle = b
	return &cp
}
