// Package battle implements the turn based battle flow.
//
// A Battle is a state machine advanced once per frame by Update. It moves
// through five steps:
//
//	0 intro
//	1 hero action selection (sub steps: user, command, skill, target)
//	2 effect execution
//	3 enemy action resolution
//	4 victory
//
// Like reaction interpreters, a Battle never blocks: everything it waits for
// (input, the effect window, a nested reaction) is polled on the next Update.
package battle

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/system"
)

// Step is a phase of the battle.
type Step int

const (
	StepIntro Step = iota
	StepHeroSelection
	StepEffects
	StepEnemyAction
	StepVictory
)

func (s Step) String() string {
	switch s {
	case StepIntro:
		return "intro"
	case StepHeroSelection:
		return "hero selection"
	case StepEffects:
		return "effects"
	case StepEnemyAction:
		return "enemy action"
	case StepVictory:
		return "victory"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Timings of the battle flow.
const (
	IntroDuration   = 1000 * time.Millisecond
	EffectDuration  = 2000 * time.Millisecond
	VictoryDuration = 3000 * time.Millisecond
)

// Database is the static data read by a battle.
type Database interface {
	reaction.Database
	Troop(id int) (*system.Troop, error)
	Monster(id int) (*system.Character, error)
}

// Battle is one encounter between the team and a troop.
type Battle struct {
	id  string
	ctx *reaction.Context
	db  Database
	bs  *system.BattleSystem
	req reaction.BattleRequest
	log *slog.Logger

	heroes   []*Battler
	monsters []*Battler

	step           Step
	subStep        int
	attackingGroup system.CharacterKind
	stepStart      time.Time

	// hero selection menus
	menu     menuState
	commands []*system.Skill

	// current action
	user        *Battler
	targets     []*Battler
	commandKind system.SpecialActionKind
	skill       *system.Skill
	item        *system.CommonItem
	attackSkill *system.Skill
	information string

	effects            []*system.Effect
	currentEffectIndex int
	time               time.Time
	damages            []hud.Damage
	running            *reaction.Interpreter

	experience int
	currencies map[int]int
	finished   bool
	outcome    reaction.Outcome
	ended      reaction.Outcome
	err        *reaction.RuntimeError
}

// New creates a battle against the troop of req. The team of the party
// fights; monsters are instantiated at their troop level.
func New(ctx *reaction.Context, db Database, req reaction.BattleRequest) (*Battle, error) {
	if ctx.State == nil {
		return nil, fmt.Errorf("battle needs a game state")
	}
	bs := db.BattleSystem()
	if bs == nil {
		return nil, fmt.Errorf("battle needs a battle system")
	}
	troop, err := db.Troop(req.TroopID)
	if err != nil {
		return nil, err
	}
	attack, err := db.Skill(bs.AttackSkillID)
	if err != nil {
		return nil, fmt.Errorf("attack skill: %w", err)
	}

	b := &Battle{
		id:          uuid.NewString(),
		db:          db,
		bs:          bs,
		req:         req,
		log:         ctx.Log,
		attackSkill: attack,
		currencies:  make(map[int]int),
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	b.log = b.log.With("battle", b.id)
	b.ctx = ctx.WithBattle(b)

	for i, p := range ctx.State.Party.Members(game.GroupTeam) {
		b.heroes = append(b.heroes, newBattler(p, system.Hero, i))
	}
	if len(b.heroes) == 0 {
		return nil, fmt.Errorf("battle needs at least one hero in the team")
	}
	for i, m := range troop.Monsters {
		def, err := db.Monster(m.ID)
		if err != nil {
			return nil, fmt.Errorf("troop %d: %w", troop.ID, err)
		}
		p := game.NewPlayer(system.Monster, def, ctx.State.NextInstanceID(), m.Level, bs, b.log)
		b.monsters = append(b.monsters, newBattler(p, system.Monster, i))
		b.experience += def.Experience
		for id, n := range def.Currencies {
			b.currencies[id] += n
		}
	}
	if len(b.monsters) == 0 {
		return nil, fmt.Errorf("troop %d has no monsters", troop.ID)
	}

	for _, id := range bs.BattleCommands {
		s, err := db.Skill(id)
		if err != nil {
			return nil, fmt.Errorf("battle command: %w", err)
		}
		b.commands = append(b.commands, s)
	}
	if len(b.commands) == 0 {
		b.commands = []*system.Skill{attack}
	}

	b.playSong(bs.BattleMusic, true)
	b.changeStep(StepIntro)
	b.log.Info("Battle started", "troop", troop.ID, "heroes", len(b.heroes), "monsters", len(b.monsters))
	return b, nil
}

// ID returns the unique id of the battle, used in logs.
func (b *Battle) ID() string { return b.id }

// Step returns the current step.
func (b *Battle) Step() Step { return b.step }

// SubStep returns the current sub step.
func (b *Battle) SubStep() int { return b.subStep }

// Heroes returns the hero battlers.
func (b *Battle) Heroes() []*Battler { return b.heroes }

// Monsters returns the monster battlers.
func (b *Battle) Monsters() []*Battler { return b.monsters }

// Effects returns the effect queue of the current action.
func (b *Battle) Effects() []*system.Effect { return b.effects }

// CurrentEffectIndex returns the index of the effect being shown.
func (b *Battle) CurrentEffectIndex() int { return b.currentEffectIndex }

// Context returns the execution context of reactions run by the battle.
func (b *Battle) Context() *reaction.Context { return b.ctx }

// Running returns the common reaction run by the current effect, or nil.
func (b *Battle) Running() *reaction.Interpreter { return b.running }

// Finished implements reaction.BattleHandle.
func (b *Battle) Finished() bool { return b.finished }

// Outcome implements reaction.BattleHandle.
func (b *Battle) Outcome() reaction.Outcome { return b.outcome }

// Err returns the fatal error that stopped the battle, if any.
func (b *Battle) Err() error {
	if b.err == nil {
		return nil
	}
	return b.err
}

// EndBattle implements reaction.BattleControl. The battle finishes on its
// next update.
func (b *Battle) EndBattle(outcome reaction.Outcome) {
	b.ended = outcome
}

func (b *Battle) now() time.Time { return b.ctx.Clock.Now() }

func (b *Battle) finish(outcome reaction.Outcome) {
	if b.finished {
		return
	}
	b.finished = true
	b.outcome = outcome
	for _, h := range b.heroes {
		h.selected = false
	}
	b.log.Info("Battle finished", "outcome", outcome, "step", b.step)
}

func (b *Battle) fail(err *reaction.RuntimeError) {
	b.err = err
	b.finished = true
	b.log.Error("Battle aborted", "error", err)
}

func (b *Battle) playSong(s system.PlaySong, music bool) {
	if s.IsNone() || b.ctx.Audio == nil {
		return
	}
	env := b.ctx.Env()
	song, err := b.db.Song(s.SongID.Int(env))
	if err != nil {
		b.log.Warn("Battle song not found", "error", err)
		return
	}
	vol := s.Volume.Or(valueHundred).Number(env) / 100
	if music {
		err = b.ctx.Audio.PlayMusic(song, vol)
	} else {
		err = b.ctx.Audio.PlaySound(song, vol)
	}
	if err != nil {
		b.log.Warn("Battle song failed", "song", song.Name, "error", err)
	}
}

// Update advances the battle by one frame.
func (b *Battle) Update() {
	if b.finished {
		return
	}
	if b.ended != reaction.OutcomeNone {
		b.finish(b.ended)
		return
	}
	now := b.now()
	for _, bt := range b.all() {
		bt.Update(now)
	}
	switch b.step {
	case StepIntro:
		b.updateStep0(now)
	case StepHeroSelection:
		b.updateStep1()
	case StepEffects:
		b.updateStep2(now)
	case StepEnemyAction:
		b.updateStep3()
	case StepVictory:
		b.updateStep4(now)
	default:
		b.fail(reaction.NewRuntimeError(reaction.ErrorBattleStep, "unknown battle step %d", int(b.step)))
	}
}

func (b *Battle) changeStep(s Step) {
	b.log.Debug("Battle step", "from", b.step, "to", s)
	b.step = s
	b.subStep = 0
	b.stepStart = b.now()
	switch s {
	case StepHeroSelection:
		b.initializeStep1()
	case StepEffects:
		b.initializeStep2()
	case StepEnemyAction:
		b.initializeStep3()
	case StepVictory:
		b.initializeStep4()
	}
}

func (b *Battle) all() []*Battler {
	out := make([]*Battler, 0, len(b.heroes)+len(b.monsters))
	out = append(out, b.heroes...)
	return append(out, b.monsters...)
}

func (b *Battle) group(kind system.CharacterKind) []*Battler {
	if kind == system.Hero {
		return b.heroes
	}
	return b.monsters
}

func alive(list []*Battler) []*Battler {
	var out []*Battler
	for _, bt := range list {
		if !bt.dead {
			out = append(out, bt)
		}
	}
	return out
}

func allDead(list []*Battler) bool {
	return len(alive(list)) == 0
}

// isWin is checked before isLose, so a simultaneous wipe is a win.
func (b *Battle) isWin() bool  { return allDead(b.monsters) }
func (b *Battle) isLose() bool { return allDead(b.heroes) }

// isEndTurn reports whether no battler of the attacking group can act.
func (b *Battle) isEndTurn() bool {
	for _, bt := range b.group(b.attackingGroup) {
		if bt.active && !bt.dead {
			return false
		}
	}
	return true
}

// activeGroup gives the turn to the other side and reactivates it.
func (b *Battle) activeGroup() {
	b.attackingGroup = b.attackingGroup.Opposite()
	for _, bt := range b.group(b.attackingGroup) {
		bt.SetActive(true)
	}
}

func (b *Battle) gameOver() {
	b.finish(reaction.OutcomeLose)
}

func (b *Battle) updateDead(bt *Battler) {
	bt.UpdateDead(b.bs.FormulaIsDead, b.ctx.Env())
}

func (b *Battle) escape() {
	b.log.Info("Escaped from battle")
	b.finish(reaction.OutcomeEscape)
}
