package battle

import (
	"time"

	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

// AttackDuration is the length of the attack animation of a battler.
const AttackDuration = 800 * time.Millisecond

// Battler is a hero or monster taking part in a battle.
type Battler struct {
	Player *game.Player
	Kind   system.CharacterKind
	// Index is the position of the battler in its group.
	Index int

	active    bool
	selected  bool
	attacking bool
	dead      bool
	attackEnd time.Time
}

func newBattler(p *game.Player, kind system.CharacterKind, index int) *Battler {
	return &Battler{Player: p, Kind: kind, Index: index, active: true}
}

// IsActive reports whether the battler can still act this turn.
func (b *Battler) IsActive() bool { return b.active }

// SetActive marks the battler as able to act. Dead battlers never act.
func (b *Battler) SetActive(active bool) {
	b.active = active && !b.dead
}

// IsSelected reports whether the battler is the one being commanded.
func (b *Battler) IsSelected() bool { return b.selected }

// IsAttacking reports whether the attack animation is playing.
func (b *Battler) IsAttacking() bool { return b.attacking }

// SetAttacking starts the attack animation.
func (b *Battler) SetAttacking(now time.Time) {
	b.attacking = true
	b.attackEnd = now.Add(AttackDuration)
}

// IsDead reports whether the battler is out of the battle.
func (b *Battler) IsDead() bool { return b.dead }

// Update ends the attack animation once its time is over.
func (b *Battler) Update(now time.Time) {
	if b.attacking && !now.Before(b.attackEnd) {
		b.attacking = false
	}
}

// UpdateDead evaluates the death formula of the battle system for the
// battler. A dead battler is deactivated.
func (b *Battler) UpdateDead(isDead value.Value, env *value.Env) {
	b.dead = isDead.Bool(env.With(b.Player, nil, 0))
	if b.dead {
		b.active = false
		b.selected = false
	}
}
