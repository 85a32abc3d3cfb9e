package battle

import (
	"time"

	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/system"
)

// Sub steps of the hero selection.
const (
	SelectUser = iota
	SelectCommand
	SelectChoice
	SelectTarget
)

// menuState is the cursor of a vertical menu.
type menuState struct {
	index int
	size  int
}

func (m *menuState) reset(size int) {
	m.index = 0
	m.size = size
}

func (m *menuState) move(delta int) {
	if m.size == 0 {
		return
	}
	m.index = (m.index + delta + m.size) % m.size
}

// choice is an entry of the skill or item menu.
type choice struct {
	name  string
	skill *system.Skill
	item  *system.CommonItem
}

// -------------------------------------------------------
// Step 0: intro
// -------------------------------------------------------

func (b *Battle) updateStep0(now time.Time) {
	if now.Sub(b.stepStart) >= IntroDuration {
		b.startHeroTurn()
	}
}

func (b *Battle) startHeroTurn() {
	b.attackingGroup = system.Hero
	for _, h := range b.heroes {
		h.SetActive(true)
	}
	b.changeStep(StepHeroSelection)
}

// -------------------------------------------------------
// Step 1: hero selection
// -------------------------------------------------------

func (b *Battle) initializeStep1() {
	b.attackingGroup = system.Hero
	b.user = nil
	b.targets = nil
	b.skill = nil
	b.item = nil
	b.information = ""
	b.selectUser()
}

func (b *Battle) candidates() []*Battler {
	switch b.subStep {
	case SelectUser:
		var out []*Battler
		for _, h := range b.heroes {
			if h.active && !h.dead {
				out = append(out, h)
			}
		}
		return out
	case SelectTarget:
		if b.item != nil {
			return alive(b.heroes)
		}
		return alive(b.monsters)
	}
	return nil
}

func (b *Battle) selectUser() {
	b.subStep = SelectUser
	if b.user != nil {
		b.user.selected = false
		b.user = nil
	}
	b.menu.reset(len(b.candidates()))
}

func (b *Battle) updateStep1() {
	if b.subStep == SelectUser && b.menu.size == 0 {
		// nobody left to command
		b.endTurn()
	}
}

func (b *Battle) onKeyPressedStep1(key int) {
	switch key {
	case system.KeyAction:
		b.actionStep1()
	case system.KeyCancel:
		b.cancelStep1()
	}
}

func (b *Battle) actionStep1() {
	switch b.subStep {
	case SelectUser:
		list := b.candidates()
		if len(list) == 0 {
			return
		}
		b.user = list[b.menu.index]
		b.user.selected = true
		b.subStep = SelectCommand
		b.menu.reset(len(b.commands))
	case SelectCommand:
		b.selectCommand(b.commands[b.menu.index])
	case SelectChoice:
		c := b.choices()[b.menu.index]
		b.skill, b.item = c.skill, c.item
		b.subStep = SelectTarget
		b.menu.reset(len(b.candidates()))
	case SelectTarget:
		list := b.candidates()
		if len(list) == 0 {
			return
		}
		b.targets = []*Battler{list[b.menu.index]}
		b.changeStep(StepEffects)
	}
}

func (b *Battle) selectCommand(cmd *system.Skill) {
	kind, ok := cmd.SpecialAction()
	if !ok {
		// a plain skill used as a command
		b.commandKind = system.OpenSkills
		b.skill = cmd
		b.subStep = SelectTarget
		b.menu.reset(len(b.candidates()))
		return
	}
	b.commandKind = kind
	switch kind {
	case system.ApplyWeapons:
		b.skill = b.attackSkill
		b.subStep = SelectTarget
		b.menu.reset(len(b.candidates()))
	case system.OpenSkills, system.OpenItems:
		n := len(b.choices())
		if n == 0 {
			b.log.Debug("Nothing to choose", "command", kind)
			return
		}
		b.subStep = SelectChoice
		b.menu.reset(n)
	case system.Escape:
		if !b.req.CanEscape {
			b.information = "Cannot escape"
			b.log.Debug("Escape refused")
			return
		}
		b.escape()
	case system.EndTurn:
		for _, h := range b.heroes {
			h.SetActive(false)
		}
		b.user.selected = false
		b.endTurn()
	}
}

func (b *Battle) cancelStep1() {
	switch b.subStep {
	case SelectCommand:
		b.selectUser()
	case SelectChoice:
		b.subStep = SelectCommand
		b.menu.reset(len(b.commands))
	case SelectTarget:
		b.skill, b.item = nil, nil
		if b.commandKind == system.OpenSkills || b.commandKind == system.OpenItems {
			if n := len(b.choices()); n > 0 {
				b.subStep = SelectChoice
				b.menu.reset(n)
				return
			}
		}
		b.subStep = SelectCommand
		b.menu.reset(len(b.commands))
	}
}

// choices lists the skills of the user or the usable items of the
// inventory, depending on the chosen command.
func (b *Battle) choices() []choice {
	var out []choice
	switch b.commandKind {
	case system.OpenSkills:
		for _, id := range b.user.Player.Skills {
			s, err := b.db.Skill(id)
			if err != nil {
				b.log.Warn("Skill of hero not found", "hero", b.user.Player.Name, "error", err)
				continue
			}
			out = append(out, choice{name: s.Name, skill: s})
		}
	case system.OpenItems:
		inv := b.ctx.State.Inventory
		for _, id := range inv.IDs(system.ItemKindItem) {
			it, err := b.db.Item(system.ItemKindItem, id)
			if err != nil {
				b.log.Warn("Item of inventory not found", "error", err)
				continue
			}
			out = append(out, choice{name: it.Name, item: it})
		}
	}
	return out
}

func (b *Battle) onKeyPressedAndRepeatStep1(key int) {
	switch key {
	case system.KeyUp:
		b.menu.move(-1)
	case system.KeyDown:
		b.menu.move(1)
	}
}

// endTurn gives the turn to the other side.
func (b *Battle) endTurn() {
	b.activeGroup()
	if b.attackingGroup == system.Hero {
		b.changeStep(StepHeroSelection)
	} else {
		b.changeStep(StepEnemyAction)
	}
}

// -------------------------------------------------------
// Step 2: effects
//
//	SubStep 0: the user animates
//	SubStep 1: damages are shown
//	SubStep 2: the queue is exhausted; the step is left within the same
//	           update, so it is only seen by the checks that follow
// -------------------------------------------------------

func (b *Battle) initializeStep2() {
	switch {
	case b.item != nil:
		b.information = b.item.Name
	case b.skill != nil:
		b.information = b.skill.Name
	}
	b.time = b.now()
	b.damages = nil
	b.effects = b.actionEffects()
	b.currentEffectIndex = 0
	if b.item != nil && b.item.Consumable {
		b.ctx.State.Inventory.Add(system.ItemKindItem, b.item.ID, -1)
	}
	b.user.selected = true
	if len(b.effects) > 0 {
		b.execute(b.effects[0])
	}
	b.user.SetAttacking(b.now())
}

// actionEffects returns the effect queue of the chosen action.
func (b *Battle) actionEffects() []*system.Effect {
	switch {
	case b.item != nil:
		return b.item.Effects
	case b.commandKind == system.ApplyWeapons:
		return WeaponEffects(b.weapons(b.user.Player), b.attackSkill)
	case b.skill != nil:
		return b.skill.Effects
	}
	return nil
}

// weapons returns the weapon definitions equipped by a player, in slot order.
func (b *Battle) weapons(p *game.Player) []*system.CommonItem {
	var out []*system.CommonItem
	for _, it := range p.EquippedItems() {
		if it.Kind != system.ItemKindWeapon {
			continue
		}
		w, err := b.db.Item(system.ItemKindWeapon, it.ID)
		if err != nil {
			b.log.Warn("Equipped weapon not found", "player", p.Name, "error", err)
			continue
		}
		out = append(out, w)
	}
	return out
}

// updateStep2 moves the effect index by at most one per update: after a long
// frame the missed windows are caught up one update at a time.
func (b *Battle) updateStep2(now time.Time) {
	if b.running != nil {
		b.running.Update()
		if !b.running.IsFinished() {
			return
		}
		if err := b.running.Err(); err != nil {
			b.log.Warn("Effect reaction stopped", "error", err)
		}
		b.running.UpdateFinish()
		b.running = nil
		b.time = now
		return
	}

	if !b.user.attacking {
		b.subStep = 1
		for _, t := range b.targets {
			b.updateDead(t)
		}
	}

	if now.Sub(b.time) < EffectDuration {
		return
	}
	b.time = b.time.Add(EffectDuration)
	b.currentEffectIndex++
	another := b.currentEffectIndex < len(b.effects)
	if another {
		b.damages = nil
		b.execute(b.effects[b.currentEffectIndex])
	} else {
		b.subStep = 2
		b.user.SetActive(false)
		b.user.selected = false
	}

	b.updateDead(b.user)
	for _, t := range b.targets {
		b.updateDead(t)
	}

	switch {
	case b.isWin():
		for _, h := range alive(b.heroes) {
			h.SetActive(true)
		}
		b.changeStep(StepVictory)
	case b.isLose():
		b.gameOver()
	case another:
		return
	case b.isEndTurn():
		b.endTurn()
	case b.attackingGroup == system.Hero:
		b.changeStep(StepHeroSelection)
	default:
		b.changeStep(StepEnemyAction)
	}
}

// -------------------------------------------------------
// Step 3: enemy action
// -------------------------------------------------------

func (b *Battle) initializeStep3() {
	b.attackingGroup = system.Monster
	b.user = nil
	b.targets = nil
	b.skill = nil
	b.item = nil
	b.information = ""
}

func (b *Battle) updateStep3() {
	var user *Battler
	for _, m := range b.monsters {
		if m.active && !m.dead {
			user = m
			break
		}
	}
	if user == nil {
		b.endTurn()
		return
	}
	heroes := alive(b.heroes)
	if len(heroes) == 0 {
		b.gameOver()
		return
	}

	b.user = user
	b.commandKind = system.ApplyWeapons
	b.skill = b.attackSkill
	skills := user.Player.Skills
	if n := b.ctx.Random(0, len(skills)); n < len(skills) {
		s, err := b.db.Skill(skills[n])
		if err != nil {
			b.log.Warn("Skill of monster not found", "monster", user.Player.Name, "error", err)
		} else {
			b.commandKind = system.OpenSkills
			b.skill = s
		}
	}
	b.targets = []*Battler{heroes[b.ctx.Random(0, len(heroes)-1)]}
	b.log.Debug("Enemy action", "monster", user.Player.Name, "command", b.commandKind, "target", b.targets[0].Player.Name)
	b.changeStep(StepEffects)
}

// -------------------------------------------------------
// Step 4: victory
// -------------------------------------------------------

func (b *Battle) initializeStep4() {
	b.information = "Victory"
	if xp := b.bs.ExpStatistic(); xp != nil && b.experience != 0 {
		for _, h := range alive(b.heroes) {
			h.Player.SetStat(xp.Abbreviation, h.Player.StatOrZero(xp.Abbreviation)+float64(b.experience))
		}
	}
	for id, n := range b.currencies {
		b.ctx.State.AddCurrency(id, n)
	}
	b.playSong(b.bs.BattleVictory, true)
	b.log.Info("Battle won", "experience", b.experience, "currencies", len(b.currencies))
}

func (b *Battle) updateStep4(now time.Time) {
	if now.Sub(b.stepStart) >= VictoryDuration {
		b.finish(reaction.OutcomeWin)
	}
}
