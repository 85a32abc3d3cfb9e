package battle

import (
	"math"

	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

var valueHundred = value.NumberOf(100)

// WeaponEffects returns the effects of a basic attack: the effects of every
// equipped weapon in equipment order, or when there is none, the effects of
// the attack skill after its leading special action.
func WeaponEffects(weapons []*system.CommonItem, attack *system.Skill) []*system.Effect {
	var effects []*system.Effect
	for _, w := range weapons {
		if w.Kind != system.ItemKindWeapon {
			continue
		}
		effects = append(effects, w.Effects...)
	}
	if len(effects) == 0 && attack != nil && len(attack.Effects) > 1 {
		effects = append(effects, attack.Effects[1:]...)
	}
	return effects
}

// execute applies one effect of the current action.
func (b *Battle) execute(e *system.Effect) {
	switch e.Kind {
	case system.EffectDamages:
		for _, t := range b.targets {
			b.damages = append(b.damages, b.applyDamages(e, t))
		}
	case system.EffectStatus:
		b.log.Debug("Status effects are not applied", "user", b.user.Player.Name)
	case system.EffectAddRemoveSkill:
		env := b.ctx.Env().With(b.user.Player, nil, 0)
		id := e.TargetID.Int(env)
		for _, t := range b.targets {
			if e.Remove {
				t.Player.ForgetSkill(id)
			} else {
				t.Player.LearnSkill(id)
			}
		}
	case system.EffectPerformSkill:
		env := b.ctx.Env().With(b.user.Player, nil, 0)
		s, err := b.db.Skill(e.TargetID.Int(env))
		if err != nil {
			b.log.Warn("Performed skill not found", "error", err)
			return
		}
		for _, se := range s.Effects {
			// no chains of performed skills
			if se.Kind != system.EffectPerformSkill {
				b.execute(se)
			}
		}
	case system.EffectCommonReaction:
		b.runCommonReaction(e)
	case system.EffectSpecialActions:
		b.log.Debug("Special action inside an effect queue", "action", e.SpecialAction)
	}
}

func (b *Battle) runCommonReaction(e *system.Effect) {
	r, err := b.db.CommonReaction(e.CommonReactionID)
	if err != nil {
		b.log.Warn("Effect reaction not found", "error", err)
		return
	}
	in, err := reaction.NewInterpreter(b.ctx, r, reaction.WithParameters(reaction.ResolveParameters(r, e.Parameters)))
	if err != nil {
		b.log.Warn("Effect reaction not started", "reaction", r.ID, "error", err)
		return
	}
	b.running = in
}

// applyDamages computes and applies the damage of e to target t.
func (b *Battle) applyDamages(e *system.Effect, t *Battler) hud.Damage {
	d := hud.Damage{Target: t.Index, Hero: t.Kind == system.Hero}
	env := b.ctx.Env().With(b.user.Player, t.Player, 0)

	if e.Precision.Kind() > value.Default {
		if b.ctx.Random(1, 100) > e.Precision.Int(env) {
			d.Miss = true
			return d
		}
	}

	damage := e.Formula.Number(env)
	if e.Critical.Kind() > value.Default && b.ctx.Random(1, 100) <= e.Critical.Int(env) {
		d.Critical = true
		if b.bs.FormulaCrit.Kind() > value.Default {
			damage = b.bs.FormulaCrit.Number(env.With(b.user.Player, t.Player, damage))
		}
	}
	if resID, ok := b.bs.ElementResistanceID(e.ElementID); ok {
		if res, err := b.bs.Statistic(resID); err == nil {
			damage -= t.Player.StatOrZero(res.Abbreviation)
		}
		if pct, err := b.bs.Statistic(resID + 1); err == nil {
			damage -= damage * t.Player.StatOrZero(pct.Abbreviation) / 100
		}
	}
	damage = math.Round(damage)
	d.Amount = damage

	stat, err := b.bs.Statistic(e.StatisticID.Int(env))
	if err != nil {
		b.log.Warn("Damaged statistic not found", "error", err)
		return d
	}
	n := t.Player.StatOrZero(stat.Abbreviation) - damage
	if !stat.IsFix {
		if limit, ok := t.Player.Stat(stat.MaxAbbreviation()); ok && n > limit {
			n = limit
		}
	}
	if n < 0 {
		n = 0
	}
	t.Player.SetStat(stat.Abbreviation, n)
	b.log.Debug("Damages", "user", b.user.Player.Name, "target", t.Player.Name, "stat", stat.Abbreviation, "amount", damage, "critical", d.Critical)
	return d
}
