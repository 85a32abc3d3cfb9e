// Package system holds the static, read-only definitions of a game: items,
// skills, effects, characters, troops, songs, key bindings and the battle
// system settings.
//
// Definitions are decoded from content data once at load time and never
// mutated afterwards, so they can be shared freely between interpreters and
// battles.
package system

import (
	"fmt"

	"github.com/zurustar/paperrpg/pkg/value"
)

// Statistic describes a character statistic such as hp or atk.
// Non fixed statistics also carry a maximum, reachable as "m" + Abbreviation.
type Statistic struct {
	ID           int    `yaml:"id"`
	Name         string `yaml:"name"`
	Abbreviation string `yaml:"abbreviation"`
	IsFix        bool   `yaml:"fix"`

	// ElementID is set on the resistance statistics generated per element.
	ElementID int  `yaml:"-"`
	IsRes     bool `yaml:"-"`
	IsPercent bool `yaml:"-"`
}

// MaxAbbreviation returns the name of the maximum of a non fixed statistic.
func (s *Statistic) MaxAbbreviation() string {
	return "m" + s.Abbreviation
}

// Element is a damage element. Each element adds two resistance statistics.
type Element struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// BattleSystem holds the settings shared by every battle.
type BattleSystem struct {
	Statistics       []*Statistic `yaml:"statistics"`
	Elements         []*Element   `yaml:"elements"`
	LevelStatisticID int          `yaml:"lv"`
	ExpStatisticID   int          `yaml:"xp"`

	// FormulaIsDead decides if a battler is dead, "u.hp <= 0" by default.
	FormulaIsDead value.Value `yaml:"fisdead"`
	FormulaCrit   value.Value `yaml:"fc"`

	// AttackSkillID is the skill used by the basic attack command.
	AttackSkillID int `yaml:"attackSkill"`

	// BattleCommands lists the skill ids offered to heroes, in menu order.
	BattleCommands []int `yaml:"battleCommands"`

	EquipmentSlots []string `yaml:"equipments"`

	BattleMusic   PlaySong `yaml:"bmusic"`
	BattleVictory PlaySong `yaml:"bvictory"`
	BattleLevelUp PlaySong `yaml:"blevelup"`

	byID        map[int]*Statistic
	byAbbr      map[string]*Statistic
	elementRes  map[int]int
	maxStatID   int
	initialized bool
}

// Init indexes the statistics and appends the element resistance pairs after
// the last declared statistic id. It is idempotent.
func (b *BattleSystem) Init() error {
	if b.initialized {
		return nil
	}
	b.byID = make(map[int]*Statistic)
	b.byAbbr = make(map[string]*Statistic)
	b.elementRes = make(map[int]int)

	for _, s := range b.Statistics {
		if _, dup := b.byID[s.ID]; dup {
			return fmt.Errorf("duplicate statistic id %d", s.ID)
		}
		b.byID[s.ID] = s
		if s.Abbreviation != "" {
			b.byAbbr[s.Abbreviation] = s
		}
		if s.ID > b.maxStatID {
			b.maxStatID = s.ID
		}
	}

	base := b.maxStatID
	for i, e := range b.Elements {
		res := &Statistic{
			ID:           base + i*2 + 1,
			Name:         e.Name + " res.",
			Abbreviation: fmt.Sprintf("elres%d", e.ID),
			IsFix:        true,
			ElementID:    e.ID,
			IsRes:        true,
		}
		pct := &Statistic{
			ID:           base + i*2 + 2,
			Name:         e.Name + " res.(%)",
			Abbreviation: fmt.Sprintf("elresp%d", e.ID),
			IsFix:        true,
			ElementID:    e.ID,
			IsRes:        true,
			IsPercent:    true,
		}
		b.Statistics = append(b.Statistics, res, pct)
		b.byID[res.ID], b.byID[pct.ID] = res, pct
		b.byAbbr[res.Abbreviation], b.byAbbr[pct.Abbreviation] = res, pct
		b.elementRes[e.ID] = res.ID
	}
	b.maxStatID += len(b.Elements) * 2

	if b.FormulaIsDead.Kind() <= value.Default {
		b.FormulaIsDead = value.FormulaOf("u.hp <= 0")
	}
	if b.AttackSkillID == 0 {
		b.AttackSkillID = 1
	}
	b.initialized = true
	return nil
}

// Statistic returns the statistic with the given id.
func (b *BattleSystem) Statistic(id int) (*Statistic, error) {
	if s, ok := b.byID[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown statistic id %d", id)
}

// StatisticByAbbreviation returns the statistic with the given abbreviation.
func (b *BattleSystem) StatisticByAbbreviation(abbr string) (*Statistic, bool) {
	s, ok := b.byAbbr[abbr]
	return s, ok
}

// ElementResistanceID returns the id of the flat resistance statistic of an
// element. The percent variant is the next id.
func (b *BattleSystem) ElementResistanceID(elementID int) (int, bool) {
	id, ok := b.elementRes[elementID]
	return id, ok
}

// MaxStatisticID returns the highest statistic id, resistances included.
func (b *BattleSystem) MaxStatisticID() int {
	return b.maxStatID
}

// LevelStatistic returns the level statistic.
func (b *BattleSystem) LevelStatistic() (*Statistic, error) {
	return b.Statistic(b.LevelStatisticID)
}

// ExpStatistic returns the experience statistic, or nil when it is missing
// or a resistance.
func (b *BattleSystem) ExpStatistic() *Statistic {
	s, ok := b.byID[b.ExpStatisticID]
	if !ok || s.IsRes {
		return nil
	}
	return s
}
