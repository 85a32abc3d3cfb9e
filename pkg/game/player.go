package game

import (
	"log/slog"
	"sort"

	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/value"
)

// Item is an equipped weapon or armor.
type Item struct {
	Kind system.ItemKind
	ID   int
}

// Player is a live hero or monster instance.
type Player struct {
	Kind       system.CharacterKind
	ID         int
	InstanceID int
	Name       string

	// Equipment is indexed by slot id. Empty slots are nil.
	Equipment map[int]*Item
	Skills    []int

	stats map[string]float64
}

// NewPlayer creates an instance of a character definition at the given level.
// Initial statistics are evaluated in statistic order with "u" bound to the
// new instance, so later statistics may depend on earlier ones.
func NewPlayer(kind system.CharacterKind, def *system.Character, instanceID, level int, bs *system.BattleSystem, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	p := &Player{
		Kind:       kind,
		ID:         def.ID,
		InstanceID: instanceID,
		Name:       def.Name,
		Equipment:  make(map[int]*Item),
		Skills:     append([]int(nil), def.Skills...),
		stats:      make(map[string]float64),
	}
	if level <= 0 {
		level = def.Level
	}
	if level <= 0 {
		level = 1
	}
	if lv, err := bs.LevelStatistic(); err == nil {
		p.stats[lv.Abbreviation] = float64(level)
	}

	env := &value.Env{User: p, Log: log}
	for _, s := range bs.Statistics {
		if s.ID == bs.LevelStatisticID {
			continue
		}
		initial, ok := def.Statistics[s.ID]
		if !ok {
			continue
		}
		n := initial.Number(env)
		p.stats[s.Abbreviation] = n
		if !s.IsFix {
			p.stats[s.MaxAbbreviation()] = n
		}
	}
	for _, e := range def.Equipment {
		p.Equipment[e.Slot] = &Item{Kind: e.Kind, ID: e.ID}
	}
	return p
}

// Stat implements formula.Actor.
func (p *Player) Stat(name string) (float64, bool) {
	v, ok := p.stats[name]
	return v, ok
}

// SetStat assigns a statistic by abbreviation.
func (p *Player) SetStat(name string, v float64) {
	p.stats[name] = v
}

// StatOrZero returns a statistic, or 0 when the player does not have it.
func (p *Player) StatOrZero(name string) float64 {
	return p.stats[name]
}

// EquippedItems returns the equipment in slot order.
func (p *Player) EquippedItems() []*Item {
	slots := make([]int, 0, len(p.Equipment))
	for slot, it := range p.Equipment {
		if it != nil {
			slots = append(slots, slot)
		}
	}
	sort.Ints(slots)
	items := make([]*Item, 0, len(slots))
	for _, slot := range slots {
		items = append(items, p.Equipment[slot])
	}
	return items
}

// HasSkill reports whether the player knows a skill.
func (p *Player) HasSkill(id int) bool {
	for _, s := range p.Skills {
		if s == id {
			return true
		}
	}
	return false
}

// LearnSkill adds a skill if it is not known yet.
func (p *Player) LearnSkill(id int) {
	if !p.HasSkill(id) {
		p.Skills = append(p.Skills, id)
	}
}

// ForgetSkill removes a skill.
func (p *Player) ForgetSkill(id int) {
	for i, s := range p.Skills {
		if s == id {
			p.Skills = append(p.Skills[:i], p.Skills[i+1:]...)
			return
		}
	}
}
