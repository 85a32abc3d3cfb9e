package system

import "github.com/zurustar/paperrpg/pkg/value"

// EffectKind is the kind of a single combat outcome.
type EffectKind int

const (
	EffectDamages EffectKind = iota
	EffectStatus
	EffectAddRemoveSkill
	EffectPerformSkill
	EffectCommonReaction
	EffectSpecialActions
)

// SpecialActionKind is the action of a battle command.
type SpecialActionKind int

const (
	ApplyWeapons SpecialActionKind = iota
	OpenSkills
	OpenItems
	Escape
	EndTurn
)

func (k SpecialActionKind) String() string {
	switch k {
	case ApplyWeapons:
		return "apply weapons"
	case OpenSkills:
		return "open skills"
	case OpenItems:
		return "open items"
	case Escape:
		return "escape"
	case EndTurn:
		return "end turn"
	}
	return "unknown special action"
}

// Effect describes one combat outcome computation.
type Effect struct {
	Kind EffectKind `yaml:"kind"`

	// Damages
	StatisticID value.Value `yaml:"statistic"`
	Formula     value.Value `yaml:"formula"`
	ElementID   int         `yaml:"element"`
	Precision   value.Value `yaml:"precision"`
	Critical    value.Value `yaml:"critical"`

	// Status, add/remove skill and perform skill
	TargetID value.Value `yaml:"target"`
	Remove   bool        `yaml:"remove"`

	// CommonReaction
	CommonReactionID int                 `yaml:"commonReaction"`
	Parameters       map[int]value.Value `yaml:"parameters"`

	// SpecialActions
	SpecialAction SpecialActionKind `yaml:"specialAction"`
}
