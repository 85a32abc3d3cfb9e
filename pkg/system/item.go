package system

// ItemKind distinguishes consumables, weapons and armors.
type ItemKind int

const (
	ItemKindItem ItemKind = iota
	ItemKindWeapon
	ItemKindArmor
)

func (k ItemKind) String() string {
	switch k {
	case ItemKindItem:
		return "item"
	case ItemKindWeapon:
		return "weapon"
	case ItemKindArmor:
		return "armor"
	}
	return "unknown item kind"
}

// CommonItem is the shared definition of items, weapons and armors.
type CommonItem struct {
	ID         int       `yaml:"id"`
	Name       string    `yaml:"name"`
	Kind       ItemKind  `yaml:"kind"`
	Price      int       `yaml:"price"`
	Consumable bool      `yaml:"consumable"`
	Effects    []*Effect `yaml:"effects"`

	// Slots lists the equipment slots a weapon or armor fits in.
	Slots []int `yaml:"slots"`
}

// Skill is an action available in battle. Battle commands are skills whose
// first effect is a special action.
type Skill struct {
	ID      int       `yaml:"id"`
	Name    string    `yaml:"name"`
	Cost    int       `yaml:"cost"`
	Effects []*Effect `yaml:"effects"`
}

// SpecialAction returns the special action of a battle command skill.
func (s *Skill) SpecialAction() (SpecialActionKind, bool) {
	if len(s.Effects) == 0 || s.Effects[0].Kind != EffectSpecialActions {
		return 0, false
	}
	return s.Effects[0].SpecialAction, true
}
