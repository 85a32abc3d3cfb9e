package system

import "github.com/zurustar/paperrpg/pkg/value"

// CharacterKind tells heroes and monsters apart.
type CharacterKind int

const (
	Hero CharacterKind = iota
	Monster
)

func (k CharacterKind) String() string {
	if k == Hero {
		return "hero"
	}
	return "monster"
}

// Opposite returns the other side of a battle.
func (k CharacterKind) Opposite() CharacterKind {
	if k == Hero {
		return Monster
	}
	return Hero
}

// Equipment places an item in an equipment slot at character creation.
type Equipment struct {
	Slot int      `yaml:"slot"`
	Kind ItemKind `yaml:"kind"`
	ID   int      `yaml:"id"`
}

// Character is the definition shared by heroes and monsters.
//
// Statistics maps a statistic id to its initial value. The value is evaluated
// with "u" bound to the character being created, so it can depend on the
// level.
type Character struct {
	ID         int                 `yaml:"id"`
	Name       string              `yaml:"name"`
	Level      int                 `yaml:"level"`
	Statistics map[int]value.Value `yaml:"statistics"`
	Skills     []int               `yaml:"skills"`
	Equipment  []Equipment         `yaml:"equipment"`

	// Experience and Currencies are rewarded when a monster is defeated.
	Experience int         `yaml:"experience"`
	Currencies map[int]int `yaml:"currencies"`
}

// TroopMonster is one monster of a troop.
type TroopMonster struct {
	ID    int `yaml:"id"`
	Level int `yaml:"level"`
}

// Troop is a group of monsters met in one battle.
type Troop struct {
	ID       int            `yaml:"id"`
	Name     string         `yaml:"name"`
	Monsters []TroopMonster `yaml:"monsters"`
}
