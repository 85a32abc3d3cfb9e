// Package database holds the static tables of a game project and loads them
// from YAML (or JSON) files.
//
// Tables are read-only once loaded. Lookups of a missing id fail with an
// error matching ErrUnknownID whose text is "unknown <kind> id <n>".
package database

import (
	"errors"
	"fmt"

	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/system"
)

// ErrUnknownID matches every failed table lookup.
var ErrUnknownID = errors.New("unknown id")

// UnknownIDError is returned by Get when a table has no entry for an id.
type UnknownIDError struct {
	Kind string
	ID   int
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown %s id %d", e.Kind, e.ID)
}

// Is reports ErrUnknownID as a match.
func (e *UnknownIDError) Is(target error) bool {
	return target == ErrUnknownID
}

// Get returns the entry id of table. kind names the table in the error.
func Get[T any](table map[int]*T, id int, kind string) (*T, error) {
	if v, ok := table[id]; ok && v != nil {
		return v, nil
	}
	return nil, &UnknownIDError{Kind: kind, ID: id}
}

// Database is the set of static tables of a project. It implements
// reaction.Database and battle.Database.
type Database struct {
	CommonReactions map[int]*reaction.Reaction
	Heroes          map[int]*system.Character
	Monsters        map[int]*system.Character
	Troops          map[int]*system.Troop
	Items           map[system.ItemKind]map[int]*system.CommonItem
	Skills          map[int]*system.Skill
	Songs           map[int]*system.Song
	System          *system.BattleSystem
	KeyBindings     []system.KeyBinding
	Variables       system.Variables
}

// New creates an empty database.
func New() *Database {
	return &Database{
		CommonReactions: make(map[int]*reaction.Reaction),
		Heroes:          make(map[int]*system.Character),
		Monsters:        make(map[int]*system.Character),
		Troops:          make(map[int]*system.Troop),
		Items: map[system.ItemKind]map[int]*system.CommonItem{
			system.ItemKindItem:   make(map[int]*system.CommonItem),
			system.ItemKindWeapon: make(map[int]*system.CommonItem),
			system.ItemKindArmor:  make(map[int]*system.CommonItem),
		},
		Skills:      make(map[int]*system.Skill),
		Songs:       make(map[int]*system.Song),
		KeyBindings: system.DefaultKeyBindings(),
	}
}

// CommonReaction implements reaction.Database.
func (db *Database) CommonReaction(id int) (*reaction.Reaction, error) {
	return Get(db.CommonReactions, id, "common reaction")
}

// Hero implements reaction.Database.
func (db *Database) Hero(id int) (*system.Character, error) {
	return Get(db.Heroes, id, "hero")
}

// Monster implements battle.Database.
func (db *Database) Monster(id int) (*system.Character, error) {
	return Get(db.Monsters, id, "monster")
}

// Troop implements battle.Database.
func (db *Database) Troop(id int) (*system.Troop, error) {
	return Get(db.Troops, id, "troop")
}

// Item implements reaction.Database.
func (db *Database) Item(kind system.ItemKind, id int) (*system.CommonItem, error) {
	return Get(db.Items[kind], id, kind.String())
}

// Skill implements reaction.Database.
func (db *Database) Skill(id int) (*system.Skill, error) {
	return Get(db.Skills, id, "skill")
}

// Song implements reaction.Database.
func (db *Database) Song(id int) (*system.Song, error) {
	return Get(db.Songs, id, "song")
}

// BattleSystem implements reaction.Database.
func (db *Database) BattleSystem() *system.BattleSystem {
	return db.System
}

// Validate checks the references between tables. Authoring data is trusted
// at run time, so dangling references are reported here, at load time.
func (db *Database) Validate() error {
	var errs []error
	for _, tr := range db.Troops {
		for _, m := range tr.Monsters {
			if _, err := db.Monster(m.ID); err != nil {
				errs = append(errs, fmt.Errorf("troop %d: %w", tr.ID, err))
			}
		}
	}
	for _, h := range db.Heroes {
		for _, id := range h.Skills {
			if _, err := db.Skill(id); err != nil {
				errs = append(errs, fmt.Errorf("hero %d: %w", h.ID, err))
			}
		}
		for _, e := range h.Equipment {
			if _, err := db.Item(e.Kind, e.ID); err != nil {
				errs = append(errs, fmt.Errorf("hero %d: %w", h.ID, err))
			}
		}
	}
	if bs := db.System; bs != nil {
		if _, err := db.Skill(bs.AttackSkillID); err != nil {
			errs = append(errs, fmt.Errorf("attack skill: %w", err))
		}
		for _, id := range bs.BattleCommands {
			if _, err := db.Skill(id); err != nil {
				errs = append(errs, fmt.Errorf("battle command: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
