// Package game holds the live, mutable state of a running game: variables,
// inventory, currencies, the party and the objects of the current map.
//
// State is mutated only from the frame loop and carries no locks.
package game

import (
	"sort"

	"github.com/zurustar/paperrpg/pkg/system"
)

// Variables stores game variables by id. Values are float64, string or bool.
type Variables struct {
	values map[int]any
}

// NewVariables creates an empty variable store.
func NewVariables() *Variables {
	return &Variables{values: make(map[int]any)}
}

// Get returns the value of a variable.
func (v *Variables) Get(id int) (any, bool) {
	got, ok := v.values[id]
	return got, ok
}

// Set assigns a variable.
func (v *Variables) Set(id int, val any) {
	v.values[id] = val
}

// IDs returns the ids of every assigned variable in ascending order.
func (v *Variables) IDs() []int {
	ids := make([]int, 0, len(v.values))
	for id := range v.values {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

type itemKey struct {
	kind system.ItemKind
	id   int
}

// Inventory counts owned items, weapons and armors.
type Inventory struct {
	counts map[itemKey]int
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{counts: make(map[itemKey]int)}
}

// Count returns the number of owned copies of an item.
func (inv *Inventory) Count(kind system.ItemKind, id int) int {
	return inv.counts[itemKey{kind, id}]
}

// Add changes the number of owned copies by delta. Counts never go below 0
// and entries reaching 0 are removed.
func (inv *Inventory) Add(kind system.ItemKind, id int, delta int) {
	k := itemKey{kind, id}
	n := inv.counts[k] + delta
	if n <= 0 {
		delete(inv.counts, k)
		return
	}
	inv.counts[k] = n
}

// IDs returns the ids of the owned entries of a kind in ascending order.
func (inv *Inventory) IDs(kind system.ItemKind) []int {
	var ids []int
	for k := range inv.counts {
		if k.kind == kind {
			ids = append(ids, k.id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Set assigns the number of owned copies of an item.
func (inv *Inventory) Set(kind system.ItemKind, id int, n int) {
	inv.Add(kind, id, n-inv.Count(kind, id))
}

// State is the whole live game state.
type State struct {
	Variables  *Variables
	Inventory  *Inventory
	Currencies map[int]int
	Party      *Party
	Objects    map[int]*MapObject

	nextInstanceID int
}

// HeroObjectID is the id of the map object controlled by the player.
const HeroObjectID = 0

// NewState creates an empty state with the hero object placed at the origin.
func NewState() *State {
	return &State{
		Variables:  NewVariables(),
		Inventory:  NewInventory(),
		Currencies: make(map[int]int),
		Party:      &Party{},
		Objects: map[int]*MapObject{
			HeroObjectID: {ID: HeroObjectID, Name: "Hero"},
		},
		nextInstanceID: 1,
	}
}

// NextInstanceID allocates an id for a new hero or monster instance.
func (s *State) NextInstanceID() int {
	id := s.nextInstanceID
	s.nextInstanceID++
	return id
}

// Variable implements formula.Lookup.
func (s *State) Variable(id int) (any, bool) {
	return s.Variables.Get(id)
}

// ItemCount implements formula.Lookup. Only consumable items are counted.
func (s *State) ItemCount(id int) int {
	return s.Inventory.Count(system.ItemKindItem, id)
}

// Currency implements formula.Lookup.
func (s *State) Currency(id int) int {
	return s.Currencies[id]
}

// AddCurrency changes a currency amount. Amounts never go below 0.
func (s *State) AddCurrency(id int, delta int) {
	n := s.Currencies[id] + delta
	if n < 0 {
		n = 0
	}
	s.Currencies[id] = n
}

// Object returns a map object by id.
func (s *State) Object(id int) (*MapObject, bool) {
	o, ok := s.Objects[id]
	return o, ok
}
