package system

import "fmt"

// Well known logical key ids.
const (
	KeyUp = iota + 1
	KeyDown
	KeyLeft
	KeyRight
	KeyAction
	KeyCancel
	KeyMenu
)

// KeyBinding maps a logical key to the physical keys that trigger it.
type KeyBinding struct {
	ID           int      `yaml:"id"`
	Name         string   `yaml:"name"`
	Abbreviation string   `yaml:"abbreviation"`
	Keys         []string `yaml:"keys"`
}

// DefaultKeyBindings returns the bindings used when a project defines none.
func DefaultKeyBindings() []KeyBinding {
	return []KeyBinding{
		{ID: KeyUp, Name: "Up", Abbreviation: "up", Keys: []string{"ArrowUp", "W"}},
		{ID: KeyDown, Name: "Down", Abbreviation: "down", Keys: []string{"ArrowDown", "S"}},
		{ID: KeyLeft, Name: "Left", Abbreviation: "left", Keys: []string{"ArrowLeft", "A"}},
		{ID: KeyRight, Name: "Right", Abbreviation: "right", Keys: []string{"ArrowRight", "D"}},
		{ID: KeyAction, Name: "Action", Abbreviation: "action", Keys: []string{"Enter", "Space"}},
		{ID: KeyCancel, Name: "Cancel", Abbreviation: "cancel", Keys: []string{"Escape", "Backspace"}},
		{ID: KeyMenu, Name: "Menu", Abbreviation: "menu", Keys: []string{"Escape"}},
	}
}

// VariablesPerPage is the number of variable names stored per page.
const VariablesPerPage = 25

// Variables holds the author given names of game variables, paged.
type Variables struct {
	Pages [][]string `yaml:"pages"`
}

// Name returns the name of a variable. Ids start at 1.
func (v *Variables) Name(id int) string {
	if id < 1 {
		return ""
	}
	page, offset := (id-1)/VariablesPerPage, (id-1)%VariablesPerPage
	if page >= len(v.Pages) || offset >= len(v.Pages[page]) {
		return fmt.Sprintf("variable %d", id)
	}
	return v.Pages[page][offset]
}

// Count returns the number of variables the pages can name.
func (v *Variables) Count() int {
	return len(v.Pages) * VariablesPerPage
}
