package reaction

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zurustar/paperrpg/pkg/clock"
	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/system"
)

// fakeDB is an in-memory Database.
type fakeDB struct {
	reactions map[int]*Reaction
	heroes    map[int]*system.Character
	items     map[int]*system.CommonItem
	skills    map[int]*system.Skill
	songs     map[int]*system.Song
	bs        *system.BattleSystem
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		reactions: make(map[int]*Reaction),
		heroes:    make(map[int]*system.Character),
		items:     make(map[int]*system.CommonItem),
		skills:    make(map[int]*system.Skill),
		songs:     make(map[int]*system.Song),
	}
}

func (db *fakeDB) CommonReaction(id int) (*Reaction, error) {
	if r, ok := db.reactions[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("unknown common reaction id %d", id)
}

func (db *fakeDB) Hero(id int) (*system.Character, error) {
	if h, ok := db.heroes[id]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("unknown hero id %d", id)
}

func (db *fakeDB) Item(kind system.ItemKind, id int) (*system.CommonItem, error) {
	if it, ok := db.items[id]; ok && it.Kind == kind {
		return it, nil
	}
	return nil, fmt.Errorf("unknown %s id %d", kind, id)
}

func (db *fakeDB) Skill(id int) (*system.Skill, error) {
	if s, ok := db.skills[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown skill id %d", id)
}

func (db *fakeDB) Song(id int) (*system.Song, error) {
	if s, ok := db.songs[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown song id %d", id)
}

func (db *fakeDB) BattleSystem() *system.BattleSystem { return db.bs }

// heldKeys is a KeyState backed by a set.
type heldKeys map[int]bool

func (k heldKeys) IsPressed(key int) bool { return k[key] }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(db *fakeDB, opts ...ContextOption) (*Context, *clock.Manual) {
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	base := []ContextOption{WithLogger(quietLogger()), WithClock(clk)}
	return NewContext(db, game.NewState(), append(base, opts...)...), clk
}

// build decodes [depth, kind, operands...] lists into a reaction.
func build(t *testing.T, id int, lists ...[]any) *Reaction {
	t.Helper()
	nodes := make([]Node, 0, len(lists))
	for _, l := range lists {
		n, err := DecodeNode(l)
		require.NoError(t, err)
		nodes = append(nodes, n)
	}
	r, err := NewReaction(id, nodes)
	require.NoError(t, err)
	return r
}

func run(t *testing.T, ctx *Context, r *Reaction, opts ...Option) *Interpreter {
	t.Helper()
	in, err := NewInterpreter(ctx, r, opts...)
	require.NoError(t, err)
	in.Update()
	return in
}

func variable(ctx *Context, id int) any {
	v, _ := ctx.State.Variables.Get(id)
	return v
}

// Command encodings used by the tests.

func setVar(depth, id int, n float64) []any {
	return []any{depth, int(ChangeVariables), 0, id, id, int(OperationEqual), 3, n}
}

func addVar(depth, id int, n float64) []any {
	return []any{depth, int(ChangeVariables), 0, id, id, int(OperationPlus), 3, n}
}

func ifSwitch(depth int, b bool) []any {
	return []any{depth, int(If), int(ConditionFormula), 10, b}
}
