package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zurustar/paperrpg/pkg/fileutil"
	"github.com/zurustar/paperrpg/pkg/logger"
	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/system"
	"gopkg.in/yaml.v3"
)

// Extensions tried for every table file, in order. JSON files are read by
// the YAML decoder.
var Extensions = []string{".yaml", ".yml", ".json"}

// Table file base names.
const (
	FileBattleSystem    = "system"
	FileCommonReactions = "commonReactions"
	FileHeroes          = "heroes"
	FileMonsters        = "monsters"
	FileTroops          = "troops"
	FileItems           = "items"
	FileWeapons         = "weapons"
	FileArmors          = "armors"
	FileSkills          = "skills"
	FileSongs           = "songs"
	FileKeyboard        = "keyboard"
	FileVariables       = "variables"
)

// loader reads the table files of one project.
type loader struct {
	fsys *fileutil.FileSystem
	log  *slog.Logger
}

// LoadOption configures loading.
type LoadOption func(*loader)

// WithLogger sets the logger used while loading.
func WithLogger(log *slog.Logger) LoadOption {
	return func(l *loader) {
		l.log = log
	}
}

// LoadDir loads the tables found in a project directory.
func LoadDir(dir string, opts ...LoadOption) (*Database, error) {
	return Load(fileutil.NewDirFS(dir), opts...)
}

// Load loads the tables of a project. Missing table files leave their table
// empty; the battle system file is required.
func Load(fsys *fileutil.FileSystem, opts ...LoadOption) (*Database, error) {
	l := &loader{fsys: fsys, log: logger.GetLogger()}
	for _, opt := range opts {
		opt(l)
	}
	db := New()

	var bs system.BattleSystem
	found, err := l.decode(FileBattleSystem, &bs)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: no %s file", fsys.BasePath(), FileBattleSystem)
	}
	if err := bs.Init(); err != nil {
		return nil, fmt.Errorf("%s: %w", FileBattleSystem, err)
	}
	db.System = &bs

	var reactions []*reaction.Reaction
	if err := l.table(FileCommonReactions, &reactions); err != nil {
		return nil, err
	}
	if db.CommonReactions, err = index(FileCommonReactions, reactions, func(r *reaction.Reaction) int { return r.ID }); err != nil {
		return nil, err
	}
	for _, r := range reactions {
		l.log.Debug("Common reaction decoded", "reaction", r.ID, "name", r.Name, "commands", r.Len(), "parameters", r.ParameterIDs())
	}

	characterID := func(c *system.Character) int { return c.ID }
	var heroes, monsters []*system.Character
	if err := l.table(FileHeroes, &heroes); err != nil {
		return nil, err
	}
	if db.Heroes, err = index(FileHeroes, heroes, characterID); err != nil {
		return nil, err
	}
	if err := l.table(FileMonsters, &monsters); err != nil {
		return nil, err
	}
	if db.Monsters, err = index(FileMonsters, monsters, characterID); err != nil {
		return nil, err
	}

	var troops []*system.Troop
	if err := l.table(FileTroops, &troops); err != nil {
		return nil, err
	}
	if db.Troops, err = index(FileTroops, troops, func(t *system.Troop) int { return t.ID }); err != nil {
		return nil, err
	}

	itemFiles := []struct {
		name string
		kind system.ItemKind
	}{
		{FileItems, system.ItemKindItem},
		{FileWeapons, system.ItemKindWeapon},
		{FileArmors, system.ItemKindArmor},
	}
	for _, f := range itemFiles {
		var items []*system.CommonItem
		if err := l.table(f.name, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			it.Kind = f.kind
		}
		if db.Items[f.kind], err = index(f.name, items, func(it *system.CommonItem) int { return it.ID }); err != nil {
			return nil, err
		}
	}

	var skills []*system.Skill
	if err := l.table(FileSkills, &skills); err != nil {
		return nil, err
	}
	if db.Skills, err = index(FileSkills, skills, func(s *system.Skill) int { return s.ID }); err != nil {
		return nil, err
	}

	var songs []*system.Song
	if err := l.table(FileSongs, &songs); err != nil {
		return nil, err
	}
	if db.Songs, err = index(FileSongs, songs, func(s *system.Song) int { return s.ID }); err != nil {
		return nil, err
	}

	var bindings []system.KeyBinding
	if err := l.table(FileKeyboard, &bindings); err != nil {
		return nil, err
	}
	if len(bindings) > 0 {
		db.KeyBindings = bindings
	}
	if _, err := l.decode(FileVariables, &db.Variables); err != nil {
		return nil, err
	}

	if err := db.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database: %w", err)
	}
	l.log.Info("Database loaded",
		"path", fsys.BasePath(),
		"reactions", len(db.CommonReactions),
		"heroes", len(db.Heroes),
		"monsters", len(db.Monsters),
		"troops", len(db.Troops),
		"skills", len(db.Skills),
		"songs", len(db.Songs))
	return db, nil
}

// decode reads the first file named base with a known extension into out.
func (l *loader) decode(base string, out any) (bool, error) {
	names := make([]string, len(Extensions))
	for i, ext := range Extensions {
		names[i] = base + ext
	}
	path, ok := l.fsys.FindFirst(names...)
	if !ok {
		l.log.Debug("Table file not found", "table", base)
		return false, nil
	}
	data, err := l.fsys.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

func (l *loader) table(base string, out any) error {
	_, err := l.decode(base, out)
	return err
}

// errDuplicateID is wrapped by index.
var errDuplicateID = errors.New("duplicate id")

// index builds a table from a list, rejecting duplicate ids.
func index[T any](table string, list []*T, id func(*T) int) (map[int]*T, error) {
	out := make(map[int]*T, len(list))
	for _, v := range list {
		if v == nil {
			continue
		}
		k := id(v)
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("%s: %w %d", table, errDuplicateID, k)
		}
		out[k] = v
	}
	return out, nil
}
