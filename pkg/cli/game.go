package cli

import (
	"fmt"

	"github.com/zurustar/paperrpg/pkg/fileutil"
	"gopkg.in/yaml.v3"
)

// GameConfigFiles はゲーム設定ファイルの候補
var GameConfigFiles = []string{"game.yaml", "game.yml"}

// DefaultSoundFontName は既定のSoundFontファイル名
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// GameConfig はプロジェクトの game.yaml の内容を保持する
type GameConfig struct {
	Title            string         `yaml:"title"`            // ウィンドウのタイトル
	Language         string         `yaml:"language"`         // 数値表示に使う言語タグ（BCP 47）
	SoundFont        string         `yaml:"soundfont"`        // MIDI再生に使うSoundFont
	StartReaction    int            `yaml:"startReaction"`    // 開始時に実行するコモンリアクション（0はなし）
	MaxStepsPerFrame int            `yaml:"maxStepsPerFrame"` // 1フレームで実行するコマンド数の上限（0は既定値）
	Team             []TeamMember   `yaml:"team"`             // 初期パーティ
	Hero             Position       `yaml:"hero"`             // ヒーローの初期位置
	Objects          []ObjectConfig `yaml:"objects"`          // マップ上のオブジェクト
	Currencies       map[int]int    `yaml:"currencies"`       // 初期所持金
}

// TeamMember は初期パーティのメンバー
type TeamMember struct {
	Hero  int `yaml:"hero"`
	Level int `yaml:"level"`
}

// Position はマップ上の位置
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// ObjectConfig はマップ上のオブジェクト
// Reaction はヒーローが正面で決定キーを押したときに実行するコモンリアクション
type ObjectConfig struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Reaction int    `yaml:"reaction"`
}

// DefaultGameConfig は game.yaml が無い場合の設定を返す
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Title:     "paperrpg",
		Language:  "en",
		SoundFont: DefaultSoundFontName,
	}
}

// LoadGameConfig はプロジェクトの game.yaml を読み込む
// ファイルが無い場合は既定の設定を返す
func LoadGameConfig(fsys *fileutil.FileSystem) (*GameConfig, error) {
	config := DefaultGameConfig()

	path, ok := fsys.FindFirst(GameConfigFiles...)
	if !ok {
		return config, nil
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	for i := range config.Team {
		if config.Team[i].Level <= 0 {
			config.Team[i].Level = 1
		}
	}
	seen := make(map[int]bool)
	for _, o := range config.Objects {
		if o.ID == 0 {
			return nil, fmt.Errorf("%s: object id 0 is reserved for the hero", path)
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("%s: duplicate object id %d", path, o.ID)
		}
		seen[o.ID] = true
	}
	return config, nil
}
