// Package app はコマンドライン引数からゲームの実行までのパイプラインを管理する
package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zurustar/paperrpg/pkg/audio"
	"github.com/zurustar/paperrpg/pkg/cli"
	"github.com/zurustar/paperrpg/pkg/clock"
	"github.com/zurustar/paperrpg/pkg/database"
	"github.com/zurustar/paperrpg/pkg/fileutil"
	"github.com/zurustar/paperrpg/pkg/game"
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/input"
	"github.com/zurustar/paperrpg/pkg/logger"
	"github.com/zurustar/paperrpg/pkg/reaction"
	"github.com/zurustar/paperrpg/pkg/scene"
	"github.com/zurustar/paperrpg/pkg/system"
	"github.com/zurustar/paperrpg/pkg/window"
)

// FrameDuration はヘッドレスモードで1フレームに進める時間（60FPS）
const FrameDuration = time.Second / 60

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	game   *cli.GameConfig
	log    *slog.Logger

	db      *database.Database
	state   *game.State
	player  *audio.Player
	clock   clock.Clock
	tracker *input.Tracker
	host    *scene.Host
	world   *scene.MapScene
}

// New Applicationを作成
func New() *Application {
	return &Application{}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := logger.InitLoggerWithFormat(app.config.LogLevel, app.config.LogFormat, os.Stdout); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()
	app.log.Info("Application started", "project", app.config.ProjectPath, "headless", app.config.Headless)

	// 3. プロジェクトの読み込み
	if err := app.load(); err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	// 4. 実行環境の構築
	if err := app.build(); err != nil {
		return fmt.Errorf("failed to build game: %w", err)
	}
	defer app.player.Close()

	// 5. 実行
	if app.config.Headless {
		err = app.runHeadless()
	} else {
		err = app.runWindow()
	}
	if err != nil {
		return err
	}

	app.log.Info("Application terminated normally",
		"frames", app.host.Frame(),
		"quit", app.host.Context().QuitRequested(),
		"gameOver", app.host.Context().IsGameOver())
	return nil
}

// load データベースとゲーム設定を読み込む
func (app *Application) load() error {
	db, err := database.LoadDir(app.config.ProjectPath, database.WithLogger(app.log))
	if err != nil {
		return err
	}
	app.db = db

	gameConfig, err := cli.LoadGameConfig(fileutil.NewDirFS(app.config.ProjectPath))
	if err != nil {
		return err
	}
	app.game = gameConfig
	app.log.Info("Game config loaded", "title", gameConfig.Title, "team", len(gameConfig.Team), "objects", len(gameConfig.Objects))
	return nil
}

// newState ゲーム設定から初期状態を作成する
func (app *Application) newState() (*game.State, error) {
	state := game.NewState()
	for _, m := range app.game.Team {
		def, err := app.db.Hero(m.Hero)
		if err != nil {
			return nil, fmt.Errorf("team: %w", err)
		}
		p := game.NewPlayer(system.Hero, def, state.NextInstanceID(), m.Level, app.db.System, app.log)
		state.Party.Add(game.GroupTeam, p)
	}

	hero := state.Objects[game.HeroObjectID]
	hero.X, hero.Y = app.game.Hero.X, app.game.Hero.Y
	for _, o := range app.game.Objects {
		state.Objects[o.ID] = &game.MapObject{ID: o.ID, Name: o.Name, X: o.X, Y: o.Y}
	}
	for id, n := range app.game.Currencies {
		state.AddCurrency(id, n)
	}
	return state, nil
}

// newPlayer 音声プレイヤーを作成する
// ヘッドレスモードと --mute では音声を出力しない
func (app *Application) newPlayer() *audio.Player {
	opts := []audio.Option{
		audio.WithLogger(app.log),
		audio.WithMuted(app.config.Headless || app.config.Mute),
	}
	if loc := findSoundFont(app.game.SoundFont, app.config.ProjectPath); loc != nil {
		sf, err := audio.LoadSoundFont(loc.FileSystem, loc.Path)
		if err != nil {
			app.log.Warn("Failed to load SoundFont, MIDI playback disabled", "path", loc.Path, "error", err)
		} else {
			app.log.Info("SoundFont loaded", "path", loc.Path)
			opts = append(opts, audio.WithSoundFont(sf))
		}
	} else {
		app.log.Debug("SoundFont not found, MIDI playback disabled", "name", app.game.SoundFont)
	}
	return audio.New(fileutil.NewDirFS(app.config.ProjectPath), opts...)
}

// build 状態、コンテキスト、シーンを組み立てる
func (app *Application) build() error {
	state, err := app.newState()
	if err != nil {
		return err
	}
	app.state = state
	app.player = app.newPlayer()

	if app.config.Headless {
		app.clock = clock.NewManual(time.Now())
	} else {
		app.clock = clock.System{}
	}
	app.tracker = input.NewTracker(input.NewBindings(app.db.KeyBindings))

	ctx := reaction.NewContext(app.db, state,
		reaction.WithLogger(app.log),
		reaction.WithClock(app.clock),
		reaction.WithAudio(app.player),
		reaction.WithKeys(app.tracker),
	)
	ctx.Formatter = hud.NewFormatter(app.game.Language)

	app.host = scene.NewHost(ctx, app.db, scene.WithLogger(app.log))

	var interpreterOpts []reaction.Option
	if app.game.MaxStepsPerFrame > 0 {
		interpreterOpts = append(interpreterOpts, reaction.WithMaxStepsPerFrame(app.game.MaxStepsPerFrame))
	}
	app.world = scene.NewMapScene(ctx, scene.WithMapLogger(app.log), scene.WithInterpreterOptions(interpreterOpts...))
	app.host.Push(app.world)

	for _, o := range app.game.Objects {
		if o.Reaction == 0 {
			continue
		}
		r, err := app.db.CommonReaction(o.Reaction)
		if err != nil {
			return fmt.Errorf("object %d: %w", o.ID, err)
		}
		app.world.SetTrigger(o.ID, r)
	}

	if app.game.StartReaction != 0 {
		r, err := app.db.CommonReaction(app.game.StartReaction)
		if err != nil {
			return fmt.Errorf("start reaction: %w", err)
		}
		if _, err := app.world.Run(r, nil); err != nil {
			return fmt.Errorf("start reaction: %w", err)
		}
	}
	return nil
}

// runHeadless GUIなしで指定フレーム数だけ実行する
// 時計はフレームごとに FrameDuration だけ進める
func (app *Application) runHeadless() error {
	clk, ok := app.clock.(*clock.Manual)
	if !ok {
		return fmt.Errorf("headless mode needs a manual clock")
	}
	start := clk.Now()
	for i := 0; i < app.config.Frames; i++ {
		if app.host.Done() {
			break
		}
		if app.config.Timeout > 0 && clk.Now().Sub(start) >= app.config.Timeout {
			app.log.Info("Timeout reached, exiting", "timeout", app.config.Timeout)
			break
		}
		window.Dispatch(app.host, app.tracker.Update(clk.Now(), nil, nil))
		app.host.Update()
		app.player.Update()
		clk.Advance(FrameDuration)
	}

	var canvas hud.List
	app.host.DrawHUD(&canvas)
	app.log.Info("Headless run finished", "frames", app.host.Frame(), "hud", canvas.Texts())
	return nil
}

// runWindow ウィンドウを開いて実行する
func (app *Application) runWindow() error {
	g := window.NewGame(app.host, app.tracker,
		window.WithTimeout(app.config.Timeout),
		window.WithClock(app.clock),
		window.WithLogger(app.log),
		window.WithRenderer(window.NewRenderer(app.host.Context().Formatter)),
		window.WithFrameFunc(app.player.Update),
	)
	return window.Run(g, app.game.Title)
}
