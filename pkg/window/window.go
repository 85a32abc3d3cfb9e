// Package window は Ebitengine 上でシーンホストを動かす
package window

import (
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/zurustar/paperrpg/pkg/clock"
	"github.com/zurustar/paperrpg/pkg/hud"
	"github.com/zurustar/paperrpg/pkg/input"
	"github.com/zurustar/paperrpg/pkg/logger"
	"github.com/zurustar/paperrpg/pkg/scene"
)

// 背景色（黒）
var backgroundColor = color.RGBA{0x00, 0x00, 0x00, 0xFF}

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	host      *scene.Host
	tracker   *input.Tracker
	renderer  *Renderer
	clock     clock.Clock
	timeout   time.Duration // タイムアウト時間（0 は無制限）
	startTime time.Time     // 開始時刻
	canvas    hud.List      // フレームごとに再利用する描画リスト
	log       *slog.Logger
	frame     []func()      // ホストの更新後に毎フレーム呼び出す処理

	pressed  []ebiten.Key
	released []ebiten.Key
}

// Option は Game の設定を変更する
type Option func(*Game)

// WithTimeout はタイムアウト時間を設定する
func WithTimeout(d time.Duration) Option {
	return func(g *Game) {
		g.timeout = d
	}
}

// WithClock は時刻の取得元を設定する
func WithClock(c clock.Clock) Option {
	return func(g *Game) {
		g.clock = c
	}
}

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(g *Game) {
		g.log = log
	}
}

// WithRenderer は HUD の描画方法を設定する
func WithRenderer(r *Renderer) Option {
	return func(g *Game) {
		g.renderer = r
	}
}

// WithFrameFunc はホストの更新後に毎フレーム呼び出す処理を追加する
// 再生が終わった効果音の解放などに使う
func WithFrameFunc(f func()) Option {
	return func(g *Game) {
		g.frame = append(g.frame, f)
	}
}

// NewGame はGameを作成する
// tracker はホストのコンテキストに押下状態として渡したものと同じでなければならない
func NewGame(host *scene.Host, tracker *input.Tracker, opts ...Option) *Game {
	g := &Game{
		host:    host,
		tracker: tracker,
		clock:   clock.System{},
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.renderer == nil {
		g.renderer = NewRenderer(host.Context().Formatter)
	}
	g.startTime = g.clock.Now()
	return g
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
// 入力、更新の順に処理する
func (g *Game) Update() error {
	if g.timedOut() {
		g.log.Info("Timeout reached", "timeout", g.timeout)
		return ebiten.Termination
	}
	if g.host.Done() {
		return ebiten.Termination
	}

	g.pressed = inpututil.AppendJustPressedKeys(g.pressed[:0])
	g.released = inpututil.AppendJustReleasedKeys(g.released[:0])
	events := g.tracker.Update(g.clock.Now(), keyNames(g.pressed), keyNames(g.released))
	Dispatch(g.host, events)

	g.host.Update()
	for _, f := range g.frame {
		f()
	}
	return nil
}

func (g *Game) timedOut() bool {
	return g.timeout > 0 && g.clock.Now().Sub(g.startTime) >= g.timeout
}

// Dispatch は論理キーのイベントをホストに配送する
func Dispatch(host *scene.Host, events []input.Event) {
	for _, e := range events {
		switch e.Kind {
		case input.Pressed:
			host.OnKeyPressed(e.Key)
		case input.Released:
			host.OnKeyReleased(e.Key)
		case input.PressedRepeat:
			host.OnKeyPressedRepeat(e.Key)
		case input.PressedAndRepeat:
			host.OnKeyPressedAndRepeat(e.Key)
		}
	}
}

// keyNames は物理キーをキー割り当てで使う名前（"ArrowUp", "Z" など）に変換する
func keyNames(keys []ebiten.Key) []string {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return names
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	g.canvas.Reset()
	g.host.DrawHUD(&g.canvas)
	g.renderer.Render(screen, g.canvas.Items)
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return hud.ScreenWidth, hud.ScreenHeight
}

// Run GUIモードでウィンドウを実行する
func Run(g *Game, title string) error {
	ebiten.SetWindowSize(hud.ScreenWidth, hud.ScreenHeight)
	ebiten.SetWindowTitle(title)
	// アスペクト比を維持したままリサイズを許可する
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
