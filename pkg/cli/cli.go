package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile は既定で読み込む環境変数ファイル
const DefaultEnvFile = ".env"

// DefaultHeadlessFrames はヘッドレスモードで実行するフレーム数の既定値（60FPSで10秒）
const DefaultHeadlessFrames = 600

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ProjectPath string        // ゲームプロジェクトのディレクトリ
	Timeout     time.Duration // タイムアウト時間（0は無制限）
	LogLevel    string        // ログレベル（debug, info, warn, error）
	LogFormat   string        // ログ形式（text, json）
	Headless    bool          // ヘッドレスモード
	Frames      int           // ヘッドレスモードで実行するフレーム数
	Mute        bool          // 音声を出力しない
	EnvFile     string        // 環境変数ファイル
	ShowHelp    bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "-help": true, "--help": true,
	"-headless": true, "--headless": true,
	"-mute": true, "--mute": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// コマンドラインフラグ、環境変数、.env ファイルの順に優先する
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("paperrpg", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFormat, "log-format", "", "ログ形式（text, json）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.IntVar(&config.Frames, "frames", 0, "ヘッドレスモードで実行するフレーム数")
	fs.BoolVar(&config.Mute, "mute", false, "音声を出力しない")
	fs.StringVar(&config.EnvFile, "env", DefaultEnvFile, "環境変数ファイル")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// .env ファイルを読み込む（既に設定済みの環境変数は上書きしない）
	if err := godotenv.Load(config.EnvFile); err != nil {
		// 既定のファイルが無いのは問題ない
		if !(errors.Is(err, os.ErrNotExist) && config.EnvFile == DefaultEnvFile) {
			return nil, fmt.Errorf("failed to load %s: %w", config.EnvFile, err)
		}
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.Frames == 0 {
		if framesEnv := os.Getenv("FRAMES"); framesEnv != "" {
			if n, err := strconv.Atoi(framesEnv); err == nil && n > 0 {
				config.Frames = n
			}
		}
	}
	if config.LogLevel == "" {
		config.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	}
	if config.LogFormat == "" {
		config.LogFormat = strings.ToLower(os.Getenv("LOG_FORMAT"))
	}

	// 既定値
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.Headless && config.Frames == 0 {
		config.Frames = DefaultHeadlessFrames
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.Frames < 0 {
		return nil, fmt.Errorf("frames must be non-negative, got %d", config.Frames)
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}
	if config.LogFormat != "text" && config.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format: %s (must be text or json)", config.LogFormat)
	}

	// 位置引数（プロジェクトのパス）
	config.ProjectPath = "."
	if fs.NArg() > 0 {
		config.ProjectPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// 次の引数が値である可能性をチェック（-t 5 のような場合）
			// ブール型フラグと -x=v 形式は次の引数を取らない
			if !boolFlags[arg] && !strings.Contains(arg, "=") && i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `paperrpg - RPG runtime

Usage:
  paperrpg [options] [project-path]

Arguments:
  project-path    ゲームプロジェクトのディレクトリ（省略時はカレントディレクトリ）
                  system.yaml などのデータファイルと game.yaml を含む

Options:
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --log-format <format>       ログ形式: text, json（デフォルト: text）
  --headless                  ヘッドレスモード（GUIなし、音声なし）
  --frames <n>                ヘッドレスモードで実行するフレーム数（デフォルト: %d）
  --mute                      音声を出力しない
  --env <file>                環境変数ファイル（デフォルト: .env）
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  FRAMES=<n>                  ヘッドレスモードのフレーム数
  LOG_LEVEL=<level>           ログレベル
  LOG_FORMAT=<format>         ログ形式

Examples:
  paperrpg /path/to/project            プロジェクトを実行
  paperrpg --headless --frames 120     120フレームだけヘッドレスで実行
  paperrpg --log-level debug           デバッグログを有効化
  HEADLESS=1 paperrpg /path/to/project 環境変数でヘッドレスモード
`, DefaultHeadlessFrames)
}
