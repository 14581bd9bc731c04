package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// 出力形式
const (
	EmitMcfunction = "mcfunction"
	EmitPregen     = "pregen"
)

// Config はコマンドライン引数から解析された設定を保持する
// 空文字列・false は「指定なし」を表し、設定ファイルの値がそのまま使われる
type Config struct {
	ConfigPath string // 設定ファイルのパス（省略時は自動検出）
	SourcePath string // ソースファイルまたはディレクトリ
	Namespace  string // データパックの名前空間
	Output     string // 出力先ディレクトリ（--emit pregen の場合はJSONファイル）
	Encoding   string // ソースの文字コード
	LogLevel   string // ログレベル（debug, info, warn, error）
	LogFormat  string // ログ形式（text, json, auto）
	Emit       string // mcfunction または pregen
	Optimise   bool   // 最適化を有効化
	DryRun     bool   // 書き込まずに標準出力へ表示
	ShowHelp   bool   // ヘルプ表示フラグ
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("elli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイル")
	fs.StringVar(&config.ConfigPath, "c", "", "設定ファイル（短縮形）")
	fs.StringVar(&config.Namespace, "namespace", "", "名前空間")
	fs.StringVar(&config.Namespace, "n", "", "名前空間（短縮形）")
	fs.StringVar(&config.Output, "output", "", "出力先")
	fs.StringVar(&config.Output, "o", "", "出力先（短縮形）")
	fs.StringVar(&config.Encoding, "encoding", "", "ソースの文字コード")
	fs.StringVar(&config.LogLevel, "log-level", "", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFormat, "log-format", "", "ログ形式（text, json, auto）")
	fs.StringVar(&config.Emit, "emit", EmitMcfunction, "出力形式（mcfunction, pregen）")
	fs.BoolVar(&config.Optimise, "optimise", false, "最適化を有効化")
	fs.BoolVar(&config.Optimise, "O", false, "最適化を有効化（短縮形）")
	fs.BoolVar(&config.DryRun, "dry-run", false, "書き込まずに表示")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// ログレベルの検証（指定された場合のみ）
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if config.LogLevel != "" && !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if config.Emit != EmitMcfunction && config.Emit != EmitPregen {
		return nil, fmt.Errorf("invalid emit format: %s (must be %s or %s)", config.Emit, EmitMcfunction, EmitPregen)
	}

	// 位置引数（ソースのパス）
	switch fs.NArg() {
	case 0:
	case 1:
		config.SourcePath = fs.Arg(0)
	default:
		return nil, fmt.Errorf("too many arguments: %v", fs.Args())
	}

	return config, nil
}

// boolFlags 値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--help": true, "-help": true,
	"-O": true, "--optimise": true, "-optimise": true,
	"--dry-run": true, "-dry-run": true,
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -o out のように次の引数が値である場合は一緒に移動する
			// --emit=pregen の形式や値を取らないフラグは除く
			if boolFlags[arg] || strings.ContainsRune(arg, '=') {
				continue
			}
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, helpText)
}

const helpText = `elli - Minecraft datapack compiler

Usage:
  elli [options] [path]

Arguments:
  path          .elli ファイル、またはそれを含むディレクトリ（省略時は設定ファイルの source）
                ディレクトリを指定した場合、配下の .elli ファイルをパス順にすべてコンパイル
                .json ファイル（--emit pregen の出力）を指定した場合はコンパイルせずにデータパックへ変換

Options:
  -c, --config <file>         設定ファイル（デフォルト: elli.yaml を上位ディレクトリまで探索）
  -n, --namespace <ns>        名前空間（[a-z0-9_.-]）
  -o, --output <dir>          出力先（デフォルト: build/<namespace>）
  -O, --optimise              関数呼び出しの最適化を有効化
  --encoding <label>          ソースの文字コード: utf-8, shift_jis, euc-jp など（デフォルト: utf-8）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --log-format <format>       ログ形式: text, json, auto（デフォルト: auto）
  --emit <format>             出力形式: mcfunction, pregen（デフォルト: mcfunction）
  --dry-run                   ファイルを書き込まずに生成結果を標準出力に表示
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  ELLI_NAMESPACE=<ns>         名前空間

Examples:
  elli                                設定ファイルに従ってコンパイル
  elli -n demo src/                   src/ 配下を名前空間 demo でコンパイル
  elli -n demo --dry-run main.elli    生成される関数を表示
  elli -n demo --emit pregen -o demo.json src/
  elli -n demo -o pack demo.json      pregen からデータパックを作成
  LOG_LEVEL=debug elli                デバッグログを有効化
`
