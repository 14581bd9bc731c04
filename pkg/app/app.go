package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zurustar/elli/pkg/cli"
	"github.com/zurustar/elli/pkg/command"
	"github.com/zurustar/elli/pkg/compiler"
	"github.com/zurustar/elli/pkg/config"
	"github.com/zurustar/elli/pkg/datapack"
	"github.com/zurustar/elli/pkg/logger"
	"github.com/zurustar/elli/pkg/script"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	args    *cli.Config
	project *config.Config
	log     *slog.Logger
	buildID string

	workDir   string
	stdout    io.Writer
	logOutput io.Writer
	getenv    func(string) string
}

// Option Applicationの設定を変更する
type Option func(*Application)

// WithWorkDir 相対パスと設定ファイル探索の起点を指定
func WithWorkDir(dir string) Option {
	return func(app *Application) { app.workDir = dir }
}

// WithOutput ヘルプとドライランの出力先を指定
func WithOutput(w io.Writer) Option {
	return func(app *Application) { app.stdout = w }
}

// WithLogOutput ログの出力先を指定
func WithLogOutput(w io.Writer) Option {
	return func(app *Application) { app.logOutput = w }
}

// WithEnv 環境変数の取得方法を指定
func WithEnv(getenv func(string) string) Option {
	return func(app *Application) { app.getenv = getenv }
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{
		workDir:   ".",
		stdout:    os.Stdout,
		logOutput: os.Stderr,
		getenv:    os.Getenv,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.args.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. 設定ファイルの読み込み（環境変数・引数で上書き）
	if err := app.loadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	started := time.Now()
	app.buildID = uuid.NewString()
	app.log.Info("Build started", "build_id", app.buildID, "namespace", app.project.Namespace, "config", app.project.Dir)

	// 4. 入力の読み込みとコンパイル
	pregen, err := app.build()
	if err != nil {
		return err
	}

	// 5. 出力
	if err := app.emit(pregen); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	app.log.Info("Build finished", "build_id", app.buildID, "elapsed", time.Since(started))
	return nil
}

// PregenExtension --emit pregen で書き出したファイルの拡張子
// この拡張子の入力はコンパイルせずにそのままデータパックに変換する
const PregenExtension = ".json"

// build 入力を読み込んで関数を生成する
func (app *Application) build() (*command.Pregen, error) {
	source := app.project.Resolve(app.project.Source)
	if strings.EqualFold(filepath.Ext(source), PregenExtension) {
		pregen, err := datapack.ReadPregen(source)
		if err != nil {
			return nil, fmt.Errorf("failed to load pregen: %w", err)
		}
		app.log.Info("Pregen loaded", "path", source, "functions", len(pregen.Functions))
		return pregen, nil
	}

	scripts, err := app.loadScripts()
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}

	app.log.Info("Scripts loaded", "count", len(scripts))
	for _, s := range scripts {
		app.log.Debug("Script file", "name", s.FileName, "size", s.Size)
	}

	pregen, err := app.compileScripts(scripts)
	if err != nil {
		return nil, fmt.Errorf("failed to compile scripts: %w", err)
	}

	app.log.Info("Scripts compiled successfully", "functions", len(pregen.Functions), "optimise", app.project.Optimise)
	app.log.Debug("Functions generated", "ids", formatIDsPreview(pregen.IDs(), 10))
	return pregen, nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	parsed, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.args = parsed
	return nil
}

// loadConfig 設定ファイルを探して読み込み、環境変数と引数を反映する
// 優先順位: 引数 > 環境変数 > 設定ファイル > デフォルト
func (app *Application) loadConfig() error {
	path := app.args.ConfigPath
	if path != "" {
		path = app.abs(path)
	} else {
		found, err := config.Find(app.workDir)
		if err != nil {
			return err
		}
		path = found
	}

	project := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		project = loaded
	}
	project.ApplyEnv(app.getenv)

	// 引数で指定されたパスは作業ディレクトリからの相対パス
	a := app.args
	if a.SourcePath != "" {
		project.Source = app.abs(a.SourcePath)
	}
	if a.Output != "" {
		project.Output = app.abs(a.Output)
	}
	if a.Namespace != "" {
		project.Namespace = a.Namespace
	}
	if a.Encoding != "" {
		project.Encoding = a.Encoding
	}
	if a.LogLevel != "" {
		project.LogLevel = a.LogLevel
	}
	if a.LogFormat != "" {
		project.LogFormat = a.LogFormat
	}
	if a.Optimise {
		project.Optimise = true
	}
	if project.Dir == "" {
		project.Dir = app.workDir
	}

	if err := project.Validate(); err != nil {
		return err
	}
	app.project = project
	return nil
}

func (app *Application) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(app.workDir, path)
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.project.LogLevel, app.project.LogFormat, app.logOutput); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// loadScripts スクリプトファイルを読み込む
func (app *Application) loadScripts() ([]script.Script, error) {
	loader, err := script.NewLoader(app.project.Resolve(app.project.Source), app.project.Encoding)
	if err != nil {
		return nil, err
	}
	return loader.LoadAllScripts()
}

// compileScripts スクリプトをコンパイルして関数を生成
// コンパイルエラーの場合はソースの該当箇所を含むメッセージを返す
func (app *Application) compileScripts(scripts []script.Script) (*command.Pregen, error) {
	pregen, err := compiler.CompileScripts(scripts, app.project.Namespace, compiler.Options{
		Optimise: app.project.Optimise,
	})
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			app.log.Error("Compilation failed", "file", ce.File, "line", ce.Line, "phase", ce.Phase)
		}
		return nil, err
	}
	return pregen, nil
}

// emit 生成結果を出力する
func (app *Application) emit(pregen *command.Pregen) error {
	switch {
	case app.args.DryRun && app.args.Emit == cli.EmitPregen:
		data, err := json.MarshalIndent(pregen, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(app.stdout, string(data))
		return err

	case app.args.DryRun:
		return printFunctions(app.stdout, pregen)

	case app.args.Emit == cli.EmitPregen:
		path := app.pregenPath()
		if err := datapack.WritePregen(path, pregen); err != nil {
			return err
		}
		app.log.Info("Pregen written", "path", path)
		return nil
	}

	root := app.project.OutputDir()
	writer := datapack.NewWriter(root, app.project.Namespace, datapack.Meta{
		Format:      app.project.Pack.Format,
		Description: app.project.Pack.Description,
		BuildID:     app.buildID,
	})
	res, err := writer.Write(pregen)
	if err != nil {
		return err
	}
	app.log.Info("Datapack written", "path", root, "functions", res.Functions, "files", len(res.Files))
	for _, f := range res.Files {
		app.log.Debug("File written", "path", f)
	}
	return nil
}

// pregenPath --emit pregen の出力先。出力先の指定がなければ build/<namespace>.json
func (app *Application) pregenPath() string {
	if app.project.Output != "" {
		return app.project.Resolve(app.project.Output)
	}
	return app.project.Resolve(filepath.Join("build", app.project.Namespace+".json"))
}

// printFunctions 関数ごとに見出しを付けて表示する
func printFunctions(w io.Writer, pregen *command.Pregen) error {
	for i, f := range pregen.Functions {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "=== %s ===\n", f.ID); err != nil {
			return err
		}
		for _, line := range command.SerializeLines(f.Lines) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatIDsPreview 関数IDのプレビューを生成（デバッグ用）
func formatIDsPreview(ids []string, maxCount int) string {
	if len(ids) <= maxCount {
		return "[" + strings.Join(ids, ", ") + "]"
	}
	return fmt.Sprintf("[%s, ... (%d more)]", strings.Join(ids[:maxCount], ", "), len(ids)-maxCount)
}

// PrintError エラーを表示する。端末の場合は "Error:" を赤で表示
func PrintError(f *os.File, err error) {
	fmt.Fprint(f, FormatError(err, logger.IsTerminal(f)))
}

// FormatError エラーメッセージを整形する
func FormatError(err error, color bool) string {
	label := "Error:"
	if color {
		label = "\x1b[31mError:\x1b[0m"
	}
	return fmt.Sprintf("%s %v\n", label, err)
}
