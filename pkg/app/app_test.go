package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zurustar/elli/pkg/compiler"
	"github.com/zurustar/elli/pkg/datapack"
)

// project テスト用のプロジェクトディレクトリを作成
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func noEnv(string) string { return "" }

func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, logs bytes.Buffer
	app := New(WithWorkDir(dir), WithOutput(&stdout), WithLogOutput(&logs), WithEnv(noEnv))
	err := app.Run(args)
	return stdout.String(), logs.String(), err
}

const sample = `int counter = 0;
@tick fn tick() { counter = counter + 1 }
@expose fn show() { say(to=PLAYERS, "count: ", counter) }
`

func TestRun_WritesDatapack(t *testing.T) {
	dir := project(t, map[string]string{
		"elli.yaml":     "namespace: demo\nsource: src\nlog_format: json\npack:\n  description: sample\n",
		"src/main.elli": sample,
	})

	_, logs, err := run(t, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := filepath.Join(dir, "build", "demo")
	for _, rel := range []string{
		"pack.mcmeta",
		"data/demo/functions/__root.mcfunction",
		"data/demo/functions/show.mcfunction",
		"data/minecraft/tags/functions/load.json",
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}

	meta, err := os.ReadFile(filepath.Join(out, "pack.mcmeta"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(meta), `"sample"`) || !strings.Contains(string(meta), "elli_build") {
		t.Errorf("unexpected pack.mcmeta %s", meta)
	}
	if !strings.Contains(logs, `"build_id"`) || !strings.Contains(logs, "Datapack written") {
		t.Errorf("expected json build logs, got %s", logs)
	}
}

func TestRun_ArgumentsOverrideConfig(t *testing.T) {
	dir := project(t, map[string]string{
		"elli.yaml":       "namespace: fromfile\nsource: src\n",
		"src/main.elli":   "int x = 1;",
		"other/main.elli": sample,
	})

	if _, _, err := run(t, dir, "-n", "fromargs", "-o", "out", "other"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "data", "fromargs", "functions", "show.mcfunction")); err != nil {
		t.Errorf("arguments must override the config file: %v", err)
	}
}

func TestRun_DryRun(t *testing.T) {
	dir := project(t, map[string]string{"main.elli": sample})

	stdout, _, err := run(t, dir, "--dry-run", "-n", "demo", "main.elli")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "=== demo:__root ===") || !strings.Contains(stdout, "tellraw @a") {
		t.Errorf("unexpected dry-run output:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "build")); !os.IsNotExist(err) {
		t.Error("dry-run must not write files")
	}
}

func TestRun_EmitPregen(t *testing.T) {
	dir := project(t, map[string]string{"main.elli": sample})

	if _, _, err := run(t, dir, "--emit", "pregen", "-n", "demo", "-o", "demo.json", "main.elli"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pregen, err := datapack.ReadPregen(filepath.Join(dir, "demo.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := pregen.Lookup("demo:show"); !ok {
		t.Errorf("missing demo:show in %v", pregen.IDs())
	}
}

func TestRun_PregenInput(t *testing.T) {
	dir := project(t, map[string]string{"main.elli": sample})

	if _, _, err := run(t, dir, "--emit", "pregen", "-n", "demo", "-o", "demo.json", "main.elli"); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	_, logs, err := run(t, dir, "-n", "demo", "-o", "pack", "--log-format", "text", "demo.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(logs, "Pregen loaded") {
		t.Errorf("expected the pregen to be loaded, got %s", logs)
	}

	show, err := os.ReadFile(filepath.Join(dir, "pack", "data", "demo", "functions", "show.mcfunction"))
	if err != nil {
		t.Fatalf("missing show.mcfunction: %v", err)
	}
	if !strings.Contains(string(show), "tellraw @a") {
		t.Errorf("unexpected show.mcfunction:\n%s", show)
	}

	if _, _, err := run(t, dir, "-n", "other", "-o", "pack2", "demo.json"); err == nil {
		t.Error("a pregen from another namespace must be rejected")
	}
}

func TestRun_Help(t *testing.T) {
	stdout, _, err := run(t, t.TempDir(), "--help")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Errorf("expected help, got %q", stdout)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		args  []string
		want  string
	}{
		{"missing namespace", map[string]string{"main.elli": sample}, nil, "namespace is required"},
		{"invalid config", map[string]string{"elli.yaml": "namespace: demo\nbogus: 1\n"}, nil, "failed to load config"},
		{"bad flag", nil, []string{"--bogus"}, "failed to parse args"},
		{"no scripts", map[string]string{"readme.txt": "hi"}, []string{"-n", "demo"}, "failed to load scripts"},
		{"compile error", map[string]string{"main.elli": "int x;\nfoo();"}, []string{"-n", "demo"}, "main.elli: processor error at line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := project(t, tt.files)
			_, _, err := run(t, dir, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRun_CompileErrorUnwraps(t *testing.T) {
	dir := project(t, map[string]string{"main.elli": "int x = ;"})
	_, _, err := run(t, dir, "-n", "demo")

	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *compiler.CompileError, got %v", err)
	}
	if ce.Phase != "parser" || ce.File != "main.elli" {
		t.Errorf("unexpected error %+v", ce)
	}
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name  string
		color bool
		want  string
	}{
		{"plain", false, "Error: boom\n"},
		{"color", true, "\x1b[31mError:\x1b[0m boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatError(errors.New("boom"), tt.color); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatIDsPreview(t *testing.T) {
	ids := []string{"a", "b", "c"}
	if got := formatIDsPreview(ids, 5); got != "[a, b, c]" {
		t.Errorf("unexpected preview %q", got)
	}
	if got := formatIDsPreview(ids, 2); got != "[a, b, ... (1 more)]" {
		t.Errorf("unexpected preview %q", got)
	}
}
