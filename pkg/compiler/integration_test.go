package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zurustar/elli/pkg/datapack"
	"github.com/zurustar/elli/pkg/script"
)

// TestIntegration_SourceTreeToDatapack runs a project directory through
// the loader, the compiler and the datapack writer.
func TestIntegration_SourceTreeToDatapack(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"lib.elli":       "int counter = 0;\nfn bump() { counter = counter + 1 }",
		"main.elli":      "@tick fn tick() { bump() }\n@expose fn show() { say(to=PLAYERS, \"count: \", counter) }",
		"notes.txt":      "not a script",
		"sub/extra.ELLI": "@cleanup fn done() { say(to=PLAYERS, \"bye\") }",
	}
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	loader, err := script.NewLoader(src, "utf-8")
	if err != nil {
		t.Fatal(err)
	}
	scripts, err := loader.LoadAllScripts()
	if err != nil {
		t.Fatal(err)
	}
	if len(scripts) != 3 {
		t.Fatalf("expected 3 scripts, got %d", len(scripts))
	}

	pregen, err := CompileScripts(scripts, "demo", seeded(3))
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	out := t.TempDir()
	res, err := datapack.NewWriter(out, "demo", datapack.Meta{Description: "integration"}).Write(pregen)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if res.Functions != len(pregen.Functions) {
		t.Errorf("expected %d functions written, got %d", len(pregen.Functions), res.Functions)
	}

	show, err := os.ReadFile(filepath.Join(out, "data", "demo", "functions", "show.mcfunction"))
	if err != nil {
		t.Fatalf("exposed function missing: %v", err)
	}
	if !strings.Contains(string(show), "tellraw @a") {
		t.Errorf("show must print, got:\n%s", show)
	}

	tick, err := os.ReadFile(filepath.Join(out, "data", "demo", "functions", "__tick.mcfunction"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(tick), "function demo:tick_") {
		t.Errorf("__tick must run the tick hook, got:\n%s", tick)
	}

	for _, name := range []string{"load.json", "tick.json"} {
		if _, err := os.Stat(filepath.Join(out, "data", "minecraft", "tags", "functions", name)); err != nil {
			t.Errorf("missing tag %s: %v", name, err)
		}
	}
}
