package script

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
}

func TestFindScriptFiles_CaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"main.elli",
		"lib.ELLI",
		"nested/helper.Elli",
		"notes.txt", // これは検出されないはず
	}
	for _, name := range testFiles {
		writeFile(t, filepath.Join(tmpDir, name), []byte("int x;"))
	}

	loader, err := NewLoader(tmpDir, "")
	if err != nil {
		t.Fatal(err)
	}
	files, err := loader.findScriptFiles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("expected 3 script files, got %d (%v)", len(files), files)
	}
	for _, f := range files {
		if filepath.Base(f) == "notes.txt" {
			t.Error("notes.txt should not be detected as a script file")
		}
	}
}

func TestLoadAllScripts_Order(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "b.elli"), []byte("b"))
	writeFile(t, filepath.Join(tmpDir, "a.elli"), []byte("a"))
	writeFile(t, filepath.Join(tmpDir, "sub", "c.elli"), []byte("c"))

	loader, err := NewLoader(tmpDir, "utf-8")
	if err != nil {
		t.Fatal(err)
	}
	scripts, err := loader.LoadAllScripts()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"a.elli", "b.elli", "sub/c.elli"}
	if len(scripts) != len(expected) {
		t.Fatalf("expected %d scripts, got %d", len(expected), len(scripts))
	}
	for i, s := range scripts {
		if s.FileName != expected[i] {
			t.Errorf("script %d: expected %q, got %q", i, expected[i], s.FileName)
		}
		if s.Size != 1 {
			t.Errorf("script %d: expected size 1, got %d", i, s.Size)
		}
	}
}

func TestLoadAllScripts_SingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "main.elli")
	writeFile(t, path, []byte("int x = 1;"))

	loader, err := NewLoader(path, "")
	if err != nil {
		t.Fatal(err)
	}
	scripts, err := loader.LoadAllScripts()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scripts) != 1 || scripts[0].FileName != "main.elli" || scripts[0].Content != "int x = 1;" {
		t.Errorf("unexpected scripts %+v", scripts)
	}
}

func TestLoadAllScripts_Errors(t *testing.T) {
	tests := []struct {
		name string
		root func(t *testing.T) string
	}{
		{"no scripts", func(t *testing.T) string { return t.TempDir() }},
		{"nonexistent directory", func(t *testing.T) string { return "/nonexistent/path" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := NewLoader(tt.root(t), "")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := loader.LoadAllScripts(); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestNewLoader_UnknownEncoding(t *testing.T) {
	if _, err := NewLoader(t.TempDir(), "klingon"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestDecode(t *testing.T) {
	shiftJIS, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), "say(to=PLAYERS, \"こんにちは\")")
	if err != nil {
		t.Fatalf("failed to encode to Shift-JIS: %v", err)
	}
	eucJP, _, err := transform.String(japanese.EUCJP.NewEncoder(), "世界")
	if err != nil {
		t.Fatalf("failed to encode to EUC-JP: %v", err)
	}

	testCases := []struct {
		name  string
		label string
		input []byte
		want  string
	}{
		{"UTF-8", "utf-8", []byte("int x = 1;"), "int x = 1;"},
		{"UTF-8のBOMは除去される", "utf-8", append([]byte{0xEF, 0xBB, 0xBF}, "int x;"...), "int x;"},
		{"Shift-JIS", "shift_jis", []byte(shiftJIS), "say(to=PLAYERS, \"こんにちは\")"},
		{"EUC-JP", "euc-jp", []byte(eucJP), "世界"},
		{"BOMが指定より優先される", "shift_jis", append([]byte{0xEF, 0xBB, 0xBF}, "日本"...), "日本"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := Lookup(tc.label)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Decode(tc.input, enc)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("Decode() = %q, want %q", got, tc.want)
			}
		})
	}
}
