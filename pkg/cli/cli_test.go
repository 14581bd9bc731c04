package cli

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseArgs_ValidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name:     "デフォルト設定",
			args:     []string{},
			expected: Config{Emit: EmitMcfunction},
		},
		{
			name:     "ソースパス指定",
			args:     []string{"src"},
			expected: Config{SourcePath: "src", Emit: EmitMcfunction},
		},
		{
			name:     "名前空間と出力先",
			args:     []string{"--namespace", "demo", "--output", "out"},
			expected: Config{Namespace: "demo", Output: "out", Emit: EmitMcfunction},
		},
		{
			name:     "短縮形",
			args:     []string{"-n", "demo", "-o", "out", "-c", "my.yaml", "-l", "debug", "-O"},
			expected: Config{Namespace: "demo", Output: "out", ConfigPath: "my.yaml", LogLevel: "debug", Optimise: true, Emit: EmitMcfunction},
		},
		{
			name:     "位置引数がフラグより前",
			args:     []string{"main.elli", "-n", "demo", "--dry-run"},
			expected: Config{SourcePath: "main.elli", Namespace: "demo", DryRun: true, Emit: EmitMcfunction},
		},
		{
			name:     "ブールフラグの後の位置引数",
			args:     []string{"-O", "src", "--encoding", "shift_jis"},
			expected: Config{SourcePath: "src", Optimise: true, Encoding: "shift_jis", Emit: EmitMcfunction},
		},
		{
			name:     "イコール形式",
			args:     []string{"--emit=pregen", "src", "--log-format=json"},
			expected: Config{SourcePath: "src", Emit: EmitPregen, LogFormat: "json"},
		},
		{
			name:     "ダッシュで始まる位置引数",
			args:     []string{"-n", "demo", "--", "-odd.elli"},
			expected: Config{SourcePath: "-odd.elli", Namespace: "demo", Emit: EmitMcfunction},
		},
		{
			name:     "ヘルプ",
			args:     []string{"-h"},
			expected: Config{ShowHelp: true, Emit: EmitMcfunction},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *config != tt.expected {
				t.Errorf("got %+v, want %+v", *config, tt.expected)
			}
		})
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "無効なログレベル",
			args: []string{"--log-level", "invalid"},
		},
		{
			name: "無効なログレベル（短縮形）",
			args: []string{"-l", "trace"},
		},
		{
			name: "無効な出力形式",
			args: []string{"--emit", "zip"},
		},
		{
			name: "未知のフラグ",
			args: []string{"--headless"},
		},
		{
			name: "位置引数が多すぎる",
			args: []string{"a.elli", "b.elli"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"フラグのみ", []string{"-n", "demo"}, []string{"-n", "demo"}},
		{"位置引数を後ろへ", []string{"src", "-n", "demo"}, []string{"-n", "demo", "--", "src"}},
		{"ブールフラグは値を取らない", []string{"--dry-run", "src"}, []string{"--dry-run", "--", "src"}},
		{"イコール形式は値を取らない", []string{"--emit=pregen", "src"}, []string{"--emit=pregen", "--", "src"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPrintHelp(t *testing.T) {
	var buf strings.Builder
	PrintHelp(&buf)
	for _, want := range []string{"Usage:", "--namespace", "--dry-run", "LOG_LEVEL"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("help should mention %q", want)
		}
	}
}
