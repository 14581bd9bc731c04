package script

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Extension はelliソースファイルの拡張子
const Extension = ".elli"

// Script はソースファイルを表す
type Script struct {
	FileName string // ソースディレクトリからの相対パス
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ
}

// Loader はソースファイルの読み込みを行う
type Loader struct {
	root     string
	encoding encoding.Encoding
}

// NewLoader Loaderを作成
// label はWHATWGのエンコーディング名（utf-8, shift_jis, euc-jp など）。空ならUTF-8
func NewLoader(root, label string) (*Loader, error) {
	enc, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	return &Loader{root: root, encoding: enc}, nil
}

// Lookup エンコーディング名を解決する
func Lookup(label string) (encoding.Encoding, error) {
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}

// LoadAllScripts すべての.elliファイルをパス順に読み込む
// root がファイルの場合はそのファイルだけを読み込む
func (l *Loader) LoadAllScripts() ([]Script, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", l.root, err)
	}
	if !info.IsDir() {
		s, err := l.loadScript(filepath.Dir(l.root), l.root)
		if err != nil {
			return nil, err
		}
		return []Script{*s}, nil
	}

	files, err := l.findScriptFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", Extension, l.root)
	}

	scripts := make([]Script, 0, len(files))
	for _, path := range files {
		s, err := l.loadScript(l.root, path)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *s)
	}
	return scripts, nil
}

// findScriptFiles .elliファイルを検出（case-insensitive）
// WalkDirは辞書順に走査するので結果は決定的になる
func (l *Loader) findScriptFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), Extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// loadScript 単一のソースファイルを読み込む
func (l *Loader) loadScript(base, path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content, err := Decode(data, l.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	name, err := filepath.Rel(base, path)
	if err != nil {
		name = filepath.Base(path)
	}

	return &Script{
		FileName: filepath.ToSlash(name),
		Content:  content,
		Size:     int64(len(data)),
	}, nil
}

// Decode data をUTF-8に変換する
// BOMがあればそちらを優先する
func Decode(data []byte, enc encoding.Encoding) (string, error) {
	decoder := unicode.BOMOverride(enc.NewDecoder())
	reader := transform.NewReader(strings.NewReader(string(data)), decoder)

	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
