// Package datapack persists compiled functions as a loadable datapack:
//
//	<root>/pack.mcmeta
//	<root>/data/<ns>/functions/<name>.mcfunction
//	<root>/data/minecraft/tags/functions/load.json
//	<root>/data/minecraft/tags/functions/tick.json
//
// The load and tick tags point at the namespace's `__setup` and `__tick`
// functions.
package datapack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zurustar/elli/pkg/command"
)

// DefaultFormat is the pack_format written when none is configured.
const DefaultFormat = 15

// Meta is the content of pack.mcmeta.
type Meta struct {
	Format      int
	Description string

	// BuildID identifies the compilation that produced the pack.
	BuildID string
}

// Writer writes one namespace into a datapack directory.
type Writer struct {
	root      string
	namespace string
	meta      Meta
}

// NewWriter creates a Writer for namespace rooted at root.
func NewWriter(root, namespace string, meta Meta) *Writer {
	if meta.Format == 0 {
		meta.Format = DefaultFormat
	}
	return &Writer{root: root, namespace: namespace, meta: meta}
}

// Result lists what Write produced.
type Result struct {
	Functions int
	Files     []string
}

// Write replaces the namespace's functions with pregen and refreshes the
// pack metadata and function tags. Every function ID must belong to the
// writer's namespace.
func (w *Writer) Write(pregen *command.Pregen) (*Result, error) {
	for _, f := range pregen.Functions {
		ns, _, err := command.SplitID(f.ID)
		if err != nil {
			return nil, err
		}
		if ns != w.namespace {
			return nil, fmt.Errorf("function %s is not in namespace %s", f.ID, w.namespace)
		}
	}

	functions := filepath.Join(w.root, "data", w.namespace, "functions")
	if err := os.RemoveAll(functions); err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", functions, err)
	}

	res := &Result{}
	for _, f := range pregen.Functions {
		rel, err := command.Path(f.ID)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(w.root, "data", filepath.FromSlash(rel))
		content := strings.Join(command.SerializeLines(f.Lines), "\n") + "\n"
		if err := writeFile(path, []byte(content)); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
		res.Functions++
	}

	meta, err := w.packMeta()
	if err != nil {
		return nil, err
	}
	mcmeta := filepath.Join(w.root, "pack.mcmeta")
	if err := writeFile(mcmeta, meta); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, mcmeta)

	for _, t := range tags {
		tag, id := t[0], w.namespace+":"+t[1]
		if _, ok := pregen.Lookup(id); !ok {
			continue
		}
		path := filepath.Join(w.root, "data", "minecraft", "tags", "functions", tag+".json")
		data, err := mergeTag(path, id)
		if err != nil {
			return nil, err
		}
		if err := writeFile(path, data); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
	}
	return res, nil
}

// tags maps the function tags to the lifecycle function they run.
var tags = [][2]string{
	{"load", "__setup"},
	{"tick", "__tick"},
}

type packFile struct {
	Pack struct {
		Format      int    `json:"pack_format"`
		Description string `json:"description"`
	} `json:"pack"`
	Build string `json:"elli_build,omitempty"`
}

func (w *Writer) packMeta() ([]byte, error) {
	var p packFile
	p.Pack.Format = w.meta.Format
	p.Pack.Description = w.meta.Description
	p.Build = w.meta.BuildID
	return json.MarshalIndent(p, "", "  ")
}

type tagFile struct {
	Replace bool     `json:"replace,omitempty"`
	Values  []string `json:"values"`
}

// mergeTag adds id to the tag file at path, keeping entries other packs
// or namespaces put there.
func mergeTag(path, id string) ([]byte, error) {
	var tag tagFile
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &tag); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, v := range tag.Values {
		if v == id {
			return json.MarshalIndent(tag, "", "  ")
		}
	}
	tag.Values = append(tag.Values, id)
	return json.MarshalIndent(tag, "", "  ")
}

// WritePregen writes the JSON pregen document for pregen to path.
func WritePregen(path string, pregen *command.Pregen) error {
	data, err := json.MarshalIndent(pregen, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pregen: %w", err)
	}
	return writeFile(path, data)
}

// ReadPregen loads a JSON pregen document.
func ReadPregen(path string) (*command.Pregen, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var p command.Pregen
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &p, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
