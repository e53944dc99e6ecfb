package gopher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/marmos91/gopherd/pkg/store"
	"gopkg.in/yaml.v3"
)

// IndexFile is the sidecar file that customizes a directory's menu.
const IndexFile = ".gopher"

// maxIndexSize bounds how much of a sidecar file is read.
const maxIndexSize = 1 << 20

// Index is the parsed content of a sidecar file:
//
//	description: |
//	  Text shown above the entries, wrapped to 70 columns.
//	entries:
//	  - ["Readme", "readme.txt"]
//	  - {label: "Pictures", selector: "pics"}
type Index struct {
	Description string       `yaml:"description"`
	Entries     []IndexEntry `yaml:"entries"`
}

// IndexEntry is one link of an Index. Selector is relative to the
// directory's own selector.
type IndexEntry struct {
	Label    string
	Selector string
}

// UnmarshalYAML accepts both the two-element sequence form and the
// label/selector mapping form.
func (e *IndexEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: index entry needs [label, selector], got %d items", node.Line, len(node.Content))
		}
		if err := node.Content[0].Decode(&e.Label); err != nil {
			return err
		}
		return node.Content[1].Decode(&e.Selector)

	case yaml.MappingNode:
		var raw struct {
			Label    string `yaml:"label"`
			Selector string `yaml:"selector"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Label, e.Selector = raw.Label, raw.Selector
		return nil

	default:
		return fmt.Errorf("line %d: index entry must be a sequence or a mapping", node.Line)
	}
}

// ParseIndex decodes a sidecar file.
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse %s: %w", IndexFile, err)
	}
	return &idx, nil
}

// loadIndex reads the sidecar file of dir. A missing file, or one that is not
// a regular file, is not an error; it returns nil.
func loadIndex(ctx context.Context, st store.Store, dir string) (*Index, error) {
	rc, err := st.Open(ctx, path.Join(dir, IndexFile))
	if err != nil {
		if errors.Is(err, store.ErrNotExist) || errors.Is(err, store.ErrIsDir) || errors.Is(err, store.ErrNotRegular) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxIndexSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path.Join(dir, IndexFile), err)
	}

	return ParseIndex(data)
}
