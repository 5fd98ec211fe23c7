package markdown

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// ErrBlockNotFound is returned when no block matches a requested id or name.
var ErrBlockNotFound = errors.New("unknown block id or name")

// FsFactory returns the filesystem documents are read from.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// LoadFile reads a markdown document and extracts its code blocks.
func LoadFile(path string) ([]CodeBlock, error) {
	content, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, fmt.Errorf("while reading %s: %w", path, err)
	}

	blocks, err := Extract(content)
	if err != nil {
		return nil, fmt.Errorf("while parsing %s: %w", path, err)
	}
	return blocks, nil
}

// WorkingDir returns the directory commands of a document run in: the
// document's parent directory, or "." for a bare file name.
func WorkingDir(path string) string {
	return filepath.Dir(path)
}

// Select returns the blocks to run. An empty key selects every block;
// otherwise the first block whose id or name equals key is returned.
func Select(blocks []CodeBlock, key string) ([]CodeBlock, error) {
	if key == "" {
		return blocks, nil
	}
	for _, block := range blocks {
		if block.ID == key || (block.Name != "" && block.Name == key) {
			return []CodeBlock{block}, nil
		}
	}
	return nil, fmt.Errorf("%w %s", ErrBlockNotFound, key)
}

// DuplicateName is a name shared by more than one block.
type DuplicateName struct {
	Name string
	IDs  []string
}

// DuplicateNames lists every name used by more than one block, sorted by name.
// Ids keep discovery order.
func DuplicateNames(blocks []CodeBlock) []DuplicateName {
	byName := make(map[string][]string)
	for _, block := range blocks {
		if block.Name != "" {
			byName[block.Name] = append(byName[block.Name], block.ID)
		}
	}

	var dups []DuplicateName
	for name, ids := range byName {
		if len(ids) > 1 {
			dups = append(dups, DuplicateName{Name: name, IDs: ids})
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		return dups[i].Name < dups[j].Name
	})
	return dups
}
