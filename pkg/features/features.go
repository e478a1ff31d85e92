// Package features reads and updates feature_list.json, the ordered
// acceptance checklist of the application.
package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultFile is looked up in the working directory.
const DefaultFile = "feature_list.json"

// Feature is one checklist entry.
type Feature struct {
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Steps       []string `json:"steps"`
	Passes      bool     `json:"passes"`
}

// CategoryStats counts passing entries of one category.
type CategoryStats struct {
	Category string
	Total    int
	Passing  int
}

// Stats summarizes a checklist.
type Stats struct {
	Total      int
	Passing    int
	Categories []CategoryStats
}

// Percent is the share of passing entries, 0 for an empty list.
func (s Stats) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passing) * 100 / float64(s.Total)
}

// Load reads the checklist at path.
func Load(path string) ([]Feature, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var list []Feature
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return list, nil
}

// Save writes the checklist atomically, preserving entry order.
func Save(path string, list []Feature) error {
	if list == nil {
		list = []Feature{}
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".feature_list-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	}
	return os.Rename(tmpName, path)
}

// ErrIndexOutOfRange is returned by Mark for an index outside the list.
var ErrIndexOutOfRange = errors.New("feature index out of range")

// Mark sets the passes flag of entry index (zero-based) and saves.
func Mark(path string, index int, passes bool) (*Feature, error) {
	list, err := Load(path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(list))
	}
	list[index].Passes = passes
	if err := Save(path, list); err != nil {
		return nil, err
	}
	return &list[index], nil
}

// Summarize counts entries overall and per category, categories sorted by name.
func Summarize(list []Feature) Stats {
	byCat := map[string]*CategoryStats{}
	var st Stats
	for _, f := range list {
		st.Total++
		cs, ok := byCat[f.Category]
		if !ok {
			cs = &CategoryStats{Category: f.Category}
			byCat[f.Category] = cs
		}
		cs.Total++
		if f.Passes {
			st.Passing++
			cs.Passing++
		}
	}
	for _, cs := range byCat {
		st.Categories = append(st.Categories, *cs)
	}
	sort.Slice(st.Categories, func(i, j int) bool { return st.Categories[i].Category < st.Categories[j].Category })
	return st
}
