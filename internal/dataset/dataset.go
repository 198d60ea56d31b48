// Package dataset exposes the fixed transcript dataset as a read-only row
// source. Rows are loaded once from a SQLite file at startup and are
// immutable for the rest of the process lifetime.
package dataset

import (
	"sort"
	"strings"
)

// ModelSuffix marks dataset columns that hold model-generated annotations.
// The column name doubles as the model key in file paths and payloads.
const ModelSuffix = "_annotations"

// Row is one transcript entry. ModelText maps model column name to that
// model's tagged annotation text (empty string when the column was null).
type Row struct {
	Index        int    // 0-based dataset position, immutable
	TranscriptNo int    // display number; source column or Index+1
	Title        string
	Stance       string
	URL          string
	OriginalText string
	PlainText    string // untagged translation column
	ModelText    map[string]string
}

// Field returns a named column value: a base column ("title", "stance",
// "url", "original_text", "english_translation") or a model annotation
// column. Unknown names yield "".
func (r Row) Field(name string) string {
	switch name {
	case "title":
		return r.Title
	case "stance":
		return r.Stance
	case "url":
		return r.URL
	case "original_text":
		return r.OriginalText
	case "english_translation":
		return r.PlainText
	}
	return r.ModelText[name]
}

// TextForModel returns the tagged text for the given model, falling back
// through the ordered preference list when the model column is absent or
// empty. A fixed priority list, not a search.
func (r Row) TextForModel(model string, fallbacks []string) string {
	if t := r.ModelText[model]; t != "" {
		return t
	}
	for _, fb := range fallbacks {
		if t := r.Field(fb); t != "" {
			return t
		}
	}
	return ""
}

// Source is the process-wide read-only row set plus the ordered list of
// discovered model keys. Construct once in main and inject into handlers.
type Source struct {
	rows   []Row
	models []string
}

// FromRows builds a Source directly; used by tests and fixtures.
func FromRows(rows []Row, models []string) *Source {
	return &Source{rows: rows, models: models}
}

// Len returns the fixed row count.
func (s *Source) Len() int {
	return len(s.rows)
}

// Row returns the row at index i.
func (s *Source) Row(i int) (Row, bool) {
	if i < 0 || i >= len(s.rows) {
		return Row{}, false
	}
	return s.rows[i], true
}

// Models returns the ordered model keys.
func (s *Source) Models() []string {
	return s.models
}

// HasModel reports whether key is a known model column.
func (s *Source) HasModel(key string) bool {
	for _, m := range s.models {
		if m == key {
			return true
		}
	}
	return false
}

// DefaultModel returns the first known model key, or "".
func (s *Source) DefaultModel() string {
	if len(s.models) == 0 {
		return ""
	}
	return s.models[0]
}

// orderModels sorts discovered model columns: those named in preferred keep
// that order, the remainder sorts alphabetically after them.
func orderModels(discovered, preferred []string) []string {
	found := make(map[string]bool, len(discovered))
	for _, m := range discovered {
		found[m] = true
	}

	ordered := make([]string, 0, len(discovered))
	taken := make(map[string]bool, len(discovered))
	for _, p := range preferred {
		if found[p] && !taken[p] {
			ordered = append(ordered, p)
			taken[p] = true
		}
	}

	var rest []string
	for _, m := range discovered {
		if !taken[m] {
			rest = append(rest, m)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

// isModelColumn reports whether a dataset column holds model annotations.
func isModelColumn(name string) bool {
	return strings.HasSuffix(name, ModelSuffix)
}
