package ops

import (
	"cueview/internal/config"
	"cueview/internal/dataset"
	"cueview/internal/store"
	"cueview/internal/tagstream"
)

// OverviewInput contains parameters for the Overview operation.
type OverviewInput struct {
	Username string
	Model    string // empty selects the first known model
}

// RowSummary is one line of the row index page.
type RowSummary struct {
	Index     int    `json:"index"`
	DisplayNo int    `json:"display_no"`
	Title     string `json:"title"`
	Stance    string `json:"stance"`
	Decided   int    `json:"decided"`
	Total     int    `json:"total"`
	Progress  string `json:"progress"` // "decided/total"
}

// OverviewOutput contains the result of the Overview operation.
type OverviewOutput struct {
	Annotator string       `json:"annotator"`
	Model     string       `json:"model"`
	Models    []string     `json:"models"`
	Rows      []RowSummary `json:"rows"`
}

// Overview lists every dataset row with the reviewer's saved progress for
// the selected model. It also bootstraps the per-user directory tree so the
// first page view after sign-in leaves the store ready for saves.
func Overview(src *dataset.Source, st *store.Store, cfg *config.Config, input OverviewInput) (*OverviewOutput, error) {
	if err := requireUsername(input.Username); err != nil {
		return nil, err
	}
	model, err := resolveModel(src, input.Model)
	if err != nil {
		return nil, err
	}
	if _, err := st.EnsureUserDirs(input.Username, src.Models()); err != nil {
		return nil, err
	}

	rows := make([]RowSummary, 0, src.Len())
	for i := 0; i < src.Len(); i++ {
		row, _ := src.Row(i)
		text := taggedText(row, model, cfg)
		total := tagstream.CountTags(text)

		decided := 0
		if rec, status, _ := st.Load(input.Username, model, i); status == store.LoadOK {
			decided = rec.Decided()
		}

		rows = append(rows, RowSummary{
			Index:     i,
			DisplayNo: row.TranscriptNo,
			Title:     row.Title,
			Stance:    row.Stance,
			Decided:   decided,
			Total:     total,
			Progress:  progress(decided, total),
		})
	}

	return &OverviewOutput{
		Annotator: store.SanitizeUsername(input.Username),
		Model:     model,
		Models:    src.Models(),
		Rows:      rows,
	}, nil
}
