package ops

import (
	"cueview/internal/config"
	"cueview/internal/dataset"
	"cueview/internal/store"
	"cueview/internal/tagstream"
)

// ReviewInput contains parameters for the Review operation.
type ReviewInput struct {
	Username string
	Model    string // empty selects the first known model
	RowIndex int
}

// ReviewOutput is the annotate-page payload: the inline segment stream plus
// the reviewer's prior decisions and navigation state.
type ReviewOutput struct {
	Annotator string   `json:"annotator"`
	Model     string   `json:"model"`
	Models    []string `json:"models"`

	RowIndex  int    `json:"row_index"`
	DisplayNo int    `json:"display_no"`
	Title     string `json:"title"`
	Stance    string `json:"stance"`

	Stream  []tagstream.Segment    `json:"stream"`
	Tags    []tagstream.Tag        `json:"tags"`
	Choices map[int]store.Decision `json:"choices"`
	Notes   string                 `json:"notes"`

	// Drift lists saved tag indexes whose snapshotted text no longer
	// matches the live tokenization; the decisions are kept but flagged.
	Drift []int `json:"drift,omitempty"`

	// Storage reports how the prior record loaded: ok, absent, recovered
	// (corrupt file quarantined) or failed (I/O error, treated as absent).
	Storage string `json:"storage"`

	HasPrev   bool `json:"has_prev"`
	HasNext   bool `json:"has_next"`
	TotalRows int  `json:"total_rows"`
}

// Review assembles everything needed to render one row for one model. The
// tag list is recomputed from the live text on every call; prior decisions
// are joined by tag index and validated against the snapshot text.
func Review(src *dataset.Source, st *store.Store, cfg *config.Config, input ReviewInput) (*ReviewOutput, error) {
	if err := requireUsername(input.Username); err != nil {
		return nil, err
	}
	model, err := resolveModel(src, input.Model)
	if err != nil {
		return nil, err
	}
	row, err := requireRow(src, input.RowIndex)
	if err != nil {
		return nil, err
	}

	text := taggedText(row, model, cfg)
	tags := tagstream.ExtractTags(text)
	stream := tagstream.BuildStream(text)

	rec, status, _ := st.Load(input.Username, model, input.RowIndex)

	choices := make(map[int]store.Decision, len(rec.Items))
	for _, it := range rec.Items {
		if it.Decision.Decided() {
			choices[it.TagIndex] = it.Decision
		}
	}

	return &ReviewOutput{
		Annotator: store.SanitizeUsername(input.Username),
		Model:     model,
		Models:    src.Models(),
		RowIndex:  input.RowIndex,
		DisplayNo: row.TranscriptNo,
		Title:     row.Title,
		Stance:    row.Stance,
		Stream:    stream,
		Tags:      tags,
		Choices:   choices,
		Notes:     rec.Notes,
		Drift:     driftIndexes(rec.Items, tags),
		Storage:   status.String(),
		HasPrev:   input.RowIndex > 0,
		HasNext:   input.RowIndex < src.Len()-1,
		TotalRows: src.Len(),
	}, nil
}
