package ops

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"cueview/internal/config"
	"cueview/internal/dataset"
	"cueview/internal/errors"
	"cueview/internal/store"
	"cueview/internal/tagstream"
)

// SaveInput contains parameters for the Save operation. Decisions maps
// 1-based tag indexes to raw decision values ("agree", "disagree", "unset"
// or ""); indexes not present are saved as unset.
type SaveInput struct {
	Username  string
	Model     string
	RowIndex  int
	Decisions map[int]string
	Notes     string
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	RecordID string `json:"record_id"`
	RowIndex int    `json:"row_index"`
	Model    string `json:"model"`
	Decided  int    `json:"decided"`
	Total    int    `json:"total"`
	SavedAt  string `json:"saved_at"`
}

// Save rebuilds the decision record from the live tokenization and persists
// it atomically, overwriting any previous record for the same (annotator,
// model, row) key. The record always carries exactly one item per current
// tag, in tag order; unknown tag indexes or decision values are rejected
// before anything touches disk. A storage failure propagates as SAVE_FAILED
// and the caller must not navigate away as if the save landed.
func Save(src *dataset.Source, st *store.Store, cfg *config.Config, input SaveInput) (*SaveOutput, error) {
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

	decisions := make(map[int]store.Decision, len(input.Decisions))
	for idx, raw := range input.Decisions {
		if idx < 1 || idx > len(tags) {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown tag index %d (row has %d tags)", idx, len(tags)))
		}
		d, err := store.ParseDecision(raw)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		decisions[idx] = d
	}

	items := make([]store.Item, 0, len(tags))
	for _, t := range tags {
		items = append(items, store.Item{
			TagIndex: t.Index,
			TagText:  t.Text,
			Decision: decisions[t.Index],
		})
	}

	recordID, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	savedAt := time.Now().UTC().Format(time.RFC3339)

	rec := &store.Record{
		RecordID:     recordID,
		Annotator:    store.SanitizeUsername(input.Username),
		Model:        model,
		RowIndex:     input.RowIndex,
		TranscriptNo: row.TranscriptNo,
		Title:        row.Title,
		Stance:       row.Stance,
		Items:        items,
		Notes:        input.Notes,
		SavedAt:      savedAt,
	}

	if err := st.Save(input.Username, model, input.RowIndex, rec); err != nil {
		return nil, errors.NewSaveFailed(err)
	}

	return &SaveOutput{
		RecordID: recordID,
		RowIndex: input.RowIndex,
		Model:    model,
		Decided:  rec.Decided(),
		Total:    len(tags),
		SavedAt:  savedAt,
	}, nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
