package ops

import (
	"cueview/internal/dataset"
	"cueview/internal/store"
)

// RecordInput contains parameters for the FetchRecord operation.
type RecordInput struct {
	Username string
	Model    string
	RowIndex int
}

// RecordOutput contains the raw saved record for a key, if any. An absent
// record is not an error: Found is false and Record is empty.
type RecordOutput struct {
	Found   bool          `json:"found"`
	Storage string        `json:"storage"`
	Record  *store.Record `json:"record"`
}

// FetchRecord returns the persisted annotation record exactly as saved,
// without joining it against the live tokenization.
func FetchRecord(src *dataset.Source, st *store.Store, input RecordInput) (*RecordOutput, error) {
	if err := requireUsername(input.Username); err != nil {
		return nil, err
	}
	model, err := resolveModel(src, input.Model)
	if err != nil {
		return nil, err
	}
	if _, err := requireRow(src, input.RowIndex); err != nil {
		return nil, err
	}

	rec, status, _ := st.Load(input.Username, model, input.RowIndex)
	return &RecordOutput{
		Found:   status == store.LoadOK,
		Storage: status.String(),
		Record:  rec,
	}, nil
}
