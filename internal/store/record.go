package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Decision is a reviewer's verdict on one tag. The zero value means the
// reviewer has not decided yet; it round-trips through JSON as null.
type Decision string

const (
	DecisionAgree    Decision = "agree"
	DecisionDisagree Decision = "disagree"
	DecisionUnset    Decision = ""
)

// Decided reports whether the reviewer has made a call on this tag.
func (d Decision) Decided() bool {
	return d == DecisionAgree || d == DecisionDisagree
}

// ParseDecision validates a raw decision value from a form or tool call.
// Accepts "agree", "disagree", "unset" and "" (the latter two both map to
// the unset decision).
func ParseDecision(raw string) (Decision, error) {
	switch strings.TrimSpace(raw) {
	case "agree":
		return DecisionAgree, nil
	case "disagree":
		return DecisionDisagree, nil
	case "", "unset":
		return DecisionUnset, nil
	default:
		return DecisionUnset, fmt.Errorf("decision must be one of: agree, disagree, unset")
	}
}

// MarshalJSON writes the unset decision as null, matching the on-disk
// records written by earlier versions of the tool.
func (d Decision) MarshalJSON() ([]byte, error) {
	if d == DecisionUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON accepts null, "agree", "disagree" and "unset". Anything else
// is a decode error, which the loader treats as a corrupt record.
func (d *Decision) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = DecisionUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDecision(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// flexInt decodes a JSON number or a numeric string. Records written by
// other tooling occasionally carry indexes as strings or floats; both
// normalize to a plain int here.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt(n)
		return nil
	}
	fl, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer value %q", s)
	}
	*f = flexInt(int(fl))
	return nil
}

// Item is one per-tag decision inside a record. TagText snapshots the tag
// content at save time so later loads can detect drift against the live
// tokenization.
type Item struct {
	TagIndex int      `json:"tag_index"`
	TagText  string   `json:"tag_text"`
	Decision Decision `json:"decision"`
}

// itemWire mirrors Item with a tolerant index type for decoding.
type itemWire struct {
	TagIndex flexInt  `json:"tag_index"`
	TagText  string   `json:"tag_text"`
	Decision Decision `json:"decision"`
}

// UnmarshalJSON normalizes loosely typed tag_index values to int.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	it.TagIndex = int(w.TagIndex)
	it.TagText = w.TagText
	it.Decision = w.Decision
	return nil
}

// Record is the persisted annotation document for one (annotator, model,
// row) key. One file per key; each save overwrites the whole record.
type Record struct {
	RecordID     string `json:"record_id,omitempty"`
	Annotator    string `json:"annotator"`
	Model        string `json:"model"`
	RowIndex     int    `json:"row_index"`
	TranscriptNo int    `json:"transcript_no"`
	Title        string `json:"title"`
	Stance       string `json:"stance"`
	Items        []Item `json:"items"`
	Notes        string `json:"notes"`
	SavedAt      string `json:"saved_at"` // RFC3339 UTC
}

// recordWire mirrors Record with tolerant numeric types for decoding.
type recordWire struct {
	RecordID     string  `json:"record_id"`
	Annotator    string  `json:"annotator"`
	Model        string  `json:"model"`
	RowIndex     flexInt `json:"row_index"`
	TranscriptNo flexInt `json:"transcript_no"`
	Title        string  `json:"title"`
	Stance       string  `json:"stance"`
	Items        []Item  `json:"items"`
	Notes        string  `json:"notes"`
	SavedAt      string  `json:"saved_at"`
}

// UnmarshalJSON normalizes loosely typed numeric fields to int.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		RecordID:     w.RecordID,
		Annotator:    w.Annotator,
		Model:        w.Model,
		RowIndex:     int(w.RowIndex),
		TranscriptNo: int(w.TranscriptNo),
		Title:        w.Title,
		Stance:       w.Stance,
		Items:        w.Items,
		Notes:        w.Notes,
		SavedAt:      w.SavedAt,
	}
	return nil
}

// Decided counts items the reviewer has ruled on.
func (r *Record) Decided() int {
	n := 0
	for _, it := range r.Items {
		if it.Decision.Decided() {
			n++
		}
	}
	return n
}

// Choices returns the tag_index → decision mapping for the record.
func (r *Record) Choices() map[int]Decision {
	m := make(map[int]Decision, len(r.Items))
	for _, it := range r.Items {
		m[it.TagIndex] = it.Decision
	}
	return m
}
