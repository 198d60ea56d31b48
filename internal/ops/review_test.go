package ops

import (
	"os"
	"path/filepath"
	"testing"

	"cueview/internal/config"
	"cueview/internal/dataset"
	"cueview/internal/errors"
	"cueview/internal/store"
	"cueview/internal/tagstream"
)

func TestReview_FreshRow(t *testing.T) {
	src, st, cfg := setupOps(t)

	out, err := Review(src, st, cfg, ReviewInput{Username: "jordan", Model: "gpt4o_annotations", RowIndex: 0})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	if out.Storage != "absent" {
		t.Errorf("Storage = %q, want absent", out.Storage)
	}
	if len(out.Tags) != 2 {
		t.Fatalf("Tags = %d, want 2", len(out.Tags))
	}
	if len(out.Choices) != 0 {
		t.Errorf("Choices = %v, want empty", out.Choices)
	}
	if out.HasPrev {
		t.Error("HasPrev = true for row 0")
	}
	if !out.HasNext {
		t.Error("HasNext = false for row 0 of 3")
	}
	if out.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", out.TotalRows)
	}

	// Stream covers the whole text and carries matching tag indexes.
	var rebuilt string
	tagSegs := 0
	for _, seg := range out.Stream {
		rebuilt += seg.Content
		if seg.Kind == tagstream.KindTag {
			tagSegs++
		}
	}
	if rebuilt != "Hello [Appeal to Authority] world [Call to Action]." {
		t.Errorf("stream round trip = %q", rebuilt)
	}
	if tagSegs != 2 {
		t.Errorf("tag segments = %d, want 2", tagSegs)
	}
}

func TestReview_JoinsSavedDecisions(t *testing.T) {
	src, st, cfg := setupOps(t)

	if _, err := Save(src, st, cfg, SaveInput{
		Username:  "jordan",
		Model:     "gpt4o_annotations",
		RowIndex:  0,
		Decisions: map[int]string{1: "agree", 2: "disagree"},
		Notes:     "solid tagging",
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := Review(src, st, cfg, ReviewInput{Username: "jordan", Model: "gpt4o_annotations", RowIndex: 0})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	if out.Storage != "ok" {
		t.Errorf("Storage = %q, want ok", out.Storage)
	}
	if out.Choices[1] != store.DecisionAgree || out.Choices[2] != store.DecisionDisagree {
		t.Errorf("Choices = %v", out.Choices)
	}
	if out.Notes != "solid tagging" {
		t.Errorf("Notes = %q", out.Notes)
	}
	if len(out.Drift) != 0 {
		t.Errorf("Drift = %v, want none", out.Drift)
	}
}

func TestReview_LastRowNavigation(t *testing.T) {
	src, st, cfg := setupOps(t)

	out, err := Review(src, st, cfg, ReviewInput{Username: "jordan", Model: "gpt4o_annotations", RowIndex: 2})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if !out.HasPrev || out.HasNext {
		t.Errorf("HasPrev = %v, HasNext = %v, want true/false", out.HasPrev, out.HasNext)
	}
}

func TestReview_RowOutOfBounds(t *testing.T) {
	src, st, cfg := setupOps(t)

	for _, idx := range []int{-1, 3, 100} {
		_, err := Review(src, st, cfg, ReviewInput{Username: "jordan", Model: "gpt4o_annotations", RowIndex: idx})
		if !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("Review(row %d) err = %v, want NOT_FOUND", idx, err)
		}
	}
}

func TestReview_DetectsDrift(t *testing.T) {
	st := store.New(t.TempDir())
	cfg := config.DefaultConfig()

	// Save against the original text.
	original := testSource()
	if _, err := Save(original, st, cfg, SaveInput{
		Username:  "jordan",
		Model:     "gpt4o_annotations",
		RowIndex:  0,
		Decisions: map[int]string{1: "agree", 2: "agree"},
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The model's annotation text is later regenerated: the second tag
	// changes and the first survives.
	edited := dataset.FromRows([]dataset.Row{
		{
			Index:        0,
			TranscriptNo: 1,
			Title:        "First speech",
			Stance:       "pro",
			ModelText: map[string]string{
				"gpt4o_annotations": "Hello [Appeal to Authority] world [Bandwagon].",
				"gpt5_annotations":  "",
			},
		},
	}, []string{"gpt4o_annotations", "gpt5_annotations"})

	out, err := Review(edited, st, cfg, ReviewInput{Username: "jordan", Model: "gpt4o_annotations", RowIndex: 0})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	if len(out.Drift) != 1 || out.Drift[0] != 2 {
		t.Errorf("Drift = %v, want [2]", out.Drift)
	}
	// The stale decision is flagged, not dropped.
	if out.Choices[2] != store.DecisionAgree {
		t.Errorf("Choices[2] = %q, want kept decision", out.Choices[2])
	}
}

func TestReview_CorruptRecordRecovers(t *testing.T) {
	src, st, cfg := setupOps(t)

	path := st.PathFor("jordan", "gpt4o_annotations", 0)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("%%%"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := Review(src, st, cfg, ReviewInput{Username: "jordan", Model: "gpt4o_annotations", RowIndex: 0})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if out.Storage != "recovered" {
		t.Errorf("Storage = %q, want recovered", out.Storage)
	}
	if len(out.Choices) != 0 || out.Notes != "" {
		t.Errorf("expected empty prior state, got choices %v notes %q", out.Choices, out.Notes)
	}
	if _, err := os.Stat(path + store.CorruptSuffix); err != nil {
		t.Errorf("quarantine file missing: %v", err)
	}
}
