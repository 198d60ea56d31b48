package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testRecord() *Record {
	return &Record{
		RecordID:     "01TESTULID",
		Annotator:    "jordan",
		Model:        "gpt4o_annotations",
		RowIndex:     2,
		TranscriptNo: 3,
		Title:        "Why we fight",
		Stance:       "pro",
		Items: []Item{
			{TagIndex: 1, TagText: "Appeal to Authority", Decision: DecisionAgree},
			{TagIndex: 2, TagText: "Call to Action", Decision: DecisionUnset},
		},
		Notes:   "second tag is borderline",
		SavedAt: "2026-08-25T12:00:00Z",
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := New(t.TempDir())

	if err := s.Save("jordan", "gpt4o_annotations", 2, testRecord()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec, status, err := s.Load("jordan", "gpt4o_annotations", 2)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if status != LoadOK {
		t.Fatalf("status = %v, want LoadOK", status)
	}
	if rec.Annotator != "jordan" || rec.RowIndex != 2 || rec.TranscriptNo != 3 {
		t.Errorf("record fields = %+v", rec)
	}
	if len(rec.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(rec.Items))
	}
	if rec.Items[0].Decision != DecisionAgree {
		t.Errorf("items[0].Decision = %q, want agree", rec.Items[0].Decision)
	}
	if rec.Items[1].Decision != DecisionUnset {
		t.Errorf("items[1].Decision = %q, want unset", rec.Items[1].Decision)
	}
	if rec.Decided() != 1 {
		t.Errorf("Decided() = %d, want 1", rec.Decided())
	}
}

func TestSave_OverwritesWholesale(t *testing.T) {
	s := New(t.TempDir())

	first := testRecord()
	if err := s.Save("jordan", "gpt4o_annotations", 0, first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := testRecord()
	second.Items = []Item{{TagIndex: 1, TagText: "Loaded Language", Decision: DecisionDisagree}}
	second.Notes = "revised"
	if err := s.Save("jordan", "gpt4o_annotations", 0, second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	rec, status, _ := s.Load("jordan", "gpt4o_annotations", 0)
	if status != LoadOK {
		t.Fatalf("status = %v, want LoadOK", status)
	}
	if len(rec.Items) != 1 || rec.Items[0].TagText != "Loaded Language" {
		t.Errorf("expected last write to win, got %+v", rec.Items)
	}
	if rec.Notes != "revised" {
		t.Errorf("Notes = %q, want %q", rec.Notes, "revised")
	}
}

func TestSave_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	if err := s.Save("jordan", "gpt4o_annotations", 5, testRecord()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "jordan", "gpt4o_annotations"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 || entries[0].Name() != "T6.json" {
		t.Errorf("entries = %v, want exactly T6.json", entries)
	}
}

func TestLoad_Absent(t *testing.T) {
	s := New(t.TempDir())

	rec, status, err := s.Load("nobody", "gpt4o_annotations", 0)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if status != LoadAbsent {
		t.Errorf("status = %v, want LoadAbsent", status)
	}
	if len(rec.Items) != 0 {
		t.Errorf("expected empty record, got %+v", rec)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	s := New(t.TempDir())
	path := s.PathFor("jordan", "gpt4o_annotations", 0)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, status, err := s.Load("jordan", "gpt4o_annotations", 0)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if status != LoadAbsent {
		t.Errorf("status = %v, want LoadAbsent", status)
	}
}

func TestLoad_CorruptQuarantine(t *testing.T) {
	s := New(t.TempDir())
	path := s.PathFor("jordan", "gpt4o_annotations", 3)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec, status, err := s.Load("jordan", "gpt4o_annotations", 3)
	if status != LoadRecovered {
		t.Fatalf("status = %v, want LoadRecovered", status)
	}
	if err == nil {
		t.Error("expected a diagnostic error for the recovered load")
	}
	if len(rec.Items) != 0 {
		t.Errorf("expected empty record, got %+v", rec)
	}

	// Original is renamed, not deleted.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt file should no longer exist at the record path")
	}
	quarantined, err := os.ReadFile(path + CorruptSuffix)
	if err != nil {
		t.Fatalf("quarantine file missing: %v", err)
	}
	if string(quarantined) != "{not json" {
		t.Errorf("quarantine content = %q", quarantined)
	}

	// A fresh save works over the quarantined key.
	if err := s.Save("jordan", "gpt4o_annotations", 3, testRecord()); err != nil {
		t.Fatalf("Save after quarantine failed: %v", err)
	}
	if _, status, _ := s.Load("jordan", "gpt4o_annotations", 3); status != LoadOK {
		t.Errorf("status after re-save = %v, want LoadOK", status)
	}
}

func TestLoad_ToleratesLooseNumericTypes(t *testing.T) {
	s := New(t.TempDir())
	path := s.PathFor("jordan", "gpt4o_annotations", 0)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	// Indexes as float and string, decision null, as written by other tooling.
	loose := `{
	  "annotator": "jordan",
	  "model": "gpt4o_annotations",
	  "row_index": 0.0,
	  "transcript_no": "1",
	  "items": [
	    {"tag_index": 1.0, "tag_text": "Appeal to Fear", "decision": "agree"},
	    {"tag_index": "2", "tag_text": "Slogan", "decision": null}
	  ],
	  "notes": ""
	}`
	if err := os.WriteFile(path, []byte(loose), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rec, status, err := s.Load("jordan", "gpt4o_annotations", 0)
	if err != nil || status != LoadOK {
		t.Fatalf("Load = status %v, err %v, want LoadOK", status, err)
	}
	if rec.TranscriptNo != 1 {
		t.Errorf("TranscriptNo = %d, want 1", rec.TranscriptNo)
	}
	if rec.Items[0].TagIndex != 1 || rec.Items[1].TagIndex != 2 {
		t.Errorf("tag indexes = %d, %d, want 1, 2", rec.Items[0].TagIndex, rec.Items[1].TagIndex)
	}
	if rec.Items[1].Decision != DecisionUnset {
		t.Errorf("null decision = %q, want unset", rec.Items[1].Decision)
	}
}

func TestEnsureUserDirs(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	models := []string{"gpt4o_annotations", "gpt5_annotations"}

	userDir, err := s.EnsureUserDirs("Jordan Lee!", models)
	if err != nil {
		t.Fatalf("EnsureUserDirs failed: %v", err)
	}
	if userDir != filepath.Join(dir, "Jordan_Lee_") {
		t.Errorf("userDir = %q", userDir)
	}
	for _, m := range models {
		info, err := os.Stat(filepath.Join(userDir, m))
		if err != nil || !info.IsDir() {
			t.Errorf("model dir %q missing: %v", m, err)
		}
	}

	// Idempotent.
	again, err := s.EnsureUserDirs("Jordan Lee!", models)
	if err != nil {
		t.Fatalf("second EnsureUserDirs failed: %v", err)
	}
	if again != userDir {
		t.Errorf("second call returned %q, want %q", again, userDir)
	}
}

func TestPathFor(t *testing.T) {
	s := New("/data/annotations")
	got := s.PathFor("jordan", "gpt4o_annotations", 0)
	want := filepath.Join("/data/annotations", "jordan", "gpt4o_annotations", "T1.json")
	if got != want {
		t.Errorf("PathFor = %q, want %q", got, want)
	}

	// Username is sanitized inside PathFor as well.
	got = s.PathFor("../escape", "gpt4o_annotations", 9)
	want = filepath.Join("/data/annotations", ".._escape", "gpt4o_annotations", "T10.json")
	if got != want {
		t.Errorf("PathFor = %q, want %q", got, want)
	}
}

func TestDecision_MarshalUnsetAsNull(t *testing.T) {
	data, err := json.Marshal(Item{TagIndex: 1, TagText: "Slogan", Decision: DecisionUnset})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"decision":null`) {
		t.Errorf("marshaled item = %s, want null decision", data)
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		raw     string
		want    Decision
		wantErr bool
	}{
		{"agree", DecisionAgree, false},
		{"disagree", DecisionDisagree, false},
		{"unset", DecisionUnset, false},
		{"", DecisionUnset, false},
		{" agree ", DecisionAgree, false},
		{"maybe", DecisionUnset, true},
	}
	for _, tt := range tests {
		got, err := ParseDecision(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDecision(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDecision(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
