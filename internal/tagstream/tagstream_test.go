package tagstream

import (
	"strings"
	"testing"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Tag
	}{
		{
			name:  "two tags with surrounding text",
			input: "Hello [Appeal to Authority] world [Call to Action].",
			want: []Tag{
				{Index: 1, Text: "Appeal to Authority", Start: 6, End: 27},
				{Index: 2, Text: "Call to Action", Start: 34, End: 50},
			},
		},
		{
			name:  "no tags",
			input: "plain transcript text",
			want:  nil,
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "   \t\n",
			want:  nil,
		},
		{
			name:  "tag interior trimmed",
			input: "x[  Loaded Language  ]y",
			want: []Tag{
				{Index: 1, Text: "Loaded Language", Start: 1, End: 22},
			},
		},
		{
			name:  "unclosed bracket yields nothing",
			input: "before [Appeal to Fear",
			want:  nil,
		},
		{
			name:  "empty brackets yield nothing",
			input: "a [] b",
			want:  nil,
		},
		{
			name:  "nested brackets match inner span only",
			input: "a [outer [inner] trail] b",
			want: []Tag{
				{Index: 1, Text: "inner", Start: 9, End: 16},
			},
		},
		{
			name:  "adjacent tags",
			input: "[A][B]",
			want: []Tag{
				{Index: 1, Text: "A", Start: 0, End: 3},
				{Index: 2, Text: "B", Start: 3, End: 6},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTags(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractTags(%q) returned %d tags, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tag[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractTags_Deterministic(t *testing.T) {
	input := "x [One] y [Two] z [One] w"
	first := ExtractTags(input)
	second := ExtractTags(input)

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("tag counts = %d, %d, want 3", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("tag[%d] differs across runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestBuildStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "tags at both ends",
			input: "[A] mid [B]",
			want: []Segment{
				{Kind: KindTag, Content: "[A]", Label: "A", TagIndex: 1},
				{Kind: KindText, Content: " mid "},
				{Kind: KindTag, Content: "[B]", Label: "B", TagIndex: 2},
			},
		},
		{
			name:  "leading and trailing text",
			input: "pre [A] post",
			want: []Segment{
				{Kind: KindText, Content: "pre "},
				{Kind: KindTag, Content: "[A]", Label: "A", TagIndex: 1},
				{Kind: KindText, Content: " post"},
			},
		},
		{
			name:  "adjacent tags produce no empty text segment",
			input: "[A][B]",
			want: []Segment{
				{Kind: KindTag, Content: "[A]", Label: "A", TagIndex: 1},
				{Kind: KindTag, Content: "[B]", Label: "B", TagIndex: 2},
			},
		},
		{
			name:  "tagless text is a single segment",
			input: "no tags here",
			want: []Segment{
				{Kind: KindText, Content: "no tags here"},
			},
		},
		{
			name:  "empty input is a single empty text segment",
			input: "",
			want: []Segment{
				{Kind: KindText, Content: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildStream(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("BuildStream(%q) returned %d segments, want %d:\n%+v", tt.input, len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildStream_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"[A] mid [B]",
		"pre [Appeal to Authority] mid [Call to Action] post",
		"unbalanced [bracket text",
		"nested [a [b] c] d",
		"[A][B][C]",
		"  [ spaced tag ]  ",
		"unicode Ã©lan [ÐŸÑ€Ð¸Ð·Ñ‹Ð²] ok",
	}

	for _, input := range inputs {
		var b strings.Builder
		for _, seg := range BuildStream(input) {
			b.WriteString(seg.Content)
		}
		if b.String() != input {
			t.Errorf("round trip of %q = %q", input, b.String())
		}
	}
}

func TestBuildStream_IndexesMatchExtractTags(t *testing.T) {
	input := "a [One] b [Two] c [Three]"
	tags := ExtractTags(input)

	var streamTags []Segment
	for _, seg := range BuildStream(input) {
		if seg.Kind == KindTag {
			streamTags = append(streamTags, seg)
		}
	}

	if len(streamTags) != len(tags) {
		t.Fatalf("stream has %d tag segments, extract found %d", len(streamTags), len(tags))
	}
	for i, seg := range streamTags {
		if seg.TagIndex != tags[i].Index {
			t.Errorf("segment tag index = %d, want %d", seg.TagIndex, tags[i].Index)
		}
		if seg.Label != tags[i].Text {
			t.Errorf("segment label = %q, want %q", seg.Label, tags[i].Text)
		}
	}
}

func TestCountTags(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"no tags", 0},
		{"[A]", 1},
		{"[A] and [B]", 2},
		{"broken [ unclosed and [C]", 1},
		{"nested [a [b] c]", 1},
	}

	for _, tt := range tests {
		if got := CountTags(tt.input); got != tt.want {
			t.Errorf("CountTags(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
