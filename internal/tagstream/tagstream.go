// Package tagstream tokenizes inline bracketed rhetorical tags
// (e.g. "[Appeal to Authority]") out of model-annotated transcript text and
// builds the alternating text/tag segment stream the review UI renders.
package tagstream

import (
	"regexp"
	"strings"
)

// tagPattern matches a complete bracketed tag like [Call to Action].
// Non-nesting: the interior may not contain brackets, so unbalanced or
// nested brackets simply fail to match rather than erroring.
var tagPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Tag is one extracted bracket tag.
type Tag struct {
	Index int    `json:"index"` // 1-based, in order of appearance
	Text  string `json:"text"`  // bracket interior, surrounding whitespace trimmed
	Start int    `json:"start"` // byte offset of the opening bracket
	End   int    `json:"end"`   // byte offset just past the closing bracket
}

// SegmentKind distinguishes plain text from tag chips in a stream.
type SegmentKind string

const (
	KindText SegmentKind = "text"
	KindTag  SegmentKind = "tag"
)

// Segment is one element of the inline render stream. Content always holds
// the raw source slice, brackets included for tag segments, so concatenating
// Content across a stream reproduces the source exactly. Tag segments
// additionally carry the trimmed tag text in Label and the tag's 1-based
// index.
type Segment struct {
	Kind     SegmentKind `json:"kind"`
	Content  string      `json:"content"`
	Label    string      `json:"label,omitempty"`
	TagIndex int         `json:"tag_index,omitempty"`
}

// ExtractTags scans text left to right and returns every complete bracket
// tag in order. Tokenization is recomputed from the input on every call, so
// identical input always yields identical tags and offsets. Blank or tagless
// input yields nil.
func ExtractTags(text string) []Tag {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	matches := tagPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	tags := make([]Tag, 0, len(matches))
	for i, m := range matches {
		// m indices: [fullStart, fullEnd, interiorStart, interiorEnd]
		tags = append(tags, Tag{
			Index: i + 1,
			Text:  strings.TrimSpace(text[m[2]:m[3]]),
			Start: m[0],
			End:   m[1],
		})
	}
	return tags
}

// BuildStream converts text into an ordered stream of text and tag segments.
// Tagless input produces a single text segment holding the whole (possibly
// empty) string. Empty gaps between adjacent tags and at either end are
// omitted, never emitted as empty text segments.
func BuildStream(text string) []Segment {
	tags := ExtractTags(text)
	if len(tags) == 0 {
		return []Segment{{Kind: KindText, Content: text}}
	}

	stream := make([]Segment, 0, 2*len(tags)+1)
	last := 0
	for _, t := range tags {
		if t.Start > last {
			stream = append(stream, Segment{Kind: KindText, Content: text[last:t.Start]})
		}
		stream = append(stream, Segment{
			Kind:     KindTag,
			Content:  text[t.Start:t.End],
			Label:    t.Text,
			TagIndex: t.Index,
		})
		last = t.End
	}
	if last < len(text) {
		stream = append(stream, Segment{Kind: KindText, Content: text[last:]})
	}
	return stream
}

// CountTags returns the number of complete bracket tags in text.
func CountTags(text string) int {
	return len(tagPattern.FindAllStringIndex(text, -1))
}
