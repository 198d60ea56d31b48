// Package ops implements the review operations shared by the web UI, the
// MCP server and the CLI. Every operation takes the row source and the
// annotation store explicitly plus an input struct carrying the annotator's
// name; nothing reads ambient state.
package ops

import (
	"fmt"
	"strings"

	"cueview/internal/config"
	"cueview/internal/dataset"
	"cueview/internal/errors"
	"cueview/internal/store"
	"cueview/internal/tagstream"
)

// requireUsername rejects requests without a signed-in annotator.
func requireUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.NewUnauthenticated()
	}
	return nil
}

// resolveModel validates the requested model key, defaulting an empty
// request to the first known model. Unknown keys are rejected before any
// file operation can touch a path built from them.
func resolveModel(src *dataset.Source, requested string) (string, error) {
	if requested == "" {
		if src.DefaultModel() == "" {
			return "", errors.NewInvalidRequest("dataset has no model annotation columns")
		}
		return src.DefaultModel(), nil
	}
	if !src.HasModel(requested) {
		return "", errors.NewNotFound(fmt.Sprintf("model %s", requested))
	}
	return requested, nil
}

// requireRow bounds-checks a row index against the fixed row count.
func requireRow(src *dataset.Source, index int) (dataset.Row, error) {
	row, ok := src.Row(index)
	if !ok {
		return dataset.Row{}, errors.NewNotFound(fmt.Sprintf("row %d", index))
	}
	return row, nil
}

// taggedText resolves the annotation text a reviewer sees for (row, model),
// applying the configured fallback chain.
func taggedText(row dataset.Row, model string, cfg *config.Config) string {
	return row.TextForModel(model, cfg.FallbackColumns)
}

// progress formats a "decided/total" counter.
func progress(decided, total int) string {
	return fmt.Sprintf("%d/%d", decided, total)
}

// driftIndexes compares saved tag snapshots against the current
// tokenization and returns the 1-based indexes whose text no longer lines
// up: either the saved index is beyond the current tag count or the tag
// text changed. Items without a snapshot (legacy records) are skipped.
func driftIndexes(items []store.Item, tags []tagstream.Tag) []int {
	var drift []int
	for _, it := range items {
		if it.TagText == "" {
			continue
		}
		if it.TagIndex < 1 || it.TagIndex > len(tags) {
			drift = append(drift, it.TagIndex)
			continue
		}
		if tags[it.TagIndex-1].Text != it.TagText {
			drift = append(drift, it.TagIndex)
		}
	}
	return drift
}
