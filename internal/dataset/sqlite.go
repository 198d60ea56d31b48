package dataset

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// transcriptsTable is the expected table in the dataset file.
const transcriptsTable = "transcripts"

// Open loads the entire dataset from a SQLite file. The file is opened
// read-only and closed before returning; the returned Source is a plain
// in-memory snapshot. modelOrder fixes the display order of discovered
// model columns (suffix ModelSuffix); unlisted columns sort alphabetically
// after the listed ones.
func Open(path string, modelOrder []string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset file: %w", err)
	}

	dsn := path + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer db.Close()

	if err := verifyTable(db); err != nil {
		return nil, err
	}

	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", transcriptsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset columns: %w", err)
	}

	var discovered []string
	for _, c := range cols {
		if isModelColumn(c) {
			discovered = append(discovered, c)
		}
	}

	var loaded []Row
	idx := 0
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan dataset row %d: %w", idx, err)
		}

		byName := make(map[string]any, len(cols))
		for i, c := range cols {
			byName[c] = vals[i]
		}

		r := Row{
			Index:        idx,
			TranscriptNo: asInt(byName["transcript_no"]),
			Title:        asString(byName["title"]),
			Stance:       asString(byName["stance"]),
			URL:          asString(byName["url"]),
			OriginalText: asString(byName["original_text"]),
			PlainText:    asString(byName["english_translation"]),
			ModelText:    make(map[string]string, len(discovered)),
		}
		if r.TranscriptNo <= 0 {
			r.TranscriptNo = idx + 1
		}
		for _, m := range discovered {
			r.ModelText[m] = asString(byName[m])
		}

		loaded = append(loaded, r)
		idx++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset rows: %w", err)
	}

	return &Source{
		rows:   loaded,
		models: orderModels(discovered, modelOrder),
	}, nil
}

// verifyTable checks that the transcripts table exists.
func verifyTable(db *sql.DB) error {
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", transcriptsTable,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("dataset has no %q table", transcriptsTable)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect dataset: %w", err)
	}
	return nil
}

// asString coerces a scanned SQLite value to a string; NULL becomes "".
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return fmt.Sprintf("%d", t)
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// asInt coerces a scanned SQLite value to an int; NULL and non-numeric
// values become 0.
func asInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n := 0
		if _, err := fmt.Sscanf(t, "%d", &n); err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
