package prepare

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"hnprep/internal/db"
)

type jsonlMeta struct {
	ID int64 `json:"id"`
}

type jsonlLine struct {
	Text string    `json:"text"`
	Meta jsonlMeta `json:"meta"`
}

// WriteJSONL writes one compact {"text":...,"meta":{"id":...}} object per line.
// HTML characters in text are written as-is rather than \u-escaped.
func WriteJSONL(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(jsonlLine{Text: r.Text, Meta: jsonlMeta{ID: r.ID}}); err != nil {
			return fmt.Errorf("encoding item %d: %w", r.ID, err)
		}
	}
	return bw.Flush()
}

const maxLineBytes = 16 << 20

// ReadItemsJSONL decodes one item object per line, in the shape of the
// Hacker News item API. Blank lines are skipped.
func ReadItemsJSONL(r io.Reader) ([]db.Item, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var items []db.Item
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var it db.Item
		if err := json.Unmarshal([]byte(line), &it); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if it.ID == 0 {
			return nil, fmt.Errorf("line %d: missing 'id' field", lineNo)
		}
		items = append(items, it)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}
	return items, nil
}
