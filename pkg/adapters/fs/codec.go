package fs

import (
	"strings"
	"time"

	"github.com/aretw0/octonote/pkg/core"
)

// Record encoding:
//
//	Title: <title>
//	Last edited by <user> on <timestamp>
//	<content, verbatim, may span lines>
const (
	titlePrefix  = "Title: "
	editorPrefix = "Last edited by "

	// TimestampLayout is the record form of the edit time.
	TimestampLayout = core.TimestampLayout
)

// encodeRecord renders a note in the on-disk record format.
// Field validation happens before this point; the encoder never alters values.
func encodeRecord(n core.Note) []byte {
	var b strings.Builder
	b.Grow(len(titlePrefix) + len(n.Title) + len(editorPrefix) + len(n.LastEditedBy) + 32 + len(n.Content))
	b.WriteString(titlePrefix)
	b.WriteString(n.Title)
	b.WriteByte('\n')
	b.WriteString(editorPrefix)
	b.WriteString(n.LastEditedBy)
	b.WriteString(core.RecordDelimiter)
	b.WriteString(FormatTimestamp(n.LastEdited))
	b.WriteByte('\n')
	b.WriteString(n.Content)
	return []byte(b.String())
}

// decodeRecord parses a record. Anything that does not match the header layout
// is reported as a CorruptRecordError and never coerced.
func decodeRecord(id string, data []byte) (core.Note, error) {
	s := string(data)

	titleLine, rest, ok := strings.Cut(s, "\n")
	if !ok {
		return core.Note{}, corrupt(id, "missing editor line")
	}
	title, ok := strings.CutPrefix(titleLine, titlePrefix)
	if !ok {
		return core.Note{}, corrupt(id, "missing \"Title: \" prefix")
	}

	metaLine, content, _ := strings.Cut(rest, "\n")
	meta, ok := strings.CutPrefix(metaLine, editorPrefix)
	if !ok {
		return core.Note{}, corrupt(id, "missing \"Last edited by \" prefix")
	}
	editor, stamp, ok := strings.Cut(meta, core.RecordDelimiter)
	if !ok {
		return core.Note{}, corrupt(id, "missing timestamp separator")
	}
	ts, err := ParseTimestamp(stamp)
	if err != nil {
		return core.Note{}, corrupt(id, "unparseable timestamp "+stamp)
	}

	return core.Note{
		ID:           id,
		Title:        title,
		Content:      content,
		LastEditedBy: editor,
		LastEdited:   ts,
	}, nil
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func corrupt(id, reason string) error {
	return &core.CorruptRecordError{ID: id, Reason: reason}
}
