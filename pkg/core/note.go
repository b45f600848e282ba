// Package core holds the note domain: entities, the storage and locking
// contracts, and the Service that coordinates them.
package core

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the wire and record form of LastEdited: UTC, millisecond
// precision, trailing zeros kept.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Note is the central entity of the domain.
// The on-disk record always carries Title, LastEditedBy+LastEdited and Content,
// in that order.
type Note struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Content      string    `json:"content" yaml:"content"`
	LastEditedBy string    `json:"lastEditedBy" yaml:"lastEditedBy"`
	LastEdited   time.Time `json:"lastEdited" yaml:"lastEdited"`
}

// Summary is the listing view of a note. It never carries content.
type Summary struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	LastEditedBy string    `json:"lastEditedBy" yaml:"lastEditedBy"`
	LastEdited   time.Time `json:"lastEdited" yaml:"lastEdited"`
}

// MarshalJSON renders LastEdited in TimestampLayout.
func (n Note) MarshalJSON() ([]byte, error) {
	type plain Note
	return json.Marshal(struct {
		plain
		LastEdited string `json:"lastEdited"`
	}{plain(n), n.LastEdited.UTC().Format(TimestampLayout)})
}

// MarshalJSON renders LastEdited in TimestampLayout.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		LastEdited string `json:"lastEdited"`
	}{plain(s), s.LastEdited.UTC().Format(TimestampLayout)})
}

// Summary returns the listing view of n.
func (n Note) Summary() Summary {
	return Summary{
		ID:           n.ID,
		Title:        n.Title,
		LastEditedBy: n.LastEditedBy,
		LastEdited:   n.LastEdited,
	}
}

// EventType represents the type of change observed on a record.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a note record.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}

// LockStatus is the observable state of a note lock.
type LockStatus struct {
	Locked     bool      `json:"locked"`
	Holder     string    `json:"user,omitempty"`
	AcquiredAt time.Time `json:"acquiredAt,omitzero"`
	LastSeen   time.Time `json:"lastSeen,omitzero"`
}

// TransferResult reports the outcome of an ownership transfer.
type TransferResult struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Transferred int      `json:"transferred"`
	NoteIDs     []string `json:"noteIds,omitempty"`
}
