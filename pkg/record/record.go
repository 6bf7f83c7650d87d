// Package record defines the persisted entities scanned by batch jobs and the
// store capabilities jobs are given to read them.
package record

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// KindExploration is the kind under which exploration records are stored.
const KindExploration = "ExplorationModel"

// Sentinel errors shared by all store implementations.
var (
	ErrEmptyID     = errors.New("record id must not be empty")
	ErrEmptyKind   = errors.New("record kind must not be empty")
	ErrInvalidKind = errors.New("record kind must not contain NUL bytes")
	ErrClosed      = errors.New("store is closed")
)

// Record is a single persisted entity. Only ID and Title take part in
// validation; the remaining fields are carried so that fixtures round-trip.
type Record struct {
	ID                  string   `json:"id"                              yaml:"id"`
	Kind                string   `json:"kind"                            yaml:"kind"`
	Title               string   `json:"title"                           yaml:"title"`
	Category            string   `json:"category,omitempty"              yaml:"category,omitempty"`
	Objective           string   `json:"objective,omitempty"             yaml:"objective,omitempty"`
	LanguageCode        string   `json:"language_code,omitempty"         yaml:"language_code,omitempty"`
	Tags                []string `json:"tags,omitempty"                  yaml:"tags,omitempty"`
	Blurb               string   `json:"blurb,omitempty"                 yaml:"blurb,omitempty"`
	AuthorNotes         string   `json:"author_notes,omitempty"          yaml:"author_notes,omitempty"`
	InitStateName       string   `json:"init_state_name,omitempty"       yaml:"init_state_name,omitempty"`
	StatesSchemaVersion int      `json:"states_schema_version,omitempty" yaml:"states_schema_version,omitempty"`
}

// TitleLength returns the length of the title in characters (code points).
func (r Record) TitleLength() int {
	return utf8.RuneCountInString(r.Title)
}

// Validate reports whether the record can be stored.
func (r Record) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}

	if r.Kind == "" {
		return ErrEmptyKind
	}

	// Stores that key records by kind use NUL as the kind terminator.
	if strings.IndexByte(r.Kind, 0) >= 0 {
		return ErrInvalidKind
	}

	return nil
}

// Lister enumerates every record of one kind. It is the only capability a
// read-only job needs.
type Lister interface {
	List(ctx context.Context, kind string) ([]Record, error)
}

// Store is a Lister that also accepts writes.
type Store interface {
	Lister

	// Put inserts or replaces records, keyed by kind and ID.
	Put(ctx context.Context, records ...Record) error

	// Kinds returns every kind that has at least one record.
	Kinds(ctx context.Context) ([]string, error)

	Close() error
}
