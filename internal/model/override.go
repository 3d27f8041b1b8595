package model

import "time"

// MaxNoteLength caps the free-text note stored with an override, in runes.
const MaxNoteLength = 1000

// OverrideLogEntry records that the user chose to proceed past a pause.
// It never carries form values.
type OverrideLogEntry struct {
	ID        string    `yaml:"id,omitempty"   json:"id,omitempty"`
	Timestamp time.Time `yaml:"ts"             json:"ts"`
	PageURL   string    `yaml:"url"            json:"url"`
	Note      string    `yaml:"note,omitempty" json:"note,omitempty"`
}

// TruncateNote cuts note to MaxNoteLength runes.
func TruncateNote(note string) string {
	r := []rune(note)
	if len(r) <= MaxNoteLength {
		return note
	}
	return string(r[:MaxNoteLength])
}
