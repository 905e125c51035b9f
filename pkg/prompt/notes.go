package prompt

import (
	"encoding/json"
	"fmt"
	"io"
)

// Note is a passage the user highlighted while reading, optionally with the
// explanation generated for it earlier.
type Note struct {
	Text        string `json:"text"`
	Page        int    `json:"page"`
	Explanation string `json:"explanation,omitempty"`
}

// LoadNotes decodes a JSON array of notes.
func LoadNotes(r io.Reader) ([]Note, error) {
	var notes []Note
	if err := json.NewDecoder(r).Decode(&notes); err != nil {
		return nil, fmt.Errorf("decoding notes: %w", err)
	}
	return notes, nil
}
