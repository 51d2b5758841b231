package question

import "errors"

// ErrInvalid is returned when a question set cannot be prepared.
var ErrInvalid = errors.New("invalid question set")

// Source is a question as authored by the host, before shuffling.
type Source struct {
	Text         string   `json:"text" yaml:"text"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correct_answer" yaml:"correct_answer"`
	TimeLimit    int      `json:"time_limit" yaml:"time_limit"` // seconds
}

// Question is the per-session copy delivered to players. It is never mutated
// after Prepare returns it.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"-"`
	TimeLimit    int      `json:"time_limit"`
}

// Set is a titled list of source questions, the unit a host uploads.
type Set struct {
	Title     string   `json:"title" yaml:"title"`
	Questions []Source `json:"questions" yaml:"questions"`
}

// OptionText returns the option label for idx, or "" when idx is out of range.
func (q Question) OptionText(idx int) string {
	if idx < 0 || idx >= len(q.Options) {
		return ""
	}
	return q.Options[idx]
}
