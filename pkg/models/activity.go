package models

// ActivityMode is an exercise type presented for a single word
type ActivityMode string

const (
	// ModeFlashcard shows the term and asks the learner to recall the meaning
	ModeFlashcard ActivityMode = "flashcard"
	// ModeMultipleChoice asks for the native-language meaning among options
	ModeMultipleChoice ActivityMode = "multiple_choice"
	// ModeListening plays the term and asks for the meaning
	ModeListening ActivityMode = "listening"
	// ModeSentence asks the learner to build a sentence with the term
	ModeSentence ActivityMode = "sentence"
	// ModeSpeaking asks the learner to pronounce the term
	ModeSpeaking ActivityMode = "speaking"
)

// Activity is one exercise mode applied to one word within a session
type Activity struct {
	WordID      int64        `json:"word_id"`
	Term        string       `json:"term"`
	Translation string       `json:"translation"`
	Mode        ActivityMode `json:"mode"`
	// Options holds the shuffled answer choices of a multiple choice activity
	Options []string `json:"options,omitempty"`
}

// ActivityResult is what the presentation layer reports back for an activity
type ActivityResult struct {
	WordID  int64 `json:"word_id"`
	Quality int   `json:"quality"`
}
