package models

// Well-known loop record fields
const (
	FieldVoices        = "voices"
	FieldID            = "id"
	FieldName          = "name"
	FieldLengthInBeats = "length_in_beats"
)

// RecordExt is the suffix that marks a directory entry as a loop record
const RecordExt = ".json"

// DefaultLengthInBeats is the loop length the application expects when none was recorded
const DefaultLengthInBeats = 16

// Idempotency classifies what happens when a transformation is applied twice
type Idempotency string

const (
	// Idempotent transformations produce the same record when reapplied
	Idempotent Idempotency = "idempotent"
	// NonIdempotent transformations produce a different record on every run
	NonIdempotent Idempotency = "non-idempotent"
)
