package service

import "errors"

// State is the position of an import session in the pipeline.
type State int32

const (
	StateIdle State = iota
	StateDetected
	StateExtracted
	StateNeedsMapping
	StateNormalized
	StateDeduplicated
	StateCategorized
	StateReadyToCommit
	StateCommitted
	StateFailed
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateDetected:      "detected",
	StateExtracted:     "extracted",
	StateNeedsMapping:  "needs_mapping",
	StateNormalized:    "normalized",
	StateDeduplicated:  "deduplicated",
	StateCategorized:   "categorized",
	StateReadyToCommit: "ready_to_commit",
	StateCommitted:     "committed",
	StateFailed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the session can make no further progress.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

var (
	ErrSessionSuperseded = errors.New("import session superseded by a newer file")
	ErrNoSession         = errors.New("no import session is open")
	ErrInvalidState      = errors.New("operation not allowed in the current session state")
	ErrInvalidMapping    = errors.New("column mapping needs a date column and an amount, debit or credit column")
	ErrNeedsMapping      = errors.New("a column mapping must be confirmed before importing")
	ErrNoTransactions    = errors.New("no usable transactions found")
	ErrInputTooLarge     = errors.New("statement file exceeds the size limit")
)
