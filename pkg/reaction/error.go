package reaction

import "fmt"

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// Fatal errors - the interpreter stops
	ErrorStackOverflow  ErrorType = "STACK_OVERFLOW"
	ErrorMalformedTree  ErrorType = "MALFORMED_REACTION"
	ErrorInvalidJump    ErrorType = "INVALID_JUMP"
	ErrorUnknownCommand ErrorType = "UNKNOWN_COMMAND"
	ErrorBattleStep     ErrorType = "BATTLE_STEP_INCONSISTENT"

	// Non-fatal errors - logged, a default is substituted
	ErrorUnknownID        ErrorType = "UNKNOWN_ID"
	ErrorInvalidOperation ErrorType = "INVALID_OPERATION"
	ErrorUnavailable      ErrorType = "UNAVAILABLE"
)

// RuntimeError is an error raised while decoding or interpreting a reaction.
type RuntimeError struct {
	Type     ErrorType
	Message  string
	Reaction int // reaction id if available, 0 otherwise
	Index    int // command index if available, -1 otherwise
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("[%s] %s at reaction %d command %d", e.Type, e.Message, e.Reaction, e.Index)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// IsFatal returns true if the error must abort the interpreter.
func (e *RuntimeError) IsFatal() bool {
	switch e.Type {
	case ErrorStackOverflow, ErrorMalformedTree, ErrorInvalidJump, ErrorUnknownCommand, ErrorBattleStep:
		return true
	default:
		return false
	}
}

// NewRuntimeError creates a RuntimeError without position information.
func NewRuntimeError(errType ErrorType, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Index:   -1,
	}
}

// At returns a copy of e located at a reaction command.
func (e *RuntimeError) At(reactionID, index int) *RuntimeError {
	c := *e
	c.Reaction = reactionID
	c.Index = index
	return &c
}
