package window

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a bad generator configuration, such as a
	// non-positive radius.
	ErrInvalidArgument = errors.New("invalid_argument")

	// ErrInvalidToken reports a token id outside the valid identifier range.
	ErrInvalidToken = errors.New("invalid_token")
)

type invalidArgumentError struct {
	msg string
}

func (e invalidArgumentError) Error() string {
	return e.msg
}

func (e invalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalidArgument(msg string) error {
	return invalidArgumentError{msg: msg}
}

// TokenError identifies the first invalid token found in a sequence.
type TokenError struct {
	Position  int
	Value     int32
	VocabSize int
}

func (e *TokenError) Error() string {
	if e.VocabSize > 0 {
		return fmt.Sprintf("token %d at position %d outside vocabulary of size %d", e.Value, e.Position, e.VocabSize)
	}
	return fmt.Sprintf("token %d at position %d is negative", e.Value, e.Position)
}

func (e *TokenError) Unwrap() error {
	return ErrInvalidToken
}
