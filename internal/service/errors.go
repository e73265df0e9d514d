package service

import (
	"errors"
	"fmt"
)

var (
	// ErrIntentParse means the upstream intent payload could not be understood
	ErrIntentParse = errors.New("intent parse failed")
	// ErrRetrievalUnavailable means the embedding service or vector index failed
	ErrRetrievalUnavailable = errors.New("semantic retrieval unavailable")
	// ErrFilterUnavailable means the structured store failed
	ErrFilterUnavailable = errors.New("structured filter unavailable")
)

// IntentParseError is fatal for a query: no retrieval is attempted
type IntentParseError struct {
	Stage string // extract or validate
	Err   error
}

func (e *IntentParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrIntentParse, e.Stage, e.Err)
}

func (e *IntentParseError) Unwrap() error { return e.Err }

func (e *IntentParseError) Is(target error) bool { return target == ErrIntentParse }
