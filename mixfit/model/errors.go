package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDecodeOrAnalysis marks a stem whose audio could not be decoded or analysed.
	ErrDecodeOrAnalysis = errors.New("stem decode or analysis failed")

	// ErrEmptyInput is returned when there are no stems to analyse.
	ErrEmptyInput = errors.New("no stems to analyse")

	// ErrContractViolation marks inconsistent internal data, such as a band
	// energy vector with the wrong length.
	ErrContractViolation = errors.New("contract violation")
)

// StemError ties a failure to the stem that caused it.
type StemError struct {
	Stem string
	Err  error
}

func (e *StemError) Error() string {
	return fmt.Sprintf("stem %q: %v", e.Stem, e.Err)
}

func (e *StemError) Unwrap() error {
	return e.Err
}

// NewStemError wraps err for the named stem, tagging it as a decode or
// analysis failure unless it already carries one of the package sentinels.
func NewStemError(stem string, err error) *StemError {
	if !errors.Is(err, ErrDecodeOrAnalysis) && !errors.Is(err, ErrContractViolation) {
		err = fmt.Errorf("%w: %w", ErrDecodeOrAnalysis, err)
	}
	return &StemError{Stem: stem, Err: err}
}

// StemFailure records a stem that was skipped in best-effort mode.
type StemFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}
