package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy. Pipeline stages and the store wrap their failures around
// these sentinels so callers can branch with errors.Is.
var (
	// ErrImageLoad means the input image could not be decoded at all.
	ErrImageLoad = errors.New("image could not be read")
	// ErrPreprocessing means a normalization stage (filter/threshold) failed.
	ErrPreprocessing = errors.New("image preprocessing failed")
	// ErrOCR means the OCR engine itself failed.
	ErrOCR = errors.New("ocr engine failed")
	// ErrValidation means empty or malformed data was submitted to the store.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means an operation referenced an unknown document id.
	ErrNotFound = errors.New("document not found")
	// ErrConsistency means a row/audit-entry pair could not both commit.
	ErrConsistency = errors.New("store consistency violation")
	// ErrNoTextDetected is the informational terminal outcome for a scan
	// whose OCR output cleans down to nothing. It is not a hard failure and
	// nothing is persisted.
	ErrNoTextDetected = errors.New("no text detected")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
