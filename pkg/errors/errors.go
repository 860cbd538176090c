package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeMalformedDate represents unparseable date text on a listing
	ErrorTypeMalformedDate ErrorType = "malformed_date"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a scraper-specific error
type ScrapeError struct {
	Type    ErrorType
	City    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.City, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.City, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// New creates a new ScrapeError
func New(errType ErrorType, city, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		City:    city,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(city, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, city, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(city, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, city, message, err)
}

// NewMalformedDate creates an error for date text that matches neither the
// relative nor the absolute site format
func NewMalformedDate(raw string, err error) *ScrapeError {
	return New(ErrorTypeMalformedDate, "", fmt.Sprintf("unparseable date text %q", raw), err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(city string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, city, message, nil)
}

// NewValidation creates a new validation error
func NewValidation(city, message string) *ScrapeError {
	return New(ErrorTypeValidation, city, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether err is (or wraps) a ScrapeError of the given type
func IsType(err error, errType ErrorType) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Type == errType
	}
	return false
}

// IsMalformedDate reports whether err stems from unparseable date text
func IsMalformedDate(err error) bool {
	return IsType(err, ErrorTypeMalformedDate)
}
