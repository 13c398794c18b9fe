// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrStoriesUnsupported is returned for permalinks pointing at a story
var ErrStoriesUnsupported = errors.New("Stories boosting is not supported")

// GraphErrorKind classifies how a Graph API call failed
type GraphErrorKind int

const (
	// KindAPI: the API answered with a non-200 status
	KindAPI GraphErrorKind = iota
	// KindRequest: the request never got a response (dial, TLS, timeout)
	KindRequest
	// KindUnexpected: anything else, e.g. a 200 with an unreadable body
	KindUnexpected
	// KindUnsupportedMethod: caller asked for a method the wrapper does not speak
	KindUnsupportedMethod
)

// GraphError is the failure side of every Graph API call
type GraphError struct {
	Kind    GraphErrorKind
	Code    int
	Message string
}

func (e *GraphError) Error() string {
	switch e.Kind {
	case KindAPI:
		return fmt.Sprintf("API Error %d: %s", e.Code, e.Message)
	case KindRequest:
		return "Request error: " + e.Message
	case KindUnsupportedMethod:
		return "Unsupported HTTP method: " + e.Message
	default:
		return "Unexpected error: " + e.Message
	}
}

// NewAPIError builds a KindAPI error
func NewAPIError(code int, message string) error {
	return &GraphError{Kind: KindAPI, Code: code, Message: message}
}

// NewRequestError builds a KindRequest error
func NewRequestError(err error) error {
	return &GraphError{Kind: KindRequest, Message: err.Error()}
}

// NewUnexpectedError builds a KindUnexpected error
func NewUnexpectedError(err error) error {
	return &GraphError{Kind: KindUnexpected, Message: err.Error()}
}

// IsGraphError reports whether err carries a GraphError
func IsGraphError(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge)
}

// ValidationError represents invalid caller input
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError is a helper constructor
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ErrMerchantNotFound is returned for an unknown merchant key
type ErrMerchantNotFound struct {
	Key string
}

func (e *ErrMerchantNotFound) Error() string {
	return fmt.Sprintf("Unknown merchant: %s", e.Key)
}

// Helper constructor
func NewMerchantNotFound(key string) error {
	return &ErrMerchantNotFound{Key: key}
}

// ErrRunNotFound is returned when a booster run id is not in the ledger
type ErrRunNotFound struct {
	ID string
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("Run with ID %s not found", e.ID)
}

func NewRunNotFound(id string) error {
	return &ErrRunNotFound{ID: id}
}

// IsMerchantNotFound reports whether err is an unknown merchant failure
func IsMerchantNotFound(err error) bool {
	var nf *ErrMerchantNotFound
	return errors.As(err, &nf)
}
