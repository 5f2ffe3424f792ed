package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Error classes shared by the adapters, the state store and the scheduler.
var (
	// ErrNotFound indicates the entity does not exist upstream
	ErrNotFound = errors.New("not found")
	// ErrTransientFetch indicates a network failure, timeout or non-2xx answer
	ErrTransientFetch = errors.New("transient fetch error")
	// ErrMalformedResponse indicates an upstream payload with an unexpected shape
	ErrMalformedResponse = errors.New("malformed response")
	// ErrDelivery indicates a notification could not be delivered
	ErrDelivery = errors.New("delivery failed")
	// ErrStore indicates the persistence layer is unavailable
	ErrStore = errors.New("state store error")
	// ErrCorruptFile indicates a file exists but does not decode
	ErrCorruptFile = errors.New("corrupt file")
	// ErrInvalidConfiguration indicates configuration issues
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ValidationError represents validation errors with field-specific information
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is match validation failures as invalid input.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Section string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Section != "" && e.Field != "" {
		return fmt.Sprintf("configuration error in section '%s', field '%s': %s", e.Section, e.Field, e.Reason)
	} else if e.Section != "" {
		return fmt.Sprintf("configuration error in section '%s': %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(section, field, reason string) *ConfigurationError {
	return &ConfigurationError{
		Section: section,
		Field:   field,
		Reason:  reason,
	}
}

// NetworkError represents a transport fault talking to an upstream service.
// It always classifies as ErrTransientFetch.
type NetworkError struct {
	URL     string
	Reason  string
	Wrapped error
}

func (e *NetworkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("network error for '%s': %s: %v", e.URL, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("network error for '%s': %s", e.URL, e.Reason)
}

func (e *NetworkError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrTransientFetch}
	}
	return []error{ErrTransientFetch, e.Wrapped}
}

// NewNetworkError creates a new network error
func NewNetworkError(url, reason string, wrapped error) *NetworkError {
	return &NetworkError{
		URL:     url,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// HTTPError represents a non-2xx answer. Kind holds the taxonomy class it maps to.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
	Kind       error
}

func (e *HTTPError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("HTTP %d error for '%s': %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d error: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

// NewHTTPErrorWithURL creates a new HTTP error with URL context
func NewHTTPErrorWithURL(statusCode int, message, url string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		URL:        url,
		Kind:       ClassifyHTTPStatus(statusCode),
	}
}

// ClassifyHTTPStatus maps an upstream status code to its error class.
// 404 is NotFound, every other non-2xx is transient. 2xx yields nil.
func ClassifyHTTPStatus(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransientFetch
	}
}

// NewMalformedResponseError reports an upstream payload that could not be decoded.
func NewMalformedResponseError(url string, err error) error {
	return fmt.Errorf("malformed response from '%s': %w", url, errors.Join(ErrMalformedResponse, err))
}

// NewDeliveryError reports a failed notification send.
func NewDeliveryError(topic string, statusCode int, err error) error {
	if err != nil {
		return fmt.Errorf("delivery to topic '%s' failed: %w", topic, errors.Join(ErrDelivery, err))
	}
	return fmt.Errorf("delivery to topic '%s' failed with status %d: %w", topic, statusCode, ErrDelivery)
}

// NewStoreError wraps a persistence failure.
func NewStoreError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStore, err))
}

// IsFetchFailure reports whether err belongs to one of the classes that make an
// entity check end as FetchFailed.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransientFetch) || errors.Is(err, ErrMalformedResponse)
}

// CombineErrors combines multiple errors into a single error with formatted
// message. The result still matches each of its parts with errors.Is.
func CombineErrors(errs []error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}

	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return &multiError{errs: nonNil}
	}
}

type multiError struct {
	errs []error
}

func (m *multiError) Error() string {
	messages := make([]string, 0, len(m.errs))
	for _, err := range m.errs {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("multiple errors occurred: [%s]", strings.Join(messages, "; "))
}

func (m *multiError) Unwrap() []error {
	return m.errs
}

// ErrorCollector helps collect multiple errors during processing. It is safe
// for concurrent use and its zero value is ready to use.
type ErrorCollector struct {
	mu     sync.Mutex
	errors []error
}

// NewErrorCollector creates a new ErrorCollector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// Add adds an error to the collector
func (ec *ErrorCollector) Add(err error) {
	if err == nil {
		return
	}
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.errors = append(ec.errors, err)
}

// AddWithContext adds an error with additional context
func (ec *ErrorCollector) AddWithContext(err error, context string) {
	if err == nil {
		return
	}
	ec.Add(WrapError(err, context))
}

// HasErrors returns true if any errors were collected
func (ec *ErrorCollector) HasErrors() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return len(ec.errors) > 0
}

// Error returns a combined error from all collected errors
func (ec *ErrorCollector) Error() error {
	return CombineErrors(ec.Errors())
}

// Errors returns all collected errors
func (ec *ErrorCollector) Errors() []error {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return append([]error(nil), ec.errors...)
}
