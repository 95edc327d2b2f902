package classroom

import "fmt"

// ErrorType classifies failures while talking to the classroom feed
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a classroom feed error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("classroom %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsParseError reports whether err is a page-extraction failure as opposed
// to a transport or HTTP-status failure.
func IsParseError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == ErrorTypeParsing
	}
	return false
}
