package http

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind enumerates every way a request can fail.
type Kind int

const (
	KindInvalidRequestPath Kind = iota + 1
	KindInvalidResponseStatus
	KindDataTaskError
	KindNoResponse
	KindInvalidPayload
	KindMissingImage
	KindMissingMockFile
	KindInvalidMockFile
	KindIncorrectHeaders
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequestPath:
		return "invalidRequestPath"
	case KindInvalidResponseStatus:
		return "invalidResponseStatus"
	case KindDataTaskError:
		return "dataTaskError"
	case KindNoResponse:
		return "noResponse"
	case KindInvalidPayload:
		return "invalidPayload"
	case KindMissingImage:
		return "missingImage"
	case KindMissingMockFile:
		return "missingMockFile"
	case KindInvalidMockFile:
		return "invalidMockFile"
	case KindIncorrectHeaders:
		return "incorrectHeaders"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single error type delivered with every Failure.
type Error struct {
	Kind Kind
	// Status is the HTTP status associated with the failure, when there is one.
	Status int
	// FileName is the fixture name for mock file errors.
	FileName string
	// Underlying is the transport or parse error, when there is one.
	Underlying error
	// Expected and Received are set for KindIncorrectHeaders. Received is nil
	// when the request carried no headers.
	Expected map[string]string
	Received map[string]string
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrInvalidRequestPath    = &Error{Kind: KindInvalidRequestPath}
	ErrInvalidResponseStatus = &Error{Kind: KindInvalidResponseStatus}
	ErrDataTask              = &Error{Kind: KindDataTaskError}
	ErrNoResponse            = &Error{Kind: KindNoResponse}
	ErrInvalidPayload        = &Error{Kind: KindInvalidPayload}
	ErrMissingImage          = &Error{Kind: KindMissingImage}
	ErrMissingMockFile       = &Error{Kind: KindMissingMockFile}
	ErrInvalidMockFile       = &Error{Kind: KindInvalidMockFile}
	ErrIncorrectHeaders      = &Error{Kind: KindIncorrectHeaders}
)

func InvalidRequestPath(err error) *Error {
	return &Error{Kind: KindInvalidRequestPath, Underlying: err}
}

func InvalidResponseStatus(status int) *Error {
	return &Error{Kind: KindInvalidResponseStatus, Status: status}
}

func DataTaskError(err error) *Error {
	return &Error{Kind: KindDataTaskError, Underlying: err}
}

func NoResponse(err error) *Error {
	return &Error{Kind: KindNoResponse, Underlying: err}
}

func InvalidPayload(err error) *Error {
	return &Error{Kind: KindInvalidPayload, Underlying: err}
}

func MissingImage(err error) *Error {
	return &Error{Kind: KindMissingImage, Underlying: err}
}

func MissingMockFile(name string) *Error {
	return &Error{Kind: KindMissingMockFile, FileName: name}
}

func InvalidMockFile(name string, err error) *Error {
	return &Error{Kind: KindInvalidMockFile, FileName: name, Underlying: err}
}

func IncorrectHeaders(expected, received map[string]string) *Error {
	return &Error{Kind: KindIncorrectHeaders, Status: 400, Expected: expected, Received: received}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidRequestPath:
		if e.Underlying != nil {
			return fmt.Sprintf("invalid request path: %v", e.Underlying)
		}
		return "invalid request path"
	case KindInvalidResponseStatus:
		return fmt.Sprintf("invalid response status: %d", e.Status)
	case KindDataTaskError:
		return fmt.Sprintf("request failed: %v", e.Underlying)
	case KindNoResponse:
		if e.Underlying != nil {
			return fmt.Sprintf("no response: %v", e.Underlying)
		}
		return "no response"
	case KindInvalidPayload:
		if e.Underlying != nil {
			return fmt.Sprintf("invalid payload: %v", e.Underlying)
		}
		return "invalid payload"
	case KindMissingImage:
		return "missing image"
	case KindMissingMockFile:
		return fmt.Sprintf("expected mockfile with name: %s.json", e.FileName)
	case KindInvalidMockFile:
		return fmt.Sprintf("invalid mockfile with name: %s.json", e.FileName)
	case KindIncorrectHeaders:
		return fmt.Sprintf("incorrect headers: expected %s, received %s",
			formatHeaders(e.Expected), formatHeaders(e.Received))
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// Equal compares every field but Underlying, which is compared by message.
func (e *Error) Equal(other *Error) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Kind != other.Kind || e.Status != other.Status || e.FileName != other.FileName {
		return false
	}
	if (e.Underlying == nil) != (other.Underlying == nil) {
		return false
	}
	if e.Underlying != nil && e.Underlying.Error() != other.Underlying.Error() {
		return false
	}
	return headersEqual(e.Expected, other.Expected) && headersEqual(e.Received, other.Received) &&
		(e.Received == nil) == (other.Received == nil)
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func headersEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func formatHeaders(h map[string]string) string {
	if h == nil {
		return "none"
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+h[k])
	}
	return "[" + strings.Join(pairs, ", ") + "]"
}
