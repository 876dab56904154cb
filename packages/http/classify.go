package http

import (
	"errors"

	"github.com/abdul-hamid-achik/teapot/packages/payload"
)

// Classify maps an Outcome onto a Result. It returns false when the outcome
// is a cancellation, in which case no result must be delivered.
func Classify(out *Outcome) (Result, bool) {
	if out == nil {
		return NewFailure(NoResponse(nil)), true
	}

	if !out.HasResponse() {
		if IsCancellation(out.Err) {
			return nil, false
		}
		var te *Error
		if errors.As(out.Err, &te) && te.Kind != KindDataTaskError {
			return NewFailure(te), true
		}
		return &Failure{StatusCode: 400, Error: NoResponse(out.Err)}, true
	}

	var body *payload.Payload
	if decoded, ok := payload.Decode(out.Body); ok {
		body = decoded
	}

	if out.Err != nil {
		var te *Error
		if !errors.As(out.Err, &te) {
			te = DataTaskError(out.Err)
		}
		return &Failure{Data: body, StatusCode: out.StatusCode, Headers: out.Headers, Error: te}, true
	}

	if !out.IsSuccess() {
		return &Failure{
			Data:       body,
			StatusCode: out.StatusCode,
			Headers:    out.Headers,
			Error:      InvalidResponseStatus(out.StatusCode),
		}, true
	}

	return &Success{Data: body, StatusCode: out.StatusCode, Headers: out.Headers}, true
}
