package response

import (
	"fmt"

	"playlist_auth/internal/lib/validation"
)

type Response struct {
	Status string                  `json:"status"`
	Error  string                  `json:"error,omitempty"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError flattens field errors into a single message and also
// returns them in structured form.
func ValidationError(errs []validation.FieldError) Response {
	msg := "validation failed"
	if len(errs) > 0 {
		msg = fmt.Sprintf("field %s: %s", errs[0].Field, errs[0].Message)
		if len(errs) > 1 {
			msg = fmt.Sprintf("%s (and %d more)", msg, len(errs)-1)
		}
	}

	return Response{
		Status: StatusError,
		Error:  msg,
		Fields: errs,
	}
}
