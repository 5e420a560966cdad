package http

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/newsletter"
)

type appHandler func(w http.ResponseWriter, r *http.Request) error

// Error adapts fn to a HandlerFunc. Client errors and coded application
// errors are written as a store error response with their status; anything
// else is a 500 reported to Sentry.
func (s *Server) Error(fn appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var ce ClientError
		if !errors.As(toClientError(err), &ce) {
			hlog.FromRequest(r).Error().Err(err).Msg("request failed")
			sentry.CaptureException(err)
			writeJSONResponse(w, http.StatusInternalServerError, &newsletter.Response{
				Status:  newsletter.ResponseError,
				Message: newsletter.ErrorMessage(err),
			})
			return
		}

		hlog.FromRequest(r).Warn().Err(err).Int("status", ce.StatusCode()).Msg("request rejected")
		writeJSONResponse(w, ce.StatusCode(), ce.Response())
	}
}

// ClientError is an error caused by the request itself.
type ClientError interface {
	error
	StatusCode() int
	Response() *newsletter.Response
}

// Error is a ClientError with a message safe to return to the caller.
type Error struct {
	Cause   error
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// StatusCode returns the HTTP status.
func (e *Error) StatusCode() int {
	return e.Status
}

// Response returns the store error body.
func (e *Error) Response() *newsletter.Response {
	return &newsletter.Response{
		Status:  newsletter.ResponseError,
		Message: e.Message,
	}
}

// NewError returns a ClientError with the given status and message.
func NewError(err error, status int, message string) error {
	return &Error{
		Cause:   err,
		Message: message,
		Status:  status,
	}
}

var codeStatus = map[string]int{
	newsletter.ErrInvalid:  http.StatusBadRequest,
	newsletter.ErrNotFound: http.StatusNotFound,
	newsletter.ErrConflict: http.StatusConflict,
}

// toClientError turns a coded *newsletter.Error into a ClientError.
func toClientError(err error) error {
	if status, ok := codeStatus[newsletter.ErrorCode(err)]; ok {
		return NewError(err, status, newsletter.ErrorMessage(err))
	}
	return err
}
