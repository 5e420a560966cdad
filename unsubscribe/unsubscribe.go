// Package unsubscribe removes an email from the subscriber store.
package unsubscribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantonganh/newsletter"
)

// Messages shown for each outcome.
const (
	MsgUnsubscribed = "You have been unsubscribed. Sorry to see you go."
	MsgNotFound     = "This email is not in our subscriber list. Please check and try again."
	MsgFailed       = "Something went wrong. Please try again."
	MsgNetworkError = "Network error."
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrBusy          = errors.New("unsubscribe already in progress")
)

// Outcome classifies a store response.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeUnsubscribed
	OutcomeNotFound
)

// Result is what the store answered for one submission.
type Result struct {
	Status  string
	Message string
}

// Outcome maps the response status.
func (r Result) Outcome() Outcome {
	switch r.Status {
	case newsletter.ResponseSuccess:
		return OutcomeUnsubscribed
	case newsletter.ResponseNotFound:
		return OutcomeNotFound
	default:
		return OutcomeFailed
	}
}

// Text is the message to show for the result.
func (r Result) Text() string {
	switch r.Outcome() {
	case OutcomeUnsubscribed:
		return MsgUnsubscribed
	case OutcomeNotFound:
		return MsgNotFound
	}
	if r.Message != "" {
		return r.Message
	}
	return MsgFailed
}

// Flow collects an email and asks the store to unsubscribe it. The email
// format is not checked here.
type Flow struct {
	store  newsletter.Store
	now    func() time.Time
	logger zerolog.Logger

	mu      sync.Mutex
	loading bool
	result  *Result
}

// NewFlow returns a flow posting to store.
func NewFlow(store newsletter.Store, logger zerolog.Logger) *Flow {
	return &Flow{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// Loading reports whether a submission is in flight.
func (f *Flow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Result returns the last result, nil before the first completed submission.
func (f *Flow) Result() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result == nil {
		return nil
	}
	r := *f.result
	return &r
}

// Submit sends one unsubscribe request. Transport failures become a failed
// Result; only the guard errors are returned.
func (f *Flow) Submit(ctx context.Context, email string) (Result, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Result{}, ErrEmailRequired
	}

	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return Result{}, ErrBusy
	}
	f.loading = true
	f.result = nil
	f.mu.Unlock()

	logger := f.logger.With().Str("email", email).Logger()
	logger.Info().Msg("Submitting unsubscribe")

	var result Result
	resp, err := f.store.Unsubscribe(ctx, newsletter.NewUnsubscribeRequest(email, f.now()))
	if err != nil {
		logger.Error().Err(err).Msg("Unsubscribe request failed")
		result = Result{Status: newsletter.ResponseError, Message: MsgNetworkError}
	} else if resp != nil {
		result = Result{Status: resp.Status, Message: resp.Message}
	}
	logger.Info().Str("status", result.Status).Msg("Unsubscribe finished")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	f.result = &result

	return result, nil
}
