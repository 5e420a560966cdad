package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantonganh/newsletter"
)

// Steps of the form.
const (
	StepPersonal = 1
	StepTopics   = 2
	StepArticles = 3
)

// Submission messages shown to the user.
const (
	MsgSubmitFailed = "Something went wrong. Please try again."
	MsgNetworkError = "Network error. Please check the Apps Script URL and try again."
	MsgSubscribed   = "Thanks for subscribing. Your first digest arrives at 3:30 AM UTC."
)

// Guard errors returned by Submit. No request is sent when one is returned.
var (
	ErrBusy      = errors.New("submission already in progress")
	ErrInvalid   = errors.New("draft is not valid")
	ErrSubmitted = errors.New("already submitted")
)

// Option configures a Wizard.
type Option func(*Wizard)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		w.now = now
	}
}

// WithIDGenerator overrides NewSubscriberID.
func WithIDGenerator(fn func(time.Time) string) Option {
	return func(w *Wizard) {
		w.newID = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

// Wizard owns a Draft for its lifetime and gates its submission step by step.
// It is safe for concurrent use; the store call runs without holding the lock.
type Wizard struct {
	mu sync.Mutex

	store  newsletter.Store
	now    func() time.Time
	newID  func(time.Time) string
	logger zerolog.Logger

	draft       Draft
	step        int
	submitted   bool
	loading     bool
	stepErrors  [3]string
	submitError string
}

// New returns a wizard on step 1 with a default draft.
func New(store newsletter.Store, opts ...Option) *Wizard {
	w := &Wizard{
		store:  store,
		now:    time.Now,
		newID:  NewSubscriberID,
		logger: zerolog.Nop(),
		draft:  NewDraft(),
		step:   StepPersonal,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.clone()
}

// Step returns the current step, 1 to 3.
func (w *Wizard) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Submitted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitted
}

func (w *Wizard) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// StepError returns the last validation message recorded for step.
func (w *Wizard) StepError(step int) string {
	if step < StepPersonal || step > StepArticles {
		return ""
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stepErrors[step-1]
}

// SubmitError returns the submission level error, if any.
func (w *Wizard) SubmitError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitError
}

func (w *Wizard) UpdateField(field Field, value string) {
	w.apply(func(d Draft) Draft { return ApplyUpdateField(d, field, value) })
}

func (w *Wizard) ToggleTag(tag string) {
	w.apply(func(d Draft) Draft { return ApplyToggleTag(d, tag) })
}

// AddCustomTag adds the current custom tag input as a tag.
func (w *Wizard) AddCustomTag() {
	w.apply(func(d Draft) Draft { return ApplyAddCustomTag(d, d.CustomTagInput) })
}

func (w *Wizard) SetTopicCount(tag string, count int) {
	w.apply(func(d Draft) Draft { return ApplySetTopicCount(d, tag, count) })
}

func (w *Wizard) SetArticleMode(mode newsletter.ArticleMode) {
	w.apply(func(d Draft) Draft { return ApplySetArticleMode(d, mode) })
}

func (w *Wizard) SetSimpleCount(count int) {
	w.apply(func(d Draft) Draft { return ApplySetSimpleCount(d, count) })
}

func (w *Wizard) apply(fn func(Draft) Draft) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = fn(w.draft)
}

// Advance validates the current step and moves to the next one on success.
func (w *Wizard) Advance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.validate(w.step) {
		return false
	}
	if w.step < StepArticles {
		w.step++
	}
	return true
}

// Retreat moves back one step and clears the submission error. Step
// validation messages are kept.
func (w *Wizard) Retreat() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step > StepPersonal {
		w.step--
	}
	w.submitError = ""
}

// Submit validates every step and posts the subscription. Remote rejections
// and transport failures are recorded as the submission error; only the
// guard errors are returned.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.loading {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.submitted {
		w.mu.Unlock()
		return ErrSubmitted
	}
	valid := w.validate(StepPersonal)
	valid = w.validate(StepTopics) && valid
	valid = w.validate(StepArticles) && valid
	if !valid {
		w.mu.Unlock()
		return ErrInvalid
	}

	now := w.now()
	req := BuildSubscribeRequest(w.draft, w.newID(now), now)
	w.submitError = ""
	w.loading = true
	w.mu.Unlock()

	logger := w.logger.With().Str("subscriber_id", req.SubscriberID).Logger()
	logger.Info().Msg("Submitting subscription")
	resp, err := w.store.Subscribe(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false

	switch {
	case err != nil:
		logger.Error().Err(err).Msg("Subscription request failed")
		w.submitError = MsgNetworkError
	case resp != nil && resp.Status == newsletter.ResponseSuccess:
		logger.Info().Msg("Subscribed")
		w.submitted = true
	default:
		w.submitError = MsgSubmitFailed
		if resp != nil && resp.Message != "" {
			w.submitError = resp.Message
		}
		logger.Warn().Str("message", w.submitError).Msg("Subscription rejected")
	}

	return nil
}

// validate runs the validator of step and records its message. The caller
// holds the lock.
func (w *Wizard) validate(step int) bool {
	var msg string
	switch step {
	case StepPersonal:
		msg = ValidateStep1(w.draft)
	case StepTopics:
		msg = ValidateStep2(w.draft)
	case StepArticles:
		msg = ValidateStep3(w.draft)
	}
	w.stepErrors[step-1] = msg
	return msg == ""
}
