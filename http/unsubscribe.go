package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/pkg/hash"
)

const (
	unsubscribeMessage        = "Unsubscribed"
	invalidUnsubscribeMessage = "Either email or hash is invalid."
)

func (s *Server) unsubscribeHandler(w http.ResponseWriter, r *http.Request, req *newsletter.UnsubscribeRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return NewError(nil, http.StatusBadRequest, "email is required.")
	}

	at, err := newsletter.ParseTimestamp(req.UnsubscribedAt)
	if err != nil {
		at = s.Now()
	}

	resp, err := s.unsubscribe(r, email, at)
	if err != nil {
		return err
	}

	writeJSONResponse(w, http.StatusOK, resp)
	return nil
}

// unsubscribeLinkHandler serves the signed link embedded in the welcome email.
func (s *Server) unsubscribeLinkHandler(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	email := query.Get("email")
	hashValue := query.Get("hash")
	valid, err := hash.Verify(email, hashValue, s.HMACSecret)
	if err != nil {
		return err
	}

	if email == "" || !valid {
		return NewError(nil, http.StatusBadRequest, invalidUnsubscribeMessage)
	}

	resp, err := s.unsubscribe(r, email, s.Now())
	if err != nil {
		return err
	}
	if resp.Status == newsletter.ResponseSuccess {
		resp.Message = unsubscribeMessage
	}

	writeJSONResponse(w, http.StatusOK, resp)
	return nil
}

// unsubscribe marks every active row of email as unsubscribed. Rows are
// matched by email, not by subscriber id.
func (s *Server) unsubscribe(r *http.Request, email string, at time.Time) (*newsletter.Response, error) {
	logger := hlog.FromRequest(r)

	subscribers, err := s.SubscriberService.FindByEmail(email)
	if err != nil {
		return nil, err
	}

	active := false
	for _, sub := range subscribers {
		if sub.Status == newsletter.StatusActive {
			active = true
			break
		}
	}
	if !active {
		logger.Info().Msgf("No active subscription for %s", email)
		return &newsletter.Response{Status: newsletter.ResponseNotFound}, nil
	}

	logger.Info().Msgf("Updating status to %s", newsletter.StatusUnsubscribed)
	if err := s.SubscriberService.Unsubscribe(email, at); err != nil {
		// A concurrent unsubscribe may have taken the last active row.
		if newsletter.ErrorCode(err) == newsletter.ErrNotFound {
			return &newsletter.Response{Status: newsletter.ResponseNotFound}, nil
		}
		return nil, err
	}

	if s.MailerService != nil {
		if err := s.MailerService.SendGoodbyeEmail(email); err != nil {
			logger.Error().Err(err).Msg("failed to send goodbye email")
			sentry.CaptureException(err)
		}
	}

	return &newsletter.Response{Status: newsletter.ResponseSuccess}, nil
}
