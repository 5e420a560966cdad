package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/newsletter"
)

const invalidBodyMessage = "Request body must be a JSON object."

type envelope struct {
	Action string `json:"action"`
}

// execHandler dispatches on the action field, the way the spreadsheet
// script's doPost does. The body arrives as text/plain.
func (s *Server) execHandler(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return NewError(err, http.StatusBadRequest, invalidBodyMessage)
	}

	switch env.Action {
	case newsletter.ActionSubscribe:
		var req newsletter.SubscribeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return NewError(err, http.StatusBadRequest, invalidBodyMessage)
		}
		return s.subscribeHandler(w, r, &req)
	case newsletter.ActionUnsubscribe:
		var req newsletter.UnsubscribeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return NewError(err, http.StatusBadRequest, invalidBodyMessage)
		}
		return s.unsubscribeHandler(w, r, &req)
	default:
		return NewError(nil, http.StatusBadRequest, fmt.Sprintf("Unknown action: %q", env.Action))
	}
}

func (s *Server) subscribeHandler(w http.ResponseWriter, r *http.Request, req *newsletter.SubscribeRequest) error {
	if err := validateSubscribeRequest(req); err != nil {
		return err
	}

	subscriber, err := newsletter.NewSubscriber(req)
	if err != nil {
		return err
	}

	logger := hlog.FromRequest(r)
	logger.Info().Msgf("Saving new subscriber %s into the database", subscriber.ID)
	if err := s.SubscriberService.Insert(subscriber); err != nil {
		return err
	}

	if s.MailerService != nil {
		logger.Info().Msg("Sending welcome email")
		if err := s.MailerService.SendWelcomeEmail(subscriber); err != nil {
			logger.Error().Err(err).Msg("failed to send welcome email")
			sentry.CaptureException(err)
		}
	}

	writeJSONResponse(w, http.StatusOK, &newsletter.Response{Status: newsletter.ResponseSuccess})
	return nil
}

func validateSubscribeRequest(req *newsletter.SubscribeRequest) error {
	switch {
	case strings.TrimSpace(req.SubscriberID) == "":
		return newsletter.Errorf(newsletter.ErrInvalid, "subscriberId is required.")
	case strings.TrimSpace(req.Email) == "":
		return newsletter.Errorf(newsletter.ErrInvalid, "email is required.")
	case !req.ArticleMode.Valid():
		return newsletter.Errorf(newsletter.ErrInvalid, "Unknown articleMode: %q", req.ArticleMode)
	case len(req.Tags) == 0:
		return newsletter.Errorf(newsletter.ErrInvalid, "At least one tag is required.")
	}
	return nil
}
