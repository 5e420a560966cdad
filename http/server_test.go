package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantonganh/newsletter"
	newslettermock "github.com/quantonganh/newsletter/mock"
	"github.com/quantonganh/newsletter/pkg/hash"
)

const testSecret = "da02e221bc331c9875c5e1299fa8d765"

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestServer(subscriberService newsletter.SubscriberService, mailerService newsletter.MailerService) *Server {
	s := NewServer(zerolog.Nop())
	s.HMACSecret = testSecret
	s.Now = func() time.Time { return testNow }
	s.SubscriberService = subscriberService
	s.MailerService = mailerService
	return s
}

func post(t *testing.T, s *Server, body string) (int, *newsletter.Response) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, "/exec", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp newsletter.Response
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&resp))
	return w.Code, &resp
}

func subscribeBody(t *testing.T) string {
	t.Helper()

	data, err := json.Marshal(&newsletter.SubscribeRequest{
		Action:       newsletter.ActionSubscribe,
		SubscriberID: "SUB_1772357400000",
		FirstName:    "Ana",
		LastName:     "Lee",
		Email:        "ana@example.com",
		Tags:         []string{"AI", "React"},
		ArticleMode:  newsletter.ModeSimple,
		TotalCount:   10,
		Status:       newsletter.StatusActive,
		SubscribedAt: "2026-03-01T09:30:00.000Z",
	})
	require.NoError(t, err)
	return string(data)
}

func TestSubscribeHandler(t *testing.T) {
	subscriberService := new(newslettermock.SubscriberService)
	subscriberService.On("Insert", mock.MatchedBy(func(s *newsletter.Subscriber) bool {
		return s.ID == "SUB_1772357400000" &&
			s.Email == "ana@example.com" &&
			s.Status == newsletter.StatusActive &&
			s.TotalCount == 10 &&
			s.SubscribedAt.Equal(testNow) &&
			s.UnsubscribedAt == nil
	})).Return(nil)

	mailerService := new(newslettermock.MailerService)
	mailerService.On("SendWelcomeEmail", mock.Anything).Return(nil)

	s := newTestServer(subscriberService, mailerService)
	code, resp := post(t, s, subscribeBody(t))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, newsletter.ResponseSuccess, resp.Status)
	subscriberService.AssertExpectations(t)
	mailerService.AssertExpectations(t)
}

func TestSubscribeHandlerMailFailureStillSucceeds(t *testing.T) {
	subscriberService := new(newslettermock.SubscriberService)
	subscriberService.On("Insert", mock.Anything).Return(nil)

	mailerService := new(newslettermock.MailerService)
	mailerService.On("SendWelcomeEmail", mock.Anything).Return(errors.New("smtp: 535"))

	s := newTestServer(subscriberService, mailerService)
	code, resp := post(t, s, subscribeBody(t))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, newsletter.ResponseSuccess, resp.Status)
}

func TestSubscribeHandlerConflict(t *testing.T) {
	subscriberService := new(newslettermock.SubscriberService)
	subscriberService.On("Insert", mock.Anything).
		Return(newsletter.Errorf(newsletter.ErrConflict, "Subscriber %s already exists.", "SUB_1772357400000"))

	s := newTestServer(subscriberService, nil)
	code, resp := post(t, s, subscribeBody(t))

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, newsletter.ResponseError, resp.Status)
	assert.Equal(t, "Subscriber SUB_1772357400000 already exists.", resp.Message)
}

func TestExecHandlerRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"not json", "hello", invalidBodyMessage},
		{"unknown action", `{"action":"resubscribe"}`, `Unknown action: "resubscribe"`},
		{"missing email", `{"action":"subscribe","subscriberId":"SUB_1","articleMode":"simple","tags":["AI"]}`, "email is required."},
		{"bad mode", `{"action":"subscribe","subscriberId":"SUB_1","email":"a@b.co","articleMode":"daily","tags":["AI"]}`, `Unknown articleMode: "daily"`},
		{"missing unsubscribe email", `{"action":"unsubscribe","email":" "}`, "email is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(new(newslettermock.SubscriberService), nil)
			code, resp := post(t, s, tt.body)

			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, newsletter.ResponseError, resp.Status)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestUnsubscribeAction(t *testing.T) {
	email := "ana@example.com"
	at := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	t.Run("active subscriber", func(t *testing.T) {
		subscriberService := new(newslettermock.SubscriberService)
		subscriberService.On("FindByEmail", email).
			Return([]newsletter.Subscriber{{ID: "SUB_1", Email: email, Status: newsletter.StatusActive}}, nil)
		subscriberService.On("Unsubscribe", email, at).Return(nil)

		mailerService := new(newslettermock.MailerService)
		mailerService.On("SendGoodbyeEmail", email).Return(nil)

		s := newTestServer(subscriberService, mailerService)
		code, resp := post(t, s, fmt.Sprintf(`{"action":"unsubscribe","email":%q,"unsubscribedAt":"2026-04-02T08:00:00.000Z"}`, email))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, newsletter.ResponseSuccess, resp.Status)
		subscriberService.AssertExpectations(t)
		mailerService.AssertExpectations(t)
	})

	t.Run("already unsubscribed", func(t *testing.T) {
		subscriberService := new(newslettermock.SubscriberService)
		subscriberService.On("FindByEmail", email).
			Return([]newsletter.Subscriber{{ID: "SUB_1", Email: email, Status: newsletter.StatusUnsubscribed}}, nil)

		s := newTestServer(subscriberService, nil)
		code, resp := post(t, s, fmt.Sprintf(`{"action":"unsubscribe","email":%q}`, email))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, newsletter.ResponseNotFound, resp.Status)
		subscriberService.AssertNotCalled(t, "Unsubscribe", mock.Anything, mock.Anything)
	})

	t.Run("missing timestamp falls back to now", func(t *testing.T) {
		subscriberService := new(newslettermock.SubscriberService)
		subscriberService.On("FindByEmail", email).
			Return([]newsletter.Subscriber{{ID: "SUB_1", Email: email, Status: newsletter.StatusActive}}, nil)
		subscriberService.On("Unsubscribe", email, testNow).Return(nil)

		s := newTestServer(subscriberService, nil)
		code, _ := post(t, s, fmt.Sprintf(`{"action":"unsubscribe","email":%q}`, email))

		assert.Equal(t, http.StatusOK, code)
		subscriberService.AssertExpectations(t)
	})

	t.Run("row taken by a concurrent unsubscribe", func(t *testing.T) {
		subscriberService := new(newslettermock.SubscriberService)
		subscriberService.On("FindByEmail", email).
			Return([]newsletter.Subscriber{{ID: "SUB_1", Email: email, Status: newsletter.StatusActive}}, nil)
		subscriberService.On("Unsubscribe", email, testNow).
			Return(newsletter.Errorf(newsletter.ErrNotFound, "No active subscription for %s", email))

		mailerService := new(newslettermock.MailerService)

		s := newTestServer(subscriberService, mailerService)
		code, resp := post(t, s, fmt.Sprintf(`{"action":"unsubscribe","email":%q}`, email))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, &newsletter.Response{Status: newsletter.ResponseNotFound}, resp)
		mailerService.AssertNotCalled(t, "SendGoodbyeEmail", mock.Anything)
	})
}

func TestUnsubscribeLinkHandler(t *testing.T) {
	email := "foo@gmail.com"
	hashValue, err := hash.ComputeHmac256(email, testSecret)
	require.NoError(t, err)

	subscriberService := new(newslettermock.SubscriberService)
	subscriberService.On("FindByEmail", email).
		Return([]newsletter.Subscriber{{ID: "SUB_1", Email: email, Status: newsletter.StatusActive}}, nil)
	subscriberService.On("Unsubscribe", email, testNow).Return(nil)

	s := newTestServer(subscriberService, nil)

	for _, tc := range []struct {
		hash    string
		code    int
		message string
	}{
		{"bogus", http.StatusBadRequest, invalidUnsubscribeMessage},
		{hashValue, http.StatusOK, unsubscribeMessage},
	} {
		target := fmt.Sprintf("/unsubscribe?email=%s&hash=%s", url.QueryEscape(email), url.QueryEscape(tc.hash))
		req, err := http.NewRequest(http.MethodGet, target, nil)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		var resp newsletter.Response
		require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&resp))
		assert.Equal(t, tc.code, w.Code)
		assert.Equal(t, tc.message, resp.Message)
	}
	subscriberService.AssertNumberOfCalls(t, "Unsubscribe", 1)
}

type plannerFunc func() (int, error)

func (f plannerFunc) Run(_ context.Context) (int, error) { return f() }

func TestRunDigestHandler(t *testing.T) {
	s := newTestServer(new(newslettermock.SubscriberService), nil)

	req, err := http.NewRequest(http.MethodPost, "/digest/run", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.Planner = plannerFunc(func() (int, error) { return 3, nil })
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp newsletter.Response
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&resp))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Planned 3 digests", resp.Message)
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil, nil)

	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Request-Id"))
}

func TestErrorHandler(t *testing.T) {
	s := newTestServer(nil, nil)

	for _, tc := range []struct {
		name string
		err  error
		code int
		body string
	}{
		{"client", NewError(nil, http.StatusBadRequest, "bad"), http.StatusBadRequest, `{"status":"error","message":"bad"}`},
		{"conflict", newsletter.Errorf(newsletter.ErrConflict, "taken"), http.StatusConflict, `{"status":"error","message":"taken"}`},
		{"not found", &newsletter.Error{Op: "find", Err: newsletter.Errorf(newsletter.ErrNotFound, "gone")}, http.StatusNotFound, `{"status":"error","message":"gone"}`},
		{"internal", errors.New("disk full"), http.StatusInternalServerError, `{"status":"error","message":"An internal error has occurred."}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := s.Error(func(w http.ResponseWriter, r *http.Request) error { return tc.err })

			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodPost, "/exec", nil))

			assert.Equal(t, tc.code, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestURL(t *testing.T) {
	s := newTestServer(nil, nil)
	assert.Equal(t, "http://localhost:0", s.URL())

	s.Domain = "news.example.com"
	assert.Equal(t, "https://news.example.com", s.URL())
}

func TestListenBeforeServe(t *testing.T) {
	s := newTestServer(nil, nil)
	s.Addr = "127.0.0.1:0"

	require.NoError(t, s.Listen())
	assert.NotEqual(t, "http://localhost:0", s.URL(), "port is known once listening")

	s.Serve()
	defer s.Close()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	res, err := client.Get(fmt.Sprintf("http://%s/health", s.ln.Addr()))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
