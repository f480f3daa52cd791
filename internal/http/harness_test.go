package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/persistence/memory"
	"github.com/example/erm/internal/report"
	"github.com/example/erm/internal/testfixtures"
)

var testHashKey = []byte("0123456789abcdef0123456789abcdef")

type apiHarness struct {
	t       *testing.T
	clock   *testfixtures.Clock
	store   *memory.Storage
	handler http.Handler
}

func fakeVerify(hash, password string) error {
	if hash != "hash-"+password {
		return application.ErrPasswordMismatch
	}
	return nil
}

func fakeHash(password string) (string, error) {
	return "hash-" + password, nil
}

// newAPIHarness wires the real services over a memory store. Users boss
// (manager), root (admin) and engineer001 (engineer) exist; each signs in
// with their login as password.
func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	store := memory.New(clock.Now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var limits [12]int
	for i := range limits {
		limits[i] = 168
	}
	policy := report.Policy{HourLimits: limits, PremadeCategories: []string{"Vacation"}}

	auth := application.NewAuthServiceWithLogger(store, fakeVerify, clock.Now, logger)
	users := application.NewUserServiceWithLogger(store, fakeHash, logger)
	engineers := application.NewEngineerServiceWithLogger(store, logger)
	bookings := application.NewBookingServiceWithLogger(store, store, nil, testfixtures.NewSeriesIDs("series").Next, clock.Now, logger)
	reports := application.NewWorkReportServiceWithLogger(store, store, store, policy, logger)
	sessions := NewSessions(testHashKey, nil, time.Hour, clock.Now)

	handler := NewRouter(RouterConfig{
		Auth:       NewAuthHandler(auth, sessions, logger),
		Users:      NewUserHandler(users, logger),
		Engineers:  NewEngineerHandler(engineers, bookings, logger),
		Bookings:   NewBookingHandler(bookings, logger),
		Reports:    NewReportHandler(reports, logger),
		Health:     Health(nil),
		Session:    RequireSession(sessions, auth, logger),
		Middleware: []func(http.Handler) http.Handler{RequestLogger(logger)},
	})

	h := &apiHarness{t: t, clock: clock, store: store, handler: handler}
	ctx := context.Background()
	for _, user := range []persistence.User{
		testfixtures.NewUser("boss", "manager"),
		testfixtures.NewUser("root", "admin"),
		testfixtures.NewUser("engineer001", "engineer"),
	} {
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser(%s): %v", user.Login, err)
		}
	}
	if err := store.CreateEngineer(ctx, testfixtures.NewEngineer(
		testfixtures.WithEngineerLogin("engineer001"),
		testfixtures.WithEngineerName("Ivan", "Petrov", ""),
	)); err != nil {
		t.Fatalf("CreateEngineer: %v", err)
	}
	return h
}

func (h *apiHarness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) signIn(login string) string {
	h.t.Helper()

	rec := h.do(http.MethodPost, "/api/sessions", "", loginRequest{Login: login, Password: login})
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("sign in %s: expected 201, got %d: %s", login, rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decode(h.t, rec, &resp)
	if resp.Token == "" {
		h.t.Fatalf("sign in %s: empty token", login)
	}
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
