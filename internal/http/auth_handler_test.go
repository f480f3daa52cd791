package http

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestAuthHandler_CreateSession(t *testing.T) {
	t.Parallel()

	t.Run("issues a token in the body, header and cookie", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		rec := h.do(http.MethodPost, "/api/sessions", "", loginRequest{Login: " boss ", Password: "boss"})
		expectStatus(t, rec, http.StatusCreated)

		var resp loginResponse
		decode(t, rec, &resp)
		if resp.Principal.Login != "boss" || resp.Principal.Group != "manager" {
			t.Fatalf("unexpected principal %+v", resp.Principal)
		}
		if rec.Header().Get("X-Session-Token") != resp.Token {
			t.Fatal("expected token in X-Session-Token header")
		}
		want := h.clock.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		if resp.ExpiresAt != want {
			t.Fatalf("expected expiry %s, got %s", want, resp.ExpiresAt)
		}

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == SessionCookieName {
				cookie = c
			}
		}
		if cookie == nil || cookie.Value != resp.Token || !cookie.HttpOnly {
			t.Fatalf("expected http-only session cookie, got %+v", cookie)
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		rec := h.do(http.MethodPost, "/api/sessions", "", loginRequest{Login: "boss", Password: "nope"})
		expectStatus(t, rec, http.StatusUnauthorized)

		var resp errorResponse
		decode(t, rec, &resp)
		if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("unexpected error code %q", resp.ErrorCode)
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		rec := h.do(http.MethodPost, "/api/sessions", "", "not an object")
		expectStatus(t, rec, http.StatusBadRequest)
	})
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without a session", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		rec := h.do(http.MethodGet, "/api/sessions/current", "", nil)
		expectStatus(t, rec, http.StatusUnauthorized)

		var resp errorResponse
		decode(t, rec, &resp)
		if resp.ErrorCode != "AUTH_SESSION_INVALID" {
			t.Fatalf("unexpected error code %q", resp.ErrorCode)
		}
	})

	t.Run("rejects a tampered token", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		token := h.signIn("boss")
		rec := h.do(http.MethodGet, "/api/sessions/current", token+"x", nil)
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("attaches the principal", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		token := h.signIn("engineer001")
		rec := h.do(http.MethodGet, "/api/sessions/current", token, nil)
		expectStatus(t, rec, http.StatusOK)

		var resp principalResponse
		decode(t, rec, &resp)
		if resp.Principal.Login != "engineer001" || resp.Principal.Group != "engineer" {
			t.Fatalf("unexpected principal %+v", resp.Principal)
		}
	})

	t.Run("expires sessions after the ttl", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		token := h.signIn("boss")
		h.clock.Advance(2 * time.Hour)
		rec := h.do(http.MethodGet, "/api/sessions/current", token, nil)
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("rejects deactivated accounts", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		token := h.signIn("boss")
		user, err := h.store.GetUser(context.Background(), "boss")
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		user.Active = false
		if err := h.store.UpdateUser(context.Background(), user); err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}

		rec := h.do(http.MethodGet, "/api/sessions/current", token, nil)
		expectStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestAuthHandler_DeleteCurrentSession(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	token := h.signIn("boss")
	rec := h.do(http.MethodDelete, "/api/sessions/current", token, nil)
	expectStatus(t, rec, http.StatusNoContent)

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the session cookie to be cleared")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	rec := h.do(http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)

	var resp healthResponse
	decode(t, rec, &resp)
	if resp.Status != "ok" {
		t.Fatalf("unexpected health status %q", resp.Status)
	}
}
