package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/example/erm/internal/testfixtures"
)

func TestEngineerHandler_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		login      string
		body       engineerRequest
		wantStatus int
		wantField  string
	}{
		{
			name:       "admin creates an engineer",
			login:      "root",
			body:       engineerRequest{Login: "sidorov", Name: "Petr", Surname: "Sidorov", Skills: []string{"oracle"}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "manager is forbidden",
			login:      "boss",
			body:       engineerRequest{Login: "sidorov", Surname: "Sidorov"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "surname is required",
			login:      "root",
			body:       engineerRequest{Login: "sidorov"},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "surname",
		},
		{
			name:       "duplicate login conflicts",
			login:      "root",
			body:       engineerRequest{Login: "engineer001", Surname: "Petrov"},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newAPIHarness(t)

			rec := h.do(http.MethodPost, "/api/engineers", h.signIn(tc.login), tc.body)
			expectStatus(t, rec, tc.wantStatus)

			switch tc.wantStatus {
			case http.StatusCreated:
				var resp engineerResponse
				decode(t, rec, &resp)
				if resp.Engineer.Login != "sidorov" || resp.Engineer.FullName != "Sidorov Petr" || !resp.Engineer.Active || !resp.Engineer.Utilized {
					t.Fatalf("unexpected engineer %+v", resp.Engineer)
				}
			case http.StatusUnprocessableEntity:
				var resp errorResponse
				decode(t, rec, &resp)
				if _, ok := resp.Errors[tc.wantField]; !ok {
					t.Fatalf("expected field error on %s, got %v", tc.wantField, resp.Errors)
				}
			}
		})
	}
}

func TestEngineerHandler_GetUpdateDelete(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)
	admin := h.signIn("root")

	rec := h.do(http.MethodGet, "/api/engineers/engineer001", admin, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = h.do(http.MethodGet, "/api/engineers/nobody", admin, nil)
	expectStatus(t, rec, http.StatusNotFound)

	active := false
	rec = h.do(http.MethodPut, "/api/engineers/engineer001", admin, engineerRequest{Surname: "Petrov", Name: "Ivan", Active: &active})
	expectStatus(t, rec, http.StatusOK)
	var updated engineerResponse
	decode(t, rec, &updated)
	if updated.Engineer.Active {
		t.Fatal("expected engineer to be deactivated")
	}

	rec = h.do(http.MethodGet, "/api/engineers?active=true", admin, nil)
	expectStatus(t, rec, http.StatusOK)
	var list engineerListResponse
	decode(t, rec, &list)
	if len(list.Engineers) != 0 {
		t.Fatalf("expected no active engineers, got %+v", list.Engineers)
	}

	rec = h.do(http.MethodDelete, "/api/engineers/engineer001", admin, nil)
	expectStatus(t, rec, http.StatusNoContent)
	if _, err := h.store.GetEngineer(context.Background(), "engineer001"); err == nil {
		t.Fatal("expected engineer to be removed")
	}
}

func TestEngineerHandler_Available(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)
	ctx := context.Background()

	if err := h.store.CreateEngineer(ctx, testfixtures.NewEngineer(
		testfixtures.WithEngineerLogin("idle"),
		testfixtures.WithEngineerName("Anna", "Zorina", ""),
	)); err != nil {
		t.Fatalf("CreateEngineer: %v", err)
	}
	if err := h.store.CreateEngineer(ctx, testfixtures.NewEngineer(
		testfixtures.WithEngineerLogin("dba"),
		testfixtures.WithEngineerSkills([]string{"oracle"}, nil),
	)); err != nil {
		t.Fatalf("CreateEngineer: %v", err)
	}
	if _, err := h.store.CreateBooking(ctx, testfixtures.NewBooking(
		testfixtures.WithBookingLogin("engineer001"), testfixtures.WithBookingHours(0, 24))); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	rec := h.do(http.MethodGet, "/api/engineers/available?q=CISCO", h.signIn("boss"), nil)
	expectStatus(t, rec, http.StatusOK)

	var resp availableResponse
	decode(t, rec, &resp)
	if len(resp.Engineers) != 2 {
		t.Fatalf("expected two cisco engineers, got %+v", resp.Engineers)
	}
	if resp.Engineers[0].Engineer.Login != "idle" || resp.Engineers[0].Workload != 0 {
		t.Fatalf("expected idle engineer first, got %+v", resp.Engineers[0])
	}
	if resp.Engineers[1].Engineer.Login != "engineer001" || resp.Engineers[1].Workload != 14 {
		t.Fatalf("expected engineer001 at 14%%, got %+v", resp.Engineers[1])
	}
}

func TestEngineerHandler_Workload(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	if _, err := h.store.CreateBooking(context.Background(), testfixtures.NewBooking(
		testfixtures.WithBookingLogin("engineer001"), testfixtures.WithBookingHours(0, 24))); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	token := h.signIn("engineer001")

	rec := h.do(http.MethodGet, "/api/engineers/engineer001/workload", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var resp workloadResponse
	decode(t, rec, &resp)
	if resp.Workload != 14 {
		t.Fatalf("expected 14%%, got %d", resp.Workload)
	}

	rec = h.do(http.MethodGet, "/api/engineers/ghost/workload", token, nil)
	expectStatus(t, rec, http.StatusNotFound)
}
