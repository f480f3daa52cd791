package http

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/testfixtures"
)

func dailyBooking() bookingRequest {
	return bookingRequest{
		Type:      "hours",
		Repeat:    "daily",
		Start:     "2018-10-10T09:00",
		End:       "2018-10-12T12:00",
		Company:   "Company1",
		SLA:       "SLA1",
		ProjectID: "PRJ-7 Router swap",
	}
}

func TestBookingHandler_Create(t *testing.T) {
	t.Parallel()

	t.Run("manager books an engineer for three days", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		rec := h.do(http.MethodPost, "/api/engineers/engineer001/bookings", h.signIn("boss"), dailyBooking())
		expectStatus(t, rec, http.StatusCreated)

		var resp createBookingResponse
		decode(t, rec, &resp)
		if resp.SeriesID != "series-1" || resp.Failed != 0 || len(resp.Entries) != 3 {
			t.Fatalf("unexpected response %+v", resp)
		}
		if resp.Entries[2].Start != "2018-10-12T09:00" || resp.Entries[2].End != "2018-10-12T12:00" {
			t.Fatalf("unexpected last entry %+v", resp.Entries[2])
		}
	})

	t.Run("engineer cannot book a colleague", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		rec := h.do(http.MethodPost, "/api/engineers/other/bookings", h.signIn("engineer001"), dailyBooking())
		expectStatus(t, rec, http.StatusForbidden)
	})

	t.Run("malformed dates are field errors", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		req := dailyBooking()
		req.Start = "10.10.2018"
		rec := h.do(http.MethodPost, "/api/engineers/engineer001/bookings", h.signIn("engineer001"), req)
		expectStatus(t, rec, http.StatusUnprocessableEntity)

		var resp errorResponse
		decode(t, rec, &resp)
		if _, ok := resp.Errors["start_date"]; !ok {
			t.Fatalf("expected start_date error, got %v", resp.Errors)
		}
	})

	t.Run("percent too small for a whole hour is a field error", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		req := bookingRequest{Percent: "10", Repeat: "daily", Start: "2018-10-10", End: "2018-10-12", Company: "Company1", SLA: "SLA1"}
		rec := h.do(http.MethodPost, "/api/engineers/engineer001/bookings", h.signIn("boss"), req)
		expectStatus(t, rec, http.StatusUnprocessableEntity)

		var resp errorResponse
		decode(t, rec, &resp)
		if _, ok := resp.Errors["percent"]; !ok {
			t.Fatalf("expected percent error, got %v", resp.Errors)
		}
	})

	t.Run("unknown engineer is not found", func(t *testing.T) {
		t.Parallel()
		h := newAPIHarness(t)

		rec := h.do(http.MethodPost, "/api/engineers/ghost/bookings", h.signIn("boss"), dailyBooking())
		expectStatus(t, rec, http.StatusNotFound)
	})
}

func TestBookingHandler_ListForEngineer(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)
	ctx := context.Background()
	ref := testfixtures.ReferenceTime()

	for _, offset := range []int{1, 48, 24 * 10} {
		if _, err := h.store.CreateBooking(ctx, testfixtures.NewBooking(
			testfixtures.WithBookingLogin("engineer001"), testfixtures.WithBookingHours(offset, 1))); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}
	token := h.signIn("engineer001")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "defaults to the coming week", query: "", want: 2},
		{name: "explicit window", query: fmt.Sprintf("?start=%d&end=%d", ref.Unix(), ref.Add(3*time.Hour).Unix()), want: 1},
		{name: "open end", query: fmt.Sprintf("?start=%d", ref.Unix()), want: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, "/api/engineers/engineer001/bookings"+tc.query, token, nil)
			expectStatus(t, rec, http.StatusOK)
			var resp bookingListResponse
			decode(t, rec, &resp)
			if len(resp.Bookings) != tc.want {
				t.Fatalf("expected %d bookings, got %d", tc.want, len(resp.Bookings))
			}
		})
	}

	t.Run("rejects non numeric bounds", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/engineers/engineer001/bookings?start=today", token, nil)
		expectStatus(t, rec, http.StatusBadRequest)
	})
}

func TestBookingHandler_DeleteAndProject(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)
	ctx := context.Background()

	keep, err := h.store.CreateBooking(ctx, testfixtures.NewBooking(
		testfixtures.WithBookingLogin("engineer001"),
		testfixtures.WithBookingHours(-3, 1),
		testfixtures.WithBookingProject("INC-42 Broken switch", "Company1", "SLA1"),
	))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	drop, err := h.store.CreateBooking(ctx, testfixtures.NewBooking(
		testfixtures.WithBookingLogin("engineer001"), testfixtures.WithBookingHours(3, 1)))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	token := h.signIn("boss")

	rec := h.do(http.MethodGet, "/api/bookings?project=INC-42", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var byProject bookingListResponse
	decode(t, rec, &byProject)
	if len(byProject.Bookings) != 1 || byProject.Bookings[0].ID != keep {
		t.Fatalf("unexpected project bookings %+v", byProject.Bookings)
	}

	rec = h.do(http.MethodGet, "/api/bookings", token, nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	rec = h.do(http.MethodPatch, "/api/bookings?project=INC-42", token, extendRequest{SLA: "SLA2"})
	expectStatus(t, rec, http.StatusOK)
	var extended countResponse
	decode(t, rec, &extended)
	if extended.Count != 1 {
		t.Fatalf("expected one extended booking, got %d", extended.Count)
	}
	stored, err := h.store.GetBooking(ctx, keep)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if stored.SLA != "SLA2" || !stored.End.Equal(h.clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected extended booking %+v", stored)
	}

	rec = h.do(http.MethodDelete, "/api/bookings/abc", token, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = h.do(http.MethodDelete, fmt.Sprintf("/api/bookings/%d", drop), token, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = h.do(http.MethodDelete, fmt.Sprintf("/api/bookings/%d", drop), token, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = h.do(http.MethodDelete, "/api/engineers/engineer001/bookings", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var removed countResponse
	decode(t, rec, &removed)
	if removed.Count != 1 {
		t.Fatalf("expected one remaining booking removed, got %d", removed.Count)
	}
	left, _ := h.store.ListBookings(ctx, persistence.BookingFilter{Login: "engineer001", IncludeInactive: true})
	if len(left) != 0 {
		t.Fatalf("expected no bookings left, got %d", len(left))
	}
}
