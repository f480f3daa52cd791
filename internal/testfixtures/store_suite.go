package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/erm/internal/persistence"
)

// OpenStore returns an empty, migrated store for one test.
type OpenStore func(t *testing.T) persistence.Store

// RunStoreSuite checks the behaviour every persistence.Store must share.
func RunStoreSuite(t *testing.T, open OpenStore) {
	t.Helper()

	t.Run("engineers", func(t *testing.T) { testEngineers(t, open(t)) })
	t.Run("bookings", func(t *testing.T) { testBookings(t, open(t)) })
	t.Run("booking ranges", func(t *testing.T) { testBookingRanges(t, open(t)) })
	t.Run("booking sync", func(t *testing.T) { testBookingSync(t, open(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("work reports", func(t *testing.T) { testWorkReports(t, open(t)) })
}

func mustCreateEngineer(t *testing.T, store persistence.Store, opts ...EngineerOption) persistence.Engineer {
	t.Helper()
	engineer := NewEngineer(opts...)
	if err := store.CreateEngineer(context.Background(), engineer); err != nil {
		t.Fatalf("CreateEngineer failed: %v", err)
	}
	return engineer
}

func mustCreateBooking(t *testing.T, store persistence.Store, opts ...BookingOption) persistence.Booking {
	t.Helper()
	booking := NewBooking(opts...)
	id, err := store.CreateBooking(context.Background(), booking)
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	booking.ID = id
	return booking
}

func testEngineers(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	engineer := mustCreateEngineer(t, store,
		WithEngineerIDs("IVANOV", "ivanov_r", "DOMAIN\\ivanov"),
		WithEngineerSkills([]string{"cisco", "juniper"}, []string{"night-shift"}),
	)

	if err := store.CreateEngineer(ctx, engineer); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	fetched, err := store.GetEngineer(ctx, engineer.Login)
	if err != nil {
		t.Fatalf("GetEngineer failed: %v", err)
	}
	if fetched.Surname != engineer.Surname || fetched.RemedyID != "ivanov_r" || fetched.SharepointID != "DOMAIN\\ivanov" {
		t.Fatalf("unexpected engineer retrieved: %+v", fetched)
	}
	if len(fetched.Skills) != 2 || fetched.Skills[1] != "juniper" || len(fetched.Tags) != 1 {
		t.Fatalf("unexpected skills or tags: %v %v", fetched.Skills, fetched.Tags)
	}

	fetched.Position = "Lead engineer"
	fetched.Utilized = false
	if err := store.UpdateEngineer(ctx, fetched); err != nil {
		t.Fatalf("UpdateEngineer failed: %v", err)
	}
	updated, err := store.GetEngineer(ctx, engineer.Login)
	if err != nil {
		t.Fatalf("GetEngineer failed: %v", err)
	}
	if updated.Position != "Lead engineer" || updated.Utilized {
		t.Fatalf("update not applied: %+v", updated)
	}

	other := mustCreateEngineer(t, store)
	list, err := store.ListEngineers(ctx)
	if err != nil {
		t.Fatalf("ListEngineers failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 engineers, got %d", len(list))
	}

	mustCreateBooking(t, store, WithBookingLogin(other.Login))
	if err := store.DeleteEngineer(ctx, other.Login); err != nil {
		t.Fatalf("DeleteEngineer failed: %v", err)
	}
	if _, err := store.GetEngineer(ctx, other.Login); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	left, err := store.ListBookings(ctx, persistence.BookingFilter{Login: other.Login, IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected engineer bookings to be removed, got %d", len(left))
	}

	if err := store.UpdateEngineer(ctx, NewEngineer()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating unknown engineer, got %v", err)
	}
}

func testBookings(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	engineer := mustCreateEngineer(t, store)

	first := mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(2, 4),
		func(b *persistence.Booking) {
			b.Type = "percent"
			b.Percent = 80
			b.Hours = 6
			b.Repeat = "daily"
			b.SeriesID = "series-1"
			b.CreatedBy = "manager"
		})
	second := mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(0, 1))
	mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(10, 1), WithBookingInactive())

	fetched, err := store.GetBooking(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if fetched.Percent != 80 || fetched.Hours != 6 || fetched.Repeat != "daily" || fetched.SeriesID != "series-1" || fetched.CreatedBy != "manager" {
		t.Fatalf("unexpected booking retrieved: %+v", fetched)
	}
	if !fetched.Start.Equal(first.Start) || !fetched.End.Equal(first.End) {
		t.Fatalf("unexpected bounds %v..%v", fetched.Start, fetched.End)
	}

	active, err := store.ListBookings(ctx, persistence.BookingFilter{Login: engineer.Login})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(active) != 2 || active[0].ID != second.ID || active[1].ID != first.ID {
		t.Fatalf("expected active bookings ordered by start, got %+v", active)
	}

	all, err := store.ListBookings(ctx, persistence.BookingFilter{Login: engineer.Login, IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 bookings including inactive, got %d", len(all))
	}

	if _, err := store.CreateBooking(ctx, NewBooking(WithBookingLogin("nobody"))); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
	if _, err := store.CreateBooking(ctx, NewBooking(WithBookingLogin(engineer.Login), WithBookingHours(3, 0))); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for empty range, got %v", err)
	}

	if err := store.DeleteBooking(ctx, second.ID); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}
	if err := store.DeleteBooking(ctx, second.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}

	n, err := store.DeleteBookingsForLogin(ctx, engineer.Login)
	if err != nil {
		t.Fatalf("DeleteBookingsForLogin failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted bookings, got %d", n)
	}
}

func testBookingRanges(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	engineer := mustCreateEngineer(t, store)

	// The query range is ReferenceTime+10h .. ReferenceTime+20h.
	from := referenceTime.Add(10 * time.Hour).Unix()
	to := referenceTime.Add(20 * time.Hour).Unix()

	inside := mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(12, 2))
	before := mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(8, 4))
	after := mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(18, 4))
	covering := mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(5, 20))
	mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(0, 2))
	mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(30, 2))
	// Starts before the range and ends exactly at its end: not selected.
	mustCreateBooking(t, store, WithBookingLogin(engineer.Login), WithBookingHours(8, 12))

	got, err := store.ListBookings(ctx, persistence.BookingFilter{
		Login: engineer.Login,
		Range: &persistence.TimeRange{From: from, To: to},
	})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}

	want := map[int64]bool{inside.ID: true, before.ID: true, after.ID: true, covering.ID: true}
	if len(got) != len(want) {
		t.Fatalf("expected %d bookings in range, got %d: %+v", len(want), len(got), got)
	}
	for _, b := range got {
		if !want[b.ID] {
			t.Fatalf("unexpected booking %d in range", b.ID)
		}
	}
}

func testBookingSync(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	engineer := mustCreateEngineer(t, store)

	synced := mustCreateBooking(t, store, WithBookingLogin(engineer.Login),
		WithBookingProject("INC000123 Router down", "Company1", "SLA-OLD"))
	mustCreateBooking(t, store, WithBookingLogin(engineer.Login),
		WithBookingProject("CR-9 Upgrade", "Company2", "SLA2"))

	found, err := store.FindBookingByProject(ctx, engineer.Login, "INC000123 Router down")
	if err != nil {
		t.Fatalf("FindBookingByProject failed: %v", err)
	}
	if found.ID != synced.ID {
		t.Fatalf("expected booking %d, got %d", synced.ID, found.ID)
	}
	if _, err := store.FindBookingByProject(ctx, engineer.Login, "INC000123"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected exact project match, got %v", err)
	}

	matching, err := store.ListBookings(ctx, persistence.BookingFilter{ProjectContains: "Router"})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(matching) != 1 || matching[0].ID != synced.ID {
		t.Fatalf("expected project substring match, got %+v", matching)
	}

	newEnd := referenceTime.Add(48 * time.Hour)
	n, err := store.ExtendBookings(ctx, "INC000123", newEnd, "SLA-NEW")
	if err != nil {
		t.Fatalf("ExtendBookings failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 extended booking, got %d", n)
	}
	extended, err := store.GetBooking(ctx, synced.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if !extended.End.Equal(newEnd) || extended.SLA != "SLA-NEW" {
		t.Fatalf("extension not applied: %+v", extended)
	}

	extended.Active = false
	extended.Company = "Company3"
	if err := store.UpdateBooking(ctx, extended); err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}
	again, err := store.GetBooking(ctx, synced.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if again.Active || again.Company != "Company3" {
		t.Fatalf("update not applied: %+v", again)
	}
}

func testUsers(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	user := NewUser("manager1", "manager")

	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.CreateUser(ctx, user); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	fetched, err := store.GetUser(ctx, user.Login)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.Group != "manager" || fetched.PasswordHash != user.PasswordHash || fetched.LastLoggedIn != nil {
		t.Fatalf("unexpected user retrieved: %+v", fetched)
	}

	loggedIn := referenceTime.Add(time.Hour)
	fetched.LastLoggedIn = &loggedIn
	fetched.Group = "admin"
	if err := store.UpdateUser(ctx, fetched); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	updated, err := store.GetUser(ctx, user.Login)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if updated.Group != "admin" || updated.LastLoggedIn == nil || !updated.LastLoggedIn.Equal(loggedIn) {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := store.CreateUser(ctx, NewUser("engineer1", "engineer")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].Login != "engineer1" {
		t.Fatalf("expected users ordered by login, got %+v", users)
	}

	if err := store.DeleteUser(ctx, "engineer1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if err := store.DeleteUser(ctx, "engineer1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testWorkReports(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	engineer := mustCreateEngineer(t, store)
	colleague := mustCreateEngineer(t, store)

	rows := []persistence.WorkReportRow{
		{Company: "Company1", ProjectIDs: "SLA1", UtilHours: 40},
		{Company: "Company2", ProjectIDs: "SLA2", UtilHours: 0},
		{Company: "Company3", ProjectIDs: "SLA3", UtilHours: 8},
	}
	if err := store.SaveWorkReport(ctx, engineer.Login, 2018, 10, rows); err != nil {
		t.Fatalf("SaveWorkReport failed: %v", err)
	}
	if err := store.SaveWorkReport(ctx, colleague.Login, 2018, 10, []persistence.WorkReportRow{
		{Company: "Company1", ProjectIDs: "SLA1", UtilHours: 100},
	}); err != nil {
		t.Fatalf("SaveWorkReport failed: %v", err)
	}

	saved, err := store.ListWorkReport(ctx, engineer.Login, 2018, 10)
	if err != nil {
		t.Fatalf("ListWorkReport failed: %v", err)
	}
	if len(saved) != 2 || saved[0].Company != "Company1" || saved[0].UtilHours != 40 || saved[1].Company != "Company3" {
		t.Fatalf("unexpected saved rows: %+v", saved)
	}
	if saved[0].ResourceLogin != engineer.Login || saved[0].Month != 10 || saved[0].Year != 2018 {
		t.Fatalf("row key not filled: %+v", saved[0])
	}

	// Resaving updates hours in place and drops rows reported as zero.
	if err := store.SaveWorkReport(ctx, engineer.Login, 2018, 10, []persistence.WorkReportRow{
		{Company: "Company1", ProjectIDs: "SLA1", UtilHours: 32},
		{Company: "Company3", ProjectIDs: "SLA3", UtilHours: 0},
	}); err != nil {
		t.Fatalf("SaveWorkReport failed: %v", err)
	}
	saved, err = store.ListWorkReport(ctx, engineer.Login, 2018, 10)
	if err != nil {
		t.Fatalf("ListWorkReport failed: %v", err)
	}
	if len(saved) != 1 || saved[0].UtilHours != 32 {
		t.Fatalf("unexpected rows after resave: %+v", saved)
	}

	month, err := store.ListWorkReportsForMonth(ctx, 2018, 10)
	if err != nil {
		t.Fatalf("ListWorkReportsForMonth failed: %v", err)
	}
	if len(month) != 2 {
		t.Fatalf("expected 2 rows for the month, got %d", len(month))
	}
	other, err := store.ListWorkReportsForMonth(ctx, 2018, 11)
	if err != nil {
		t.Fatalf("ListWorkReportsForMonth failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no rows for another month, got %d", len(other))
	}
}
