package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/erm/internal/persistence"
)

var engineerCounter atomic.Uint64

// ----------------------------- Engineer fixtures -----------------------------

// EngineerOption configures a generated engineer.
type EngineerOption func(*persistence.Engineer)

// NewEngineer returns an active utilized engineer with a unique login.
func NewEngineer(opts ...EngineerOption) persistence.Engineer {
	idx := engineerCounter.Add(1)
	engineer := persistence.Engineer{
		Login:      fmt.Sprintf("engineer%03d", idx),
		Name:       "Ivan",
		Surname:    fmt.Sprintf("Engineer%03d", idx),
		Patronymic: "Petrovich",
		Position:   "Field engineer",
		OrgUnit:    "Service",
		Phone:      fmt.Sprintf("7900000%04d", idx),
		Email:      fmt.Sprintf("engineer%03d@example.com", idx),
		Skills:     []string{"cisco", "linux"},
		Tags:       []string{"moscow"},
		Utilized:   true,
		Active:     true,
	}
	for _, opt := range opts {
		opt(&engineer)
	}
	return engineer
}

// WithEngineerLogin overrides the generated login.
func WithEngineerLogin(login string) EngineerOption {
	return func(e *persistence.Engineer) {
		e.Login = login
	}
}

// WithEngineerName overrides the name parts.
func WithEngineerName(name, surname, patronymic string) EngineerOption {
	return func(e *persistence.Engineer) {
		e.Name, e.Surname, e.Patronymic = name, surname, patronymic
	}
}

// WithEngineerIDs sets the external system identifiers.
func WithEngineerIDs(jira, remedy, sharepoint string) EngineerOption {
	return func(e *persistence.Engineer) {
		e.JiraID, e.RemedyID, e.SharepointID = jira, remedy, sharepoint
	}
}

// WithEngineerSkills overrides skills and tags.
func WithEngineerSkills(skills, tags []string) EngineerOption {
	return func(e *persistence.Engineer) {
		e.Skills, e.Tags = skills, tags
	}
}

// WithEngineerUtilized sets whether the engineer files monthly reports.
func WithEngineerUtilized(utilized bool) EngineerOption {
	return func(e *persistence.Engineer) {
		e.Utilized = utilized
	}
}

// ----------------------------- Booking fixtures -----------------------------

// BookingOption configures a generated booking.
type BookingOption func(*persistence.Booking)

// NewBooking returns an active one hour booking starting at ReferenceTime.
func NewBooking(opts ...BookingOption) persistence.Booking {
	booking := persistence.Booking{
		ResourceLogin: "engineer001",
		Type:          "hours",
		Active:        true,
		Repeat:        "no",
		Start:         referenceTime,
		End:           referenceTime.Add(time.Hour),
		Company:       "Company1",
		SLA:           "SLA1",
		ProjectID:     "PRJ-1 Maintenance",
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return booking
}

// WithBookingLogin sets the owning engineer.
func WithBookingLogin(login string) BookingOption {
	return func(b *persistence.Booking) {
		b.ResourceLogin = login
	}
}

// WithBookingHours places the booking offset hours after ReferenceTime for length hours.
func WithBookingHours(offset, length int) BookingOption {
	return func(b *persistence.Booking) {
		b.Start = referenceTime.Add(time.Duration(offset) * time.Hour)
		b.End = b.Start.Add(time.Duration(length) * time.Hour)
	}
}

// WithBookingRange sets explicit bounds.
func WithBookingRange(start, end time.Time) BookingOption {
	return func(b *persistence.Booking) {
		b.Start, b.End = start, end
	}
}

// WithBookingProject sets the project, company and SLA.
func WithBookingProject(projectID, company, sla string) BookingOption {
	return func(b *persistence.Booking) {
		b.ProjectID, b.Company, b.SLA = projectID, company, sla
	}
}

// WithBookingInactive marks the booking inactive.
func WithBookingInactive() BookingOption {
	return func(b *persistence.Booking) {
		b.Active = false
	}
}

// ----------------------------- User fixtures -----------------------------

// NewUser returns an active user in group.
func NewUser(login, group string) persistence.User {
	return persistence.User{
		Login:        login,
		Name:         "User " + login,
		Group:        group,
		Phone:        "79000000000",
		PasswordHash: "hash-" + login,
		Active:       true,
	}
}
