package application

import (
	"time"

	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/report"
)

// Group is the role a user signs in with.
type Group string

const (
	GroupEngineer     Group = "engineer"
	GroupFocusManager Group = "focus-manager"
	GroupManager      Group = "manager"
	GroupAdmin        Group = "admin"
	GroupSuperAdmin   Group = "super-admin"
)

// Valid reports whether g is a known group.
func (g Group) Valid() bool {
	switch g {
	case GroupEngineer, GroupFocusManager, GroupManager, GroupAdmin, GroupSuperAdmin:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	Login string
	Group Group
}

// SystemPrincipal acts for command line tools and background jobs.
var SystemPrincipal = Principal{Login: "system", Group: GroupSuperAdmin}

// CanActFor reports whether the principal may book or report for login.
// Engineers only act for themselves.
func (p Principal) CanActFor(login string) bool {
	if p.Login != "" && p.Login == login {
		return true
	}
	switch p.Group {
	case GroupFocusManager, GroupManager, GroupAdmin, GroupSuperAdmin:
		return true
	}
	return false
}

// CanReadConsolidated reports whether the principal may read the month report of every engineer.
func (p Principal) CanReadConsolidated() bool {
	switch p.Group {
	case GroupManager, GroupAdmin, GroupSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the principal manages engineers and users.
func (p Principal) IsAdmin() bool {
	return p.Group == GroupAdmin || p.Group == GroupSuperAdmin
}

// BookingInput captures one booking submission as entered by a user.
type BookingInput struct {
	Type      string
	Percent   string
	Hours     string
	Repeat    string
	Start     string
	End       string
	Company   string
	SLA       string
	ProjectID string
}

// EntryResult is the outcome of persisting one expanded entry.
type EntryResult struct {
	Start time.Time
	End   time.Time
	ID    int64
	Err   error
}

// CreateResult reports every entry a submission expanded to.
type CreateResult struct {
	SeriesID string
	Entries  []EntryResult
}

// Failed returns the number of entries that were not stored.
func (r CreateResult) Failed() int {
	n := 0
	for _, entry := range r.Entries {
		if entry.Err != nil {
			n++
		}
	}
	return n
}

// SyncedBooking is a task fetched from an external tracker.
type SyncedBooking struct {
	Login     string
	ProjectID string
	Company   string
	SLA       string
	Start     time.Time
	End       time.Time
}

// SyncOutcome tells what SyncUpsert did with a task.
type SyncOutcome string

const (
	SyncInserted SyncOutcome = "inserted"
	SyncUpdated  SyncOutcome = "updated"
)

// EngineerLoad pairs an engineer with the workload percent over the next week.
type EngineerLoad struct {
	Engineer persistence.Engineer
	Workload int
}

// EngineerInput captures caller provided engineer attributes.
type EngineerInput struct {
	Login        string
	Name         string
	Surname      string
	Patronymic   string
	Position     string
	OrgUnit      string
	Phone        string
	Email        string
	Skills       []string
	Tags         []string
	JiraID       string
	RemedyID     string
	SharepointID string
	Utilized     bool
	Active       bool
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Login    string
	Name     string
	Group    Group
	Phone    string
	Password string
	Active   bool
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// CreateUserResult carries the stored user and, when it was generated, the
// plain password. The password is not retrievable later.
type CreateUserResult struct {
	User              persistence.User
	GeneratedPassword string
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	Login     string
	Input     UserInput
}

// Draft is an engineer's work report for one month as presented for editing.
type Draft struct {
	Login       string
	Year        int
	Month       int
	Lines       []report.Line
	HasNewTasks bool
	HourLimit   int
	Premade     []string
	Tasks       []persistence.Booking
}
