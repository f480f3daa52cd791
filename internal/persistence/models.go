package persistence

import "time"

// Booking is one stored assignment of an engineer to a task.
type Booking struct {
	ID            int64
	SeriesID      string
	ResourceLogin string
	Type          string
	Percent       int
	Hours         int
	Active        bool
	Repeat        string
	Start         time.Time
	End           time.Time
	Company       string
	SLA           string
	ProjectID     string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Engineer is a bookable field engineer.
type Engineer struct {
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
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User is an account allowed to sign in.
type User struct {
	Login        string
	Name         string
	Group        string
	Phone        string
	PasswordHash string
	Active       bool
	LastLoggedIn *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkReportRow is the number of hours an engineer reported against one
// company and contract for a month.
type WorkReportRow struct {
	ResourceLogin string
	Company       string
	ProjectIDs    string
	Month         int
	Year          int
	UtilHours     int
	UpdatedAt     time.Time
}
