// Package integration pulls open tasks from external trackers and turns
// them into engineer bookings.
package integration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/config"
	"github.com/example/erm/internal/persistence"
)

// DefaultCompany is stamped on tasks from trackers that carry no company.
const DefaultCompany = "Step Logic"

// maxResponseBytes bounds how much of a tracker reply is read.
const maxResponseBytes = 16 << 20

// RawEntry is one open task as a tracker reports it.
type RawEntry struct {
	Key      string
	Summary  string
	Company  string
	SLA      string
	Assignee string
	Status   string
}

// System is one external tracker.
type System interface {
	// Name is the configured name of the tracker.
	Name() string
	// Connect prepares the tracker for a synchronization pass.
	Connect(ctx context.Context) error
	// AddEngineerLogin returns the tracker login of engineer, or false when
	// the engineer has none for this tracker.
	AddEngineerLogin(engineer persistence.Engineer) (string, bool)
	// RawEntries returns the open tasks assigned to engineer.
	RawEntries(ctx context.Context, engineer persistence.Engineer) ([]RawEntry, error)
	// Preprocess converts raw entries into bookings of login.
	Preprocess(raw []RawEntry, login string) []application.SyncedBooking
}

// Factory builds a System from its configuration.
type Factory func(cfg config.SystemConfig, client *http.Client) (System, error)

var registry = map[string]Factory{
	config.SystemJira:       NewJira,
	config.SystemRemedy:     NewRemedy,
	config.SystemSharepoint: NewSharepoint,
}

// Types lists the registered tracker types.
func Types() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds the System registered for cfg.Type.
func New(cfg config.SystemConfig, client *http.Client) (System, error) {
	factory, ok := registry[strings.ToLower(cfg.Type)]
	if !ok {
		return nil, fmt.Errorf("integration: unknown system type %q", cfg.Type)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return factory(cfg, client)
}

// NewSystems builds every system of file in order.
func NewSystems(file config.SyncFile, client *http.Client) ([]System, error) {
	systems := make([]System, 0, len(file.Systems))
	for _, cfg := range file.Systems {
		system, err := New(cfg, client)
		if err != nil {
			return nil, fmt.Errorf("system %q: %w", cfg.Name, err)
		}
		systems = append(systems, system)
	}
	return systems, nil
}

func companyOrDefault(company string) string {
	if company = strings.TrimSpace(company); company != "" {
		return company
	}
	return DefaultCompany
}

// do sends req and returns the body of a 2xx reply.
func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}
