package integration

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/config"
	"github.com/example/erm/internal/persistence"
)

const (
	sharepointNS       = "http://schemas.microsoft.com/sharepoint/soap/"
	sharepointAction   = sharepointNS + "GetListItems"
	sharepointRowLimit = "3000"
	// DefaultInProgress is the workflow status of open Sharepoint items.
	DefaultInProgress = "Выполнение"
	sharepointSLA     = "none"
)

// Sharepoint reads workflow items from a list through the Lists web service.
// The whole list is fetched once per Connect and filtered per engineer.
type Sharepoint struct {
	cfg    config.SystemConfig
	client *http.Client

	mu   sync.Mutex
	rows []sharepointRow
}

// NewSharepoint builds a Sharepoint system.
func NewSharepoint(cfg config.SystemConfig, client *http.Client) (System, error) {
	if strings.TrimSpace(cfg.List) == "" {
		return nil, fmt.Errorf("sharepoint: list is required")
	}
	if cfg.InProgress == "" {
		cfg.InProgress = DefaultInProgress
	}
	return &Sharepoint{cfg: cfg, client: client}, nil
}

func (s *Sharepoint) Name() string { return s.cfg.Name }

type sharepointQuery struct {
	XMLName  xml.Name `xml:"http://schemas.microsoft.com/sharepoint/soap/ GetListItems"`
	ListName string   `xml:"listName"`
	RowLimit string   `xml:"rowLimit"`
}

type sharepointRow struct {
	ID       string `xml:"ows_ID,attr"`
	Title    string `xml:"ows_Title,attr"`
	Assignee string `xml:"ows_sl_WFSAssignedTo,attr"`
	Status   string `xml:"ows_sl_WFSStatus,attr"`
}

type sharepointReply struct {
	Rows []sharepointRow `xml:"GetListItemsResult>listitems>data>row"`
}

// Connect loads the list items used by RawEntries.
func (s *Sharepoint) Connect(ctx context.Context) error {
	var reply sharepointReply
	query := sharepointQuery{ListName: s.cfg.List, RowLimit: sharepointRowLimit}
	if err := soapCall(ctx, s.client, s.cfg.URL, sharepointAction, s.cfg.User, s.cfg.Password, nil, query, &reply); err != nil {
		return fmt.Errorf("sharepoint: list items: %w", err)
	}
	s.mu.Lock()
	s.rows = reply.Rows
	s.mu.Unlock()
	return nil
}

func (s *Sharepoint) AddEngineerLogin(engineer persistence.Engineer) (string, bool) {
	id := strings.TrimSpace(engineer.SharepointID)
	return id, id != ""
}

// RawEntries returns in progress items assigned to the engineer.
func (s *Sharepoint) RawEntries(_ context.Context, engineer persistence.Engineer) ([]RawEntry, error) {
	id, ok := s.AddEngineerLogin(engineer)
	if !ok {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RawEntry, 0)
	for _, row := range s.rows {
		if row.Assignee != id || row.Status != s.cfg.InProgress {
			continue
		}
		out = append(out, RawEntry{Key: row.ID, Summary: row.Title, Assignee: row.Assignee, Status: row.Status})
	}
	return out, nil
}

func (s *Sharepoint) Preprocess(raw []RawEntry, login string) []application.SyncedBooking {
	out := make([]application.SyncedBooking, 0, len(raw))
	for _, entry := range raw {
		out = append(out, application.SyncedBooking{
			Login:     login,
			ProjectID: strings.TrimSpace(entry.Key + " " + entry.Summary),
			Company:   companyOrDefault(s.cfg.Company),
			SLA:       sharepointSLA,
		})
	}
	return out
}
