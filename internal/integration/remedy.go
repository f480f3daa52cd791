package integration

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/config"
	"github.com/example/erm/internal/persistence"
)

const (
	remedyNS      = "urn:HPD_IncidentInterface_WS"
	remedyAction  = "urn:HPD_IncidentInterface_WS/HelpDesk_QueryList_Service"
	remedyMaxRows = "100"
)

// Remedy reads open incidents through the HPD incident interface web service.
type Remedy struct {
	cfg    config.SystemConfig
	client *http.Client
}

// NewRemedy builds a Remedy system.
func NewRemedy(cfg config.SystemConfig, client *http.Client) (System, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("remedy: url is required")
	}
	return &Remedy{cfg: cfg, client: client}, nil
}

func (r *Remedy) Name() string { return r.cfg.Name }

// Connect checks credentials are configured; the service authenticates
// each call through its header.
func (r *Remedy) Connect(context.Context) error {
	if r.cfg.User == "" {
		return fmt.Errorf("remedy: user is required")
	}
	return nil
}

func (r *Remedy) AddEngineerLogin(engineer persistence.Engineer) (string, bool) {
	id := strings.TrimSpace(engineer.RemedyID)
	return id, id != ""
}

type remedyAuth struct {
	XMLName  xml.Name `xml:"urn:AuthenticationInfo"`
	NS       string   `xml:"xmlns:urn,attr"`
	UserName string   `xml:"urn:userName"`
	Password string   `xml:"urn:password"`
}

type remedyQuery struct {
	XMLName       xml.Name `xml:"urn:HelpDesk_QueryList_Service"`
	NS            string   `xml:"xmlns:urn,attr"`
	Qualification string   `xml:"urn:Qualification"`
	StartRecord   string   `xml:"urn:startRecord"`
	MaxLimit      string   `xml:"urn:maxLimit"`
}

type remedyReply struct {
	Values []struct {
		IncidentNumber string `xml:"Incident_Number"`
		Summary        string `xml:"Summary"`
		Company        string `xml:"Company"`
		SLA            string `xml:"SLA"`
		Status         string `xml:"Status"`
		Assignee       string `xml:"Assignee_Login_ID"`
	} `xml:"getListValues"`
}

// RawEntries returns incidents assigned to the engineer that are not yet resolved.
func (r *Remedy) RawEntries(ctx context.Context, engineer persistence.Engineer) ([]RawEntry, error) {
	id, ok := r.AddEngineerLogin(engineer)
	if !ok {
		return nil, nil
	}
	query := remedyQuery{
		NS:            remedyNS,
		Qualification: fmt.Sprintf(`'Assignee Login ID' = "%s" AND 'Status' < 4`, id),
		MaxLimit:      remedyMaxRows,
	}
	auth := remedyAuth{NS: remedyNS, UserName: r.cfg.User, Password: r.cfg.Password}

	var reply remedyReply
	if err := soapCall(ctx, r.client, r.cfg.URL, remedyAction, "", "", auth, query, &reply); err != nil {
		return nil, fmt.Errorf("remedy: query: %w", err)
	}
	out := make([]RawEntry, 0, len(reply.Values))
	for _, v := range reply.Values {
		out = append(out, RawEntry{
			Key:      v.IncidentNumber,
			Summary:  v.Summary,
			Company:  v.Company,
			SLA:      v.SLA,
			Assignee: v.Assignee,
			Status:   v.Status,
		})
	}
	return out, nil
}

// Preprocess keeps company and sla the incident carries.
func (r *Remedy) Preprocess(raw []RawEntry, login string) []application.SyncedBooking {
	out := make([]application.SyncedBooking, 0, len(raw))
	for _, entry := range raw {
		out = append(out, application.SyncedBooking{
			Login:     login,
			ProjectID: strings.TrimSpace(entry.Key + " " + entry.Summary),
			Company:   companyOrDefault(entry.Company),
			SLA:       entry.SLA,
		})
	}
	return out
}
