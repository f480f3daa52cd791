package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/config"
	"github.com/example/erm/internal/persistence"
)

var issueNumber = regexp.MustCompile(`-[0-9]+`)

// Jira reads unresolved issues through the REST API with basic auth.
type Jira struct {
	cfg    config.SystemConfig
	base   string
	client *http.Client
}

// NewJira builds a Jira system.
func NewJira(cfg config.SystemConfig, client *http.Client) (System, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if _, err := url.Parse(base); err != nil || base == "" {
		return nil, fmt.Errorf("jira: invalid url %q", cfg.URL)
	}
	return &Jira{cfg: cfg, base: base, client: client}, nil
}

func (j *Jira) Name() string { return j.cfg.Name }

// Connect checks the server answers for the configured credentials.
func (j *Jira) Connect(ctx context.Context) error {
	req, err := j.request(ctx, "/rest/api/2/myself", nil)
	if err != nil {
		return err
	}
	if _, err := do(j.client, req); err != nil {
		return fmt.Errorf("jira: connect: %w", err)
	}
	return nil
}

func (j *Jira) AddEngineerLogin(engineer persistence.Engineer) (string, bool) {
	id := strings.TrimSpace(engineer.JiraID)
	return id, id != ""
}

type jiraSearch struct {
	Issues []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
			Status  struct {
				Name string `json:"name"`
			} `json:"status"`
			Assignee struct {
				Name string `json:"name"`
			} `json:"assignee"`
		} `json:"fields"`
	} `json:"issues"`
}

func (j *Jira) RawEntries(ctx context.Context, engineer persistence.Engineer) ([]RawEntry, error) {
	id, ok := j.AddEngineerLogin(engineer)
	if !ok {
		return nil, nil
	}
	query := url.Values{}
	query.Set("jql", fmt.Sprintf(`resolution = Unresolved AND status in (Open, "In Progress", Reopened) AND assignee = %s`, id))
	query.Set("fields", "summary,status,assignee")
	req, err := j.request(ctx, "/rest/api/2/search", query)
	if err != nil {
		return nil, err
	}
	body, err := do(j.client, req)
	if err != nil {
		return nil, fmt.Errorf("jira: search: %w", err)
	}

	var res jiraSearch
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("jira: decode search: %w", err)
	}
	out := make([]RawEntry, 0, len(res.Issues))
	for _, issue := range res.Issues {
		out = append(out, RawEntry{
			Key:      issue.Key,
			Summary:  issue.Fields.Summary,
			Assignee: issue.Fields.Assignee.Name,
			Status:   issue.Fields.Status.Name,
		})
	}
	return out, nil
}

// Preprocess names each booking "KEY summary" and uses the issue key
// without its number as the sla.
func (j *Jira) Preprocess(raw []RawEntry, login string) []application.SyncedBooking {
	out := make([]application.SyncedBooking, 0, len(raw))
	for _, entry := range raw {
		out = append(out, application.SyncedBooking{
			Login:     login,
			ProjectID: strings.TrimSpace(entry.Key + " " + entry.Summary),
			Company:   companyOrDefault(j.cfg.Company),
			SLA:       issueNumber.ReplaceAllString(entry.Key, ""),
		})
	}
	return out
}

func (j *Jira) request(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	target := j.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(j.cfg.User, j.cfg.Password)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
