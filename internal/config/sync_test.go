package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSyncFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sync.yaml")
	content := `
systems:
  - name: jira-main
    type: Jira
    url: https://jira.example.com
    user: bot
    password: secret
    company: Step Logic
  - type: remedy
    url: https://remedy.example.com/arsys/services
  - name: sp
    type: sharepoint
    url: https://sp.example.com
    list: Tasks
    in_progress: In progress
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	file, err := LoadSyncFile(path)
	if err != nil {
		t.Fatalf("LoadSyncFile returned error: %v", err)
	}
	if len(file.Systems) != 3 {
		t.Fatalf("expected 3 systems, got %d", len(file.Systems))
	}
	if file.Systems[0].Type != SystemJira || file.Systems[0].Company != "Step Logic" {
		t.Fatalf("unexpected jira system: %+v", file.Systems[0])
	}
	if file.Systems[1].Name != SystemRemedy {
		t.Fatalf("expected name to default to type, got %q", file.Systems[1].Name)
	}
	if file.Systems[2].List != "Tasks" || file.Systems[2].InProgress != "In progress" {
		t.Fatalf("unexpected sharepoint system: %+v", file.Systems[2])
	}
}

func TestParseSync_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown type", "systems:\n  - type: redmine\n    url: http://x\n", `unknown type "redmine"`},
		{"missing url", "systems:\n  - type: jira\n", "url is required"},
		{"duplicate name", "systems:\n  - type: jira\n    url: http://a\n  - type: jira\n    url: http://b\n", "duplicate name"},
		{"sharepoint list", "systems:\n  - type: sharepoint\n    url: http://a\n", "list is required"},
		{"bad yaml", "systems: [", "parse sync config"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseSync([]byte(tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadSyncFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadSyncFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
