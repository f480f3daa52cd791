package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/erm/internal/persistence/sqlite"
	"github.com/example/erm/internal/testfixtures"
)

func setBaseEnv(t *testing.T, driver, dsn string) {
	t.Helper()
	t.Setenv("ERM_SESSION_HASH_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("ERM_DB_DRIVER", driver)
	t.Setenv("ERM_DB_DSN", dsn)
	t.Setenv("ERM_LOG_LEVEL", "error")
	t.Setenv("ERM_SYNC_CONFIG", "")
	t.Setenv("ERM_SMS_URL", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExpandCommand(t *testing.T) {
	t.Run("prints one line per daily entry", func(t *testing.T) {
		out, err := execute(t, "expand",
			"--start", "2018-10-10T09:00", "--end", "2018-10-12T12:00",
			"--repeat", "daily", "--company", "Company1", "--sla", "SLA1")
		if err != nil {
			t.Fatalf("expand failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected three entries and a total, got %q", out)
		}
		if lines[0] != "2018-10-10T09:00\t2018-10-10T12:00\thours\tCompany1\tSLA1" {
			t.Fatalf("unexpected first entry %q", lines[0])
		}
		if lines[3] != "3 entries" {
			t.Fatalf("unexpected total %q", lines[3])
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		if _, err := execute(t, "expand", "--start", "10/10/2018", "--end", "2018-10-12T12:00"); err == nil {
			t.Fatal("expected an error for a malformed start date")
		}
	})

	t.Run("requires start and end", func(t *testing.T) {
		if _, err := execute(t, "expand", "--start", "2018-10-10T09:00"); err == nil {
			t.Fatal("expected an error for a missing end flag")
		}
	})
}

func TestMigrateCommand(t *testing.T) {
	setBaseEnv(t, "sqlite", filepath.Join(t.TempDir(), "erm.db"))

	out, err := execute(t, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out, "schema is up to date (sqlite)") {
		t.Fatalf("unexpected output %q", out)
	}

	// A second run finds nothing pending.
	if _, err := execute(t, "migrate"); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestUserAddAndWorkloadCommands(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "erm.db")
	setBaseEnv(t, "sqlite", dsn)

	out, err := execute(t, "user", "add", "ivanov", "--group", "Manager")
	if err != nil {
		t.Fatalf("user add failed: %v", err)
	}
	if !strings.HasPrefix(out, "created ivanov (manager) password: ") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := execute(t, "user", "add", "ivanov", "--group", "manager"); err == nil {
		t.Fatal("expected a duplicate login to fail")
	}
	if _, err := execute(t, "user", "add", "petrov", "--group", "boss"); err == nil {
		t.Fatal("expected an unknown group to fail")
	}

	store, err := sqlite.Open(sqlite.Config{DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.GetUser(ctx, "ivanov"); err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if err := store.CreateEngineer(ctx, testfixtures.NewEngineer(testfixtures.WithEngineerLogin("sidorov"))); err != nil {
		t.Fatalf("CreateEngineer: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, err = execute(t, "workload", "sidorov")
	if err != nil {
		t.Fatalf("workload failed: %v", err)
	}
	if strings.TrimSpace(out) != "sidorov 0%" {
		t.Fatalf("unexpected workload output %q", out)
	}

	if _, err := execute(t, "workload", "ghost"); err == nil {
		t.Fatal("expected an unknown engineer to fail")
	}
}

func TestSyncCommand(t *testing.T) {
	t.Run("requires a sync file", func(t *testing.T) {
		setBaseEnv(t, "memory", "")

		_, err := execute(t, "sync")
		if err == nil || !strings.Contains(err.Error(), "ERM_SYNC_CONFIG") {
			t.Fatalf("expected missing sync file error, got %v", err)
		}
	})

	t.Run("reports one summary per system", func(t *testing.T) {
		setBaseEnv(t, "memory", "")

		tracker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/rest/api/2/myself" {
				_, _ = w.Write([]byte(`{"name":"bot"}`))
				return
			}
			http.NotFound(w, r)
		}))
		defer tracker.Close()

		path := filepath.Join(t.TempDir(), "sync.yaml")
		doc := fmt.Sprintf("systems:\n  - name: jira-main\n    type: jira\n    url: %s\n    user: bot\n    password: secret\n  - name: broken\n    type: jira\n    url: %s/missing\n    user: bot\n    password: secret\n", tracker.URL, tracker.URL)
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatalf("write sync file: %v", err)
		}
		t.Setenv("ERM_SYNC_CONFIG", path)

		out, err := execute(t, "sync")
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected two summaries, got %q", out)
		}
		if lines[0] != "jira-main: fetched=0 inserted=0 updated=0 failed=0" {
			t.Fatalf("unexpected first summary %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "broken: ") || !strings.Contains(lines[1], "error=") {
			t.Fatalf("expected the broken system to report its error, got %q", lines[1])
		}
	})
}
