package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCertCommands(t *testing.T) {
	path := initDB(t)
	soon := time.Now().AddDate(0, 0, 5).Format(time.DateOnly)

	out, err := run(t, "cert", "add", "-c", path, "--train", "1", "--name", "Fire Safety", "--expires", soon)
	if err != nil || !strings.Contains(out, "Created certificate 1: Fire Safety") {
		t.Fatalf("cert add: %v %q", err, out)
	}
	if _, err := run(t, "cert", "add", "-c", path, "--train", "1", "--name", "X", "--expires", "tomorrow"); err == nil {
		t.Error("bad date should fail")
	}

	if out, err := run(t, "cert", "verify", "-c", path, "1"); err != nil || !strings.Contains(out, "Certificate 1 verified") {
		t.Errorf("cert verify: %v %q", err, out)
	}

	out, _ = run(t, "cert", "list", "-c", path, "1")
	if !strings.Contains(out, "Fire Safety") || !strings.Contains(out, "true") {
		t.Errorf("cert list = %q", out)
	}

	out, _ = run(t, "cert", "expiring", "-c", path, "--days", "10")
	if !strings.Contains(out, "KM-001") || !strings.Contains(out, "Fire Safety") {
		t.Errorf("cert expiring = %q", out)
	}
	out, _ = run(t, "cert", "expiring", "-c", path, "--days", "1")
	if !strings.Contains(out, "No certificates expiring within 1 days") {
		t.Errorf("cert expiring narrow = %q", out)
	}

	out, err = run(t, "alerts", "sweep", "-c", path)
	if err != nil || !strings.Contains(out, "1 certificate(s) expiring within 30 days") {
		t.Errorf("alerts sweep: %v %q", err, out)
	}
}

func TestJobCardCommands(t *testing.T) {
	path := initDB(t)

	out, err := run(t, "jobcard", "create", "-c", path, "--train", "2", "--title", "Brake pads", "--priority", "high")
	if err != nil || !strings.Contains(out, "Created job card 1: Brake pads [high]") {
		t.Fatalf("jobcard create: %v %q", err, out)
	}
	if _, err := run(t, "jobcard", "create", "-c", path, "--train", "2", "--title", "X", "--priority", "urgent"); err == nil {
		t.Error("bad priority should fail")
	}

	if out, err := run(t, "job", "update", "-c", path, "1", "--status", "in_progress"); err != nil ||
		!strings.Contains(out, "Job card 1 is now in_progress") {
		t.Errorf("jobcard update: %v %q", err, out)
	}
	if _, err := run(t, "jobcard", "update", "-c", path, "1", "--status", "pending"); err == nil {
		t.Error("backwards transition should fail")
	}

	out, _ = run(t, "jobcard", "list", "-c", path, "--train", "2")
	if !strings.Contains(out, "Brake pads") || !strings.Contains(out, "1 job card(s)") {
		t.Errorf("jobcard list = %q", out)
	}
	out, _ = run(t, "jobcard", "list", "-c", path, "--status", "completed")
	if !strings.Contains(out, "No job cards found.") {
		t.Errorf("filtered list = %q", out)
	}
}

func TestUserCommands(t *testing.T) {
	path := initDB(t)

	out, err := run(t, "user", "add", "-c", path, "asha", "--role", "metro_officer", "--password", "pw", "--employee-id", "E-1")
	if err != nil || !strings.Contains(out, "Created user asha (Metro Officer)") {
		t.Fatalf("user add: %v %q", err, out)
	}

	out, err = runWithInput(t, "secret\n", "user", "add", "-c", path, "ravi")
	if err != nil || !strings.Contains(out, "Created user ravi (Staff Level 1)") {
		t.Fatalf("user add with prompt: %v %q", err, out)
	}

	if _, err := run(t, "user", "add", "-c", path, "x", "--role", "pilot", "--password", "pw"); err == nil {
		t.Error("unknown role should fail")
	}

	out, _ = run(t, "user", "list", "-c", path)
	if strings.Index(out, "asha") > strings.Index(out, "ravi") || !strings.Contains(out, "E-1") {
		t.Errorf("user list = %q", out)
	}
}

func TestReportCmd(t *testing.T) {
	path := initDB(t)

	out, err := run(t, "report", "-c", path, "-o", "-")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "rank,train_number") || !strings.HasPrefix(lines[1], "1,KM-001,") {
		t.Errorf("report lines = %q", lines)
	}

	file := filepath.Join(t.TempDir(), "fleet.csv")
	if out, err := run(t, "report", "-c", path, "-o", file); err != nil || !strings.Contains(out, "Report written to") {
		t.Fatalf("report to file: %v %q", err, out)
	}
	if data, err := os.ReadFile(file); err != nil || !strings.Contains(string(data), "KM-002") {
		t.Errorf("report file: %v %q", err, data)
	}
}

func TestImportCmd(t *testing.T) {
	path := initDB(t)
	csvPath := filepath.Join(t.TempDir(), "fleet.csv")
	os.WriteFile(csvPath, []byte("train_number,train_name\nKM-010,A\nKM-011,B\n"), 0644)

	out, err := run(t, "import", "-c", path, "--dry-run", csvPath)
	if err != nil || !strings.Contains(out, "fleet.csv: 2 rows, 2 columns") || strings.Contains(out, "imported") {
		t.Errorf("dry run: %v %q", err, out)
	}

	out, err = run(t, "import", "-c", path, csvPath)
	if err != nil || !strings.Contains(out, "Successfully imported 2 records") {
		t.Errorf("import: %v %q", err, out)
	}

	txt := filepath.Join(t.TempDir(), "notes.txt")
	os.WriteFile(txt, []byte("x"), 0644)
	if _, err := run(t, "import", "-c", path, txt); err == nil {
		t.Error("unsupported file should fail")
	}
}

func TestBuildDispatcher(t *testing.T) {
	cfgPath := writeConfig(t)
	cfg, _, err := connectFromConfig(cfgPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	d, err := buildDispatcher(cfg.Alerts)
	if err != nil || d == nil || d.Enabled() {
		t.Errorf("no notifiers configured: d=%v err=%v", d, err)
	}

	cfg.Alerts.Slack.BotToken, cfg.Alerts.Slack.ChannelID = "xoxb-test", "C1"
	cfg.Alerts.Discord.BotToken, cfg.Alerts.Discord.ChannelID = "token", "123"
	d, err = buildDispatcher(cfg.Alerts)
	if err != nil || !d.Enabled() {
		t.Errorf("both notifiers: enabled=%v err=%v", d.Enabled(), err)
	}
}
