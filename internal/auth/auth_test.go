package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLookupPgpass(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pgpass")
	content := strings.Join([]string{
		"# wrds",
		"wrds-pgdata.wharton.upenn.edu:9737:wrds:alice:s3cret",
		"*:*:other:bob:hunter2",
		"localhost:5432:app:carol:with\\:colon",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		host     string
		port     int
		database string
		user     string
		want     string
		found    bool
	}{
		{"exact match", "wrds-pgdata.wharton.upenn.edu", 9737, "wrds", "alice", "s3cret", true},
		{"wildcard host and port", "anywhere", 1234, "other", "bob", "hunter2", true},
		{"escaped colon in password", "localhost", 5432, "app", "carol", "with:colon", true},
		{"wrong user", "wrds-pgdata.wharton.upenn.edu", 9737, "wrds", "mallory", "", false},
		{"wrong port", "wrds-pgdata.wharton.upenn.edu", 9738, "wrds", "alice", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := LookupPgpass(path, tt.host, tt.port, tt.database, tt.user)
			if err != nil {
				t.Fatalf("LookupPgpass: %v", err)
			}
			if found != tt.found || got != tt.want {
				t.Errorf("got (%q, %v), want (%q, %v)", got, found, tt.want, tt.found)
			}
		})
	}
}

func TestLookupPgpassMissingFile(t *testing.T) {
	_, found, err := LookupPgpass(filepath.Join(t.TempDir(), "absent"), "h", 1, "d", "u")
	if err != nil {
		t.Fatalf("LookupPgpass: %v", err)
	}
	if found {
		t.Error("expected a miss for a missing file")
	}
}

func TestAppendPgpass(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pgpass")
	entry := Entry{
		Host:     "wrds-pgdata.wharton.upenn.edu",
		Port:     9737,
		Database: "wrds",
		User:     "alice",
		Password: "pa:ss",
	}
	if err := AppendPgpass(path, entry); err != nil {
		t.Fatalf("AppendPgpass: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 0600", perm)
	}

	got, found, err := LookupPgpass(path, entry.Host, entry.Port, entry.Database, entry.User)
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != entry.Password {
		t.Errorf("round trip got (%q, %v), want (%q, true)", got, found, entry.Password)
	}
}

func TestAppendPgpassNoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pgpass")
	if err := os.WriteFile(path, []byte("h:1:d:u:p"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := AppendPgpass(path, Entry{Host: "h2", Port: 2, Database: "d2", User: "u2", Password: "p2"}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), raw)
	}
	if lines[1] != "h2:2:d2:u2:p2" {
		t.Errorf("appended line = %q", lines[1])
	}
}
