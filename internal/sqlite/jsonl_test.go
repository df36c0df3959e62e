// Tests for JSONL reading, writing and loading.
package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/contactbook/pkg/types"
)

func TestReadJSONL_SkipsBlankAndMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), contactsJSONL)
	content := `{"contact_id":"1","first_name":"Ada"}

not json
{"contact_id":"2","first_name":"Grace"}
{"contact_id":
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestReadJSONL_MissingFile(t *testing.T) {
	if _, err := readJSONL(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWriteJSONL_AtomicAndDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, contactsJSONL)
	records := []json.RawMessage{
		json.RawMessage(`{"contact_id":"1"}`),
		json.RawMessage(`{"contact_id":"2"}`),
	}

	if err := writeJSONL(path, records); err != nil {
		t.Fatalf("writeJSONL failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "{\"contact_id\":\"1\"}\n{\"contact_id\":\"2\"}\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the data file, found %d entries", len(entries))
	}

	digest, err := fileDigest(path)
	if err != nil {
		t.Fatalf("fileDigest failed: %v", err)
	}
	if digest != recordsDigest(records) {
		t.Error("recordsDigest should match the digest of the written file")
	}
}

func TestEnsureJSONL_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), contactsJSONL)
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ensureJSONL(path); err != nil {
		t.Fatalf("ensureJSONL failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{}\n" {
		t.Errorf("existing file was modified: %q", data)
	}
}

func TestLoadContacts_FromHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{"contact_id":"b","first_name":"Grace","last_name":"Hopper","phone_number":"2","created_at":"2024-01-02T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"}
{"first_name":"no id"}
{"contact_id":"a","first_name":"Ada","last_name":"Lovelace","phone_number":"1","created_at":"garbage","extra":"ignored"}
{"contact_id":"b","first_name":"Grace","last_name":"Brewster","phone_number":"2","created_at":"2024-01-02T00:00:00Z","updated_at":"2024-01-03T00:00:00Z"}
`
	if err := os.WriteFile(filepath.Join(tmpDir, contactsJSONL), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	b := NewBackend(zaptest.NewLogger(t))
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	all, err := b.List(context.Background(), types.ByFirstName)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 contacts, got %d: %+v", len(all), all)
	}
	if all[0].ContactID != "a" || all[1].ContactID != "b" {
		t.Errorf("unexpected order %v", ids(all))
	}
	// Later line wins for a duplicate ID.
	if all[1].LastName != "Brewster" {
		t.Errorf("expected the later record to win, got %q", all[1].LastName)
	}
	// Unparseable timestamps are replaced, not rejected.
	if all[0].CreatedAt.IsZero() {
		t.Error("invalid created_at should be normalized to a real time")
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in, fallback, want string
	}{
		{"2024-01-02T03:04:05Z", "x", "2024-01-02T03:04:05Z"},
		{"2024-01-02T03:04:05.123456789Z", "x", "2024-01-02T03:04:05.123456789Z"},
		{"", "fallback", "fallback"},
		{"yesterday", "fallback", "fallback"},
	}
	for _, tt := range tests {
		if got := normalizeTimestamp(tt.in, tt.fallback); got != tt.want {
			t.Errorf("normalizeTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
