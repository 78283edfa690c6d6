package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFSScanner_ScanMigrations(t *testing.T) {
	tests := []struct {
		name          string
		files         fstest.MapFS
		expectedOrder []string
		expectError   error
	}{
		{
			name: "orders numerically and ignores non-SQL files",
			files: fstest.MapFS{
				"migrations/010_audit.sql":    {Data: []byte("CREATE TABLE audit (id TEXT);")},
				"migrations/002_requests.sql": {Data: []byte("CREATE TABLE requests (id TEXT);")},
				"migrations/001_rooms.sql":    {Data: []byte("CREATE TABLE rooms (id TEXT);")},
				"migrations/README.md":        {Data: []byte("# notes")},
				"migrations/nested/003_x.sql": {Data: []byte("CREATE TABLE x (id TEXT);")},
			},
			expectedOrder: []string{"001", "002", "010"},
		},
		{
			name:          "empty directory",
			files:         fstest.MapFS{"migrations/.keep": {Data: []byte("")}},
			expectedOrder: nil,
		},
		{
			name:        "bad file name",
			files:       fstest.MapFS{"migrations/rooms.sql": {Data: []byte("CREATE TABLE rooms (id TEXT);")}},
			expectError: ErrInvalidMigrationFile,
		},
		{
			name:        "empty file",
			files:       fstest.MapFS{"migrations/001_rooms.sql": {Data: []byte("  \n")}},
			expectError: ErrInvalidMigrationFile,
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"migrations/001_rooms.sql": {Data: []byte("CREATE TABLE rooms (id TEXT);")},
				"migrations/001_other.sql": {Data: []byte("CREATE TABLE other (id TEXT);")},
			},
			expectError: ErrDuplicateVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migrations, err := NewScanner(tt.files, "migrations").ScanMigrations()
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(migrations) != len(tt.expectedOrder) {
				t.Fatalf("expected %d migrations, got %d", len(tt.expectedOrder), len(migrations))
			}
			for i, version := range tt.expectedOrder {
				if migrations[i].Version != version {
					t.Fatalf("position %d: expected version %s, got %s", i, version, migrations[i].Version)
				}
				if migrations[i].Checksum == "" {
					t.Fatalf("expected checksum for %s", version)
				}
			}
		})
	}
}

func TestFSScanner_MissingDirectory(t *testing.T) {
	_, err := NewScanner(fstest.MapFS{}, "missing").ScanMigrations()
	var mErr *MigrationError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected MigrationError, got %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	content := `
-- rooms
CREATE TABLE a (id TEXT);

-- comment only;
CREATE INDEX idx_a ON a(id);
`
	statements := splitStatements(content)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[0] != "CREATE TABLE a (id TEXT)" {
		t.Fatalf("unexpected first statement: %q", statements[0])
	}
}
