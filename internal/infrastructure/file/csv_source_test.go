package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldops/importer/internal/infrastructure/file"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestCSVSourceReadRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "customers.csv",
		"Display Name,Email,Phone\nAcme Plumbing,info@acme.com,555-0101\nJane Doe,jane@x.com,555-0102\n")

	source := file.NewCSVSource(dir)
	headers, rows, err := source.ReadRows(context.Background(), "customers.csv")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}

	wantHeaders := []string{"display_name", "email", "phone"}
	if len(headers) != len(wantHeaders) {
		t.Fatalf("headers = %v, want %v", headers, wantHeaders)
	}
	for i, h := range wantHeaders {
		if headers[i] != h {
			t.Fatalf("headers[%d] = %q, want %q", i, headers[i], h)
		}
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0]["display_name"] != "Acme Plumbing" || rows[0]["email"] != "info@acme.com" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[1]["phone"] != "555-0102" {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
}

func TestCSVSourceRaggedRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "ragged.csv",
		"name,email,phone\nBolt Supply,sales@bolt.com\nNut House,nuts@x.com,555-0199,extra\n")

	source := file.NewCSVSource(dir)
	_, rows, err := source.ReadRows(context.Background(), "ragged.csv")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0]["phone"] != "" {
		t.Fatalf("short row phone = %q, want empty", rows[0]["phone"])
	}
	if len(rows[1]) != 3 {
		t.Fatalf("long row has %d fields, want 3", len(rows[1]))
	}
	if rows[1]["email"] != "nuts@x.com" {
		t.Fatalf("long row email = %q", rows[1]["email"])
	}
}

func TestCSVSourceEmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "empty.csv", "")

	source := file.NewCSVSource(dir)
	headers, rows, err := source.ReadRows(context.Background(), "empty.csv")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(headers) != 0 || len(rows) != 0 {
		t.Fatalf("expected no headers or rows, got %v / %v", headers, rows)
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	t.Parallel()

	source := file.NewCSVSource(t.TempDir())
	if _, _, err := source.ReadRows(context.Background(), "nope.csv"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
