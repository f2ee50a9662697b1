package file_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/adjuster/internal/adapters/file"
	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

func TestFilePublisher_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ports.RunSnapshotPublisherContract(t, file.New(path))
}

func TestFilePublisher_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "session.json")
	publisher := file.New(path)

	if err := publisher.Publish(context.Background(), domain.NewSession()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
}

func TestFilePublisher_WritesReadableJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	publisher := file.New(path)

	session := domain.NewSession()
	session.Step = domain.StepCompleted
	if err := publisher.Publish(context.Background(), session); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading mirror: %v", err)
	}
	if !strings.Contains(string(raw), `"step": "completed"`) {
		t.Errorf("mirror should be indented JSON with the step, got: %s", raw)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "tmp-") {
			t.Errorf("temp file %s left behind", entry.Name())
		}
	}
}

func TestFilePublisher_DefaultPath(t *testing.T) {
	publisher := file.New("")
	if publisher.Path != filepath.Join(".adjuster", "session.json") {
		t.Errorf("default path = %q", publisher.Path)
	}
}
