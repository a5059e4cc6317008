package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSettingsRepositoryExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "kwin.yaml")
	repo := NewFileSettingsRepository(path)

	if _, err := repo.Load(); err == nil {
		t.Fatal("Expected error for a missing settings file")
	}

	if err := repo.Save([]byte("trim:\n  max_budget: 10\n")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := repo.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "trim:\n  max_budget: 10\n" {
		t.Errorf("Unexpected data %q", data)
	}
}

func TestFileSettingsRepositorySearch(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	repo := NewFileSettingsRepository("")
	if found, _ := repo.FindSettingsFile(); found != "" {
		t.Fatalf("Expected no settings file, found %s", found)
	}

	if err := os.MkdirAll(filepath.Join(dir, ".kwin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".kwin", "settings.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if found, _ := repo.FindSettingsFile(); found != filepath.Join(".kwin", "settings.json") {
		t.Errorf("Expected .kwin/settings.json, found %q", found)
	}

	// YAML takes precedence over JSON
	if err := os.WriteFile(filepath.Join(dir, ".kwin", "settings.yaml"), []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if found, _ := repo.FindSettingsFile(); found != filepath.Join(".kwin", "settings.yaml") {
		t.Errorf("Expected .kwin/settings.yaml, found %q", found)
	}
}

func TestInMemorySettingsRepository(t *testing.T) {
	repo := NewInMemorySettingsRepository()
	if _, err := repo.Load(); err == nil {
		t.Fatal("Expected error before anything is saved")
	}

	data := []byte("log:\n  level: debug\n")
	if err := repo.Save(data); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data[0] = 'X'

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded[0] != 'l' {
		t.Error("Saved data should be copied")
	}
}
