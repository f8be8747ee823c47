package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtakeda/slack-digest/internal/collector"
)

// chdir is t.Chdir for toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messages.json")

	msgs := []collector.Message{
		{TS: "1700000100.000100", Text: "newest", ChannelID: "C1", ChannelName: "general", UserName: "Alice Ray"},
		{TS: "1700000000.000100", Text: "older", ChannelID: "C2", ChannelName: "dev"},
	}

	written, err := Save(path, msgs)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if written != path {
		t.Errorf("Save() path = %q, want %q", written, path)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Load()) = %d, want 2", len(got))
	}
	if got[0].Text != "newest" || got[0].ChannelName != "general" || got[0].UserName != "Alice Ray" {
		t.Errorf("Load()[0] = %+v, round-trip lost fields", got[0])
	}
}

func TestSave_DocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	if _, err := Save(path, []collector.Message{{TS: "1.000000"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	for _, key := range []string{"messages", "total_count", "exported_at"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("export missing %q field", key)
		}
	}
}

func TestSave_GeneratedName(t *testing.T) {
	chdir(t, t.TempDir())

	written, err := Save("", nil)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	matched, err := filepath.Match("slack_messages_*.json", written)
	if err != nil || !matched {
		t.Errorf("generated name %q does not match slack_messages_*.json", written)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Load() of missing file expected error")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed file expected error")
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"slack_messages_20250101_090000.json",
		"slack_messages_20250301_090000.json",
		"slack_messages_20250201_090000.json",
		"unrelated.json",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	got, err := Latest(dir)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if filepath.Base(got) != "slack_messages_20250301_090000.json" {
		t.Errorf("Latest() = %q, want the newest export", got)
	}
}

func TestLatest_Empty(t *testing.T) {
	if _, err := Latest(t.TempDir()); err == nil {
		t.Error("Latest() in empty dir expected error")
	}
}
