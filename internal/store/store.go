// Package store persists collected messages as a JSON export file read
// back by the digest stage.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mtakeda/slack-digest/internal/collector"
)

// filePattern matches export files produced by Save with a generated name.
const filePattern = "slack_messages_*.json"

// Export is the on-disk document shape.
type Export struct {
	Messages   []collector.Message `json:"messages"`
	TotalCount int                 `json:"total_count"`
	ExportedAt string              `json:"exported_at"`
}

// Save writes messages to filename, generating a timestamped name when
// filename is empty. Returns the path written.
func Save(filename string, msgs []collector.Message) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("slack_messages_%s.json", time.Now().Format("20060102_150405"))
	}

	doc := Export{
		Messages:   msgs,
		TotalCount: len(msgs),
		ExportedAt: time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	log.Info().Str("file", filename).Int("messages", len(msgs)).Msg("saved message export")
	return filename, nil
}

// Load reads a message export. Missing or malformed files are errors the
// caller reports as "no data" for the dependent stage.
func Load(filename string) ([]collector.Message, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var doc Export
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing export %s: %w", filename, err)
	}
	log.Info().Str("file", filename).Int("messages", len(doc.Messages)).Msg("loaded message export")
	return doc.Messages, nil
}

// Latest returns the newest export file in dir by name (names embed a
// sortable timestamp). Returns an error when none exist.
func Latest(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	matches, err := filepath.Glob(filepath.Join(dir, filePattern))
	if err != nil {
		return "", fmt.Errorf("scanning for exports: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s files in %s; run collect first", filePattern, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
