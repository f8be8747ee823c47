// Package config loads application configuration from the environment,
// with optional .env file support.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for values not present in the environment.
const (
	DefaultDays        = 7
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Config holds application configuration. Command-line flags override these
// values at the command layer; the environment provides the baseline.
type Config struct {
	SlackToken      string   // SLACK_BOT_TOKEN
	OpenAIKey       string   // OPENAI_API_KEY
	OpenAIModel     string   // OPENAI_MODEL
	Channel         string   // SLACK_CHANNEL, default post destination
	ExcludeChannels []string // SLACK_EXCLUDE_CHANNELS, comma-separated names
	Days            int      // collection window
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		SlackToken:  os.Getenv("SLACK_BOT_TOKEN"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		Channel:     os.Getenv("SLACK_CHANNEL"),
		Days:        DefaultDays,
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultOpenAIModel
	}
	if raw := os.Getenv("SLACK_EXCLUDE_CHANNELS"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.ExcludeChannels = append(cfg.ExcludeChannels, name)
			}
		}
	}
	return cfg
}

// Exclusions returns the channel names the collector must never join or
// read: the explicit exclusion list plus the post destination. Names are
// lowercased for case-insensitive comparison. Computed once per run.
func (c *Config) Exclusions() []string {
	seen := make(map[string]bool, len(c.ExcludeChannels)+1)
	var out []string
	add := func(name string) {
		name = strings.ToLower(strings.TrimPrefix(name, "#"))
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, name := range c.ExcludeChannels {
		add(name)
	}
	add(c.Channel)
	return out
}
