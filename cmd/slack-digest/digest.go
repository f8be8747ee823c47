package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtakeda/slack-digest/internal/config"
	"github.com/mtakeda/slack-digest/internal/digest"
	"github.com/mtakeda/slack-digest/internal/store"
)

var (
	digestDays int
	digestFile string
	digestKey  string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Summarize a collected message file with OpenAI",
	Long: `Digest loads a collected message file (the newest slack_messages_*.json
in the working directory by default), keeps messages from the last N days,
and prints an OpenAI-generated summary to stdout.`,
	Example: `  slack-digest digest
  slack-digest digest --messages-file eng.json --days 3`,
	Args: cobra.NoArgs,
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.Flags().IntVar(&digestDays, "days", config.DefaultDays, "Only summarize messages from the last N days")
	digestCmd.Flags().StringVar(&digestFile, "messages-file", "", "Collected message file (default: newest slack_messages_*.json)")
	digestCmd.Flags().StringVar(&digestKey, "openai-key", "", "OpenAI API key (default $OPENAI_API_KEY)")
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	key := digestKey
	if key == "" {
		key = cfg.OpenAIKey
	}
	if key == "" {
		return errors.New("no OpenAI key: set OPENAI_API_KEY or pass --openai-key")
	}

	file := digestFile
	if file == "" {
		var err error
		if file, err = store.Latest("."); err != nil {
			return err
		}
	}
	msgs, err := store.Load(file)
	if err != nil {
		return err
	}

	recent := digest.FilterRecent(msgs, digestDays, time.Now())
	if len(recent) == 0 {
		return fmt.Errorf("no messages in %s from the last %d days", file, digestDays)
	}

	summary, err := digest.New(key, cfg.OpenAIModel).Summarize(cmd.Context(), recent, nil)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}
