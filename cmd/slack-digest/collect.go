package main

import (
	"errors"
	"fmt"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/mtakeda/slack-digest/internal/collector"
	"github.com/mtakeda/slack-digest/internal/config"
	"github.com/mtakeda/slack-digest/internal/paginate"
	"github.com/mtakeda/slack-digest/internal/store"
)

var (
	collectDays       int
	collectOutput     string
	collectToken      string
	collectChannel    string
	collectNoAutoJoin bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect recent messages from all accessible channels",
	Long: `Collect walks every channel the bot can see, joins public channels it
is not yet a member of (unless --no-auto-join), fetches the last N days of
history, and writes the result to a timestamped JSON file.`,
	Example: `  slack-digest collect
  slack-digest collect --days 3 --channel eng- --output eng.json`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().IntVar(&collectDays, "days", config.DefaultDays, "How many days of history to collect")
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", "", "Output file (default slack_messages_<timestamp>.json)")
	collectCmd.Flags().StringVar(&collectToken, "token", "", "Slack bot token (default $SLACK_BOT_TOKEN)")
	collectCmd.Flags().StringVarP(&collectChannel, "channel", "c", "", "Only collect channels whose name contains this substring")
	collectCmd.Flags().BoolVar(&collectNoAutoJoin, "no-auto-join", false, "Do not join public channels the bot is not a member of")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	token := collectToken
	if token == "" {
		token = cfg.SlackToken
	}
	if token == "" {
		return errors.New("no Slack token: set SLACK_BOT_TOKEN or pass --token")
	}

	c := collector.New(slack.New(token), collector.Options{
		Days:       collectDays,
		AutoJoin:   !collectNoAutoJoin,
		NameFilter: collectChannel,
		Exclusions: cfg.Exclusions(),
		Pacing:     paginate.DefaultPacing(),
	})
	result, err := c.Collect(cmd.Context())
	if err != nil {
		return err
	}
	if len(result.Messages) == 0 {
		return errors.New("no messages collected; check channel membership, the time window, and bot scopes")
	}

	file, err := store.Save(collectOutput, result.Messages)
	if err != nil {
		return err
	}

	fmt.Printf("Collected %d messages from %d channels (%d with activity)\n",
		result.Stats.TotalMessages, result.Stats.ChannelsProcessed, result.Stats.ChannelsWithMessages)
	fmt.Printf("Saved to %s\n", file)
	preview(result.Messages, 5)
	return nil
}

// preview prints the most recent messages so a quick glance confirms the
// collection looks sane. Messages arrive sorted newest first.
func preview(msgs []collector.Message, n int) {
	fmt.Println("\nLatest messages:")
	shown := 0
	for _, m := range msgs {
		if shown == n {
			break
		}
		if m.Text == "" {
			continue
		}
		text := m.Text
		if r := []rune(text); len(r) > 100 {
			text = string(r[:100]) + "..."
		}
		fmt.Printf("  [%s] #%s: %s\n", m.Timestamp, m.ChannelName, text)
		shown++
	}
}
