package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/mtakeda/slack-digest/internal/collector"
	"github.com/mtakeda/slack-digest/internal/config"
	"github.com/mtakeda/slack-digest/internal/digest"
	"github.com/mtakeda/slack-digest/internal/paginate"
	"github.com/mtakeda/slack-digest/internal/post"
	"github.com/mtakeda/slack-digest/internal/store"
)

var (
	runDays       int
	runChannel    string
	runOutput     string
	runNoAutoJoin bool
	runNoThread   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, summarize, and post in one step",
	Long: `Run performs the full weekly pipeline: collect recent messages from all
accessible channels, summarize them with OpenAI, and post the digest to the
destination channel as a threaded series of messages.

The destination channel is excluded from collection so the digest never
summarizes itself.`,
	Example: `  slack-digest run
  slack-digest run --days 3 --channel team-news --output backup.json`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runDays, "days", config.DefaultDays, "How many days of history to collect")
	runCmd.Flags().StringVarP(&runChannel, "channel", "c", "", "Destination channel name or ID (default $SLACK_CHANNEL)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Also save collected messages to this file")
	runCmd.Flags().BoolVar(&runNoAutoJoin, "no-auto-join", false, "Do not join public channels the bot is not a member of")
	runCmd.Flags().BoolVar(&runNoThread, "no-thread", false, "Post chunks as separate messages instead of a thread")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.SlackToken == "" {
		return errors.New("no Slack token: set SLACK_BOT_TOKEN")
	}
	if cfg.OpenAIKey == "" {
		return errors.New("no OpenAI key: set OPENAI_API_KEY")
	}
	destination := runChannel
	if destination == "" {
		destination = cfg.Channel
	}
	if destination == "" {
		return errors.New("no destination channel: set SLACK_CHANNEL or pass --channel")
	}
	if runChannel != "" {
		// Make sure a channel given on the command line is excluded from
		// collection, same as one from the environment.
		cfg.Channel = runChannel
	}

	ctx := cmd.Context()
	api := slack.New(cfg.SlackToken)

	c := collector.New(api, collector.Options{
		Days:       runDays,
		AutoJoin:   !runNoAutoJoin,
		Exclusions: cfg.Exclusions(),
		Pacing:     paginate.DefaultPacing(),
	})
	result, err := c.Collect(ctx)
	if err != nil {
		return err
	}
	if len(result.Messages) == 0 {
		return errors.New("no messages collected; nothing to summarize")
	}
	fmt.Printf("Collected %d messages from %d channels\n",
		result.Stats.TotalMessages, result.Stats.ChannelsWithMessages)

	if runOutput != "" {
		file, err := store.Save(runOutput, result.Messages)
		if err != nil {
			return err
		}
		fmt.Printf("Saved to %s\n", file)
	}

	summary, err := digest.New(cfg.OpenAIKey, cfg.OpenAIModel).Summarize(ctx, result.Messages, result.Users)
	if err != nil {
		return err
	}

	p := post.New(api, post.Options{
		DefaultChannel: destination,
		Pacing:         paginate.DefaultPacing(),
	})
	posted, err := p.Post(ctx, post.FormatDigest(summary, time.Now()), destination, !runNoThread)
	if err != nil {
		return err
	}

	fmt.Printf("Posted digest in %d message(s) to %s\n", posted.Chunks, posted.ChannelID)
	if posted.Permalink != "" {
		fmt.Println(posted.Permalink)
	}
	return nil
}
