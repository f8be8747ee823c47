package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/mtakeda/slack-digest/internal/config"
	"github.com/mtakeda/slack-digest/internal/paginate"
	"github.com/mtakeda/slack-digest/internal/post"
)

var (
	postChannel  string
	postToken    string
	postText     string
	postNoThread bool
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a digest to a Slack channel",
	Long: `Post formats a digest with a weekly header, splits it into chunks that
fit Slack's message limits, and posts the first chunk to the destination
channel with the remainder as threaded replies.

The text comes from --text or, when omitted, from stdin.`,
	Example: `  slack-digest digest | slack-digest post --channel team-news
  slack-digest post --channel C0123456789 --text "hello" --no-thread`,
	Args: cobra.NoArgs,
	RunE: runPost,
}

func init() {
	rootCmd.AddCommand(postCmd)
	postCmd.Flags().StringVarP(&postChannel, "channel", "c", "", "Destination channel name or ID (default $SLACK_CHANNEL)")
	postCmd.Flags().StringVar(&postToken, "token", "", "Slack bot token (default $SLACK_BOT_TOKEN)")
	postCmd.Flags().StringVar(&postText, "text", "", "Digest text to post (default: read from stdin)")
	postCmd.Flags().BoolVar(&postNoThread, "no-thread", false, "Post chunks as separate messages instead of a thread")
}

func runPost(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	token := postToken
	if token == "" {
		token = cfg.SlackToken
	}
	if token == "" {
		return errors.New("no Slack token: set SLACK_BOT_TOKEN or pass --token")
	}

	text := postText
	if text == "" {
		if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		}
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("nothing to post: pass --text or pipe the digest to stdin")
	}

	p := post.New(slack.New(token), post.Options{
		DefaultChannel: cfg.Channel,
		Pacing:         paginate.DefaultPacing(),
	})
	result, err := p.Post(cmd.Context(), post.FormatDigest(text, time.Now()), postChannel, !postNoThread)
	if err != nil {
		return err
	}

	fmt.Printf("Posted %d message(s) to %s\n", result.Chunks, result.ChannelID)
	if result.Permalink != "" {
		fmt.Println(result.Permalink)
	}
	return nil
}
