package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version information, injected at build time via ldflags.
var (
	Version   = "dev"
	Build     = "unknown"
	BuildTime = "unknown"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "slack-digest",
	Short: "Collect Slack messages, summarize them, and post the digest back",
	Long: `slack-digest gathers the last week of messages from every accessible
Slack channel, has an OpenAI model pick out the noteworthy items, and posts
the result back to a destination channel as a chunked thread.

Configuration comes from the environment (a .env file is honored);
command-line flags take precedence.`,
	Version: fmt.Sprintf("%s (build %s, %s)", Version, Build, BuildTime),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
