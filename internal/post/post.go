// Package post delivers long texts to a Slack channel as a chunked thread.
package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/mtakeda/slack-digest/internal/chunk"
	"github.com/mtakeda/slack-digest/internal/paginate"
)

// channelListLimit is the page size for name resolution lookups.
const channelListLimit = 1000

// SlackAPI is the surface of *slack.Client the poster uses.
type SlackAPI interface {
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetPermalinkContext(ctx context.Context, params *slack.PermalinkParameters) (string, error)
}

// Options configures a Poster.
type Options struct {
	DefaultChannel string          // used when Post gets an empty channel
	MaxLength      int             // chunk bound, 0 means chunk.DefaultMaxLength
	Pacing         paginate.Pacing // inter-call delays
}

// Result describes a completed post.
type Result struct {
	ChannelID string
	Timestamp string // ts of the first message, the thread anchor
	Chunks    int
	Permalink string // empty when retrieval failed; best effort only
}

// Poster resolves a destination channel and posts chunked messages to it.
type Poster struct {
	api   SlackAPI
	opts  Options
	pacer *paginate.Pacer
}

// New creates a Poster.
func New(api SlackAPI, opts Options) *Poster {
	if opts.MaxLength <= 0 {
		opts.MaxLength = chunk.DefaultMaxLength
	}
	return &Poster{api: api, opts: opts, pacer: paginate.NewPacer(opts.Pacing)}
}

// ResolveChannelID turns a destination argument into a channel ID. A value
// that already looks like an ID (C or G prefix) is returned as-is without
// any API call; otherwise the name, with any leading #, is matched against
// the channel listing.
func (p *Poster) ResolveChannelID(ctx context.Context, channel string) (string, error) {
	if channel == "" {
		return "", fmt.Errorf("no destination channel given")
	}
	if strings.HasPrefix(channel, "C") || strings.HasPrefix(channel, "G") {
		return channel, nil
	}
	name := strings.TrimPrefix(channel, "#")

	channels, err := paginate.All(ctx, p.pacer, func(ctx context.Context, cursor string) ([]slack.Channel, string, error) {
		return p.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			ExcludeArchived: true,
			Types:           []string{"public_channel", "private_channel"},
			Limit:           channelListLimit,
			Cursor:          cursor,
		})
	})
	for _, ch := range channels {
		if ch.Name == name {
			return ch.ID, nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("resolving channel %q: %w", channel, err)
	}
	return "", fmt.Errorf("channel %q not found", channel)
}

// Post splits text into chunks and delivers them: the first as a new
// message, the rest as thread replies (or sequential top-level posts when
// thread is false). The permalink of the first message is fetched best
// effort and omitted on failure.
func (p *Poster) Post(ctx context.Context, text, channel string, thread bool) (*Result, error) {
	if channel == "" {
		channel = p.opts.DefaultChannel
	}
	channelID, err := p.ResolveChannelID(ctx, channel)
	if err != nil {
		return nil, err
	}

	chunks := chunk.Split(text, p.opts.MaxLength)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("nothing to post: text is empty")
	}

	_, firstTS, err := p.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(chunks[0], false))
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", channelID, err)
	}

	for i, c := range chunks[1:] {
		if werr := p.pacer.Page(ctx); werr != nil {
			return nil, werr
		}
		opts := []slack.MsgOption{slack.MsgOptionText(c, false)}
		if thread {
			opts = append(opts, slack.MsgOptionTS(firstTS))
		}
		if _, _, err := p.api.PostMessageContext(ctx, channelID, opts...); err != nil {
			return nil, fmt.Errorf("posting chunk %d/%d to %s: %w", i+2, len(chunks), channelID, err)
		}
	}

	result := &Result{ChannelID: channelID, Timestamp: firstTS, Chunks: len(chunks)}

	permalink, err := p.api.GetPermalinkContext(ctx, &slack.PermalinkParameters{
		Channel: channelID,
		Ts:      firstTS,
	})
	if err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("could not fetch permalink")
	} else {
		result.Permalink = permalink
	}

	log.Info().Str("channel", channelID).Int("chunks", len(chunks)).Bool("thread", thread).Msg("posted")
	return result, nil
}

// FormatDigest wraps a summary with the weekly header and a generated-at
// footer before posting.
func FormatDigest(summary string, now time.Time) string {
	year, week := now.ISOWeek()
	header := fmt.Sprintf(":newspaper: *Weekly team news — %d week %d*\n\n", year, week)
	footer := fmt.Sprintf("\n\n---\n_Generated at %s by slack-digest_", now.Format("2006-01-02 15:04:05"))
	return header + summary + footer
}
