// Package collector gathers recent messages from every accessible Slack
// channel into a single sorted, user-annotated message set.
package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/mtakeda/slack-digest/internal/paginate"
)

// Page sizes for paginated endpoints.
const (
	channelPageSize = 100
	historyPageSize = 200
)

// slackbotUserID is Slack's built-in system user, excluded from the
// user directory alongside bot accounts.
const slackbotUserID = "USLACKBOT"

// Known error codes returned by conversations.history.
const (
	fetchErrNotInChannel = "not_in_channel"
	fetchErrMissingScope = "missing_scope"
)

// SlackAPI is the surface of *slack.Client the collector uses.
type SlackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	JoinConversationContext(ctx context.Context, channelID string) (*slack.Channel, string, []string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// Options configures a collection run.
type Options struct {
	Days       int             // collection window, default 7
	AutoJoin   bool            // join public non-member channels
	NameFilter string          // substring filter on channel names, empty for all
	Exclusions []string        // channel names never joined or read
	Pacing     paginate.Pacing // inter-call delays; zero values disable waiting
}

// Stats summarizes one collection run.
type Stats struct {
	ChannelsProcessed    int `json:"channels_processed"`
	ChannelsWithMessages int `json:"channels_with_messages"`
	TotalMessages        int `json:"total_messages"`
}

// Period is the collection time window.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Days int       `json:"days"`
}

// Result is the immutable outcome of one collection run.
type Result struct {
	Messages []Message       `json:"messages"`
	Users    map[string]User `json:"users"`
	Stats    Stats           `json:"statistics"`
	Period   Period          `json:"period"`
}

// Collector orchestrates channel discovery, membership evaluation, and
// history pagination. The user directory is the only state carried across
// runs; everything else is local to a single Collect call.
type Collector struct {
	api        SlackAPI
	opts       Options
	pacer      *paginate.Pacer
	membership *Membership
	users      *UserCache
}

// New creates a Collector.
func New(api SlackAPI, opts Options) *Collector {
	if opts.Days <= 0 {
		opts.Days = 7
	}
	pacer := paginate.NewPacer(opts.Pacing)
	return &Collector{
		api:        api,
		opts:       opts,
		pacer:      pacer,
		membership: NewMembership(api, pacer, opts.AutoJoin, opts.Exclusions),
		users:      NewUserCache(),
	}
}

// Users exposes the run-spanning user directory cache.
func (c *Collector) Users() *UserCache { return c.users }

// Collect gathers all messages in the window across accessible channels.
// Per-channel failures are logged and skipped; only a failure to list
// channels at all is returned as an error.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -c.opts.Days)
	oldest := fmt.Sprintf("%d.000000", from.Unix())

	log.Info().Int("days", c.opts.Days).Time("from", from).Msg("starting collection")

	if err := c.populateUsers(ctx); err != nil {
		// Degrades to unresolved user names, not a failed run.
		log.Warn().Err(err).Msg("could not load user directory")
	}

	if identity, err := c.api.AuthTestContext(ctx); err != nil {
		log.Warn().Err(err).Msg("could not verify bot identity")
	} else {
		log.Info().Str("bot", identity.User).Str("team", identity.Team).Msg("authenticated")
	}

	channels, err := c.listChannels(ctx)
	if err != nil {
		if len(channels) == 0 {
			return nil, fmt.Errorf("listing channels: %w", err)
		}
		log.Warn().Err(err).Int("channels", len(channels)).Msg("channel listing incomplete, continuing with partial list")
	}
	log.Info().Int("channels", len(channels)).Msg("discovered channels")

	var (
		all   []Message
		stats Stats
	)
	for _, ch := range channels {
		if c.opts.NameFilter != "" && !strings.Contains(ch.Name, c.opts.NameFilter) {
			continue
		}
		if werr := c.pacer.Channel(ctx); werr != nil {
			return nil, werr
		}

		if !c.membership.Evaluate(ctx, ch).Outcome.Member() {
			continue
		}

		msgs, ferr := c.fetchHistory(ctx, ch, oldest)
		stats.ChannelsProcessed++
		if ferr != nil {
			log.Warn().Str("channel", ch.Name).Str("reason", fetchReason(ferr)).Err(ferr).Msg("history fetch failed")
		}
		if len(msgs) > 0 {
			stats.ChannelsWithMessages++
			all = append(all, msgs...)
			log.Info().Str("channel", ch.Name).Int("messages", len(msgs)).Msg("collected channel history")
		}
	}

	SortByRecency(all)
	stats.TotalMessages = len(all)

	log.Info().
		Int("channels_processed", stats.ChannelsProcessed).
		Int("channels_with_messages", stats.ChannelsWithMessages).
		Int("total_messages", stats.TotalMessages).
		Msg("collection complete")

	return &Result{
		Messages: all,
		Users:    c.users.All(),
		Stats:    stats,
		Period:   Period{From: from, To: now, Days: c.opts.Days},
	}, nil
}

// populateUsers loads the user directory once per run, skipping bot
// accounts and the Slackbot system user.
func (c *Collector) populateUsers(ctx context.Context) error {
	if c.users.Populated() {
		return nil
	}
	members, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return err
	}
	users := make(map[string]User, len(members))
	for _, m := range members {
		if m.IsBot || m.ID == slackbotUserID {
			continue
		}
		realName := m.RealName
		if realName == "" {
			realName = m.Name
		}
		users[m.ID] = User{
			ID:          m.ID,
			Name:        m.Name,
			RealName:    realName,
			DisplayName: m.Profile.DisplayName,
		}
	}
	c.users.SetAll(users)
	log.Info().Int("users", len(users)).Msg("loaded user directory")
	return nil
}

// listChannels discovers all non-archived public and private channels.
func (c *Collector) listChannels(ctx context.Context) ([]slack.Channel, error) {
	return paginate.All(ctx, c.pacer, func(ctx context.Context, cursor string) ([]slack.Channel, string, error) {
		return c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			ExcludeArchived: true,
			Types:           []string{"public_channel", "private_channel"},
			Limit:           channelPageSize,
			Cursor:          cursor,
		})
	})
}

// fetchHistory pages through a channel's history since oldest and enriches
// each message. On a mid-pagination failure it returns what it has along
// with the error.
func (c *Collector) fetchHistory(ctx context.Context, ch slack.Channel, oldest string) ([]Message, error) {
	return paginate.All(ctx, c.pacer, func(ctx context.Context, cursor string) ([]Message, string, error) {
		resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: ch.ID,
			Oldest:    oldest,
			Limit:     historyPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, "", err
		}

		msgs := make([]Message, 0, len(resp.Messages))
		for _, m := range resp.Messages {
			msgs = append(msgs, c.enrich(m, ch))
		}

		next := ""
		if resp.HasMore {
			next = resp.ResponseMetaData.NextCursor
		}
		return msgs, next, nil
	})
}

// enrich annotates a raw message with channel metadata, a formatted
// timestamp, and the resolved user name. Unknown user IDs leave UserName
// empty rather than guessing.
func (c *Collector) enrich(m slack.Message, ch slack.Channel) Message {
	msg := Message{
		TS:          m.Timestamp,
		User:        m.User,
		Text:        m.Text,
		Subtype:     m.SubType,
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		Timestamp:   TSTime(m.Timestamp).Format(time.RFC3339),
	}
	if u, ok := c.users.Get(m.User); ok {
		msg.UserName = u.RealName
	}
	return msg
}

// fetchReason maps a history error to its known reason code, with a
// fallback for codes this build does not recognize.
func fetchReason(err error) string {
	switch {
	case strings.Contains(err.Error(), fetchErrNotInChannel):
		return fetchErrNotInChannel
	case strings.Contains(err.Error(), fetchErrMissingScope):
		return fetchErrMissingScope
	default:
		return "api_error"
	}
}
