package collector

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/mtakeda/slack-digest/internal/paginate"
)

// Outcome is the result of evaluating channel membership. Only Member and
// Joined proceed to a history fetch.
type Outcome int

const (
	OutcomeMember Outcome = iota
	OutcomeJoined
	OutcomeSkipExcluded
	OutcomeSkipPrivate
	OutcomeSkipNoAutoJoin
	OutcomeSkipArchived
	OutcomeSkipJoinFailed
)

// String returns the outcome's reason label used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeMember:
		return "member"
	case OutcomeJoined:
		return "joined"
	case OutcomeSkipExcluded:
		return "excluded"
	case OutcomeSkipPrivate:
		return "private"
	case OutcomeSkipNoAutoJoin:
		return "auto-join disabled"
	case OutcomeSkipArchived:
		return "archived"
	case OutcomeSkipJoinFailed:
		return "join failed"
	default:
		return "unknown"
	}
}

// Member reports whether the channel may be read after this outcome.
func (o Outcome) Member() bool {
	return o == OutcomeMember || o == OutcomeJoined
}

// Decision is an Outcome with the underlying API reason, when there is one.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Known error codes returned by conversations.join.
const (
	joinErrAlreadyInChannel = "already_in_channel"
	joinErrIsArchived       = "is_archived"
)

// ChannelJoiner is the part of the Slack API the membership manager needs.
type ChannelJoiner interface {
	JoinConversationContext(ctx context.Context, channelID string) (*slack.Channel, string, []string, error)
}

// Membership decides, per channel, whether to join, skip, or read directly,
// given the auto-join policy and the exclusion set. The exclusion set is
// fixed at construction and consulted before any join or fetch.
type Membership struct {
	api      ChannelJoiner
	pacer    *paginate.Pacer
	autoJoin bool
	excluded map[string]bool
}

// NewMembership builds a Membership manager. Exclusion names are matched
// case-insensitively against channel names.
func NewMembership(api ChannelJoiner, pacer *paginate.Pacer, autoJoin bool, exclusions []string) *Membership {
	excluded := make(map[string]bool, len(exclusions))
	for _, name := range exclusions {
		excluded[strings.ToLower(name)] = true
	}
	return &Membership{api: api, pacer: pacer, autoJoin: autoJoin, excluded: excluded}
}

// Excluded reports whether a channel name is in the exclusion set.
func (m *Membership) Excluded(name string) bool {
	return m.excluded[strings.ToLower(name)]
}

// Evaluate runs the membership state machine for one channel and logs the
// transition. No join is ever attempted for excluded or private channels.
func (m *Membership) Evaluate(ctx context.Context, ch slack.Channel) Decision {
	d := m.evaluate(ctx, ch)

	evt := log.Info().Str("channel", ch.Name).Str("outcome", d.Outcome.String())
	if d.Reason != "" {
		evt = evt.Str("reason", d.Reason)
	}
	if d.Outcome.Member() {
		evt.Msg("channel selected")
	} else {
		evt.Msg("channel skipped")
	}
	return d
}

func (m *Membership) evaluate(ctx context.Context, ch slack.Channel) Decision {
	if m.Excluded(ch.Name) {
		return Decision{Outcome: OutcomeSkipExcluded}
	}
	if ch.IsMember {
		return Decision{Outcome: OutcomeMember}
	}
	if ch.IsPrivate {
		return Decision{Outcome: OutcomeSkipPrivate}
	}
	if !m.autoJoin {
		return Decision{Outcome: OutcomeSkipNoAutoJoin}
	}

	_, _, _, err := m.api.JoinConversationContext(ctx, ch.ID)
	if err == nil {
		if werr := m.pacer.Join(ctx); werr != nil {
			return Decision{Outcome: OutcomeJoined, Reason: werr.Error()}
		}
		return Decision{Outcome: OutcomeJoined}
	}

	// The API reports refusals as machine-readable error codes; unknown
	// codes degrade to a generic join failure instead of being dropped.
	switch {
	case strings.Contains(err.Error(), joinErrAlreadyInChannel):
		return Decision{Outcome: OutcomeMember, Reason: joinErrAlreadyInChannel}
	case strings.Contains(err.Error(), joinErrIsArchived):
		return Decision{Outcome: OutcomeSkipArchived, Reason: joinErrIsArchived}
	default:
		return Decision{Outcome: OutcomeSkipJoinFailed, Reason: err.Error()}
	}
}
