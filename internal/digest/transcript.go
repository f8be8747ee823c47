package digest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mtakeda/slack-digest/internal/collector"
)

// Transcript shaping limits, matching what the model can usefully digest.
const (
	minMessageRunes    = 10
	maxMessageRunes    = 500
	maxPerChannel      = 100
	unknownChannelName = "unknown"
)

var (
	bracketedLinkRE = regexp.MustCompile(`<https?://[^\s>]+>`)
	bareLinkRE      = regexp.MustCompile(`https?://[^\s]+`)
	mentionRE       = regexp.MustCompile(`<@[A-Z0-9]+>`)
	emojiCodeRE     = regexp.MustCompile(`:[a-z_]+:`)
)

// Transcript formats messages for analysis: grouped by channel in order of
// first appearance, stripped of links, mentions, and emoji codes, skipping
// bot posts, file shares, and trivially short messages. Returns "" when
// nothing survives filtering.
func Transcript(msgs []collector.Message) string {
	type entry struct {
		text string
		user string
	}
	byChannel := make(map[string][]entry)
	var order []string

	for _, m := range msgs {
		if m.Subtype == "bot_message" || m.Subtype == "file_share" {
			continue
		}
		text := Sanitize(m.Text)
		if len([]rune(text)) < minMessageRunes {
			continue
		}
		if runes := []rune(text); len(runes) > maxMessageRunes {
			text = string(runes[:maxMessageRunes])
		}

		name := m.ChannelName
		if name == "" {
			name = unknownChannelName
		}
		if _, seen := byChannel[name]; !seen {
			order = append(order, name)
		}
		byChannel[name] = append(byChannel[name], entry{text: text, user: m.UserName})
	}

	var sb strings.Builder
	for _, name := range order {
		entries := byChannel[name]
		if len(entries) > maxPerChannel {
			entries = entries[:maxPerChannel]
		}
		fmt.Fprintf(&sb, "\n# Channel: [#%s]\n", name)
		for _, e := range entries {
			if e.user != "" {
				fmt.Fprintf(&sb, "- [%s] %s\n", e.user, e.text)
			} else {
				fmt.Fprintf(&sb, "- %s\n", e.text)
			}
		}
	}
	return sb.String()
}

// Sanitize strips Slack markup that adds noise without meaning: link
// angle-brackets and bare URLs, user mentions, emoji shortcodes, and
// newlines.
func Sanitize(text string) string {
	text = bracketedLinkRE.ReplaceAllString(text, "")
	text = bareLinkRE.ReplaceAllString(text, "")
	text = mentionRE.ReplaceAllString(text, "")
	text = emojiCodeRE.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\n", "")
	return strings.TrimSpace(text)
}

// UserDirectory renders the user list in the mention format the prompt
// instructs the model to reuse, one "- Real Name: <@ID>" line per user,
// sorted by name for stable output.
func UserDirectory(users map[string]collector.User) string {
	var lines []string
	for id, u := range users {
		if u.RealName == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: <@%s>", u.RealName, id))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
