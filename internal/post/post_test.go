package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/mtakeda/slack-digest/internal/paginate"
)

// sentMessage records one PostMessage call. Thread carries the value of
// the ts msg option, empty for top-level posts.
type sentMessage struct {
	channel string
	text    string
	thread  string
}

// fakePoster implements SlackAPI in memory.
type fakePoster struct {
	channels     []slack.Channel
	listCalls    int
	sent         []sentMessage
	postErr      error
	permalink    string
	permalinkErr error
}

func (f *fakePoster) GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	f.listCalls++
	return f.channels, "", nil
}

func (f *fakePoster) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if f.postErr != nil {
		return "", "", f.postErr
	}
	// Apply the options against a real request the way the client would,
	// to observe text and thread_ts.
	_, values, err := slack.UnsafeApplyMsgOptions("token", channelID, "https://slack.test/api/", options...)
	if err != nil {
		return "", "", err
	}
	f.sent = append(f.sent, sentMessage{
		channel: channelID,
		text:    values.Get("text"),
		thread:  values.Get("thread_ts"),
	})
	return channelID, fmt.Sprintf("171000000%d.000100", len(f.sent)), nil
}

func (f *fakePoster) GetPermalinkContext(ctx context.Context, params *slack.PermalinkParameters) (string, error) {
	return f.permalink, f.permalinkErr
}

func testChannel(id, name string) slack.Channel {
	var ch slack.Channel
	ch.ID = id
	ch.Name = name
	return ch
}

func newTestPoster(api SlackAPI) *Poster {
	return New(api, Options{Pacing: paginate.NoPacing()})
}

func TestResolveChannelID_ByName(t *testing.T) {
	api := &fakePoster{channels: []slack.Channel{
		testChannel("C1", "general"),
		testChannel("C2", "dev"),
	}}
	p := newTestPoster(api)

	tests := []struct {
		arg  string
		want string
	}{
		{"general", "C1"},
		{"#general", "C1"},
		{"dev", "C2"},
	}
	for _, tt := range tests {
		got, err := p.ResolveChannelID(context.Background(), tt.arg)
		if err != nil {
			t.Fatalf("ResolveChannelID(%q) error = %v", tt.arg, err)
		}
		if got != tt.want {
			t.Errorf("ResolveChannelID(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestResolveChannelID_IDPassthrough(t *testing.T) {
	api := &fakePoster{}
	p := newTestPoster(api)

	for _, arg := range []string{"C0123456", "G0123456"} {
		got, err := p.ResolveChannelID(context.Background(), arg)
		if err != nil {
			t.Fatalf("ResolveChannelID(%q) error = %v", arg, err)
		}
		if got != arg {
			t.Errorf("ResolveChannelID(%q) = %q, want unchanged", arg, got)
		}
	}
	if api.listCalls != 0 {
		t.Errorf("listing called %d times for ID arguments, want 0", api.listCalls)
	}
}

func TestResolveChannelID_NotFound(t *testing.T) {
	api := &fakePoster{channels: []slack.Channel{testChannel("C1", "general")}}
	p := newTestPoster(api)

	if _, err := p.ResolveChannelID(context.Background(), "nonexistent"); err == nil {
		t.Error("ResolveChannelID() expected error for unknown name")
	}
}

func TestResolveChannelID_Empty(t *testing.T) {
	p := newTestPoster(&fakePoster{})
	if _, err := p.ResolveChannelID(context.Background(), ""); err == nil {
		t.Error("ResolveChannelID(\"\") expected error")
	}
}

func TestPost_SingleChunk(t *testing.T) {
	api := &fakePoster{permalink: "https://acme.slack.com/archives/C1/p1"}
	p := newTestPoster(api)

	result, err := p.Post(context.Background(), "short update", "C1", true)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(api.sent))
	}
	if api.sent[0].text != "short update" {
		t.Errorf("sent text = %q", api.sent[0].text)
	}
	if api.sent[0].thread != "" {
		t.Error("single chunk must not be threaded")
	}
	if result.Chunks != 1 {
		t.Errorf("Chunks = %d, want 1", result.Chunks)
	}
	if result.Permalink != api.permalink {
		t.Errorf("Permalink = %q, want %q", result.Permalink, api.permalink)
	}
}

func TestPost_ChunksThreaded(t *testing.T) {
	api := &fakePoster{}
	p := New(api, Options{MaxLength: 20, Pacing: paginate.NoPacing()})

	text := "first paragraph\n\nsecond paragraph\n\nthird paragraph"
	result, err := p.Post(context.Background(), text, "C1", true)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if len(api.sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(api.sent))
	}
	if api.sent[0].thread != "" {
		t.Error("anchor message must not carry thread_ts")
	}
	for i, m := range api.sent[1:] {
		if m.thread != result.Timestamp {
			t.Errorf("reply %d thread_ts = %q, want anchor ts %q", i+1, m.thread, result.Timestamp)
		}
	}
}

func TestPost_ChunksUnthreaded(t *testing.T) {
	api := &fakePoster{}
	p := New(api, Options{MaxLength: 20, Pacing: paginate.NoPacing()})

	_, err := p.Post(context.Background(), "first paragraph\n\nsecond paragraph", "C1", false)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if len(api.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(api.sent))
	}
	for i, m := range api.sent {
		if m.thread != "" {
			t.Errorf("message %d threaded with thread=false", i)
		}
	}
}

func TestPost_PermalinkFailureNonFatal(t *testing.T) {
	api := &fakePoster{permalinkErr: errors.New("message_not_found")}
	p := newTestPoster(api)

	result, err := p.Post(context.Background(), "short update", "C1", true)
	if err != nil {
		t.Fatalf("Post() error = %v, permalink failure must be non-fatal", err)
	}
	if result.Permalink != "" {
		t.Errorf("Permalink = %q, want empty on failure", result.Permalink)
	}
}

func TestPost_EmptyText(t *testing.T) {
	p := newTestPoster(&fakePoster{})
	if _, err := p.Post(context.Background(), "", "C1", true); err == nil {
		t.Error("Post() of empty text expected error")
	}
}

func TestPost_DefaultChannel(t *testing.T) {
	api := &fakePoster{channels: []slack.Channel{testChannel("C9", "weekly-news")}}
	p := New(api, Options{DefaultChannel: "weekly-news", Pacing: paginate.NoPacing()})

	result, err := p.Post(context.Background(), "short update", "", true)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if result.ChannelID != "C9" {
		t.Errorf("ChannelID = %q, want resolved default destination", result.ChannelID)
	}
}

func TestFormatDigest(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	got := FormatDigest("the summary body", now)

	if !strings.Contains(got, "the summary body") {
		t.Error("formatted digest lost the summary")
	}
	if !strings.HasPrefix(got, ":newspaper:") {
		t.Error("formatted digest missing header")
	}
	if !strings.Contains(got, "Generated at 2025-03-14") {
		t.Error("formatted digest missing footer timestamp")
	}
}
