package collector

import (
	"sort"
	"strconv"
	"time"
)

// Message is a collected Slack message: the raw fields the digest needs
// plus per-channel enrichment added during collection. The JSON shape is
// the export file format read back by the digest stage.
type Message struct {
	TS          string `json:"ts"`
	User        string `json:"user,omitempty"`
	Text        string `json:"text,omitempty"`
	Subtype     string `json:"subtype,omitempty"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Timestamp   string `json:"timestamp_formatted,omitempty"`
	UserName    string `json:"user_name,omitempty"`
}

// TSValue parses a Slack "ts" field ("1700000000.000123") as a number.
// Returns 0 for malformed input so bad messages sort last, not crash.
func TSValue(ts string) float64 {
	v, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return v
}

// TSTime converts a Slack "ts" field to a time.Time.
func TSTime(ts string) time.Time {
	v := TSValue(ts)
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// SortByRecency orders messages newest first by the numeric value of the
// ts field. Slack timestamps are fixed-width in practice, but comparing
// them as strings breaks across differing integer-part widths, so the
// comparison is always numeric.
func SortByRecency(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return TSValue(msgs[i].TS) > TSValue(msgs[j].TS)
	})
}
