// Package chunk splits long text into message-sized pieces on paragraph
// boundaries so multi-part posts stay within Slack's message length limit.
package chunk

import "strings"

// DefaultMaxLength is the largest chunk emitted by Split, in runes.
// Slack truncates messages around 4000 characters; 3500 leaves headroom
// for markup added by clients.
const DefaultMaxLength = 3500

// separator is the paragraph boundary Split preserves.
const separator = "\n\n"

// Split breaks text into chunks of at most maxLength runes. Paragraphs
// (blank-line separated) are accumulated greedily and never split across
// chunks unless a single paragraph exceeds maxLength, in which case that
// paragraph is hard-split into maxLength-sized slices with no word-boundary
// awareness. Joining paragraph chunks with the separator and hard-split
// slices directly reconstructs the input exactly.
func Split(text string, maxLength int) []string {
	if text == "" {
		return nil
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var chunks []string
	current := ""
	for _, para := range strings.Split(text, separator) {
		if current != "" && runeLen(current)+len([]rune(separator))+runeLen(para) <= maxLength {
			current += separator + para
			continue
		}
		if current == "" && runeLen(para) <= maxLength {
			current = para
			continue
		}

		// Adding para would overflow: flush what we have.
		if current != "" {
			chunks = append(chunks, current)
		}
		if runeLen(para) <= maxLength {
			current = para
			continue
		}

		// The paragraph alone exceeds the bound; hard-split it.
		runes := []rune(para)
		for start := 0; start < len(runes); start += maxLength {
			end := start + maxLength
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, string(runes[start:end]))
		}
		current = ""
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func runeLen(s string) int { return len([]rune(s)) }
