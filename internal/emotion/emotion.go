package emotion

import "strings"

// Emotion is the closed set of tones a tutor answer can carry.
type Emotion string

const (
	Happy       Emotion = "happy"
	Explaining  Emotion = "explaining"
	Thinking    Emotion = "thinking"
	Confused    Emotion = "confused"
	Encouraging Emotion = "encouraging"
	Neutral     Emotion = "neutral"
)

// All lists every emotion label, Neutral last.
var All = []Emotion{Happy, Explaining, Thinking, Confused, Encouraging, Neutral}

// ordered drives the tie-break: the first emotion reaching the max score wins.
// A slice rather than a map so the order is deterministic.
var ordered = []struct {
	emotion  Emotion
	keywords []string
}{
	{Happy, []string{"great", "wonderful", "excellent", "perfect", "amazing", "glad", "happy"}},
	{Explaining, []string{"let me explain", "here's how", "basically", "in other words", "to understand"}},
	{Thinking, []string{"hmm", "well", "let me think", "interesting question", "that's complex"}},
	{Confused, []string{"i don't know", "unclear", "not sure", "uncertain", "can't find"}},
	{Encouraging, []string{"you can do", "keep trying", "great job", "well done", "good question"}},
}

// Valid reports whether s is one of the defined labels.
func Valid(s string) bool {
	for _, e := range All {
		if string(e) == s {
			return true
		}
	}
	return false
}

// Classify maps answer text to an emotion by keyword scoring.
// Without any keyword hit it falls back on punctuation: a question mark reads
// as thinking, an exclamation mark as encouraging, anything else as neutral.
func Classify(text string) Emotion {
	lower := strings.ToLower(text)

	best := Neutral
	bestScore := 0
	for _, entry := range ordered {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = entry.emotion
			bestScore = score
		}
	}
	if bestScore > 0 {
		return best
	}

	if strings.Contains(text, "?") {
		return Thinking
	}
	if strings.Contains(text, "!") {
		return Encouraging
	}
	return Neutral
}
