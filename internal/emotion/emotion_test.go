package emotion

import "testing"

func TestClassifySingleKeyword(t *testing.T) {
	cases := []struct {
		text string
		want Emotion
	}{
		{"That is a wonderful observation about recursion.", Happy},
		{"Basically, a pointer holds a memory address.", Explaining},
		{"Hmm, there are a few ways to look at this.", Thinking},
		{"I don't know the answer to that one.", Confused},
		{"Keep trying, you are close.", Encouraging},
	}
	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassifyHighestScoreWins(t *testing.T) {
	// Two confused keywords against one happy keyword.
	text := "I'm not sure, it is unclear, though the idea is great."
	if got := Classify(text); got != Confused {
		t.Errorf("Classify = %s, want confused", got)
	}
}

func TestClassifyTieBreakOrder(t *testing.T) {
	// One happy keyword and one confused keyword tie at 1; happy comes first
	// in the fixed order.
	text := "That's great but the rest is unclear."
	if got := Classify(text); got != Happy {
		t.Errorf("Classify = %s, want happy", got)
	}
}

func TestClassifyPunctuationFallback(t *testing.T) {
	cases := []struct {
		text string
		want Emotion
	}{
		{"Could you rephrase the question?", Thinking},
		{"Give it another shot!", Encouraging},
		{"The derivative of x squared is two x.", Neutral},
		{"Does this help? It should!", Thinking}, // question mark checked first
		{"", Neutral},
	}
	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if got := Classify("EXCELLENT work on this proof."); got != Happy {
		t.Errorf("Classify = %s, want happy", got)
	}
}

func TestValid(t *testing.T) {
	for _, e := range All {
		if !Valid(string(e)) {
			t.Errorf("Valid(%s) = false", e)
		}
	}
	if Valid("ecstatic") {
		t.Error("Valid(ecstatic) = true")
	}
}
