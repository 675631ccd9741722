// Package bots answers direct messages addressed to bot identities. Each
// conversation context gets its own pattern-matching engine whose state
// (response rotation, remembered topics) makes replies context-aware.
package bots

import (
	"fmt"
	"regexp"
	"strings"
)

const initialGreeting = "How do you do. Please tell me what's on your mind."

type rule struct {
	pattern   *regexp.Regexp
	responses []string
	remember  bool // stash the reflected capture for later recall
}

var rules = []rule{
	{regexp.MustCompile(`\bi need (.*)`), []string{
		"Why do you need %s?",
		"Would it really help you to get %s?",
		"Are you sure you need %s?",
	}, false},
	{regexp.MustCompile(`\bwhy can'?t i ([^?]*)\??`), []string{
		"Do you think you should be able to %s?",
		"What would it take for you to %s?",
	}, false},
	{regexp.MustCompile(`\bi can'?t (.*)`), []string{
		"How do you know you can't %s?",
		"Perhaps you could %s if you tried.",
	}, false},
	{regexp.MustCompile(`\bi'?m (.*)|\bi am (.*)`), []string{
		"How long have you been %s?",
		"How do you feel about being %s?",
		"Why do you tell me you're %s?",
	}, false},
	{regexp.MustCompile(`\bare you ([^?]*)\??`), []string{
		"Why does it matter whether I am %s?",
		"Would you prefer it if I were not %s?",
	}, false},
	{regexp.MustCompile(`\bbecause (.*)`), []string{
		"Is that the real reason?",
		"What other reasons come to mind?",
	}, false},
	{regexp.MustCompile(`\b(?:hello|hi|hey)\b.*`), []string{
		"Hello. How are you feeling today?",
		"Hi there. What would you like to discuss?",
	}, false},
	{regexp.MustCompile(`\bmy (.*)`), []string{
		"Tell me more about your %s.",
		"Why do you say your %s?",
	}, true},
	{regexp.MustCompile(`\byou (.*)`), []string{
		"We should be discussing you, not me.",
		"Why do you say that about me?",
	}, false},
	{regexp.MustCompile(`^yes\b.*`), []string{
		"You seem quite sure.",
		"I see.",
	}, false},
	{regexp.MustCompile(`^no\b.*`), []string{
		"Why not?",
		"Are you saying no just to be negative?",
	}, false},
	{regexp.MustCompile(`(.*)\?$`), []string{
		"Why do you ask that?",
		"What do you think?",
	}, false},
}

var fallbacks = []string{
	"Please tell me more.",
	"I see. And what does that tell you?",
	"How does that make you feel?",
	"Can you elaborate on that?",
	"Very interesting.",
}

var memoryResponses = []string{
	"Earlier you mentioned your %s. Shall we go back to that?",
	"Let's return to what you said about your %s.",
}

var reflections = map[string]string{
	"i": "you", "me": "you", "my": "your", "mine": "yours",
	"am": "are", "was": "were", "i'd": "you would", "i've": "you have",
	"i'll": "you will", "you": "me", "your": "my", "yours": "mine",
	"you've": "I have", "you'll": "I will",
}

// Eliza is one conversation's transformer state. Responses for a given
// pattern rotate on repeated hits, and "my ..." phrases are remembered and
// surfaced later, so replies depend on conversation history.
type Eliza struct {
	cycles      map[int]int
	memory      []string
	fallbackIdx int
	memoryIdx   int
	turns       int
}

// NewEliza creates a fresh conversation engine.
func NewEliza() *Eliza {
	return &Eliza{cycles: make(map[int]int)}
}

// Initial returns the fixed opening line of a new conversation.
func (e *Eliza) Initial() string {
	return initialGreeting
}

// Transform produces a reply for the given input and advances the
// conversation state.
func (e *Eliza) Transform(input string) string {
	e.turns++
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return "You're being rather quiet. What's on your mind?"
	}

	for i, r := range rules {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		fragment := reflect(firstGroup(m))
		if r.remember && fragment != "" {
			e.memory = append(e.memory, fragment)
		}
		resp := r.responses[e.cycles[i]%len(r.responses)]
		e.cycles[i]++
		if strings.Contains(resp, "%s") {
			return fmt.Sprintf(resp, fragment)
		}
		return resp
	}

	// Every other unmatched turn, recall a remembered topic if one exists.
	if len(e.memory) > 0 && e.turns%2 == 0 {
		topic := e.memory[0]
		e.memory = e.memory[1:]
		resp := memoryResponses[e.memoryIdx%len(memoryResponses)]
		e.memoryIdx++
		return fmt.Sprintf(resp, topic)
	}

	resp := fallbacks[e.fallbackIdx%len(fallbacks)]
	e.fallbackIdx++
	return resp
}

// firstGroup returns the first non-empty capture group, if any.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return strings.TrimSpace(g)
		}
	}
	return ""
}

// reflect swaps first and second person in a captured fragment so it reads
// naturally when echoed back.
func reflect(fragment string) string {
	words := strings.Fields(fragment)
	for i, w := range words {
		if r, ok := reflections[w]; ok {
			words[i] = r
		}
	}
	return strings.Join(words, " ")
}
