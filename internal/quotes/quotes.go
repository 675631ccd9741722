// Package quotes supplies the text snippets used for synthetic chat
// traffic. The corpus format is plain text: quotes separated by blank lines,
// each ending with an attribution line that is dropped on load.
package quotes

import (
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

//go:embed corpus.txt
var defaultCorpus string

// Pool is an immutable set of quotes supporting random sampling. Within one
// Sample call quotes are drawn without replacement; the same quote may
// reappear across separate calls.
type Pool struct {
	mu     sync.Mutex
	quotes []string
	rng    *rand.Rand
}

// Parse reads a corpus. Quotes are split on blank lines; the final line of
// each block (the attribution) is dropped and the rest kept verbatim,
// trimmed of surrounding whitespace.
func Parse(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(raw), "\r\n", "\n"))
	var quotes []string
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			continue
		}
		quote := strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n"))
		if quote != "" {
			quotes = append(quotes, quote)
		}
	}
	return quotes, nil
}

// NewPool wraps a quote list. rng may be nil, in which case a time-seeded
// source is used.
func NewPool(quotes []string, rng *rand.Rand) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pool{quotes: quotes, rng: rng}
}

// Default returns a pool over the embedded corpus.
func Default() *Pool {
	quotes, err := Parse(strings.NewReader(defaultCorpus))
	if err != nil {
		// The embedded corpus always parses.
		panic(err)
	}
	return NewPool(quotes, nil)
}

// LoadFile reads a corpus file and returns a pool over it.
func LoadFile(path string) (*Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()
	quotes, err := Parse(f)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("corpus %s contains no quotes", path)
	}
	return NewPool(quotes, nil), nil
}

// Sample returns up to n quotes drawn without replacement. When n exceeds
// the pool size, every quote is returned once in shuffled order.
func (p *Pool) Sample(n int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > len(p.quotes) {
		n = len(p.quotes)
	}
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for _, i := range p.rng.Perm(len(p.quotes))[:n] {
		out = append(out, p.quotes[i])
	}
	return out
}

// Len returns the pool size.
func (p *Pool) Len() int {
	return len(p.quotes)
}
