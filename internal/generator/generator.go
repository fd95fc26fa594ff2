// Package generator builds practice texts from a vocabulary.
package generator

import (
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Options tune the generated text. Zero values produce plain lowercase words.
type Options struct {
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// Generator produces randomized typing text. It is safe for concurrent use.
type Generator struct {
	words []string
	opts  Options

	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New(words []string, opts Options) *Generator {
	return NewSeeded(words, opts, time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(words []string, opts Options, seed int64) *Generator {
	return &Generator{
		words: words,
		opts:  opts,
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

// Words selects count words uniformly and applies caps/punctuation rules.
func (g *Generator) Words(count int) []string {
	if count <= 0 || len(g.words) == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := g.words[g.rnd.Intn(len(g.words))]
		word = applyCaps(g.rnd, word, g.opts.CapsPct)
		word = applyPunct(g.rnd, word, g.opts.PunctPct, g.opts.PunctSet)
		result = append(result, word)
	}
	return result
}

// Text joins count words with single spaces.
func (g *Generator) Text(count int) string {
	return strings.Join(g.Words(count), " ")
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
