package generator

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var vocab = []string{"api", "json", "token", "cache"}

func TestTextWordCount(t *testing.T) {
	g := NewSeeded(vocab, Options{}, 1)
	text := g.Text(30)
	fields := strings.Fields(text)
	assert.Len(t, fields, 30)
	assert.Equal(t, strings.Join(fields, " "), text)
	for _, f := range fields {
		assert.Contains(t, vocab, f)
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(vocab, Options{}, 42).Text(10)
	b := NewSeeded(vocab, Options{}, 42).Text(10)
	assert.Equal(t, a, b)
}

func TestEmptyInputs(t *testing.T) {
	assert.Empty(t, NewSeeded(vocab, Options{}, 1).Text(0))
	assert.Empty(t, NewSeeded(nil, Options{}, 1).Text(5))
}

func TestCapsAndPunct(t *testing.T) {
	g := NewSeeded(vocab, Options{CapsPct: 1, PunctPct: 1, PunctSet: []rune{'.'}}, 7)
	for _, w := range g.Words(20) {
		assert.True(t, w[0] >= 'A' && w[0] <= 'Z', w)
		assert.True(t, strings.HasSuffix(w, "."), w)
	}
}

func TestConcurrentUse(t *testing.T) {
	g := New(vocab, Options{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, g.Words(50), 50)
		}()
	}
	wg.Wait()
}
