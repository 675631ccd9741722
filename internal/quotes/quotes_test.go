package quotes

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCorpus = `First quote text.
— Author One

Second quote spanning
two lines.
— Author Two

Third quote text.
— Author Three
`

func TestParse_DropsAttribution(t *testing.T) {
	quotes, err := Parse(strings.NewReader(testCorpus))
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, "First quote text.", quotes[0])
	assert.Equal(t, "Second quote spanning\ntwo lines.", quotes[1])
	assert.Equal(t, "Third quote text.", quotes[2])
}

func TestDefault_EmbeddedCorpus(t *testing.T) {
	p := Default()
	assert.Greater(t, p.Len(), 10)
	for _, q := range p.Sample(p.Len()) {
		assert.NotContains(t, q, "—")
		assert.NotEmpty(t, q)
	}
}

func TestSample_WithoutReplacement(t *testing.T) {
	p := NewPool([]string{"a", "b", "c", "d"}, rand.New(rand.NewSource(1)))

	got := p.Sample(4)
	require.Len(t, got, 4)
	seen := make(map[string]bool)
	for _, q := range got {
		assert.False(t, seen[q], "quote %q drawn twice in one sample", q)
		seen[q] = true
	}
}

func TestSample_Bounds(t *testing.T) {
	p := NewPool([]string{"a", "b"}, rand.New(rand.NewSource(1)))

	assert.Len(t, p.Sample(10), 2)
	assert.Nil(t, p.Sample(0))

	empty := NewPool(nil, rand.New(rand.NewSource(1)))
	assert.Nil(t, empty.Sample(3))
}
