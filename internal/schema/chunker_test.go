package schema

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSchemaText(lines int) string {
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line-%d\n", i)
	}
	return b.String()
}

func TestChunkSizes(t *testing.T) {
	batches := Chunk(buildSchemaText(25), 10)

	require.Len(t, batches, 3)
	assert.Len(t, strings.Split(batches[0].Content, "\n"), 10)
	assert.Len(t, strings.Split(batches[1].Content, "\n"), 10)
	assert.Len(t, strings.Split(batches[2].Content, "\n"), 5)
}

func TestChunkSequenceNumbers(t *testing.T) {
	batches := Chunk(buildSchemaText(25), 10)

	for i, batch := range batches {
		assert.Equal(t, i+1, batch.Sequence)
	}
}

func TestChunkDeterminism(t *testing.T) {
	text := buildSchemaText(42)

	first := Chunk(text, 7)
	second := Chunk(text, 7)

	assert.Equal(t, first, second)
}

func TestChunkConcatenationReproducesInput(t *testing.T) {
	text := "a\n\nb\nc\n\n\nd\ne\n"

	batches := Chunk(text, 2)

	parts := make([]string, 0, len(batches))
	for _, batch := range batches {
		parts = append(parts, batch.Content)
	}
	assert.Equal(t, "a\nb\nc\nd\ne", strings.Join(parts, "\n"))
}

func TestChunkSkipsBlankLines(t *testing.T) {
	batches := Chunk("\n\n  \n\t\n", 10)
	assert.Empty(t, batches)
}

func TestChunkEmptyInput(t *testing.T) {
	assert.Empty(t, Chunk("", 10))
}

func TestChunkBatchSmallerThanInput(t *testing.T) {
	batches := Chunk("only-line\n", 10)

	require.Len(t, batches, 1)
	assert.Equal(t, 1, batches[0].Sequence)
	assert.Equal(t, "only-line", batches[0].Content)
}
