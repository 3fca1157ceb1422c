package schema

import "strings"

// Batch is a sequence-numbered, independently-applicable fragment of a
// schema. Sequence numbers are 1-based and contiguous.
type Batch struct {
	Sequence int    `json:"sequence"`
	Content  string `json:"content"`
}

// Chunk splits the non-empty lines of schemaText into contiguous groups
// of at most batchSize lines. The split is deterministic: identical
// input always yields identical batches, and concatenating batch
// contents in sequence order reproduces the non-empty input lines.
func Chunk(schemaText string, batchSize int) []Batch {
	if batchSize <= 0 {
		batchSize = 1
	}

	lines := make([]string, 0)
	for _, line := range strings.Split(schemaText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	batches := make([]Batch, 0, (len(lines)+batchSize-1)/batchSize)
	for start := 0; start < len(lines); start += batchSize {
		end := start + batchSize
		if end > len(lines) {
			end = len(lines)
		}
		batches = append(batches, Batch{
			Sequence: len(batches) + 1,
			Content:  strings.Join(lines[start:end], "\n"),
		})
	}
	return batches
}
