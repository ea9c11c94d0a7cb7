package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestDetector_Detect(t *testing.T) {
	req := require.New(t)
	detector, err := NewDetector([]string{"自杀", "不想活", "self harm", "badger"})
	req.NoError(err)

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "Chinese term inside a sentence",
			input:    []string{"我最近总是想到自杀这件事"},
			expected: []string{"自杀"},
		},
		{
			name:     "Punctuation and spacing inside the term",
			input:    []string{"有时候真的不，想，活了"},
			expected: []string{"不想活"},
		},
		{
			name:     "Leet speak and case",
			input:    []string{"I thought about S3LF-H4RM"},
			expected: []string{"self harm"},
		},
		{
			name:     "Distinct terms across messages in order of appearance",
			input:    []string{"badger badger", "自杀", "badger"},
			expected: []string{"badger", "自杀"},
		},
		{
			name:     "Nothing to flag",
			input:    []string{"你好，我最近有点焦虑"},
			expected: nil,
		},
		{
			name:     "Empty string",
			input:    []string{""},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, detector.Detect(tt.input...), "test=%s", tt.name)
		})
	}
}

func TestDetector_CornerCases(t *testing.T) {
	req := require.New(t)

	// Given a dictionary made of noise and duplicates
	detector, err := NewDetector([]string{"...", ",,,", "", "badger", "BADGER"})
	req.NoError(err)

	// Then the real term is still found once, with its first spelling
	req.Equal([]string{"badger"}, detector.Detect("The B.A.D.G.E.R is here"))

	// And real noise is never a match
	req.Nil(detector.Detect("Hello ..."))

	// Given no term at all
	empty, err := NewDetector(nil)
	req.NoError(err)

	// Then nothing ever matches
	req.Nil(empty.Detect("自杀"))
}
