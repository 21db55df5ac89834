package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadline_Validate(t *testing.T) {
	tests := []struct {
		name     string
		headline Headline
		wantErr  error
	}{
		{
			name: "valid headline",
			headline: Headline{
				Title:  "Senate passes bill",
				Link:   "https://example.com/a",
				Source: "Example News",
			},
		},
		{
			name:     "missing title",
			headline: Headline{Link: "https://example.com/a"},
			wantErr:  ErrMissingTitle,
		},
		{
			name:     "blank title",
			headline: Headline{Title: "   ", Link: "https://example.com/a"},
			wantErr:  ErrMissingTitle,
		},
		{
			name:     "missing link",
			headline: Headline{Title: "Senate passes bill"},
			wantErr:  ErrMissingLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.headline.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHeadline_HasSource(t *testing.T) {
	assert.True(t, (&Headline{Source: "Reuters"}).HasSource())
	assert.False(t, (&Headline{}).HasSource())
}

func TestDigest_Links(t *testing.T) {
	d := &Digest{
		Groups: []Group{
			{Query: "A", Headlines: []Headline{{Title: "1", Link: "L1"}, {Title: "2", Link: "L2"}}},
			{Query: "B"},
			{Query: "C", Headlines: []Headline{{Title: "3", Link: "L3"}}},
		},
		Total: 3,
	}

	assert.Equal(t, []string{"L1", "L2", "L3"}, d.Links())
	assert.False(t, d.IsEmpty())
	assert.True(t, d.Groups[1].IsEmpty())
}

func TestDigest_IsEmpty(t *testing.T) {
	d := &Digest{Groups: []Group{{Query: "A"}}}
	assert.True(t, d.IsEmpty())
	assert.Empty(t, d.Links())
}
