// ABOUTME: Tests for the scroll-follow geometry
// ABOUTME: Threshold boundaries and the jump-to-bottom affordance

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceFromBottom(t *testing.T) {
	assert.Equal(t, 0, DistanceFromBottom(500, 1000, 500))
	assert.Equal(t, 300, DistanceFromBottom(200, 1000, 500))
	// Overscroll bounce clamps to zero.
	assert.Equal(t, 0, DistanceFromBottom(600, 1000, 500))
}

func TestShouldFollow(t *testing.T) {
	tests := []struct {
		name      string
		scrollTop int
		follow    bool
	}{
		{"at bottom", 500, true},
		{"within threshold", 420, true},
		{"exactly at threshold", 400, true},
		{"just past threshold", 399, false},
		{"deep in history", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldFollow(tt.scrollTop, 1000, 500, DefaultFollowThreshold)
			assert.Equal(t, tt.follow, got)
			assert.Equal(t, !tt.follow, ShowJumpToBottom(tt.scrollTop, 1000, 500, DefaultFollowThreshold))
		})
	}
}
