// ABOUTME: Pure scroll-follow derivation for the message viewport
// ABOUTME: No state, no persistence; just geometry over scroll positions

package session

// DefaultFollowThreshold is how close to the bottom (in pixels or rows,
// whatever unit the viewport reports) the reader must be for new
// messages to auto-scroll into view.
const DefaultFollowThreshold = 100

// DistanceFromBottom returns how far the viewport is scrolled above the
// bottom of the content. Zero means fully scrolled down. Negative inputs
// (overscroll bounce) clamp to zero.
func DistanceFromBottom(scrollTop, scrollHeight, clientHeight int) int {
	d := scrollHeight - scrollTop - clientHeight
	if d < 0 {
		return 0
	}
	return d
}

// ShouldFollow reports whether a newly appended message should
// auto-scroll the viewport to the bottom: only when the reader is
// already within threshold of the bottom. A reader scrolled up into
// history keeps their place.
func ShouldFollow(scrollTop, scrollHeight, clientHeight, threshold int) bool {
	return DistanceFromBottom(scrollTop, scrollHeight, clientHeight) <= threshold
}

// ShowJumpToBottom reports whether the jump-to-bottom affordance should
// be visible: the complement of ShouldFollow.
func ShowJumpToBottom(scrollTop, scrollHeight, clientHeight, threshold int) bool {
	return !ShouldFollow(scrollTop, scrollHeight, clientHeight, threshold)
}
