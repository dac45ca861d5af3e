package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFriendPair(t *testing.T) {
	a, b := FriendPair(2, 7)
	assert.Equal(t, int64(2), a)
	assert.Equal(t, int64(7), b)

	a, b = FriendPair(7, 2)
	assert.Equal(t, int64(2), a)
	assert.Equal(t, int64(7), b)
}

func TestEntryStatus_Valid(t *testing.T) {
	for _, status := range []EntryStatus{StatusWishlist, StatusPlaying, StatusPlayed, StatusDropped} {
		assert.True(t, status.Valid())
	}

	assert.False(t, EntryStatus("FINISHED").Valid())
	assert.False(t, EntryStatus("").Valid())
	assert.False(t, EntryStatus("wishlist").Valid())
}
