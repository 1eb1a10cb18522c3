package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectKeyForIsOrderInsensitive(t *testing.T) {
	assert.Equal(t, directKeyFor(1, 2), directKeyFor(2, 1))
	assert.Equal(t, "1:2", directKeyFor(2, 1))
	assert.Equal(t, "7:7", directKeyFor(7, 7))
}

func TestDirectKeyForAvoidsDigitCollisions(t *testing.T) {
	// "1:23" must never equal "12:3".
	assert.NotEqual(t, directKeyFor(1, 23), directKeyFor(12, 3))
}

func TestDedupeIDsPreservesOrder(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, dedupeIDs([]int{3, 1, 3, 2, 1}))
	assert.Equal(t, []int{5}, dedupeIDs([]int{5, 5, 5}))
	assert.Empty(t, dedupeIDs(nil))
}

func TestPlaceholderAvatar(t *testing.T) {
	name := "Team Chat"
	assert.Equal(t, "https://api.dicebear.com/7.x/shapes/svg?seed=Team+Chat", placeholderAvatar(&name))
	assert.Equal(t, "https://api.dicebear.com/7.x/shapes/svg?seed=chat", placeholderAvatar(nil))

	empty := ""
	assert.Equal(t, "https://api.dicebear.com/7.x/shapes/svg?seed=chat", placeholderAvatar(&empty))
}
