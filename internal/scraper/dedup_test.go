package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenSet(t *testing.T) {
	seen := NewSeenSet()

	assert.True(t, seen.IsNew("4814512"))
	assert.False(t, seen.IsNew("4814512"))

	assert.True(t, seen.IsNew("https://www.bazaraki.com/adv/1_flat/"))
	assert.Equal(t, 2, seen.Len())
}
