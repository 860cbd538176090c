package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/pkg/errors"
)

func TestNormalizeDateTextAbsolute(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.Local)

	epoch, err := NormalizeDateText("17.06.2024 14:30", now)
	assert.NoError(t, err)

	// Round-trip: formatting the epoch in local time yields the input
	back := time.Unix(epoch, 0).In(time.Local).Format(dateTimeLayout)
	assert.Equal(t, "17.06.2024 14:30", back)
}

func TestNormalizeDateTextRelative(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.Local)

	today, err := NormalizeDateText("Today 14:30", now)
	assert.NoError(t, err)

	explicit, err := NormalizeDateText(now.Format(dayLayout)+" 14:30", now)
	assert.NoError(t, err)
	assert.Equal(t, explicit, today)

	yesterday, err := NormalizeDateText("Yesterday 14:30", now)
	assert.NoError(t, err)
	assert.Equal(t, today-86400, yesterday)
}

func TestNormalizeDateTextWhitespace(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.Local)

	clean, err := NormalizeDateText("17.06.2024 14:30", now)
	assert.NoError(t, err)

	padded, err := NormalizeDateText("  17.06.2024   14:30 ", now)
	assert.NoError(t, err)
	assert.Equal(t, clean, padded)
}

func TestNormalizeDateTextMalformed(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.Local)

	for _, raw := range []string{
		"",
		"Tomorrow 14:30",
		"17.06.2024",  // missing HH:MM
		"Today",       // missing HH:MM
		"2024-06-17 14:30",
		"garbage",
	} {
		_, err := NormalizeDateText(raw, now)
		assert.Error(t, err, raw)
		assert.True(t, errors.IsMalformedDate(err), raw)
	}
}
