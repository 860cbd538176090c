package scraper

import (
	"strings"
	"time"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/helpers"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/pkg/errors"
)

// Site date formats. The site prints times without a timezone; they are
// interpreted as local time to match its implicit zone.
const (
	dateTimeLayout = "02.01.2006 15:04"
	dayLayout      = "02.01.2006"
)

// NormalizeDateText converts the site's date text ("Today 14:30",
// "Yesterday 09:05" or "17.06.2024 14:30") to epoch seconds. now supplies
// the reference date for the relative forms. Text matching neither form
// yields a malformed-date error.
func NormalizeDateText(raw string, now time.Time) (int64, error) {
	s := helpers.CleanText(raw)
	if s == "" {
		return 0, errors.NewMalformedDate(raw, nil)
	}

	switch {
	case strings.Contains(s, "Yesterday"):
		s = strings.Replace(s, "Yesterday", now.AddDate(0, 0, -1).Format(dayLayout), 1)
	case strings.Contains(s, "Today"):
		s = strings.Replace(s, "Today", now.Format(dayLayout), 1)
	}

	t, err := time.ParseInLocation(dateTimeLayout, s, time.Local)
	if err != nil {
		return 0, errors.NewMalformedDate(raw, err)
	}
	return t.Unix(), nil
}
