package storage

import (
	"time"

	"github.com/julianstephens/sqirvy-health/internal/constants"
)

// nowFunc is swapped in tests
var nowFunc = time.Now

func timestamp() string {
	return nowFunc().UTC().Format(constants.TimestampFormat)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(constants.TimestampFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
