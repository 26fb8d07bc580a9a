package extractor

import (
	"testing"
	"time"

	"github.com/marmos91/dittosync/pkg/timefmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"Epoch", "01-Jan-1970 00:00:00", time.Unix(0, 0).UTC()},
		{"Regular", "01-Jan-2020 10:30:00", time.Date(2020, time.January, 1, 10, 30, 0, 0, time.UTC)},
		{"EndOfYear", "31-Dec-1999 23:59:59", time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC)},
		{"SingleDigitDayAndHour", "5-Feb-2021 7:08:09", time.Date(2021, time.February, 5, 7, 8, 9, 0, time.UTC)},
		{"SingleDigitMinuteAndSecond", "01-Jan-2020 00:2:3", time.Date(2020, time.January, 1, 0, 2, 3, 0, time.UTC)},
		{"AllUnpadded", "1-jan-2020 1:2:3", time.Date(2020, time.January, 1, 1, 2, 3, 0, time.UTC)},
		{"LowerCaseMonth", "05-feb-2021 07:08:09", time.Date(2021, time.February, 5, 7, 8, 9, 0, time.UTC)},
		{"SurroundingSpace", " 05-Feb-2021 07:08:09 ", time.Date(2021, time.February, 5, 7, 8, 9, 0, time.UTC)},
	}

	cache := timefmt.NewCache(4)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(cache, strPtr(tt.value))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	assert.Equal(t, 1, cache.Compiles())
}

func TestParseTimestamp_Absent(t *testing.T) {
	got, err := ParseTimestamp(timefmt.NewCache(1), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, value := range []string{
		"",
		"yesterday",
		"2020-01-01T00:00:00Z",
		"32-Jan-2020 00:00:00",
		"01-Foo-2020 00:00:00",
		"01-Jan-2020",
	} {
		_, err := ParseTimestamp(timefmt.NewCache(1), strPtr(value))
		require.ErrorIs(t, err, ErrTimestampParse, "value %q", value)

		var tsErr *TimestampError
		require.ErrorAs(t, err, &tsErr)
		assert.Equal(t, value, tsErr.Value)
	}
}

func TestParseTimestamp_NilCache(t *testing.T) {
	got, err := ParseTimestamp(nil, strPtr("01-Jan-2020 00:00:00"))
	require.NoError(t, err)
	assert.Equal(t, 2020, got.Year())
}
