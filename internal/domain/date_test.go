package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "calendar date", input: `"2024-01-10"`, want: NewDate(2024, time.January, 10)},
		{name: "empty string is zero", input: `""`, want: Date{}},
		{name: "null is zero", input: `null`, want: Date{}},
		{name: "not a date", input: `"10/01/2024"`, wantErr: true},
		{name: "not a string", input: `20240110`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got Date
			err := json.Unmarshal([]byte(tc.input), &got)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestDate_MarshalRoundTrip(t *testing.T) {
	tx := Transaction{ID: "t1", Date: MustParseDate("2023-10-05"), Amount: 1200}

	b, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"date":"2023-10-05"`)

	var zero Transaction
	b, err = json.Marshal(zero)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"date":""`)
}

func TestDaysBetween(t *testing.T) {
	a := MustParseDate("2024-01-10")

	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 3, DaysBetween(a, MustParseDate("2024-01-13")))
	assert.Equal(t, 3, DaysBetween(MustParseDate("2024-01-13"), a))
	assert.Equal(t, 4, DaysBetween(a, MustParseDate("2024-01-06")))
	assert.Equal(t, 29, DaysBetween(MustParseDate("2024-02-01"), MustParseDate("2024-03-01")))
}

func TestDateOf_KeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2024, time.March, 1, 1, 30, 0, 0, loc)

	assert.Equal(t, "2024-03-01", DateOf(ts).String())
	assert.True(t, DateOf(time.Time{}).IsZero())
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2023-01-01", d.String())

	require.NoError(t, d.Scan("2023-05-20T00:00:00Z"))
	assert.Equal(t, "2023-05-20", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}
