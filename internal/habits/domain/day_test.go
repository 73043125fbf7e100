package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf_UsesLocalDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2026-03-01 01:30 in Tokyo is still February 28 in UTC.
	local := time.Date(2026, time.March, 1, 1, 30, 0, 0, tokyo)

	assert.Equal(t, NewDay(2026, time.March, 1), DayOf(local))
	assert.Equal(t, NewDay(2026, time.February, 28), DayOf(local.UTC()))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, NewDay(2026, time.October, 19), d)
	assert.Equal(t, "2026-10-19", d.String())

	_, err = ParseDay("19/10/2026")
	assert.Error(t, err)
}

func TestDay_Arithmetic(t *testing.T) {
	d := NewDay(2026, time.March, 28)

	assert.Equal(t, NewDay(2026, time.April, 2), d.AddDays(5))
	assert.Equal(t, NewDay(2026, time.March, 27), d.AddDays(-1))
	assert.Equal(t, 5, d.DaysUntil(d.AddDays(5)))
	assert.Equal(t, -3, d.DaysUntil(d.AddDays(-3)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.After(d.AddDays(-1)))
	assert.True(t, d.Equal(NewDay(2026, time.March, 28)))
}

func TestDay_MapKey(t *testing.T) {
	counts := map[Day]int{}
	counts[NewDay(2026, time.January, 1)]++
	counts[DayOf(time.Date(2026, time.January, 1, 23, 0, 0, 0, time.Local))]++
	counts[NewDay(2025, time.December, 31).AddDays(1)]++

	assert.Len(t, counts, 1)
	assert.Equal(t, 3, counts[NewDay(2026, time.January, 1)])
}

func TestDay_JSON(t *testing.T) {
	type payload struct {
		Day Day `json:"day"`
	}

	raw, err := json.Marshal(payload{Day: NewDay(2026, time.July, 4)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2026-07-04"}`, string(raw))

	var decoded payload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, NewDay(2026, time.July, 4), decoded.Day)
}

func TestMinDay(t *testing.T) {
	a := NewDay(2026, time.May, 1)
	b := NewDay(2026, time.April, 1)

	assert.Equal(t, b, MinDay(a, b))
	assert.Equal(t, b, MinDay(b, a))
	assert.Equal(t, a, MinDay(a, Day{}))
	assert.Equal(t, a, MinDay(Day{}, a))
}
