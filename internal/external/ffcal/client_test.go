package ffcal

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtarnawa/signalgate/pkg/logger"
)

const calendarFixture = `
<html><body>
<table class="calendar__table">
  <tr>
    <td class="calendar__date"><span class="date">Mon Aug 24</span></td>
  </tr>
  <tr class="calendar__row">
    <td class="calendar__time">8:30am</td>
    <td class="calendar__currency">USD</td>
    <td class="calendar__impact"><span class="icon icon--ff-impact-red" title="High Impact Expected"></span></td>
    <td class="calendar__event">Core Durable Goods Orders m/m</td>
  </tr>
  <tr class="calendar__row">
    <td class="calendar__time"></td>
    <td class="calendar__currency">USD</td>
    <td class="calendar__impact"><span class="icon icon--ff-impact-yel" title="Low Impact Expected"></span></td>
    <td class="calendar__event">HPI m/m</td>
  </tr>
  <tr>
    <td class="calendar__date"><span class="date">Thu Aug 27</span></td>
  </tr>
  <tr class="calendar__row">
    <td class="calendar__time">All Day</td>
    <td class="calendar__currency">EUR</td>
    <td class="calendar__impact"><span class="icon icon--ff-impact-ora" title="Medium Impact Expected"></span></td>
    <td class="calendar__event">German Prelim CPI m/m</td>
  </tr>
  <tr class="calendar__row">
    <td class="calendar__time">2:00pm</td>
    <td class="calendar__currency">GBP</td>
    <td class="calendar__impact"><span class="icon" title="High Impact Expected"></span></td>
    <td class="calendar__event">BOE Gov Speaks</td>
  </tr>
</table>
</body></html>
`

func fixtureClient(t *testing.T) *Client {
	t.Helper()
	c := New(nil, "https://www.forexfactory.com", logger.NewNop())
	c.now = func() time.Time {
		return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func TestParse_CalendarPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(calendarFixture))
	require.NoError(t, err)

	events := fixtureClient(t).parse(doc)
	require.Len(t, events, 4)

	first := events[0]
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, "Core Durable Goods Orders m/m", first.Title)
	assert.Equal(t, "high", first.Impact)
	assert.Equal(t, time.Date(2026, 8, 24, 8, 30, 0, 0, time.UTC), first.EventTime)
	assert.Equal(t, "forexfactory", first.Source)
	assert.True(t, first.IsHighImpact())

	// Blank time cell inherits the previous row's time
	second := events[1]
	assert.Equal(t, "low", second.Impact)
	assert.Equal(t, time.Date(2026, 8, 24, 8, 30, 0, 0, time.UTC), second.EventTime)

	// All-day events keep midnight on the new date
	third := events[2]
	assert.Equal(t, "EUR", third.Currency)
	assert.Equal(t, "medium", third.Impact)
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), third.EventTime)

	// Impact falls back to the icon title when no color class is set
	fourth := events[3]
	assert.Equal(t, "GBP", fourth.Currency)
	assert.Equal(t, "high", fourth.Impact)
	assert.Equal(t, time.Date(2026, 8, 27, 14, 0, 0, 0, time.UTC), fourth.EventTime)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		text    string
		want    time.Time
		wantErr bool
	}{
		{"Mon Aug 24", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), false},
		{"Aug 24", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), false},
		{"Thu\nDec 31", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"nonsense", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := parseDate(tt.text, 2026)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCombineDateTime(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 8, 24, 8, 30, 0, 0, time.UTC), combineDateTime(day, "8:30am"))
	assert.Equal(t, time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC), combineDateTime(day, "2:00pm"))
	assert.Equal(t, day, combineDateTime(day, "All Day"))
	assert.Equal(t, day, combineDateTime(day, "Tentative"))
	assert.Equal(t, day, combineDateTime(day, ""))
	assert.Equal(t, day, combineDateTime(day, "garbage"))
}
