package ffcal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mtarnawa/signalgate/internal/contracts"
	"github.com/mtarnawa/signalgate/pkg/httputil"
	"github.com/mtarnawa/signalgate/pkg/logger"
)

// Client fetches the economic calendar from a ForexFactory-style
// weekly calendar page and extracts high-impact events for the news
// filter.
type Client struct {
	http    *httputil.Client
	baseURL string
	logger  *logger.Logger
	now     func() time.Time
}

// New creates a calendar client
func New(http *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log,
		now:     time.Now,
	}
}

// FetchWeek downloads and parses the calendar page for the week
// containing the current time
func (c *Client) FetchWeek(ctx context.Context) ([]contracts.NewsEvent, error) {
	url := c.baseURL + "/calendar?week=this"

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("calendar returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar page: %w", err)
	}

	events := c.parse(doc)
	c.logger.WithFields(map[string]interface{}{
		"url":    url,
		"events": len(events),
	}).Info("Fetched calendar events")

	return events, nil
}

// parse walks the calendar table. Rows carry a day header in a
// separate row; date and time state persists across event rows the
// same way the page renders them.
func (c *Client) parse(doc *goquery.Document) []contracts.NewsEvent {
	events := make([]contracts.NewsEvent, 0)

	year := c.now().UTC().Year()
	var curDate time.Time
	var curTime string

	doc.Find("table.calendar__table tr").Each(func(_ int, row *goquery.Selection) {
		if dateText := cellText(row, "td.calendar__date, .calendar__date span.date"); dateText != "" {
			if d, err := parseDate(dateText, year); err == nil {
				curDate = d
				curTime = ""
			}
			return
		}

		if !row.HasClass("calendar__row") && row.Find("td.calendar__event").Length() == 0 {
			return
		}

		if t := cellText(row, "td.calendar__time"); t != "" {
			curTime = t
		}

		currency := cellText(row, "td.calendar__currency")
		title := cellText(row, "td.calendar__event")
		if currency == "" || title == "" || curDate.IsZero() {
			return
		}

		impact := impactFromRow(row)
		eventTime := combineDateTime(curDate, curTime)

		events = append(events, contracts.NewsEvent{
			Currency:  strings.ToUpper(currency),
			Title:     title,
			Impact:    impact,
			EventTime: eventTime,
			Source:    "forexfactory",
		})
	})

	return events
}

func cellText(row *goquery.Selection, selector string) string {
	return strings.TrimSpace(row.Find(selector).First().Text())
}

// impactFromRow reads the impact marker. The page encodes it as a
// color class on an icon span; the title attribute carries the
// human-readable level as a fallback.
func impactFromRow(row *goquery.Selection) string {
	icon := row.Find("td.calendar__impact span").First()

	switch {
	case icon.HasClass("icon--ff-impact-red"):
		return "high"
	case icon.HasClass("icon--ff-impact-ora"), icon.HasClass("icon--ff-impact-orange"):
		return "medium"
	case icon.HasClass("icon--ff-impact-yel"), icon.HasClass("icon--ff-impact-yellow"):
		return "low"
	}

	title, _ := icon.Attr("title")
	title = strings.ToLower(title)
	switch {
	case strings.Contains(title, "high"):
		return "high"
	case strings.Contains(title, "medium"):
		return "medium"
	case strings.Contains(title, "low"):
		return "low"
	}

	return "low"
}

// parseDate handles the page's "Mon Aug 24" day-header format. The
// page omits the year, so the caller supplies it.
func parseDate(text string, year int) (time.Time, error) {
	text = strings.TrimSpace(text)

	// Collapse "MonAug 24" and newline-joined variants
	fields := strings.Fields(strings.NewReplacer("\n", " ").Replace(text))
	if len(fields) >= 3 {
		text = strings.Join(fields[len(fields)-2:], " ")
	} else {
		text = strings.Join(fields, " ")
	}

	d, err := time.Parse("Jan 2", text)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized calendar date %q: %w", text, err)
	}

	return time.Date(year, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}

// combineDateTime attaches a "8:30am" style time to a date. All-day
// and tentative entries keep midnight.
func combineDateTime(date time.Time, timeText string) time.Time {
	timeText = strings.ToLower(strings.TrimSpace(timeText))
	if timeText == "" || timeText == "all day" || timeText == "tentative" {
		return date
	}

	t, err := time.Parse("3:04pm", timeText)
	if err != nil {
		return date
	}

	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, time.UTC)
}
