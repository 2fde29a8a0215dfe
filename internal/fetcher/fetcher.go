// Package fetcher downloads the availability page and parses it into slots.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"seat_tracker/internal/model"
)

// Errors returned by Fetch. Both are transient from the poll loop's view.
var (
	ErrFetch = errors.New("fetch source")
	ErrParse = errors.New("parse source")
)

const (
	userAgent = "Mozilla/5.0 (CENTSTracker/1.0)"
	maxBody   = 5 * 1024 * 1024
	minCells  = 7
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses the seat calendar.
type Fetcher struct {
	client HTTPClient
	url    string
}

// New creates a Fetcher for the given page URL.
func New(client HTTPClient, url string) *Fetcher {
	return &Fetcher{client: client, url: url}
}

// Fetch downloads the calendar page and returns the slots currently open.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.Slot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http get: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	return Parse(io.LimitReader(resp.Body, maxBody))
}

// Parse extracts open slots from the first table of an HTML document.
// A document without a table yields no slots and no error.
func Parse(r io.Reader) ([]model.Slot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil
	}

	var slots []model.Slot
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		if slot, ok := parseRow(row.Find("td")); ok {
			slots = append(slots, slot)
		}
	})
	return slots, nil
}

func parseRow(cells *goquery.Selection) (model.Slot, bool) {
	if cells.Length() < minCells {
		return model.Slot{}, false
	}

	status := cells.Eq(6)
	link := status.Find("a").First()
	if link.Length() == 0 {
		return model.Slot{}, false
	}
	if !strings.Contains(strings.ToUpper(cellText(status)), "AVAILABLE") {
		return model.Slot{}, false
	}

	seats, err := strconv.Atoi(cellText(cells.Eq(5)))
	if err != nil || seats <= 0 {
		return model.Slot{}, false
	}

	format := strings.ToUpper(cellText(cells.Eq(0)))
	institution := cellText(cells.Eq(1))
	testDate := model.NoDate
	if cells.Length() > minCells {
		testDate = cellText(cells.Eq(7))
	}
	href, _ := link.Attr("href")

	return model.Slot{
		Format:      format,
		Institution: institution,
		Region:      cellText(cells.Eq(2)),
		City:        cellText(cells.Eq(3)),
		Deadline:    cellText(cells.Eq(4)),
		Seats:       seats,
		TestDate:    testDate,
		Link:        strings.TrimSpace(href),
		AtUni:       strings.Contains(format, "@UNI"),
		AtHome:      strings.Contains(format, "@HOME"),
		Key:         model.SlotKey(format, institution, testDate),
	}, true
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
