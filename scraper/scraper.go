package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoHolidays is returned when a page contains no recognisable holiday date.
var ErrNoHolidays = errors.New("no holidays found")

var holidayLayouts = []string{
	"2 January 2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Monday, 2 January 2006",
	"2006-01-02",
}

// Scraper fetches institutional pages over HTTP.
type Scraper struct {
	client *http.Client
	logger *slog.Logger
}

type Option func(*Scraper)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		if client != nil {
			s.client = client
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchHolidays downloads the page at pageURL and parses the holiday dates
// listed in it.
func (s *Scraper) FetchHolidays(ctx context.Context, pageURL string, loc *time.Location) ([]time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	// Some institutional sites reject requests without browser headers.
	req.Header.Add("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Add("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Add("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching holidays page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error fetching holidays page: status %s", resp.Status)
	}

	holidays, err := ParseHolidays(resp.Body, loc)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fetched holidays", "url", pageURL, "count", len(holidays))
	return holidays, nil
}

// ParseHolidays reads an HTML document and returns every distinct date found
// in a table cell or a <time datetime> element, as midnight in loc.
func ParseHolidays(r io.Reader, loc *time.Location) ([]time.Time, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing holidays HTML: %w", err)
	}

	seen := make(map[time.Time]bool)
	var holidays []time.Time
	add := func(text string) {
		d, ok := parseDate(text, loc)
		if !ok || seen[d] {
			return
		}
		seen[d] = true
		holidays = append(holidays, d)
	}

	doc.Find("time[datetime]").Each(func(i int, s *goquery.Selection) {
		value, _ := s.Attr("datetime")
		add(value)
	})
	doc.Find("table td").Each(func(i int, s *goquery.Selection) {
		add(s.Text())
	})

	if len(holidays) == 0 {
		return nil, ErrNoHolidays
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Before(holidays[j]) })
	return holidays, nil
}

func parseDate(text string, loc *time.Location) (time.Time, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return time.Time{}, false
	}
	if len(text) > len("2006-01-02") && text[4] == '-' {
		text = text[:len("2006-01-02")]
	}
	for _, layout := range holidayLayouts {
		if d, err := time.ParseInLocation(layout, text, loc); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
