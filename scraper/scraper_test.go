package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sgt = time.FixedZone("SGT", 8*3600)

const holidaysPage = `<html><body>
<h1>Public Holidays 2024</h1>
<table>
  <tr><th>Holiday</th><th>Date</th><th>Day</th></tr>
  <tr><td>National Day</td><td>9 August 2024</td><td>Friday</td></tr>
  <tr><td>Deepavali</td><td>31 Oct 2024</td><td>Thursday</td></tr>
  <tr><td>Christmas Day</td><td>
      25 December 2024
  </td><td>Wednesday</td></tr>
  <tr><td>National Day (observed)</td><td>09 Aug 2024</td><td>Friday</td></tr>
</table>
<p>Hari Raya Haji falls on <time datetime="2024-06-17">17 June</time>.</p>
</body></html>`

func TestParseHolidays(t *testing.T) {
	holidays, err := ParseHolidays(strings.NewReader(holidaysPage), sgt)
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2024, 6, 17, 0, 0, 0, 0, sgt),
		time.Date(2024, 8, 9, 0, 0, 0, 0, sgt),
		time.Date(2024, 10, 31, 0, 0, 0, 0, sgt),
		time.Date(2024, 12, 25, 0, 0, 0, 0, sgt),
	}
	require.Len(t, holidays, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(holidays[i]), "holiday %d: %s", i, holidays[i])
	}
}

func TestParseHolidays_None(t *testing.T) {
	_, err := ParseHolidays(strings.NewReader(`<table><tr><td>TBC</td></tr></table>`), sgt)
	assert.ErrorIs(t, err, ErrNoHolidays)
}

func TestScraper_FetchHolidays(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/holidays" {
			http.NotFound(w, r)
			return
		}
		userAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(holidaysPage))
	}))
	defer srv.Close()

	s := New(WithHTTPClient(srv.Client()))

	t.Run("parses the page", func(t *testing.T) {
		holidays, err := s.FetchHolidays(context.Background(), srv.URL+"/holidays", sgt)
		require.NoError(t, err)
		assert.Len(t, holidays, 4)
		assert.Contains(t, userAgent, "Mozilla/5.0")
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		_, err := s.FetchHolidays(context.Background(), srv.URL+"/missing", sgt)
		assert.Error(t, err)
	})
}
