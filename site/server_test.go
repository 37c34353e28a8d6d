package site

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetable-ics/config"
)

func testServer() *Server {
	cfg := &config.Config{
		UTCOffsetHours: 8,
		AcademicCalendar: map[string]map[string]config.SemesterStart{
			"2024/2025": {"1": {Year: 2024, Month: 8, Day: 12}},
		},
	}
	holidays := []time.Time{time.Date(2024, 10, 31, 0, 0, 0, 0, cfg.Location())}
	return NewServer(cfg, holidays)
}

const exportRequest = `{
	"academicYear": "2024/2025",
	"semester": 1,
	"timetable": {
		"CS1010S": {
			"Lecture": [{"day": "Monday", "startTime": "0800", "endTime": "1000", "venue": "LT27",
			             "lessonType": "Lecture", "classNo": "1", "weeks": [1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13]}]
		},
		"GEA1000": {
			"Tutorial": [{"day": "Thursday", "startTime": "1400", "endTime": "1600", "venue": "",
			              "lessonType": "Tutorial", "classNo": "D12", "weeks": [3, 5, 7]}]
		}
	},
	"modules": {
		"CS1010S": {"moduleCode": "CS1010S", "title": "Programming Methodology",
		            "semesterData": [{"semester": 1, "examDate": "2024-11-25T01:00:00.000Z", "examDuration": 120}]}
	},
	"hidden": ["GEA1000"]
}`

func TestServer_Export(t *testing.T) {
	handler := testServer().Handler()

	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(exportRequest))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:CS1010S Lecture")
	assert.Contains(t, body, "SUMMARY:CS1010S Exam")
	assert.NotContains(t, body, "GEA1000")
	assert.Contains(t, body, "EXDATE:20241031T000000Z")
}

func TestServer_ExportErrors(t *testing.T) {
	handler := testServer().Handler()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"academicYear": `},
		{name: "unknown semester", body: `{"academicYear": "2024/2025", "semester": 2, "timetable": {}}`},
		{name: "unbounded week range", body: `{"academicYear": "2024/2025", "semester": 1, "timetable": {"CS1010S": {"Lab": [{"day": "Monday", "startTime": "0800", "endTime": "1000", "weeks": {"start": "0001-01-01", "end": "9999-12-27", "weeks": [1]}}]}}}`},
		{name: "invalid weeks", body: `{"academicYear": "2024/2025", "semester": 1, "timetable": {"CS1010S": {"Lecture": [{"day": "Monday", "startTime": "0800", "endTime": "1000", "weeks": [14]}]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServer_Pages(t *testing.T) {
	handler := testServer().Handler()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("index lists semesters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "2024/2025 semester 1")
	})

	t.Run("export requires POST", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
