package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
	"academicCalendar": {
		"2024/2025": {
			"1": {"year": 2024, "month": 8, "day": 12},
			"2": {"year": 2025, "month": 1, "day": 13}
		}
	},
	"holidays": ["2024-10-31", "2024-08-09"],
	"output": "out/timetable.ics",
	"github": {"repo": "someone/calendars", "path": "nus.ics"}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", sampleConfig)
	env := writeFile(t, dir, ".env", "GITHUB_TOKEN=from-dotenv\nGOOGLE_CLIENT_ID=client\nGOOGLE_CLIENT_SECRET=secret\n")
	t.Setenv("TIMETABLE_LISTEN_ADDR", ":9000")
	for _, key := range []string{"GITHUB_TOKEN", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig(path, env, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.UTCOffsetHours)
	assert.Equal(t, "out/timetable.ics", cfg.Output)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "from-dotenv", cfg.Github.Token)
	assert.Empty(t, cfg.Github.Branch)
	assert.Equal(t, "client", cfg.Google.ClientID)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
}

func TestLoadConfig_EnvWinsOverDotenv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", sampleConfig)
	env := writeFile(t, dir, ".env", "GITHUB_TOKEN=from-dotenv\n")
	t.Setenv("GITHUB_TOKEN", "from-env")

	cfg, err := LoadConfig(path, env)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Github.Token)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: `{"academicCalendar": `},
		{name: "no academic calendar", content: `{"output": "a.ics"}`},
		{name: "bad holiday", content: `{"academicCalendar": {"2024/2025": {"1": {"year": 2024, "month": 8, "day": 12}}}, "holidays": ["31/10/2024"]}`},
		{name: "bad month", content: `{"academicCalendar": {"2024/2025": {"1": {"year": 2024, "month": 13, "day": 12}}}}`},
		{name: "repo without token", content: `{"academicCalendar": {"2024/2025": {"1": {"year": 2024, "month": 8, "day": 12}}}, "github": {"repo": "a/b", "path": "x.ics"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GITHUB_TOKEN", "")
			path := writeFile(t, t.TempDir(), "config.json", tt.content)
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_Semester(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", sampleConfig)
	t.Setenv("GITHUB_TOKEN", "token")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	start, err := cfg.SemesterStart("2024/2025", 2)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 13, 0, 0, 0, 0, cfg.Location()).Equal(start))
	_, offset := start.Zone()
	assert.Equal(t, 8*3600, offset)

	_, err = cfg.SemesterStart("2024/2025", 3)
	assert.ErrorIs(t, err, ErrUnknownSemester)
	_, err = cfg.Semester("2030/2031", 1, nil)
	assert.ErrorIs(t, err, ErrUnknownSemester)

	holidays, err := cfg.HolidayDates()
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, time.August, holidays[0].Month())
	assert.Equal(t, time.October, holidays[1].Month())

	sem, err := cfg.Semester("2024/2025", 1, holidays)
	require.NoError(t, err)
	assert.Equal(t, 1, sem.Number)
	assert.Equal(t, time.Monday, sem.FirstDay.Weekday())
	assert.Equal(t, 2, sem.Holidays.Len())
}
