package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"timetable-ics/timetable"
)

// ErrUnknownSemester is returned when the academic calendar has no start
// date for the requested semester.
var ErrUnknownSemester = errors.New("unknown semester")

var validate = validator.New()

const holidayLayout = "2006-01-02"

type Config struct {
	UTCOffsetHours int `json:"utcOffsetHours" validate:"gte=-12,lte=14"`
	// AcademicCalendar maps academic year ("2024/2025") to semester number to
	// the Monday of week 1.
	AcademicCalendar map[string]map[string]SemesterStart `json:"academicCalendar" validate:"required,dive,required,dive"`
	Holidays         []string                            `json:"holidays" validate:"dive,datetime=2006-01-02"`
	HolidaySourceURL string                              `json:"holidaySourceURL" validate:"omitempty,url"`
	Output           string                              `json:"output" validate:"required"`
	ListenAddr       string                              `json:"listenAddr"`
	Github           GithubConfig                        `json:"github"`
	Google           GoogleConfig                        `json:"google"`
}

type SemesterStart struct {
	Year  int `json:"year" validate:"gte=2000"`
	Month int `json:"month" validate:"gte=1,lte=12"`
	Day   int `json:"day" validate:"gte=1,lte=31"`
}

type GithubConfig struct {
	Token  string `json:"token" validate:"required_with=Repo"`
	Repo   string `json:"repo" validate:"omitempty,contains=/"`
	Path   string `json:"path" validate:"required_with=Repo"`
	// Branch is empty to use the repository's default branch.
	Branch string `json:"branch"`
}

type GoogleConfig struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret" validate:"required_with=ClientID"`
	RedirectURI  string `json:"redirectUri" validate:"omitempty,url"`
	TokenFile    string `json:"tokenFile"`
	CalendarID   string `json:"calendarId"`
}

func defaults() Config {
	return Config{
		UTCOffsetHours: 8,
		Output:         "timetable.ics",
		ListenAddr:     ":8080",
		Google:         GoogleConfig{TokenFile: "token.json", CalendarID: "primary"},
	}
}

// LoadConfig reads the JSON config file, then overlays secrets from the
// process environment and the given .env files. The process environment
// wins over .env files; missing .env files are skipped.
func LoadConfig(filename string, envFiles ...string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := defaults()
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config %s: %w", filename, err)
	}

	env, err := readEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(existing...)
	if err != nil {
		return nil, fmt.Errorf("error reading env files: %w", err)
	}
	return env, nil
}

func (c *Config) applyEnv(fileEnv map[string]string) {
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Github.Token, "GITHUB_TOKEN")
	set(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.ListenAddr, "TIMETABLE_LISTEN_ADDR")
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location is the fixed-offset timezone all lessons are expressed in.
func (c *Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.UTCOffsetHours), c.UTCOffsetHours*3600)
}

// SemesterStart returns local midnight of the Monday of week 1.
func (c *Config) SemesterStart(academicYear string, semester int) (time.Time, error) {
	start, ok := c.AcademicCalendar[academicYear][strconv.Itoa(semester)]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s semester %d", ErrUnknownSemester, academicYear, semester)
	}
	return time.Date(start.Year, time.Month(start.Month), start.Day, 0, 0, 0, 0, c.Location()), nil
}

// HolidayDates parses the configured holidays in the configured timezone.
func (c *Config) HolidayDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := time.ParseInLocation(holidayLayout, h, c.Location())
		if err != nil {
			return nil, fmt.Errorf("error parsing holiday %q: %w", h, err)
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// Semester builds the calendar context of one semester from the academic
// calendar and the given holidays.
func (c *Config) Semester(academicYear string, semester int, holidays []time.Time) (timetable.SemesterCalendar, error) {
	start, err := c.SemesterStart(academicYear, semester)
	if err != nil {
		return timetable.SemesterCalendar{}, err
	}
	loc := c.Location()
	return timetable.NewSemesterCalendar(semester, start.Year(), start.Month(), start.Day(), loc,
		timetable.NewHolidayCalendar(loc, holidays...)), nil
}
