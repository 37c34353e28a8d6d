package googlecalendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"timetable-ics/config"
)

// OAuthConfig builds the OAuth client configuration for calendar access.
func OAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{calendar.CalendarScope},
		Endpoint:     google.Endpoint,
	}
}

// NewService returns a calendar client authorised with the cached token.
// When no token is cached, the user is sent through the browser consent
// flow and the resulting token is saved to cfg.TokenFile.
func NewService(ctx context.Context, cfg config.GoogleConfig, logger *slog.Logger) (*calendar.Service, error) {
	oauthCfg := OAuthConfig(cfg)
	tok, err := TokenFromFile(cfg.TokenFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		tok, err = tokenFromWeb(ctx, oauthCfg, logger)
		if err != nil {
			return nil, err
		}
		if err := SaveToken(cfg.TokenFile, tok); err != nil {
			return nil, err
		}
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}
	return srv, nil
}

// tokenFromWeb prints the consent URL and waits for the redirect carrying
// the authorisation code.
func tokenFromWeb(ctx context.Context, oauthCfg *oauth2.Config, logger *slog.Logger) (*oauth2.Token, error) {
	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser to authorise calendar access:\n%v\n", authURL)

	codes := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, "Authorization completed. You can close this window.")
		select {
		case codes <- code:
		default:
		}
	})

	server := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("oauth callback server failed", "error", err)
		}
	}()
	defer server.Shutdown(context.Background())

	var code string
	select {
	case code = <-codes:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

func TokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("error decoding token file %s: %w", file, err)
	}
	return tok, nil
}

func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
