// Command oauth-init mints a Google OAuth token for the spreadsheet export.
// Run it once per machine when a service account is not an option; the token
// lands where GOOGLE_OAUTH_TOKEN_FILE points and the worker picks it up from
// there.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"

	"contas/internal/cli"
	"contas/internal/config"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := config.Load()

	oauthCfg, err := loadOAuthClient(cfg)
	if err != nil {
		logger.Error("Failed to load OAuth client", "error", err)
		os.Exit(1)
	}
	// The OAuth client must list this redirect URI as authorized.
	oauthCfg.RedirectURL = "http://localhost:" + cfg.OAuthRedirectPort + "/callback"

	code, err := waitForAuthorization(oauthCfg, cfg.OAuthRedirectPort)
	if err != nil {
		logger.Error("Authorization failed", "error", err)
		os.Exit(1)
	}

	token, err := oauthCfg.Exchange(context.Background(), code)
	if err != nil {
		logger.Error("Token exchange failed", "error", err)
		os.Exit(1)
	}

	if err := saveToken(cfg.GoogleOAuthTokenFile, token); err != nil {
		logger.Error("Failed to save token", "error", err, "path", cfg.GoogleOAuthTokenFile)
		os.Exit(1)
	}
	logger.Info("Token saved", "path", cfg.GoogleOAuthTokenFile)
}

func loadOAuthClient(cfg *config.Config) (*oauth2.Config, error) {
	var raw []byte
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		raw = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		var err error
		raw, err = os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
	default:
		return nil, errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	return google.ConfigFromJSON(raw, gsheet.SpreadsheetsScope)
}

// waitForAuthorization serves the redirect endpoint and blocks until Google
// calls back with a code, the user gives up, or five minutes pass.
func waitForAuthorization(oauthCfg *oauth2.Config, port string) (string, error) {
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if msg := r.URL.Query().Get("error"); msg != "" {
			http.Error(w, "authorization refused: "+msg, http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this tab and return to the terminal.")
		codeCh <- r.URL.Query().Get("code")
	})
	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case code := <-codeCh:
		return code, nil
	case <-time.After(5 * time.Minute):
		return "", errors.New("authorization timed out")
	case <-interrupt:
		return "", errors.New("interrupted")
	}
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
