package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

const callbackPath = "/callback"

// Scopes returns the scopes requested for a linked account
func Scopes(imap bool) []string {
	scopes := []string{"email", "profile", gmail.GmailReadonlyScope}
	if imap {
		scopes = append(scopes, gmail.MailGoogleComScope)
	}
	return scopes
}

// GoogleConfig configuration for the Google authorizer
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectPort int
	Scopes       []string
	Timeout      time.Duration // How long the user has to finish the consent screen
}

// GoogleAuthorizer implements Authorizer with a loopback redirect
type GoogleAuthorizer struct {
	oauth   *oauth2.Config
	port    int
	timeout time.Duration
	// OpenURL presents the consent URL to the user
	OpenURL func(url string) error
	logger  *slog.Logger
}

// NewGoogleAuthorizer creates a new Google authorizer
func NewGoogleAuthorizer(cfg GoogleConfig, logger *slog.Logger) *GoogleAuthorizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}

	logger = logger.With("component", "oauth")
	return &GoogleAuthorizer{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  "http://127.0.0.1:" + strconv.Itoa(cfg.RedirectPort) + callbackPath,
			Scopes:       cfg.Scopes,
		},
		port:    cfg.RedirectPort,
		timeout: cfg.Timeout,
		OpenURL: func(url string) error {
			logger.Info("open this URL to link an account", "url", url)
			return nil
		},
		logger: logger,
	}
}

type callbackResult struct {
	code string
	err  error
}

// Interactive shows the account chooser and waits for the redirect
func (a *GoogleAuthorizer) Interactive(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(a.port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for redirect: %w", err)
	}

	state := uuid.NewString()
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		Handler:           a.callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go srv.Serve(listener)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	url := a.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	if err := a.OpenURL(url); err != nil {
		return nil, fmt.Errorf("failed to open consent page: %w", err)
	}

	var result callbackResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrAuthCancelled, ctx.Err())
	case result = <-results:
	}
	if result.err != nil {
		return nil, result.err
	}

	token, err := a.oauth.Exchange(ctx, result.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if token.AccessToken == "" {
		return nil, ErrAuthCancelled
	}

	return token, nil
}

func (a *GoogleAuthorizer) callbackRouter(state string, results chan<- callbackResult) http.Handler {
	r := chi.NewRouter()
	r.Get(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		var result callbackResult
		switch {
		case query.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case query.Get("error") != "":
			result.err = fmt.Errorf("%w: %s", ErrAuthCancelled, query.Get("error"))
		case query.Get("code") == "":
			result.err = ErrAuthCancelled
		default:
			result.code = query.Get("code")
		}

		select {
		case results <- result:
		default:
		}

		if result.err != nil {
			w.Write([]byte("Authorization cancelled. You can close this window."))
			return
		}
		w.Write([]byte("Account linked. You can close this window."))
	})
	return r
}

// Silent exchanges the refresh token for a new access token. Google's token
// endpoint has no login hint for this grant, so loginHint only labels errors.
func (a *GoogleAuthorizer) Silent(ctx context.Context, loginHint, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored for %s", loginHint)
	}

	expired := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	token, err := a.oauth.TokenSource(ctx, expired).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("refresh rejected for %s: %s", loginHint, retrieveErr.ErrorCode)
		}
		return nil, fmt.Errorf("failed to refresh token for %s: %w", loginHint, err)
	}

	return token, nil
}
