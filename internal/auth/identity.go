package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleIdentity resolves a token to the Google account it belongs to
type GoogleIdentity struct {
	options []option.ClientOption
}

// NewGoogleIdentity creates a new identity resolver. Options are appended to
// the token source option.
func NewGoogleIdentity(opts ...option.ClientOption) *GoogleIdentity {
	return &GoogleIdentity{options: opts}
}

// Resolve calls userinfo.get
func (g *GoogleIdentity) Resolve(ctx context.Context, token *oauth2.Token) (string, string, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(token))}, g.options...)
	srv, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", "", fmt.Errorf("unable to create userinfo service: %w", err)
	}

	info, err := srv.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to get userinfo: %w", err)
	}
	if info.Email == "" {
		return "", "", fmt.Errorf("userinfo returned no email")
	}

	return info.Email, info.Name, nil
}
