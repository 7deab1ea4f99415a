package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// GmailProvider reads mail through the Gmail REST API
type GmailProvider struct {
	httpClient *http.Client // Base transport, nil for the default
	options    []option.ClientOption
}

// NewGmailProvider creates a Gmail provider. Extra options are appended to
// the ones carrying authentication.
func NewGmailProvider(httpClient *http.Client, opts ...option.ClientOption) *GmailProvider {
	return &GmailProvider{
		httpClient: httpClient,
		options:    opts,
	}
}

// Open creates a Gmail service authorized with the bearer token
func (p *GmailProvider) Open(ctx context.Context, token, accountEmail string) (Session, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
	client := oauth2.NewClient(ctx, tokenSource)

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, p.options...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}

	return &gmailSession{srv: srv}, nil
}

type gmailSession struct {
	srv *gmail.Service
}

func (s *gmailSession) ListRecent(ctx context.Context, after time.Time, limit int64) ([]string, error) {
	resp, err := s.srv.Users.Messages.List(gmailUser).
		Q(fmt.Sprintf("after:%d", after.Unix())).
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, providerError(err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}
	return ids, nil
}

func (s *gmailSession) GetMessage(ctx context.Context, id string) (*Message, error) {
	msg, err := s.srv.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, providerError(err)
	}

	return convertGmailMessage(msg), nil
}

func (s *gmailSession) Close() error {
	return nil
}

func convertGmailMessage(msg *gmail.Message) *Message {
	converted := &Message{
		ID:           msg.Id,
		Snippet:      msg.Snippet,
		InternalDate: msg.InternalDate,
	}

	if msg.Payload != nil {
		converted.Subject = getHeader(msg.Payload.Headers, "Subject")
		converted.From = getHeader(msg.Payload.Headers, "From")
		converted.Payload = convertGmailPart(msg.Payload, 0)
	}

	return converted
}

func convertGmailPart(part *gmail.MessagePart, depth int) *Part {
	converted := &Part{MimeType: part.MimeType}
	if part.Body != nil {
		converted.Data = part.Body.Data
	}

	if depth >= maxPartDepth {
		return converted
	}
	for _, child := range part.Parts {
		if child != nil {
			converted.Parts = append(converted.Parts, convertGmailPart(child, depth+1))
		}
	}
	return converted
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

func providerError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{Status: apiErr.Code, Err: err}
	}
	return err
}
