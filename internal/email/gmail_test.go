package email

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nalgeon/be"
	"google.golang.org/api/option"
)

func newGmailServer(t *testing.T, handler http.HandlerFunc) *GmailProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGmailProvider(srv.Client(), option.WithEndpoint(srv.URL+"/"))
}

func TestGmailSession(t *testing.T) {
	var query, maxResults, format, auth string
	provider := newGmailServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/gmail/v1/users/me/messages":
			query = r.URL.Query().Get("q")
			maxResults = r.URL.Query().Get("maxResults")
			w.Write([]byte(`{"messages":[{"id":"m1","threadId":"t1"}]}`))
		case "/gmail/v1/users/me/messages/m1":
			format = r.URL.Query().Get("format")
			w.Write([]byte(`{
				"id": "m1",
				"snippet": "Use it within 10 minutes",
				"internalDate": "1714564700000",
				"payload": {
					"mimeType": "multipart/alternative",
					"headers": [
						{"name": "Subject", "value": "Your code"},
						{"name": "From", "value": "Acme <no-reply@acme.com>"}
					],
					"parts": [
						{"mimeType": "text/plain", "body": {"data": "WW91ciBjb2RlOiA0ODI5MTM"}}
					]
				}
			}`))
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	session, err := provider.Open(ctx, "tok", "me@gmail.com")
	be.Err(t, err, nil)
	defer session.Close()

	after := time.Unix(1714564200, 0)
	ids, err := session.ListRecent(ctx, after, 10)
	be.Err(t, err, nil)
	be.Equal(t, ids, []string{"m1"})
	be.Equal(t, query, "after:1714564200")
	be.Equal(t, maxResults, "10")
	be.Equal(t, auth, "Bearer tok")

	msg, err := session.GetMessage(ctx, "m1")
	be.Err(t, err, nil)
	be.Equal(t, format, "full")
	be.Equal(t, msg.Subject, "Your code")
	be.Equal(t, msg.From, "Acme <no-reply@acme.com>")
	be.Equal(t, msg.Snippet, "Use it within 10 minutes")
	be.Equal(t, msg.InternalDate, int64(1714564700000))
	be.Equal(t, len(msg.Payload.Parts), 1)
	be.Equal(t, decodeBody(msg.Payload.Parts[0].Data), "Your code: 482913")
}

func TestGmailProviderError(t *testing.T) {
	provider := newGmailServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
	})

	ctx := context.Background()
	session, err := provider.Open(ctx, "stale", "me@gmail.com")
	be.Err(t, err, nil)

	_, err = session.ListRecent(ctx, time.Now(), 10)
	var perr *ProviderError
	be.True(t, errors.As(err, &perr))
	be.Equal(t, perr.Status, http.StatusUnauthorized)
}
