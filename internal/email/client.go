package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-sasl"
)

// snippetLength is how many characters of the first plain text part stand in
// for the preview IMAP servers do not provide
const snippetLength = 200

// IMAPConfig configuration for the IMAP provider
type IMAPConfig struct {
	Server      string // host:port, resolved from the account when empty
	DialTimeout time.Duration
}

// IMAPProvider reads mail over IMAP authenticated with an OAuth bearer token
type IMAPProvider struct {
	config   IMAPConfig
	resolver *Resolver
	logger   *slog.Logger
}

// NewIMAPProvider creates a new IMAP provider
func NewIMAPProvider(cfg IMAPConfig, resolver *Resolver, logger *slog.Logger) *IMAPProvider {
	return &IMAPProvider{
		config:   cfg,
		resolver: resolver,
		logger:   logger.With("component", "imap"),
	}
}

// Open connects, authenticates with OAUTHBEARER and selects INBOX read-only
func (p *IMAPProvider) Open(ctx context.Context, token, accountEmail string) (Session, error) {
	server := p.config.Server
	if server == "" {
		var err error
		server, err = p.resolver.Resolve(accountEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IMAP server: %w", err)
		}
	}

	logger := p.logger.With("email", accountEmail)
	logger.Debug("connecting to IMAP server", "server", server)

	// Connect with TLS and timeout
	timeout := p.config.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", server, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	auth := sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: accountEmail,
		Token:    token,
	})
	if err := imapClient.Authenticate(auth); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if _, err := imapClient.Select("INBOX", true); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	return &imapSession{client: imapClient, logger: logger}, nil
}

type imapSession struct {
	client *client.Client
	logger *slog.Logger
}

// ListRecent uses SEARCH SINCE, which has day granularity, and then filters
// on INTERNALDATE
func (s *imapSession) ListRecent(ctx context.Context, after time.Time, limit int64) ([]string, error) {
	defer s.watch(ctx)()

	criteria := imap.NewSearchCriteria()
	criteria.Since = after
	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", cause(ctx, err))
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	items := []imap.FetchItem{imap.FetchUid, imap.FetchInternalDate}
	messages := make(chan *imap.Message, 100)
	done := make(chan error, 1)

	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	type dated struct {
		uid  uint32
		date time.Time
	}
	var recent []dated
	for msg := range messages {
		if msg.InternalDate.After(after) {
			recent = append(recent, dated{uid: msg.Uid, date: msg.InternalDate})
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch dates: %w", cause(ctx, err))
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].date.After(recent[j].date)
	})
	if int64(len(recent)) > limit {
		recent = recent[:limit]
	}

	ids := make([]string, 0, len(recent))
	for _, r := range recent {
		ids = append(ids, strconv.FormatUint(uint64(r.uid), 10))
	}
	return ids, nil
}

func (s *imapSession) GetMessage(ctx context.Context, id string) (*Message, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid message id %q: %w", id, err)
	}
	defer s.watch(ctx)()

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var fetched *imap.Message
	for msg := range messages {
		fetched = msg
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", cause(ctx, err))
	}
	if fetched == nil {
		return nil, fmt.Errorf("message %s not found", id)
	}

	return s.parseMessage(id, fetched, section), nil
}

// parseMessage converts an IMAP message into a Message. A body that cannot
// be parsed leaves the payload empty rather than failing the message.
func (s *imapSession) parseMessage(id string, msg *imap.Message, section *imap.BodySectionName) *Message {
	parsed := &Message{
		ID:           id,
		InternalDate: msg.InternalDate.UnixMilli(),
	}

	// Parse envelope
	if msg.Envelope != nil {
		parsed.Subject = msg.Envelope.Subject

		if len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			if from.PersonalName != "" {
				parsed.From = fmt.Sprintf("%s <%s>", from.PersonalName, from.Address())
			} else {
				parsed.From = from.Address()
			}
		}
	}

	// Parse body
	bodyReader := msg.GetBody(section)
	if bodyReader == nil {
		return parsed
	}

	entity, err := message.Read(bodyReader)
	if err != nil && !message.IsUnknownCharset(err) {
		s.logger.Warn("failed to read message body", "uid", msg.Uid, "error", err)
		return parsed
	}

	var snippet string
	parsed.Payload = readPart(entity, 0, &snippet)
	parsed.Snippet = snippet
	return parsed
}

// readPart builds the part tree of an entity. The first text/plain body seen
// is condensed into snippet.
func readPart(entity *message.Entity, depth int, snippet *string) *Part {
	mediaType, _, _ := entity.Header.ContentType()
	if mediaType == "" {
		mediaType = "text/plain"
	}
	part := &Part{MimeType: mediaType}

	if mr := entity.MultipartReader(); mr != nil {
		if depth >= maxPartDepth {
			return part
		}
		for {
			child, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) {
				break
			}
			part.Parts = append(part.Parts, readPart(child, depth+1, snippet))
		}
		return part
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil && len(body) == 0 {
		return part
	}
	part.Data = encodeBody(body)

	if mediaType == "text/plain" && *snippet == "" {
		*snippet = condense(string(body), snippetLength)
	}
	return part
}

func condense(text string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}

// watch drops the connection when ctx is done so that a pending command
// returns. The returned func stops watching.
func (s *imapSession) watch(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		s.logger.Debug("scan cancelled, closing connection")
		s.client.Terminate()
	})
}

// cause prefers the context error over the one of a dropped connection
func cause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (s *imapSession) Close() error {
	// Try logout with timeout, then force close
	done := make(chan error, 1)
	go func() {
		done <- s.client.Logout()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		return s.client.Terminate()
	}
}
