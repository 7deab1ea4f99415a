package telegram

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/nalgeon/be"

	"github.com/mixelka/otpfill/internal/formatter"
	"github.com/mixelka/otpfill/internal/messaging"
	appmodels "github.com/mixelka/otpfill/pkg/models"
)

const testChatID = 42

type apiCall struct {
	method string
	values map[string]string
}

// fakeAPI records Bot API calls
type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(1 << 20)
	values := map[string]string{}
	for key := range r.Form {
		values[key] = r.Form.Get(key)
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], values: values})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/answerCallbackQuery") {
		io.WriteString(w, `{"ok":true,"result":true}`)
		return
	}
	io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
}

func (f *fakeAPI) byMethod(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []apiCall
	for _, c := range f.calls {
		if c.method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

type fakeDispatcher struct {
	responses map[messaging.MessageType]messaging.Response
	requests  []messaging.Request
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, req messaging.Request) messaging.Response {
	d.requests = append(d.requests, req)
	return d.responses[req.Type]
}

func newTestBot(t *testing.T, dispatcher Dispatcher) (*Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := NewBot(BotDeps{
		Token:      "123:test",
		ChatID:     testChatID,
		Dispatcher: dispatcher,
		Formatter:  formatter.NewTelegramFormatter(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Options:    []bot.Option{bot.WithServerURL(srv.URL), bot.WithSkipGetMe()},
	})
	be.Err(t, err, nil)
	return b, api
}

func TestNotifyCodesOnlyOnce(t *testing.T) {
	b, api := newTestBot(t, &fakeDispatcher{})
	codes := []appmodels.Candidate{{Code: "482913", SenderName: "Acme", AccountEmail: "a@gmail.com", TimestampMs: 100}}

	b.NotifyCodes(context.Background(), codes)
	b.NotifyCodes(context.Background(), codes)

	sent := api.byMethod("sendMessage")
	be.Equal(t, len(sent), 1)
	be.True(t, strings.Contains(sent[0].values["text"], "<code>482913</code>"))
	be.True(t, strings.Contains(sent[0].values["reply_markup"], "Fill 482913"))

	// A later message with the same code is new
	b.NotifyCodes(context.Background(), []appmodels.Candidate{{Code: "482913", AccountEmail: "a@gmail.com", TimestampMs: 200}})
	be.Equal(t, len(api.byMethod("sendMessage")), 2)
}

func TestHandleCodes(t *testing.T) {
	dispatcher := &fakeDispatcher{responses: map[messaging.MessageType]messaging.Response{
		messaging.GetOTP: {OK: true, Codes: []appmodels.Candidate{{Code: "482913", AccountEmail: "a@gmail.com"}}},
	}}
	b, api := newTestBot(t, dispatcher)

	update := &models.Update{Message: &models.Message{Text: "/codes a@gmail.com", Chat: models.Chat{ID: testChatID}}}
	b.handleCodes(context.Background(), b.bot, update)

	be.Equal(t, dispatcher.requests, []messaging.Request{{Type: messaging.GetOTP, FilterEmail: "a@gmail.com"}})
	sent := api.byMethod("sendMessage")
	be.Equal(t, len(sent), 1)
	be.True(t, strings.Contains(sent[0].values["text"], "482913"))
}

func TestHandleCodesIgnoresOtherChats(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	b, api := newTestBot(t, dispatcher)

	update := &models.Update{Message: &models.Message{Text: "/codes", Chat: models.Chat{ID: 7}}}
	b.handleCodes(context.Background(), b.bot, update)

	be.Equal(t, len(dispatcher.requests), 0)
	be.Equal(t, len(api.byMethod("sendMessage")), 0)
}

func TestFillCallback(t *testing.T) {
	dispatcher := &fakeDispatcher{responses: map[messaging.MessageType]messaging.Response{
		messaging.FillCode: {OK: false, Error: messaging.ErrMsgNoField},
	}}
	b, api := newTestBot(t, dispatcher)

	update := &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:      "cb1",
		Data:    formatter.EncodeCallback(appmodels.CallbackData{Action: appmodels.CallbackFillCode, Code: "482913"}),
		Message: models.MaybeInaccessibleMessage{Message: &models.Message{Chat: models.Chat{ID: testChatID}}},
	}}
	b.handleCallback(context.Background(), b.bot, update)

	be.Equal(t, dispatcher.requests, []messaging.Request{{Type: messaging.FillCode, Code: "482913"}})
	answers := api.byMethod("answerCallbackQuery")
	be.Equal(t, len(answers), 1)
	be.Equal(t, answers[0].values["text"], messaging.ErrMsgNoField)
	be.Equal(t, answers[0].values["show_alert"], "true")
}
