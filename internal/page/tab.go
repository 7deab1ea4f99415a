package page

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/mixelka/otpfill/internal/htmldom"
	"github.com/mixelka/otpfill/internal/messaging"
)

// FileTab is a page stored as an HTML file. Each request loads the file and
// a successful fill is written back once the submit step has run.
type FileTab struct {
	path   string
	agent  *Agent
	logger *slog.Logger

	mu       sync.Mutex
	attached bool
	pending  sync.WaitGroup
}

// NewFileTab creates a tab for the page at path. The agent is attached by
// Inject.
func NewFileTab(path string, agent *Agent, logger *slog.Logger) *FileTab {
	return &FileTab{
		path:   path,
		agent:  agent,
		logger: logger.With("component", "tab", "path", path),
	}
}

// Inject attaches the agent if the page can be read
func (t *FileTab) Inject(ctx context.Context) error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	f.Close()

	t.mu.Lock()
	t.attached = true
	t.mu.Unlock()

	t.logger.Debug("agent attached")
	return nil
}

// Send delivers a request to the agent
func (t *FileTab) Send(ctx context.Context, req messaging.Request) (*messaging.Response, error) {
	t.mu.Lock()
	attached := t.attached
	t.mu.Unlock()
	if !attached {
		return nil, messaging.ErrAgentNotAttached
	}

	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	doc, err := htmldom.Parse(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	resp, outcome := t.agent.Handle(doc, req)
	if outcome != nil {
		t.pending.Add(1)
		go func() {
			defer t.pending.Done()
			<-outcome
			t.save(doc)
		}()
	}

	return &resp, nil
}

// Wait blocks until pending write-backs are done
func (t *FileTab) Wait() {
	t.pending.Wait()
}

func (t *FileTab) save(doc *htmldom.Document) {
	rendered, err := doc.Render()
	if err != nil {
		t.logger.Error("failed to render page", "error", err)
		return
	}

	if err := os.WriteFile(t.path, []byte(rendered), 0o644); err != nil {
		t.logger.Error("failed to save page", "error", err)
		return
	}
	t.logger.Debug("page saved", "log", doc.Log())
}

// FileTabs serves a single FileTab as the active tab
type FileTabs struct {
	tab *FileTab
}

// NewFileTabs creates a provider. An empty path means there is no active tab.
func NewFileTabs(path string, agent *Agent, logger *slog.Logger) *FileTabs {
	if path == "" {
		return &FileTabs{}
	}
	return &FileTabs{tab: NewFileTab(path, agent, logger)}
}

func (f *FileTabs) ActiveTab(ctx context.Context) (messaging.Tab, bool) {
	if f.tab == nil {
		return nil, false
	}
	return f.tab, true
}

// Wait blocks until the active tab's pending write-backs are done
func (f *FileTabs) Wait() {
	if f.tab != nil {
		f.tab.Wait()
	}
}
