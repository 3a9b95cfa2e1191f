// Package dispatch resolves an activated menu entry into the URLs to open.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/browser"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/model"
	"github.com/rcliao/tako/internal/policy"
	"github.com/rcliao/tako/internal/store"
)

// ActionOpenTab opens a URL in a new tab.
const ActionOpenTab = "open_tab"

// Action is a resolved effect of an activation.
type Action struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// Opener performs open-tab actions.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// BrowserOpener opens URLs with the system browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(_ context.Context, url string) error {
	return browser.OpenURL(url)
}

// RecordingOpener remembers the URLs it was asked to open.
type RecordingOpener struct {
	mu   sync.Mutex
	urls []string
}

func (r *RecordingOpener) Open(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return nil
}

// URLs returns the recorded URLs in call order.
func (r *RecordingOpener) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

// BuildURL replaces the first placeholder in template with the raw
// selection, or appends the selection when there is no placeholder.
func BuildURL(template, selectionText string) string {
	if strings.Contains(template, model.SelectionPlaceholder) {
		return strings.Replace(template, model.SelectionPlaceholder, selectionText, 1)
	}
	return template + selectionText
}

// Dispatcher handles menu entry activations.
type Dispatcher struct {
	store  store.Store
	policy *policy.Evaluator
	opener Opener
	log    *logging.Logger
}

// New returns a Dispatcher. A nil opener resolves actions without
// performing them.
func New(s store.Store, ev *policy.Evaluator, opener Opener, log *logging.Logger) *Dispatcher {
	return &Dispatcher{store: s, policy: ev, opener: opener, log: log}
}

// Activate resolves the enabled module with the given id for
// selectionText. Both privacy checks are run again against the current
// settings; when either fails nothing is opened. Otherwise one open-tab
// action per URL template is returned, in template order, and handed to
// the opener. Unknown ids, such as category entries, resolve to nothing.
func (d *Dispatcher) Activate(ctx context.Context, moduleID, selectionText string) ([]Action, error) {
	modules, err := d.store.ListEnabledModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	m, ok := model.FindModule(modules, moduleID)
	if !ok {
		d.log.Debug("activation for unknown module", "id", moduleID)
		return nil, nil
	}

	ps, err := d.store.GetPrivacySettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load privacy settings: %w", err)
	}

	localOK := d.policy.CheckLocalIP(m, selectionText, *ps)
	excludedOK := d.policy.CheckExcluded(m, selectionText, *ps)
	if !localOK || !excludedOK {
		d.log.Info("activation blocked by privacy settings", "module", m.Name)
		return nil, nil
	}

	actions := make([]Action, 0, len(m.URLs))
	for _, tmpl := range m.URLs {
		actions = append(actions, Action{Kind: ActionOpenTab, URL: BuildURL(tmpl, selectionText)})
	}

	if d.opener != nil {
		for _, a := range actions {
			if err := d.opener.Open(ctx, a.URL); err != nil {
				d.log.Error("opening url", err, "url", a.URL)
				continue
			}
			d.log.Info("opened url", "url", a.URL)
		}
	}
	return actions, nil
}
