// Package chat owns the client-side conversation: the transcript, the
// history list and the single in-flight analysis.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"symptrack/internal/client"
	"symptrack/pkg"
)

// Greeting opens every new transcript.
const Greeting = "Hello! I'm here to help you track your symptoms. How are you feeling today?"

// Notification texts.
const (
	ConfigTitle = "Configuration Required"
	ConfigBody  = "The analysis service is not configured. Please contact the administrator."
	FailTitle   = "Analysis Failed"
	FailBody    = "Failed to analyze symptoms. Please try again."
)

// Analyzer is anything that can analyze symptom text; *client.Client and
// *core.Analyzer both qualify.
type Analyzer interface {
	Analyze(ctx context.Context, symptoms string) (*pkg.AnalysisResult, error)
}

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(title, body string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, body string)

func (f NotifierFunc) Notify(title, body string) { f(title, body) }

// State is everything a renderer needs.  Slices are replaced, never
// modified, so a State snapshot stays valid after later updates.
type State struct {
	Input      string
	Transcript []pkg.Message
	History    []pkg.ChatEntry
	Loading    bool
	// Last is the most recent successful result, nil before the first.
	Last *pkg.AnalysisResult
}

// Presenter drives one conversation.  At most one analysis is in flight.
type Presenter struct {
	mu    sync.Mutex
	state State

	analyzer Analyzer
	notifier Notifier

	// Observer, if set, is called with a snapshot after every state change.
	Observer func(State)
	// Misconfigured decides which notification a failure gets.
	Misconfigured func(error) bool
	Now           func() time.Time
}

// NewPresenter returns a presenter whose transcript holds the greeting.
func NewPresenter(analyzer Analyzer, notifier Notifier) *Presenter {
	p := &Presenter{
		analyzer:      analyzer,
		notifier:      notifier,
		Misconfigured: client.IsMisconfigured,
		Now:           time.Now,
	}
	p.state.Transcript = AppendMessage(nil, pkg.Message{
		Role: pkg.RoleAssistant, Content: Greeting, CreatedAt: p.Now(),
	})
	return p
}

// State returns a snapshot of the current state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetInput updates the pending input text.
func (p *Presenter) SetInput(input string) {
	p.update(func(s *State) { s.Input = input })
}

// Submit analyzes input.  It returns false without doing anything when the
// input is blank or another analysis is running; otherwise it blocks until
// the analysis finishes and returns true whatever the outcome.
func (p *Presenter) Submit(ctx context.Context, input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}

	p.mu.Lock()
	if p.state.Loading {
		p.mu.Unlock()
		return false
	}
	p.state.Transcript = AppendMessage(p.state.Transcript, pkg.Message{
		Role: pkg.RoleUser, Content: input, CreatedAt: p.Now(),
	})
	p.state.Input = ""
	p.state.Loading = true
	snap := p.state
	p.mu.Unlock()
	p.observe(snap)

	res, err := p.analyzer.Analyze(ctx, input)

	if err != nil {
		// The optimistic user message stays.
		p.update(func(s *State) { s.Loading = false })
		if p.notifier != nil {
			if p.Misconfigured != nil && p.Misconfigured(err) {
				p.notifier.Notify(ConfigTitle, ConfigBody)
			} else {
				p.notifier.Notify(FailTitle, FailBody)
			}
		}
		return true
	}

	now := p.Now()
	p.update(func(s *State) {
		s.Transcript = AppendMessage(s.Transcript, pkg.Message{
			Role: pkg.RoleAssistant, Content: res.Analysis, CreatedAt: now,
		})
		s.History = PrependEntry(s.History, pkg.ChatEntry{
			Date:      RelativeDate(now, now),
			CreatedAt: now,
			Disease:   res.Disease,
			Risk:      res.Risk,
			Symptoms:  input,
		})
		s.Last = res
		s.Loading = false
	})
	return true
}

func (p *Presenter) update(fn func(*State)) {
	p.mu.Lock()
	fn(&p.state)
	snap := p.state
	p.mu.Unlock()
	p.observe(snap)
}

func (p *Presenter) observe(s State) {
	if p.Observer != nil {
		p.Observer(s)
	}
}

// AppendMessage returns a new transcript with m at the end.
func AppendMessage(transcript []pkg.Message, m pkg.Message) []pkg.Message {
	out := make([]pkg.Message, len(transcript), len(transcript)+1)
	copy(out, transcript)
	return append(out, m)
}

// PrependEntry returns a new history with e first.
func PrependEntry(history []pkg.ChatEntry, e pkg.ChatEntry) []pkg.ChatEntry {
	out := make([]pkg.ChatEntry, 0, len(history)+1)
	out = append(out, e)
	return append(out, history...)
}
