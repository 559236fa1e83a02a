package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"

	"symptrack/internal/client"
	"symptrack/pkg"
)

func init() {
	color.NoColor = true
}

type stubAnalyzer struct {
	mu      sync.Mutex
	res     *pkg.AnalysisResult
	err     error
	release chan struct{}
	started chan struct{}
	calls   int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, symptoms string) (*pkg.AnalysisResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.res, s.err
}

type recordingNotifier struct {
	titles []string
	bodies []string
}

func (r *recordingNotifier) Notify(title, body string) {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
}

var fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestPresenter(a Analyzer, n Notifier) *Presenter {
	p := NewPresenter(a, n)
	p.Now = func() time.Time { return fixedNow }
	return p
}

func TestSubmit_Success(t *testing.T) {
	a := &stubAnalyzer{res: &pkg.AnalysisResult{Disease: "Flu", Risk: pkg.RiskLow, Analysis: "Rest and fluids recommended."}}
	n := &recordingNotifier{}
	p := newTestPresenter(a, n)
	p.SetInput("I have a fever and chills")

	var seen []State
	p.Observer = func(s State) { seen = append(seen, s) }

	if !p.Submit(context.Background(), "I have a fever and chills") {
		t.Fatal("submit rejected")
	}
	s := p.State()

	if len(s.Transcript) != 3 {
		t.Fatalf("transcript = %+v", s.Transcript)
	}
	if s.Transcript[0].Content != Greeting {
		t.Error("greeting should open the transcript")
	}
	if s.Transcript[1].Role != pkg.RoleUser || s.Transcript[1].Content != "I have a fever and chills" {
		t.Errorf("user message = %+v", s.Transcript[1])
	}
	if s.Transcript[2].Role != pkg.RoleAssistant || s.Transcript[2].Content != "Rest and fluids recommended." {
		t.Errorf("assistant message = %+v", s.Transcript[2])
	}
	want := pkg.ChatEntry{Date: "Today", CreatedAt: fixedNow, Disease: "Flu", Risk: pkg.RiskLow, Symptoms: "I have a fever and chills"}
	if len(s.History) != 1 || s.History[0] != want {
		t.Errorf("history = %+v", s.History)
	}
	if s.Loading || s.Input != "" {
		t.Errorf("loading=%v input=%q after success", s.Loading, s.Input)
	}
	if s.Last == nil || s.Last.Disease != "Flu" {
		t.Error("last result not kept")
	}
	if len(n.titles) != 0 {
		t.Errorf("unexpected notifications %v", n.titles)
	}

	if len(seen) < 2 || !seen[0].Loading || seen[0].Input != "" || len(seen[0].Transcript) != 2 {
		t.Errorf("first observed state should be optimistic and loading: %+v", seen)
	}
}

func TestSubmit_HistoryNewestFirst(t *testing.T) {
	a := &stubAnalyzer{res: &pkg.AnalysisResult{Disease: "A", Risk: pkg.RiskNeutral}}
	p := newTestPresenter(a, nil)
	p.Submit(context.Background(), "first")
	a.res = &pkg.AnalysisResult{Disease: "B", Risk: pkg.RiskHigh}
	p.Submit(context.Background(), "second")

	h := p.State().History
	if len(h) != 2 || h[0].Disease != "B" || h[1].Disease != "A" {
		t.Errorf("history order = %+v", h)
	}
}

func TestSubmit_IgnoresBlankInput(t *testing.T) {
	a := &stubAnalyzer{}
	p := newTestPresenter(a, nil)
	for _, in := range []string{"", "  ", "\n"} {
		if p.Submit(context.Background(), in) {
			t.Errorf("blank input %q accepted", in)
		}
	}
	if a.calls != 0 || len(p.State().Transcript) != 1 {
		t.Error("blank submit must not change state")
	}
}

func TestSubmit_SingleFlight(t *testing.T) {
	a := &stubAnalyzer{
		res:     &pkg.AnalysisResult{Disease: "Cold"},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	p := newTestPresenter(a, nil)

	done := make(chan bool)
	go func() { done <- p.Submit(context.Background(), "first") }()
	<-a.started

	if !p.State().Loading {
		t.Fatal("presenter should be loading")
	}
	if p.Submit(context.Background(), "second") {
		t.Error("second submit accepted while in flight")
	}
	close(a.release)
	if !<-done {
		t.Error("first submit should report accepted")
	}

	a.mu.Lock()
	calls := a.calls
	a.mu.Unlock()
	if calls != 1 {
		t.Errorf("analyzer called %d times", calls)
	}
	for _, m := range p.State().Transcript {
		if m.Content == "second" {
			t.Error("rejected submit leaked into transcript")
		}
	}
}

func TestSubmit_FailureNotifications(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		title string
		body  string
	}{
		{"misconfigured code", &client.APIError{StatusCode: 500, Message: "x", Code: pkg.CodeMisconfigured}, ConfigTitle, ConfigBody},
		{"misconfigured text", &client.APIError{StatusCode: 500, Message: "Gemini API key not configured"}, ConfigTitle, ConfigBody},
		{"provider error", &client.APIError{StatusCode: 500, Message: "Failed to analyze symptoms"}, FailTitle, FailBody},
		{"transport", errors.New("connection refused"), FailTitle, FailBody},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := &recordingNotifier{}
			p := newTestPresenter(&stubAnalyzer{err: tc.err}, n)

			if !p.Submit(context.Background(), "headache") {
				t.Fatal("submit rejected")
			}
			s := p.State()
			if len(n.titles) != 1 || n.titles[0] != tc.title || n.bodies[0] != tc.body {
				t.Errorf("notifications = %v %v", n.titles, n.bodies)
			}
			if s.Loading {
				t.Error("loading should end on failure")
			}
			if len(s.Transcript) != 2 || s.Transcript[1].Content != "headache" {
				t.Errorf("optimistic user message should remain: %+v", s.Transcript)
			}
			if len(s.History) != 0 || s.Last != nil {
				t.Error("failure must not add history")
			}
		})
	}
}

func TestAppendAndPrependDoNotMutate(t *testing.T) {
	// Spare capacity would let a naive append write into the caller's array.
	orig := make([]pkg.Message, 1, 2)
	orig[0].Content = "a"
	next := AppendMessage(orig, pkg.Message{Content: "b"})
	if len(orig) != 1 || len(next) != 2 || next[1].Content != "b" {
		t.Fatalf("lengths %d %d, next %+v", len(orig), len(next), next)
	}
	if spare := orig[:2][1]; spare.Content != "" {
		t.Errorf("AppendMessage wrote into spare capacity: %+v", spare)
	}
	next[0].Content = "changed"
	if orig[0].Content != "a" {
		t.Error("AppendMessage shares the backing array")
	}

	hist := []pkg.ChatEntry{{Disease: "old"}}
	newer := PrependEntry(hist, pkg.ChatEntry{Disease: "new"})
	if hist[0].Disease != "old" || newer[0].Disease != "new" || newer[1].Disease != "old" {
		t.Errorf("prepend result %+v, original %+v", newer, hist)
	}
}

func TestRelativeDate(t *testing.T) {
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Today"},
		{-time.Hour, "Today"},
		{14 * time.Hour, "Today"},
		{16 * time.Hour, "Yesterday"},
		{2 * 24 * time.Hour, "2 days ago"},
		{6 * 24 * time.Hour, "6 days ago"},
		{7 * 24 * time.Hour, "1 week ago"},
		{13 * 24 * time.Hour, "1 week ago"},
		{14 * 24 * time.Hour, "2 weeks ago"},
		{30 * 24 * time.Hour, "4 weeks ago"},
	}
	for _, tc := range cases {
		if got := RelativeDate(fixedNow, fixedNow.Add(-tc.ago)); got != tc.want {
			t.Errorf("%v ago = %q, want %q", tc.ago, got, tc.want)
		}
	}
}

func TestRenderTranscript(t *testing.T) {
	var buf bytes.Buffer
	RenderTranscript(&buf, State{
		Transcript: []pkg.Message{{Role: pkg.RoleUser, Content: "cough"}},
		Loading:    true,
	})
	out := buf.String()
	if !strings.Contains(out, "you> cough") || !strings.Contains(out, AnalyzingPlaceholder) {
		t.Errorf("render = %q", out)
	}

	buf.Reset()
	RenderTranscript(&buf, State{Transcript: []pkg.Message{{Role: pkg.RoleAssistant, Content: "ok"}}})
	if strings.Contains(buf.String(), AnalyzingPlaceholder) {
		t.Error("placeholder shown while idle")
	}
}

func TestRenderHistoryAndSummary(t *testing.T) {
	entry := pkg.ChatEntry{Date: "Today", CreatedAt: fixedNow.Add(-48 * time.Hour), Disease: "Migraine", Risk: pkg.RiskHigh, Symptoms: "headache"}

	var buf bytes.Buffer
	RenderHistory(&buf, fixedNow, []pkg.ChatEntry{entry})
	if !strings.Contains(buf.String(), "2 days ago") || !strings.Contains(buf.String(), "[High Risk] Migraine") {
		t.Errorf("history = %q", buf.String())
	}

	view := Summarize(entry, pkg.AnalysisResult{Disease: "Migraine", Risk: pkg.RiskHigh, Analysis: "Dark room."})
	if view.Symptoms != "headache" || view.AISummary != "Dark room." || view.RiskLevel != pkg.RiskHigh {
		t.Errorf("summary = %+v", view)
	}
	buf.Reset()
	RenderSummary(&buf, view)
	if !strings.Contains(buf.String(), "Dark room.") || !strings.Contains(buf.String(), view.Suggestion) {
		t.Errorf("summary render = %q", buf.String())
	}
}
