package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"symptrack/internal/llm"
	"symptrack/pkg"
)

// mockLLM implements llm.Client for testing.
type mockLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	prompts []string
	keys    []string
}

func (m *mockLLM) factory() llm.Factory {
	return func(apiKey string) llm.Client {
		m.mu.Lock()
		m.keys = append(m.keys, apiKey)
		m.mu.Unlock()
		return m
	}
}

func (m *mockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, m.err
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticKey(key string) func() string {
	return func() string { return key }
}

func TestAnalyzer_EndToEnd(t *testing.T) {
	provider := &mockLLM{reply: "DISEASE: Flu\nRISK: Low Risk\nRest and fluids recommended."}
	a := NewAnalyzer(staticKey("k1"), provider.factory(), time.Second, quietLogger())

	res, err := a.Analyze(context.Background(), "I have a fever and chills")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	want := pkg.AnalysisResult{
		Disease:      "Flu",
		Risk:         pkg.RiskLow,
		Analysis:     "Rest and fluids recommended.",
		FullResponse: "DISEASE: Flu\nRISK: Low Risk\nRest and fluids recommended.",
	}
	if *res != want {
		t.Errorf("result = %+v, want %+v", *res, want)
	}
	if provider.prompts[0] != BuildPrompt("I have a fever and chills") {
		t.Error("provider should receive instruction + raw symptoms")
	}
	if provider.keys[0] != "k1" {
		t.Errorf("client bound to %q", provider.keys[0])
	}
}

func TestAnalyzer_RejectsBlankInputWithoutCalling(t *testing.T) {
	provider := &mockLLM{reply: "DISEASE: X"}
	a := NewAnalyzer(staticKey("k"), provider.factory(), 0, quietLogger())

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := a.Analyze(context.Background(), in)
		e := AsError(err)
		if e.Code != pkg.CodeMissingInput || e.Status() != 400 {
			t.Errorf("input %q: got %v", in, err)
		}
	}
	if provider.calls() != 0 {
		t.Errorf("provider called %d times", provider.calls())
	}
}

func TestAnalyzer_MissingCredential(t *testing.T) {
	provider := &mockLLM{reply: "DISEASE: X"}
	a := NewAnalyzer(staticKey(""), provider.factory(), 0, quietLogger())

	_, err := a.Analyze(context.Background(), "headache")
	e := AsError(err)
	if e.Code != pkg.CodeMisconfigured || e.Status() != 500 {
		t.Fatalf("expected misconfigured 500, got %v", err)
	}
	if !strings.Contains(e.Message, MisconfiguredMarker) {
		t.Errorf("message %q lacks marker %q", e.Message, MisconfiguredMarker)
	}
	if provider.calls() != 0 {
		t.Error("provider must not be called without a credential")
	}
}

func TestAnalyzer_CredentialReadPerRequest(t *testing.T) {
	provider := &mockLLM{reply: "ok"}
	key := ""
	a := NewAnalyzer(func() string { return key }, provider.factory(), 0, quietLogger())

	if _, err := a.Analyze(context.Background(), "cough"); AsError(err).Code != pkg.CodeMisconfigured {
		t.Fatalf("expected misconfigured, got %v", err)
	}
	key = "late-key"
	if _, err := a.Analyze(context.Background(), "cough"); err != nil {
		t.Fatalf("key set later should be used: %v", err)
	}
}

func TestAnalyzer_ProviderFailureIsGeneric(t *testing.T) {
	provider := &mockLLM{err: errors.New("upstream 503: secret internal detail")}
	a := NewAnalyzer(staticKey("k"), provider.factory(), 0, quietLogger())

	_, err := a.Analyze(context.Background(), "rash")
	e := AsError(err)
	if e.Code != pkg.CodeProviderError || e.Status() != 500 {
		t.Fatalf("expected provider error, got %v", err)
	}
	if e.Response().Error != MsgProviderFailed {
		t.Errorf("wire message = %q", e.Response().Error)
	}
	if strings.Contains(e.Response().Error, "secret") {
		t.Error("provider detail leaked into response")
	}
	if provider.calls() != 1 {
		t.Errorf("expected one attempt, got %d", provider.calls())
	}
}

func TestAnalyzer_BlankReplyIsProviderError(t *testing.T) {
	provider := &mockLLM{reply: "  \n"}
	a := NewAnalyzer(staticKey("k"), provider.factory(), 0, quietLogger())

	_, err := a.Analyze(context.Background(), "rash")
	if AsError(err).Code != pkg.CodeProviderError {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestAnalyzer_Timeout(t *testing.T) {
	provider := &mockLLM{reply: "late", delay: time.Second}
	a := NewAnalyzer(staticKey("k"), provider.factory(), 20*time.Millisecond, quietLogger())

	start := time.Now()
	_, err := a.Analyze(context.Background(), "dizzy")
	if AsError(err).Code != pkg.CodeProviderError {
		t.Fatalf("expected provider error on timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause should be deadline exceeded, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout was not enforced")
	}
}

func TestAsError_UnknownBecomesProviderError(t *testing.T) {
	e := AsError(errors.New("boom"))
	if e.Code != pkg.CodeProviderError || e.Message != MsgProviderFailed {
		t.Errorf("unexpected classification %+v", e)
	}
}
