package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"symptrack/internal/llm"
	"symptrack/pkg"
)

// Analyzer turns free symptom text into an AnalysisResult via the LLM
// provider.  It holds no per-request state and may serve concurrent calls.
type Analyzer struct {
	// Credential returns the provider API key.  It is called on every
	// request; an empty result means the service is misconfigured.
	Credential func() string
	// NewClient binds an LLM client to the key returned by Credential.
	NewClient llm.Factory
	// Timeout bounds the provider call.  Zero means no extra bound beyond
	// the caller's context.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(credential func() string, factory llm.Factory, timeout time.Duration, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{Credential: credential, NewClient: factory, Timeout: timeout, Logger: logger}
}

// Analyze validates symptoms, asks the provider once and parses its reply.
// Validation and configuration failures are returned before any outbound
// call.  All returned errors are *Error.
func (a *Analyzer) Analyze(ctx context.Context, symptoms string) (*pkg.AnalysisResult, error) {
	if strings.TrimSpace(symptoms) == "" {
		return nil, errMissingInput
	}

	apiKey := ""
	if a.Credential != nil {
		apiKey = a.Credential()
	}
	if apiKey == "" {
		a.Logger.Error("provider credential missing")
		return nil, errMisconfigured
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	reply, err := a.NewClient(apiKey).Complete(ctx, BuildPrompt(symptoms))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.Logger.Warn("provider call timed out", "timeout", a.Timeout)
		} else {
			a.Logger.Error("provider call failed", "error", err)
		}
		return nil, providerError(err)
	}
	if strings.TrimSpace(reply) == "" {
		a.Logger.Error("provider returned blank reply")
		return nil, providerError(llm.ErrEmptyCompletion)
	}

	result := ParseReply(reply)
	if result.Disease == pkg.UnknownDisease {
		a.Logger.Info("reply without disease marker, using defaults")
	}
	return &result, nil
}
