package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

// mockProvider is a test double for Provider.
type mockProvider struct {
	responses []string // returned in order; last entry is repeated if list exhausted
	errs      []error  // errs[i] is returned on call i when non-nil
	callCount int
	systems   []string
}

func (m *mockProvider) Complete(_ context.Context, system, _ string, _ int, _ float64) (string, error) {
	idx := m.callCount
	m.callCount++
	m.systems = append(m.systems, system)
	if idx < len(m.errs) && m.errs[idx] != nil {
		return "", m.errs[idx]
	}
	if len(m.responses) == 0 {
		return "", fmt.Errorf("mockProvider: no responses configured")
	}
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// newTestRetrying returns a Retrying that records delays instead of sleeping.
func newTestRetrying(inner Provider, opts RetryOptions) (*Retrying, *[]time.Duration) {
	r := NewRetrying(inner, opts)
	var delays []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	r.jitter = func(time.Duration) time.Duration { return 0 }
	return r, &delays
}

func TestRetrying_SucceedsAfterTransientErrors(t *testing.T) {
	mp := &mockProvider{
		responses: []string{"", "", "", "4"},
		errs: []error{
			&APIError{Provider: "openrouter", StatusCode: 429},
			&APIError{Provider: "openrouter", StatusCode: 503},
			timeoutErr{},
		},
	}
	r, delays := newTestRetrying(mp, RetryOptions{})
	got, err := r.Complete(context.Background(), "", "q", 16, 0.7)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "4" {
		t.Errorf("Complete = %q, want 4", got)
	}
	if mp.callCount != 4 {
		t.Errorf("callCount = %d, want 4", mp.callCount)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if fmt.Sprint(*delays) != fmt.Sprint(want) {
		t.Errorf("delays = %v, want %v", *delays, want)
	}
}

func TestRetrying_Exhausted(t *testing.T) {
	busy := &APIError{Provider: "openai", StatusCode: 500}
	mp := &mockProvider{errs: []error{busy, busy, busy, busy, busy}}
	r, _ := newTestRetrying(mp, RetryOptions{MaxRetries: 2})
	_, err := r.Complete(context.Background(), "", "q", 16, 0.7)
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Errorf("err does not wrap the last APIError: %v", err)
	}
	if mp.callCount != 3 {
		t.Errorf("callCount = %d, want 3", mp.callCount)
	}
}

func TestRetrying_NonRetryableStatus(t *testing.T) {
	mp := &mockProvider{errs: []error{&APIError{Provider: "openai", StatusCode: 401}}}
	r, delays := newTestRetrying(mp, RetryOptions{})
	_, err := r.Complete(context.Background(), "", "q", 16, 0.7)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("err = %v, want 401 APIError", err)
	}
	if errors.Is(err, ErrRetriesExhausted) {
		t.Error("a 401 should not be reported as exhausted retries")
	}
	if mp.callCount != 1 || len(*delays) != 0 {
		t.Errorf("callCount = %d, delays = %v; want a single attempt", mp.callCount, *delays)
	}
}

func TestRetrying_HonoursRetryAfter(t *testing.T) {
	mp := &mockProvider{
		responses: []string{"", "3"},
		errs:      []error{&APIError{Provider: "openrouter", StatusCode: 429, RetryAfter: 7 * time.Second}},
	}
	r, delays := newTestRetrying(mp, RetryOptions{})
	if _, err := r.Complete(context.Background(), "", "q", 16, 0.7); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(*delays) != 1 || (*delays)[0] != 7*time.Second {
		t.Errorf("delays = %v, want [7s]", *delays)
	}
}

func TestRetrying_BackoffCeiling(t *testing.T) {
	r, _ := newTestRetrying(&mockProvider{}, RetryOptions{})
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{40, 10 * time.Second},
	}
	for _, c := range cases {
		if got := r.backoff(c.attempt); got != c.want {
			t.Errorf("backoff(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestRetrying_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mp := &mockProvider{errs: []error{context.Canceled}}
	r, _ := newTestRetrying(mp, RetryOptions{})
	_, err := r.Complete(ctx, "", "q", 16, 0.7)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRetrying_AttemptTimeout(t *testing.T) {
	slow := providerFunc(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r, delays := newTestRetrying(slow, RetryOptions{Timeout: 10 * time.Millisecond, MaxRetries: 1})
	_, err := r.Complete(context.Background(), "", "q", 16, 0.7)
	if !errors.Is(err, ErrRetriesExhausted) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want exhausted deadline", err)
	}
	if len(*delays) != 1 {
		t.Errorf("delays = %v, want one retry", *delays)
	}
}

type providerFunc func(ctx context.Context) (string, error)

func (f providerFunc) Complete(ctx context.Context, _, _ string, _ int, _ float64) (string, error) {
	return f(ctx)
}

func TestAPIError_Retryable(t *testing.T) {
	cases := map[int]bool{408: true, 429: true, 500: true, 502: true, 599: true, 400: false, 401: false, 404: false}
	for code, want := range cases {
		if got := (&APIError{StatusCode: code}).Retryable(); got != want {
			t.Errorf("APIError{%d}.Retryable() = %v, want %v", code, got, want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"-1", 0},
		{now.Add(4 * time.Second).Format(http.TimeFormat), 4 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"soon", 0},
	}
	for _, c := range cases {
		h := http.Header{}
		if c.value != "" {
			h.Set("Retry-After", c.value)
		}
		if got := parseRetryAfter(h, now); got != c.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestDefaultNewProvider(t *testing.T) {
	cases := []struct {
		cfg     Config
		wantErr string
	}{
		{Config{Provider: "openrouter", Model: "m", APIKey: "k"}, ""},
		{Config{Provider: "", Model: "m", APIKey: "k"}, ""},
		{Config{Provider: "openai", Model: "m", APIKey: "k"}, ""},
		{Config{Provider: "anthropic", Model: "m", APIKey: "k"}, ""},
		{Config{Provider: "google", Model: "m", APIKey: "k"}, ""},
		{Config{Provider: "cohere", Model: "m", APIKey: "k"}, "unknown provider"},
		{Config{Provider: "openai", Model: "m"}, "no API key"},
		{Config{Provider: "openai", APIKey: "k"}, "no model"},
	}
	for _, c := range cases {
		p, err := defaultNewProvider(c.cfg)
		if c.wantErr == "" {
			if err != nil || p == nil {
				t.Errorf("defaultNewProvider(%+v) = %v, %v", c.cfg, p, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), c.wantErr) {
			t.Errorf("defaultNewProvider(%+v) err = %v, want %q", c.cfg, err, c.wantErr)
		}
	}
}

func TestNewProvider_Replaceable(t *testing.T) {
	mp := &mockProvider{responses: []string{"5"}}
	orig := NewProvider
	NewProvider = func(Config) (Provider, error) { return mp, nil }
	t.Cleanup(func() { NewProvider = orig })

	p, err := NewProvider(Config{})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if got, _ := p.Complete(context.Background(), "sys", "q", 1, 0); got != "5" {
		t.Errorf("Complete = %q, want 5", got)
	}
}
