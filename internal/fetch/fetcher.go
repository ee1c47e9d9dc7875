// Package fetch performs bounded-retry HTTP GETs for catalog and chapter
// pages and decodes their bodies to UTF-8.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brogergvhs/novelgrab/internal/events"
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type Config struct {
	Timeout    time.Duration // per attempt, not cumulative. Default: 30s.
	MaxRetries int           // additional attempts after the first
	Backoff    time.Duration // wait before retry n is Backoff*n. Default: 1s, negative disables.
	MaxBytes   int64         // response body cap. Default: 16MB.
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Backoff < 0 {
		c.Backoff = 0
	} else if c.Backoff == 0 {
		c.Backoff = time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 16 << 20
	}
}

// Page is a successfully fetched response.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	HTML        string // Body decoded to UTF-8; empty for FetchBytes
}

// FetchError is returned once every attempt has failed. URL is the exact
// URL that was requested.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrBodyTooLarge is returned when a response exceeds Config.MaxBytes.
// It is not retried.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "http " + e.Status
	}
	return fmt.Sprintf("http %d", e.Code)
}

// Reason returns a short failure description suitable for a chapter record.
func Reason(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

type Fetcher struct {
	client Doer
	config Config
	sink   events.Sink
	sleep  func(context.Context, time.Duration) error
}

func New(client Doer, cfg Config, sink events.Sink) *Fetcher {
	cfg.defaults()
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client: client,
		config: cfg,
		sink:   events.OrDiscard(sink),
		sleep:  sleepCtx,
	}
}

// Fetch GETs url and decodes the body to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	page, err := f.run(ctx, url)
	if err != nil {
		return nil, err
	}
	page.HTML = Decode(page.Body, page.ContentType)
	return page, nil
}

// FetchBytes GETs url and returns the raw body, used for images.
func (f *Fetcher) FetchBytes(ctx context.Context, url string) (*Page, error) {
	return f.run(ctx, url)
}

type state int

const (
	stateAttempting state = iota
	stateRetrying
	stateSucceeded
	stateExhausted
)

func (f *Fetcher) run(ctx context.Context, url string) (*Page, error) {
	var (
		st      = stateAttempting
		attempt int
		page    *Page
		lastErr error
	)

	for {
		switch st {
		case stateAttempting:
			attempt++
			page, lastErr = f.attempt(ctx, url)
			switch {
			case lastErr == nil:
				st = stateSucceeded
			case ctx.Err() != nil, errors.Is(lastErr, ErrBodyTooLarge), attempt > f.config.MaxRetries:
				st = stateExhausted
			default:
				st = stateRetrying
			}

		case stateRetrying:
			f.sink.Emit(events.Event{
				Kind:    events.Warning,
				URL:     url,
				Message: fmt.Sprintf("request failed, retrying (%d/%d): %v", attempt, f.config.MaxRetries, lastErr),
			})
			if err := f.sleep(ctx, f.config.Backoff*time.Duration(attempt)); err != nil {
				st = stateExhausted
				continue
			}
			st = stateAttempting

		case stateSucceeded:
			return page, nil

		case stateExhausted:
			return nil, &FetchError{URL: url, Attempts: attempt, Err: lastErr}
		}
	}
}

func (f *Fetcher) attempt(ctx context.Context, url string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.config.MaxBytes)
	}

	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return &Page{
		URL:         final,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
