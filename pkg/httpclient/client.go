// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpclient provides the retrying HTTP client shared by
// pkg/llm's OpenAI-compatible adapter and any HTTP-backed tool
// (pkg/toolset/builtin's web_search). Retry/backoff is delegated to
// github.com/cenkalti/backoff/v4 rather than hand-rolled.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryStrategy classifies how a response status code should be
// handled.
type RetryStrategy int

const (
	NoRetry RetryStrategy = iota
	Retry
)

// StrategyFunc decides the retry strategy for a given status code.
type StrategyFunc func(statusCode int) RetryStrategy

// DefaultStrategy retries on 5xx and 429, never on other 4xx.
func DefaultStrategy(statusCode int) RetryStrategy {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return Retry
	case statusCode >= 500:
		return Retry
	default:
		return NoRetry
	}
}

// Client wraps *http.Client with exponential-backoff retry.
type Client struct {
	HTTP         *http.Client
	MaxRetries   uint64
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	StrategyFunc StrategyFunc
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.HTTP = c } }
func WithMaxRetries(n int) Option          { return func(cl *Client) { cl.MaxRetries = uint64(n) } }
func WithBaseDelay(d time.Duration) Option { return func(cl *Client) { cl.BaseDelay = d } }
func WithMaxDelay(d time.Duration) Option  { return func(cl *Client) { cl.MaxDelay = d } }
func WithStrategy(fn StrategyFunc) Option  { return func(cl *Client) { cl.StrategyFunc = fn } }

// New builds a Client. Defaults match the LLM client adapter's retry
// policy: 3 attempts (the first plus 2 retries), base delay 1s, capped
// at 8s.
func New(opts ...Option) *Client {
	c := &Client{
		HTTP:         &http.Client{Timeout: 60 * time.Second},
		MaxRetries:   2,
		BaseDelay:    time.Second,
		MaxDelay:     8 * time.Second,
		StrategyFunc: DefaultStrategy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// permanentHTTPError wraps a response whose status code the strategy
// says not to retry, so backoff.Retry stops immediately instead of
// burning through attempts on a 4xx.
type permanentHTTPError struct {
	resp *http.Response
	err  error
}

func (e *permanentHTTPError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("http %d", e.resp.StatusCode)
}

// Do executes req with retry. newReq must build a fresh *http.Request
// each call since request bodies can't be replayed after being read.
func (c *Client) Do(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			&backoff.ExponentialBackOff{
				InitialInterval:     c.BaseDelay,
				RandomizationFactor: 0.1,
				Multiplier:          2,
				MaxInterval:         c.MaxDelay,
				MaxElapsedTime:      0,
				Clock:               backoff.SystemClock,
			},
			c.MaxRetries,
		),
		ctx,
	)

	var resp *http.Response
	operation := func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := c.HTTP.Do(req)
		if err != nil {
			// Connection-level errors are retryable.
			return err
		}
		if c.StrategyFunc(r.StatusCode) == NoRetry && r.StatusCode >= 400 {
			return backoff.Permanent(&permanentHTTPError{resp: r})
		}
		if r.StatusCode >= 400 {
			// Retryable HTTP-level error: drain and close before retrying.
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
			return &permanentHTTPError{resp: r}
		}
		resp = r
		return nil
	}

	err := backoff.Retry(operation, policy)
	if err != nil {
		var perm *permanentHTTPError
		if pe, ok := err.(*permanentHTTPError); ok {
			perm = pe
		}
		if perm != nil && perm.resp != nil {
			return perm.resp, nil
		}
		return nil, err
	}
	return resp, nil
}
