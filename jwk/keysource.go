// Copyright (c) 2026 Josecore Authors

package jwk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"josecore/internal/apperr"
	"josecore/internal/b64"
	"josecore/internal/jsonutil"
	"josecore/internal/logging"
)

func rawToB64(raw []byte) string { return b64.Encode(raw) }

// Source resolves candidate JWKs for a matcher and an opaque security
// context.
type Source interface {
	Get(ctx context.Context, m Matcher, secCtx any) ([]*JWK, error)
}

// ImmutableSource wraps a fixed Set; Get never fails and never blocks.
type ImmutableSource struct {
	set *Set
}

func NewImmutableSource(set *Set) *ImmutableSource { return &ImmutableSource{set: set} }

func (s *ImmutableSource) Get(_ context.Context, m Matcher, _ any) ([]*JWK, error) {
	return s.set.Match(m), nil
}

// NewImmutableSecretSource wraps a single symmetric key as a
// one-element immutable JWK set, syntactic sugar for the common
// bearer-secret case.
func NewImmutableSecretSource(secret []byte, kid, alg string) *ImmutableSource {
	k := &JWK{Kty: "oct", Use: UseSig, Kid: kid, Alg: alg, K: rawToB64(secret)}
	return NewImmutableSource(NewSet([]*JWK{k}))
}

// Retriever fetches a resource by URL with a bounded body size, used by
// RemoteSource to fetch JWK set documents.
type Retriever interface {
	Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

// DefaultConnectTimeout and DefaultReadTimeout are stock values for
// NewHTTPRetriever's timeouts, and DefaultBodyLimit for NewRemoteSource's
// body limit; neither constructor applies them on its own.
const (
	DefaultConnectTimeout = 250 * time.Millisecond
	DefaultReadTimeout    = 250 * time.Millisecond
	DefaultBodyLimit      = 50 * 1024
)

// HTTPRetriever is the default Retriever, an http.Client-backed fetch
// with a response body size cap.
type HTTPRetriever struct {
	Client *http.Client
}

// NewHTTPRetriever builds an HTTPRetriever whose client enforces
// connectTimeout for dialing and readTimeout as the overall request
// deadline.
func NewHTTPRetriever(connectTimeout, readTimeout time.Duration) *HTTPRetriever {
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{DialContext: dialer.DialContext}
	return &HTTPRetriever{
		Client: &http.Client{
			Timeout:   readTimeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
}

func (r *HTTPRetriever) Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", apperr.ErrRemoteFetchFailed, err)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrRemoteFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", apperr.ErrRemoteFetchFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", apperr.ErrRemoteFetchFailed, err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d byte limit", apperr.ErrRemoteFetchFailed, maxBytes)
	}
	return body, nil
}

// RemoteSource fetches and caches a JWK set document from a URL,
// refreshing once when Get misses on a requested kid. The cached
// reference is published atomically; concurrent Get calls share one
// snapshot and never observe a torn set.
type RemoteSource struct {
	url       string
	retriever Retriever
	bodyLimit int64
	logger    *slog.Logger

	cached atomic.Pointer[Set]
}

// NewRemoteSource constructs a RemoteSource and kicks off one
// background fetch to prime its cache; Get does not wait for that fetch,
// since it refreshes an empty cache synchronously itself.
func NewRemoteSource(url string, retriever Retriever, bodyLimit int64, logger *slog.Logger) *RemoteSource {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &RemoteSource{url: url, retriever: retriever, bodyLimit: bodyLimit, logger: logger}
	s.cached.Store(NewSet(nil))
	go s.refresh(context.Background())
	return s
}

// NewRemoteSourceWithHandlers is NewRemoteSource for callers that want
// refresh diagnostics delivered to more than one slog.Handler at once
// (e.g. a text handler over stderr plus a JSON handler shipping to a
// collector) — the handlers are fanned out via logging.New rather than
// each call site wiring slog-multi itself.
func NewRemoteSourceWithHandlers(url string, retriever Retriever, bodyLimit int64, level slog.Level, handlers ...slog.Handler) *RemoteSource {
	return NewRemoteSource(url, retriever, bodyLimit, logging.New(level, io.Discard, handlers...))
}

func (s *RemoteSource) refresh(ctx context.Context) error {
	body, err := s.retriever.Fetch(ctx, s.url, s.bodyLimit)
	if err != nil {
		s.logger.Debug("jwk remote refresh failed", "url", s.url, "error", err)
		if !errors.Is(err, apperr.ErrRemoteFetchFailed) {
			err = fmt.Errorf("%w: %w", apperr.ErrRemoteFetchFailed, err)
		}
		return err
	}
	obj, err := jsonutil.UnmarshalObject(body)
	if err != nil {
		s.logger.Debug("jwk remote refresh: malformed body", "url", s.url, "error", err)
		return fmt.Errorf("%w: %w", apperr.ErrRemoteFetchFailed, err)
	}
	set, err := ParseSet(obj)
	if err != nil {
		s.logger.Debug("jwk remote refresh: malformed jwk set", "url", s.url, "error", err)
		return fmt.Errorf("%w: %w", apperr.ErrRemoteFetchFailed, err)
	}
	s.cached.Store(set)
	return nil
}

// Get returns the matches in the cached set. An empty cache is
// refreshed synchronously before matching. If the match is empty and
// the matcher names a kid
// not already present in the cache, Get refreshes once more and
// retries. A refresh failure on that final attempt is surfaced as
// ErrRemoteFetchFailed (distinct from a merely-empty match); a failure
// priming an initially-empty cache is tolerated and falls through to an
// empty match, since the background prime may simply not have run yet.
func (s *RemoteSource) Get(ctx context.Context, m Matcher, _ any) ([]*JWK, error) {
	set := s.cached.Load()
	if set.Len() == 0 {
		_ = s.refresh(ctx)
		set = s.cached.Load()
	}

	matches := set.Match(m)
	if len(matches) > 0 || m.Kid == "" {
		return matches, nil
	}
	if hasKid(set, m.Kid) {
		return matches, nil
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.cached.Load().Match(m), nil
}

func hasKid(set *Set, kid string) bool {
	for _, k := range set.keys {
		if k.Kid == kid {
			return true
		}
	}
	return false
}
