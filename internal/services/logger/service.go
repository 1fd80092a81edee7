package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	maxSnippet = 512

	// DefaultMaxBuffered caps how much of a response body is held in memory.
	DefaultMaxBuffered = 10 << 20
)

// RoundTripper logs every outbound provider call with a truncated body snippet.
// Bodies larger than MaxBuffered are streamed past the buffered prefix.
type RoundTripper struct {
	Logger      *zap.Logger
	Proxy       http.RoundTripper
	MaxBuffered int64
}

type prefixedBody struct {
	io.Reader
	io.Closer
}

func NewRoundTripper(logger *zap.Logger, next http.RoundTripper) *RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RoundTripper{
		Logger:      logger,
		Proxy:       next,
		MaxBuffered: DefaultMaxBuffered,
	}
}

func (l *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.Proxy.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.Logger.Error("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	limit := l.MaxBuffered
	if limit <= 0 {
		limit = DefaultMaxBuffered
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		_ = resp.Body.Close()
		l.Logger.Error("Failed to read response body",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	truncated := int64(len(bodyBytes)) >= limit
	if truncated {
		resp.Body = prefixedBody{
			Reader: io.MultiReader(bytes.NewReader(bodyBytes), resp.Body),
			Closer: resp.Body,
		}
	} else {
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	snippet := bodyBytes
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	l.Logger.Info("HTTP request completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.ByteString("body_snippet", snippet),
		zap.Int("body_size", len(bodyBytes)),
		zap.Bool("body_truncated", truncated),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}
