package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sifan077/TrackDesk/internal/app/model"
	"go.uber.org/zap"
)

const (
	tracksPath     = "/api/v1/tracks"
	coverPath      = "/api/v1/tracks/cover"
	defaultTimeout = 30 * time.Second
	userAgent      = "TrackDesk/1.0"
)

// TrackAPI is the contract the pages depend on.
type TrackAPI interface {
	Create(ctx context.Context, isrc string) (*model.Track, error)
	Fetch(ctx context.Context, isrc string) (*model.Track, error)
	CoverURL(isrc string) string
}

// CallRecorder receives the outcome of every backend call.
type CallRecorder interface {
	ObserveCall(operation, outcome string, duration time.Duration)
}

// Options configures a TrackClient.
type Options struct {
	BaseURL    string
	User       string
	Password   string
	Timeout    time.Duration
	Logger     *zap.Logger
	Recorder   CallRecorder
	HTTPClient *http.Client
}

// TrackClient talks to the track metadata backend with HTTP Basic auth.
type TrackClient struct {
	http     *http.Client
	baseURL  string
	auth     string
	logger   *zap.Logger
	recorder CallRecorder
}

// New builds a TrackClient from opts.
func New(opts Options) *TrackClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		}
	}

	creds := base64.StdEncoding.EncodeToString([]byte(opts.User + ":" + opts.Password))

	return &TrackClient{
		http:     httpClient,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		auth:     "Basic " + creds,
		logger:   logger.Named("trackapi"),
		recorder: opts.Recorder,
	}
}

// Create registers a new track for the ISRC (POST /api/v1/tracks?isrc=...).
func (c *TrackClient) Create(ctx context.Context, isrc string) (*model.Track, error) {
	return c.do(ctx, model.OperationCreate, http.MethodPost, isrc)
}

// Fetch loads stored metadata for the ISRC (GET /api/v1/tracks?isrc=...).
func (c *TrackClient) Fetch(ctx context.Context, isrc string) (*model.Track, error) {
	return c.do(ctx, model.OperationRetrieve, http.MethodGet, isrc)
}

// CoverURL builds the cover image link used directly as an <img> source.
func (c *TrackClient) CoverURL(isrc string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(isrc), "+", "%20")
	u := fmt.Sprintf("%s%s?isrc=%s", c.baseURL, coverPath, escaped)
	c.logger.Debug("cover url generated", zap.String("url", u))
	return u
}

func (c *TrackClient) do(ctx context.Context, op, method, isrc string) (*model.Track, error) {
	start := time.Now()
	target := c.baseURL + tracksPath + "?" + url.Values{"isrc": {isrc}}.Encode()

	c.logger.Info("api request",
		zap.String("method", method),
		zap.String("path", tracksPath),
		zap.String("isrc", isrc),
	)

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("track api: build request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		netErr := &NetworkError{Method: method, Path: tracksPath, Err: err}
		c.logger.Error("api error",
			zap.String("method", method),
			zap.String("path", tracksPath),
			zap.Error(err),
		)
		c.observe(op, model.OutcomeFailed, start)
		return nil, netErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(op, model.OutcomeFailed, start)
		return nil, &NetworkError{Method: method, Path: tracksPath, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		reqErr := newRequestError(resp.StatusCode, body)
		c.logger.Error("api error",
			zap.String("method", method),
			zap.String("path", tracksPath),
			zap.Int("status", resp.StatusCode),
			zap.String("body", reqErr.Body),
			zap.String("message", reqErr.Message),
		)
		c.observe(op, model.OutcomeFailed, start)
		return nil, reqErr
	}

	var track model.Track
	if err := json.Unmarshal(body, &track); err != nil {
		c.logger.Error("api error",
			zap.String("method", method),
			zap.String("path", tracksPath),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
			zap.Error(err),
		)
		c.observe(op, model.OutcomeFailed, start)
		return nil, fmt.Errorf("track api: decode response: %w", err)
	}

	duration := time.Since(start)
	c.logger.Info("api response",
		zap.String("method", method),
		zap.String("path", tracksPath),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
		zap.String("name", track.Name),
	)
	c.observe(op, model.OutcomeSuccess, start)

	return &track, nil
}

func (c *TrackClient) observe(op, outcome string, start time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.ObserveCall(op, outcome, time.Since(start))
}
