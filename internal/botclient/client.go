// Package botclient talks to the NeuraBot backend over HTTP. It exposes
// the two endpoints the assistant uses: /chat for messages and /upload
// for files. Failures carry a Kind so callers can tell transport trouble
// from protocol trouble while keeping user-facing text generic.
package botclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL matches the development backend.
const DefaultBaseURL = "http://localhost:5000"

const defaultTimeout = 30 * time.Second

// Kind classifies a client failure.
type Kind int

const (
	// KindTransport covers connection, DNS, and timeout failures where no
	// HTTP response arrived.
	KindTransport Kind = iota
	// KindStatus covers non-2xx responses.
	KindStatus
	// KindDecode covers responses whose body did not match the contract.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a classified client failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Reply is the backend's answer to a chat message. Task and ShowTasks are
// an optional side channel; an empty Task and false ShowTasks mean the
// backend did not use it.
type Reply struct {
	Reply     string `json:"reply"`
	Task      string `json:"task,omitempty"`
	ShowTasks bool   `json:"show_tasks,omitempty"`
}

// Client is the HTTP client for the NeuraBot backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for the backend at baseURL. An empty baseURL falls
// back to DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts a chat message and returns the backend's reply. The mode
// string is forwarded verbatim; backends that do not understand modes
// ignore it.
func (c *Client) Send(ctx context.Context, message, mode string) (*Reply, error) {
	body, err := json.Marshal(map[string]string{
		"message": message,
		"mode":    mode,
	})
	if err != nil {
		return nil, &Error{Kind: KindDecode, Op: "send", Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: "send", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	c.logger.Debug("sending chat message",
		zap.String("request_id", reqID),
		zap.String("mode", mode),
		zap.Int("message_len", len(message)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("chat request failed", zap.String("request_id", reqID), zap.Error(err))
		return nil, &Error{Kind: KindTransport, Op: "send", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("chat request rejected",
			zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode))
		return nil, &Error{Kind: KindStatus, Op: "send", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, &Error{Kind: KindDecode, Op: "send", Err: fmt.Errorf("failed to decode reply: %w", err)}
	}

	c.logger.Debug("chat reply received",
		zap.String("request_id", reqID),
		zap.Bool("show_tasks", reply.ShowTasks))
	return &reply, nil
}

// Upload sends a file as multipart form data and returns the filename the
// backend reports after processing.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", &Error{Kind: KindDecode, Op: "upload", Err: fmt.Errorf("failed to build form: %w", err)}
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", &Error{Kind: KindDecode, Op: "upload", Err: fmt.Errorf("failed to read file: %w", err)}
	}
	if err := w.Close(); err != nil {
		return "", &Error{Kind: KindDecode, Op: "upload", Err: fmt.Errorf("failed to finish form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return "", &Error{Kind: KindTransport, Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	c.logger.Debug("uploading file",
		zap.String("request_id", reqID),
		zap.String("filename", filename))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upload failed", zap.String("request_id", reqID), zap.Error(err))
		return "", &Error{Kind: KindTransport, Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Kind: KindStatus, Op: "upload", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var result struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &Error{Kind: KindDecode, Op: "upload", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return result.Filename, nil
}
