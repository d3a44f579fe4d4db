package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/botdesk/internal/media"
	"github.com/matheus3301/botdesk/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrTransport wraps network failures talking to the backend.
	ErrTransport = errors.New("backend unreachable")
	// ErrMalformed is returned when a response is not a success envelope.
	ErrMalformed = errors.New("malformed backend response")
	// ErrRejected is returned when the backend answers outside the 2xx range.
	ErrRejected = errors.New("backend rejected request")
	// ErrInvalidInput is returned before any request is issued.
	ErrInvalidInput = errors.New("invalid request")
)

// statusOK is the envelope status the backend uses for success.
const statusOK = 200

// Endpoints are the backend paths, relative to the base URL.
type Endpoints struct {
	List string // GET, all conversations
	Info string // GET, one conversation; the phone number is appended
	Send string // POST, text or voice intervention
}

// DefaultEndpoints returns the paths served by the bot backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		List: "/m/get/all",
		Info: "/m/get/info/",
		Send: "/m/send/to/single/number",
	}
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Endpoints Endpoints
	Timeout   time.Duration
}

// Client talks to the bot backend over HTTP. Every method returns a wrapped
// ErrTransport, ErrMalformed, ErrRejected or ErrInvalidInput on failure.
type Client struct {
	base      string
	endpoints Endpoints
	http      *http.Client
	mapper    *Mapper
	logger    *zap.Logger
}

// New creates a backend client.
func New(opts Options, audio AudioDeriver, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Endpoints == (Endpoints{}) {
		opts.Endpoints = DefaultEndpoints()
	}
	return &Client{
		base:      strings.TrimRight(opts.BaseURL, "/"),
		endpoints: opts.Endpoints,
		http:      &http.Client{Timeout: opts.Timeout},
		mapper:    NewMapper(audio, logger),
		logger:    logger,
	}
}

// Mapper returns the mapper used for backend records, for reuse on push events.
func (c *Client) Mapper() *Mapper {
	return c.mapper
}

// FetchConversations loads every conversation with its history.
func (c *Client) FetchConversations(ctx context.Context) ([]store.Conversation, error) {
	var env envelope
	if err := c.getJSON(ctx, c.endpoints.List, &env); err != nil {
		return nil, err
	}
	if int(env.Status) != statusOK {
		return nil, fmt.Errorf("%w: envelope status %d", ErrMalformed, env.Status)
	}

	convs := make([]store.Conversation, 0, len(env.Numbers))
	for _, raw := range env.Numbers {
		convs = append(convs, c.mapper.Conversation(raw))
	}
	c.logger.Debug("conversations fetched", zap.Int("count", len(convs)))
	return convs, nil
}

// FetchConversationInfo loads a single conversation by phone number.
func (c *Client) FetchConversationInfo(ctx context.Context, phone string) (store.Conversation, error) {
	if strings.TrimSpace(phone) == "" {
		return store.Conversation{}, fmt.Errorf("%w: empty phone number", ErrInvalidInput)
	}

	var env infoEnvelope
	if err := c.getJSON(ctx, c.endpoints.Info+url.PathEscape(phone), &env); err != nil {
		return store.Conversation{}, err
	}
	if int(env.Status) != statusOK {
		return store.Conversation{}, fmt.Errorf("%w: envelope status %d", ErrMalformed, env.Status)
	}

	raw := env.rawConversation
	if raw.Number == "" && env.Data != nil {
		raw = *env.Data
	}
	if raw.Number == "" {
		raw.Number = phone
	}
	return c.mapper.Conversation(raw), nil
}

// SendIntervention posts an operator text message to a contact.
func (c *Client) SendIntervention(ctx context.Context, phone, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	return c.send(ctx, sendRequest{Number: phone, Message: text})
}

// SendVoiceMessage posts a voice note. audio is base64, with or without a
// data-URI prefix; only the raw base64 goes on the wire.
func (c *Client) SendVoiceMessage(ctx context.Context, phone, audio string) error {
	audio = media.StripDataURI(audio)
	if audio == "" {
		return fmt.Errorf("%w: empty audio", ErrInvalidInput)
	}
	return c.send(ctx, sendRequest{Number: phone, Audio: audio})
}

func (c *Client) send(ctx context.Context, body sendRequest) error {
	if strings.TrimSpace(body.Number) == "" {
		return fmt.Errorf("%w: empty phone number", ErrInvalidInput)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoints.Send, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	}
	c.logger.Info("intervention sent",
		zap.String("number", body.Number),
		zap.Bool("audio", body.Audio != ""),
		zap.String("request_id", req.Header.Get("X-Request-ID")))
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	c.logger.Debug("backend request", zap.String("method", method), zap.String("path", path))
	return req, nil
}

// Describe turns a backend error into a short operator-facing sentence.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransport):
		return "Backend unreachable, check your connection"
	case errors.Is(err, ErrMalformed):
		return "Backend returned an unexpected response"
	case errors.Is(err, ErrRejected):
		return "Backend rejected the request"
	case errors.Is(err, ErrInvalidInput):
		return "Nothing to send"
	default:
		return err.Error()
	}
}
