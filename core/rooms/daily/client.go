// Package daily provisions rooms and meeting tokens through the Daily REST
// API.
package daily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/vocablive/core/rooms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultAPIURL = "https://api.daily.co/v1"

var _ rooms.Provider = (*Client)(nil)

type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	now        func() time.Time
}

type ClientOption func(*Client)

func WithAPIURL(apiURL string) ClientOption {
	return func(c *Client) {
		if apiURL != "" {
			c.apiURL = strings.TrimRight(apiURL, "/")
		}
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func withClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		apiURL:     DefaultAPIURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type roomProperties struct {
	Exp                 int64 `json:"exp"`
	EjectAtRoomExp      bool  `json:"eject_at_room_exp"`
	MaxParticipants     int   `json:"max_participants"`
	EnableChat          bool  `json:"enable_chat"`
	EnableTranscription bool  `json:"enable_transcription"`
	StartVideoOff       bool  `json:"start_video_off"`
	StartAudioOff       bool  `json:"start_audio_off"`
}

type createRoomRequest struct {
	Properties roomProperties `json:"properties"`
}

type roomResponse struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type tokenProperties struct {
	RoomName string `json:"room_name"`
	IsOwner  bool   `json:"is_owner"`
	UserName string `json:"user_name,omitempty"`
}

type createTokenRequest struct {
	Properties tokenProperties `json:"properties"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// CreateRoom creates a room that expires, ejecting everyone, after
// opts.Duration.
func (c *Client) CreateRoom(ctx context.Context, opts rooms.RoomOptions) (*rooms.Room, error) {
	ctx, span := tracer.Start(ctx, "create daily room")
	defer span.End()

	if opts.Duration <= 0 {
		opts.Duration = rooms.DefaultDuration
	}
	if opts.MaxParticipants <= 0 {
		opts.MaxParticipants = rooms.DefaultMaxParticipants
	}

	expiresAt := c.now().Add(opts.Duration).Truncate(time.Second)
	logger.InfoContext(ctx, "creating daily room", "expires_at", expiresAt.Unix())

	request := createRoomRequest{Properties: roomProperties{
		Exp:                 expiresAt.Unix(),
		EjectAtRoomExp:      true,
		MaxParticipants:     opts.MaxParticipants,
		EnableChat:          true,
		EnableTranscription: true,
		StartVideoOff:       false,
		StartAudioOff:       false,
	}}

	var response roomResponse
	if err := c.post(ctx, span, "create room", "/rooms", request, &response); err != nil {
		return nil, err
	}
	if response.URL == "" || response.Name == "" {
		err := &rooms.ProviderError{Op: "create room", Message: "response is missing url or name"}
		recordError(span, err)
		return nil, err
	}

	logger.InfoContext(ctx, "created daily room", "room", response.Name, "url", response.URL)
	span.SetAttributes(attribute.String("room.name", response.Name))
	return &rooms.Room{URL: response.URL, Name: response.Name, ExpiresAt: expiresAt}, nil
}

// CreateToken creates a meeting token scoped to roomName.
func (c *Client) CreateToken(ctx context.Context, roomName string, opts rooms.TokenOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "create daily meeting token")
	defer span.End()
	span.SetAttributes(attribute.String("room.name", roomName))

	logger.InfoContext(ctx, "creating meeting token", "room", roomName)
	request := createTokenRequest{Properties: tokenProperties{
		RoomName: roomName,
		IsOwner:  opts.IsOwner,
		UserName: opts.UserName,
	}}

	var response tokenResponse
	if err := c.post(ctx, span, "create token", "/meeting-tokens", request, &response); err != nil {
		return "", err
	}
	if response.Token == "" {
		err := &rooms.ProviderError{Op: "create token", Message: "response is missing token"}
		recordError(span, err)
		return "", err
	}

	logger.InfoContext(ctx, "created meeting token", "room", roomName)
	return response.Token, nil
}

func (c *Client) post(ctx context.Context, span trace.Span, op, path string, body, out any) error {
	requestBody, err := json.Marshal(body)
	if err != nil {
		err = &rooms.ProviderError{Op: op, Err: fmt.Errorf("error marshalling JSON: %w", err)}
		recordError(span, err)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(requestBody))
	if err != nil {
		err = &rooms.ProviderError{Op: op, Err: fmt.Errorf("error creating HTTP request: %w", err)}
		recordError(span, err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	span.SetAttributes(attribute.String("request.url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "daily api call failed", "op", op, "error", err)
		err = &rooms.ProviderError{Op: op, Err: fmt.Errorf("error sending request: %w", err)}
		recordError(span, err)
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = &rooms.ProviderError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("error reading response body: %w", err)}
		recordError(span, err)
		return err
	}

	if resp.StatusCode != http.StatusOK {
		logger.ErrorContext(ctx, "daily api returned an error", "op", op, "status", resp.StatusCode, "body", string(responseBody))
		err := &rooms.ProviderError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(responseBody))}
		recordError(span, err)
		return err
	}

	if err := json.Unmarshal(responseBody, out); err != nil {
		err = &rooms.ProviderError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("error unmarshalling response: %w", err)}
		recordError(span, err)
		return err
	}

	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
