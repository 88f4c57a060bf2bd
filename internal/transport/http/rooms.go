package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"domainrace/internal/domain"
)

// DefaultRequestTimeout bounds a single provisioning request
const DefaultRequestTimeout = 10 * time.Second

// CreateRoomResponse is the body of GET /generate-room
type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
}

// ErrorInfo is the error body returned by the game server
type ErrorInfo struct {
	Detail string `json:"detail"`
}

// RoomClient asks the game server for fresh room codes
type RoomClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures a RoomClient
type Option func(*RoomClient)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(rc *RoomClient) {
		rc.client = c
	}
}

// NewRoomClient creates a client for the server at baseURL (http:// or https://)
func NewRoomClient(baseURL string, logger *slog.Logger, opts ...Option) *RoomClient {
	rc := &RoomClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultRequestTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// CreateRoom provisions a new room and returns its code
func (rc *RoomClient) CreateRoom(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.baseURL+"/generate-room", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRoomProvisioning, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := rc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRoomProvisioning, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrRoomProvisioning, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var info ErrorInfo
		_ = json.Unmarshal(body, &info)
		rc.logger.Warn("room provisioning rejected",
			"status", resp.StatusCode,
			"detail", info.Detail,
		)
		if info.Detail != "" {
			return "", fmt.Errorf("%w: %s: %s", domain.ErrRoomProvisioning, resp.Status, info.Detail)
		}
		return "", fmt.Errorf("%w: %s", domain.ErrRoomProvisioning, resp.Status)
	}

	var created CreateRoomResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrRoomProvisioning, err)
	}
	if created.RoomCode == "" {
		return "", fmt.Errorf("%w: empty room code", domain.ErrRoomProvisioning)
	}

	rc.logger.Info("room provisioned", "roomCode", created.RoomCode)
	return created.RoomCode, nil
}
