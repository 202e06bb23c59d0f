// Package video wraps the Daily.co room API. Provider failures never fail
// the enclosing request: the client substitutes a deterministic placeholder
// room and tags the result as degraded so callers can surface a warning.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"autoecole_go/config"
)

const demoRoomBase = "https://demo.daily.co/"

type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey: cfg.VideoAPIKey,
		apiURL: strings.TrimRight(cfg.VideoAPIURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Room is the provider-side room record.
type Room struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	ID      string `json:"id"`
	Privacy string `json:"privacy"`
}

// RoomResult tags a room with its provenance. Degraded rooms are local
// placeholders substituted for a missing key or a provider failure; Cause
// says why.
type RoomResult struct {
	Room     Room
	Degraded bool
	Cause    string
}

func (c *Client) demoMode() bool {
	return c.apiKey == "" || strings.HasPrefix(c.apiKey, "demo-")
}

func (c *Client) placeholder(roomName, cause string) RoomResult {
	return RoomResult{
		Room: Room{
			URL:     demoRoomBase + roomName,
			Name:    roomName,
			Privacy: "private",
		},
		Degraded: true,
		Cause:    cause,
	}
}

// CreateRoom provisions a private room. On any provider error the result is
// a degraded placeholder, never an error.
func (c *Client) CreateRoom(ctx context.Context, roomName string, properties map[string]interface{}) RoomResult {
	if c.demoMode() {
		return c.placeholder(roomName, "video provider not configured")
	}

	if properties == nil {
		properties = map[string]interface{}{
			"enable_screenshare": true,
			"enable_chat":        true,
			"start_video_off":    false,
			"start_audio_off":    false,
			"max_participants":   10,
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"name":       roomName,
		"privacy":    "private",
		"properties": properties,
	})
	if err != nil {
		return c.placeholder(roomName, fmt.Sprintf("encode request: %v", err))
	}

	room, err := c.do(ctx, http.MethodPost, c.apiURL+"/rooms", payload)
	if err != nil {
		return c.placeholder(roomName, err.Error())
	}
	return RoomResult{Room: *room}
}

// GetRoom fetches room metadata, degrading like CreateRoom.
func (c *Client) GetRoom(ctx context.Context, roomName string) RoomResult {
	if c.demoMode() {
		return c.placeholder(roomName, "video provider not configured")
	}

	room, err := c.do(ctx, http.MethodGet, c.apiURL+"/rooms/"+roomName, nil)
	if err != nil {
		return c.placeholder(roomName, err.Error())
	}
	return RoomResult{Room: *room}
}

// DeleteRoom removes a provider room. Deletion of placeholder rooms is a
// no-op.
func (c *Client) DeleteRoom(ctx context.Context, roomName string) error {
	if c.demoMode() {
		return nil
	}
	_, err := c.do(ctx, http.MethodDelete, c.apiURL+"/rooms/"+roomName, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) (*Room, error) {
	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &room, nil
}
