package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"autoecole_go/config"
)

func TestCreateRoomDemoModePlaceholder(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
	}{
		{name: "no key", apiKey: ""},
		{name: "demo key", apiKey: "demo-12345"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			client := NewClient(&config.Config{VideoAPIKey: tc.apiKey, VideoAPIURL: "https://api.daily.co/v1"})

			result := client.CreateRoom(context.Background(), "theory-42", nil)
			if !result.Degraded {
				t.Fatalf("expected degraded placeholder room")
			}
			if result.Room.URL != "https://demo.daily.co/theory-42" {
				t.Fatalf("unexpected placeholder URL: %s", result.Room.URL)
			}
			if result.Room.Name != "theory-42" {
				t.Fatalf("unexpected room name: %s", result.Room.Name)
			}
			if result.Cause == "" {
				t.Fatalf("degraded result must carry a cause")
			}
		})
	}
}

func TestCreateRoomProviderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rooms" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer real-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://rooms.daily.co/road-7","name":"road-7","id":"abc","privacy":"private"}`))
	}))
	defer server.Close()

	client := NewClient(&config.Config{VideoAPIKey: "real-key", VideoAPIURL: server.URL})

	result := client.CreateRoom(context.Background(), "road-7", nil)
	if result.Degraded {
		t.Fatalf("expected live room, got degraded (%s)", result.Cause)
	}
	if result.Room.URL != "https://rooms.daily.co/road-7" {
		t.Fatalf("unexpected room URL: %s", result.Room.URL)
	}
}

func TestGetRoomProviderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rooms/road-7" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://rooms.daily.co/road-7","name":"road-7","id":"abc","privacy":"private"}`))
	}))
	defer server.Close()

	client := NewClient(&config.Config{VideoAPIKey: "real-key", VideoAPIURL: server.URL})

	result := client.GetRoom(context.Background(), "road-7")
	if result.Degraded {
		t.Fatalf("expected live room, got degraded (%s)", result.Cause)
	}
	if result.Room.Name != "road-7" {
		t.Fatalf("unexpected room name: %s", result.Room.Name)
	}
}

func TestGetRoomDemoModePlaceholder(t *testing.T) {
	client := NewClient(&config.Config{VideoAPIKey: "demo-12345", VideoAPIURL: "https://api.daily.co/v1"})

	result := client.GetRoom(context.Background(), "park-3")
	if !result.Degraded {
		t.Fatalf("expected degraded placeholder room")
	}
	if result.Room.URL != "https://demo.daily.co/park-3" {
		t.Fatalf("unexpected placeholder URL: %s", result.Room.URL)
	}
}

func TestDeleteRoom(t *testing.T) {
	deleted := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/rooms/road-7" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		deleted = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"road-7"}`))
	}))
	defer server.Close()

	client := NewClient(&config.Config{VideoAPIKey: "real-key", VideoAPIURL: server.URL})

	if err := client.DeleteRoom(context.Background(), "road-7"); err != nil {
		t.Fatalf("DeleteRoom() error: %v", err)
	}
	if !deleted {
		t.Fatalf("provider delete was never called")
	}

	// Demo mode never reaches the provider.
	demo := NewClient(&config.Config{VideoAPIKey: "", VideoAPIURL: server.URL})
	if err := demo.DeleteRoom(context.Background(), "road-7"); err != nil {
		t.Fatalf("DeleteRoom() in demo mode error: %v", err)
	}
}

func TestCreateRoomProviderFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(&config.Config{VideoAPIKey: "real-key", VideoAPIURL: server.URL})

	result := client.CreateRoom(context.Background(), "park-3", nil)
	if !result.Degraded {
		t.Fatalf("expected degraded result on provider failure")
	}
	if result.Room.URL != "https://demo.daily.co/park-3" {
		t.Fatalf("unexpected placeholder URL: %s", result.Room.URL)
	}
}
