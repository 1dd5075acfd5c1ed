package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/socialqueue/pipeline/configs"
	"github.com/socialqueue/pipeline/internal/transfer"
)

func TestCreatePhotoContainer(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(transfer.ContainerResponse{ID: "container-9"})
	}))
	defer server.Close()

	s := NewInstagramService(config.Config{GraphAPIBaseURL: server.URL})
	id, err := s.CreatePhotoContainer(context.Background(), "acc-1", "https://m/a.jpg", "caption", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if id != "container-9" {
		t.Errorf("expected container id returned, got %q", id)
	}
	if gotPath != "/acc-1/media" {
		t.Errorf("expected container creation on the account media edge, got %s", gotPath)
	}
	if gotPayload["image_url"] != "https://m/a.jpg" || gotPayload["caption"] != "caption" {
		t.Errorf("unexpected payload: %v", gotPayload)
	}
}

func TestCreateCarouselContainer_JoinsChildren(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(transfer.ContainerResponse{ID: "parent-1"})
	}))
	defer server.Close()

	s := NewInstagramService(config.Config{GraphAPIBaseURL: server.URL})
	id, err := s.CreateCarouselContainer(context.Background(), "acc-1", "caption", []string{"c1", "c2", "c3"}, "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != "parent-1" {
		t.Errorf("expected parent id, got %q", id)
	}
	if gotPayload["media_type"] != "CAROUSEL" {
		t.Errorf("expected CAROUSEL media type, got %v", gotPayload["media_type"])
	}
	if gotPayload["children"] != "c1,c2,c3" {
		t.Errorf("expected comma-joined children, got %v", gotPayload["children"])
	}
}

func TestCreateContainer_GraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transfer.ContainerResponse{
			Error: &transfer.GraphError{Message: "unsupported media"},
		})
	}))
	defer server.Close()

	s := NewInstagramService(config.Config{GraphAPIBaseURL: server.URL})
	if _, err := s.CreateReelContainer(context.Background(), "acc-1", "https://m/a.mp4", "caption", "token"); err == nil {
		t.Fatal("expected the graph error to surface")
	}
}

func TestContainerStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") != "status_code" {
			t.Errorf("expected status_code fields query, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(transfer.ContainerStatusResponse{StatusCode: transfer.ContainerFinished, ID: "container-9"})
	}))
	defer server.Close()

	s := NewInstagramService(config.Config{GraphAPIBaseURL: server.URL})
	status, err := s.ContainerStatus(context.Background(), "container-9", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if status != transfer.ContainerFinished {
		t.Errorf("expected FINISHED, got %q", status)
	}
}

func TestPublishContainer(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(transfer.ContainerResponse{ID: "media-1"})
	}))
	defer server.Close()

	s := NewInstagramService(config.Config{GraphAPIBaseURL: server.URL})
	if err := s.PublishContainer(context.Background(), "acc-1", "container-9", "token"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotPath != "/acc-1/media_publish" {
		t.Errorf("expected publish on the media_publish edge, got %s", gotPath)
	}
	if gotPayload["creation_id"] != "container-9" {
		t.Errorf("expected creation_id set, got %v", gotPayload)
	}
}
