package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/socialqueue/pipeline/configs"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// InstagramService wraps the Graph API's asynchronous container protocol:
// create an upload container (photo, reel, carousel item or carousel
// parent), watch its status, publish it once FINISHED.
type InstagramService interface {
	CreatePhotoContainer(ctx context.Context, accountID, imageURL, caption, accessToken string) (string, error)
	CreateReelContainer(ctx context.Context, accountID, videoURL, caption, accessToken string) (string, error)
	CreateCarouselItemContainer(ctx context.Context, accountID, mediaURL string, isVideo bool, accessToken string) (string, error)
	CreateCarouselContainer(ctx context.Context, accountID, caption string, children []string, accessToken string) (string, error)
	ContainerStatus(ctx context.Context, containerID, accessToken string) (string, error)
	PublishContainer(ctx context.Context, accountID, containerID, accessToken string) error
}

type instagramService struct {
	cfg    config.Config
	client *http.Client
}

func NewInstagramService(cfg config.Config) InstagramService {
	return &instagramService{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

const (
	mediaTypeReels    = "REELS"
	mediaTypeVideo    = "VIDEO"
	mediaTypeCarousel = "CAROUSEL"
)

func (s *instagramService) CreatePhotoContainer(ctx context.Context, accountID, imageURL, caption, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"image_url":    imageURL,
		"caption":      caption,
		"access_token": accessToken,
	}
	return s.createContainer(ctx, accountID, payload)
}

func (s *instagramService) CreateReelContainer(ctx context.Context, accountID, videoURL, caption, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"media_type":   mediaTypeReels,
		"video_url":    videoURL,
		"caption":      caption,
		"access_token": accessToken,
	}
	return s.createContainer(ctx, accountID, payload)
}

func (s *instagramService) CreateCarouselItemContainer(ctx context.Context, accountID, mediaURL string, isVideo bool, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"is_carousel_item": true,
		"access_token":     accessToken,
	}
	if isVideo {
		payload["media_type"] = mediaTypeVideo
		payload["video_url"] = mediaURL
	} else {
		payload["image_url"] = mediaURL
	}
	return s.createContainer(ctx, accountID, payload)
}

func (s *instagramService) CreateCarouselContainer(ctx context.Context, accountID, caption string, children []string, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"media_type":   mediaTypeCarousel,
		"caption":      caption,
		"children":     strings.Join(children, ","),
		"access_token": accessToken,
	}
	return s.createContainer(ctx, accountID, payload)
}

func (s *instagramService) createContainer(ctx context.Context, accountID string, payload map[string]interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/media", s.cfg.GraphAPIBaseURL, accountID)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var result transfer.ContainerResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("error response from instagram: %s", result.Error.Message)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no container ID returned from Instagram")
	}

	return result.ID, nil
}

func (s *instagramService) ContainerStatus(ctx context.Context, containerID, accessToken string) (string, error) {
	url := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s", s.cfg.GraphAPIBaseURL, containerID, accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	var result transfer.ContainerStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("error response from instagram: %s", result.Error.Message)
	}
	if result.StatusCode == "" {
		return "", fmt.Errorf("no status_code returned for container %s", containerID)
	}

	return result.StatusCode, nil
}

func (s *instagramService) PublishContainer(ctx context.Context, accountID, containerID, accessToken string) error {
	url := fmt.Sprintf("%s/%s/media_publish", s.cfg.GraphAPIBaseURL, accountID)
	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	var result transfer.ContainerResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("error response from instagram: %s", result.Error.Message)
	}

	slog.Info(fmt.Sprintf("published container %s for account %s", containerID, accountID))
	return nil
}
