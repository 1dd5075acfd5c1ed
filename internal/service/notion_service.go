package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	config "github.com/socialqueue/pipeline/configs"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// NotionService is the document-workspace collaborator: query a user's
// content index for ready pages, read a page's blocks, flip a page's status.
// Calls run against the caller-supplied integration token since every user
// brings their own workspace.
type NotionService interface {
	QueryReadyPages(ctx context.Context, accessToken, databaseID string, since time.Time) ([]*transfer.NotionPage, error)
	PageBlocks(ctx context.Context, accessToken, pageID string) ([]*transfer.NotionBlock, error)
	UpdatePageStatus(ctx context.Context, accessToken, pageID, status string) error
}

type notionService struct {
	cfg    config.Config
	client *http.Client
}

func NewNotionService(cfg config.Config) NotionService {
	return &notionService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *notionService) QueryReadyPages(ctx context.Context, accessToken, databaseID string, since time.Time) ([]*transfer.NotionPage, error) {
	payload := map[string]interface{}{
		"filter": map[string]interface{}{
			"and": []map[string]interface{}{
				{
					"property": "Status",
					"select":   map[string]string{"equals": transfer.NotionStatusReady},
				},
				{
					"property": "Publication date",
					"date":     map[string]string{"on_or_after": since.UTC().Format(time.RFC3339)},
				},
			},
		},
	}

	url := fmt.Sprintf("%s/databases/%s/query", s.cfg.NotionAPIBaseURL, databaseID)
	var result struct {
		Results []struct {
			ID         string `json:"id"`
			Properties struct {
				PublicationDate struct {
					Date struct {
						Start string `json:"start"`
					} `json:"date"`
				} `json:"Publication date"`
				SocialMediaAccount struct {
					MultiSelect []struct {
						Name string `json:"name"`
					} `json:"multi_select"`
				} `json:"Social media account"`
			} `json:"properties"`
		} `json:"results"`
	}

	if err := s.do(ctx, http.MethodPost, url, accessToken, payload, &result); err != nil {
		return nil, fmt.Errorf("error querying notion database %s: %w", databaseID, err)
	}

	pages := make([]*transfer.NotionPage, 0, len(result.Results))
	for _, res := range result.Results {
		page := &transfer.NotionPage{ID: res.ID}
		if start := res.Properties.PublicationDate.Date.Start; start != "" {
			t, err := time.Parse(time.RFC3339, start)
			if err != nil {
				slog.Info(fmt.Sprintf("invalid publication date on page %s: %v", res.ID, err))
				continue
			}
			page.PublicationDate = t
		}
		for _, account := range res.Properties.SocialMediaAccount.MultiSelect {
			page.AccountNames = append(page.AccountNames, account.Name)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (s *notionService) PageBlocks(ctx context.Context, accessToken, pageID string) ([]*transfer.NotionBlock, error) {
	url := fmt.Sprintf("%s/blocks/%s/children", s.cfg.NotionAPIBaseURL, pageID)
	var result struct {
		Results []struct {
			Type      string `json:"type"`
			Paragraph *struct {
				RichText []struct {
					PlainText string `json:"plain_text"`
				} `json:"rich_text"`
			} `json:"paragraph"`
			Image *struct {
				File struct {
					URL string `json:"url"`
				} `json:"file"`
			} `json:"image"`
			Video *struct {
				File struct {
					URL string `json:"url"`
				} `json:"file"`
			} `json:"video"`
		} `json:"results"`
	}

	if err := s.do(ctx, http.MethodGet, url, accessToken, nil, &result); err != nil {
		return nil, fmt.Errorf("error fetching blocks for page %s: %w", pageID, err)
	}

	var blocks []*transfer.NotionBlock
	for _, res := range result.Results {
		switch {
		case res.Paragraph != nil:
			block := &transfer.NotionBlock{Type: transfer.BlockTypeParagraph}
			for _, rt := range res.Paragraph.RichText {
				block.RichText = append(block.RichText, rt.PlainText)
			}
			blocks = append(blocks, block)
		case res.Image != nil:
			blocks = append(blocks, &transfer.NotionBlock{Type: transfer.BlockTypeImage, MediaURL: res.Image.File.URL})
		case res.Video != nil:
			blocks = append(blocks, &transfer.NotionBlock{Type: transfer.BlockTypeVideo, MediaURL: res.Video.File.URL})
		}
	}
	return blocks, nil
}

func (s *notionService) UpdatePageStatus(ctx context.Context, accessToken, pageID, status string) error {
	payload := map[string]interface{}{
		"properties": map[string]interface{}{
			"Status": map[string]interface{}{
				"select": map[string]string{"name": status},
			},
		},
	}

	url := fmt.Sprintf("%s/pages/%s", s.cfg.NotionAPIBaseURL, pageID)
	if err := s.do(ctx, http.MethodPatch, url, accessToken, payload, nil); err != nil {
		return fmt.Errorf("error updating status of page %s: %w", pageID, err)
	}
	return nil
}

func (s *notionService) do(ctx context.Context, method, url, accessToken string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshalling payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Notion-Version", s.cfg.NotionVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code from notion: %d (%s)", resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("error parsing response: %w", err)
		}
	}
	return nil
}
