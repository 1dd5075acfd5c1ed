package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/socialqueue/pipeline/configs"
	"github.com/socialqueue/pipeline/internal/transfer"
)

func notionTestConfig(baseURL string) config.Config {
	return config.Config{NotionAPIBaseURL: baseURL, NotionVersion: "2022-06-28"}
}

func TestQueryReadyPages(t *testing.T) {
	var gotFilter map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/databases/db-1/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Notion-Version") == "" {
			t.Error("expected Notion-Version header")
		}
		if r.Header.Get("Authorization") != "Bearer notion-token" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&gotFilter)

		w.Write([]byte(`{
			"results": [
				{
					"id": "page-1",
					"properties": {
						"Publication date": {"date": {"start": "2026-08-28T10:00:00Z"}},
						"Social media account": {"multi_select": [{"name": "creator-instagram"}, {"name": "creator-youtube"}]}
					}
				}
			]
		}`))
	}))
	defer server.Close()

	s := NewNotionService(notionTestConfig(server.URL))
	pages, err := s.QueryReadyPages(context.Background(), "notion-token", "db-1", time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("expected one page, got %d", len(pages))
	}
	page := pages[0]
	if page.ID != "page-1" {
		t.Errorf("unexpected page id %q", page.ID)
	}
	want := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if !page.PublicationDate.Equal(want) {
		t.Errorf("expected publication date %v, got %v", want, page.PublicationDate)
	}
	if len(page.AccountNames) != 2 || page.AccountNames[0] != "creator-instagram" {
		t.Errorf("unexpected account names %v", page.AccountNames)
	}
	if gotFilter["filter"] == nil {
		t.Error("expected a status/date filter in the query body")
	}
}

func TestPageBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blocks/page-1/children" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"results": [
				{"type": "paragraph", "paragraph": {"rich_text": [{"plain_text": "Hello "}, {"plain_text": "world"}]}},
				{"type": "image", "image": {"file": {"url": "https://files/a.jpg"}}},
				{"type": "video", "video": {"file": {"url": "https://files/b.mp4"}}},
				{"type": "divider"}
			]
		}`))
	}))
	defer server.Close()

	s := NewNotionService(notionTestConfig(server.URL))
	blocks, err := s.PageBlocks(context.Background(), "notion-token", "page-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(blocks) != 3 {
		t.Fatalf("expected unsupported block types skipped, got %d blocks", len(blocks))
	}
	if blocks[0].Type != transfer.BlockTypeParagraph || len(blocks[0].RichText) != 2 {
		t.Errorf("unexpected paragraph block %+v", blocks[0])
	}
	if blocks[1].MediaURL != "https://files/a.jpg" || blocks[2].MediaURL != "https://files/b.mp4" {
		t.Errorf("unexpected media blocks %+v %+v", blocks[1], blocks[2])
	}
}

func TestUpdatePageStatus(t *testing.T) {
	var gotMethod string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	s := NewNotionService(notionTestConfig(server.URL))
	if err := s.UpdatePageStatus(context.Background(), "notion-token", "page-1", transfer.NotionStatusPublished); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	props, _ := gotBody["properties"].(map[string]interface{})
	if props == nil {
		t.Fatal("expected a properties update body")
	}
}
