package newsapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"miso-assistant/internal/domain"
	"miso-assistant/internal/infra/newsapi"
)

func articlesPayload() map[string]any {
	return map[string]any{
		"status": "ok",
		"articles": []map[string]any{
			{
				"title":       "Markets rally on rate news",
				"description": "Stocks climbed broadly.",
				"url":         "https://example.com/markets",
				"urlToImage":  "https://example.com/markets.jpg",
				"publishedAt": "2026-08-27T14:30:00Z",
				"source":      map[string]any{"name": "Example Times"},
			},
			{
				"title":       "Quiet day elsewhere",
				"url":         "https://example.com/quiet",
				"publishedAt": "2026-08-27T09:00:00Z",
				"source":      map[string]any{"name": "Example Post"},
			},
		},
	}
}

func TestClient_TopHeadlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/top-headlines" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		if q.Get("country") != "us" || q.Get("category") != "business" || q.Get("pageSize") != "5" {
			t.Errorf("unexpected query: %v", q)
		}
		json.NewEncoder(w).Encode(articlesPayload())
	}))
	defer server.Close()

	client := newsapi.NewClientWithURL("test-key", "us", server.URL)

	articles, err := client.TopHeadlines(context.Background(), "business", 5)
	if err != nil {
		t.Fatalf("TopHeadlines error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("articles = %d, want 2", len(articles))
	}

	if articles[0].Title != "Markets rally on rate news" || articles[0].Source != "Example Times" {
		t.Errorf("article 0 = %+v", articles[0])
	}
	// Missing optional fields get placeholders.
	if articles[1].Description != domain.NoDescriptionPlaceholder {
		t.Errorf("article 1 description = %q, want placeholder", articles[1].Description)
	}
	if articles[1].ImageURL != domain.NoImagePlaceholder {
		t.Errorf("article 1 image = %q, want placeholder", articles[1].ImageURL)
	}
	if articles[0].PublishedAt.IsZero() {
		t.Error("published timestamp not parsed")
	}
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/everything" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("q") != "elections" {
			t.Errorf("q = %q, want elections", r.URL.Query().Get("q"))
		}
		json.NewEncoder(w).Encode(articlesPayload())
	}))
	defer server.Close()

	client := newsapi.NewClientWithURL("test-key", "us", server.URL)

	articles, err := client.Search(context.Background(), "elections", 5)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("articles = %d, want 2", len(articles))
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "error",
			"message": "apiKey invalid",
		})
	}))
	defer server.Close()

	client := newsapi.NewClientWithURL("bad-key", "us", server.URL)

	if _, err := client.Search(context.Background(), "anything", 5); err == nil {
		t.Fatal("expected error for non-ok status envelope")
	}
}
