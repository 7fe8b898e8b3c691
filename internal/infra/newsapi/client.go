package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"miso-assistant/internal/domain"
	"miso-assistant/internal/infra"
)

// Client fetches headlines and search results from NewsAPI. country
// selects the headline edition.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	country    string
	language   string
}

func NewClient(apiKey, country string) *Client {
	return NewClientWithURL(apiKey, country, "https://newsapi.org/v2")
}

func NewClientWithURL(apiKey, country, baseURL string) *Client {
	if country == "" {
		country = "us"
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		country:    country,
		language:   "en",
	}
}

type apiResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (c *Client) TopHeadlines(ctx context.Context, category string, pageSize int) ([]domain.NewsArticle, error) {
	params := url.Values{
		"country":  {c.country},
		"pageSize": {fmt.Sprint(pageSize)},
	}
	if category != "" {
		params.Set("category", category)
	}
	return c.fetch(ctx, "/top-headlines", params)
}

func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]domain.NewsArticle, error) {
	params := url.Values{
		"q":        {query},
		"language": {c.language},
		"pageSize": {fmt.Sprint(pageSize)},
	}
	return c.fetch(ctx, "/everything", params)
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]domain.NewsArticle, error) {
	params.Set("apiKey", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	var result apiResponse
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("newsapi error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return fmt.Errorf("newsapi error %d: %s", resp.StatusCode, string(respBody))
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q: %s", result.Status, result.Message)
	}

	articles := make([]domain.NewsArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		article := domain.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			Source:      a.Source.Name,
			PublishedAt: published,
		}
		article.Normalize()
		articles = append(articles, article)
	}
	return articles, nil
}
