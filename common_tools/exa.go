package common_tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ExaBaseURL = "https://api.exa.ai"

// Searcher runs a web search that also returns extracted page text.
type Searcher interface {
	SearchAndContents(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the subset of Exa search options used by the tools.
type SearchRequest struct {
	Query          string         `json:"query"`
	NumResults     int            `json:"numResults"`
	IncludeDomains []string       `json:"includeDomains,omitempty"`
	Contents       SearchContents `json:"contents"`
}

type SearchContents struct {
	Text TextContents `json:"text"`
}

type TextContents struct {
	MaxCharacters int `json:"maxCharacters"`
}

type SearchResponse struct {
	RequestID string      `json:"requestId"`
	Results   []ExaResult `json:"results"`
}

// ExaResult is one hit. Text is empty when the page could not be extracted.
type ExaResult struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	PublishedDate string `json:"publishedDate,omitempty"`
	Author        string `json:"author,omitempty"`
	Text          string `json:"text,omitempty"`
}

type exaError struct {
	Error string `json:"error"`
}

// ExaClient talks to the Exa search API. One client is created at startup
// and shared by every request.
type ExaClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewExaClient creates a client for the public Exa endpoint.
func NewExaClient(apiKey string) *ExaClient {
	return &ExaClient{
		APIKey:  apiKey,
		BaseURL: ExaBaseURL,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}
}

// SearchAndContents performs a search and asks for page text in the same call.
func (c *ExaClient) SearchAndContents(ctx context.Context, searchReq SearchRequest) (*SearchResponse, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("EXA_API_KEY environment variable not set")
	}

	jsonData, err := json.Marshal(searchReq)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %w", err)
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = ExaBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/search", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to Exa API: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr exaError
		if json.Unmarshal(responseBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("Exa API request failed with status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("Exa API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(responseBody, &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling Exa API response: %w", err)
	}
	return &result, nil
}
