package common_tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExaClientSearchAndContents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "exa-key", r.Header.Get("x-api-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hysa rates", body["query"])
		assert.Equal(t, float64(5), body["numResults"])
		assert.Equal(t, []interface{}{"bankrate.com"}, body["includeDomains"])
		assert.Equal(t, map[string]interface{}{"text": map[string]interface{}{"maxCharacters": float64(2500)}}, body["contents"])

		w.Write([]byte(`{"requestId":"r1","results":[{"id":"1","title":"T","url":"https://bankrate.com/x","publishedDate":"2024-01-01","text":"4.5% APY"}]}`))
	}))
	defer srv.Close()

	c := NewExaClient("exa-key")
	c.BaseURL = srv.URL
	c.HTTP = srv.Client()

	resp, err := c.SearchAndContents(context.Background(), SearchRequest{
		Query:          "hysa rates",
		NumResults:     5,
		IncludeDomains: []string{"bankrate.com"},
		Contents:       SearchContents{Text: TextContents{MaxCharacters: 2500}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "4.5% APY", resp.Results[0].Text)
	assert.Equal(t, "2024-01-01", resp.Results[0].PublishedDate)
}

func TestExaClientOmitsEmptyDomains(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, present := body["includeDomains"]
		assert.False(t, present)
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := &ExaClient{APIKey: "k", BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.SearchAndContents(context.Background(), SearchRequest{Query: "q", NumResults: 5})
	require.NoError(t, err)
}

func TestExaClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	c := &ExaClient{APIKey: "bad", BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.SearchAndContents(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")

	_, err = NewExaClient("").SearchAndContents(context.Background(), SearchRequest{Query: "q"})
	assert.Error(t, err)
}
