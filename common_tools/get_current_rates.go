package common_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shreyasd806-spec/myAI3/models"
)

const (
	RatesToolName = "getCurrentRatesTool"

	defaultNumResults = 5
	maxContentChars   = 2500
	snippetRunes      = 500

	NoResultsMessage        = "Search failed or returned no results for the specified query and filters."
	ExtractionFailedMessage = "Search results were found, but the content could not be extracted from the source pages, preventing a factual response."
)

// SearchResult is a single financial product hit handed back to the model.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}

type RatesMetadata struct {
	SourceSearchQuery string `json:"source_search_query"`
}

// RatesPayload is the successful result of the rate search tool.
type RatesPayload struct {
	FinancialProductResults []SearchResult `json:"financial_product_results"`
	Metadata                RatesMetadata  `json:"metadata"`
}

// RatesArgs are the validated tool arguments.
type RatesArgs struct {
	Query        string
	NumResults   int
	DomainFilter string
}

// RateSearch wraps a Searcher as the live rate lookup tool.
type RateSearch struct {
	Searcher Searcher
}

// ParseDomains splits a comma separated domain list, trimming whitespace and
// dropping empty entries.
func ParseDomains(filter string) []string {
	if strings.TrimSpace(filter) == "" {
		return nil
	}
	var domains []string
	for _, d := range strings.Split(filter, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// Snippet returns the first 500 characters of trimmed text followed by "...".
func Snippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > snippetRunes {
		runes = runes[:snippetRunes]
	}
	return string(runes) + "..."
}

// Get_Current_Rates runs the search. Every path returns a value the model can
// read: a *RatesPayload on success, otherwise a plain explanatory string.
func (r *RateSearch) Get_Current_Rates(ctx context.Context, args RatesArgs) interface{} {
	numResults := args.NumResults
	if numResults <= 0 {
		numResults = defaultNumResults
	}

	req := SearchRequest{
		Query:          args.Query,
		NumResults:     numResults,
		IncludeDomains: ParseDomains(args.DomainFilter),
		Contents:       SearchContents{Text: TextContents{MaxCharacters: maxContentChars}},
	}

	resp, err := r.Searcher.SearchAndContents(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("query", args.Query).Msg("exa search error")
		return fmt.Sprintf("An error occurred while fetching real-time data for: %s. Please ensure your EXA_API_KEY is correct.", args.Query)
	}

	if resp == nil || len(resp.Results) == 0 {
		return NoResultsMessage
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, res := range resp.Results {
		if strings.TrimSpace(res.Text) == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:   res.Title,
			URL:     res.URL,
			Snippet: Snippet(res.Text),
			Date:    res.PublishedDate,
		})
	}

	if len(results) == 0 {
		return ExtractionFailedMessage
	}

	return &RatesPayload{
		FinancialProductResults: results,
		Metadata:                RatesMetadata{SourceSearchQuery: args.Query},
	}
}

// Execute adapts Get_Current_Rates to the generic tool signature.
func (r *RateSearch) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return r.Get_Current_Rates(ctx, RatesArgs{
		Query:        stringArg(args, "query"),
		NumResults:   intArg(args, "numResults"),
		DomainFilter: stringArg(args, "domainFilter"),
	}), nil
}

// Declaration returns the tool definition handed to the model.
func (r *RateSearch) Declaration() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        RatesToolName,
		Description: "Searches the live web for current and accurate financial rates, including APY/APR, loan rates, promotional offers, and product details (e.g., High-Yield Savings Accounts, CDs, Credit Cards) across top financial sources. MUST be used for any query involving numbers, rates, or current market data.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The user's specific financial search query, e.g., 'highest APY on 1-year CDs' or 'current chase credit card offers'.",
				},
				"numResults": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of search results to fetch, defaults to 5.",
				},
				"domainFilter": map[string]interface{}{
					"type":        "string",
					"description": "A comma-separated list of high-authority financial domains to restrict the search to, e.g., 'bankrate.com, nerdwallet.com'",
				},
			},
			Required: []string{"query"},
		},
		Callable: r.Execute,
	}
}
