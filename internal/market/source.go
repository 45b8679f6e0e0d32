// Package market supplies the read-only item catalog the buyer negotiates
// over. The marketplace service is an external collaborator; when it is
// unreachable the buyer falls back to a built-in sample catalog.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mbourmaud/souk/internal/negotiation"
)

// Source yields marketplace listings.
type Source interface {
	Items(ctx context.Context) ([]negotiation.Item, error)
}

// HTTPSource queries a marketplace search endpoint.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source for the given base URL.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Items fetches the current listings from the marketplace.
func (s *HTTPSource) Items(ctx context.Context) ([]negotiation.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/search_items", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketplace unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketplace returned status %d", resp.StatusCode)
	}

	var items []negotiation.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode item list: %w", err)
	}
	return items, nil
}

// StaticSource serves a fixed list of items.
type StaticSource []negotiation.Item

// Items returns a copy of the fixed list.
func (s StaticSource) Items(ctx context.Context) ([]negotiation.Item, error) {
	out := make([]negotiation.Item, len(s))
	copy(out, s)
	return out, nil
}

// SampleCatalog is the fallback used when the marketplace is unavailable.
func SampleCatalog() []negotiation.Item {
	return []negotiation.Item{
		{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics"},
		{ID: "2", Title: "Vintage Leather Sofa", AskingPrice: 350, Category: "Furniture"},
		{ID: "3", Title: "Mountain Bike", AskingPrice: 850, Category: "Sports"},
	}
}
