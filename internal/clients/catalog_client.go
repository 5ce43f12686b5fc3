// internal/clients/catalog_client.go
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"circulib/internal/circulation"
)

// CatalogClient reads item copy totals from the external catalog service.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

var _ circulation.CatalogDirectory = (*CatalogClient)(nil)

func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// TotalCopies looks up the catalog-owned total for an item. A catalog miss
// maps to ErrUnknownItem.
func (c *CatalogClient) TotalCopies(ctx context.Context, itemID uuid.UUID) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/items/%s", c.baseURL, itemID), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, circulation.ErrUnknownItem
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("catalog service: unexpected status code: %d", resp.StatusCode)
	}

	var item struct {
		TotalCopies int `json:"total_copies"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return 0, err
	}
	return item.TotalCopies, nil
}
