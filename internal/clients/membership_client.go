// internal/clients/membership_client.go
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

// MembershipClient checks member existence against the external member
// directory.
type MembershipClient struct {
	baseURL string
	client  *http.Client
}

var _ circulation.MemberDirectory = (*MembershipClient)(nil)

func NewMembershipClient(baseURL string) *MembershipClient {
	return &MembershipClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// ActiveMember reports whether the member exists and is in active standing.
// An unknown member maps to ErrUnknownMember.
func (c *MembershipClient) ActiveMember(ctx context.Context, memberID uuid.UUID) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/members/%s", c.baseURL, memberID), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, circulation.ErrUnknownMember
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("membership service: unexpected status code: %d", resp.StatusCode)
	}

	var member struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return false, err
	}
	return member.Status == "active", nil
}
