package client

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/api/dto"
	"github.com/spec-kit/freeler-client/internal/domain"
)

// LookupClient resolves national IDs against the lookup service.
type LookupClient struct {
	http  httpClient
	token func() string
}

// NewLookupClient builds a client. token, when non-nil, supplies a bearer
// token for each request.
func NewLookupClient(baseURL string, timeout time.Duration, token func() string, logger *zap.Logger) *LookupClient {
	return &LookupClient{http: newHTTPClient(baseURL, timeout, logger), token: token}
}

// FindPerson handles GET /lookup/national-id/:id. Unknown IDs return ErrNotFound.
func (c *LookupClient) FindPerson(ctx context.Context, nationalID string) (domain.Person, error) {
	bearer := ""
	if c.token != nil {
		bearer = c.token()
	}
	var resp dto.PersonEnvelope
	if err := c.http.do(ctx, fiber.MethodGet, "/lookup/national-id/"+url.PathEscape(nationalID), bearer, nil, &resp); err != nil {
		return domain.Person{}, err
	}
	return resp.Data, nil
}
