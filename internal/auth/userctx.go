package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

const (
	CtxOwnerID = "owner_id"
	CtxPremium = "owner_premium"
)

// Owner returns the request's owner identity, or nil for anonymous
// callers. Anonymous means local-only: the facade silently skips all
// remote operations.
func Owner(c *gin.Context) *domain.Owner {
	id := c.GetString(CtxOwnerID)
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return &domain.Owner{
		ID:      id,
		Premium: c.GetBool(CtxPremium),
	}
}
