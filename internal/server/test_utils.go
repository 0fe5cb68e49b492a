package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/eshop/pkg/db/sqlutil"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup removes suppliers whose name starts with prefix, together with
// their orders and line items. It is only routed outside production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()

	var supplierIDs []int64
	if err := s.db.WithContext(ctx).
		Table("suppliers").
		Select("id").
		Where("name LIKE ? ESCAPE '!'", sqlutil.PrefixPattern(prefix)).
		Scan(&supplierIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	for _, id := range supplierIDs {
		if err := s.supplierSvc.Delete(ctx, strconv.FormatInt(id, 10)); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": len(supplierIDs)})
}
