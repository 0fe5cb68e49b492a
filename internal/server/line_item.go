package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/eshop/internal/audit/domain"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
)

type lineItemRequest struct {
	OrderID         *flexibleID `json:"order_id"`
	ItemName        *string     `json:"item_name"`
	Quantity        *int64      `json:"quantity"`
	PriceWithoutTax *float64    `json:"price_without_tax"`
	TaxName         *string     `json:"tax_name"`
	TaxAmount       *float64    `json:"tax_amount"`
}

func (r lineItemRequest) missingField() string {
	switch {
	case r.ItemName == nil:
		return "item_name"
	case r.Quantity == nil:
		return "quantity"
	case r.PriceWithoutTax == nil:
		return "price_without_tax"
	case r.TaxName == nil:
		return "tax_name"
	case r.TaxAmount == nil:
		return "tax_amount"
	}
	return ""
}

func (s *Server) CreateLineItem(c *gin.Context) {
	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.OrderID == nil {
		AbortWithError(c, newValidationError("order_id", "required", "order_id is required"))
		return
	}

	resp, err := s.lineItemSvc.Create(c.Request.Context(), lineitemdomain.CreateLineItemRequest{
		OrderID: string(*req.OrderID),
		Input: lineitemdomain.Input{
			ItemName:        valueOf(req.ItemName),
			Quantity:        valueOf(req.Quantity),
			PriceWithoutTax: valueOf(req.PriceWithoutTax),
			TaxName:         valueOf(req.TaxName),
			TaxAmount:       valueOf(req.TaxAmount),
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "line_item.create", auditdomain.TargetLineItem, resp.ID.String(), lineItemAuditMetadata(resp))

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListLineItems(c *gin.Context) {
	var query struct {
		pagination.Pagination
		OrderID  string `form:"order_id"`
		ItemName string `form:"item_name"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.lineItemSvc.List(c.Request.Context(), lineitemdomain.ListLineItemRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
		OrderID:   strings.TrimSpace(query.OrderID),
		ItemName:  strings.TrimSpace(query.ItemName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLineItemByID(c *gin.Context) {
	resp, err := s.lineItemSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReplaceLineItem(c *gin.Context) {
	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if field := req.missingField(); field != "" {
		AbortWithError(c, newValidationError(field, "required", field+" is required"))
		return
	}
	s.updateLineItem(c, req)
}

func (s *Server) PatchLineItem(c *gin.Context) {
	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.updateLineItem(c, req)
}

func (s *Server) updateLineItem(c *gin.Context, req lineItemRequest) {
	resp, err := s.lineItemSvc.Update(c.Request.Context(), lineitemdomain.UpdateLineItemRequest{
		ID:              strings.TrimSpace(c.Param("id")),
		OrderID:         req.OrderID.ptr(),
		ItemName:        req.ItemName,
		Quantity:        req.Quantity,
		PriceWithoutTax: req.PriceWithoutTax,
		TaxName:         req.TaxName,
		TaxAmount:       req.TaxAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "line_item.update", auditdomain.TargetLineItem, resp.ID.String(), lineItemAuditMetadata(resp))

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteLineItem(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.lineItemSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "line_item.delete", auditdomain.TargetLineItem, id, nil)

	c.Status(http.StatusNoContent)
}

func lineItemAuditMetadata(resp lineitemdomain.Response) map[string]any {
	return map[string]any{
		"order_id":   resp.OrderID.String(),
		"item_name":  resp.ItemName,
		"quantity":   resp.Quantity,
		"line_total": resp.LineTotal,
	}
}
