package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/eshop/internal/audit/domain"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
)

type orderSupplierPayload struct {
	ID    *flexibleID `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
}

type orderLineItemPayload struct {
	ID              *flexibleID `json:"id"`
	ItemName        string      `json:"item_name"`
	Quantity        int64       `json:"quantity"`
	PriceWithoutTax float64     `json:"price_without_tax"`
	TaxName         string      `json:"tax_name"`
	TaxAmount       float64     `json:"tax_amount"`
}

// orderRequest is the nested write body. order_number, order_time and the
// computed totals are not part of it and are dropped on bind.
type orderRequest struct {
	Supplier  *orderSupplierPayload   `json:"supplier"`
	LineItems *[]orderLineItemPayload `json:"line_items"`
}

func (r orderRequest) supplier() *orderdomain.SupplierInput {
	if r.Supplier == nil {
		return nil
	}
	return &orderdomain.SupplierInput{
		ID:    r.Supplier.ID.ptr(),
		Name:  r.Supplier.Name,
		Email: r.Supplier.Email,
	}
}

// lineItems keeps the difference between an absent key (nil) and an empty list.
func (r orderRequest) lineItems() []lineitemdomain.Input {
	if r.LineItems == nil {
		return nil
	}
	out := make([]lineitemdomain.Input, 0, len(*r.LineItems))
	for _, item := range *r.LineItems {
		out = append(out, lineitemdomain.Input{
			ID:              item.ID.ptr(),
			ItemName:        item.ItemName,
			Quantity:        item.Quantity,
			PriceWithoutTax: item.PriceWithoutTax,
			TaxName:         item.TaxName,
			TaxAmount:       item.TaxAmount,
		})
	}
	return out
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		Supplier:  req.supplier(),
		LineItems: req.lineItems(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "order.create", auditdomain.TargetOrder, resp.ID.String(), orderAuditMetadata(resp))

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		SupplierName string `form:"supplier_name"`
		ItemName     string `form:"item_name"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrderRequest{
		PageToken:    strings.TrimSpace(query.PageToken),
		PageSize:     query.PageSize,
		SupplierName: strings.TrimSpace(query.SupplierName),
		ItemName:     strings.TrimSpace(query.ItemName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	resp, err := s.orderSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderDocument(c *gin.Context) {
	if s.pdf == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	order, err := s.orderSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdf.GeneratePurchaseOrder(c.Request.Context(), order)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	raw, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="purchase-order-%d.pdf"`, order.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", raw)
}

func (s *Server) ReplaceOrder(c *gin.Context) {
	s.updateOrder(c, false)
}

func (s *Server) PatchOrder(c *gin.Context) {
	s.updateOrder(c, true)
}

func (s *Server) updateOrder(c *gin.Context, partial bool) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Update(c.Request.Context(), orderdomain.UpdateOrderRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		Partial:   partial,
		Supplier:  req.supplier(),
		LineItems: req.lineItems(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "order.update", auditdomain.TargetOrder, resp.ID.String(), orderAuditMetadata(resp))

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.orderSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "order.delete", auditdomain.TargetOrder, id, nil)

	c.Status(http.StatusNoContent)
}

func orderAuditMetadata(resp orderdomain.Response) map[string]any {
	return map[string]any{
		"order_number":   resp.OrderNumber,
		"supplier_id":    resp.Supplier.ID.String(),
		"supplier_email": resp.Supplier.Email,
		"line_items":     len(resp.LineItems),
		"total_amount":   resp.TotalAmount,
	}
}
