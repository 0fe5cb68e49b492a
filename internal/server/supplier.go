package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/eshop/internal/audit/domain"
	supplierdomain "github.com/smallbiznis/eshop/internal/supplier/domain"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
)

type supplierRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (s *Server) CreateSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.supplierSvc.Create(c.Request.Context(), supplierdomain.CreateSupplierRequest{
		Name:  valueOf(req.Name),
		Email: valueOf(req.Email),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "supplier.create", auditdomain.TargetSupplier, resp.ID.String(), map[string]any{
		"name":  resp.Name,
		"email": resp.Email,
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSuppliers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name string `form:"name"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.supplierSvc.List(c.Request.Context(), supplierdomain.ListSupplierRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
		Name:      strings.TrimSpace(query.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSupplierByID(c *gin.Context) {
	resp, err := s.supplierSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReplaceSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Name == nil {
		AbortWithError(c, newValidationError("name", "required", "name is required"))
		return
	}
	if req.Email == nil {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}
	s.updateSupplier(c, req)
}

func (s *Server) PatchSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.updateSupplier(c, req)
}

func (s *Server) updateSupplier(c *gin.Context, req supplierRequest) {
	resp, err := s.supplierSvc.Update(c.Request.Context(), supplierdomain.UpdateSupplierRequest{
		ID:    strings.TrimSpace(c.Param("id")),
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "supplier.update", auditdomain.TargetSupplier, resp.ID.String(), map[string]any{
		"name":  resp.Name,
		"email": resp.Email,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSupplier(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.supplierSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "supplier.delete", auditdomain.TargetSupplier, id, nil)

	c.Status(http.StatusNoContent)
}

func valueOf[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
