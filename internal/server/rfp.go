package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	rfpdomain "github.com/metrobox/forestry-pots/internal/rfp/domain"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
)

type createRfpRequest struct {
	Message    *string  `json:"message"`
	ProductIDs []string `json:"product_ids"`
}

// @Summary      Create RFP
// @Description  Submit a request for proposal for one or more products
// @Tags         rfps
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createRfpRequest true "Create RFP Request"
// @Success      200  {object}  rfpdomain.Rfp
// @Router       /rfps [post]
func (s *Server) CreateRfp(c *gin.Context) {
	claims, ok := s.sessionClaims(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createRfpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	productIDs := make([]snowflake.ID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, rfpdomain.ErrUnknownProduct)
			return
		}
		productIDs = append(productIDs, id)
	}

	rfp, err := s.rfpSvc.Create(c.Request.Context(), rfpdomain.CreateRequest{
		UserID:     claims.UserID,
		Message:    req.Message,
		ProductIDs: productIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rfp})
}

// @Summary      List RFPs
// @Description  List the caller's RFPs; administrators see all
// @Tags         rfps
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Status"
// @Param        page    query  int     false  "Page"
// @Param        limit   query  int     false  "Limit"
// @Success      200  {object}  rfpdomain.ListResponse
// @Router       /rfps [get]
func (s *Server) ListRfps(c *gin.Context) {
	claims, ok := s.sessionClaims(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query struct {
		pagination.Pagination
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := rfpdomain.ListRequest{
		Pagination: query.Pagination,
		Status:     query.Status,
	}
	if claims.Role != identitydomain.RoleAdmin {
		req.UserID = claims.UserID
	}

	resp, err := s.rfpSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get RFP
// @Description  Fetch one RFP; non-admins may only read their own
// @Tags         rfps
// @Produce      json
// @Security     BearerAuth
// @Param        rfpId  path  string  true  "RFP ID"
// @Success      200  {object}  rfpdomain.Rfp
// @Router       /rfps/{rfpId} [get]
func (s *Server) GetRfp(c *gin.Context) {
	claims, ok := s.sessionClaims(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(c.Param("rfpId"))
	if err != nil {
		AbortWithError(c, rfpdomain.ErrNotFound)
		return
	}

	rfp, err := s.rfpSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if claims.Role != identitydomain.RoleAdmin && rfp.UserID != claims.UserID {
		// Hide other users' RFPs entirely rather than acknowledging them.
		AbortWithError(c, rfpdomain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rfp})
}

type updateRfpStatusRequest struct {
	Status string `json:"status"`
}

// @Summary      Update RFP status
// @Description  Move an RFP through its lifecycle
// @Tags         rfps
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        rfpId  path  string  true  "RFP ID"
// @Param        request body updateRfpStatusRequest true "Status"
// @Success      200  {object}  rfpdomain.Rfp
// @Router       /admin/rfps/{rfpId}/status [put]
func (s *Server) UpdateRfpStatus(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("rfpId"))
	if err != nil {
		AbortWithError(c, rfpdomain.ErrNotFound)
		return
	}

	var req updateRfpStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rfp, err := s.rfpSvc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rfp})
}
