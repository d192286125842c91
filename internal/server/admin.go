package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	downloaddomain "github.com/metrobox/forestry-pots/internal/download/domain"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	refdatadomain "github.com/metrobox/forestry-pots/internal/refdata/domain"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
)

// @Summary      List users
// @Description  List portal users with search and pagination
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        search  query  string  false  "Search"
// @Param        page    query  int     false  "Page"
// @Param        limit   query  int     false  "Limit"
// @Success      200  {object}  []identitydomain.User
// @Router       /admin/users [get]
func (s *Server) ListUsers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Search string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	users, page, err := s.identitySvc.ListUsers(c.Request.Context(), identitydomain.ListUsersRequest{
		Pagination: query.Pagination,
		Search:     query.Search,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "pagination": page})
}

type createUserRequest struct {
	Name     string `json:"name"`
	Company  string `json:"company"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// @Summary      Create user
// @Description  Create a portal user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createUserRequest true "Create User Request"
// @Success      200  {object}  identitydomain.User
// @Router       /admin/users [post]
func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.identitySvc.CreateUser(c.Request.Context(), identitydomain.CreateUserRequest{
		Name:     req.Name,
		Company:  req.Company,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

type updateUserRequest struct {
	Name         *string `json:"name"`
	Company      *string `json:"company"`
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	Role         *string `json:"role"`
	ProfilePhoto *string `json:"profile_photo"`
}

// @Summary      Update user
// @Description  Update fields of a portal user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string  true  "User ID"
// @Param        request body updateUserRequest true "Update User Request"
// @Success      200  {object}  identitydomain.User
// @Router       /admin/users/{userId} [put]
func (s *Server) UpdateUser(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("userId"))
	if err != nil {
		AbortWithError(c, identitydomain.ErrNotFound)
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.identitySvc.UpdateUser(c.Request.Context(), identitydomain.UpdateUserRequest{
		ID:           id,
		Name:         req.Name,
		Company:      req.Company,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		ProfilePhoto: req.ProfilePhoto,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// @Summary      Delete user
// @Description  Delete a portal user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path  string  true  "User ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/users/{userId} [delete]
func (s *Server) DeleteUser(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("userId"))
	if err != nil {
		AbortWithError(c, identitydomain.ErrNotFound)
		return
	}

	if err := s.identitySvc.DeleteUser(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      List access requests
// @Description  List portal access requests, optionally by status
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Status"
// @Success      200  {object}  []identitydomain.AccessRequest
// @Router       /admin/access-requests [get]
func (s *Server) ListAccessRequests(c *gin.Context) {
	requests, err := s.identitySvc.ListAccessRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

// @Summary      Approve access request
// @Description  Approve a pending access request and create the user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        requestId  path  string  true  "Request ID"
// @Success      200  {object}  identitydomain.User
// @Router       /admin/access-requests/{requestId}/approve [post]
func (s *Server) ApproveAccessRequest(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("requestId"))
	if err != nil {
		AbortWithError(c, identitydomain.ErrNotFound)
		return
	}

	user, err := s.identitySvc.ApproveAccessRequest(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// @Summary      Reject access request
// @Description  Reject a pending access request
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        requestId  path  string  true  "Request ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/access-requests/{requestId}/reject [post]
func (s *Server) RejectAccessRequest(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("requestId"))
	if err != nil {
		AbortWithError(c, identitydomain.ErrNotFound)
		return
	}

	if err := s.identitySvc.RejectAccessRequest(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      List reference options
// @Description  List reference options of one kind
// @Tags         reference
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string  true  "Kind"  Enums(dimension_type, finish_type)
// @Success      200  {object}  []refdatadomain.ReferenceOption
// @Router       /reference/{kind} [get]
func (s *Server) ListReferenceOptions(c *gin.Context) {
	options, err := s.refdataSvc.List(c.Request.Context(), c.Param("kind"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": options})
}

type addReferenceOptionRequest struct {
	Value string `json:"value"`
}

// @Summary      Add reference option
// @Description  Add a value to a reference option list
// @Tags         reference
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string  true  "Kind"
// @Param        request body addReferenceOptionRequest true "Value"
// @Success      200  {object}  refdatadomain.ReferenceOption
// @Router       /admin/reference/{kind} [post]
func (s *Server) AddReferenceOption(c *gin.Context) {
	var req addReferenceOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	option, err := s.refdataSvc.Add(c.Request.Context(), c.Param("kind"), req.Value)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": option})
}

// @Summary      Remove reference option
// @Description  Remove a reference option by id
// @Tags         reference
// @Produce      json
// @Security     BearerAuth
// @Param        optionId  path  string  true  "Option ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/reference/options/{optionId} [delete]
func (s *Server) RemoveReferenceOption(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("optionId"))
	if err != nil {
		AbortWithError(c, refdatadomain.ErrNotFound)
		return
	}

	if err := s.refdataSvc.Remove(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Get watermark record
// @Description  Fetch one watermark record for leak tracing
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        watermarkId  path  string  true  "Watermark ID"
// @Success      200  {object}  downloaddomain.Watermark
// @Router       /admin/watermarks/{watermarkId} [get]
func (s *Server) GetWatermark(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("watermarkId"))
	if err != nil {
		AbortWithError(c, downloaddomain.ErrWatermarkNotFound)
		return
	}

	record, err := s.downloadSvc.GetWatermark(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

// @Summary      List access logs
// @Description  Browse the file access ledger with filters
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        user_id     query  string  false  "User ID"
// @Param        product_id  query  string  false  "Product ID"
// @Param        file_type   query  string  false  "File Type"
// @Param        result      query  string  false  "Result"
// @Param        from        query  string  false  "From (RFC3339)"
// @Param        to          query  string  false  "To (RFC3339)"
// @Param        page        query  int     false  "Page"
// @Param        limit       query  int     false  "Limit"
// @Success      200  {object}  []downloaddomain.FileAccessLog
// @Router       /admin/access-logs [get]
func (s *Server) ListAccessLogs(c *gin.Context) {
	var query struct {
		pagination.Pagination
		UserID    string `form:"user_id"`
		ProductID string `form:"product_id"`
		FileType  string `form:"file_type"`
		Result    string `form:"result"`
		From      string `form:"from"`
		To        string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := downloaddomain.ListAccessLogsRequest{
		Pagination: query.Pagination,
		FileType:   query.FileType,
		Result:     query.Result,
	}
	if query.UserID != "" {
		id, err := snowflake.ParseString(query.UserID)
		if err != nil {
			AbortWithError(c, newValidationError("user_id", "invalid_id", "user_id must be a valid id"))
			return
		}
		req.UserID = &id
	}
	if query.ProductID != "" {
		id, err := snowflake.ParseString(query.ProductID)
		if err != nil {
			AbortWithError(c, newValidationError("product_id", "invalid_id", "product_id must be a valid id"))
			return
		}
		req.ProductID = &id
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			AbortWithError(c, newValidationError("from", "invalid_timestamp", "from must be RFC3339"))
			return
		}
		req.From = &from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			AbortWithError(c, newValidationError("to", "invalid_timestamp", "to must be RFC3339"))
			return
		}
		req.To = &to
	}

	entries, page, err := s.downloadSvc.ListAccessLogs(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "pagination": page})
}
