package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary      Login
// @Description  Authenticate with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body loginRequest true "Login Request"
// @Success      200  {object}  identitydomain.Session
// @Router       /auth/login [post]
func (s *Server) Login(c *gin.Context) {
	if !s.loginLimiter.Allow(c.ClientIP()) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.identitySvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session})
}

// @Summary      Current user
// @Description  Return the authenticated user's profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identitydomain.User
// @Router       /auth/me [get]
func (s *Server) Me(c *gin.Context) {
	claims, ok := s.sessionClaims(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.identitySvc.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

type accessRequestBody struct {
	Name        string  `json:"name"`
	CompanyName string  `json:"company_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone"`
	Notes       *string `json:"notes"`
}

// @Summary      Request access
// @Description  Submit a portal access request for review
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body accessRequestBody true "Access Request"
// @Success      200  {object}  identitydomain.AccessRequest
// @Router       /access-requests [post]
func (s *Server) SubmitAccessRequest(c *gin.Context) {
	var req accessRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.identitySvc.SubmitAccessRequest(c.Request.Context(), identitydomain.AccessRequestInput{
		Name:        strings.TrimSpace(req.Name),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Notes:       req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}
