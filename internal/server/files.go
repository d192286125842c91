package server

import (
	"github.com/gin-gonic/gin"
	downloaddomain "github.com/metrobox/forestry-pots/internal/download/domain"
)

// @Summary      Download product file
// @Description  Deliver a product asset; pdf and image are watermarked per request
// @Tags         files
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        productId  path  string  true  "Product ID"
// @Param        fileType   path  string  true  "File Type"  Enums(pdf, image, dwg)
// @Success      200  {file}  binary
// @Router       /files/{productId}/{fileType}/download [get]
func (s *Server) DownloadFile(c *gin.Context) {
	claims, ok := s.sessionClaims(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	result, err := s.downloadSvc.Download(c.Request.Context(), downloaddomain.DownloadRequest{
		UserID:    claims.UserID,
		ProductID: c.Param("productId"),
		FileType:  c.Param("fileType"),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.FileAttachment(result.FilePath, result.Filename)
}
