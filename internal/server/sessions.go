package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	obscontext "github.com/smallbiznis/invoicer/internal/observability/context"
)

const logoFormField = "logo"

func (s *Server) CreateSession(c *gin.Context) {
	view, err := s.sessions.Create(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": view})
}

func (s *Server) GetSession(c *gin.Context) {
	view, err := s.sessions.Get(c.Request.Context(), sessionIDParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) DeleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Request.Context(), sessionIDParam(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ApplyIntent(c *gin.Context) {
	var intent invoicedomain.Intent
	if err := c.ShouldBindJSON(&intent); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	c.Set(obscontext.KeyIntentKind, string(intent.Kind))

	view, err := s.sessions.Apply(c.Request.Context(), sessionIDParam(c), intent)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

// UploadLogo reads an image from the multipart "logo" field and stores it on
// the invoice as a base64 data URL.
func (s *Server) UploadLogo(c *gin.Context) {
	maxBytes := s.cfg.MaxLogoBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	file, header, err := c.Request.FormFile(logoFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			AbortWithError(c, ErrPayloadTooLarge)
			return
		}
		AbortWithError(c, newValidationError(logoFormField, "required", "logo file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		AbortWithError(c, ErrPayloadTooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		AbortWithError(c, fmt.Errorf("read logo: %w", err))
		return
	}
	if int64(len(data)) > maxBytes {
		AbortWithError(c, ErrPayloadTooLarge)
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		AbortWithError(c, newValidationError(logoFormField, "invalid_content_type", "logo must be an image"))
		return
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	view, err := s.sessions.Apply(c.Request.Context(), sessionIDParam(c), invoicedomain.SetField(invoicedomain.FieldCompanyLogo, dataURL))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func sessionIDParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}
