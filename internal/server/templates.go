package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	obscontext "github.com/smallbiznis/invoicer/internal/observability/context"
)

type saveTemplateRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) ListTemplates(c *gin.Context) {
	names, err := s.templates.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": names})
}

// SaveTemplate stores the current snapshot of a session under a name,
// replacing any template with the same name.
func (s *Server) SaveTemplate(c *gin.Context) {
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		AbortWithError(c, newValidationError("sessionId", "required", "sessionId is required"))
		return
	}

	ctx := c.Request.Context()
	inv, err := s.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	name := c.Param("name")
	if err := s.templates.Save(ctx, name, inv); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"name": strings.TrimSpace(name)}})
}

// LoadTemplate replaces the session invoice with a stored template. The
// snapshot goes through the engine so derived fields are recomputed.
func (s *Server) LoadTemplate(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := sessionIDParam(c)

	// Fail on an unknown session before touching the store.
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		AbortWithError(c, err)
		return
	}

	inv, err := s.templates.Load(ctx, c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(obscontext.KeyIntentKind, string(invoicedomain.IntentLoadSnapshot))
	view, err := s.sessions.Apply(ctx, sessionID, invoicedomain.LoadSnapshot(inv))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}
