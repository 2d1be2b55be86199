package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"sales-deck-generator/internal/logo"
	"sales-deck-generator/internal/middleware"
	"sales-deck-generator/internal/model"
	"sales-deck-generator/internal/progress"
	"sales-deck-generator/internal/service"
)

// DeckArchiver copies a finished deck somewhere longer lived.
type DeckArchiver interface {
	Archive(ctx context.Context, result *model.GenerationResult, downloadURL string) (string, error)
}

type SalesDeckHandler struct {
	sessions  *service.SessionStore
	progress  *progress.Tracker
	client    model.GenerationClient
	archiver  DeckArchiver
	jwtSecret string
}

// NewSalesDeckHandler wires the handler. archiver may be nil.
func NewSalesDeckHandler(sessions *service.SessionStore, progress *progress.Tracker, client model.GenerationClient, archiver DeckArchiver, jwtSecret string) *SalesDeckHandler {
	return &SalesDeckHandler{
		sessions:  sessions,
		progress:  progress,
		client:    client,
		archiver:  archiver,
		jwtSecret: jwtSecret,
	}
}

// newSession creates a session whose every transition is forwarded to its
// progress channel.
func (h *SalesDeckHandler) newSession(owner string) *service.Session {
	s := h.sessions.Create(owner)
	h.progress.CreateChannel(s.ID, owner)
	id := s.ID
	s.OnChange(func(v model.View) {
		// Dropped updates are fine; listeners resync from the session on connect.
		_ = h.progress.SendUpdate(id, progress.FromView(v))
	})
	return s
}

// Evict releases what the handler holds for a session removed from the store.
func (h *SalesDeckHandler) Evict(id string) {
	h.progress.CloseChannel(id)
}

func (h *SalesDeckHandler) lookup(c *gin.Context) (*service.Session, bool) {
	s, ok := h.sessions.Get(c.Param("sessionId"), middleware.UserID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return s, true
}

func (h *SalesDeckHandler) CreateSession(c *gin.Context) {
	s := h.newSession(middleware.UserID(c))
	c.JSON(http.StatusCreated, gin.H{
		"sessionId": s.ID,
		"view":      s.View(),
	})
}

func (h *SalesDeckHandler) GetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *SalesDeckHandler) UpdateFields(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var fields model.FormFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := s.SetFields(fields)
	if err != nil {
		respondStateError(c, err, view)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SalesDeckHandler) UploadLogo(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	header, err := c.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	file, err := logo.FromMultipart(header)
	if err != nil {
		log.Printf("Failed to read uploaded logo: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	view, err := s.AttachLogo(file)
	var verr *logo.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Message, "view": view})
	case err != nil:
		respondStateError(c, err, view)
	default:
		c.JSON(http.StatusOK, view)
	}
}

func (h *SalesDeckHandler) DeleteLogo(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	view, err := s.RemoveLogo()
	if err != nil {
		respondStateError(c, err, view)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Submit starts generation and answers before the service does. Follow the
// outcome on /api/progress/:sessionId or by polling the session.
func (h *SalesDeckHandler) Submit(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	view, err := s.Start(c.Request.Context())
	if err != nil {
		respondStateError(c, err, view)
		return
	}
	if view.State != model.StateSubmitting {
		c.JSON(http.StatusUnprocessableEntity, view)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

func (h *SalesDeckHandler) Reset(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Reset())
}

func (h *SalesDeckHandler) Archive(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if h.archiver == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Deck archiving is not configured"})
		return
	}

	view := s.View()
	if view.State != model.StateCompleted || view.Result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "No completed deck to archive"})
		return
	}

	url, err := h.archiver.Archive(c.Request.Context(), view.Result, view.DownloadURL)
	if err != nil {
		log.Printf("Archive failed for session %s: %v", s.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *SalesDeckHandler) Health(c *gin.Context) {
	status, err := h.client.CheckLiveness(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetProgress streams the session's updates as server-sent events, starting
// with its current state and ending once a deck is ready. Browsers cannot set
// headers on an EventSource, so the token comes from the query string.
func (h *SalesDeckHandler) GetProgress(c *gin.Context) {
	sessionID := c.Param("sessionId")

	userID := middleware.AnonymousUser
	if h.jwtSecret != "" {
		var err error
		userID, err = middleware.ValidateToken(h.jwtSecret, c.Query("token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
	}

	s, ok := h.sessions.Get(sessionID, userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No progress found for this session"})
		return
	}
	ch, ok := h.progress.GetChannel(sessionID, userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No progress found for this session"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	h.progress.Drain(sessionID)
	current := progress.FromView(s.View())
	c.SSEvent("message", current)
	c.Writer.Flush()
	if current.Status == string(model.StateCompleted) {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case update, open := <-ch:
			if !open {
				return
			}
			c.SSEvent("message", update)
			c.Writer.Flush()
			if isCompleted(update) {
				return
			}
		}
	}
}

func respondStateError(c *gin.Context, err error, view model.View) {
	switch {
	case errors.Is(err, service.ErrSubmitInProgress), errors.Is(err, service.ErrNotEditing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "view": view})
	case errors.Is(err, service.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
