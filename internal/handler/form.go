package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"sales-deck-generator/internal/logo"
	"sales-deck-generator/internal/middleware"
	"sales-deck-generator/internal/model"
	"sales-deck-generator/internal/service"
	"sales-deck-generator/internal/validator"
)

const (
	sessionCookie     = "deck_session"
	msgUnreadableLogo = "The uploaded file could not be read, please choose it again"
)

type fieldRow struct {
	Key       string
	Label     string
	Value     string
	Error     string
	MaxLength int
	Multiline bool
}

type formPage struct {
	View   model.View
	Fields []fieldRow
}

func newFormPage(v model.View) formPage {
	page := formPage{View: v}
	for _, key := range model.FieldKeys {
		value, _ := v.Fields.Get(key)
		max := validator.MaxLength(key)
		page.Fields = append(page.Fields, fieldRow{
			Key:       key,
			Label:     validator.Label(key),
			Value:     value,
			Error:     v.FieldErrors[key],
			MaxLength: max,
			Multiline: max > 200,
		})
	}
	return page
}

// browserSession finds the cookie's session or starts a new one.
func (h *SalesDeckHandler) browserSession(c *gin.Context) *service.Session {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if s, ok := h.sessions.Get(id, middleware.AnonymousUser); ok {
			return s
		}
	}
	s := h.newSession(middleware.AnonymousUser)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, s.ID, 0, "/", "", false, true)
	return s
}

func (h *SalesDeckHandler) ShowForm(c *gin.Context) {
	s := h.browserSession(c)
	c.HTML(http.StatusOK, "form.html", newFormPage(s.View()))
}

func (h *SalesDeckHandler) SubmitForm(c *gin.Context) {
	s := h.browserSession(c)
	defer c.Redirect(http.StatusSeeOther, "/")

	fields := model.FormFields{}
	for _, key := range model.FieldKeys {
		fields, _ = fields.With(key, c.PostForm(key))
	}
	if _, err := s.SetFields(fields); err != nil {
		// Submitting or completed: the page already shows why.
		return
	}

	header, err := c.FormFile("logo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// No new file: a remove request or an earlier rejection both leave the
		// form without a logo.
		if c.PostForm("removeLogo") != "" || s.View().FileError != "" {
			if _, err := s.RemoveLogo(); err != nil {
				log.Printf("Session %s: failed to remove logo: %v", s.ID, err)
				return
			}
		}
	case err != nil:
		log.Printf("Failed to read logo part: %v", err)
		s.RejectLogo(msgUnreadableLogo)
		return
	default:
		file, err := logo.FromMultipart(header)
		if err != nil {
			log.Printf("Failed to read uploaded logo: %v", err)
			s.RejectLogo(msgUnreadableLogo)
			return
		}
		if _, err := s.AttachLogo(file); err != nil {
			return
		}
	}

	if _, err := s.Start(c.Request.Context()); err != nil {
		log.Printf("Session %s: submit rejected: %v", s.ID, err)
	}
}

func (h *SalesDeckHandler) ResetForm(c *gin.Context) {
	h.browserSession(c).Reset()
	c.Redirect(http.StatusSeeOther, "/")
}

func isCompleted(update string) bool {
	var u struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(update), &u); err != nil {
		return false
	}
	return u.Status == string(model.StateCompleted)
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}
