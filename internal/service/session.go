package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"strings"
	"sync"
	"time"

	"sales-deck-generator/internal/model"
	"sales-deck-generator/internal/validator"
)

var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrNotEditing       = errors.New("the form cannot be edited until it is reset")
	ErrUnknownField     = errors.New("unknown field")
)

// Session owns one user's form. All state lives in a single model.View that
// is replaced on every transition; mu makes the current caller its only
// writer. mu is never held across logo encoding or the network call.
type Session struct {
	ID    string
	Owner string

	client  model.GenerationClient
	encoder model.LogoEncoder
	now     func() time.Time

	mu        sync.Mutex
	view      model.View
	inFlight  bool
	epoch     int
	lastSeen  time.Time
	observers []func(model.View)
}

func NewSession(id, owner string, client model.GenerationClient, encoder model.LogoEncoder) *Session {
	s := &Session{
		ID:      id,
		Owner:   owner,
		client:  client,
		encoder: encoder,
		now:     time.Now,
		view:    emptyView(),
	}
	s.lastSeen = s.now()
	return s
}

func emptyView() model.View {
	return model.View{
		State:       model.StateEditing,
		FieldErrors: model.FieldErrors{},
	}
}

// OnChange registers fn to receive every new view. fn runs while the session
// is locked and must not call back into it.
func (s *Session) OnChange(fn func(model.View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// View returns a copy of the current view.
func (s *Session) View() model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return cloneView(s.view)
}

// LastActive reports when the session was last touched.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Busy reports whether a submission is outstanding.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// SetFields replaces the five text fields, keeping any attached logo.
func (s *Session) SetFields(fields model.FormFields) (model.View, error) {
	return s.edit(func(v model.View) (model.View, error) {
		fields.Logo = v.Fields.Logo
		v.Fields = fields
		return v, nil
	})
}

func (s *Session) SetField(key, value string) (model.View, error) {
	return s.edit(func(v model.View) (model.View, error) {
		fields, ok := v.Fields.With(key, value)
		if !ok {
			return v, fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
		v.Fields = fields
		return v, nil
	})
}

// AttachLogo validates file and stores it. A rejected file leaves no logo
// attached and its message in FileError; the rejection is also returned.
func (s *Session) AttachLogo(file model.LogoFile) (model.View, error) {
	var rejected error
	view, err := s.edit(func(v model.View) (model.View, error) {
		if verr := s.encoder.Validate(file); verr != nil {
			rejected = verr
			v.Fields.Logo = nil
			v.LogoName = ""
			v.FileError = verr.Error()
			return v, nil
		}
		f := file
		v.Fields.Logo = &f
		v.LogoName = file.Name
		v.FileError = ""
		return v, nil
	})
	if err != nil {
		return view, err
	}
	return view, rejected
}

func (s *Session) RemoveLogo() (model.View, error) {
	return s.edit(func(v model.View) (model.View, error) {
		v.Fields.Logo = nil
		v.LogoName = ""
		v.FileError = ""
		return v, nil
	})
}

// RejectLogo drops any attached logo and records reason as the file error,
// for uploads that could not be read at all.
func (s *Session) RejectLogo(reason string) (model.View, error) {
	return s.edit(func(v model.View) (model.View, error) {
		v.Fields.Logo = nil
		v.LogoName = ""
		v.FileError = reason
		return v, nil
	})
}

// Reset clears fields, errors and any result and returns to editing from any
// state. A submission still in flight keeps running but its outcome is
// discarded.
func (s *Session) Reset() model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.commit(emptyView())
	return cloneView(s.view)
}

// Submit runs a full submission and returns the resulting view: completed on
// success, editing with errors otherwise.
func (s *Session) Submit(ctx context.Context) (model.View, error) {
	req, view, epoch, ok, err := s.prepare(ctx)
	if err != nil || !ok {
		return view, err
	}
	return s.complete(ctx, req, epoch), nil
}

// Start validates and encodes synchronously, then finishes the submission in
// the background. The returned view is either submitting or editing with
// errors; observers see the final transition.
func (s *Session) Start(ctx context.Context) (model.View, error) {
	req, view, epoch, ok, err := s.prepare(ctx)
	if err != nil || !ok {
		return view, err
	}
	go s.complete(context.WithoutCancel(ctx), req, epoch)
	return view, nil
}

func (s *Session) prepare(ctx context.Context) (model.GenerationRequest, model.View, int, bool, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		view := cloneView(s.view)
		s.mu.Unlock()
		return model.GenerationRequest{}, view, 0, false, err
	}

	fields := s.view.Fields
	next := s.view
	next.FieldErrors = validator.Validate(fields)
	next.SubmitError = ""
	if len(next.FieldErrors) > 0 || next.FileError != "" {
		s.commit(next)
		view := cloneView(s.view)
		s.mu.Unlock()
		return model.GenerationRequest{}, view, 0, false, nil
	}

	s.inFlight = true
	epoch := s.epoch
	s.commit(next)
	s.mu.Unlock()

	var logoData string
	if fields.Logo != nil {
		encoded, err := s.encoder.Encode(ctx, *fields.Logo)
		if err != nil {
			log.Printf("Session %s: logo encoding failed: %v", s.ID, err)
			view := s.finish(epoch, func(v model.View) model.View {
				v.SubmitError = err.Error()
				return v
			})
			return model.GenerationRequest{}, view, 0, false, nil
		}
		logoData = encoded
	}

	req := buildRequest(fields, logoData)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Reset while encoding.
		s.inFlight = false
		return model.GenerationRequest{}, cloneView(s.view), 0, false, nil
	}
	next = s.view
	next.State = model.StateSubmitting
	s.commit(next)
	return req, cloneView(s.view), epoch, true, nil
}

func (s *Session) complete(ctx context.Context, req model.GenerationRequest, epoch int) model.View {
	res, err := s.client.SubmitGeneration(ctx, req)
	if err == nil && !res.Success {
		err = errors.New("deck generation did not succeed")
	}
	if err != nil {
		log.Printf("Session %s: generation failed: %v", s.ID, err)
		return s.finish(epoch, func(v model.View) model.View {
			v.State = model.StateEditing
			v.SubmitError = err.Error()
			return v
		})
	}

	log.Printf("Session %s: deck %s ready (%d slides)", s.ID, res.FileID, res.SlidesGenerated)
	return s.finish(epoch, func(v model.View) model.View {
		v.State = model.StateCompleted
		v.Result = res
		v.DownloadURL = s.client.DownloadURL(res.FileID)
		return v
	})
}

// finish ends an in-flight submission, applying update only if no Reset
// happened since it began.
func (s *Session) finish(epoch int, update func(model.View) model.View) model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.epoch == epoch {
		s.commit(update(s.view))
	}
	return cloneView(s.view)
}

func (s *Session) edit(update func(model.View) (model.View, error)) (model.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return cloneView(s.view), err
	}
	next, err := update(s.view)
	if err != nil {
		return cloneView(s.view), err
	}
	s.commit(next)
	return cloneView(s.view), nil
}

func (s *Session) editable() error {
	if s.inFlight || s.view.State == model.StateSubmitting {
		return ErrSubmitInProgress
	}
	if s.view.State == model.StateCompleted {
		return ErrNotEditing
	}
	return nil
}

// commit must be called with mu held.
func (s *Session) commit(next model.View) {
	s.view = next
	s.lastSeen = s.now()
	for _, fn := range s.observers {
		fn(cloneView(next))
	}
}

func cloneView(v model.View) model.View {
	v.FieldErrors = maps.Clone(v.FieldErrors)
	if v.FieldErrors == nil {
		v.FieldErrors = model.FieldErrors{}
	}
	return v
}

// buildRequest maps validated fields onto the wire payload, trimmed.
func buildRequest(fields model.FormFields, logoData string) model.GenerationRequest {
	return model.GenerationRequest{
		CompanyName:   strings.TrimSpace(fields.CompanyName),
		Industry:      strings.TrimSpace(fields.Industry),
		BuyerPersona:  strings.TrimSpace(fields.BuyerPersona),
		MainPainPoint: strings.TrimSpace(fields.MainPainPoint),
		UseCase:       strings.TrimSpace(fields.UseCase),
		LogoBase64:    logoData,
	}
}
