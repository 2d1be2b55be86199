package progress

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"sales-deck-generator/internal/model"
)

// Tracker holds one buffered channel of JSON updates per form session.
type Tracker struct {
	channels map[string]chan string
	owners   map[string]string
	mu       sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{
		channels: make(map[string]chan string),
		owners:   make(map[string]string),
	}
}

func (t *Tracker) CreateChannel(id string, userID string) chan string {
	t.mu.Lock()
	defer t.mu.Unlock()

	log.Printf("Creating progress channel for session %s, user %s", id, userID)
	ch := make(chan string, 10)
	t.channels[id] = ch
	t.owners[id] = userID
	return ch
}

func (t *Tracker) GetChannel(id string, userID string) (chan string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ch, exists := t.channels[id]
	if !exists {
		log.Printf("Progress channel not found for session %s", id)
		return nil, false
	}

	owner, ownerExists := t.owners[id]
	if !ownerExists || owner != userID {
		log.Printf("Owner mismatch: expected %s, got %s", owner, userID)
		return nil, false
	}

	return ch, true
}

// Drain discards updates queued while nobody was listening and returns how
// many were dropped. A new listener drains before reading the session's
// current state so it never replays an older one.
func (t *Tracker) Drain(id string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ch, exists := t.channels[id]
	if !exists {
		return 0
	}
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

func (t *Tracker) CloseChannel(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch, exists := t.channels[id]; exists {
		log.Printf("close progress channel %s", id)
		close(ch)
		delete(t.channels, id)
		delete(t.owners, id)
	}
}

type ProgressUpdate struct {
	Status          string            `json:"status"`
	Message         string            `json:"message"`
	FieldErrors     map[string]string `json:"fieldErrors,omitempty"`
	DownloadUrl     string            `json:"downloadUrl,omitempty"`
	Filename        string            `json:"filename,omitempty"`
	SlidesGenerated int               `json:"slidesGenerated,omitempty"`
}

// FromView summarizes a session view for progress listeners.
func FromView(v model.View) ProgressUpdate {
	update := ProgressUpdate{Status: string(v.State)}
	switch {
	case v.State == model.StateSubmitting:
		update.Message = "Generating your sales deck..."
	case v.State == model.StateCompleted && v.Result != nil:
		update.Message = "Sales deck ready"
		update.DownloadUrl = v.DownloadURL
		update.Filename = v.Result.Filename
		update.SlidesGenerated = v.Result.SlidesGenerated
	case v.SubmitError != "":
		update.Message = v.SubmitError
	case v.FileError != "":
		update.Message = v.FileError
	case len(v.FieldErrors) > 0:
		update.Message = "Please fix the highlighted fields"
		update.FieldErrors = v.FieldErrors
	}
	return update
}

// SendUpdate queues an update without blocking. When nobody is draining the
// channel and its buffer is full the update is dropped.
func (t *Tracker) SendUpdate(id string, update ProgressUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	ch, exists := t.channels[id]
	if !exists {
		return fmt.Errorf("no progress channel found for ID: %s", id)
	}

	select {
	case ch <- string(data):
		return nil
	default:
		return fmt.Errorf("progress channel for %s is full", id)
	}
}
