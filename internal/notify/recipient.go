package notify

import (
	"fmt"
	"sync"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelPush  Channel = "PUSH"
)

// Recipient is a notification target with its channel preferences.
type Recipient struct {
	Name         string
	Email        string
	Phone        string
	PushToken    string
	Channels     []Channel
	HomeLocation *models.Coordinates
}

func (r *Recipient) HasChannel(ch Channel) bool {
	for _, c := range r.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// Registry is the process-wide recipient list. Add and Remove are safe to
// call concurrently with Snapshot reads from in-flight dispatches.
type Registry struct {
	mu         sync.RWMutex
	recipients []Recipient
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a recipient. A recipient without explicit channels
// defaults to email; an existing recipient with the same name is replaced.
func (r *Registry) Add(rec Recipient) error {
	if rec.Name == "" {
		return fmt.Errorf("recipient name is required")
	}
	if len(rec.Channels) == 0 {
		rec.Channels = []Channel{ChannelEmail}
	}
	for _, ch := range rec.Channels {
		switch ch {
		case ChannelEmail, ChannelSMS, ChannelPush:
		default:
			return fmt.Errorf("unknown channel %q for recipient %s", ch, rec.Name)
		}
	}
	if rec.HomeLocation != nil && !rec.HomeLocation.Valid() {
		return fmt.Errorf("home location out of range for recipient %s", rec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.recipients {
		if r.recipients[i].Name == rec.Name {
			r.recipients[i] = rec
			return nil
		}
	}
	r.recipients = append(r.recipients, rec)
	return nil
}

// Remove unregisters a recipient by name. Returns false if no recipient
// with that name exists.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.recipients {
		if r.recipients[i].Name == name {
			r.recipients = append(r.recipients[:i], r.recipients[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current recipient list, so dispatch can
// iterate without holding the lock.
func (r *Registry) Snapshot() []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Recipient, len(r.recipients))
	copy(out, r.recipients)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recipients)
}
