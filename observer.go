package magicpages

import (
	"context"
	"fmt"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// EventSource is the CloudEvents source of every event emitted here.
const EventSource = "magicpages"

// Event types emitted during discovery and startup.
const (
	EventTypeDisabled        = "com.magicpages.disabled"
	EventTypeTypeDiscovered  = "com.magicpages.type.discovered"
	EventTypeTypeInitialized = "com.magicpages.type.initialized"
	EventTypeTypeBound       = "com.magicpages.type.bound"
	EventTypeTypeReady       = "com.magicpages.type.ready"
	EventTypeTypeMigrated    = "com.magicpages.type.migrated"
	EventTypeInitialized     = "com.magicpages.initialized"
	EventTypeReady           = "com.magicpages.ready"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// Observer is notified of discovery and startup events.
type Observer interface {
	OnEvent(ctx context.Context, event cloudevents.Event) error
	ObserverID() string
}

// ObserverInfo describes a registered observer.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// FunctionalObserver adapts a function to Observer.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer calling handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{id: id, handler: handler}
}

func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

func (f *FunctionalObserver) ObserverID() string { return f.id }

// NewCloudEvent creates a new CloudEvent with the specified parameters.
func NewCloudEvent(eventType, source string, data interface{}, metadata map[string]interface{}) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	for key, value := range metadata {
		event.SetExtension(key, value)
	}
	return event
}

// generateEventID returns a time-ordered UUIDv7, falling back to v4.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// observers is an ordered observer list. Notification is synchronous and in
// registration order; a failing or panicking observer does not stop the rest.
type observers struct {
	logger Logger

	mu   sync.RWMutex
	regs []*observerRegistration
}

// RegisterObserver adds an observer. With no eventTypes it receives every
// event. Registering the same ID again replaces the earlier registration.
func (o *observers) RegisterObserver(observer Observer, eventTypes ...string) error {
	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}
	reg := &observerRegistration{observer: observer, eventTypes: types, registeredAt: time.Now()}

	o.mu.Lock()
	defer o.mu.Unlock()
	for i, r := range o.regs {
		if r.observer.ObserverID() == observer.ObserverID() {
			o.regs[i] = reg
			return nil
		}
	}
	o.regs = append(o.regs, reg)
	o.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer. Unknown observers are ignored.
func (o *observers) UnregisterObserver(observer Observer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, r := range o.regs {
		if r.observer.ObserverID() == observer.ObserverID() {
			o.regs = append(o.regs[:i], o.regs[i+1:]...)
			o.logger.Debug("Observer unregistered", "observerID", observer.ObserverID())
			break
		}
	}
	return nil
}

// GetObservers lists the registered observers in registration order.
func (o *observers) GetObservers() []ObserverInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]ObserverInfo, 0, len(o.regs))
	for _, r := range o.regs {
		types := make([]string, 0, len(r.eventTypes))
		for t := range r.eventTypes {
			types = append(types, t)
		}
		out = append(out, ObserverInfo{ID: r.observer.ObserverID(), EventTypes: types, RegisteredAt: r.registeredAt})
	}
	return out
}

// NotifyObservers validates event and delivers it to every interested observer.
func (o *observers) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}

	o.mu.RLock()
	regs := make([]*observerRegistration, len(o.regs))
	copy(regs, o.regs)
	o.mu.RUnlock()

	for _, r := range regs {
		if len(r.eventTypes) > 0 && !r.eventTypes[event.Type()] {
			continue
		}
		o.deliver(ctx, r.observer, event)
	}
	return nil
}

func (o *observers) deliver(ctx context.Context, observer Observer, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Observer panicked", "observerID", observer.ObserverID(), "event", event.Type(), "panic", r)
		}
	}()
	if err := observer.OnEvent(ctx, event); err != nil {
		o.logger.Error("Observer error", "observerID", observer.ObserverID(), "event", event.Type(), "error", err)
	}
}

// emit builds and delivers an event, logging delivery failures.
func (o *observers) emit(ctx context.Context, eventType string, data interface{}) {
	event := NewCloudEvent(eventType, EventSource, data, nil)
	if err := o.NotifyObservers(ctx, event); err != nil {
		o.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}
