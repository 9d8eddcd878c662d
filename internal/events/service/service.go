package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/kafka"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListPublished(ctx context.Context, f models.EventFilter) ([]models.Event, int, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error)
	ListPublishedBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
}

type ProgressStore interface {
	Load(ctx context.Context, eventID string) (map[models.WizardStep]bool, time.Time, error)
	Save(ctx context.Context, eventID string, steps map[models.WizardStep]bool, at time.Time) error
	Delete(ctx context.Context, eventID string) error
}

// TierStats answers the ticketing questions the event lifecycle depends on.
type TierStats interface {
	CountTiers(ctx context.Context, eventID string) (int, error)
	HasSales(ctx context.Context, eventID string) (bool, error)
}

type EventService struct {
	DB       DBLayer
	Progress ProgressStore
	Tiers    TierStats
	Kafka    kafka.Publisher
	Clock    clock.Clock
	Logger   *logger.Logger
}

func NewEventService(db DBLayer, progress ProgressStore, tiers TierStats, publisher kafka.Publisher, clk clock.Clock, log *logger.Logger) *EventService {
	return &EventService{DB: db, Progress: progress, Tiers: tiers, Kafka: publisher, Clock: clk, Logger: log}
}

func applyRequest(event *models.Event, req models.EventRequest) {
	event.Title = strings.TrimSpace(req.Title)
	event.Summary = strings.TrimSpace(req.Summary)
	event.Description = req.Description
	event.Category = strings.ToLower(strings.TrimSpace(req.Category))
	event.Venue = models.Venue{
		Name:      req.Venue.Name,
		Address:   req.Venue.Address,
		Latitude:  req.Venue.Latitude,
		Longitude: req.Venue.Longitude,
	}
	event.ImageURL = req.ImageURL
	event.StartsAt = req.StartsAt.UTC()
	event.EndsAt = req.EndsAt.UTC()
	event.Timezone = req.Timezone
	if event.Timezone == "" {
		event.Timezone = "UTC"
	}
}

// CreateEvent stores a draft owned by organizerID and completes the build
// step of the wizard.
func (s *EventService) CreateEvent(ctx context.Context, organizerID string, req models.EventRequest) (*models.Event, error) {
	now := s.Clock.Now()
	event := &models.Event{
		ID:          utils.NewID(),
		OrganizerID: organizerID,
		Status:      models.EventStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyRequest(event, req)

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.Logger.LogEvent("CREATE", event.ID, fmt.Sprintf("draft created by %s", organizerID))

	if err := s.setStep(ctx, event.ID, models.StepBuild, true); err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("failed to record build step for %s: %v", event.ID, err))
	}
	return event, nil
}

// GetOwnedEvent loads an event and checks that userID organizes it.
func (s *EventService) GetOwnedEvent(ctx context.Context, userID, eventID string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != userID {
		return nil, models.ErrNotOrganizer
	}
	return event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, userID, eventID string, req models.EventRequest) (*models.Event, error) {
	event, err := s.GetOwnedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusCancelled {
		return nil, models.ErrEventNotEditable
	}
	if event.Status == models.EventStatusPublished && !req.StartsAt.After(s.Clock.Now()) {
		return nil, models.ErrEventInPast
	}

	applyRequest(event, req)
	event.UpdatedAt = s.Clock.Now()
	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}
	s.Logger.LogEvent("UPDATE", event.ID, "event updated")
	return event, nil
}

// DeleteEvent removes events that never sold or reserved a ticket.
func (s *EventService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	if _, err := s.GetOwnedEvent(ctx, userID, eventID); err != nil {
		return err
	}

	hasSales, err := s.Tiers.HasSales(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to check sales for %s: %w", eventID, err)
	}
	if hasSales {
		return models.ErrEventHasSales
	}

	if err := s.DB.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	if err := s.Progress.Delete(ctx, eventID); err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("failed to clear progress for %s: %v", eventID, err))
	}
	s.Logger.LogEvent("DELETE", eventID, "event deleted")
	return nil
}

// PublishEvent makes a draft visible once the wizard is complete.
func (s *EventService) PublishEvent(ctx context.Context, userID, eventID string) (*models.Event, error) {
	event, err := s.GetOwnedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	switch event.Status {
	case models.EventStatusPublished:
		return event, nil
	case models.EventStatusCancelled:
		return nil, models.ErrEventNotEditable
	}

	steps, _, err := s.Progress.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !steps[models.StepBuild] || !steps[models.StepTickets] {
		return nil, models.ErrWizardIncomplete
	}

	tiers, err := s.Tiers.CountTiers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tiers for %s: %w", eventID, err)
	}
	if tiers == 0 {
		return nil, models.ErrNoTicketTiers
	}

	now := s.Clock.Now()
	if !event.StartsAt.After(now) {
		return nil, models.ErrEventInPast
	}

	event.Status = models.EventStatusPublished
	event.PublishedAt = now
	event.UpdatedAt = now
	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish event %s: %w", eventID, err)
	}
	if err := s.setStep(ctx, eventID, models.StepPublish, true); err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("failed to record publish step for %s: %v", eventID, err))
	}

	s.Logger.LogEvent("PUBLISH", eventID, "event published")
	s.publish(ctx, kafka.TopicEventPublished, event)
	return event, nil
}

// CancelEvent cancels a published event. Refunds are driven by the
// cancellation message.
func (s *EventService) CancelEvent(ctx context.Context, userID, eventID string) (*models.Event, error) {
	event, err := s.GetOwnedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusPublished {
		return nil, models.ErrEventNotPublished
	}

	event.Status = models.EventStatusCancelled
	event.UpdatedAt = s.Clock.Now()
	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to cancel event %s: %w", eventID, err)
	}

	s.Logger.LogEvent("CANCEL", eventID, "event cancelled")
	s.publish(ctx, kafka.TopicEventCancelled, event)
	return event, nil
}

// GetEvent returns an event. Drafts are only visible to their organizer.
func (s *EventService) GetEvent(ctx context.Context, viewerID, eventID string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusDraft && event.OrganizerID != viewerID {
		return nil, models.ErrEventNotFound
	}
	return event, nil
}

// GetPublishedEvent is used by ticketing to make sure an event is on sale.
func (s *EventService) GetPublishedEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusPublished {
		return nil, models.ErrEventNotPublished
	}
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context, f models.EventFilter) (*models.EventPage, error) {
	f.Page, f.Limit = utils.NormalizePage(f.Page, f.Limit)
	events, total, err := s.DB.ListPublished(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return &models.EventPage{Events: events, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *EventService) ListMyEvents(ctx context.Context, organizerID string) ([]models.Event, error) {
	events, err := s.DB.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", organizerID, err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (s *EventService) publish(ctx context.Context, topic string, event *models.Event) {
	msg := models.EventMessage{
		EventID:     event.ID,
		OrganizerID: event.OrganizerID,
		Title:       event.Title,
		Status:      event.Status,
		StartsAt:    event.StartsAt,
		OccurredAt:  s.Clock.Now(),
	}
	if err := s.Kafka.Publish(ctx, topic, event.ID, msg); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Kafka publish error (%s): %v", topic, err))
	}
}
