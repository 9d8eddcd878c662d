package events

import (
	"context"
	"fmt"
	"time"

	"ms-campus/internal/models"
)

func buildProgress(eventID string, steps map[models.WizardStep]bool, updated time.Time) *models.Progress {
	p := &models.Progress{
		EventID:     eventID,
		Steps:       make(map[models.WizardStep]bool, len(models.WizardSteps)),
		CurrentStep: models.StepPublish,
		UpdatedAt:   updated,
	}

	done := 0
	current := models.WizardStep("")
	for _, step := range models.WizardSteps {
		p.Steps[step] = steps[step]
		if steps[step] {
			done++
		} else if current == "" {
			current = step
		}
	}
	if current != "" {
		p.CurrentStep = current
	}
	p.Percent = done * 100 / len(models.WizardSteps)
	return p
}

// GetProgress returns the wizard state of an event for its organizer.
func (s *EventService) GetProgress(ctx context.Context, userID, eventID string) (*models.Progress, error) {
	if _, err := s.GetOwnedEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	steps, updated, err := s.Progress.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return buildProgress(eventID, steps, updated), nil
}

// MarkStep completes a wizard step on behalf of the organizer. Steps must be
// completed in order and publish is only reachable through PublishEvent.
func (s *EventService) MarkStep(ctx context.Context, userID, eventID string, step models.WizardStep) (*models.Progress, error) {
	if _, err := s.GetOwnedEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	if step == models.StepPublish {
		return nil, fmt.Errorf("%w: publish the event to complete this step", models.ErrInvalidInput)
	}

	steps, _, err := s.Progress.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for _, prev := range models.WizardSteps {
		if prev == step {
			break
		}
		if !steps[prev] {
			return nil, models.ErrWizardIncomplete
		}
	}

	if step == models.StepTickets {
		n, err := s.Tiers.CountTiers(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, models.ErrNoTicketTiers
		}
	}

	now := s.Clock.Now()
	steps[step] = true
	if err := s.Progress.Save(ctx, eventID, steps, now); err != nil {
		return nil, err
	}
	return buildProgress(eventID, steps, now), nil
}

// SetTicketsStep is called by ticketing when the first tier is created or
// the last one removed.
func (s *EventService) SetTicketsStep(ctx context.Context, eventID string, done bool) error {
	return s.setStep(ctx, eventID, models.StepTickets, done)
}

func (s *EventService) setStep(ctx context.Context, eventID string, step models.WizardStep, done bool) error {
	steps, _, err := s.Progress.Load(ctx, eventID)
	if err != nil {
		return err
	}
	if steps[step] == done {
		return nil
	}
	steps[step] = done
	return s.Progress.Save(ctx, eventID, steps, s.Clock.Now())
}
