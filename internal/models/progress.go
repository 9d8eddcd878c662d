package models

import "time"

type WizardStep string

const (
	StepBuild   WizardStep = "build"
	StepTickets WizardStep = "tickets"
	StepPublish WizardStep = "publish"
)

// WizardSteps lists the event-creation steps in the order they must be
// completed.
var WizardSteps = []WizardStep{StepBuild, StepTickets, StepPublish}

func ParseWizardStep(s string) (WizardStep, error) {
	for _, step := range WizardSteps {
		if string(step) == s {
			return step, nil
		}
	}
	return "", ErrInvalidStep
}

type Progress struct {
	EventID     string              `json:"event_id"`
	Steps       map[WizardStep]bool `json:"steps"`
	CurrentStep WizardStep          `json:"current_step"`
	Percent     int                 `json:"percent"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
