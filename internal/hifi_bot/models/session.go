package models

// WizardStep is the position of a chat in the step-by-step onboarding.
type WizardStep string

const (
	StepIdle            WizardStep = ""
	StepAwaitingMode    WizardStep = "awaiting_mode"
	StepAwaitingName    WizardStep = "awaiting_name"
	StepAwaitingPhone   WizardStep = "awaiting_phone"
	StepAwaitingDate    WizardStep = "awaiting_date"
	StepAwaitingComment WizardStep = "awaiting_comment"
	StepFreeText        WizardStep = "free_text"
)

// Keys of Session.Collected.
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldDate    = "date"
	FieldComment = "comment"
)

// Session is the per-conversation state kept between turns.
type Session struct {
	Token     string            `json:"token,omitempty"`     // Continuation token of the assistant thread, opaque
	Step      WizardStep        `json:"step,omitempty"`      // Текущий шаг онбординга в чате
	Collected map[string]string `json:"collected,omitempty"` // Поля, собранные мастером записи
}

// Clone returns a deep copy so callers never share the Collected map.
func (s Session) Clone() Session {
	out := Session{Token: s.Token, Step: s.Step}
	if s.Collected != nil {
		out.Collected = make(map[string]string, len(s.Collected))
		for k, v := range s.Collected {
			out.Collected[k] = v
		}
	}
	return out
}

// Collect stores one wizard answer.
func (s *Session) Collect(field, value string) {
	if s.Collected == nil {
		s.Collected = make(map[string]string, 4)
	}
	s.Collected[field] = value
}

// ResetWizard drops the onboarding progress but keeps the assistant thread.
func (s *Session) ResetWizard() {
	s.Step = StepIdle
	s.Collected = nil
}
