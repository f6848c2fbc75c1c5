package models

// IntentKind is the discriminator of an assistant decision.
type IntentKind string

const (
	KindConsult       IntentKind = "consult"
	KindBooking       IntentKind = "booking"
	KindNeedsMoreInfo IntentKind = "needs_more_info"
	KindError         IntentKind = "error"
)

// Intent is the structured decision extracted from one assistant reply.
// Exactly one of Consult, Booking, NeedsMoreInfo or ErrorIntent is returned per turn.
type Intent interface {
	Kind() IntentKind
	isIntent()
}

// Consult carries a free-form answer for the user.
type Consult struct {
	Answer string
}

// Booking carries the contact details of a listening session request.
type Booking struct {
	Name    string
	Phone   string
	Date    string
	Comment string
}

// NeedsMoreInfo asks the user the next clarifying question.
type NeedsMoreInfo struct {
	NextQuestion string
}

// ErrorIntent reports that the assistant exchange failed. Reason is for logs only.
type ErrorIntent struct {
	Reason string
}

func (Consult) Kind() IntentKind       { return KindConsult }
func (Booking) Kind() IntentKind       { return KindBooking }
func (NeedsMoreInfo) Kind() IntentKind { return KindNeedsMoreInfo }
func (ErrorIntent) Kind() IntentKind   { return KindError }

func (Consult) isIntent()       {}
func (Booking) isIntent()       {}
func (NeedsMoreInfo) isIntent() {}
func (ErrorIntent) isIntent()   {}
