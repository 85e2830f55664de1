package service

import "github.com/noah-isme/neolms-api/internal/models"

// EnrollmentEvent drives the enrollment state machine.
type EnrollmentEvent string

const (
	// EventCheckoutStarted creates or refreshes a Pending enrollment.
	EventCheckoutStarted EnrollmentEvent = "checkout_started"
	// EventPaymentCompleted confirms payment for a checkout.
	EventPaymentCompleted EnrollmentEvent = "payment_completed"
	// EventPaymentExpired abandons an unpaid checkout.
	EventPaymentExpired EnrollmentEvent = "payment_expired"
	// EventCheckoutAborted cancels a checkout the provider never opened.
	EventCheckoutAborted EnrollmentEvent = "checkout_aborted"
)

// EnrollmentState is the stored status and amount of one (user, course) pair.
// Exists is false before the first checkout.
type EnrollmentState struct {
	Exists bool
	Status models.EnrollmentStatus
	Amount int64
}

// TransitionEnrollment returns the next state and whether anything changed.
// Amount is the course price for EventCheckoutStarted and the provider total
// for EventPaymentCompleted; nil keeps the stored amount.
func TransitionEnrollment(current EnrollmentState, event EnrollmentEvent, amount *int64) (EnrollmentState, bool) {
	switch event {
	case EventCheckoutStarted:
		if current.Exists && current.Status == models.EnrollmentCompleted {
			return current, false
		}
		next := EnrollmentState{Exists: true, Status: models.EnrollmentPending, Amount: current.Amount}
		if amount != nil {
			next.Amount = *amount
		}
		return next, true
	case EventPaymentCompleted:
		if !current.Exists || current.Status == models.EnrollmentCompleted {
			return current, false
		}
		next := current
		next.Status = models.EnrollmentCompleted
		if amount != nil {
			next.Amount = *amount
		}
		return next, true
	case EventPaymentExpired, EventCheckoutAborted:
		if !current.Exists || current.Status != models.EnrollmentPending {
			return current, false
		}
		next := current
		next.Status = models.EnrollmentCancelled
		return next, true
	}
	return current, false
}

func enrollmentState(e *models.Enrollment) EnrollmentState {
	if e == nil {
		return EnrollmentState{}
	}
	return EnrollmentState{Exists: true, Status: e.Status, Amount: e.Amount}
}

// enrollmentMutation adapts the transition to a locked-row update. guard may
// reject the current row before the transition runs.
func enrollmentMutation(event EnrollmentEvent, amount *int64, guard func(*models.Enrollment) error) models.EnrollmentMutation {
	return func(current *models.Enrollment) (*models.Enrollment, error) {
		if guard != nil {
			if err := guard(current); err != nil {
				return nil, err
			}
		}
		next, changed := TransitionEnrollment(enrollmentState(current), event, amount)
		if !changed {
			return nil, nil
		}
		out := &models.Enrollment{}
		if current != nil {
			*out = *current
		}
		out.Status = next.Status
		out.Amount = next.Amount
		return out, nil
	}
}
