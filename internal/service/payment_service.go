package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/neolms-api/internal/models"
	"github.com/noah-isme/neolms-api/internal/repository"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/payment"
)

type checkoutCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type checkoutUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, id, customerID string) error
}

type enrollmentWriter interface {
	FindByUserCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	ApplyForUserCourse(ctx context.Context, userID, courseID string, fn models.EnrollmentMutation) (*models.Enrollment, error)
	ApplyByID(ctx context.Context, id string, fn models.EnrollmentMutation) (*models.Enrollment, error)
}

type checkoutGateway interface {
	CustomerExists(ctx context.Context, customerID string) (bool, error)
	CreateCustomer(ctx context.Context, in payment.CustomerInput) (string, error)
	CreateCheckoutSession(ctx context.Context, in payment.CheckoutInput) (payment.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (payment.Event, error)
}

// PaymentConfig configures checkout redirects and session lifetime.
type PaymentConfig struct {
	FrontendURL string
	CheckoutTTL time.Duration
}

var errEnrollmentMismatch = errors.New("enrollment does not match session metadata")

// Webhook processing outcomes, also used as metric labels.
const (
	webhookApplied   = "applied"
	webhookNoop      = "noop"
	webhookDropped   = "dropped"
	webhookFailed    = "failed"
	webhookIgnored   = "ignored"
	checkoutCreated  = "created"
	checkoutEnrolled = "already_enrolled"
	checkoutFailed   = "failed"
)

// PaymentService runs course checkout and applies payment webhooks to enrollments.
type PaymentService struct {
	courses     checkoutCourseReader
	users       checkoutUserStore
	enrollments enrollmentWriter
	gateway     checkoutGateway
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	config      PaymentConfig
	now         func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(courses checkoutCourseReader, users checkoutUserStore, enrollments enrollmentWriter, gateway checkoutGateway, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config PaymentConfig) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CheckoutTTL <= 0 {
		config.CheckoutTTL = 30 * time.Minute
	}
	return &PaymentService{
		courses:     courses,
		users:       users,
		enrollments: enrollments,
		gateway:     gateway,
		metrics:     metrics,
		validator:   defaultValidator(validate),
		logger:      logger,
		config:      config,
		now:         time.Now,
	}
}

// Checkout creates or refreshes a Pending enrollment and opens a checkout
// session for it. A learner who already paid gets AlreadyEnrolled instead.
func (s *PaymentService) Checkout(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid checkout payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.CourseStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "This course is not available for enrollment.")
	}
	if course.StripePriceID == "" {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "This course is not configured for payment.")
	}

	enrolled, err := isEnrolled(ctx, s.enrollments, userID, course.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		s.metrics.RecordCheckout(checkoutEnrolled)
		return &models.CheckoutResult{AlreadyEnrolled: true}, nil
	}

	customerID, err := s.customerFor(ctx, userID)
	if err != nil {
		s.metrics.RecordCheckout(checkoutFailed)
		return nil, err
	}

	price := course.Price
	enrollment, err := s.enrollments.ApplyForUserCourse(ctx, userID, course.ID, enrollmentMutation(EventCheckoutStarted, &price, nil))
	if err != nil {
		s.metrics.RecordCheckout(checkoutFailed)
		if errors.Is(err, repository.ErrParentNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record enrollment")
	}
	if enrollment.Status == models.EnrollmentCompleted {
		s.metrics.RecordCheckout(checkoutEnrolled)
		return &models.CheckoutResult{AlreadyEnrolled: true}, nil
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutInput{
		CustomerID: customerID,
		PriceID:    course.StripePriceID,
		SuccessURL: s.config.FrontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.config.FrontendURL + "/payment/cancel",
		ExpiresAt:  s.now().Add(s.config.CheckoutTTL),
		Metadata: map[string]string{
			payment.MetadataUserID:       userID,
			payment.MetadataCourseID:     course.ID,
			payment.MetadataEnrollmentID: enrollment.ID,
		},
	})
	if err != nil {
		s.metrics.RecordCheckout(checkoutFailed)
		return nil, providerFailure(err)
	}
	if session.URL == "" {
		s.metrics.RecordCheckout(checkoutFailed)
		if _, abortErr := s.enrollments.ApplyByID(ctx, enrollment.ID, enrollmentMutation(EventCheckoutAborted, nil, nil)); abortErr != nil {
			s.logger.Error("failed to cancel enrollment after empty checkout session", zap.String("enrollment_id", enrollment.ID), zap.Error(abortErr))
		}
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "Failed to create checkout session. Please try again.")
	}

	s.metrics.RecordCheckout(checkoutCreated)
	s.logger.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("enrollment_id", enrollment.ID),
		zap.String("user_id", userID),
		zap.String("course_id", course.ID),
	)
	return &models.CheckoutResult{CheckoutURL: session.URL}, nil
}

// customerFor returns the user's live provider customer, creating one when the
// stored reference is missing or deleted.
func (s *PaymentService) customerFor(ctx context.Context, userID string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		exists, err := s.gateway.CustomerExists(ctx, *user.StripeCustomerID)
		if err == nil && exists {
			return *user.StripeCustomerID, nil
		}
		s.logger.Info("stored payment customer unusable, creating a new one",
			zap.String("user_id", userID), zap.String("customer_id", *user.StripeCustomerID), zap.Error(err))
	}

	customerID, err := s.gateway.CreateCustomer(ctx, payment.CustomerInput{UserID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		return "", providerFailure(err)
	}
	if err := s.users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store payment customer")
	}
	return customerID, nil
}

// HandleWebhook verifies and applies a provider event. Only signature problems
// are returned; processing failures are logged and dropped so the provider
// does not retry.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if errors.Is(err, payment.ErrMalformedEvent) {
		s.logger.Error("verified webhook event could not be decoded", zap.String("event_id", event.ID), zap.String("event_type", event.Type), zap.Error(err))
		s.metrics.RecordWebhookEvent(event.Type, webhookDropped)
		return nil
	}
	if err != nil {
		if errors.Is(err, payment.ErrMissingSignature) {
			return appErrors.Clone(appErrors.ErrBadRequest, "Missing Stripe-Signature header")
		}
		s.logger.Warn("webhook signature verification failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "Webhook signature verification failed")
	}

	logger := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type), zap.String("session_id", event.Session.ID))
	var outcome string
	switch event.Type {
	case payment.EventCheckoutCompleted:
		outcome = s.applyCompleted(ctx, logger, event.Session)
	case payment.EventCheckoutExpired:
		outcome = s.applyExpired(ctx, logger, event.Session)
	default:
		outcome = webhookIgnored
		logger.Info("unhandled webhook event type")
	}
	s.metrics.RecordWebhookEvent(event.Type, outcome)
	return nil
}

func (s *PaymentService) applyCompleted(ctx context.Context, logger *zap.Logger, session payment.SessionPayload) string {
	userID := session.Metadata[payment.MetadataUserID]
	courseID := session.Metadata[payment.MetadataCourseID]
	enrollmentID := session.Metadata[payment.MetadataEnrollmentID]
	logger = logger.With(zap.String("enrollment_id", enrollmentID), zap.String("user_id", userID), zap.String("course_id", courseID))
	if userID == "" || courseID == "" || enrollmentID == "" {
		logger.Error("checkout session is missing enrollment metadata")
		return webhookDropped
	}

	guard := func(current *models.Enrollment) error {
		if current.UserID != userID || current.CourseID != courseID {
			return fmt.Errorf("%w: stored user %s course %s", errEnrollmentMismatch, current.UserID, current.CourseID)
		}
		return nil
	}
	return s.apply(ctx, logger, enrollmentID, enrollmentMutation(EventPaymentCompleted, session.AmountTotal, guard), "enrollment completed")
}

func (s *PaymentService) applyExpired(ctx context.Context, logger *zap.Logger, session payment.SessionPayload) string {
	enrollmentID := session.Metadata[payment.MetadataEnrollmentID]
	if enrollmentID == "" {
		logger.Info("expired checkout session has no enrollment id")
		return webhookDropped
	}
	logger = logger.With(zap.String("enrollment_id", enrollmentID))
	return s.apply(ctx, logger, enrollmentID, enrollmentMutation(EventPaymentExpired, nil, nil), "enrollment cancelled after checkout expiry")
}

func (s *PaymentService) apply(ctx context.Context, logger *zap.Logger, enrollmentID string, fn models.EnrollmentMutation, appliedMsg string) string {
	changed := false
	tracked := func(current *models.Enrollment) (*models.Enrollment, error) {
		next, err := fn(current)
		changed = next != nil
		return next, err
	}

	enrollment, err := s.enrollments.ApplyByID(ctx, enrollmentID, tracked)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		logger.Error("enrollment not found for checkout session")
		return webhookDropped
	case errors.Is(err, errEnrollmentMismatch):
		logger.Error("enrollment does not match checkout session", zap.Error(err))
		return webhookDropped
	case err != nil:
		logger.Error("failed to apply webhook to enrollment", zap.Error(err))
		return webhookFailed
	case !changed:
		logger.Info("enrollment already in final state, skipping", zap.String("status", string(enrollment.Status)))
		return webhookNoop
	}
	logger.Info(appliedMsg, zap.String("status", string(enrollment.Status)), zap.Int64("amount", enrollment.Amount))
	return webhookApplied
}

func providerFailure(err error) error {
	var providerErr *payment.ProviderError
	if errors.As(err, &providerErr) {
		return appErrors.Wrap(err, appErrors.ErrPaymentProvider.Code, appErrors.ErrPaymentProvider.Status, appErrors.ErrPaymentProvider.Message+": "+providerErr.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to create checkout session")
}
