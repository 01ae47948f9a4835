package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/gatepass/internal/credentials"
	"github.com/charlesng35/gatepass/internal/database"
	"github.com/charlesng35/gatepass/internal/models"
	"github.com/charlesng35/gatepass/pkg/logger"
	"github.com/charlesng35/gatepass/pkg/metrics"
)

const maxClientDescriptorLength = 512

// ValidationStatus is the business outcome of a scan.
type ValidationStatus string

const (
	StatusAccepted    ValidationStatus = "accepted"
	StatusAlreadyUsed ValidationStatus = "already_used"
	StatusInvalid     ValidationStatus = "invalid"
)

// ValidationOutcome is returned for every scan attempt. Registrant is set for
// accepted and already-used outcomes; ValidatedAt is the time of the first successful scan.
type ValidationOutcome struct {
	Status           ValidationStatus `json:"status"`
	Registrant       *models.Identity `json:"registrant,omitempty"`
	ValidatedAt      *time.Time       `json:"validated_at,omitempty"`
	ClientDescriptor string           `json:"client_descriptor,omitempty"`
}

// ValidationListener observes every completed validation attempt.
type ValidationListener func(ctx context.Context, outcome ValidationOutcome)

// ValidationService enforces one-time use of credentials.
type ValidationService struct {
	db        *gorm.DB
	timeNow   func() time.Time
	listeners []ValidationListener
	log       *zap.Logger
}

// ValidationOption customises the validation service.
type ValidationOption func(*ValidationService)

// WithValidationClock overrides the clock used for validation timestamps (test helper).
func WithValidationClock(clock func() time.Time) ValidationOption {
	return func(s *ValidationService) {
		if clock != nil {
			s.timeNow = clock
		}
	}
}

// WithValidationListener registers a listener notified after each attempt.
func WithValidationListener(listener ValidationListener) ValidationOption {
	return func(s *ValidationService) {
		if listener != nil {
			s.listeners = append(s.listeners, listener)
		}
	}
}

// NewValidationService constructs a ValidationService.
func NewValidationService(db *gorm.DB, opts ...ValidationOption) (*ValidationService, error) {
	if db == nil {
		return nil, errors.New("validation service: db is required")
	}
	svc := &ValidationService{
		db:      db,
		timeNow: time.Now,
		log:     logger.WithModule("validation"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Validate resolves the presented token and records its first use. Rejections are
// reported through the outcome; only storage faults return an error.
func (s *ValidationService) Validate(ctx context.Context, token, clientDescriptor string) (ValidationOutcome, error) {
	ctx = ensureContext(ctx)

	normalized, ok := credentials.NormalizeToken(token)
	if !ok {
		return s.finish(ctx, ValidationOutcome{Status: StatusInvalid}), nil
	}

	var cred models.Credential
	err := s.db.WithContext(ctx).Where("token = ?", normalized).Take(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.finish(ctx, ValidationOutcome{Status: StatusInvalid}), nil
	}
	if err != nil {
		return s.fail(storageError("lookup credential", err))
	}

	var registrant models.Registrant
	err = s.db.WithContext(ctx).Where("id = ?", cred.RegistrantID).Take(&registrant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.finish(ctx, ValidationOutcome{Status: StatusInvalid}), nil
	}
	if err != nil {
		return s.fail(storageError("load registrant", err))
	}
	identity := registrant.Identity()

	record := models.ValidationRecord{
		RegistrantID:     registrant.ID,
		ValidatedAt:      s.timeNow().UTC(),
		ClientDescriptor: truncateDescriptor(clientDescriptor),
	}

	// The unique index on registrant_id decides the race: exactly one insert lands.
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "registrant_id"}},
			DoNothing: true,
		}).
		Create(&record)
	if res.Error != nil && !database.IsUniqueViolation(res.Error) {
		return s.fail(storageError("record validation", res.Error))
	}
	if res.Error == nil && res.RowsAffected == 1 {
		validatedAt := record.ValidatedAt
		return s.finish(ctx, ValidationOutcome{
			Status:           StatusAccepted,
			Registrant:       &identity,
			ValidatedAt:      &validatedAt,
			ClientDescriptor: record.ClientDescriptor,
		}), nil
	}

	var first models.ValidationRecord
	if err := s.db.WithContext(ctx).Where("registrant_id = ?", registrant.ID).Take(&first).Error; err != nil {
		return s.fail(storageError("load validation record", err))
	}
	validatedAt := first.ValidatedAt.UTC()
	return s.finish(ctx, ValidationOutcome{
		Status:           StatusAlreadyUsed,
		Registrant:       &identity,
		ValidatedAt:      &validatedAt,
		ClientDescriptor: first.ClientDescriptor,
	}), nil
}

func (s *ValidationService) finish(ctx context.Context, outcome ValidationOutcome) ValidationOutcome {
	metrics.ValidationAttempts.WithLabelValues(string(outcome.Status)).Inc()

	fields := []zap.Field{zap.String("outcome", string(outcome.Status))}
	if outcome.Registrant != nil {
		fields = append(fields, zap.String("external_id", outcome.Registrant.ExternalID))
	}
	s.log.Info("credential scanned", fields...)

	for _, listener := range s.listeners {
		listener(ctx, outcome)
	}
	return outcome
}

func (s *ValidationService) fail(err error) (ValidationOutcome, error) {
	metrics.ValidationAttempts.WithLabelValues("error").Inc()
	s.log.Error("credential validation failed", zap.Error(err))
	return ValidationOutcome{}, err
}

func truncateDescriptor(value string) string {
	value = strings.TrimSpace(strings.ToValidUTF8(value, "\uFFFD"))
	if len(value) <= maxClientDescriptorLength {
		return value
	}
	value = value[:maxClientDescriptorLength]
	for !utf8.ValidString(value) {
		value = value[:len(value)-1]
	}
	return value
}
