package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/gatepass/internal/credentials"
	"github.com/charlesng35/gatepass/internal/database"
	"github.com/charlesng35/gatepass/internal/models"
	"github.com/charlesng35/gatepass/internal/storage"
	apperrors "github.com/charlesng35/gatepass/pkg/errors"
	"github.com/charlesng35/gatepass/pkg/logger"
	"github.com/charlesng35/gatepass/pkg/metrics"
)

// issueAttempts bounds token derivation: the first attempt plus one retry on collision.
const issueAttempts = 2

// IssueFailure records a registrant whose issuance attempt failed.
type IssueFailure struct {
	ExternalID string `json:"external_id"`
	Error      string `json:"error"`
}

// IssueReport summarises a batch issuance run.
type IssueReport struct {
	Generated int            `json:"generated_count"`
	Skipped   int            `json:"skipped_count"`
	Failures  []IssueFailure `json:"failures,omitempty"`
}

// CredentialService issues credentials and persists their QR images.
type CredentialService struct {
	db        *gorm.DB
	generator *credentials.Generator
	images    storage.ImageStore
	timeNow   func() time.Time
	log       *zap.Logger
}

// CredentialOption customises the credential service.
type CredentialOption func(*CredentialService)

// WithCredentialClock overrides the issuance clock (test helper).
func WithCredentialClock(clock func() time.Time) CredentialOption {
	return func(s *CredentialService) {
		if clock != nil {
			s.timeNow = clock
		}
	}
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(db *gorm.DB, generator *credentials.Generator, images storage.ImageStore, opts ...CredentialOption) (*CredentialService, error) {
	if db == nil {
		return nil, errors.New("credential service: db is required")
	}
	if generator == nil {
		return nil, errors.New("credential service: generator is required")
	}
	if images == nil {
		return nil, errors.New("credential service: image store is required")
	}

	svc := &CredentialService{
		db:        db,
		generator: generator,
		images:    images,
		timeNow:   time.Now,
		log:       logger.WithModule("credentials"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue creates a credential for the registrant unless one already exists. The boolean
// reports whether a new credential was created; an existing credential is returned as-is.
func (s *CredentialService) Issue(ctx context.Context, registrant *models.Registrant) (*models.Credential, bool, error) {
	ctx = ensureContext(ctx)
	if registrant == nil || strings.TrimSpace(registrant.ID) == "" {
		return nil, false, apperrors.NewBadRequest("registrant is required")
	}

	existing, err := s.findCredential(ctx, s.db, registrant.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	var last time.Time
	for attempt := 0; attempt < issueAttempts; attempt++ {
		issuedAt := s.issueTime(last)
		last = issuedAt

		cred, err := s.persistMinted(ctx, registrant, issuedAt)
		if err != nil {
			metrics.IssuanceFailures.WithLabelValues("storage").Inc()
			return nil, false, err
		}

		created, err := s.insertCredential(ctx, cred)
		if err != nil {
			s.discardImage(ctx, cred.ImageKey)
			metrics.IssuanceFailures.WithLabelValues("storage").Inc()
			return nil, false, storageError("insert credential", err)
		}
		if created {
			metrics.CredentialsIssued.WithLabelValues("issued").Inc()
			return cred, true, nil
		}

		// Either a concurrent issuer won for this registrant or the token collided.
		winner, err := s.findCredential(ctx, s.db, registrant.ID)
		if err != nil {
			s.discardImage(ctx, cred.ImageKey)
			return nil, false, err
		}
		if winner != nil {
			if winner.ImageKey != cred.ImageKey {
				s.discardImage(ctx, cred.ImageKey)
			}
			return winner, false, nil
		}

		s.discardImage(ctx, cred.ImageKey)
		s.log.Warn("credential token collision",
			zap.String("external_id", registrant.ExternalID),
			zap.Int("attempt", attempt+1),
		)
	}

	metrics.IssuanceFailures.WithLabelValues("duplicate_token").Inc()
	return nil, false, ErrDuplicateToken.WithInternal(fmt.Errorf("registrant %s", registrant.ExternalID))
}

// IssueAll issues credentials to every registrant lacking one, ordered by external id.
// Per-registrant failures are collected in the report and aggregated into the returned error.
func (s *CredentialService) IssueAll(ctx context.Context) (IssueReport, error) {
	ctx = ensureContext(ctx)

	var pending []models.Registrant
	err := s.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM credentials WHERE credentials.registrant_id = registrants.id)").
		Order("external_id ASC").
		Find(&pending).Error
	if err != nil {
		return IssueReport{}, storageError("list registrants without credential", err)
	}

	var (
		report IssueReport
		errs   error
	)
	for i := range pending {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		registrant := &pending[i]
		_, issued, err := s.Issue(ctx, registrant)
		if err != nil {
			report.Failures = append(report.Failures, IssueFailure{
				ExternalID: registrant.ExternalID,
				Error:      apperrors.FromError(err).Message,
			})
			errs = multierr.Append(errs, fmt.Errorf("issue %s: %w", registrant.ExternalID, err))
			s.log.Error("credential issuance failed",
				zap.String("external_id", registrant.ExternalID),
				zap.Error(err),
			)
			continue
		}
		if issued {
			report.Generated++
		} else {
			report.Skipped++
		}
	}

	if report.Generated > 0 || len(report.Failures) > 0 {
		s.log.Info("credential batch issued",
			zap.Int("generated", report.Generated),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", len(report.Failures)),
		)
	}

	return report, errs
}

// Reissue rotates the credential of a registrant who has not been validated yet.
// The previous token stops resolving once the new credential is committed.
func (s *CredentialService) Reissue(ctx context.Context, externalID string) (*models.Credential, error) {
	ctx = ensureContext(ctx)

	registrant, err := s.loadRegistrant(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if registrant.Validation != nil {
		return nil, ErrAlreadyValidated
	}

	var (
		previous = registrant.Credential
		last     time.Time
	)
	if previous != nil {
		last = previous.IssuedAt
	}

	for attempt := 0; attempt < issueAttempts; attempt++ {
		issuedAt := s.issueTime(last)
		last = issuedAt

		cred, err := s.persistMinted(ctx, registrant, issuedAt)
		if err != nil {
			metrics.IssuanceFailures.WithLabelValues("storage").Inc()
			return nil, err
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var validated int64
			if err := tx.Model(&models.ValidationRecord{}).Where("registrant_id = ?", registrant.ID).Count(&validated).Error; err != nil {
				return err
			}
			if validated > 0 {
				return ErrAlreadyValidated
			}
			if err := tx.Where("registrant_id = ?", registrant.ID).Delete(&models.Credential{}).Error; err != nil {
				return err
			}
			return tx.Create(cred).Error
		})

		switch {
		case err == nil:
			if previous != nil && previous.ImageKey != cred.ImageKey {
				s.discardImage(ctx, previous.ImageKey)
			}
			metrics.CredentialsIssued.WithLabelValues("reissued").Inc()
			s.log.Info("credential reissued", zap.String("external_id", registrant.ExternalID))
			return cred, nil
		case errors.Is(err, ErrAlreadyValidated):
			s.discardImage(ctx, cred.ImageKey)
			return nil, err
		case database.IsUniqueViolation(err):
			s.discardImage(ctx, cred.ImageKey)
			s.log.Warn("credential token collision",
				zap.String("external_id", registrant.ExternalID),
				zap.Int("attempt", attempt+1),
			)
		default:
			s.discardImage(ctx, cred.ImageKey)
			metrics.IssuanceFailures.WithLabelValues("storage").Inc()
			return nil, storageError("replace credential", err)
		}
	}

	metrics.IssuanceFailures.WithLabelValues("duplicate_token").Inc()
	return nil, ErrDuplicateToken.WithInternal(fmt.Errorf("registrant %s", registrant.ExternalID))
}

// Image returns the stored QR image of a registrant's credential.
func (s *CredentialService) Image(ctx context.Context, externalID string) ([]byte, *models.Credential, error) {
	ctx = ensureContext(ctx)

	registrant, err := s.loadRegistrant(ctx, externalID)
	if err != nil {
		return nil, nil, err
	}
	if registrant.Credential == nil {
		return nil, nil, ErrCredentialNotFound
	}

	data, err := s.images.Get(ctx, registrant.Credential.ImageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrCredentialNotFound.WithMessage("Credential image not found")
		}
		return nil, nil, storageError("read credential image", err)
	}
	return data, registrant.Credential, nil
}

// persistMinted derives a credential and writes its image before any row exists.
func (s *CredentialService) persistMinted(ctx context.Context, registrant *models.Registrant, issuedAt time.Time) (*models.Credential, error) {
	minted, err := s.generator.Mint(registrant.ExternalID, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("credential service: %w", err)
	}

	if err := s.images.Put(ctx, minted.ImageKey, minted.Image, credentials.ContentTypePNG); err != nil {
		return nil, storageError("write credential image", err)
	}

	return &models.Credential{
		RegistrantID:  registrant.ID,
		Token:         minted.Token,
		ImageKey:      minted.ImageKey,
		ValidationURL: minted.ValidationURL,
		IssuedAt:      minted.IssuedAt,
	}, nil
}

// insertCredential inserts cred unless the registrant already holds one. It reports
// false without error when the insert was skipped by a unique constraint.
func (s *CredentialService) insertCredential(ctx context.Context, cred *models.Credential) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "registrant_id"}},
			DoNothing: true,
		}).
		Create(cred)
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *CredentialService) findCredential(ctx context.Context, db *gorm.DB, registrantID string) (*models.Credential, error) {
	var cred models.Credential
	err := db.WithContext(ctx).Where("registrant_id = ?", registrantID).Take(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("find credential", err)
	}
	return &cred, nil
}

func (s *CredentialService) loadRegistrant(ctx context.Context, externalID string) (*models.Registrant, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apperrors.NewBadRequest("external id is required")
	}

	var registrant models.Registrant
	err := s.db.WithContext(ctx).
		Preload("Credential").
		Preload("Validation").
		Where("external_id = ?", externalID).
		Take(&registrant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRegistrantNotFound
	}
	if err != nil {
		return nil, storageError("load registrant", err)
	}
	return &registrant, nil
}

// issueTime returns the clock reading, forced strictly after last so a retry never
// re-derives the token that just collided.
func (s *CredentialService) issueTime(last time.Time) time.Time {
	now := s.timeNow().UTC()
	if !last.IsZero() && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	return now
}

func (s *CredentialService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("remove orphaned credential image", zap.String("key", key), zap.Error(err))
	}
}
