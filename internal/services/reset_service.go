package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/models"
	"github.com/charlesng35/gatepass/internal/storage"
	"github.com/charlesng35/gatepass/pkg/logger"
)

// ResetConfirmation must be supplied verbatim to wipe the event data.
const ResetConfirmation = "CLEAR_ALL_DATA"

// ResetReport lists what a reset removed.
type ResetReport struct {
	Registrants   int64 `json:"registrants"`
	Credentials   int64 `json:"credentials"`
	Validations   int64 `json:"validations"`
	ImagesRemoved int   `json:"images_removed"`
	ImageFailures int   `json:"image_failures,omitempty"`
}

// ResetService wipes all registrants, credentials, validations and images.
type ResetService struct {
	db     *gorm.DB
	images storage.ImageStore
	log    *zap.Logger
}

// NewResetService constructs a ResetService.
func NewResetService(db *gorm.DB, images storage.ImageStore) (*ResetService, error) {
	if db == nil {
		return nil, errors.New("reset service: db is required")
	}
	if images == nil {
		return nil, errors.New("reset service: image store is required")
	}
	return &ResetService{db: db, images: images, log: logger.WithModule("reset")}, nil
}

// Reset deletes all rows in one transaction, then removes the referenced images best effort.
func (s *ResetService) Reset(ctx context.Context, confirmation string) (ResetReport, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(confirmation) != ResetConfirmation {
		return ResetReport{}, ErrInvalidConfirmation
	}

	var (
		report    ResetReport
		imageKeys []string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Credential{}).Pluck("image_key", &imageKeys).Error; err != nil {
			return err
		}

		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ValidationRecord{})
		if res.Error != nil {
			return res.Error
		}
		report.Validations = res.RowsAffected

		res = tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Credential{})
		if res.Error != nil {
			return res.Error
		}
		report.Credentials = res.RowsAffected

		res = tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Registrant{})
		if res.Error != nil {
			return res.Error
		}
		report.Registrants = res.RowsAffected
		return nil
	})
	if err != nil {
		return ResetReport{}, storageError("reset data", err)
	}

	var imageErrs error
	for _, key := range imageKeys {
		if key == "" {
			continue
		}
		if err := s.images.Delete(ctx, key); err != nil {
			report.ImageFailures++
			imageErrs = multierr.Append(imageErrs, err)
			continue
		}
		report.ImagesRemoved++
	}
	if imageErrs != nil {
		s.log.Warn("reset left credential images behind", zap.Error(imageErrs))
	}

	s.log.Warn("event data reset",
		zap.Int64("registrants", report.Registrants),
		zap.Int64("credentials", report.Credentials),
		zap.Int64("validations", report.Validations),
		zap.Int("images_removed", report.ImagesRemoved),
	)
	return report, nil
}
