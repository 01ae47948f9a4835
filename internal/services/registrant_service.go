package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/gatepass/internal/database"
	"github.com/charlesng35/gatepass/internal/models"
	apperrors "github.com/charlesng35/gatepass/pkg/errors"
	"github.com/charlesng35/gatepass/pkg/logger"
	"github.com/charlesng35/gatepass/pkg/validator"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxImportBatch  = 5000
)

// RegistrantInput is one already-parsed import row.
type RegistrantInput struct {
	ExternalID string         `json:"external_id" validate:"required,external_id"`
	Name       string         `json:"name" validate:"required,max=255"`
	Email      string         `json:"email" validate:"omitempty,email,max=320"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ImportReport describes the outcome of a batch import.
type ImportReport struct {
	Received     int      `json:"received"`
	Inserted     int      `json:"inserted"`
	Duplicates   int      `json:"duplicates"`
	DuplicateIDs []string `json:"duplicate_ids,omitempty"`
}

// ListRegistrantsOptions controls pagination for registrant listing.
type ListRegistrantsOptions struct {
	Page     int
	PageSize int
	Query    string
}

// RegistrantService manages the registrant directory.
type RegistrantService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRegistrantService constructs a RegistrantService.
func NewRegistrantService(db *gorm.DB) (*RegistrantService, error) {
	if db == nil {
		return nil, errors.New("registrant service: db is required")
	}
	return &RegistrantService{db: db, log: logger.WithModule("registrants")}, nil
}

// Import inserts the given rows, skipping any external id already present in the
// store or earlier in the same batch. The whole batch is validated before anything is written.
func (s *RegistrantService) Import(ctx context.Context, inputs []RegistrantInput) (ImportReport, error) {
	ctx = ensureContext(ctx)

	if len(inputs) == 0 {
		return ImportReport{}, apperrors.NewBadRequest("at least one registrant is required")
	}
	if len(inputs) > maxImportBatch {
		return ImportReport{}, apperrors.NewBadRequest(fmt.Sprintf("import batches are limited to %d registrants", maxImportBatch))
	}

	rows := make([]models.Registrant, 0, len(inputs))
	for i, input := range inputs {
		input.ExternalID = strings.TrimSpace(input.ExternalID)
		input.Name = strings.TrimSpace(input.Name)
		input.Email = strings.ToLower(strings.TrimSpace(input.Email))
		if err := validator.ValidateStruct(input); err != nil {
			return ImportReport{}, apperrors.NewBadRequest(fmt.Sprintf("row %d: %v", i+1, err))
		}

		row := models.Registrant{
			ExternalID: input.ExternalID,
			Name:       input.Name,
			Email:      input.Email,
		}
		if len(input.Attributes) > 0 {
			row.Attributes = datatypes.JSONMap(input.Attributes)
		}
		rows = append(rows, row)
	}

	report := ImportReport{Received: len(rows)}
	seen := make(map[string]struct{}, len(rows))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			row := &rows[i]
			if _, dup := seen[row.ExternalID]; dup {
				report.Duplicates++
				report.DuplicateIDs = append(report.DuplicateIDs, row.ExternalID)
				continue
			}
			seen[row.ExternalID] = struct{}{}

			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_id"}},
				DoNothing: true,
			}).Create(row)
			if res.Error != nil && !database.IsUniqueViolation(res.Error) {
				return res.Error
			}
			if res.Error == nil && res.RowsAffected == 1 {
				report.Inserted++
				continue
			}
			report.Duplicates++
			report.DuplicateIDs = append(report.DuplicateIDs, row.ExternalID)
		}
		return nil
	})
	if err != nil {
		return ImportReport{}, storageError("import registrants", err)
	}

	s.log.Info("registrants imported",
		zap.Int("received", report.Received),
		zap.Int("inserted", report.Inserted),
		zap.Int("duplicates", report.Duplicates),
	)
	return report, nil
}

// List returns registrants ordered by external id along with the total count.
func (s *RegistrantService) List(ctx context.Context, opts ListRegistrantsOptions) ([]models.Registrant, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	query := s.db.WithContext(ctx).Model(&models.Registrant{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(external_id) LIKE ? OR LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storageError("count registrants", err)
	}

	var registrants []models.Registrant
	err := query.
		Preload("Credential").
		Preload("Validation").
		Order("external_id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&registrants).Error
	if err != nil {
		return nil, 0, storageError("list registrants", err)
	}

	return registrants, total, nil
}

// GetByExternalID loads a registrant with its credential and validation record.
func (s *RegistrantService) GetByExternalID(ctx context.Context, externalID string) (*models.Registrant, error) {
	ctx = ensureContext(ctx)

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
