package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"
)

const recentValidationLimit = 10

// Attendance labels used in the per-registrant list.
const (
	AttendanceValidated = "Validated"
	AttendancePending   = "Pending"
)

// RegistrantStatus is one row of the attendance list.
type RegistrantStatus struct {
	ExternalID       string     `json:"external_id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Issued           bool       `json:"credential_issued"`
	Status           string     `json:"status"`
	ValidatedAt      *time.Time `json:"validated_at,omitempty"`
	ClientDescriptor string     `json:"client_descriptor,omitempty"`
}

// RecentValidation is an entry of the recent-scans feed.
type RecentValidation struct {
	ExternalID       string    `json:"external_id"`
	Name             string    `json:"name"`
	ValidatedAt      time.Time `json:"validated_at"`
	ClientDescriptor string    `json:"client_descriptor,omitempty"`
}

// Summary aggregates attendance at a point in time.
type Summary struct {
	Total          int                `json:"total"`
	IssuedCount    int                `json:"issued_count"`
	ValidatedCount int                `json:"validated_count"`
	PendingCount   int                `json:"pending_count"`
	Percentage     float64            `json:"percentage"`
	Recent         []RecentValidation `json:"recent"`
	Registrants    []RegistrantStatus `json:"registrants"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// ReportService builds read-only attendance views.
type ReportService struct {
	db      *gorm.DB
	timeNow func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(db *gorm.DB) (*ReportService, error) {
	if db == nil {
		return nil, errors.New("report service: db is required")
	}
	return &ReportService{db: db, timeNow: time.Now}, nil
}

type attendanceRow struct {
	ExternalID       string
	Name             string
	Email            string
	CredentialID     *string
	ValidatedAt      *time.Time
	ClientDescriptor *string
}

// Summarize derives every figure from a single joined read so the counts always agree.
func (s *ReportService) Summarize(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)

	var rows []attendanceRow
	err := s.db.WithContext(ctx).
		Table("registrants").
		Select("registrants.external_id, registrants.name, registrants.email, " +
			"credentials.id AS credential_id, " +
			"validation_records.validated_at AS validated_at, " +
			"validation_records.client_descriptor AS client_descriptor").
		Joins("LEFT JOIN credentials ON credentials.registrant_id = registrants.id").
		Joins("LEFT JOIN validation_records ON validation_records.registrant_id = registrants.id").
		Order("registrants.name ASC").
		Order("registrants.external_id ASC").
		Scan(&rows).Error
	if err != nil {
		return Summary{}, storageError("summarize attendance", err)
	}

	summary := Summary{
		Total:       len(rows),
		Recent:      []RecentValidation{},
		Registrants: make([]RegistrantStatus, 0, len(rows)),
		GeneratedAt: s.timeNow().UTC(),
	}

	for _, row := range rows {
		status := RegistrantStatus{
			ExternalID: row.ExternalID,
			Name:       row.Name,
			Email:      row.Email,
			Issued:     row.CredentialID != nil,
			Status:     AttendancePending,
		}
		if status.Issued {
			summary.IssuedCount++
		}
		if row.ValidatedAt != nil {
			validatedAt := row.ValidatedAt.UTC()
			status.Status = AttendanceValidated
			status.ValidatedAt = &validatedAt
			if row.ClientDescriptor != nil {
				status.ClientDescriptor = *row.ClientDescriptor
			}
			summary.ValidatedCount++
			summary.Recent = append(summary.Recent, RecentValidation{
				ExternalID:       row.ExternalID,
				Name:             row.Name,
				ValidatedAt:      validatedAt,
				ClientDescriptor: status.ClientDescriptor,
			})
		}
		summary.Registrants = append(summary.Registrants, status)
	}

	summary.PendingCount = summary.Total - summary.ValidatedCount
	summary.Percentage = attendancePercentage(summary.ValidatedCount, summary.Total)

	sort.SliceStable(summary.Recent, func(i, j int) bool {
		return summary.Recent[i].ValidatedAt.After(summary.Recent[j].ValidatedAt)
	})
	if len(summary.Recent) > recentValidationLimit {
		summary.Recent = summary.Recent[:recentValidationLimit]
	}

	return summary, nil
}

func attendancePercentage(validated, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(validated) / float64(total) * 100
	return math.Round(pct*100) / 100
}
