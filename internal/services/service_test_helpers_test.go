package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/credentials"
	"github.com/charlesng35/gatepass/internal/database/testutil"
	"github.com/charlesng35/gatepass/internal/models"
	"github.com/charlesng35/gatepass/internal/storage"
)

const testSecret = "test-secret-0123456789abcdef"

var testEpoch = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

type serviceStack struct {
	db          *gorm.DB
	images      *storage.LocalStore
	generator   *credentials.Generator
	credentials *CredentialService
	validation  *ValidationService
	reports     *ReportService
	registrants *RegistrantService
	reset       *ResetService
}

func newServiceStack(t *testing.T, validationOpts ...ValidationOption) *serviceStack {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	images, err := storage.NewLocalStore(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	generator, err := credentials.NewGenerator(credentials.Config{
		Secret:  testSecret,
		BaseURL: "https://gate.example.com",
		QRSize:  128,
	})
	require.NoError(t, err)

	credSvc, err := NewCredentialService(db, generator, images, WithCredentialClock(steppingClock(testEpoch, time.Second)))
	require.NoError(t, err)

	validationOpts = append([]ValidationOption{WithValidationClock(steppingClock(testEpoch.Add(time.Hour), time.Second))}, validationOpts...)
	validationSvc, err := NewValidationService(db, validationOpts...)
	require.NoError(t, err)

	reportSvc, err := NewReportService(db)
	require.NoError(t, err)

	registrantSvc, err := NewRegistrantService(db)
	require.NoError(t, err)

	resetSvc, err := NewResetService(db, images)
	require.NoError(t, err)

	return &serviceStack{
		db:          db,
		images:      images,
		generator:   generator,
		credentials: credSvc,
		validation:  validationSvc,
		reports:     reportSvc,
		registrants: registrantSvc,
		reset:       resetSvc,
	}
}

// steppingClock returns a clock that advances by step on every reading.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var (
		mu  sync.Mutex
		now = start
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current := now
		now = now.Add(step)
		return current
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func createRegistrant(t *testing.T, db *gorm.DB, externalID, name string) *models.Registrant {
	t.Helper()
	registrant := &models.Registrant{ExternalID: externalID, Name: name, Email: externalID + "@example.com"}
	require.NoError(t, db.Create(registrant).Error)
	return registrant
}

func credentialFor(t *testing.T, db *gorm.DB, registrantID string) *models.Credential {
	t.Helper()
	var cred models.Credential
	require.NoError(t, db.Where("registrant_id = ?", registrantID).Take(&cred).Error)
	return &cred
}

type failingImageStore struct {
	err error
}

func (f failingImageStore) Put(context.Context, string, []byte, string) error { return f.err }

func (f failingImageStore) Get(context.Context, string) ([]byte, error) {
	return nil, storage.ErrObjectNotFound
}

func (f failingImageStore) Delete(context.Context, string) error { return nil }

var errDiskFull = errors.New("disk full")
