package monitoring

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/database"
	"github.com/charlesng35/gatepass/internal/storage"
)

// probeImageKey never exists; the store only has to answer.
const probeImageKey = "health/.probe"

// DatabaseProbe pings the database handle.
func DatabaseProbe(db *gorm.DB) Probe {
	return func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}
}

// ImageStoreProbe reads a missing key. A not-found answer proves the store is reachable.
func ImageStoreProbe(store storage.ImageStore) Probe {
	return func(ctx context.Context) error {
		if store == nil {
			return errors.New("image store not configured")
		}
		_, err := store.Get(ctx, probeImageKey)
		if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
			return nil
		}
		return err
	}
}
