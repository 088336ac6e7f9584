package database

import (
	"gorm.io/gorm"

	"github.com/gatherly/gatherly/internal/models"
)

// AutoMigrate creates or updates the database schema for all models. The
// uniqueness constraints declared on the models are the authoritative
// race-safety mechanism for the membership ledger, so migration order keeps
// referenced tables first.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Location{},
		&models.Event{},
		&models.EventStop{},
		&models.EventMembership{},
		&models.EventInvite{},
		&models.EventJoinRequest{},
		&models.EventChatMessage{},
		&models.EventFavorite{},
		&models.MessageReport{},
		&models.DirectChat{},
		&models.DirectMessage{},
		&models.DirectChatLeave{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}

// SeedData inserts baseline location catalog rows so a fresh install has
// something to attach events to. Real deployments replace these through the
// catalog import tooling.
func SeedData(db *gorm.DB) error {
	locations := []models.Location{
		{ID: 1, Title: "Harbour Mural", Artist: "J. Okafor", Address: "12 Quay Street", Latitude: 53.3441, Longitude: -6.2675},
		{ID: 2, Title: "Steel Meridian", Artist: "L. Varga", Address: "Canal Plaza", Latitude: 53.3382, Longitude: -6.2543},
		{ID: 3, Title: "Glasshouse Field", Artist: "Anonymous", Address: "Botanic Walk", Latitude: 53.3726, Longitude: -6.2718},
	}

	for _, location := range locations {
		if err := db.Where(models.Location{ID: location.ID}).
			Attrs(location).
			FirstOrCreate(&models.Location{}).Error; err != nil {
			return err
		}
	}

	return nil
}
