package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yashrajoria/asset-inventory-backend/models"
)

// assetName is the description up to its first period.
func assetName(description string) string {
	name, _, _ := strings.Cut(description, ".")
	return strings.TrimSpace(name)
}

// centsToValue converts an integer cents string to currency units.
// Blank or malformed input yields zero.
func centsToValue(cents string) float64 {
	cents = strings.TrimSpace(cents)
	if cents == "" {
		return 0
	}
	d, err := decimal.NewFromString(cents)
	if err != nil {
		return 0
	}
	return d.Shift(-2).InexactFloat64()
}

func buildAsset(rec models.ParsedRecord, room *models.Room, campusID string, now time.Time) models.Asset {
	return models.Asset{
		ID:          uuid.NewString(),
		RoomID:      room.ID,
		CampusID:    campusID,
		Name:        assetName(rec.Description),
		Tombo:       rec.Tombo,
		Responsible: rec.Responsible,
		Description: rec.Description,
		Value:       centsToValue(rec.ValueCents),
		Audited:     false,
		Idle:        IsIdleLocation(rec.Location),
		CreatedAt:   now,
	}
}
