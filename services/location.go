package services

import (
	"regexp"
	"strings"

	"github.com/yashrajoria/asset-inventory-backend/models"
)

// trailing "(block)" group; the name part may be empty
var locationPattern = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)\s*$`)

const idleMarker = "BENS RECOLHIDOS"

// ResolveLocation splits "<room> (<block>)" into its parts, substituting
// placeholders for whatever is missing.
func ResolveLocation(location string) (name, block string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return models.RoomNameUnknown, models.RoomBlockUnknown
	}

	m := locationPattern.FindStringSubmatch(location)
	if m == nil {
		return location, models.RoomBlockUnknown
	}

	name = strings.TrimSpace(m[1])
	block = strings.TrimSpace(m[2])
	if name == "" {
		name = models.RoomNameUnknown
	}
	if block == "" {
		block = models.RoomBlockUnknown
	}
	return name, block
}

// IsIdleLocation reports whether assets at location are out of use.
func IsIdleLocation(location string) bool {
	return strings.Contains(strings.ToUpper(location), idleMarker)
}

// roomKeyFor maps a raw location to the room it designates within campusID.
func roomKeyFor(location, campusID string) models.RoomKey {
	name, block := ResolveLocation(location)
	return models.RoomKey{Name: name, Block: block, CampusID: campusID}
}
