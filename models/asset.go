package models

import "time"

// Placeholders used when the legacy export carries no usable location.
const (
	RoomNameUnknown  = "Não Localizado"
	RoomBlockUnknown = "Não Especificado"
)

// Asset ("bem") is one physical, trackable item stored in MongoDB.
// Tombo is unique across the collection (enforced by index).
type Asset struct {
	ID          string    `bson:"_id" json:"id"`
	RoomID      string    `bson:"room_id" json:"room_id"`
	CampusID    string    `bson:"campus_id" json:"campus_id"`
	Name        string    `bson:"name" json:"name"`
	Tombo       string    `bson:"tombo" json:"tombo"`
	Responsible string    `bson:"responsible" json:"responsible"`
	Description string    `bson:"description" json:"description"`
	Value       float64   `bson:"value" json:"value"`
	Audited     bool      `bson:"audited" json:"audited"`
	Idle        bool      `bson:"idle" json:"idle"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Room ("sala") is a physical location scoped to a campus and a block.
type Room struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Block     string    `bson:"block" json:"block"`
	CampusID  string    `bson:"campus_id" json:"campus_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// RoomKey identifies a room without its storage identity.
type RoomKey struct {
	Name     string
	Block    string
	CampusID string
}

// Key returns the composite key of the room.
func (r *Room) Key() RoomKey {
	return RoomKey{Name: r.Name, Block: r.Block, CampusID: r.CampusID}
}
