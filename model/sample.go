// api/model/sample.go
package model

import (
	"time"
)

// StorageType describes the occupancy model of a physical location.
// A TUBE holds exactly one sample and is discarded with it; the other
// types are shared locations that outlive any one sample.
type StorageType string

const (
	StorageTube    StorageType = "TUBE"
	StorageWell    StorageType = "WELL"
	StoragePlate96 StorageType = "PLATE96"
	StorageBox     StorageType = "BOX"
	StorageShelf   StorageType = "SHELF"
	StorageFreezer StorageType = "FREEZER"
	StorageGeneric StorageType = "GENERIC"
)

// Storage is a physical location or container, optionally nested inside a
// parent location (a well in a plate, a box on a shelf).
type Storage struct {
	ID         string      `json:"id"` // UUID
	Name       string      `json:"name,omitempty"`
	Type       StorageType `json:"type"`
	Index      string      `json:"index,omitempty"` // position within the parent
	ParentID   string      `json:"parent_id,omitempty"`
	OwnerEmail string      `json:"owner_email,omitempty"`
	CreatedAt  time.Time   `json:"created_at,omitempty"`
}

// Sample is a physical specimen of an entry, bound to one storage location.
type Sample struct {
	ID             int64     `json:"id"`
	UUID           string    `json:"uuid"`
	Label          string    `json:"label"`
	DepositorEmail string    `json:"depositor_email"`
	Notes          string    `json:"notes,omitempty"`

	EntryID   int64  `json:"entry_id"`
	StorageID string `json:"storage_id,omitempty"`

	CreationTime     time.Time  `json:"creation_time,omitempty"`
	ModificationTime *time.Time `json:"modification_time,omitempty"`
}
