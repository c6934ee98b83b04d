// api/model/folder.go
package model

import (
	"time"
)

// Folder is a named, ordered grouping of entries. It carries its own
// permission grants; with PropagatePermission set, every grant or revoke on
// the folder is mirrored onto each contained entry at the time of the change.
// PublicReadAccess makes the contents readable by anyone and is orthogonal
// to the propagate flag.
type Folder struct {
	ID          string `json:"id"` // UUID
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerEmail  string `json:"owner_email"`

	PropagatePermission bool `json:"propagate_permission"`
	PublicReadAccess    bool `json:"public_read_access"`

	// EntryIDs lists member entries in folder order. Populated on reads that
	// request contents; membership is stored as graph edges.
	EntryIDs []int64 `json:"entry_ids,omitempty"`

	CreationTime     time.Time `json:"creation_time,omitempty"`
	ModificationTime time.Time `json:"modification_time,omitempty"`
}

// FolderUpdate carries the mutable folder fields for an update. Nil means
// leave the stored value alone.
type FolderUpdate struct {
	Name                *string `json:"name,omitempty"`
	Description         *string `json:"description,omitempty"`
	PropagatePermission *bool   `json:"propagate_permission,omitempty"`
}
