// api/model/entry.go
package model

import (
	"time"
)

// EntryType is the closed set of record kinds the registry stores.
type EntryType string

const (
	EntryTypeStrain  EntryType = "strain"
	EntryTypePlasmid EntryType = "plasmid"
	EntryTypePart    EntryType = "part"
	EntryTypeSeed    EntryType = "seed"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeStrain, EntryTypePlasmid, EntryTypePart, EntryTypeSeed:
		return true
	}
	return false
}

// EntryStatus tracks how far along a record is.
type EntryStatus string

const (
	StatusComplete   EntryStatus = "complete"
	StatusInProgress EntryStatus = "in_progress"
	StatusPlanned    EntryStatus = "planned"
)

// MarkupType is the syntax used for LongDescription.
type MarkupType string

const (
	MarkupText       MarkupType = "text"
	MarkupWiki       MarkupType = "wiki"
	MarkupConfluence MarkupType = "confluence"
)

// Entry is the unique handle for one biological part record. Ownership is
// tracked by email rather than account id so that records can move between
// registry instances without the matching accounts moving with them.
type Entry struct {
	ID       int64  `json:"id"`        // storage-assigned, immutable
	RecordID string `json:"record_id"` // UUID, immutable, globally unique
	VersionID string `json:"version_id"`

	Type EntryType `json:"type"`

	Owner        string `json:"owner,omitempty"`
	OwnerEmail   string `json:"owner_email"`
	Creator      string `json:"creator,omitempty"`
	CreatorEmail string `json:"creator_email,omitempty"`

	Alias    string      `json:"alias,omitempty"`
	Keywords string      `json:"keywords,omitempty"`
	Status   EntryStatus `json:"status,omitempty"`

	ShortDescription    string     `json:"short_description,omitempty"`
	LongDescription     string     `json:"long_description,omitempty"`
	LongDescriptionType MarkupType `json:"long_description_type,omitempty"`

	References           string `json:"references,omitempty"`
	IntellectualProperty string `json:"intellectual_property,omitempty"`
	BioSafetyLevel       int    `json:"bio_safety_level,omitempty"` // 1 or 2

	CreationTime     time.Time `json:"creation_time,omitempty"`
	ModificationTime time.Time `json:"modification_time,omitempty"`

	// Owned collections. Their lifecycle is bound to the entry: updates
	// replace the stored set in place, delete removes them with the entry.
	Names            []Name            `json:"names,omitempty"`
	PartNumbers      []PartNumber      `json:"part_numbers,omitempty"`
	Links            []Link            `json:"links,omitempty"`
	SelectionMarkers []SelectionMarker `json:"selection_markers,omitempty"`
	FundingSources   []FundingSource   `json:"funding_sources,omitempty"`
	Parameters       []Parameter       `json:"parameters,omitempty"`
}

// Name is an alias by which an entry is known.
type Name struct {
	Name string `json:"name"`
}

// PartNumber is an external identifier for an entry. The one containing the
// locally configured prefix is the preferred number for display.
type PartNumber struct {
	PartNumber string `json:"part_number"`
}

// Link points outside this registry instance.
type Link struct {
	Link string `json:"link"`
	URL  string `json:"url,omitempty"`
}

// SelectionMarker names a selectable trait carried by the part.
type SelectionMarker struct {
	Name string `json:"name"`
}

// FundingSource records who paid for the work behind an entry.
type FundingSource struct {
	Agency string `json:"agency"`
	Name   string `json:"name,omitempty"`
}

// Parameter is an ordered key/value annotation on an entry.
type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SortField is the closed set of fields paged listings can be ordered by.
type SortField string

const (
	SortCreated SortField = "CREATED"
	SortName    SortField = "NAME"
	SortStatus  SortField = "STATUS"
)

// EntryListCriteria parameterizes paged entry listings.
type EntryListCriteria struct {
	SortBy    SortField `json:"sort_by,omitempty"`
	Ascending bool      `json:"ascending,omitempty"`
	Offset    int       `json:"offset,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}
