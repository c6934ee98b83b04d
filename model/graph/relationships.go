// api/model/graph/relationships.go
package registry_graph

// Relationship Types
const (
	// RelHasName links an entry to one of its alias names
	RelHasName = "HAS_NAME"

	// RelHasPartNumber links an entry to one of its external identifiers
	RelHasPartNumber = "HAS_PART_NUMBER"

	// RelHasLink links an entry to an outside reference
	RelHasLink = "HAS_LINK"

	// RelHasMarker links an entry to a selection marker
	RelHasMarker = "HAS_MARKER"

	// RelFundedBy links an entry to a funding source
	RelFundedBy = "FUNDED_BY"

	// RelHasParameter links an entry to an ordered key/value annotation
	RelHasParameter = "HAS_PARAMETER"

	// RelSampleOf binds a sample to its owning entry
	RelSampleOf = "SAMPLE_OF"

	// RelStoredIn binds a sample to its storage location
	RelStoredIn = "STORED_IN"

	// RelWithin nests a storage location inside its parent location
	RelWithin = "WITHIN"

	// RelContains orders an entry into a folder
	RelContains = "CONTAINS"

	// RelMemberOf places an account in a group
	RelMemberOf = "MEMBER_OF"

	// RelHasPermission grants a subject access to a target; the grant level
	// is carried on the relationship
	RelHasPermission = "HAS_PERMISSION"
)
