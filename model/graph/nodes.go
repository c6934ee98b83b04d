// api/model/graph/nodes.go
package registry_graph

// Node Labels
const (
	// LabelEntry represents one biological part record
	LabelEntry = "Entry"

	// LabelSample represents a physical specimen of an entry
	LabelSample = "Sample"

	// LabelStorage represents a physical location or container
	LabelStorage = "Storage"

	// LabelFolder represents a named grouping of entries
	LabelFolder = "Folder"

	// LabelAccount represents a registry user
	LabelAccount = "Account"

	// LabelGroup represents a group of accounts
	LabelGroup = "Group"

	// LabelSequence represents a named id counter
	LabelSequence = "Sequence"
)

// Sequence names
const (
	SeqEntries = "entries"
	SeqSamples = "samples"
)
