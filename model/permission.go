// api/model/permission.go
package model

// PermissionLevel is the access level a grant confers. WRITE capability
// always permits reading, but a WRITE grant never satisfies a stored READ
// lookup on its own: the levels are matched exactly against the store.
type PermissionLevel string

const (
	LevelRead  PermissionLevel = "READ"
	LevelWrite PermissionLevel = "WRITE"
)

// SubjectType discriminates who a grant is for.
type SubjectType string

const (
	SubjectAccount SubjectType = "account"
	SubjectGroup   SubjectType = "group"
)

// TargetType discriminates what a grant protects.
type TargetType string

const (
	TargetEntry  TargetType = "entry"
	TargetFolder TargetType = "folder"
)

// PermissionTarget is anything a grant can protect. The permission engine
// works against this seam so entries and folders share one decision path.
type PermissionTarget interface {
	// AccessTarget returns the target type and the id grants are stored
	// under: record id for entries, folder id for folders.
	AccessTarget() (TargetType, string)
	// AccessOwner returns the owning account's email.
	AccessOwner() string
}

func (e *Entry) AccessTarget() (TargetType, string) {
	return TargetEntry, e.RecordID
}

func (e *Entry) AccessOwner() string {
	return e.OwnerEmail
}

func (f *Folder) AccessTarget() (TargetType, string) {
	return TargetFolder, f.ID
}

func (f *Folder) AccessOwner() string {
	return f.OwnerEmail
}

// AccessPermission is one grant tuple. SubjectID is an account email for
// account subjects and a group UUID for group subjects; TargetID is the
// entry record id or folder id. Tuples are deduplicated by the store, so
// re-applying an identical grant is a no-op.
type AccessPermission struct {
	SubjectType SubjectType     `json:"subject_type"`
	SubjectID   string          `json:"subject_id"`
	TargetType  TargetType      `json:"target_type"`
	TargetID    string          `json:"target_id"`
	Level       PermissionLevel `json:"level"`
}
