// api/util/validation_util.go

package util

import (
	"fmt"

	"github.com/openparts/registry/api/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateEntry(entry model.Entry) error {
	if !entry.Type.Valid() {
		return fmt.Errorf("entry type %q is not a known type", entry.Type)
	}
	if entry.OwnerEmail == "" {
		return fmt.Errorf("entry owner email cannot be empty")
	}
	if entry.BioSafetyLevel != 0 && entry.BioSafetyLevel != 1 && entry.BioSafetyLevel != 2 {
		return fmt.Errorf("bio safety level must be 1 or 2")
	}
	for _, name := range entry.Names {
		if name.Name == "" {
			return fmt.Errorf("entry name cannot be empty")
		}
	}
	for _, number := range entry.PartNumbers {
		if number.PartNumber == "" {
			return fmt.Errorf("part number cannot be empty")
		}
	}
	for _, source := range entry.FundingSources {
		if source.Agency == "" {
			return fmt.Errorf("funding source agency cannot be empty")
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateSample(sample model.Sample) error {
	if sample.Label == "" {
		return fmt.Errorf("sample label cannot be empty")
	}
	if sample.DepositorEmail == "" {
		return fmt.Errorf("sample depositor email cannot be empty")
	}
	if sample.EntryID == 0 {
		return fmt.Errorf("sample must reference an entry")
	}
	return nil
}

func (v *ValidationUtil) ValidateStorage(storage model.Storage) error {
	if storage.ID == "" {
		return fmt.Errorf("storage ID cannot be empty")
	}
	switch storage.Type {
	case model.StorageTube, model.StorageWell, model.StoragePlate96,
		model.StorageBox, model.StorageShelf, model.StorageFreezer, model.StorageGeneric:
	default:
		return fmt.Errorf("storage type %q is not a known type", storage.Type)
	}
	return nil
}

func (v *ValidationUtil) ValidateFolder(folder model.Folder) error {
	if folder.Name == "" {
		return fmt.Errorf("folder name cannot be empty")
	}
	if folder.OwnerEmail == "" {
		return fmt.Errorf("folder owner email cannot be empty")
	}
	return nil
}

// ValidatePermission
func (v *ValidationUtil) ValidatePermission(permission model.AccessPermission) error {
	if permission.SubjectType != model.SubjectAccount && permission.SubjectType != model.SubjectGroup {
		return fmt.Errorf("permission subject type %q is not a known type", permission.SubjectType)
	}
	if permission.SubjectID == "" {
		return fmt.Errorf("permission subject ID cannot be empty")
	}
	if permission.TargetType != model.TargetEntry && permission.TargetType != model.TargetFolder {
		return fmt.Errorf("permission target type %q is not a known type", permission.TargetType)
	}
	if permission.TargetID == "" {
		return fmt.Errorf("permission target ID cannot be empty")
	}
	if permission.Level != model.LevelRead && permission.Level != model.LevelWrite {
		return fmt.Errorf("permission level must be READ or WRITE")
	}
	return nil
}
