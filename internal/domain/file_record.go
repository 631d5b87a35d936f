package domain

import "time"

// FileRecord links an owner to an uploaded PDF and, once saved, its edited
// derivative. EditedLocation and EditorID are either both nil or both set.
type FileRecord struct {
	ID               int64      `json:"id"`
	OwnerID          int64      `json:"owner_id"`
	OriginalLocation string     `json:"original_location"`
	DisplayName      string     `json:"display_name"`
	EditedLocation   *string    `json:"edited_location"`
	EditorID         *int64     `json:"editor_id"`
	CreatedAt        time.Time  `json:"created_at"`
	LastEditedAt     *time.Time `json:"last_edited_at"`
}

func (f *FileRecord) IsEdited() bool {
	return f.EditedLocation != nil && f.EditorID != nil
}

// CanAccess is the ownership gate for file-scoped routes.
func (f *FileRecord) CanAccess(id Identity) bool {
	return f.OwnerID == id.UserID || id.Role.CanAdminister()
}
