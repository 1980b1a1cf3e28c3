package models

// VisitorIdentity describes whoever is viewing the current page. All fields
// are empty for anonymous visitors.
type VisitorIdentity struct {
	ID          *int64 `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

func (v VisitorIdentity) IsAnonymous() bool {
	return v.ID == nil && v.Email == "" && v.DisplayName == ""
}
