package models

// Collaborator is the minimal profile of a user attached to a project.
type Collaborator struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsZero reports whether no collaborator is set.
func (c Collaborator) IsZero() bool {
	return c.ID == "" && c.Email == ""
}

// Profile is the authenticated user as returned by login.
type Profile struct {
	ID    string `json:"_id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Token string `json:"token,omitempty" yaml:"-"`
}
