package models

// User-facing messages shared by validation and the store.
const (
	MsgAllFieldsRequired = "All fields are required"
	MsgPasswordsMismatch = "Passwords do not match"
	MsgPasswordTooShort  = "Password is too short, it must have at least 6 characters"
	MsgInvalidPriority   = "Priority must be Low, Medium or High"
	MsgInvalidEmail      = "Email is not valid"
	MsgProjectCreated    = "Project Created Successfully"
	MsgProjectUpdated    = "Project Updated Successfully"
	MsgTaskDeleted       = "Task Deleted Successfully"
	MsgCollaboratorAdded = "Collaborator Added Successfully"
)

// Alert is the banner message shown to the user.
type Alert struct {
	Msg   string `json:"msg"`
	Error bool   `json:"error"`
}

// IsZero reports whether no alert is set.
func (a Alert) IsZero() bool {
	return a.Msg == ""
}

// ErrorAlert builds an error alert.
func ErrorAlert(msg string) Alert {
	return Alert{Msg: msg, Error: true}
}

// SuccessAlert builds a non-error alert.
func SuccessAlert(msg string) Alert {
	return Alert{Msg: msg}
}
