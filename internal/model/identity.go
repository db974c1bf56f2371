package model

// Identity is the authenticated caller established for a request.
type Identity struct {
	UserID string
	Email  string
	Role   string
}
