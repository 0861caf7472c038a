package models

// Operator is the single account allowed to trigger a remote zero calibration.
type Operator struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // bcrypt
}
