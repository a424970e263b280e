package models

// PlatformConnection is the connected flag of one social account.
type PlatformConnection struct {
	Platform  Platform `json:"platform"`
	Connected bool     `json:"connected"`
}
