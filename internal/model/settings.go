package model

import "strings"

// UserSettings holds per-user preferences edited from the dashboard.
type UserSettings struct {
	UserID         string `json:"userId"`
	EasypostAPIKey string `json:"easypostApiKey"`
	LogoURL        string `json:"logoUrl"`
	UpdatedAt      int64  `json:"updatedAt"`
}

// SettingsRequest is the payload accepted when saving settings.
type SettingsRequest struct {
	EasypostAPIKey string `json:"easypostApiKey" validate:"omitempty,min=8,max=128,printascii"`
	LogoURL        string `json:"logoUrl" validate:"omitempty,url,max=2048"`
}

// Masked returns a copy with the carrier key reduced to its last four characters.
func (s UserSettings) Masked() UserSettings {
	if n := len(s.EasypostAPIKey); n > 0 {
		visible := 4
		if n <= visible {
			visible = 0
		}
		s.EasypostAPIKey = strings.Repeat("*", n-visible) + s.EasypostAPIKey[n-visible:]
	}
	return s
}
