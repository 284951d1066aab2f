package domain

// ProviderType represents a calendar backend.
type ProviderType string

const (
	// ProviderGoogle is Google Calendar (OAuth2 + Calendar v3 API).
	ProviderGoogle ProviderType = "google"
	// ProviderMicrosoft is Microsoft Outlook/365 (OAuth2 + Microsoft Graph API).
	ProviderMicrosoft ProviderType = "microsoft"
	// ProviderApple is Apple Calendar (CalDAV with app-specific password).
	ProviderApple ProviderType = "apple"
	// ProviderCalDAV is generic CalDAV (Fastmail, Nextcloud, self-hosted).
	ProviderCalDAV ProviderType = "caldav"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}

// IsValid returns true if the provider type is recognized.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderMicrosoft, ProviderApple, ProviderCalDAV:
		return true
	default:
		return false
	}
}

// RequiresOAuth returns true if the provider authenticates with a stored OAuth2 token.
func (p ProviderType) RequiresOAuth() bool {
	return p == ProviderGoogle || p == ProviderMicrosoft
}

// DisplayName returns a human-readable name for the provider.
func (p ProviderType) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google Calendar"
	case ProviderMicrosoft:
		return "Microsoft Outlook"
	case ProviderApple:
		return "Apple Calendar"
	case ProviderCalDAV:
		return "CalDAV"
	default:
		return string(p)
	}
}
