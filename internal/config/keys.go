package config

import "os"

// CredentialSource represents where a credential comes from.
type CredentialSource string

const (
	CredSourceEnv    CredentialSource = "env"
	CredSourceConfig CredentialSource = "config"
	CredSourceNone   CredentialSource = "none"
)

// CredentialStatus represents the status of one Drive credential.
type CredentialStatus struct {
	Name   string           `json:"name"`
	Source CredentialSource `json:"source"`
	IsSet  bool             `json:"is_set"`
	Masked string           `json:"masked,omitempty"` // e.g., "1A2...x9Z"
	Exists bool             `json:"exists,omitempty"` // file credentials only
}

// CheckDriveCredentials returns the status of the Google Drive credentials.
func CheckDriveCredentials(cfg *Config) []CredentialStatus {
	file := checkCredential("Drive Credentials File", cfg.Drive.CredentialsFile, "IPOWATCH_DRIVE_CREDENTIALS_FILE")
	if file.IsSet {
		if _, err := os.Stat(cfg.Drive.CredentialsFile); err == nil {
			file.Exists = true
		}
	}
	folder := checkCredential("Drive Folder ID", cfg.Drive.FolderID, "IPOWATCH_DRIVE_FOLDER_ID")
	return []CredentialStatus{file, folder}
}

// checkCredential checks if a credential is set and where it came from.
func checkCredential(name, value, envVar string) CredentialStatus {
	status := CredentialStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		// Check if it came from env
		if os.Getenv(envVar) != "" {
			status.Source = CredSourceEnv
		} else {
			status.Source = CredSourceConfig
		}
		status.Masked = maskValue(value)
	} else {
		status.Source = CredSourceNone
	}

	return status
}

// maskValue masks a credential for display, showing only first 3 and last 3 chars.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}
