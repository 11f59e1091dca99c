package settings

import (
	"fmt"
	"strconv"

	"github.com/echo-recall/backend/internal/storage/sqlite"
)

const (
	keyCredential       = "llm_credential"
	keyCredentialSource = "llm_credential_source"
	keyDarkMode         = "dark_mode"
)

// Credential sources recorded alongside the stored secret.
const (
	SourceAPIKey = "api_key"
	SourceOAuth  = "oauth"
)

// Store gives typed access to the user settings kept in the key-value table.
type Store struct {
	db *sqlite.Client
}

func NewStore(db *sqlite.Client) *Store {
	return &Store{db: db}
}

// Credential returns the stored secret and its source. Both are empty when
// nothing is configured.
func (s *Store) Credential() (value, source string, err error) {
	value, ok, err := s.db.GetSetting(keyCredential)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", nil
	}

	source, _, err = s.db.GetSetting(keyCredentialSource)
	if err != nil {
		return "", "", err
	}
	if source == "" {
		source = SourceAPIKey
	}
	return value, source, nil
}

func (s *Store) SetCredential(value, source string) error {
	if source != SourceAPIKey && source != SourceOAuth {
		return fmt.Errorf("unknown credential source %q", source)
	}
	if err := s.db.SetSetting(keyCredential, value); err != nil {
		return err
	}
	return s.db.SetSetting(keyCredentialSource, source)
}

func (s *Store) ClearCredential() error {
	if err := s.db.RemoveSetting(keyCredential); err != nil {
		return err
	}
	return s.db.RemoveSetting(keyCredentialSource)
}

func (s *Store) DarkMode() (bool, error) {
	value, ok, err := s.db.GetSetting(keyDarkMode)
	if err != nil || !ok {
		return false, err
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false, nil
	}
	return enabled, nil
}

func (s *Store) SetDarkMode(enabled bool) error {
	return s.db.SetSetting(keyDarkMode, strconv.FormatBool(enabled))
}
