package identity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

const (
	keyGuestSessionID = "guest_session_id"
	keyAccessToken    = "access_token"
	keyUser           = "user"
)

// Credential is one persisted key/value pair.
type Credential struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string
}

// Store persists client credentials across process restarts. It backs the
// process-wide guest session id, access token and profile.
type Store struct {
	db *gorm.DB
}

// OpenStore opens (or creates) the credential database at path. Use
// ":memory:" for throwaway stores.
func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}
	if err := db.AutoMigrate(&Credential{}); err != nil {
		return nil, fmt.Errorf("migrating credential store: %w", err)
	}
	return &Store{db: db}, nil
}

// GuestSessionID returns the stored guest session id, creating one lazily
// on first use.
func (s *Store) GuestSessionID() (string, error) {
	if id, ok, err := s.get(keyGuestSessionID); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}
	id := uuid.NewString()
	if err := s.set(keyGuestSessionID, id); err != nil {
		return "", err
	}
	return id, nil
}

// PeekGuestSessionID reports the stored id without creating one.
func (s *Store) PeekGuestSessionID() (string, bool, error) {
	return s.get(keyGuestSessionID)
}

// ClearGuestSession removes the guest session id after a successful guest
// order or an explicit merge.
func (s *Store) ClearGuestSession() error {
	return s.delete(keyGuestSessionID)
}

// SetCredentials persists the access token and profile adopted on
// auto-login.
func (s *Store) SetCredentials(accessToken string, user types.Profile) error {
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if err := s.set(keyAccessToken, accessToken); err != nil {
		return err
	}
	return s.set(keyUser, string(encoded))
}

// AccessToken returns the persisted token, if any.
func (s *Store) AccessToken() (string, bool, error) {
	return s.get(keyAccessToken)
}

// User returns the persisted profile, if any.
func (s *Store) User() (*types.Profile, error) {
	raw, ok, err := s.get(keyUser)
	if err != nil || !ok {
		return nil, err
	}
	var profile types.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &profile, nil
}

func (s *Store) get(key string) (string, bool, error) {
	var cred Credential
	err := s.db.First(&cred, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return cred.Value, true, nil
}

func (s *Store) set(key, value string) error {
	cred := Credential{Key: key, Value: value}
	if err := s.db.Save(&cred).Error; err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if err := s.db.Delete(&Credential{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
