// package store persists the short-lived catalog access credential.
//
// A credential occupies two key-value slots in the credentials table: the
// namespace key holds the coder-encoded token, "<namespace>-expiration-time"
// holds the absolute expiry as epoch seconds. Multiple stores with distinct
// namespaces can share one database.
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"
)

const expirationSuffix = "-expiration-time"

// CredentialStore reads and writes one named credential with an absolute
// expiry instant. An absent, garbled, or expired credential is
// indistinguishable from the caller's perspective.
type CredentialStore struct {
	db       *sql.DB
	valueKey string
	timeKey  string
	coder    SecretCoder
	now      func() time.Time

	mu sync.Mutex
}

// New creates a CredentialStore over db addressed by namespace.
// A nil coder defaults to [Base64Coder].
func New(db *sql.DB, namespace string, coder SecretCoder) *CredentialStore {
	if coder == nil {
		coder = Base64Coder{}
	}
	return &CredentialStore{
		db:       db,
		valueKey: namespace,
		timeKey:  namespace + expirationSuffix,
		coder:    coder,
		now:      time.Now,
	}
}

// Current returns the decoded credential, or false when no credential exists,
// the stored entry is malformed, or the expiry instant has passed. The expiry
// check runs before the value slot is read so a cleared or garbled value is
// never decoded.
func (s *CredentialStore) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.read(s.timeKey)
	if !ok {
		return "", false
	}
	expires, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	if s.epoch() >= expires {
		return "", false
	}

	encoded, ok := s.read(s.valueKey)
	if !ok {
		return "", false
	}
	return s.coder.Decode(encoded)
}

// Persist stores the credential with an expiry of expiresIn seconds from now.
// A non-positive expiresIn is a no-op: no new credential becomes observable
// and the prior one, if any, keeps its own expiry. Both slots are written in
// one transaction, expiry first, so a reader never observes a new expiry
// paired with an old value or vice versa.
func (s *CredentialStore) Persist(token string, expiresIn int) error {
	if expiresIn <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expires := s.epoch() + float64(expiresIn)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin credential write: %w", err)
	}
	defer tx.Rollback()

	if err := upsert(tx, s.timeKey, strconv.FormatFloat(expires, 'f', -1, 64)); err != nil {
		return fmt.Errorf("failed to write expiry slot: %w", err)
	}
	if err := upsert(tx, s.valueKey, s.coder.Encode(token)); err != nil {
		return fmt.Errorf("failed to write value slot: %w", err)
	}

	return tx.Commit()
}

// Clear removes both credential slots.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM credentials WHERE key IN (?, ?)", s.valueKey, s.timeKey)
	if err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// SetClock overrides the store's time source. Intended for tests.
func (s *CredentialStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// epoch returns the current instant as fractional epoch seconds, matching the
// persisted expiry representation.
func (s *CredentialStore) epoch() float64 {
	return float64(s.now().UnixNano()) / float64(time.Second)
}

// read returns the value of a slot. Missing rows and query failures both
// report absence; readers must treat garbled state as "no credential".
func (s *CredentialStore) read(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func upsert(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(
		"INSERT INTO credentials (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
