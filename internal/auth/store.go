package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/zulandar/induction/internal/models"
	"gorm.io/gorm"
)

// SessionStore keeps the server-side record of live sessions. A cookie is
// only honoured while its session id has a row here.
type SessionStore struct {
	DB  *gorm.DB
	now func() time.Time
}

// NewSessionStore returns a SessionStore backed by db.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{DB: db, now: time.Now}
}

// Save records s as live.
func (st *SessionStore) Save(s Session) error {
	row := models.LoginSession{
		ID:        s.ID,
		UserID:    s.UserID,
		Username:  s.Username,
		Role:      s.Role,
		ExpiresAt: s.ExpiresAt,
	}
	if err := st.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("auth: save session %s: %w", s.ID, err)
	}
	return nil
}

// Active reports whether id names a session that is saved and unexpired.
func (st *SessionStore) Active(id string) (bool, error) {
	var n int64
	err := st.DB.Model(&models.LoginSession{}).
		Where("id = ? AND expires_at > ?", id, st.now()).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("auth: check session %s: %w", id, err)
	}
	return n > 0, nil
}

// Revoke ends the session. Revoking an unknown id is not an error.
func (st *SessionStore) Revoke(id string) error {
	if err := st.DB.Where("id = ?", id).Delete(&models.LoginSession{}).Error; err != nil {
		return fmt.Errorf("auth: revoke session %s: %w", id, err)
	}
	return nil
}

// Purge deletes expired sessions and returns how many went.
func (st *SessionStore) Purge() (int64, error) {
	res := st.DB.Where("expires_at <= ?", st.now()).Delete(&models.LoginSession{})
	if res.Error != nil {
		return 0, fmt.Errorf("auth: purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Authenticate decodes the request's cookie and checks that the session is
// still live.
func (st *SessionStore) Authenticate(codec *Codec, r *http.Request) (Session, error) {
	s, err := codec.FromRequest(r)
	if err != nil {
		return Session{}, err
	}
	ok, err := st.Active(s.ID)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, fmt.Errorf("%w: session %s ended", ErrNoSession, s.ID)
	}
	return s, nil
}
