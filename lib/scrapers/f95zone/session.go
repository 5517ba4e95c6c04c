package f95zone

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Session is the persisted identity of a logged-in user: the anti-forgery
// token, the cookie jar carrying the platform's session cookies, a
// creation timestamp and a credentials fingerprint for change detection.
type Session struct {
	path string

	mu       sync.Mutex
	token    string
	created  time.Time
	hash     string
	isMapped bool

	jar *CookieJar
}

type sessionRecord struct {
	Token     string         `json:"token"`
	CreatedMs int64          `json:"created"`
	Hash      string         `json:"hash"`
	Cookies   []storedCookie `json:"cookies"`
}

// NewSession creates an empty session backed by the given file path.
// An empty path is a programmer error and fails before any I/O.
func NewSession(path string) (*Session, error) {
	if path == "" {
		return nil, newError(CodeStorageFailure, "invalid path for the session file")
	}
	return &Session{
		path: path,
		jar:  NewCookieJar(),
	}, nil
}

// Create initializes a fresh in-memory session: new cookie jar, current
// timestamp, fingerprint of the credentials.
func (s *Session) Create(username, password, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.created = time.Now().Truncate(time.Millisecond)
	s.hash = fingerprint(username, password)
	s.isMapped = false
	s.jar = NewCookieJar()
}

func fingerprint(username, password string) string {
	sum := sha256.Sum256([]byte(username + ":" + password))
	return hex.EncodeToString(sum[:])
}

// Save writes the serialized session to the backing path. The write goes
// through a temp file and rename so the file is complete on success.
func (s *Session) Save() error {
	s.mu.Lock()
	record := sessionRecord{
		Token:     s.token,
		CreatedMs: s.created.UnixMilli(),
		Hash:      s.hash,
		Cookies:   s.jar.export(),
	}
	s.mu.Unlock()

	serialized, err := json.Marshal(record)
	if err != nil {
		return wrapError(CodeStorageFailure, "failed to serialize session", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return wrapError(CodeStorageFailure, "failed to write session file", err)
	}
	_, err = tmp.Write(serialized)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return wrapError(CodeStorageFailure, "failed to write session file", err)
	}
	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		os.Remove(tmp.Name())
		return wrapError(CodeStorageFailure, "failed to write session file", err)
	}
	return nil
}

// Load restores the session from the backing path.
func (s *Session) Load() error {
	serialized, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return wrapError(CodeSessionNotFound, fmt.Sprintf("no session file at %s", s.path), err)
	}
	if err != nil {
		return wrapError(CodeStorageFailure, "failed to read session file", err)
	}

	var record sessionRecord
	err = json.Unmarshal(serialized, &record)
	if err != nil {
		return wrapError(CodeCorruptSessionData, "session file cannot be parsed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = record.Token
	s.created = time.UnixMilli(record.CreatedMs)
	s.hash = record.Hash
	s.jar.restore(record.Cookies)
	s.isMapped = true
	return nil
}

// Delete removes the backing file. Already absent is not an error.
func (s *Session) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return wrapError(CodeStorageFailure, "failed to delete session file", err)
	}
	return nil
}

// DeleteSessionCookies retains the identity cookie and discards all other
// cookies for the platform's domain. Cookies of other domains are never
// touched.
func (s *Session) DeleteSessionCookies() {
	s.jar.RetainOnly(platformHost(), cookieUser)
}

// UpdateToken replaces the anti-forgery token. Cookies are unaffected.
func (s *Session) UpdateToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// IsValid reports whether the jar holds the identity cookie for the
// platform. A pure read; it never touches the network.
func (s *Session) IsValid(username, password string) bool {
	return s.jar.Get(platformHost(), cookieUser) != nil
}

func platformHost() string {
	u, _ := url.Parse(BaseURL)
	return u.Hostname()
}

func (s *Session) Path() string { return s.path }

func (s *Session) Jar() *CookieJar { return s.jar }

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Created() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

func (s *Session) Hash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hash
}

// IsMapped reports whether the session was restored from disk.
func (s *Session) IsMapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isMapped
}
