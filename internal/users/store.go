package users

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AdminUsername is the bootstrap account. It can change its password but
// can never be deleted.
const AdminUsername = "admin"

const defaultAdminPassword = "admin"

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminUndeletable   = errors.New("the admin user cannot be deleted")
)

// Record is one entry of the users file
type Record struct {
	PasswordHash string `json:"password_hash"`
	ID           string `json:"id"`
}

// User is the public view of an account
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// IsAdmin reports whether u is the bootstrap admin
func (u User) IsAdmin() bool {
	return u.Username == AdminUsername
}

// Store keeps operator credentials in a JSON file keyed by username
type Store struct {
	mu          sync.Mutex
	path        string
	cost        int
	fileManager *common.FileManager
	logger      zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithBcryptCost overrides the hashing cost, mainly so tests stay fast
func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

// NewStore creates a Store backed by path. A missing file is created with
// the default admin account.
func NewStore(path string, logger zerolog.Logger, opts ...Option) (*Store, error) {
	storeLogger := logger.With().Str("component", "UserStore").Logger()
	s := &Store{
		path:        path,
		cost:        bcrypt.DefaultCost,
		fileManager: common.NewFileManager(storeLogger),
		logger:      storeLogger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Authenticate checks a username and password pair
func (s *Store) Authenticate(username, password string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return User{}, err
	}
	rec, ok := records[username]
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return User{ID: rec.ID, Username: username}, nil
}

// Get looks up a user by name
func (s *Store) Get(username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return User{}, err
	}
	rec, ok := records[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return User{ID: rec.ID, Username: username}, nil
}

// List returns every user ordered by numeric id
func (s *Store) List() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(records))
	for name, rec := range records {
		out = append(out, User{ID: rec.ID, Username: name})
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		if a != b {
			return a < b
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// Add creates a user with the next free id
func (s *Store) Add(username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, common.NewValidationError("username", username, "username is required")
	}
	if password == "" {
		return User{}, common.NewValidationError("password", "", "password is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return User{}, err
	}
	if _, exists := records[username]; exists {
		return User{}, ErrUserExists
	}

	hash, err := s.hash(password)
	if err != nil {
		return User{}, err
	}
	id := strconv.Itoa(maxID(records) + 1)
	records[username] = Record{PasswordHash: hash, ID: id}
	if err := s.save(records); err != nil {
		return User{}, err
	}

	s.logger.Info().Str("username", username).Str("id", id).Msg("User added")
	return User{ID: id, Username: username}, nil
}

// Delete removes a user. The admin account is refused.
func (s *Store) Delete(username string) error {
	if username == AdminUsername {
		return ErrAdminUndeletable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[username]; !ok {
		return ErrUserNotFound
	}
	delete(records, username)
	if err := s.save(records); err != nil {
		return err
	}

	s.logger.Info().Str("username", username).Msg("User deleted")
	return nil
}

// ChangePassword replaces the hash of an existing user
func (s *Store) ChangePassword(username, password string) error {
	if password == "" {
		return common.NewValidationError("password", "", "password is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	rec, ok := records[username]
	if !ok {
		return ErrUserNotFound
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	rec.PasswordHash = hash
	records[username] = rec
	if err := s.save(records); err != nil {
		return err
	}

	s.logger.Info().Str("username", username).Msg("Password changed")
	return nil
}

// load reads the users file, bootstrapping it when missing. Caller holds mu.
func (s *Store) load() (map[string]Record, error) {
	records := map[string]Record{}
	found, err := s.fileManager.ReadJSON(s.path, &records)
	if err != nil {
		return nil, common.NewStoreError("load users", err)
	}
	if found {
		return records, nil
	}

	hash, err := s.hash(defaultAdminPassword)
	if err != nil {
		return nil, err
	}
	records = map[string]Record{AdminUsername: {PasswordHash: hash, ID: "1"}}
	if err := s.save(records); err != nil {
		return nil, err
	}
	s.logger.Warn().Str("path", s.path).Msg("Users file missing, created default admin account")
	return records, nil
}

func (s *Store) save(records map[string]Record) error {
	if err := s.fileManager.WriteJSONAtomic(s.path, records); err != nil {
		return common.NewStoreError("save users", err)
	}
	return nil
}

func (s *Store) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", common.WrapError(err, "failed to hash password")
	}
	return string(b), nil
}

func maxID(records map[string]Record) int {
	highest := 0
	for _, rec := range records {
		if n, err := strconv.Atoi(rec.ID); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}
