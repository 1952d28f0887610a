package auth

import (
	"context"
	"errors"
	"sync"

	"playlist_auth/internal/lib/password"
	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"
)

// fakeUserStore enforces username/email uniqueness like the real schema.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User

	lookupErr error
	saveErr   error
	// hideOnPrecheck makes the Exists calls lie, simulating a racing insert.
	hideOnPrecheck bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) SaveUser(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return storage.ErrUsernameTaken
		}
		if existing.Email == u.Email {
			return storage.ErrEmailTaken
		}
	}

	s.users[u.ID] = u

	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID, passHash, salt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}

	u.PassHash, u.Salt = passHash, salt
	s.users[userID] = u

	return nil
}

func (s *fakeUserStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return storage.ErrUserNotFound
	}

	delete(s.users, userID)

	return nil
}

func (s *fakeUserStore) find(match func(models.User) bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lookupErr != nil {
		return models.User{}, s.lookupErr
	}

	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}

	return models.User{}, storage.ErrUserNotFound
}

func (s *fakeUserStore) UserByUsername(_ context.Context, username string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *fakeUserStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *fakeUserStore) UserByID(_ context.Context, id string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *fakeUserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	if s.hideOnPrecheck {
		return false, nil
	}

	_, err := s.UserByUsername(ctx, username)
	return existsResult(err)
}

func (s *fakeUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	if s.hideOnPrecheck {
		return false, nil
	}

	_, err := s.UserByEmail(ctx, email)
	return existsResult(err)
}

func existsResult(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *fakeUserStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []models.Message
	err  error
}

func (p *fakePublisher) SendMessage(_ context.Context, msg models.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	p.sent = append(p.sent, msg)

	return nil
}

func (p *fakePublisher) messages() []models.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]models.Message(nil), p.sent...)
}

type failingHasher struct{}

func (failingHasher) Hash(string) (password.Hash, error) {
	return password.Hash{}, password.ErrHashingFailure
}

func (failingHasher) Verify(string, string, string) (bool, error) {
	return false, password.ErrHashingFailure
}

type failingIssuer struct{}

func (failingIssuer) Issue(string) (string, error) {
	return "", errors.New("signing failed")
}
