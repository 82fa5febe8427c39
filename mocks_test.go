package auth_test

import (
	"context"
	"database/sql"

	"github.com/blogtype/auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUserTracker implements auth.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) GetByOAuth(ctx context.Context, provider, oauthID string) (*auth.User, error) {
	args := m.Called(ctx, provider, oauthID)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockMailer implements auth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationLink(ctx context.Context, to, link, name string) error {
	args := m.Called(ctx, to, link, name)
	return args.Error(0)
}

// stubUsers overrides the handful of Users methods the workflows touch.
// Calling anything else panics through the embedded nil interface,
// which is what we want in tests.
type stubUsers struct {
	auth.Users

	byUsername map[string]*auth.User
	byEmail    map[string]*auth.User
	byOAuth    map[string]*auth.User

	created  []*auth.User
	updated  []*auth.User
	verified []string

	markVerifiedApplied bool
	failLookups         error
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byUsername:          map[string]*auth.User{},
		byEmail:             map[string]*auth.User{},
		byOAuth:             map[string]*auth.User{},
		markVerifiedApplied: true,
	}
}

func (s *stubUsers) add(user *auth.User) *stubUsers {
	if user.Username != "" {
		s.byUsername[user.Username] = user
	}
	if user.Email != "" {
		s.byEmail[user.Email] = user
	}
	if user.OAuthProvider != "" {
		s.byOAuth[user.OAuthProvider+"/"+user.OAuthID] = user
	}
	return s
}

func (s *stubUsers) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	if s.failLookups != nil {
		return nil, s.failLookups
	}
	if user, ok := s.byUsername[username]; ok {
		return user, nil
	}
	return nil, notFoundErr("username", username)
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.failLookups != nil {
		return nil, s.failLookups
	}
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, notFoundErr("email", email)
}

func (s *stubUsers) GetByOAuth(ctx context.Context, provider, oauthID string) (*auth.User, error) {
	if s.failLookups != nil {
		return nil, s.failLookups
	}
	if user, ok := s.byOAuth[provider+"/"+oauthID]; ok {
		return user, nil
	}
	return nil, notFoundErr("oauth", provider+"/"+oauthID)
}

func (s *stubUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	if err := auth.ValidateCredentials(user); err != nil {
		return nil, err
	}
	return s.CreateTx(ctx, tx, user)
}

func (s *stubUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.created = append(s.created, record)
	return record, nil
}

func (s *stubUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.UpdateCriteria) (*auth.User, error) {
	s.updated = append(s.updated, record)
	return record, nil
}

func (s *stubUsers) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	s.verified = append(s.verified, id.String())
	return s.markVerifiedApplied, nil
}

func (s *stubUsers) IncrementBlogCountTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*auth.User, error) {
	for _, user := range s.byUsername {
		if user.ID == id {
			user.BlogCount++
			return user, nil
		}
	}
	return nil, notFoundErr("id", id.String())
}

// stubBlogs captures created blog records.
type stubBlogs struct {
	auth.Blogs

	created []*auth.Blog
}

func (s *stubBlogs) CreateTx(ctx context.Context, tx bun.IDB, record *auth.Blog, criteria ...repository.InsertCriteria) (*auth.Blog, error) {
	if record.BlogID == "" {
		blogID, err := auth.NewBlogID()
		if err != nil {
			return nil, err
		}
		record.BlogID = blogID
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.created = append(s.created, record)
	return record, nil
}

// fakeRepoManager satisfies auth.RepositoryManager without a database.
// Transactions run the callback against a zero bun.Tx, the stubs below
// never touch it.
type fakeRepoManager struct {
	users auth.Users
	blogs auth.Blogs
}

func (f *fakeRepoManager) Validate() error { return nil }
func (f *fakeRepoManager) MustValidate() {}

func (f *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepoManager) Users() auth.Users { return f.users }
func (f *fakeRepoManager) Blogs() auth.Blogs { return f.blogs }

func notFoundErr(key, value string) error {
	return repository.NewRecordNotFound().WithMetadata(map[string]any{key: value})
}

func newTestTokenService() auth.TokenService {
	return auth.NewTokenService([]byte("test-signing-key"), 1, "blogtype-test", nil, nil)
}
