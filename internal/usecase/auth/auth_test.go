package auth_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xueshanchen/picbed/internal/dto"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/internal/infrastructure/token"
	"github.com/xueshanchen/picbed/internal/usecase/auth"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

type fakeUserRepo struct {
	users      map[uuid.UUID]*entity.User
	lastLogins map[uuid.UUID]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*entity.User{}, lastLogins: map[uuid.UUID]bool{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	f.users[u.ID] = u

	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	return u, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}

	return nil, errs.ErrRecordNotFound
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email != nil && *u.Email == email {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeUserRepo) Count(context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	f.lastLogins[id] = true

	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return errs.ErrRecordNotFound
	}

	delete(f.users, id)

	return nil
}

type stubImages struct {
	deletedFor []uuid.UUID
}

func (s *stubImages) Upload(context.Context, *entity.User, dto.UploadImage) (*entity.Image, string, error) {
	return nil, "", nil
}
func (s *stubImages) GetInfo(context.Context, uuid.UUID) (*entity.Image, error) { return nil, nil }
func (s *stubImages) GetInfoByFileName(context.Context, string) (*entity.Image, error) {
	return nil, nil
}
func (s *stubImages) List(context.Context, dto.ListImages) ([]*entity.Image, error) {
	return nil, nil
}
func (s *stubImages) Delete(context.Context, uuid.UUID) error { return nil }
func (s *stubImages) DeleteAllByUser(_ context.Context, userID uuid.UUID) error {
	s.deletedFor = append(s.deletedFor, userID)

	return nil
}
func (s *stubImages) Stream(context.Context, string) (io.ReadCloser, error)          { return nil, nil }
func (s *stubImages) StreamThumbnail(context.Context, string) (io.ReadCloser, error) { return nil, nil }

type fixture struct {
	uc     *auth.UseCase
	users  *fakeUserRepo
	images *stubImages
}

func newFixture(cascade bool) *fixture {
	f := &fixture{users: newFakeUserRepo(), images: &stubImages{}}

	f.uc = auth.New(
		f.users,
		token.New("token-secret", 7*24*time.Hour),
		f.images,
		auth.Options{
			PasswordSecret: "password-secret",
			AdminUsername:  "admin",
			AdminPassword:  "admin-password",
			AdminEmail:     "admin@example.com",
			CascadeDelete:  cascade,
		},
		nopLogger{},
	)

	return f
}

func TestEnsureAdminSeedsEmptyTable(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	require.NoError(t, f.uc.EnsureAdmin(ctx))
	require.Len(t, f.users.users, 1)

	admin, err := f.users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.True(t, admin.IsActive)
	require.NotEmpty(t, admin.PasswordHash)
	require.NotEqual(t, "admin-password", admin.PasswordHash)

	// second run must not duplicate
	require.NoError(t, f.uc.EnsureAdmin(ctx))
	require.Len(t, f.users.users, 1)
}

func TestLoginAdmin(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	require.NoError(t, f.uc.EnsureAdmin(ctx))

	tok, user, err := f.uc.Login(ctx, "admin", "admin-password")
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, "admin", user.Username)
	require.True(t, f.users.lastLogins[user.ID])

	validated, err := f.uc.Validate(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, user.ID, validated.ID)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	require.NoError(t, f.uc.EnsureAdmin(ctx))

	_, _, wrongPassword := f.uc.Login(ctx, "admin", "nope")
	require.ErrorIs(t, wrongPassword, errs.ErrInvalidCredentials)

	_, _, noUser := f.uc.Login(ctx, "ghost", "nope")
	require.ErrorIs(t, noUser, errs.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	_, user, err := f.uc.Register(ctx, "bob", "hunter2", nil)
	require.NoError(t, err)

	user.IsActive = false

	_, _, err = f.uc.Login(ctx, "bob", "hunter2")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	email := "bob@example.com"
	tok, user, err := f.uc.Register(ctx, "bob", "hunter2", &email)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, "bob", user.Username)

	_, _, err = f.uc.Login(ctx, "bob", "hunter2")
	require.NoError(t, err)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	_, _, err := f.uc.Register(ctx, "bob", "hunter2", nil)
	require.NoError(t, err)

	_, _, err = f.uc.Register(ctx, "bob", "other", nil)
	require.ErrorIs(t, err, errs.ErrUsernameTaken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	email := "shared@example.com"
	_, _, err := f.uc.Register(ctx, "bob", "hunter2", &email)
	require.NoError(t, err)

	_, _, err = f.uc.Register(ctx, "carol", "hunter3", &email)
	require.ErrorIs(t, err, errs.ErrEmailTaken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	f := newFixture(false)

	_, err := f.uc.Validate(context.Background(), "not-a-token")
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestValidateRejectsDeletedUser(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	tok, user, err := f.uc.Register(ctx, "bob", "hunter2", nil)
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, user.ID))

	_, err = f.uc.Validate(ctx, tok)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	_, bob, err := f.uc.Register(ctx, "bob", "hunter2", nil)
	require.NoError(t, err)
	_, carol, err := f.uc.Register(ctx, "carol", "hunter3", nil)
	require.NoError(t, err)

	err = f.uc.DeleteUser(ctx, bob, carol.ID)
	require.ErrorIs(t, err, errs.ErrNotAllowed)
}

func TestDeleteUserCannotRemoveAdmin(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	require.NoError(t, f.uc.EnsureAdmin(ctx))

	admin, err := f.users.GetByUsername(ctx, "admin")
	require.NoError(t, err)

	err = f.uc.DeleteUser(ctx, admin, admin.ID)
	require.ErrorIs(t, err, errs.ErrNotAllowed)
}

func TestDeleteUserCascade(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	require.NoError(t, f.uc.EnsureAdmin(ctx))

	admin, err := f.users.GetByUsername(ctx, "admin")
	require.NoError(t, err)

	_, bob, err := f.uc.Register(ctx, "bob", "hunter2", nil)
	require.NoError(t, err)

	err = f.uc.DeleteUser(ctx, admin, bob.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{bob.ID}, f.images.deletedFor)

	_, err = f.users.GetByID(ctx, bob.ID)
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestDeleteUserNoCascadeByDefault(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	require.NoError(t, f.uc.EnsureAdmin(ctx))

	admin, err := f.users.GetByUsername(ctx, "admin")
	require.NoError(t, err)

	_, bob, err := f.uc.Register(ctx, "bob", "hunter2", nil)
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteUser(ctx, admin, bob.ID))
	require.Empty(t, f.images.deletedFor)
}
