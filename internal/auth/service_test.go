package auth

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/campuslink/campuslink-backend/internal/users"
	pkgauth "github.com/campuslink/campuslink-backend/pkg/auth"
	"github.com/campuslink/campuslink-backend/pkg/config"
	"github.com/campuslink/campuslink-backend/pkg/db/models"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/campuslink/campuslink-backend/pkg/logger"
	"github.com/campuslink/campuslink-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	byEmail   map[string]*models.User
	createErr error
	lastLogin *time.Time
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[dto.Email]; exists {
		return nil, errDuplicate
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	f.byEmail[dto.Email] = user
	return user, nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin = &at
	return nil
}

// errDuplicate mimics the driver's unique-violation text that
// db.IsUniqueViolation matches on.
var errDuplicate = &textError{msg: "duplicate key value violates unique constraint \"users_email_key\""}

type textError struct{ msg string }

func (e *textError) Error() string { return e.msg }

type fakeCodeStore struct {
	codes map[string]string
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]string)}
}

func (f *fakeCodeStore) Generate(ctx context.Context, destination string) (string, error) {
	f.codes[destination] = "123456"
	return "123456", nil
}

func (f *fakeCodeStore) Verify(ctx context.Context, destination, code string, consume bool) (bool, error) {
	stored, ok := f.codes[destination]
	if !ok || stored != code {
		return false, nil
	}
	if consume {
		delete(f.codes, destination)
	}
	return true, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "campuslink-test",
		ExpirationMinutes: 30,
	}
}

func newTestService(t *testing.T, store UserStore, codes CodeStore) Service {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(store, codes, testJWTConfig(), config.PasswordConfig{}, log)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestService_RegisterHashesPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeCodeStore())

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Student@Campus.EDU",
		Password:  "correct-horse",
		FirstName: "Priya",
		LastName:  "N",
	})
	if err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if user.Email != "student@campus.edu" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", user.PasswordHash)
	}
	ok, err := security.VerifyPassword("correct-horse", user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeCodeStore())

	input := RegisterInput{Email: "student@campus.edu", Password: "correct-horse", FirstName: "Priya"}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("unexpected first register error: %v", err)
	}
	_, err := svc.Register(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestService_RegisterWeakPassword(t *testing.T) {
	svc := newTestService(t, newFakeUserStore(), newFakeCodeStore())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "student@campus.edu",
		Password:  "short",
		FirstName: "Priya",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_LoginMintsToken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeCodeStore())

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email:     "student@campus.edu",
		Password:  "correct-horse",
		FirstName: "Priya",
	}); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	result, err := svc.Login(context.Background(), "student@campus.edu", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Fatalf("expected token for %s, got %s", result.User.ID, claims.UserID)
	}
	if store.lastLogin == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestService_LoginWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeCodeStore())

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email:     "student@campus.edu",
		Password:  "correct-horse",
		FirstName: "Priya",
	}); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	_, err := svc.Login(context.Background(), "student@campus.edu", "wrong-horse")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestService_LoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, newFakeUserStore(), newFakeCodeStore())

	_, err := svc.Login(context.Background(), "ghost@campus.edu", "whatever-pass")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestService_LoginDisabledAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store, newFakeCodeStore())

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email:     "student@campus.edu",
		Password:  "correct-horse",
		FirstName: "Priya",
	}); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	store.byEmail["student@campus.edu"].IsActive = false

	_, err := svc.Login(context.Background(), "student@campus.edu", "correct-horse")
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestService_OTPRoundTrip(t *testing.T) {
	codes := newFakeCodeStore()
	svc := newTestService(t, newFakeUserStore(), codes)

	if err := svc.RequestOTP(context.Background(), "Student@Campus.edu"); err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	if err := svc.VerifyOTP(context.Background(), "student@campus.edu", "123456"); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	// Consumed: a second verify fails.
	err := svc.VerifyOTP(context.Background(), "student@campus.edu", "123456")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
