package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"quizforge-backend/internal/middleware"
	"quizforge-backend/internal/models"
)

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	user.ID = uuid.New()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.IsActive = true
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeUserStore) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if u, err := s.GetByUsername(ctx, login); err == nil {
		return u, nil
	}
	return s.GetByEmail(ctx, login)
}

func (s *fakeUserStore) VerifyEmail(_ context.Context, id uuid.UUID) error {
	if u, ok := s.users[id]; ok {
		u.IsVerified = true
		return nil
	}
	return pgx.ErrNoRows
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newFakeUserStore()
	svc := NewAuthService(store, client, middleware.NewJWTAuth("test-secret"))
	return svc, store, mr
}

func seedUser(t *testing.T, store *fakeUserStore, username, email, password string, verified bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsVerified:   verified,
	}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	if verified {
		store.users[user.ID].IsVerified = true
	}
	return store.users[user.ID]
}

func TestRegister(t *testing.T) {
	svc, store, mr := newAuthFixture(t)

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.IsVerified {
		t.Error("New user should start unverified")
	}
	if _, ok := store.users[user.ID]; !ok {
		t.Error("User was not persisted")
	}

	code, err := mr.Get("email_verify:gopher@example.com")
	if err != nil {
		t.Fatalf("Verification code not stored: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("Expected 6-digit code, got %q", code)
	}

	payload, err := mr.Lpop(EmailQueueKey)
	if err != nil {
		t.Fatalf("Email job not queued: %v", err)
	}
	var job EmailJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		t.Fatalf("Email job not valid JSON: %v", err)
	}
	if job.To != "gopher@example.com" || job.Kind != EmailKindVerification || job.Code != code {
		t.Errorf("Unexpected email job: %+v", job)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "ab",
		Email:    "not-an-email",
		Password: "short",
	})

	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	for _, field := range []string{"username", "email", "password"} {
		if ve.Fields[field] == "" {
			t.Errorf("Expected validation message for %s", field)
		}
	}
}

func TestRegister_PasswordNeedsNumber(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "allletters",
	})

	ve, ok := err.(*ValidationError)
	if !ok || ve.Fields["password"] == "" {
		t.Errorf("Expected password validation error, got %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	seedUser(t, store, "gopher", "first@example.com", "secret123", true)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "Gopher",
		Email:    "second@example.com",
		Password: "secret123",
	})

	if _, ok := err.(*ConflictError); !ok {
		t.Errorf("Expected ConflictError, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, store, mr := newAuthFixture(t)
	user := seedUser(t, store, "gopher", "gopher@example.com", "secret123", false)
	mr.Set("email_verify:gopher@example.com", "123456")

	tokens, err := svc.VerifyEmail(context.Background(), models.VerifyEmailRequest{
		Email: "gopher@example.com",
		Code:  "123456",
	})
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("Expected tokens after verification")
	}
	if !store.users[user.ID].IsVerified {
		t.Error("User should be marked verified")
	}
	if mr.Exists("email_verify:gopher@example.com") {
		t.Error("Verification code should be consumed")
	}
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	svc, store, mr := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", false)
	mr.Set("email_verify:gopher@example.com", "123456")

	_, err := svc.VerifyEmail(context.Background(), models.VerifyEmailRequest{
		Email: "gopher@example.com",
		Code:  "000000",
	})

	if _, ok := err.(*UnauthorizedError); !ok {
		t.Errorf("Expected UnauthorizedError, got %v", err)
	}
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", false)

	_, err := svc.VerifyEmail(context.Background(), models.VerifyEmailRequest{
		Email: "gopher@example.com",
		Code:  "123456",
	})

	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, store, mr := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", true)

	// Username and email both work as login
	for _, login := range []string{"gopher", "gopher@example.com"} {
		tokens, err := svc.Login(context.Background(), models.LoginRequest{Login: login, Password: "secret123"})
		if err != nil {
			t.Fatalf("Login with %q failed: %v", login, err)
		}
		if tokens.ExpiresIn != 900 {
			t.Errorf("Expected expires_in 900, got %d", tokens.ExpiresIn)
		}
		if !mr.Exists("refresh:" + tokens.RefreshToken) {
			t.Error("Refresh token not stored")
		}
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "gopher", Password: "wrong"})

	if _, ok := err.(*UnauthorizedError); !ok {
		t.Errorf("Expected UnauthorizedError, got %v", err)
	}
}

func TestLogin_Unverified(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", false)

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "gopher", Password: "secret123"})

	if _, ok := err.(*ForbiddenError); !ok {
		t.Errorf("Expected ForbiddenError, got %v", err)
	}
}

func TestRefreshToken_Rotation(t *testing.T) {
	svc, store, mr := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", true)

	tokens, err := svc.Login(context.Background(), models.LoginRequest{Login: "gopher", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rotated, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}

	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("Refresh should rotate the token")
	}
	if mr.Exists("refresh:" + tokens.RefreshToken) {
		t.Error("Old refresh token should be revoked")
	}

	// The old token must not work twice
	if _, err := svc.RefreshToken(context.Background(), tokens.RefreshToken); err == nil {
		t.Error("Expected reuse of rotated token to fail")
	}
}

func TestLogout(t *testing.T) {
	svc, store, mr := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", true)

	tokens, err := svc.Login(context.Background(), models.LoginRequest{Login: "gopher", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if mr.Exists("refresh:" + tokens.RefreshToken) {
		t.Error("Refresh token should be revoked on logout")
	}
}

func TestResendVerification_RateLimited(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", false)

	if err := svc.ResendVerification(context.Background(), "gopher@example.com"); err != nil {
		t.Fatalf("First resend failed: %v", err)
	}

	err := svc.ResendVerification(context.Background(), "gopher@example.com")
	if _, ok := err.(*RateLimitError); !ok {
		t.Errorf("Expected RateLimitError, got %v", err)
	}
}

func TestResendVerification_AlreadyVerified(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	seedUser(t, store, "gopher", "gopher@example.com", "secret123", true)

	err := svc.ResendVerification(context.Background(), "gopher@example.com")
	if _, ok := err.(*ConflictError); !ok {
		t.Errorf("Expected ConflictError, got %v", err)
	}
}
