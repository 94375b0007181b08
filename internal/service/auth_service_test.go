package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"
	"time"

	"homedash/internal/models"
	"homedash/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

const testSigningKey = "test-signing-key"

// mockAuthRepo is a lightweight in-test mock for repository.Authorization.
type mockAuthRepo struct {
	CreateFn         func(email, hash string) (string, error)
	GetByEmailFn     func(email string) (*models.User, error)
	UpdatePasswordFn func(id, hash string) error

	createCalls []struct {
		email string
		hash  string
	}
	getCalls []string
}

func (m *mockAuthRepo) Create(email, hash string) (string, error) {
	m.createCalls = append(m.createCalls, struct {
		email string
		hash  string
	}{email: email, hash: hash})
	return m.CreateFn(email, hash)
}

func (m *mockAuthRepo) GetByEmail(email string) (*models.User, error) {
	m.getCalls = append(m.getCalls, email)
	return m.GetByEmailFn(email)
}

func (m *mockAuthRepo) GetByID(id string) (*models.User, error) { return nil, nil }

func (m *mockAuthRepo) UpdatePassword(id, hash string) error {
	if m.UpdatePasswordFn == nil {
		return nil
	}
	return m.UpdatePasswordFn(id, hash)
}

// fakeTokens keeps reset tokens and revocations in memory.
type fakeTokens struct {
	mu      sync.Mutex
	resets  map[string]string
	revoked map[string]time.Time
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{resets: map[string]string{}, revoked: map[string]time.Time{}}
}

func (f *fakeTokens) SaveReset(_ context.Context, token, userID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[token] = userID
	return nil
}

func (f *fakeTokens) ConsumeReset(_ context.Context, token string, _ time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.resets[token]
	if !ok {
		return "", repository.ErrResetNotFound
	}
	delete(f.resets, token)
	return uid, nil
}

func (f *fakeTokens) Revoke(_ context.Context, jti string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = exp
	return nil
}

func (f *fakeTokens) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[jti]
	return ok, nil
}

// captureMailer records the last reset it was asked to deliver.
type captureMailer struct {
	email, token string
	sent         int
}

func (c *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	c.email, c.token = email, token
	c.sent++
	return nil
}

func newTestAuth(repo *mockAuthRepo) (*AuthService, *fakeTokens, *captureMailer) {
	tokens := newFakeTokens()
	mailer := &captureMailer{}
	svc := NewAuthService(repo, tokens, mailer, AuthOptions{SigningKey: testSigningKey})
	return svc, tokens, mailer
}

// --- SignUp tests ---

func TestAuthService_SignUp_SuccessHashesPasswordAndCallsRepo(t *testing.T) {
	mock := &mockAuthRepo{
		CreateFn: func(email, hash string) (string, error) {
			return "uid-42", nil
		},
	}
	svc, _, _ := newTestAuth(mock)

	id, err := svc.SignUp("  Alice@Example.com ", "s3cr3t")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if id != "uid-42" {
		t.Fatalf("expected id uid-42, got %q", id)
	}

	if len(mock.createCalls) != 1 {
		t.Fatalf("expected 1 Create call, got %d", len(mock.createCalls))
	}
	call := mock.createCalls[0]
	if call.email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", call.email)
	}
	if call.hash == "s3cr3t" {
		t.Errorf("expected hashed password not equal to raw password")
	}
	if err := verifyPassword(call.hash, "s3cr3t"); err != nil {
		t.Errorf("stored hash does not verify with original password: %v", err)
	}
}

func TestAuthService_SignUp_RejectsBadInput(t *testing.T) {
	mock := &mockAuthRepo{
		CreateFn: func(email, hash string) (string, error) {
			t.Fatal("Create should not be called for invalid input")
			return "", nil
		},
	}
	svc, _, _ := newTestAuth(mock)

	if _, err := svc.SignUp("bob@example.com", "12345"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := svc.SignUp("not-an-email", "123456"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := normalizeEmail("  Bob@Example.COM ")
	if err != nil || got != "bob@example.com" {
		t.Fatalf("normalizeEmail = %q, %v", got, err)
	}
	for _, bad := range []string{"", "   ", "not-an-email", "Bob <bob@example.com>", "bob@@example.com"} {
		if _, err := normalizeEmail(bad); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("normalizeEmail(%q): expected ErrInvalidEmail, got %v", bad, err)
		}
	}
}

func TestAuthService_SignUp_RepoError(t *testing.T) {
	mock := &mockAuthRepo{
		CreateFn: func(email, hash string) (string, error) {
			return "", repository.ErrEmailTaken
		},
	}
	svc, _, _ := newTestAuth(mock)

	_, err := svc.SignUp("carl@example.com", "pass123")
	if !errors.Is(err, repository.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

// --- GenerateToken tests ---

func TestAuthService_GenerateToken_Success(t *testing.T) {
	hash, err := hashPassword("letmein")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	user := &models.User{ID: "uid-7", Email: "diana@example.com", PasswordHash: hash}

	mock := &mockAuthRepo{
		GetByEmailFn: func(email string) (*models.User, error) {
			if email != "diana@example.com" {
				t.Fatalf("expected email 'diana@example.com', got %q", email)
			}
			return user, nil
		},
	}
	svc, _, _ := newTestAuth(mock)

	token, err := svc.GenerateToken("Diana@example.com", "letmein")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	uid, err := svc.ParseToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if uid != "uid-7" {
		t.Fatalf("expected user id uid-7 from token, got %q", uid)
	}
}

func TestAuthService_GenerateToken_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	correctHash, err := hashPassword("correct")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	mock := &mockAuthRepo{
		GetByEmailFn: func(email string) (*models.User, error) {
			if email == "eve@example.com" {
				return &models.User{ID: "uid-1", Email: email, PasswordHash: correctHash}, nil
			}
			return nil, nil
		},
	}
	svc, _, _ := newTestAuth(mock)

	if _, err := svc.GenerateToken("eve@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
	if _, err := svc.GenerateToken("ghost@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestAuthService_GenerateToken_RepoError(t *testing.T) {
	mock := &mockAuthRepo{
		GetByEmailFn: func(email string) (*models.User, error) {
			return nil, errors.New("query failed")
		},
	}
	svc, _, _ := newTestAuth(mock)

	if _, err := svc.GenerateToken("john@example.com", "pw1234"); err == nil {
		t.Fatalf("expected repo error, got nil")
	}
}

// --- ParseToken / SignOut tests ---

func TestAuthService_SignOut_RevokesToken(t *testing.T) {
	svc, tokens, _ := newTestAuth(&mockAuthRepo{})
	token, err := svc.issueToken("uid-99")
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}
	ctx := context.Background()

	if uid, err := svc.ParseToken(ctx, token); err != nil || uid != "uid-99" {
		t.Fatalf("ParseToken before sign-out: uid=%q err=%v", uid, err)
	}
	if err := svc.SignOut(ctx, token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(tokens.revoked) != 1 {
		t.Fatalf("expected one revoked jti, got %d", len(tokens.revoked))
	}
	if _, err := svc.ParseToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after sign-out, got %v", err)
	}
}

func TestAuthService_ParseToken_Malformed(t *testing.T) {
	svc, _, _ := newTestAuth(&mockAuthRepo{})
	if _, err := svc.ParseToken(context.Background(), "not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestAuthService_ParseToken_InvalidSignature(t *testing.T) {
	svc, _, _ := newTestAuth(&mockAuthRepo{})

	now := time.Now()
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-5",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	badToken, err := tk.SignedString([]byte("different-key"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := svc.ParseToken(context.Background(), badToken); err == nil {
		t.Fatalf("expected signature verification error")
	}
}

func TestAuthService_ParseToken_Expired(t *testing.T) {
	svc, _, _ := newTestAuth(&mockAuthRepo{})

	past := time.Now().Add(-2 * time.Hour)
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-11",
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Minute)),
		},
	})
	expiredToken, err := tk.SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := svc.ParseToken(context.Background(), expiredToken); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestAuthService_ParseToken_UnexpectedAlg(t *testing.T) {
	svc, _, _ := newTestAuth(&mockAuthRepo{})

	now := time.Now()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}

	tk := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-12",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	tokenStr, err := tk.SignedString(privateKey)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := svc.ParseToken(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected error due to unexpected signing method")
	}
}

// --- Password reset tests ---

func TestAuthService_ResetPassword_RoundTrip(t *testing.T) {
	var newHash string
	mock := &mockAuthRepo{
		GetByEmailFn: func(email string) (*models.User, error) {
			return &models.User{ID: "uid-3", Email: email}, nil
		},
		UpdatePasswordFn: func(id, hash string) error {
			if id != "uid-3" {
				t.Fatalf("unexpected user id %q", id)
			}
			newHash = hash
			return nil
		},
	}
	svc, _, mailer := newTestAuth(mock)
	ctx := context.Background()

	if err := svc.ResetPassword(ctx, "frank@example.com"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if mailer.sent != 1 || mailer.email != "frank@example.com" || mailer.token == "" {
		t.Fatalf("unexpected mail: %+v", mailer)
	}

	if err := svc.ConfirmReset(ctx, mailer.token, "brand-new"); err != nil {
		t.Fatalf("ConfirmReset: %v", err)
	}
	if err := verifyPassword(newHash, "brand-new"); err != nil {
		t.Fatalf("new hash does not verify: %v", err)
	}

	// tokens are single use
	if err := svc.ConfirmReset(ctx, mailer.token, "another1"); !errors.Is(err, ErrInvalidReset) {
		t.Fatalf("expected ErrInvalidReset on reuse, got %v", err)
	}
}

func TestAuthService_ResetPassword_UnknownEmailIsSilent(t *testing.T) {
	mock := &mockAuthRepo{
		GetByEmailFn: func(email string) (*models.User, error) { return nil, nil },
	}
	svc, _, mailer := newTestAuth(mock)

	if err := svc.ResetPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if mailer.sent != 0 {
		t.Fatalf("no mail should be sent for unknown email")
	}
}
