package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clubebeneficios/clube-api/internal/domain/user"
	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/jwt"
	"github.com/clubebeneficios/clube-api/internal/pkg/password"
)

type fakeUserRepo struct {
	byEmail  map[string]*user.User
	rehashed int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*user.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return user.ErrEmailAlreadyExists
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	f.rehashed++
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *jwt.Service) {
	t.Helper()
	password.Cost = bcrypt.MinCost
	t.Cleanup(func() { password.Cost = 12 })
	repo := newFakeUserRepo()
	jwtService := jwt.NewService("secret", 15*time.Minute)
	return NewService(repo, jwtService), repo, jwtService
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, jwtService := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterRequest{Email: "  Ana@Example.com ", Password: "segredo123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.User.Email != "ana@example.com" || reg.User.Role != string(user.RoleSubscriber) {
		t.Fatalf("unexpected user %+v", reg.User)
	}

	login, err := svc.Login(ctx, &LoginRequest{Email: "ANA@example.com", Password: "segredo123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := jwtService.ValidateAccessToken(login.AccessToken)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Role != jwt.RoleSubscriber {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if login.ExpiresIn != 900 || login.TokenType != "Bearer" {
		t.Fatalf("unexpected token metadata %+v", login)
	}

	if _, err := svc.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "outrasenha1"}); !errors.Is(err, user.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "segredo123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "errada123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, &LoginRequest{Email: "ninguem@example.com", Password: "segredo123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginSuspendedAccount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	hash, _ := password.Hash("segredo123")
	repo.byEmail["ana@example.com"] = &user.User{ID: uuid.New(), Email: "ana@example.com", PasswordHash: hash, Role: user.RoleSubscriber, Status: user.StatusSuspended}

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "ana@example.com", Password: "segredo123"}); !errors.Is(err, ErrAccountSuspended) {
		t.Fatalf("expected ErrAccountSuspended, got %v", err)
	}
}

func TestLoginRehashesOldCost(t *testing.T) {
	svc, repo, _ := newTestService(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost+1)
	repo.byEmail["parceiro@example.com"] = &user.User{ID: uuid.New(), Email: "parceiro@example.com", PasswordHash: string(hash), Role: user.RolePartner, Status: user.StatusActive}

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "parceiro@example.com", Password: "segredo123"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.rehashed != 1 || password.NeedsRehash(repo.byEmail["parceiro@example.com"].PasswordHash) {
		t.Fatal("expected password to be rehashed with the current cost")
	}
}

func TestLoginHandler(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Register(context.Background(), &RegisterRequest{Email: "ana@example.com", Password: "segredo123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	h := NewHandler(svc)

	body, _ := json.Marshal(LoginRequest{Email: "ana@example.com", Password: "segredo123"})
	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out AuthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatal("expected access token")
	}

	body, _ = json.Marshal(LoginRequest{Email: "ana@example.com", Password: "errada123"})
	rr = httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var errBody map[string]interface{}
	_ = json.Unmarshal(rr.Body.Bytes(), &errBody)
	if errBody["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %#v", errBody["code"])
	}
}

func TestRegisterHandlerValidation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	h := NewHandler(svc)

	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"not-an-email","password":"123"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(repo.byEmail) != 0 {
		t.Fatal("invalid request must not create a user")
	}
}

func TestMeRequiresToken(t *testing.T) {
	svc, _, jwtService := newTestService(t)
	reg, err := svc.Register(context.Background(), &RegisterRequest{Email: "ana@example.com", Password: "segredo123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	router := NewHandler(svc).Routes(middleware.Auth(jwtService))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+reg.AccessToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "ana@example.com") {
		t.Fatalf("expected own account, got %d %s", rr.Code, rr.Body.String())
	}
}
