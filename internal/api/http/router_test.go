package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/api/http/handlers"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/observability"
	"github.com/spec-kit/task-service/internal/persistence"
	"github.com/spec-kit/task-service/internal/repository"
	"github.com/spec-kit/task-service/internal/service"
)

const testSecret = "router-test-secret"

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	stored, ok := r.byID[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	*stored = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	users := make([]domain.User, 0, len(r.byID))
	for _, user := range r.byID {
		users = append(users, *user)
	}
	return users, nil
}

type memTaskRepo struct {
	byID map[string]*domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{byID: map[string]*domain.Task{}}
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) error {
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	stored := *task
	r.byID[task.ID] = &stored
	return nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	stored, ok := r.byID[task.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	*stored = *task
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	task, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *task
	return &copied, nil
}

func (r *memTaskRepo) ListByOwner(_ context.Context, ownerID string, _ repository.TaskFilter) ([]domain.Task, error) {
	var tasks []domain.Task
	for _, task := range r.byID {
		if task.OwnerID == ownerID {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (r *memTaskRepo) ListAll(_ context.Context, _ repository.TaskFilter) ([]domain.Task, error) {
	var tasks []domain.Task
	for _, task := range r.byID {
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

type testEnv struct {
	app   *fiber.App
	users *memUserRepo
	tasks *memTaskRepo
	auth  *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:           testSecret,
			TokenTTLHours:       24,
			BcryptCost:          4,
			MaxConcurrentHashes: 2,
		},
	}

	userRepo := newMemUserRepo()
	taskRepo := newMemTaskRepo()
	dispatcher := events.NewInMemoryDispatcher()

	authService, err := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("NewAuthService error: %v", err)
	}
	taskService := service.NewTaskService(taskRepo, dispatcher)

	logger := zap.NewNop()
	authenticator := auth.NewAuthenticator(authService.TokenManager())
	pipeline := auth.NewPipeline(authenticator, auth.NewEngine())

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("task-service", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Users:          handlers.NewUsersHandler(authService),
		Tasks:          handlers.NewTasksHandler(taskService, pipeline),
		Admin:          handlers.NewAdminHandler(taskService, authService),
		AuthMiddleware: auth.NewMiddleware(authenticator, logger),
	})

	return &testEnv{app: app, users: userRepo, tasks: taskRepo, auth: authService}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reqBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var parsed map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp, parsed
}

func (e *testEnv) register(t *testing.T, name, email, password string) (userID, token string) {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d body %v", email, resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	userID = data["user"].(map[string]any)["id"].(string)
	token = data["auth"].(map[string]any)["token"].(string)
	return userID, token
}

func (e *testEnv) createTask(t *testing.T, token, title string) string {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/tasks/", token, map[string]string{"title": title})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create task: status %d body %v", resp.StatusCode, body)
	}
	return body["data"].(map[string]any)["id"].(string)
}

func decodeTokenClaims(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode claims: %v", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("unmarshal claims: %v", err)
	}
	return claims
}

func TestRegisterIssuesStandardRoleToken(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "Alice", "user@example.com", "Passw0rd")

	claims := decodeTokenClaims(t, token)
	if claims["role"] != "user" {
		t.Fatalf("expected role \"user\" in claims, got %v", claims["role"])
	}
	iat, iatOK := claims["iat"].(float64)
	exp, expOK := claims["exp"].(float64)
	if !iatOK || !expOK {
		t.Fatalf("expected numeric iat/exp, got %v / %v", claims["iat"], claims["exp"])
	}
	if int64(exp-iat) != 86400 {
		t.Fatalf("expected exp = iat + 86400, got %d", int64(exp-iat))
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Alice", "email": "user@example.com", "password": "weak",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("weak password: status %d body %v", resp.StatusCode, body)
	}
	if code := body["error"].(map[string]any)["code"]; code != "WEAK_PASSWORD" {
		t.Fatalf("expected WEAK_PASSWORD, got %v", code)
	}

	env.register(t, "Alice", "user@example.com", "Passw0rd")
	resp, body = env.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Mallory", "email": "user@example.com", "password": "Passw0rd",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate email: status %d body %v", resp.StatusCode, body)
	}
}

func TestOwnershipDecisions(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.register(t, "Alice", "alice@example.com", "Passw0rd")
	_, bobToken := env.register(t, "Bob", "bob@example.com", "Passw0rd")

	bobTask := env.createTask(t, bobToken, "bob's task")
	aliceTask := env.createTask(t, aliceToken, "alice's task")

	// Owner reads own task.
	resp, _ := env.request(t, http.MethodGet, "/tasks/"+aliceTask, aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("own task: status %d", resp.StatusCode)
	}

	// Non-owner gets 403 on an existing task.
	resp, body := env.request(t, http.MethodGet, "/tasks/"+bobTask, aliceToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("other's task: status %d body %v", resp.StatusCode, body)
	}

	// Absent task yields 404, even for a non-owner probing a random id.
	resp, _ = env.request(t, http.MethodGet, "/tasks/"+uuid.NewString(), aliceToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("absent task: status %d", resp.StatusCode)
	}

	// Mutations follow the same decision.
	resp, _ = env.request(t, http.MethodDelete, "/tasks/"+bobTask, aliceToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("delete other's task: status %d", resp.StatusCode)
	}
	resp, _ = env.request(t, http.MethodDelete, "/tasks/"+aliceTask, aliceToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete own task: status %d", resp.StatusCode)
	}
}

func TestElevatedRoleBypassesOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.register(t, "Alice", "alice@example.com", "Passw0rd")
	adminID, _ := env.register(t, "Root", "admin@example.com", "Passw0rd")

	// Promote and log in again so the token carries the elevated role.
	env.users.byID[adminID].Role = domain.RoleAdmin
	env.users.byEmail["admin@example.com"].Role = domain.RoleAdmin
	resp, body := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "Passw0rd",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login: status %d body %v", resp.StatusCode, body)
	}
	adminToken := body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)

	taskID := env.createTask(t, userToken, "user task")

	resp, _ = env.request(t, http.MethodGet, "/tasks/"+taskID, adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin on user's task: status %d", resp.StatusCode)
	}

	// Bulk enumeration is role-gated, no ownership resolution.
	resp, body = env.request(t, http.MethodGet, "/admin/tasks", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin list: status %d", resp.StatusCode)
	}
	if data := body["data"].([]any); len(data) != 1 {
		t.Fatalf("expected 1 task in admin listing, got %d", len(data))
	}

	resp, _ = env.request(t, http.MethodGet, "/admin/tasks", userToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("standard role on admin route: status %d", resp.StatusCode)
	}
}

func TestUnauthorizedResponsesAreUniform(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.register(t, "Alice", "alice@example.com", "Passw0rd")
	taskID := env.createTask(t, token, "task")

	now := time.Now()
	expiredClaims := jwt.MapClaims{
		"userId": userID,
		"email":  "alice@example.com",
		"role":   "user",
		"iat":    now.Add(-25 * time.Hour).Unix(),
		"exp":    now.Add(-time.Hour).Unix(),
	}

	naturallyExpired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("attacker-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"no credentials", ""},
		{"naturally expired", naturallyExpired},
		{"forged signature", forged},
		{"garbage token", "zzz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := env.request(t, http.MethodGet, "/tasks/"+taskID, tc.token, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status %d body %v", resp.StatusCode, body)
			}
			errBody := body["error"].(map[string]any)
			if errBody["code"] != "UNAUTHORIZED" || errBody["message"] != "unauthorized" {
				t.Fatalf("expected uniform 401 body, got %v", errBody)
			}
		})
	}
}

func TestProfileAndPasswordChange(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.register(t, "Alice", "alice@example.com", "Passw0rd")

	resp, body := env.request(t, http.MethodGet, "/users/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d", resp.StatusCode)
	}
	if got := body["data"].(map[string]any)["id"]; got != userID {
		t.Fatalf("expected own profile, got %v", got)
	}

	resp, _ = env.request(t, http.MethodPost, "/auth/password/change", token, map[string]string{
		"current_password": "Passw0rd", "new_password": "NewPassw0rd",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("password change: status %d", resp.StatusCode)
	}

	resp, _ = env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "NewPassw0rd",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login with new password: status %d", resp.StatusCode)
	}
}

func TestTaskListScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.register(t, "Alice", "alice@example.com", "Passw0rd")
	_, bobToken := env.register(t, "Bob", "bob@example.com", "Passw0rd")

	env.createTask(t, aliceToken, "a1")
	env.createTask(t, aliceToken, "a2")
	env.createTask(t, bobToken, "b1")

	resp, body := env.request(t, http.MethodGet, "/tasks/", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	if data := body["data"].([]any); len(data) != 2 {
		t.Fatalf("expected 2 tasks for alice, got %d", len(data))
	}
}
