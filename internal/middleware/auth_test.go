package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/auth"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var authUserCols = []string{
	"id", "name", "email", "mobile", "password_hash", "role", "active", "created_at", "updated_at",
}

func newUserRepo(t *testing.T) (*repositories.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewUserRepository(db), mock
}

// newAuthRouter builds a router with AuthMiddleware. A nil repo is safe for
// early-exit paths that abort before any repo call.
func newAuthRouter(userRepo *repositories.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(userRepo))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func generateTestJWT(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID, "test@example.com", string(models.RoleAgent), time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func doAuthRequest(r *gin.Engine, authHeader string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

// expectUserLoad mocks the two queries GetByID issues: the user row and its
// ward assignments.
func expectUserLoad(mock sqlmock.Sqlmock, userID string, role models.Role, active bool, wardIDs ...string) {
	now := time.Now()
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(authUserCols).AddRow(
			userID, "Test User", "test@example.com", nil, "hash", string(role), active, now, now,
		))
	assignmentRows := sqlmock.NewRows([]string{"ward_id"})
	for _, id := range wardIDs {
		assignmentRows.AddRow(id)
	}
	mock.ExpectQuery("SELECT ward_id FROM user_ward_assignments").
		WithArgs(userID).
		WillReturnRows(assignmentRows)
}

// ---------------------------------------------------------------------------
// AuthMiddleware — early-exit paths (no repository calls needed)
// ---------------------------------------------------------------------------

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	if code := doAuthRequest(newAuthRouter(nil), ""); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuthMiddleware_NonBearerPrefix(t *testing.T) {
	if code := doAuthRequest(newAuthRouter(nil), "Basic dXNlcjpwYXNz"); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuthMiddleware_EmptyToken(t *testing.T) {
	// "Bearer " with only whitespace → trimmed to empty → 401
	if code := doAuthRequest(newAuthRouter(nil), "Bearer   "); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	if code := doAuthRequest(newAuthRouter(nil), "Bearer not-a-jwt"); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

// ---------------------------------------------------------------------------
// AuthMiddleware — user loading
// ---------------------------------------------------------------------------

func TestAuthMiddleware_ValidToken(t *testing.T) {
	repo, mock := newUserRepo(t)
	expectUserLoad(mock, "user-1", models.RoleAgent, true, "ward-1", "ward-2")

	var gotPrincipal bool
	r := gin.New()
	r.Use(AuthMiddleware(repo))
	r.GET("/", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.ID != "user-1" {
			t.Error("CurrentUser not set correctly")
		}
		p, ok := CurrentPrincipal(c)
		if ok && p.UserID == "user-1" && p.Role == models.RoleAgent && len(p.WardIDs) == 2 {
			gotPrincipal = true
		}
		c.Status(http.StatusOK)
	})

	if code := doAuthRequest(r, "Bearer "+generateTestJWT(t, "user-1")); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if !gotPrincipal {
		t.Error("principal not set in context")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuthMiddleware_UserNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(authUserCols))

	if code := doAuthRequest(newAuthRouter(repo), "Bearer "+generateTestJWT(t, "ghost")); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestAuthMiddleware_UserLoadError(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WillReturnError(errors.New("db down"))

	if code := doAuthRequest(newAuthRouter(repo), "Bearer "+generateTestJWT(t, "user-1")); code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", code)
	}
}

func TestAuthMiddleware_InactiveUser(t *testing.T) {
	repo, mock := newUserRepo(t)
	expectUserLoad(mock, "user-1", models.RoleAgent, false)

	if code := doAuthRequest(newAuthRouter(repo), "Bearer "+generateTestJWT(t, "user-1")); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for deactivated account", code)
	}
}

// ---------------------------------------------------------------------------
// CurrentUser / CurrentPrincipal — absent context
// ---------------------------------------------------------------------------

func TestCurrentUser_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := CurrentUser(c); ok {
		t.Error("CurrentUser = ok on empty context, want false")
	}
	if _, ok := CurrentPrincipal(c); ok {
		t.Error("CurrentPrincipal = ok on empty context, want false")
	}
}
