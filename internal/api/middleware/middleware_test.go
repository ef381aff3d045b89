package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Marga-Ghale/ora-projects-backend/internal/config"
	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	ctx      context.Context
	repos    *repository.Repositories
	services *service.Services
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	return &env{
		ctx:   context.Background(),
		repos: repos,
		services: service.NewServices(&service.ServiceDeps{
			Config: &config.Config{JWTSecret: "test-secret", JWTExpiry: 1, RefreshExpiry: 1},
			Repos:  repos,
		}),
	}
}

func (e *env) register(t *testing.T, name string) (service.Principal, string) {
	t.Helper()
	user, token, _, err := e.services.Auth.Register(e.ctx, name, name+"@example.com", "password123")
	require.NoError(t, err)
	return service.Principal{ID: user.ID, Role: user.Role}, token
}

func do(r http.Handler, method, path, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": GetUserID(c)})
}

func TestAuthMiddleware(t *testing.T) {
	e := newEnv(t)
	alice, token := e.register(t, "alice")

	r := gin.New()
	r.GET("/me", AuthMiddleware(e.services.Auth), ok)

	w, _ := do(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(r, http.MethodGet, "/me", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := do(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice.ID, body["data"])
}

func TestProjectGuard(t *testing.T) {
	e := newEnv(t)
	owner, ownerToken := e.register(t, "owner")
	viewer, viewerToken := e.register(t, "viewer")
	_, outsiderToken := e.register(t, "outsider")

	project, err := e.services.Project.Create(e.ctx, owner, &service.ProjectInput{Name: strPtr("Apollo")})
	require.NoError(t, err)
	viewerRole, err := e.repos.RoleRepo.FindByName(e.ctx, project.ID, types.RoleViewer)
	require.NoError(t, err)
	_, err = e.services.Role.AssignRole(e.ctx, project.ID, viewer.ID, viewerRole.ID)
	require.NoError(t, err)

	guard := NewProjectGuard(e.services.Permission)
	r := gin.New()
	p := r.Group("/projects/:projectId", AuthMiddleware(e.services.Auth))
	p.GET("/access", guard.ProjectAccess(), ok)
	p.GET("/manage", guard.ProjectAccess(), guard.RequirePermission(types.CanManageMembers), ok)
	p.GET("/members/:userId", guard.ProjectAccess(), guard.RequireSelfOrPermission(types.CanManageMembers), ok)
	p.GET("/tasks/manage", guard.TaskManagement(), ok)
	p.GET("/tasks/view", guard.TaskView(), ok)

	base := "/projects/" + project.ID

	cases := []struct {
		name    string
		path    string
		token   string
		status  int
		message string
	}{
		{"outsider denied", "/access", outsiderToken, http.StatusForbidden, "Access denied"},
		{"viewer allowed", "/access", viewerToken, http.StatusOK, ""},
		{"viewer lacks capability", "/manage", viewerToken, http.StatusForbidden, "Insufficient permissions"},
		{"owner has capability", "/manage", ownerToken, http.StatusOK, ""},
		{"self passes", "/members/" + viewer.ID, viewerToken, http.StatusOK, ""},
		{"other needs capability", "/members/" + owner.ID, viewerToken, http.StatusForbidden, "Insufficient permissions"},
		{"viewer cannot manage tasks", "/tasks/manage", viewerToken, http.StatusForbidden, "Insufficient permissions to manage tasks"},
		{"viewer can view tasks", "/tasks/view", viewerToken, http.StatusOK, ""},
		{"outsider cannot view tasks", "/tasks/view", outsiderToken, http.StatusForbidden, "Insufficient permissions to view tasks"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := do(r, http.MethodGet, base+tc.path, tc.token)
			assert.Equal(t, tc.status, w.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, body["error"])
			}
		})
	}
}

func TestProjectGuard_AdminWithoutMembershipDenied(t *testing.T) {
	e := newEnv(t)
	owner, _ := e.register(t, "owner")
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.repos.UserRepo.Create(e.ctx, &repository.User{
		Name: "root", Email: "root@example.com", Password: string(hash), Role: types.GlobalAdmin,
	}))
	_, adminToken, _, err := e.services.Auth.Login(e.ctx, "root@example.com", "password123")
	require.NoError(t, err)

	project, err := e.services.Project.Create(e.ctx, owner, &service.ProjectInput{Name: strPtr("Apollo")})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/projects/:projectId", AuthMiddleware(e.services.Auth), NewProjectGuard(e.services.Permission).ProjectAccess(), ok)

	w, body := do(r, http.MethodGet, "/projects/"+project.ID, adminToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied", body["error"])
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w, _ := do(r, http.MethodPost, "/login", "")
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rl.idle = 0
	assert.Equal(t, 1, rl.Sweep())
}

func TestStatusFor(t *testing.T) {
	status, msg := StatusFor(service.ErrLastOwner)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Cannot remove the last owner", msg)

	status, _ = StatusFor(service.ErrAlreadyMember)
	assert.Equal(t, http.StatusBadRequest, status)

	status, msg = StatusFor(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", msg)
}

func strPtr(s string) *string { return &s }
