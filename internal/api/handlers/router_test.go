package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-projects-backend/internal/config"
	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiUser struct {
	ID    string
	Token string
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	repos  *repository.Repositories
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	services := service.NewServices(&service.ServiceDeps{
		Config: &config.Config{JWTSecret: "test-secret", JWTExpiry: 1, RefreshExpiry: 1},
		Repos:  repos,
	})
	return &testAPI{t: t, router: NewRouter(RouterConfig{Services: services}), repos: repos}
}

func (a *testAPI) call(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (a *testAPI) register(name string) apiUser {
	a.t.Helper()
	status, body := a.call(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "email": name + "@example.com", "password": "password123",
	})
	require.Equal(a.t, http.StatusCreated, status, body)
	data := body["data"].(map[string]interface{})
	return apiUser{
		ID:    data["user"].(map[string]interface{})["id"].(string),
		Token: data["accessToken"].(string),
	}
}

func (a *testAPI) createProject(owner apiUser) (string, map[types.RoleName]string) {
	a.t.Helper()
	status, body := a.call(http.MethodPost, "/api/v1/projects", owner.Token, gin.H{"name": "Apollo"})
	require.Equal(a.t, http.StatusCreated, status, body)
	projectID := body["data"].(map[string]interface{})["id"].(string)

	status, body = a.call(http.MethodGet, "/api/v1/projects/"+projectID+"/roles", owner.Token, nil)
	require.Equal(a.t, http.StatusOK, status, body)
	roles := make(map[types.RoleName]string)
	for _, r := range body["data"].([]interface{}) {
		role := r.(map[string]interface{})
		roles[types.RoleName(role["roleName"].(string))] = role["id"].(string)
	}
	return projectID, roles
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	status, body := api.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestRoles_DefaultsAndOwnerImmutable(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	projectID, roles := api.createProject(owner)
	require.Len(t, roles, 5)

	status, body := api.call(http.MethodPut, "/api/v1/projects/"+projectID+"/roles/"+roles[types.RoleOwner], owner.Token,
		gin.H{"permissions": types.PermissionSet{}})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Cannot modify owner role permissions", body["error"])

	status, body = api.call(http.MethodPut, "/api/v1/projects/"+projectID+"/roles/"+roles[types.RoleViewer], owner.Token,
		gin.H{"permissions": types.PermissionSet{CanViewTasks: true, CanComment: true, CanCreateTasks: true}})
	assert.Equal(t, http.StatusOK, status)
	perms := body["data"].(map[string]interface{})["permissions"].(map[string]interface{})
	assert.Equal(t, true, perms["canCreateTasks"])
	assert.Equal(t, false, perms["canManageProject"])
}

func TestMembers_LastOwnerScenario(t *testing.T) {
	api := newTestAPI(t)
	u1 := api.register("u1")
	u2 := api.register("u2")
	u3 := api.register("u3")
	projectID, roles := api.createProject(u1)
	base := "/api/v1/projects/" + projectID

	status, body := api.call(http.MethodPost, base+"/members", u1.Token, gin.H{"email": "u2@example.com", "roleId": roles[types.RoleViewer]})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = api.call(http.MethodPost, base+"/members", u1.Token, gin.H{"email": "u2@example.com", "roleId": roles[types.RoleViewer]})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User is already a member of this project", body["error"])

	status, body = api.call(http.MethodPost, base+"/members", u1.Token, gin.H{"email": "ghost@example.com", "roleId": roles[types.RoleViewer]})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])

	// Viewers cannot manage members
	status, _ = api.call(http.MethodDelete, base+"/members/"+u1.ID, u2.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.call(http.MethodDelete, base+"/members/"+u1.ID, u1.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Cannot remove the last owner", body["error"])

	status, body = api.call(http.MethodPost, base+"/users/"+u3.ID+"/role", u1.Token, gin.H{"roleId": roles[types.RoleOwner]})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Role assigned successfully", body["message"])

	status, body = api.call(http.MethodDelete, base+"/members/"+u1.ID, u1.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Member removed successfully", body["message"])

	// u1 still has a legacy join record but no membership
	status, _ = api.call(http.MethodGet, base+"/members", u1.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.call(http.MethodGet, base, u1.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestMembers_SettingsSelfOrPermission(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	viewer := api.register("viewer")
	projectID, roles := api.createProject(owner)
	base := "/api/v1/projects/" + projectID

	status, _ := api.call(http.MethodPost, base+"/users/"+viewer.ID+"/role", owner.Token, gin.H{"roleId": roles[types.RoleViewer]})
	require.Equal(t, http.StatusOK, status)

	settings := gin.H{"notificationSettings": types.NotificationSettings{InApp: true}}
	status, body := api.call(http.MethodPut, base+"/members/"+viewer.ID+"/settings", viewer.Token, settings)
	require.Equal(t, http.StatusOK, status, body)
	got := body["data"].(map[string]interface{})["notificationSettings"].(map[string]interface{})
	assert.Equal(t, false, got["email"])
	assert.Equal(t, true, got["inApp"])

	status, _ = api.call(http.MethodPut, base+"/members/"+owner.ID+"/settings", viewer.Token, settings)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.call(http.MethodPut, base+"/members/"+viewer.ID+"/settings", owner.Token, settings)
	assert.Equal(t, http.StatusOK, status)

	status, body = api.call(http.MethodGet, base+"/members/"+viewer.ID+"/permissions", viewer.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "viewer", body["data"].(map[string]interface{})["roleName"])

	status, body = api.call(http.MethodDelete, base+"/users/"+"nobody"+"/role", owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Member not found", body["error"])
}

func TestTasks_OwnershipGuard(t *testing.T) {
	api := newTestAPI(t)
	u1 := api.register("u1")
	u2 := api.register("u2")
	u3 := api.register("u3")
	projectID, _ := api.createProject(u1)

	status, body := api.call(http.MethodPost, "/api/v1/tasks", u1.Token, gin.H{"title": "T", "projectId": projectID, "assignedTo": u2.ID})
	require.Equal(t, http.StatusCreated, status, body)
	taskID := body["data"].(map[string]interface{})["id"].(string)

	status, _ = api.call(http.MethodGet, "/api/v1/tasks/"+taskID, u3.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.call(http.MethodGet, "/api/v1/tasks/"+taskID, u2.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.call(http.MethodPut, "/api/v1/tasks/"+taskID, u2.Token, gin.H{"status": "done"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.call(http.MethodDelete, "/api/v1/tasks/"+taskID, u2.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.call(http.MethodPut, "/api/v1/tasks/"+taskID, u1.Token, gin.H{"status": "done", "estimatedHours": "2.5"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "done", body["data"].(map[string]interface{})["status"])

	status, _ = api.call(http.MethodDelete, "/api/v1/tasks/"+taskID, u1.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = api.call(http.MethodGet, "/api/v1/tasks/"+taskID, u1.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Task not found", body["error"])

	status, body = api.call(http.MethodPost, "/api/v1/tasks", u1.Token, gin.H{"title": "T", "projectId": "missing"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Project not found", body["error"])
}

func TestProjects_LegacyGuard(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	other := api.register("other")
	projectID, _ := api.createProject(owner)

	status, body := api.call(http.MethodGet, "/api/v1/projects/"+projectID, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized to view this project", body["error"])

	status, body = api.call(http.MethodDelete, "/api/v1/projects/"+projectID, owner.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Only admins can delete projects", body["error"])

	status, _ = api.call(http.MethodPost, "/api/v1/projects/users", owner.Token, gin.H{"projectId": projectID, "userId": other.ID})
	assert.Equal(t, http.StatusCreated, status)
	status, body = api.call(http.MethodPost, "/api/v1/projects/users", owner.Token, gin.H{"projectId": projectID, "userId": other.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User is already a member of this project", body["error"])

	status, _ = api.call(http.MethodGet, "/api/v1/projects/"+projectID, other.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.call(http.MethodDelete, "/api/v1/projects/"+projectID+"/users/"+other.ID, owner.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = api.call(http.MethodDelete, "/api/v1/projects/"+projectID+"/users/"+other.ID, owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User is not a member of this project", body["error"])
}

func TestMilestonesAndComments(t *testing.T) {
	api := newTestAPI(t)
	owner := api.register("owner")
	viewer := api.register("viewer")
	projectID, roles := api.createProject(owner)
	base := "/api/v1/projects/" + projectID

	status, _ := api.call(http.MethodPost, base+"/users/"+viewer.ID+"/role", owner.Token, gin.H{"roleId": roles[types.RoleViewer]})
	require.Equal(t, http.StatusOK, status)

	status, body := api.call(http.MethodPost, base+"/milestones", viewer.Token, gin.H{"title": "Beta"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Insufficient permissions to manage tasks", body["error"])

	status, body = api.call(http.MethodPost, base+"/milestones", owner.Token, gin.H{"title": "Beta"})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = api.call(http.MethodGet, base+"/milestones", viewer.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = api.call(http.MethodPost, "/api/v1/tasks", owner.Token, gin.H{"title": "T", "projectId": projectID})
	require.Equal(t, http.StatusCreated, status)
	taskID := body["data"].(map[string]interface{})["id"].(string)

	comments := base + "/tasks/" + taskID + "/comments"
	status, body = api.call(http.MethodPost, comments, viewer.Token, gin.H{"content": "hello"})
	require.Equal(t, http.StatusCreated, status, body)
	commentID := body["data"].(map[string]interface{})["id"].(string)

	status, body = api.call(http.MethodPut, comments+"/"+commentID, owner.Token, gin.H{"content": "mine now"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized to update this comment", body["error"])

	status, _ = api.call(http.MethodDelete, comments+"/"+commentID, owner.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = api.call(http.MethodGet, base+"/tasks/missing/comments", viewer.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Task not found", body["error"])
}

func TestAuth_Me(t *testing.T) {
	api := newTestAPI(t)
	u := api.register("ada")

	status, body := api.call(http.MethodGet, "/api/v1/auth/me", u.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, u.ID, body["data"].(map[string]interface{})["id"])

	status, _ = api.call(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.call(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

}
