package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-projects-backend/internal/config"
	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	repos *repository.Repositories
	svc   *Services
	rec   *recordingNotifier
}

func newFixture(t *testing.T, cache AccessCache) *fixture {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	rec := &recordingNotifier{}
	svc := NewServices(&ServiceDeps{
		Config:   &config.Config{JWTSecret: "test-secret", JWTExpiry: 1, RefreshExpiry: 1},
		Repos:    repos,
		Cache:    cache,
		Notifier: rec,
	})
	return &fixture{t: t, ctx: context.Background(), repos: repos, svc: svc, rec: rec}
}

func (f *fixture) user(name string) Principal {
	f.t.Helper()
	u := &repository.User{Name: name, Email: name + "@example.com", Password: "x", Role: types.GlobalUser}
	require.NoError(f.t, f.repos.UserRepo.Create(f.ctx, u))
	return Principal{ID: u.ID, Role: u.Role}
}

func (f *fixture) admin(name string) Principal {
	f.t.Helper()
	u := &repository.User{Name: name, Email: name + "@example.com", Password: "x", Role: types.GlobalAdmin}
	require.NoError(f.t, f.repos.UserRepo.Create(f.ctx, u))
	return Principal{ID: u.ID, Role: u.Role}
}

// project creates a project owned by creator and returns it with its roles by name.
func (f *fixture) project(creator Principal) (*repository.Project, map[types.RoleName]*repository.ProjectRole) {
	f.t.Helper()
	name := "Apollo"
	p, err := f.svc.Project.Create(f.ctx, creator, &ProjectInput{Name: &name})
	require.NoError(f.t, err)

	roles, err := f.repos.RoleRepo.FindByProject(f.ctx, p.ID)
	require.NoError(f.t, err)
	byName := make(map[types.RoleName]*repository.ProjectRole, len(roles))
	for _, r := range roles {
		byName[r.Name] = r
	}
	return p, byName
}

func (f *fixture) grant(projectID string, user Principal, role *repository.ProjectRole) {
	f.t.Helper()
	_, err := f.svc.Role.AssignRole(f.ctx, projectID, user.ID, role.ID)
	require.NoError(f.t, err)
}

type recordingNotifier struct {
	NopNotifier
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingNotifier) MemberAdded(context.Context, *repository.ProjectMember, string) {
	r.record("member_added")
}

func (r *recordingNotifier) MemberRemoved(context.Context, string, string) {
	r.record("member_removed")
}

func (r *recordingNotifier) MemberRoleUpdated(context.Context, *repository.ProjectMember) {
	r.record("member_role_updated")
}

func (r *recordingNotifier) TaskAssigned(context.Context, *repository.Task, string) {
	r.record("task_assigned")
}

func (r *recordingNotifier) TaskUpdated(context.Context, *repository.Task, string) {
	r.record("task_updated")
}

func (r *recordingNotifier) CommentAdded(context.Context, *repository.Task, *repository.Comment) {
	r.record("comment_added")
}

func strPtr(s string) *string { return &s }
