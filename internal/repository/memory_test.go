package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

func seedProjectWithRole(t *testing.T, repos *Repositories, name types.RoleName) (*Project, *ProjectRole) {
	t.Helper()
	ctx := context.Background()
	p := &Project{Name: "Apollo", Status: types.ProjectPlanning, Priority: types.PriorityMedium, CreatedBy: "u0"}
	require.NoError(t, repos.ProjectRepo.Create(ctx, p, nil))
	role := &ProjectRole{ProjectID: p.ID, Name: name, IsDefault: true}
	require.NoError(t, repos.RoleRepo.CreateMany(ctx, []*ProjectRole{role}))
	return p, role
}

func TestMemoryMemberRepository_UniquePair(t *testing.T) {
	repos := NewMemoryRepositories()
	p, role := seedProjectWithRole(t, repos, types.RoleViewer)

	var ok, dup int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repos.MemberRepo.Create(context.Background(), &ProjectMember{ProjectID: p.ID, UserID: "u1", RoleID: role.ID})
			switch err {
			case nil:
				atomic.AddInt32(&ok, 1)
			case ErrDuplicate:
				atomic.AddInt32(&dup, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, 19, dup)
}

func TestMemoryMemberRepository_DeleteUnlessLastHolder(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	p, owner := seedProjectWithRole(t, repos, types.RoleOwner)

	require.NoError(t, repos.MemberRepo.Create(ctx, &ProjectMember{ProjectID: p.ID, UserID: "u1", RoleID: owner.ID}))
	assert.ErrorIs(t, repos.MemberRepo.DeleteUnlessLastHolder(ctx, p.ID, "u1", owner.ID), ErrLastHolder)

	require.NoError(t, repos.MemberRepo.Create(ctx, &ProjectMember{ProjectID: p.ID, UserID: "u2", RoleID: owner.ID}))

	// Concurrent removal of both holders leaves exactly one.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			errs[i] = repos.MemberRepo.DeleteUnlessLastHolder(ctx, p.ID, uid, owner.ID)
		}(i, uid)
	}
	wg.Wait()

	count, err := repos.MemberRepo.CountByRole(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, (errs[0] == nil) != (errs[1] == nil))
}

func TestMemoryMemberRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	p, viewer := seedProjectWithRole(t, repos, types.RoleViewer)
	editor := &ProjectRole{ProjectID: p.ID, Name: types.RoleEditor}
	require.NoError(t, repos.RoleRepo.CreateMany(ctx, []*ProjectRole{editor}))

	created, err := repos.MemberRepo.Upsert(ctx, &ProjectMember{ProjectID: p.ID, UserID: "u1", RoleID: viewer.ID})
	require.NoError(t, err)
	assert.True(t, created)

	m := &ProjectMember{ProjectID: p.ID, UserID: "u1", RoleID: editor.ID}
	created, err = repos.MemberRepo.Upsert(ctx, m)
	require.NoError(t, err)
	assert.False(t, created)

	found, err := repos.MemberRepo.FindMember(ctx, p.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, found.Role)
	assert.Equal(t, types.RoleEditor, found.Role.Name)
	assert.Equal(t, m.ID, found.ID)
}

func TestMemoryRoleRepository_DuplicateName(t *testing.T) {
	repos := NewMemoryRepositories()
	p, _ := seedProjectWithRole(t, repos, types.RoleOwner)
	err := repos.RoleRepo.CreateMany(context.Background(), []*ProjectRole{{ProjectID: p.ID, Name: types.RoleOwner}})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryProjectRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	p, role := seedProjectWithRole(t, repos, types.RoleOwner)
	require.NoError(t, repos.ProjectRepo.AddUser(ctx, &UserProject{UserID: "u1", ProjectID: p.ID, Role: types.LegacyMember}))
	require.NoError(t, repos.MemberRepo.Create(ctx, &ProjectMember{ProjectID: p.ID, UserID: "u1", RoleID: role.ID}))

	require.NoError(t, repos.ProjectRepo.Delete(ctx, p.ID))

	link, err := repos.ProjectRepo.FindUser(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, link)
	m, err := repos.MemberRepo.FindMember(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, m)
	r, err := repos.RoleRepo.FindByID(ctx, role.ID)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestMemoryMemberRepository_JoinedUserHasNoPassword(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	p, role := seedProjectWithRole(t, repos, types.RoleEditor)
	u := &User{Name: "Dana", Email: "dana@example.com", Password: "$2a$10$hash", Role: types.GlobalUser}
	require.NoError(t, repos.UserRepo.Create(ctx, u))
	require.NoError(t, repos.MemberRepo.Create(ctx, &ProjectMember{ProjectID: p.ID, UserID: u.ID, RoleID: role.ID}))

	found, err := repos.MemberRepo.FindMember(ctx, p.ID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, found.User)
	assert.Equal(t, "Dana", found.User.Name)
	assert.Empty(t, found.User.Password)

	stored, err := repos.UserRepo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", stored.Password)
}
