package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

func TestInviteMember(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	bob := f.user("bob")
	p, roles := f.project(owner)

	m, err := f.svc.Member.InviteMember(f.ctx, p.ID, "BOB@example.com ", roles[types.RoleEditor].ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, m.UserID)
	assert.Equal(t, types.DefaultNotificationSettings(), m.NotificationSettings)
	assert.Equal(t, types.RoleEditor, m.Role.Name)

	_, err = f.svc.Member.InviteMember(f.ctx, p.ID, "bob@example.com", roles[types.RoleViewer].ID, owner.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "User is already a member of this project", err.Error())
}

func TestInviteMember_UnknownEmail(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	p, roles := f.project(owner)

	_, err := f.svc.Member.InviteMember(f.ctx, p.ID, "ghost@example.com", roles[types.RoleViewer].ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "User not found", err.Error())
}

func TestInviteMember_Concurrent(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	f.user("bob")
	p, roles := f.project(owner)

	const n = 10
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Member.InviteMember(f.ctx, p.ID, "bob@example.com", roles[types.RoleViewer].ID, owner.ID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestRemoveMember_LastOwnerScenario(t *testing.T) {
	f := newFixture(t, nil)
	u1 := f.user("u1")
	u2 := f.user("u2")
	u3 := f.user("u3")
	p, roles := f.project(u1)
	f.grant(p.ID, u2, roles[types.RoleViewer])

	err := f.svc.Member.RemoveMember(f.ctx, p.ID, u1.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Cannot remove the last owner", err.Error())

	f.grant(p.ID, u3, roles[types.RoleOwner])
	require.NoError(t, f.svc.Member.RemoveMember(f.ctx, p.ID, u1.ID))
	assert.Contains(t, f.rec.Events(), "member_removed")

	_, err = f.svc.Permission.CheckProjectAccess(f.ctx, u1, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRemoveMember_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	p, _ := f.project(owner)

	err := f.svc.Member.RemoveMember(f.ctx, p.ID, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Member not found", err.Error())
}

func TestUpdateMemberSettings_FullReplace(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	p, _ := f.project(owner)

	settings := types.NotificationSettings{Email: true}
	m, err := f.svc.Member.UpdateMemberSettings(f.ctx, p.ID, owner.ID, settings)
	require.NoError(t, err)
	assert.Equal(t, settings, m.NotificationSettings)

	_, err = f.svc.Member.UpdateMemberSettings(f.ctx, p.ID, "nobody", settings)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMemberPermissions(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	viewer := f.user("viewer")
	p, roles := f.project(owner)
	f.grant(p.ID, viewer, roles[types.RoleViewer])

	m, err := f.svc.Member.GetMemberPermissions(f.ctx, p.ID, viewer.ID)
	require.NoError(t, err)
	want, _ := types.DefaultPermissions(types.RoleViewer)
	assert.Equal(t, want, m.Role.Permissions)
}
