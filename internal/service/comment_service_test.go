package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

func TestCommentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	editor := f.user("editor")
	viewer := f.user("viewer")
	p, roles := f.project(owner)
	f.grant(p.ID, editor, roles[types.RoleEditor])
	f.grant(p.ID, viewer, roles[types.RoleViewer])

	task, err := f.svc.Task.Create(f.ctx, owner, &TaskInput{Title: strPtr("T"), ProjectID: &p.ID})
	require.NoError(t, err)

	access := func(pr Principal) *ProjectAccess {
		a, err := f.svc.Permission.CheckProjectAccess(f.ctx, pr, p.ID)
		require.NoError(t, err)
		return a
	}

	c, err := f.svc.Comment.Create(f.ctx, access(viewer), task.ID, "looks good", nil, []string{editor.ID})
	require.NoError(t, err)
	assert.Equal(t, viewer.ID, c.UserID)
	assert.Contains(t, f.rec.Events(), "comment_added")

	_, err = f.svc.Comment.Update(f.ctx, access(editor), task.ID, c.ID, "edited")
	assert.Equal(t, "Not authorized to update this comment", err.Error())

	updated, err := f.svc.Comment.Update(f.ctx, access(viewer), task.ID, c.ID, "looks great")
	require.NoError(t, err)
	assert.True(t, updated.IsEdited)

	// Editors cannot manage tasks, so they cannot delete other people's comments.
	assert.ErrorIs(t, f.svc.Comment.Delete(f.ctx, access(editor), task.ID, c.ID), ErrForbidden)
	require.NoError(t, f.svc.Comment.Delete(f.ctx, access(owner), task.ID, c.ID))

	list, err := f.svc.Comment.List(f.ctx, access(viewer), task.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestComment_TaskMustBelongToProject(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	p1, _ := f.project(owner)
	p2, _ := f.project(owner)

	task, err := f.svc.Task.Create(f.ctx, owner, &TaskInput{Title: strPtr("T"), ProjectID: &p2.ID})
	require.NoError(t, err)

	access, err := f.svc.Permission.CheckProjectAccess(f.ctx, owner, p1.ID)
	require.NoError(t, err)

	_, err = f.svc.Comment.Create(f.ctx, access, task.ID, "hi", nil, nil)
	assert.Equal(t, "Task not found", err.Error())
}

func TestMilestoneDelete_ClearsTasks(t *testing.T) {
	f := newFixture(t, nil)
	owner := f.user("owner")
	p, _ := f.project(owner)

	m, err := f.svc.Milestone.Create(f.ctx, p.ID, &MilestoneInput{Title: strPtr("Beta")})
	require.NoError(t, err)
	assert.Equal(t, types.MilestonePlanned, m.Status)

	task, err := f.svc.Task.Create(f.ctx, owner, &TaskInput{Title: strPtr("T"), ProjectID: &p.ID, MilestoneID: &m.ID})
	require.NoError(t, err)
	require.NotNil(t, task.MilestoneID)

	other, _ := f.project(owner)
	_, err = f.svc.Milestone.Get(f.ctx, other.ID, m.ID)
	assert.Equal(t, "Milestone not found", err.Error())

	require.NoError(t, f.svc.Milestone.Delete(f.ctx, p.ID, m.ID))

	stored, err := f.repos.TaskRepo.FindByID(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.MilestoneID)

	_, err = f.svc.Milestone.Update(f.ctx, p.ID, m.ID, &MilestoneInput{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}
