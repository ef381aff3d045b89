package seed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

const demoPassword = "password123"

// SeedData creates a demo project with one user per default role. It is a
// no-op when any user already exists.
func SeedData(ctx context.Context, repos *repository.Repositories, services *service.Services) error {
	users, err := repos.UserRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		logger.Info().Msg("[Seed] Data already exists, skipping...")
		return nil
	}

	logger.Info().Msg("[Seed] Creating demo data...")

	// ============================================
	// Users
	// ============================================
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &repository.User{
		Name:     "Marga Ghale",
		Email:    "marga.ghale@oratechnologies.io",
		Password: string(hash),
		Role:     types.GlobalAdmin,
	}
	if err := repos.UserRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	people := []struct {
		name, email string
		role        types.RoleName
	}{
		{"Bipin Dhimal", "bipin.dhimal@oratechnologies.io", types.RoleProjectManager},
		{"Kritim Kafle", "kritim.kafle@oratechnologies.io", types.RoleEditor},
		{"Prerak Khadka", "prerak.khadka@oratechnologies.io", types.RoleViewer},
	}

	// ============================================
	// Project with default roles; the admin becomes owner
	// ============================================
	owner := service.Principal{ID: admin.ID, Role: admin.Role}
	name := "ORA Projects"
	description := "Demo project seeded on first start"
	project, err := services.Project.Create(ctx, owner, &service.ProjectInput{
		Name:        &name,
		Description: &description,
	})
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	roles, err := services.Role.ListProjectRoles(ctx, project.ID)
	if err != nil {
		return err
	}
	roleIDs := make(map[types.RoleName]string, len(roles))
	for _, r := range roles {
		roleIDs[r.Name] = r.ID
	}

	memberIDs := make(map[types.RoleName]string, len(people))
	for _, p := range people {
		u := &repository.User{Name: p.name, Email: p.email, Password: string(hash), Role: types.GlobalUser}
		if err := repos.UserRepo.Create(ctx, u); err != nil {
			return fmt.Errorf("create %s: %w", p.email, err)
		}
		if _, err := services.Member.InviteMember(ctx, project.ID, p.email, roleIDs[p.role], admin.ID); err != nil {
			return fmt.Errorf("invite %s: %w", p.email, err)
		}
		if _, err := services.Project.AddUser(ctx, owner, project.ID, u.ID, types.LegacyMember); err != nil {
			return fmt.Errorf("link %s: %w", p.email, err)
		}
		memberIDs[p.role] = u.ID
	}

	// ============================================
	// Milestone, tasks and a comment
	// ============================================
	title := "MVP"
	due := time.Now().AddDate(0, 1, 0)
	milestone, err := services.Milestone.Create(ctx, project.ID, &service.MilestoneInput{Title: &title, DueDate: &due})
	if err != nil {
		return fmt.Errorf("create milestone: %w", err)
	}

	editorID := memberIDs[types.RoleEditor]
	taskDue := time.Now().Add(12 * time.Hour)
	tasks := []service.TaskInput{
		{Title: strPtr("Define project roles"), Status: strPtr(types.StatusDone), AssignedTo: strPtr(memberIDs[types.RoleProjectManager])},
		{Title: strPtr("Build member invitation flow"), Status: strPtr(types.StatusInProgress), AssignedTo: &editorID, DueDate: &taskDue},
		{Title: strPtr("Write onboarding guide"), Tags: []string{"docs"}},
	}

	var firstTask *repository.Task
	for i := range tasks {
		in := tasks[i]
		in.ProjectID = &project.ID
		in.MilestoneID = &milestone.ID
		task, err := services.Task.Create(ctx, owner, &in)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if firstTask == nil {
			firstTask = task
		}
	}

	access, err := services.Permission.CheckProjectAccess(ctx, owner, project.ID)
	if err != nil {
		return err
	}
	if _, err := services.Comment.Create(ctx, access, firstTask.ID, "Roles are in place, invites next.", nil, []string{editorID}); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	logger.Info().
		Str("projectId", project.ID).
		Int("users", len(people)+1).
		Msgf("[Seed] Demo data created, every account uses password %q", demoPassword)
	return nil
}

func strPtr(s string) *string {
	return &s
}
