package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

// ============================================
// In-memory implementations (development and tests)
// ============================================

// memoryStore backs every in-memory repository with one lock so joins and
// conditional deletes see a consistent snapshot, like the Postgres versions.
type memoryStore struct {
	mu            sync.RWMutex
	users         map[string]*User
	refreshTokens map[string]*RefreshToken
	projects      map[string]*Project
	userProjects  map[string]*UserProject
	roles         map[string]*ProjectRole
	members       map[string]*ProjectMember
	tasks         map[string]*Task
	milestones    map[string]*Milestone
	comments      map[string]*Comment
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:         make(map[string]*User),
		refreshTokens: make(map[string]*RefreshToken),
		projects:      make(map[string]*Project),
		userProjects:  make(map[string]*UserProject),
		roles:         make(map[string]*ProjectRole),
		members:       make(map[string]*ProjectMember),
		tasks:         make(map[string]*Task),
		milestones:    make(map[string]*Milestone),
		comments:      make(map[string]*Comment),
	}
}

func newID() string {
	return uuid.New().String()
}

// ---------- users ----------

type memoryUserRepository struct{ s *memoryStore }

func (r *memoryUserRepository) Create(ctx context.Context, user *User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	if user.Role == "" {
		user.Role = types.GlobalUser
	}
	user.ID = newID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) FindAll(ctx context.Context) ([]*User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]*User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *memoryUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = newID()
	token.CreatedAt = time.Now()
	cp := *token
	r.s.refreshTokens[token.Token] = &cp
	return nil
}

func (r *memoryUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t, ok := r.s.refreshTokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.refreshTokens, token)
	return nil
}

func (r *memoryUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.refreshTokens {
		if t.UserID == userID {
			delete(r.s.refreshTokens, k)
		}
	}
	return nil
}

// ---------- projects and legacy join records ----------

type memoryProjectRepository struct{ s *memoryStore }

func (r *memoryProjectRepository) Create(ctx context.Context, project *Project, creator *UserProject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	project.ID = newID()
	project.CreatedAt = now
	project.UpdatedAt = now
	cp := *project
	r.s.projects[project.ID] = &cp

	if creator != nil {
		creator.ID = newID()
		creator.ProjectID = project.ID
		creator.CreatedAt = now
		link := *creator
		r.s.userProjects[creator.ID] = &link
	}
	return nil
}

func (r *memoryProjectRepository) FindByID(ctx context.Context, id string) (*Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryProjectRepository) FindAll(ctx context.Context) ([]*Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	projects := make([]*Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		cp := *p
		projects = append(projects, &cp)
	}
	sortProjects(projects)
	return projects, nil
}

func (r *memoryProjectRepository) FindByUser(ctx context.Context, userID string) ([]*Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	projects := []*Project{}
	for _, up := range r.s.userProjects {
		if up.UserID != userID {
			continue
		}
		if p, ok := r.s.projects[up.ProjectID]; ok {
			cp := *p
			projects = append(projects, &cp)
		}
	}
	sortProjects(projects)
	return projects, nil
}

func sortProjects(projects []*Project) {
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
}

func (r *memoryProjectRepository) Update(ctx context.Context, project *Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.projects[project.ID]
	if !ok {
		return ErrNotFound
	}
	project.CreatedAt = existing.CreatedAt
	project.CreatedBy = existing.CreatedBy
	project.UpdatedAt = time.Now()
	cp := *project
	r.s.projects[project.ID] = &cp
	return nil
}

// Delete cascades to everything scoped to the project, like the foreign keys do.
func (r *memoryProjectRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.projects, id)
	for k, up := range r.s.userProjects {
		if up.ProjectID == id {
			delete(r.s.userProjects, k)
		}
	}
	for k, m := range r.s.members {
		if m.ProjectID == id {
			delete(r.s.members, k)
		}
	}
	for k, role := range r.s.roles {
		if role.ProjectID == id {
			delete(r.s.roles, k)
		}
	}
	for k, ms := range r.s.milestones {
		if ms.ProjectID == id {
			delete(r.s.milestones, k)
		}
	}
	for _, t := range r.s.tasks {
		if t.ProjectID != nil && *t.ProjectID == id {
			t.ProjectID = nil
			t.MilestoneID = nil
		}
	}
	return nil
}

func (r *memoryProjectRepository) AddUser(ctx context.Context, link *UserProject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, up := range r.s.userProjects {
		if up.ProjectID == link.ProjectID && up.UserID == link.UserID {
			return ErrDuplicate
		}
	}
	link.ID = newID()
	link.CreatedAt = time.Now()
	cp := *link
	r.s.userProjects[link.ID] = &cp
	return nil
}

func (r *memoryProjectRepository) FindUser(ctx context.Context, projectID, userID string) (*UserProject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, up := range r.s.userProjects {
		if up.ProjectID == projectID && up.UserID == userID {
			cp := *up
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryProjectRepository) RemoveUser(ctx context.Context, projectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, up := range r.s.userProjects {
		if up.ProjectID == projectID && up.UserID == userID {
			delete(r.s.userProjects, k)
			return nil
		}
	}
	return ErrNotFound
}

// ---------- roles ----------

type memoryRoleRepository struct{ s *memoryStore }

func (r *memoryRoleRepository) CreateMany(ctx context.Context, roles []*ProjectRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, role := range roles {
		for _, existing := range r.s.roles {
			if existing.ProjectID == role.ProjectID && existing.Name == role.Name {
				return ErrDuplicate
			}
		}
	}

	now := time.Now()
	for _, role := range roles {
		role.ID = newID()
		role.CreatedAt = now
		role.UpdatedAt = now
		cp := *role
		r.s.roles[role.ID] = &cp
	}
	return nil
}

func (r *memoryRoleRepository) FindByID(ctx context.Context, id string) (*ProjectRole, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if role, ok := r.s.roles[id]; ok {
		cp := *role
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryRoleRepository) FindByProject(ctx context.Context, projectID string) ([]*ProjectRole, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	roles := []*ProjectRole{}
	for _, role := range r.s.roles {
		if role.ProjectID == projectID {
			cp := *role
			roles = append(roles, &cp)
		}
	}
	sort.Slice(roles, func(i, j int) bool {
		return defaultRoleRank(roles[i].Name) < defaultRoleRank(roles[j].Name)
	})
	return roles, nil
}

func defaultRoleRank(name types.RoleName) int {
	for i, n := range types.DefaultRoleNames {
		if n == name {
			return i
		}
	}
	return len(types.DefaultRoleNames)
}

func (r *memoryRoleRepository) FindByName(ctx context.Context, projectID string, name types.RoleName) (*ProjectRole, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.roles {
		if role.ProjectID == projectID && role.Name == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryRoleRepository) UpdatePermissions(ctx context.Context, id string, permissions types.PermissionSet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok {
		return ErrNotFound
	}
	role.Permissions = permissions
	role.UpdatedAt = time.Now()
	return nil
}

// ---------- memberships ----------

type memoryMemberRepository struct{ s *memoryStore }

// withJoins copies m and attaches its role and user, without the user's
// password hash. Caller holds the lock.
func (r *memoryMemberRepository) withJoins(m *ProjectMember) *ProjectMember {
	cp := *m
	if role, ok := r.s.roles[m.RoleID]; ok {
		rc := *role
		cp.Role = &rc
	}
	if u, ok := r.s.users[m.UserID]; ok {
		uc := *u
		uc.Password = ""
		cp.User = &uc
	}
	return &cp
}

func (r *memoryMemberRepository) find(projectID, userID string) *ProjectMember {
	for _, m := range r.s.members {
		if m.ProjectID == projectID && m.UserID == userID {
			return m
		}
	}
	return nil
}

func (r *memoryMemberRepository) Create(ctx context.Context, member *ProjectMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.find(member.ProjectID, member.UserID) != nil {
		return ErrDuplicate
	}
	member.ID = newID()
	member.JoinedAt = time.Now()
	cp := *member
	cp.User, cp.Role = nil, nil
	r.s.members[member.ID] = &cp
	return nil
}

func (r *memoryMemberRepository) Upsert(ctx context.Context, member *ProjectMember) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing := r.find(member.ProjectID, member.UserID); existing != nil {
		existing.RoleID = member.RoleID
		member.ID = existing.ID
		member.JoinedAt = existing.JoinedAt
		member.LastActive = existing.LastActive
		member.NotificationSettings = existing.NotificationSettings
		return false, nil
	}
	member.ID = newID()
	member.JoinedAt = time.Now()
	cp := *member
	cp.User, cp.Role = nil, nil
	r.s.members[member.ID] = &cp
	return true, nil
}

func (r *memoryMemberRepository) FindMember(ctx context.Context, projectID, userID string) (*ProjectMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if m := r.find(projectID, userID); m != nil {
		return r.withJoins(m), nil
	}
	return nil, nil
}

func (r *memoryMemberRepository) collect(match func(*ProjectMember) bool) []*ProjectMember {
	members := []*ProjectMember{}
	for _, m := range r.s.members {
		if match(m) {
			members = append(members, r.withJoins(m))
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members
}

func (r *memoryMemberRepository) FindByProject(ctx context.Context, projectID string) ([]*ProjectMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(m *ProjectMember) bool { return m.ProjectID == projectID }), nil
}

func (r *memoryMemberRepository) FindByRole(ctx context.Context, roleID string) ([]*ProjectMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(m *ProjectMember) bool { return m.RoleID == roleID }), nil
}

func (r *memoryMemberRepository) countByRole(roleID string) int {
	n := 0
	for _, m := range r.s.members {
		if m.RoleID == roleID {
			n++
		}
	}
	return n
}

func (r *memoryMemberRepository) CountByRole(ctx context.Context, roleID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.countByRole(roleID), nil
}

func (r *memoryMemberRepository) UpdateSettings(ctx context.Context, projectID, userID string, settings types.NotificationSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.find(projectID, userID)
	if m == nil {
		return ErrNotFound
	}
	m.NotificationSettings = settings
	return nil
}

func (r *memoryMemberRepository) Delete(ctx context.Context, projectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.find(projectID, userID)
	if m == nil {
		return ErrNotFound
	}
	delete(r.s.members, m.ID)
	return nil
}

func (r *memoryMemberRepository) DeleteUnlessLastHolder(ctx context.Context, projectID, userID, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.countByRole(roleID) <= 1 {
		return ErrLastHolder
	}
	m := r.find(projectID, userID)
	if m == nil || m.RoleID != roleID {
		return ErrNotFound
	}
	delete(r.s.members, m.ID)
	return nil
}

// ---------- tasks ----------

type memoryTaskRepository struct{ s *memoryStore }

func (r *memoryTaskRepository) Create(ctx context.Context, task *Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task.ID = newID()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	r.s.tasks[task.ID] = &cp
	return nil
}

func (r *memoryTaskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t, ok := r.s.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func strEq(p *string, v string) bool {
	return p != nil && *p == v
}

func (r *memoryTaskRepository) List(ctx context.Context, f TaskFilter) ([]*Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tasks := []*Task{}
	for _, t := range r.s.tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.ProjectID != "" && !strEq(t.ProjectID, f.ProjectID) {
			continue
		}
		if f.AssignedTo != "" && !strEq(t.AssignedTo, f.AssignedTo) {
			continue
		}
		if f.VisibleTo != "" && t.CreatedBy != f.VisibleTo && !strEq(t.AssignedTo, f.VisibleTo) {
			continue
		}
		cp := *t
		tasks = append(tasks, &cp)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

func (r *memoryTaskRepository) Update(ctx context.Context, task *Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tasks[task.ID]
	if !ok {
		return ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.CreatedBy = existing.CreatedBy
	task.UpdatedAt = time.Now()
	cp := *task
	r.s.tasks[task.ID] = &cp
	return nil
}

func (r *memoryTaskRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.tasks, id)
	for k, c := range r.s.comments {
		if c.TaskID == id {
			delete(r.s.comments, k)
		}
	}
	return nil
}

func (r *memoryTaskRepository) ClearMilestone(ctx context.Context, milestoneID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tasks {
		if strEq(t.MilestoneID, milestoneID) {
			t.MilestoneID = nil
			t.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *memoryTaskRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]*Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tasks := []*Task{}
	for _, t := range r.s.tasks {
		if t.DueDate == nil || t.AssignedTo == nil || t.Status == types.StatusDone {
			continue
		}
		if t.DueDate.Before(from) || !t.DueDate.Before(to) {
			continue
		}
		cp := *t
		tasks = append(tasks, &cp)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(*tasks[j].DueDate) })
	return tasks, nil
}

// ---------- milestones ----------

type memoryMilestoneRepository struct{ s *memoryStore }

func (r *memoryMilestoneRepository) Create(ctx context.Context, m *Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = newID()
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	r.s.milestones[m.ID] = &cp
	return nil
}

func (r *memoryMilestoneRepository) FindByID(ctx context.Context, id string) (*Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if m, ok := r.s.milestones[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryMilestoneRepository) FindByProject(ctx context.Context, projectID string) ([]*Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	milestones := []*Milestone{}
	for _, m := range r.s.milestones {
		if m.ProjectID == projectID {
			cp := *m
			milestones = append(milestones, &cp)
		}
	}
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].Order < milestones[j].Order })
	return milestones, nil
}

func (r *memoryMilestoneRepository) Update(ctx context.Context, m *Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.milestones[m.ID]
	if !ok {
		return ErrNotFound
	}
	m.ProjectID = existing.ProjectID
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now()
	cp := *m
	r.s.milestones[m.ID] = &cp
	return nil
}

func (r *memoryMilestoneRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.milestones[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.milestones, id)
	return nil
}

// ---------- comments ----------

type memoryCommentRepository struct{ s *memoryStore }

func (r *memoryCommentRepository) Create(ctx context.Context, c *Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = newID()
	c.IsEdited = false
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.s.comments[c.ID] = &cp
	return nil
}

func (r *memoryCommentRepository) FindByID(ctx context.Context, id string) (*Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.comments[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryCommentRepository) FindByTask(ctx context.Context, taskID string) ([]*Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	comments := []*Comment{}
	for _, c := range r.s.comments {
		if c.TaskID == taskID {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}

func (r *memoryCommentRepository) Update(ctx context.Context, c *Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.comments[c.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Content = c.Content
	existing.Mentions = c.Mentions
	existing.IsEdited = c.IsEdited
	existing.UpdatedAt = time.Now()
	c.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *memoryCommentRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}
