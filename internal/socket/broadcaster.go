package socket

// Broadcaster provides high-level methods for broadcasting events
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// ============================================
// Member Broadcasting
// ============================================

func (b *Broadcaster) BroadcastMemberAdded(projectID string, member map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageMemberAdded, map[string]interface{}{
		"projectId": projectID,
		"member":    member,
	}, excludeUserID)
}

// BroadcastMemberRemoved tells the project room and the removed user, then
// evicts the user's connections from the room.
func (b *Broadcaster) BroadcastMemberRemoved(projectID, userID string) {
	payload := map[string]interface{}{
		"projectId": projectID,
		"userId":    userID,
	}
	b.hub.EvictFromProject(userID, projectID)
	b.hub.SendToRoom(ProjectRoom(projectID), MessageMemberRemoved, payload, "")
	b.hub.SendToUser(userID, MessageMemberRemoved, payload)
}

func (b *Broadcaster) BroadcastMemberRoleUpdated(projectID, userID, roleID, roleName string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageMemberRoleUpdated, map[string]interface{}{
		"projectId": projectID,
		"userId":    userID,
		"roleId":    roleID,
		"roleName":  roleName,
	}, "")
}

func (b *Broadcaster) BroadcastRolePermissionsUpdated(projectID string, role map[string]interface{}) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageRolePermissionsUpdated, map[string]interface{}{
		"projectId": projectID,
		"role":      role,
	}, "")
}

// ============================================
// Task Broadcasting
// ============================================

func (b *Broadcaster) SendTaskAssigned(assigneeID string, task map[string]interface{}, assignedBy string) {
	b.hub.SendToUser(assigneeID, MessageTaskAssigned, map[string]interface{}{
		"task":       task,
		"assignedBy": assignedBy,
	})
}

func (b *Broadcaster) SendTaskUpdated(userID string, task map[string]interface{}, updatedBy string) {
	b.hub.SendToUser(userID, MessageTaskUpdated, map[string]interface{}{
		"task":      task,
		"updatedBy": updatedBy,
	})
}

func (b *Broadcaster) SendTaskDueSoon(userID string, task map[string]interface{}) {
	b.hub.SendToUser(userID, MessageTaskDueSoon, map[string]interface{}{"task": task})
}

func (b *Broadcaster) SendCommentAdded(userID, taskID string, comment map[string]interface{}) {
	b.hub.SendToUser(userID, MessageCommentAdded, map[string]interface{}{
		"taskId":  taskID,
		"comment": comment,
	})
}
