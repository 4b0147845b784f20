package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit log.
const (
	ActionSyncEnv            = "SYNC_ENV"
	ActionUserRegistered     = "USER_REGISTERED"
	ActionUserLogin          = "USER_LOGIN"
	ActionTeamCreated        = "TEAM_CREATED"
	ActionTeamUpdated        = "TEAM_UPDATED"
	ActionTeamDeleted        = "TEAM_DELETED"
	ActionTeamCodeViewed     = "TEAM_CODE_VIEWED"
	ActionTeamMemberInvited  = "TEAM_MEMBER_INVITED"
	ActionTeamJoinedByCode   = "TEAM_JOINED_BY_CODE"
	ActionApplicationCreated = "APPLICATION_CREATED"
	ActionApplicationUpdated = "APPLICATION_UPDATED"
	ActionApplicationDeleted = "APPLICATION_DELETED"
	ActionVariableCreated    = "VARIABLE_CREATED"
	ActionVariableUpdated    = "VARIABLE_UPDATED"
	ActionVariableDeleted    = "VARIABLE_DELETED"
	ActionTokenCreated       = "API_TOKEN_CREATED"
	ActionTokenRevoked       = "API_TOKEN_REVOKED"
)

// Target types.
const (
	TargetUser        = "User"
	TargetTeam        = "Team"
	TargetApplication = "Application"
	TargetVariable    = "Variable"
	TargetToken       = "ApiToken"
)

// Entry represents a row in the audit_logs table. Entries are never updated
// or deleted once appended.
type Entry struct {
	ID         uuid.UUID
	Action     string
	TargetType string
	TargetID   string
	UserID     *uuid.UUID // nil when the action is not attributed to anyone
	CreatedAt  time.Time
}

// Filter narrows a List query. Nil fields are not applied.
type Filter struct {
	TeamID     *uuid.UUID // entries attributed to members of this team
	UserID     *uuid.UUID
	Action     *string
	TargetType *string
	TargetID   *string
	Page       int // default 1
	Limit      int // default 50, max 200
}

// Normalize applies paging defaults and bounds.
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}

// ListResult holds one page of entries, newest first.
type ListResult struct {
	Entries []Entry
	Total   int
	Page    int
	Limit   int
}
