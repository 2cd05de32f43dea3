package lifecycle

import "github.com/mwalcott/stagecrew/internal/models"

type Action string

const (
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
	ActionReview  Action = "review"
	ActionClose   Action = "close"
	ActionReopen  Action = "reopen"
	ActionCancel  Action = "cancel"
)

// Authorizer is the capability check consumed by transitions. Permission
// evaluation itself lives outside this core.
type Authorizer interface {
	Can(actor *models.User, action Action, event *models.Event) bool
}

// RoleAuthorizer grants lifecycle actions by role name: admins and officers
// may run any transition, everyone else none.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Can(actor *models.User, action Action, event *models.Event) bool {
	if actor == nil {
		return false
	}
	switch actor.Role.Name {
	case "admin", "officer":
		return true
	default:
		return false
	}
}

// AllowAll is used by tests and internal callers that have already been
// authorized.
type AllowAll struct{}

func (AllowAll) Can(actor *models.User, action Action, event *models.Event) bool {
	return true
}
