// Package permission is the single authorization decision point for the API.
// Every service that performs a write consults Decide; no handler or service
// carries its own ad hoc role check.
package permission

import (
	"errors"

	"titlehub/internal/microservices/http-api/models"
)

var ErrPermissionDenied = errors.New("permission denied")

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Resource string

const (
	ResourceReview  Resource = "review"
	ResourceComment Resource = "comment"
	ResourceCatalog Resource = "catalog" // categories, genres, titles
	ResourceUser    Resource = "user"
)

// Decide evaluates the decision table for one request. actor is nil for
// anonymous callers. ownerID is the author of the targeted resource and is
// only consulted for update/delete on reviews and comments.
//
// Rules, in priority order:
//  1. reads are allowed for everyone, except user records which are
//     admin-only in both directions
//  2. review/comment create requires an authenticated actor
//  3. review/comment update/delete requires author, moderator or admin
//  4. catalog writes require admin
//  5. user-resource operations require admin; self-service /me is gated by
//     CanManageSelf instead of this table
func Decide(actor *models.User, action Action, resource Resource, ownerID string) error {
	if action == ActionRead && resource != ResourceUser {
		return nil
	}
	if !isAuthenticated(actor) {
		return ErrPermissionDenied
	}

	switch resource {
	case ResourceReview, ResourceComment:
		if action == ActionCreate {
			return nil
		}
		if actor.ID == ownerID || actor.IsModerator() {
			return nil
		}
		return ErrPermissionDenied
	case ResourceCatalog, ResourceUser:
		if actor.IsAdmin() {
			return nil
		}
		return ErrPermissionDenied
	}
	return ErrPermissionDenied
}

// CanManageSelf reports whether the actor may read and update the restricted
// subset of its own profile. The role field stays admin-only regardless.
func CanManageSelf(actor *models.User) bool {
	return isAuthenticated(actor)
}

func isAuthenticated(actor *models.User) bool {
	return actor != nil && actor.IsActive
}
