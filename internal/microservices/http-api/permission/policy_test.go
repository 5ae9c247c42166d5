package permission

import (
	"testing"

	"titlehub/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
)

func activeUser(id, role string) *models.User {
	return &models.User{ID: id, Username: "u-" + id, Role: role, IsActive: true}
}

func TestDecideReads(t *testing.T) {
	// content reads are allowed for everyone, authenticated or not
	for _, resource := range []Resource{ResourceReview, ResourceComment, ResourceCatalog} {
		assert.NoError(t, Decide(nil, ActionRead, resource, ""))
		assert.NoError(t, Decide(activeUser("1", models.RoleUser), ActionRead, resource, "someone-else"))
	}
}

func TestDecideReviewCreate(t *testing.T) {
	assert.NoError(t, Decide(activeUser("1", models.RoleUser), ActionCreate, ResourceReview, ""))

	t.Run("AnonymousDenied", func(t *testing.T) {
		assert.ErrorIs(t, Decide(nil, ActionCreate, ResourceReview, ""), ErrPermissionDenied)
	})

	t.Run("InactiveDenied", func(t *testing.T) {
		inactive := &models.User{ID: "2", Role: models.RoleUser, IsActive: false}
		assert.ErrorIs(t, Decide(inactive, ActionCreate, ResourceReview, ""), ErrPermissionDenied)
	})
}

func TestDecideReviewMutation(t *testing.T) {
	owner := activeUser("owner", models.RoleUser)
	stranger := activeUser("stranger", models.RoleUser)
	moderator := activeUser("mod", models.RoleModerator)
	admin := activeUser("adm", models.RoleAdmin)
	superuser := activeUser("root", models.RoleUser)
	superuser.Superuser = true

	for _, action := range []Action{ActionUpdate, ActionDelete} {
		assert.NoError(t, Decide(owner, action, ResourceReview, owner.ID))
		assert.NoError(t, Decide(moderator, action, ResourceReview, owner.ID))
		assert.NoError(t, Decide(admin, action, ResourceReview, owner.ID))
		assert.NoError(t, Decide(superuser, action, ResourceReview, owner.ID))
		assert.ErrorIs(t, Decide(stranger, action, ResourceReview, owner.ID), ErrPermissionDenied)
		assert.ErrorIs(t, Decide(nil, action, ResourceReview, owner.ID), ErrPermissionDenied)
	}
}

func TestDecideCommentMutation(t *testing.T) {
	owner := activeUser("owner", models.RoleUser)
	stranger := activeUser("stranger", models.RoleUser)
	moderator := activeUser("mod", models.RoleModerator)

	assert.NoError(t, Decide(owner, ActionUpdate, ResourceComment, owner.ID))
	assert.NoError(t, Decide(moderator, ActionDelete, ResourceComment, owner.ID))
	assert.ErrorIs(t, Decide(stranger, ActionDelete, ResourceComment, owner.ID), ErrPermissionDenied)
}

func TestDecideCatalog(t *testing.T) {
	admin := activeUser("adm", models.RoleAdmin)
	moderator := activeUser("mod", models.RoleModerator)
	user := activeUser("u", models.RoleUser)

	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		assert.NoError(t, Decide(admin, action, ResourceCatalog, ""))
		// moderators moderate content, they do not manage the catalog
		assert.ErrorIs(t, Decide(moderator, action, ResourceCatalog, ""), ErrPermissionDenied)
		assert.ErrorIs(t, Decide(user, action, ResourceCatalog, ""), ErrPermissionDenied)
		assert.ErrorIs(t, Decide(nil, action, ResourceCatalog, ""), ErrPermissionDenied)
	}
}

func TestDecideUserResource(t *testing.T) {
	admin := activeUser("adm", models.RoleAdmin)
	moderator := activeUser("mod", models.RoleModerator)
	user := activeUser("u", models.RoleUser)

	// user records are admin-only for every action, reads included
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		assert.NoError(t, Decide(admin, action, ResourceUser, ""))
		assert.ErrorIs(t, Decide(moderator, action, ResourceUser, ""), ErrPermissionDenied)
		assert.ErrorIs(t, Decide(user, action, ResourceUser, ""), ErrPermissionDenied)
		assert.ErrorIs(t, Decide(nil, action, ResourceUser, ""), ErrPermissionDenied)
	}
}

func TestCanManageSelf(t *testing.T) {
	assert.True(t, CanManageSelf(activeUser("u", models.RoleUser)))
	assert.False(t, CanManageSelf(nil))
	assert.False(t, CanManageSelf(&models.User{ID: "x", IsActive: false}))
}
