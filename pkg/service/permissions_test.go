package service_test

import (
	"testing"

	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/atimaspi/fcbb-1-1-59/pkg/service"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestPermissionTable(t *testing.T) {
	resolver := service.NewPermissionResolver(storage.NewMockStore())

	t.Run("AdminHasFullContentControl", func(t *testing.T) {
		for _, action := range []string{"create", "edit", "delete", "view", "review", "publish"} {
			assert.True(t, resolver.Can(models.AdminRole, "news", action), action)
			assert.True(t, resolver.Can(models.AdminRole, "partners", action), action)
		}
		assert.True(t, resolver.Can(models.AdminRole, "users", "edit"))
		assert.True(t, resolver.Can(models.AdminRole, "settings", "edit"))
	})

	t.Run("RevisorReviewsButDoesNotDelete", func(t *testing.T) {
		assert.True(t, resolver.Can(models.RevisorRole, "championships", "review"))
		assert.True(t, resolver.Can(models.RevisorRole, "championships", "publish"))
		assert.False(t, resolver.Can(models.RevisorRole, "championships", "delete"))
		assert.False(t, resolver.Can(models.RevisorRole, "users", "edit"))
	})

	t.Run("RedatorWritesButDoesNotReview", func(t *testing.T) {
		assert.True(t, resolver.Can(models.RedatorRole, "clubs", "create"))
		assert.True(t, resolver.Can(models.RedatorRole, "clubs", "edit"))
		assert.False(t, resolver.Can(models.RedatorRole, "clubs", "review"))
		assert.False(t, resolver.Can(models.RedatorRole, "clubs", "publish"))
	})

	t.Run("DomainRolesHaveNoWorkflowAuthority", func(t *testing.T) {
		for _, role := range []models.Role{models.TreinadorRole, models.ArbitroRole, models.DirigenteRole, models.UserRole} {
			assert.False(t, resolver.Can(role, "news", "create"), string(role))
			assert.False(t, resolver.CanReview(role), string(role))
			assert.False(t, resolver.CanSchedule(role), string(role))
		}
	})

	t.Run("CanReviewIsAdminOrRevisor", func(t *testing.T) {
		assert.True(t, resolver.CanReview(models.AdminRole))
		assert.True(t, resolver.CanReview(models.RevisorRole))
		assert.False(t, resolver.CanReview(models.JornalistaRole))
	})
}

func TestResolveRole(t *testing.T) {
	store := storage.NewMockStore()
	storage.SetUserRole(store, "adm", models.AdminRole)
	resolver := service.NewPermissionResolver(store)

	t.Run("KnownUser", func(t *testing.T) {
		assert.Equal(t, models.AdminRole, resolver.ResolveRole("adm"))
	})

	t.Run("UnknownUserIsLeastPrivileged", func(t *testing.T) {
		assert.Equal(t, models.UserRole, resolver.ResolveRole("stranger"))
	})

	t.Run("AnonymousIsLeastPrivileged", func(t *testing.T) {
		assert.Equal(t, models.UserRole, resolver.ResolveRole(""))
	})
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, models.RevisorRole, models.ParseRole("revisor"))
	// Unknown role strings must never escalate
	assert.Equal(t, models.UserRole, models.ParseRole("superuser"))
	assert.Equal(t, models.UserRole, models.ParseRole(""))
}
