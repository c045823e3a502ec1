package user

import (
	"context"
	"testing"

	"shop-backend/internal/apperr"
	"shop-backend/internal/auth"
	"shop-backend/internal/cache"
	"shop-backend/internal/database/dbtest"
	"shop-backend/internal/merchant"
	"shop-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	users  *Facade
	stores *merchant.StoreFacade
	main   *models.MerchantStore
	child  *models.MerchantStore
	other  *models.MerchantStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	stores := merchant.NewStoreFacade(db, cache.NewNoop(), 0)
	main := dbtest.Store(t, db, dbtest.DefaultStore)
	return &fixture{
		db:     db,
		users:  NewFacade(db, stores),
		stores: stores,
		main:   main,
		child:  dbtest.ChildStore(t, db, "outlet", main),
		other:  dbtest.Store(t, db, "other"),
	}
}

func as(u *models.User) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{
		UserID:    u.ID,
		UserName:  u.UserName,
		StoreCode: u.MerchantStore.Code,
		Groups:    u.GroupNames(),
	})
}

func newUser(name string, groups ...string) *PersistableUser {
	u := &PersistableUser{
		UserName:     name,
		EmailAddress: name + "@shop.test",
		Password:     "secret123",
		Active:       true,
	}
	for _, g := range groups {
		u.Groups = append(u.Groups, PersistableGroup{Name: g})
	}
	return u
}

func TestAuthorizedGroup(t *testing.T) {
	f := newFixture(t)
	dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	dbtest.User(t, f.db, f.main, "clerk", "secret123", models.GroupAdminRetail)
	ctx := context.Background()

	assert.NoError(t, f.users.AuthorizedGroup(ctx, "admin", adminGroups))
	assert.True(t, apperr.IsUnauthorized(f.users.AuthorizedGroup(ctx, "clerk", adminGroups)))
	assert.True(t, apperr.IsUnauthorized(f.users.AuthorizedGroup(ctx, "ghost", adminGroups)))
	assert.True(t, apperr.IsUnauthorized(f.users.AuthorizedGroup(ctx, "", adminGroups)))
}

func TestAuthorizedGroups(t *testing.T) {
	f := newFixture(t)
	dbtest.User(t, f.db, f.main, "root", "secret123", models.GroupSuperAdmin)
	dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	dbtest.User(t, f.db, f.main, "catalogue", "secret123", models.GroupAdminCatalogue)
	ctx := context.Background()

	super := newUser("x", models.GroupSuperAdmin)
	assert.NoError(t, f.users.AuthorizedGroups(ctx, "root", super))
	assert.True(t, apperr.IsUnauthorized(f.users.AuthorizedGroups(ctx, "admin", super)))

	retail := newUser("x", models.GroupAdminRetail)
	assert.NoError(t, f.users.AuthorizedGroups(ctx, "admin", retail))
	assert.True(t, apperr.IsUnauthorized(f.users.AuthorizedGroups(ctx, "catalogue", retail)))
	assert.NoError(t, f.users.AuthorizedGroups(ctx, "catalogue", newUser("x", models.GroupAdminCatalogue)))
}

func TestAuthorizedStore(t *testing.T) {
	f := newFixture(t)
	dbtest.User(t, f.db, f.main, "root", "secret123", models.GroupSuperAdmin)
	dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	dbtest.User(t, f.db, f.child, "outlet-admin", "secret123", models.GroupAdmin)
	ctx := context.Background()

	cases := []struct {
		user, store string
		want        bool
	}{
		{"root", "other", true},
		{"admin", dbtest.DefaultStore, true},
		{"admin", "outlet", true},
		{"admin", "other", false},
		{"admin", "missing", false},
		{"outlet-admin", "outlet", true},
		{"outlet-admin", dbtest.DefaultStore, false},
	}
	for _, tc := range cases {
		ok, err := f.users.AuthorizedStore(ctx, tc.user, tc.store)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "%s on %s", tc.user, tc.store)
	}
}

func TestCreateAndFind(t *testing.T) {
	f := newFixture(t)
	admin := dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	ctx := as(admin)

	created, err := f.users.Create(ctx, newUser("jdoe", models.GroupAdminCatalogue), f.child)
	require.NoError(t, err)
	assert.Equal(t, "outlet", created.Merchant)
	assert.Equal(t, "fr", created.DefaultLanguage)
	require.Len(t, created.Groups, 1)
	assert.Equal(t, models.GroupAdminCatalogue, created.Groups[0].Name)

	found, err := f.users.FindByID(ctx, created.ID, "outlet", "en")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", found.UserName)

	_, err = f.users.FindByID(ctx, created.ID, dbtest.DefaultStore, "en")
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.users.Create(ctx, newUser("jdoe", models.GroupAdminCatalogue), f.main)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	var logs int64
	f.db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ?", "user", created.ID).Count(&logs)
	assert.EqualValues(t, 1, logs)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	noPassword := newUser("jdoe", models.GroupAdmin)
	noPassword.Password = ""
	_, err := f.users.Create(ctx, noPassword, f.main)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.users.Create(ctx, newUser("jdoe", "NOT_A_GROUP"), f.main)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.users.Create(ctx, newUser("jdoe"), f.main)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateOutsideStoreRejected(t *testing.T) {
	f := newFixture(t)
	admin := dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	foreign := dbtest.User(t, f.db, f.other, "foreign", "secret123", models.GroupAdminRetail)
	local := dbtest.User(t, f.db, f.child, "local", "secret123", models.GroupAdminRetail)

	body := newUser("foreign", models.GroupAdminRetail)
	body.FirstName = "Changed"
	_, err := f.users.Update(as(admin), foreign.ID, "admin", dbtest.DefaultStore, body)
	assert.True(t, apperr.IsUnauthorized(err))

	body = newUser("local", models.GroupAdminCatalogue)
	body.FirstName = "Changed"
	updated, err := f.users.Update(as(admin), local.ID, "admin", dbtest.DefaultStore, body)
	require.NoError(t, err)
	assert.Equal(t, "Changed", updated.FirstName)
	require.Len(t, updated.Groups, 1)
	assert.Equal(t, models.GroupAdminCatalogue, updated.Groups[0].Name)
}

func TestSelfUpdateKeepsGroups(t *testing.T) {
	f := newFixture(t)
	clerk := dbtest.User(t, f.db, f.main, "clerk", "secret123", models.GroupAdminRetail)
	other := dbtest.User(t, f.db, f.main, "other", "secret123", models.GroupAdminRetail)

	body := newUser("clerk", models.GroupAdmin)
	body.LastName = "Smith"
	updated, err := f.users.Update(as(clerk), clerk.ID, "clerk", dbtest.DefaultStore, body)
	require.NoError(t, err)
	assert.Equal(t, "Smith", updated.LastName)
	assert.Equal(t, []ReadableGroup{{ID: updated.Groups[0].ID, Name: models.GroupAdminRetail, Type: "ADMIN"}}, updated.Groups)

	_, err = f.users.Update(as(clerk), other.ID, "clerk", dbtest.DefaultStore, newUser("other"))
	assert.True(t, apperr.IsUnauthorized(err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	admin := dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	clerk := dbtest.User(t, f.db, f.main, "clerk", "secret123", models.GroupAdminRetail)
	foreign := dbtest.User(t, f.db, f.other, "foreign", "secret123", models.GroupAdminRetail)
	ctx := context.Background()

	err := f.users.ChangePassword(ctx, clerk.ID, "clerk", UserPassword{Password: "wrong", ChangePassword: "newsecret"})
	assert.True(t, apperr.IsUnauthorized(err))

	require.NoError(t, f.users.ChangePassword(ctx, clerk.ID, "clerk", UserPassword{Password: "secret123", ChangePassword: "newsecret"}))
	var stored models.User
	require.NoError(t, f.db.First(&stored, clerk.ID).Error)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "newsecret"))

	require.NoError(t, f.users.ChangePassword(ctx, clerk.ID, "admin", UserPassword{ChangePassword: "fromadmin"}))

	err = f.users.ChangePassword(ctx, foreign.ID, "admin", UserPassword{ChangePassword: "fromadmin"})
	assert.True(t, apperr.IsUnauthorized(err))

	err = f.users.ChangePassword(ctx, admin.ID, "clerk", UserPassword{ChangePassword: "fromclerk"})
	assert.True(t, apperr.IsUnauthorized(err))

	err = f.users.ChangePassword(ctx, clerk.ID, "admin", UserPassword{ChangePassword: "short"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListByCriteria(t *testing.T) {
	f := newFixture(t)
	dbtest.User(t, f.db, f.main, "alice", "secret123", models.GroupAdmin)
	dbtest.User(t, f.db, f.main, "albert", "secret123", models.GroupAdminRetail)
	dbtest.User(t, f.db, f.other, "bob", "secret123", models.GroupAdmin)
	ctx := context.Background()

	all, err := f.users.ListByCriteria(ctx, Criteria{}, 0, 10, "en")
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.RecordsTotal)

	scoped, err := f.users.ListByCriteria(ctx, Criteria{StoreCode: dbtest.DefaultStore}, 0, 10, "en")
	require.NoError(t, err)
	assert.EqualValues(t, 2, scoped.RecordsTotal)

	filtered, err := f.users.ListByCriteria(ctx, Criteria{Filters: map[string]string{"admin_name": "al"}}, 0, 1, "en")
	require.NoError(t, err)
	assert.EqualValues(t, 2, filtered.RecordsTotal)
	assert.Equal(t, 2, filtered.TotalPages)
	assert.Equal(t, 1, filtered.Number)
	assert.Equal(t, "alice", filtered.Data[0].UserName)

	for _, wildcard := range []string{"%", "a_i"} {
		none, err := f.users.ListByCriteria(ctx, Criteria{Filters: map[string]string{"admin_name": wildcard}}, 0, 10, "en")
		require.NoError(t, err)
		assert.Zero(t, none.RecordsTotal, wildcard)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	root := dbtest.User(t, f.db, f.main, "root", "secret123", models.GroupSuperAdmin)
	admin := dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	clerk := dbtest.User(t, f.db, f.main, "clerk", "secret123", models.GroupAdminRetail)
	foreign := dbtest.User(t, f.db, f.other, "foreign", "secret123", models.GroupAdminRetail)

	assert.True(t, apperr.IsUnauthorized(f.users.Delete(as(admin), admin.ID, dbtest.DefaultStore)))
	assert.True(t, apperr.IsUnauthorized(f.users.Delete(as(admin), root.ID, dbtest.DefaultStore)))
	assert.True(t, apperr.IsUnauthorized(f.users.Delete(as(admin), foreign.ID, dbtest.DefaultStore)))

	require.NoError(t, f.users.Delete(as(admin), clerk.ID, dbtest.DefaultStore))
	_, err := f.users.FindByID(context.Background(), clerk.ID, dbtest.DefaultStore, "en")
	assert.True(t, apperr.IsNotFound(err))

	var links int64
	f.db.Table("user_groups").Where("user_id = ?", clerk.ID).Count(&links)
	assert.Zero(t, links)

	require.NoError(t, f.users.Delete(as(root), foreign.ID, dbtest.DefaultStore))
	assert.True(t, apperr.IsNotFound(f.users.Delete(as(root), 9999, dbtest.DefaultStore)))
}

func TestFindByUserName(t *testing.T) {
	f := newFixture(t)
	dbtest.User(t, f.db, f.child, "clerk", "secret123", models.GroupAdminRetail)
	ctx := context.Background()

	u, err := f.users.FindByUserName(ctx, "clerk", "", "en")
	require.NoError(t, err)
	assert.Equal(t, "outlet", u.Merchant)

	_, err = f.users.FindByUserName(ctx, "clerk", "outlet", "en")
	assert.NoError(t, err)

	_, err = f.users.FindByUserName(ctx, "clerk", dbtest.DefaultStore, "en")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAdminCannotTouchSuperAdmin(t *testing.T) {
	f := newFixture(t)
	root := dbtest.User(t, f.db, f.main, "root", "secret123", models.GroupSuperAdmin)
	admin := dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	ctx := context.Background()

	err := f.users.ChangePassword(ctx, root.ID, "admin", UserPassword{ChangePassword: "taken123"})
	assert.True(t, apperr.IsUnauthorized(err))

	demote := newUser("root", models.GroupAdminRetail)
	demote.Active = false
	_, err = f.users.Update(as(admin), root.ID, "admin", dbtest.DefaultStore, demote)
	assert.True(t, apperr.IsUnauthorized(err))

	var stored models.User
	require.NoError(t, f.db.Preload("Groups").First(&stored, root.ID).Error)
	assert.True(t, stored.Active)
	assert.True(t, stored.IsSuperAdmin())
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "secret123"))

	// superadmin may still manage another superadmin
	other := dbtest.User(t, f.db, f.main, "root2", "secret123", models.GroupSuperAdmin)
	require.NoError(t, f.users.ChangePassword(ctx, other.ID, "root", UserPassword{ChangePassword: "fromroot"}))
}

func TestInactiveCallerRejected(t *testing.T) {
	f := newFixture(t)
	admin := dbtest.User(t, f.db, f.main, "admin", "secret123", models.GroupAdmin)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", admin.ID).Update("active", false).Error)
	ctx := as(admin)

	assert.True(t, apperr.IsUnauthorized(f.users.AuthorizedGroup(ctx, "admin", []string{models.GroupAdmin})))
	assert.True(t, apperr.IsUnauthorized(f.users.AuthorizedGroups(ctx, "admin", newUser("x", models.GroupAdminRetail))))

	_, err := f.users.AuthorizedStore(ctx, "admin", dbtest.DefaultStore)
	assert.True(t, apperr.IsUnauthorized(err))
}

func TestIsSuperAdminReadsStoredGroups(t *testing.T) {
	f := newFixture(t)
	root := dbtest.User(t, f.db, f.main, "root", "secret123", models.GroupSuperAdmin)
	ctx := context.Background()

	ok, err := f.users.IsSuperAdmin(ctx, "root")
	require.NoError(t, err)
	assert.True(t, ok)

	var admin models.Group
	require.NoError(t, f.db.Where("name = ?", models.GroupAdmin).First(&admin).Error)
	require.NoError(t, f.db.Model(&models.User{ID: root.ID}).Association("Groups").Replace([]models.Group{admin}))

	ok, err = f.users.IsSuperAdmin(ctx, "root")
	require.NoError(t, err)
	assert.False(t, ok)
}
