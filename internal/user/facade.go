package user

import (
	"context"
	"fmt"
	"strings"

	"shop-backend/internal/apperr"
	"shop-backend/internal/audit"
	"shop-backend/internal/auth"
	"shop-backend/internal/common"
	"shop-backend/internal/database"
	"shop-backend/internal/logging"
	"shop-backend/internal/merchant"
	"shop-backend/internal/metrics"
	"shop-backend/internal/models"
	"shop-backend/internal/validate"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityType = "user"

// Facade owns admin user persistence and the authorization rules around it.
type Facade struct {
	db     *gorm.DB
	stores *merchant.StoreFacade
}

func NewFacade(db *gorm.DB, stores *merchant.StoreFacade) *Facade {
	return &Facade{db: db, stores: stores}
}

func (f *Facade) AuthenticatedUser(ctx context.Context) string {
	return auth.AuthenticatedUser(ctx)
}

func (f *Facade) load(ctx context.Context, db *gorm.DB, query string, args ...any) (*models.User, error) {
	var u models.User
	err := db.WithContext(ctx).
		Preload("MerchantStore").
		Preload("Groups").
		Where(query, args...).
		First(&u).Error
	if err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, database.ErrNotFound
		}
		return nil, errors.Wrap(err, "load user")
	}
	return &u, nil
}

func (f *Facade) byUserName(ctx context.Context, userName string) (*models.User, error) {
	u, err := f.load(ctx, f.db, "admin_name = ?", userName)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("User [%s] not found", userName)
	}
	return u, err
}

func (f *Facade) byID(ctx context.Context, db *gorm.DB, id uint) (*models.User, error) {
	u, err := f.load(ctx, db, "id = ?", id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("User [%d] not found", id)
	}
	return u, err
}

// caller resolves the named user for an authorization check. An unknown
// caller is unauthorized, not missing.
func (f *Facade) caller(ctx context.Context, userName string) (*models.User, error) {
	if userName == "" {
		metrics.AuthorizationDenied.WithLabelValues("principal").Inc()
		return nil, apperr.Unauthorized()
	}
	u, err := f.byUserName(ctx, userName)
	if apperr.IsNotFound(err) {
		metrics.AuthorizationDenied.WithLabelValues("principal").Inc()
		return nil, apperr.Unauthorizedf("User [%s] not authorized", userName)
	}
	if err != nil {
		return nil, err
	}
	// a token outlives deactivation
	if !u.Active {
		metrics.AuthorizationDenied.WithLabelValues("principal").Inc()
		return nil, apperr.Unauthorizedf("User [%s] is not active", userName)
	}
	return u, nil
}

// IsSuperAdmin reports whether the stored user currently holds SUPERADMIN.
// Token groups may be stale.
func (f *Facade) IsSuperAdmin(ctx context.Context, userName string) (bool, error) {
	u, err := f.caller(ctx, userName)
	if err != nil {
		return false, err
	}
	return u.IsSuperAdmin(), nil
}

// AuthorizedGroup fails unless the user belongs to at least one of groups.
func (f *Facade) AuthorizedGroup(ctx context.Context, userName string, groups []string) error {
	u, err := f.caller(ctx, userName)
	if err != nil {
		return err
	}
	if !u.InGroup(groups...) {
		metrics.AuthorizationDenied.WithLabelValues("group").Inc()
		return apperr.Unauthorizedf("User [%s] not authorized", userName)
	}
	return nil
}

// AuthorizedGroups checks that the caller may hand out every group in user.
// SUPERADMIN grants anything, ADMIN anything but SUPERADMIN, other callers
// only the groups they hold.
func (f *Facade) AuthorizedGroups(ctx context.Context, userName string, user *PersistableUser) error {
	u, err := f.caller(ctx, userName)
	if err != nil {
		return err
	}
	if u.IsSuperAdmin() {
		return nil
	}
	for _, name := range user.GroupNames() {
		switch {
		case name == models.GroupSuperAdmin:
		case u.InGroup(models.GroupAdmin), u.InGroup(name):
			continue
		}
		metrics.AuthorizationDenied.WithLabelValues("groups").Inc()
		return apperr.Unauthorizedf("User [%s] cannot assign group [%s]", userName, name)
	}
	return nil
}

// AuthorizedStore reports whether the user may operate on the store: a
// SUPERADMIN anywhere, others on their own store and its direct children.
func (f *Facade) AuthorizedStore(ctx context.Context, userName, storeCode string) (bool, error) {
	u, err := f.caller(ctx, userName)
	if err != nil {
		return false, err
	}
	if u.IsSuperAdmin() || u.MerchantStore.Code == storeCode {
		return true, nil
	}
	store, err := f.stores.Get(ctx, storeCode)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if merchant.IsParentOf(u.MerchantStoreID, store) {
		return true, nil
	}
	metrics.AuthorizationDenied.WithLabelValues("store").Inc()
	return false, nil
}

// FindByID returns the user only when it belongs to the given store.
func (f *Facade) FindByID(ctx context.Context, id uint, storeCode, lang string) (*ReadableUser, error) {
	store, err := f.stores.Get(ctx, storeCode)
	if err != nil {
		return nil, err
	}
	u, err := f.load(ctx, f.db, "id = ? AND merchant_store_id = ?", id, store.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("User [%d] not found for store [%s]", id, storeCode)
	}
	if err != nil {
		return nil, err
	}
	r := NewReadableUser(u, lang)
	return &r, nil
}

// FindByUserName looks the user up in any store when storeCode is empty.
func (f *Facade) FindByUserName(ctx context.Context, userName, storeCode, lang string) (*ReadableUser, error) {
	var (
		u   *models.User
		err error
	)
	if storeCode == "" {
		u, err = f.byUserName(ctx, userName)
	} else {
		store, serr := f.stores.Get(ctx, storeCode)
		if serr != nil {
			return nil, serr
		}
		u, err = f.load(ctx, f.db, "admin_name = ? AND merchant_store_id = ?", userName, store.ID)
		if errors.Is(err, database.ErrNotFound) {
			err = apperr.NotFound("User [%s] not found for store [%s]", userName, storeCode)
		}
	}
	if err != nil {
		return nil, err
	}
	r := NewReadableUser(u, lang)
	return &r, nil
}

func (f *Facade) groups(tx *gorm.DB, names []string) ([]models.Group, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var groups []models.Group
	if err := tx.Where("name IN ?", names).Order("id asc").Find(&groups).Error; err != nil {
		return nil, errors.Wrap(err, "load groups")
	}
	if len(groups) != len(names) {
		known := make(map[string]bool, len(groups))
		for _, g := range groups {
			known[g.Name] = true
		}
		for _, n := range names {
			if !known[n] {
				return nil, apperr.Validation(fmt.Sprintf("Group [%s] does not exist", n),
					apperr.FieldError{Field: "groups", Tag: "exists", Message: "unknown group " + n})
			}
		}
	}
	return groups, nil
}

func actor(ctx context.Context) (uint, string) {
	if p, ok := auth.PrincipalFrom(ctx); ok {
		return p.UserID, p.UserName
	}
	return 0, ""
}

// Create persists a new user in store. The password is required here even
// though updates ignore it.
func (f *Facade) Create(ctx context.Context, user *PersistableUser, store *models.MerchantStore) (*ReadableUser, error) {
	logger := logging.FromContext(ctx)

	if err := validate.Struct(user); err != nil {
		return nil, err
	}
	if user.Password == "" {
		return nil, apperr.Validation("password is required",
			apperr.FieldError{Field: "password", Tag: "required", Message: "password is required"})
	}
	if len(user.Groups) == 0 {
		return nil, apperr.Validation("at least one group is required",
			apperr.FieldError{Field: "groups", Tag: "required", Message: "at least one group is required"})
	}

	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := models.User{
		MerchantStoreID: store.ID,
		UserName:        strings.TrimSpace(user.UserName),
		Email:           strings.TrimSpace(user.EmailAddress),
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		PasswordHash:    hash,
		Active:          user.Active,
		DefaultLanguage: strings.ToLower(user.DefaultLanguage),
	}
	if u.DefaultLanguage == "" {
		u.DefaultLanguage = store.DefaultLanguage
	}
	actorID, actorName := actor(ctx)

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups, err := f.groups(tx, user.GroupNames())
		if err != nil {
			return err
		}
		u.Groups = groups
		if err := tx.Omit("Groups.*").Create(&u).Error; err != nil {
			if database.IsKeyConflictErr(err) {
				return apperr.Conflict("User [%s] already exists", u.UserName)
			}
			return errors.Wrap(err, "create user")
		}
		u.MerchantStore = *store
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &store.ID,
			UserID:      actorID,
			UserName:    actorName,
			EntityType:  entityType,
			EntityID:    u.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("User %s created in store %s", u.UserName, store.Code),
			After:       NewReadableUser(&u, ""),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("user created", "user", u.UserName, "store", store.Code)
	r := NewReadableUser(&u, store.DefaultLanguage)
	return &r, nil
}

// Update changes a user's profile. Callers editing somebody else must be
// SUPERADMIN or ADMIN with access to the target's store. Group changes from
// non admin callers are ignored. The password is never changed here.
func (f *Facade) Update(ctx context.Context, id uint, authenticatedUser, storeCode string, user *PersistableUser) (*ReadableUser, error) {
	if err := validate.Struct(user); err != nil {
		return nil, err
	}
	caller, err := f.caller(ctx, authenticatedUser)
	if err != nil {
		return nil, err
	}

	var updated *models.User
	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := f.byID(ctx, tx, id)
		if err != nil {
			return err
		}
		self := caller.ID == target.ID
		isAdmin := caller.InGroup(models.GroupSuperAdmin, models.GroupAdmin)
		if !self {
			if !isAdmin {
				metrics.AuthorizationDenied.WithLabelValues("group").Inc()
				return apperr.Unauthorizedf("User [%s] cannot update user [%d]", authenticatedUser, id)
			}
			if !caller.IsSuperAdmin() && !f.storeAccess(caller, &target.MerchantStore) {
				metrics.AuthorizationDenied.WithLabelValues("store").Inc()
				return apperr.Unauthorizedf("User [%s] cannot update users of store [%s]", authenticatedUser, target.MerchantStore.Code)
			}
			if !caller.IsSuperAdmin() && target.IsSuperAdmin() {
				metrics.AuthorizationDenied.WithLabelValues("group").Inc()
				return apperr.Unauthorizedf("User [%s] cannot update a superadmin", authenticatedUser)
			}
		}

		before := NewReadableUser(target, "")
		target.UserName = strings.TrimSpace(user.UserName)
		target.Email = strings.TrimSpace(user.EmailAddress)
		target.FirstName = user.FirstName
		target.LastName = user.LastName
		if user.DefaultLanguage != "" {
			target.DefaultLanguage = strings.ToLower(user.DefaultLanguage)
		}
		if isAdmin && !self {
			target.Active = user.Active
		}

		if err := tx.Omit(clause.Associations).Save(target).Error; err != nil {
			if database.IsKeyConflictErr(err) {
				return apperr.Conflict("User [%s] already exists", target.UserName)
			}
			return errors.Wrap(err, "update user")
		}

		if isAdmin && len(user.Groups) > 0 {
			groups, err := f.groups(tx, user.GroupNames())
			if err != nil {
				return err
			}
			if err := tx.Model(target).Omit("Groups.*").Association("Groups").Replace(groups); err != nil {
				return errors.Wrap(err, "replace user groups")
			}
			target.Groups = groups
		}

		updated = target
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &target.MerchantStoreID,
			UserID:      caller.ID,
			UserName:    caller.UserName,
			EntityType:  entityType,
			EntityID:    target.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("User %s updated via store %s", target.UserName, storeCode),
			Before:      before,
			After:       NewReadableUser(target, ""),
		})
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Infow("user updated", "user_id", id, "by", authenticatedUser)
	r := NewReadableUser(updated, updated.MerchantStore.DefaultLanguage)
	return &r, nil
}

// storeAccess mirrors AuthorizedStore for a caller that is already loaded.
func (f *Facade) storeAccess(caller *models.User, store *models.MerchantStore) bool {
	return caller.IsSuperAdmin() ||
		caller.MerchantStoreID == store.ID ||
		merchant.IsParentOf(caller.MerchantStoreID, store)
}

// ChangePassword sets a new password. Users changing their own password must
// supply the current one; anybody else needs SUPERADMIN or ADMIN and access
// to the target's store.
func (f *Facade) ChangePassword(ctx context.Context, id uint, authenticatedUser string, pw UserPassword) error {
	if err := validate.Struct(&pw); err != nil {
		return err
	}
	caller, err := f.caller(ctx, authenticatedUser)
	if err != nil {
		return err
	}
	target, err := f.byID(ctx, f.db, id)
	if err != nil {
		return err
	}

	if caller.ID == target.ID {
		if !auth.CheckPassword(target.PasswordHash, pw.Password) {
			return apperr.Unauthorized("Invalid current password")
		}
	} else {
		if !caller.InGroup(models.GroupSuperAdmin, models.GroupAdmin) {
			metrics.AuthorizationDenied.WithLabelValues("group").Inc()
			return apperr.Unauthorizedf("User [%s] cannot change password of user [%d]", authenticatedUser, id)
		}
		if !f.storeAccess(caller, &target.MerchantStore) {
			metrics.AuthorizationDenied.WithLabelValues("store").Inc()
			return apperr.Unauthorizedf("User [%s] cannot change passwords in store [%s]", authenticatedUser, target.MerchantStore.Code)
		}
		if !caller.IsSuperAdmin() && target.IsSuperAdmin() {
			metrics.AuthorizationDenied.WithLabelValues("group").Inc()
			return apperr.Unauthorizedf("User [%s] cannot change the password of a superadmin", authenticatedUser)
		}
	}

	hash, err := auth.HashPassword(pw.ChangePassword)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(target).Update("admin_password", hash).Error; err != nil {
			return errors.Wrap(err, "update password")
		}
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &target.MerchantStoreID,
			UserID:      caller.ID,
			UserName:    caller.UserName,
			EntityType:  entityType,
			EntityID:    target.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Password changed for user %s", target.UserName),
		})
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Infow("user password changed", "user_id", id, "by", authenticatedUser)
	return nil
}

// ListByCriteria pages through users matching the criteria, ordered by id.
func (f *Facade) ListByCriteria(ctx context.Context, criteria Criteria, page, count int, lang string) (*ReadableUserList, error) {
	q := f.db.WithContext(ctx).Model(&models.User{})
	if criteria.StoreCode != "" {
		store, err := f.stores.Get(ctx, criteria.StoreCode)
		if err != nil {
			return nil, err
		}
		q = q.Where("merchant_store_id = ?", store.ID)
	}
	for column, value := range criteria.Filters {
		// column always comes from mappingFields
		q = q.Where(column+" LIKE ?"+common.LikeEscape, common.Contains(value))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count users")
	}

	var users []models.User
	err := q.Preload("MerchantStore").Preload("Groups").
		Order("id asc").
		Offset(page * count).Limit(count).
		Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}

	data := make([]ReadableUser, 0, len(users))
	for i := range users {
		data = append(data, NewReadableUser(&users[i], lang))
	}
	list := common.NewReadableList(data, page, count, total)
	return &list, nil
}

// Delete removes a user. Nobody deletes themselves, and only a SUPERADMIN
// deletes users outside the given store or other SUPERADMINs.
func (f *Facade) Delete(ctx context.Context, id uint, storeCode string) error {
	caller, err := f.caller(ctx, f.AuthenticatedUser(ctx))
	if err != nil {
		return err
	}

	var target *models.User
	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err = f.byID(ctx, tx, id)
		if err != nil {
			return err
		}
		if caller.ID == target.ID {
			return apperr.Unauthorized("A user cannot delete its own account")
		}
		if !caller.IsSuperAdmin() {
			if target.MerchantStore.Code != storeCode {
				metrics.AuthorizationDenied.WithLabelValues("store").Inc()
				return apperr.Unauthorizedf("User [%d] does not belong to store [%s]", id, storeCode)
			}
			if target.IsSuperAdmin() {
				metrics.AuthorizationDenied.WithLabelValues("group").Inc()
				return apperr.Unauthorizedf("User [%s] cannot delete a superadmin", caller.UserName)
			}
		}

		before := NewReadableUser(target, "")
		if err := tx.Select("Groups").Delete(target).Error; err != nil {
			return errors.Wrap(err, "delete user")
		}
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &target.MerchantStoreID,
			UserID:      caller.ID,
			UserName:    caller.UserName,
			EntityType:  entityType,
			EntityID:    target.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("User %s deleted", target.UserName),
			Before:      before,
		})
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Infow("user deleted", "user_id", id, "by", caller.UserName)
	return nil
}
