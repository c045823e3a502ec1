package models

import "time"

type GroupType string

const GroupTypeAdmin GroupType = "ADMIN"

const (
	GroupSuperAdmin     = "SUPERADMIN"
	GroupAdmin          = "ADMIN"
	GroupAdminCatalogue = "ADMIN_CATALOGUE"
	GroupAdminStore     = "ADMIN_STORE"
	GroupAdminOrder     = "ADMIN_ORDER"
	GroupAdminContent   = "ADMIN_CONTENT"
	GroupAdminRetail    = "ADMIN_RETAIL"
)

// AdminGroups is seeded at migration time.
var AdminGroups = []string{
	GroupSuperAdmin,
	GroupAdmin,
	GroupAdminCatalogue,
	GroupAdminStore,
	GroupAdminOrder,
	GroupAdminContent,
	GroupAdminRetail,
}

type Group struct {
	ID   uint      `gorm:"primaryKey"`
	Name string    `gorm:"size:50;not null;uniqueIndex"`
	Type GroupType `gorm:"size:20;not null"`
}

type User struct {
	ID              uint `gorm:"primaryKey"`
	MerchantStoreID uint `gorm:"not null;index"`
	MerchantStore   MerchantStore
	UserName        string `gorm:"column:admin_name;size:100;not null;uniqueIndex"`
	Email           string `gorm:"column:admin_email;size:100;not null"`
	FirstName       string `gorm:"size:100"`
	LastName        string `gorm:"size:100"`
	PasswordHash    string `gorm:"column:admin_password;size:60;not null"`
	Active          bool   `gorm:"not null"`
	DefaultLanguage string `gorm:"size:2"`
	LastAccess      *time.Time
	LoginTime       *time.Time
	Groups          []Group `gorm:"many2many:user_groups;"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InGroup reports whether the user belongs to any of the named groups.
func (u *User) InGroup(names ...string) bool {
	for _, g := range u.Groups {
		for _, n := range names {
			if g.Name == n {
				return true
			}
		}
	}
	return false
}

func (u *User) IsSuperAdmin() bool {
	return u.InGroup(GroupSuperAdmin)
}

func (u *User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		names = append(names, g.Name)
	}
	return names
}
