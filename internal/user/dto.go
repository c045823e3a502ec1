package user

import (
	"time"

	"shop-backend/internal/common"
	"shop-backend/internal/models"
)

type PersistableGroup struct {
	Name string `json:"name" validate:"required,max=50"`
}

// PersistableUser is the create/update payload.
type PersistableUser struct {
	UserName        string             `json:"userName" validate:"required,min=3,max=100"`
	FirstName       string             `json:"firstName" validate:"max=100"`
	LastName        string             `json:"lastName" validate:"max=100"`
	EmailAddress    string             `json:"emailAddress" validate:"required,email,max=100"`
	Password        string             `json:"password" validate:"omitempty,min=6,max=72"`
	Active          bool               `json:"active"`
	DefaultLanguage string             `json:"defaultLanguage" validate:"omitempty,len=2"`
	Store           string             `json:"store" validate:"max=100"`
	Groups          []PersistableGroup `json:"groups" validate:"dive"`
}

func (p *PersistableUser) GroupNames() []string {
	seen := make(map[string]struct{}, len(p.Groups))
	names := make([]string, 0, len(p.Groups))
	for _, g := range p.Groups {
		if _, ok := seen[g.Name]; ok {
			continue
		}
		seen[g.Name] = struct{}{}
		names = append(names, g.Name)
	}
	return names
}

type UserPassword struct {
	Password       string `json:"password" validate:"max=72"`
	ChangePassword string `json:"changePassword" validate:"required,min=6,max=72"`
}

type ReadableGroup struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type ReadableUser struct {
	ID              uint            `json:"id"`
	UserName        string          `json:"userName"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	EmailAddress    string          `json:"emailAddress"`
	Active          bool            `json:"active"`
	DefaultLanguage string          `json:"defaultLanguage"`
	Merchant        string          `json:"merchant"`
	Groups          []ReadableGroup `json:"groups"`
	LastAccess      *time.Time      `json:"lastAccess,omitempty"`
	LoginTime       *time.Time      `json:"loginTime,omitempty"`
}

type ReadableUserList = common.ReadableList[ReadableUser]

// NewReadableUser converts a user with its store and groups loaded. lang is
// used when the user has no language of its own.
func NewReadableUser(u *models.User, lang string) ReadableUser {
	groups := make([]ReadableGroup, 0, len(u.Groups))
	for _, g := range u.Groups {
		groups = append(groups, ReadableGroup{ID: g.ID, Name: g.Name, Type: string(g.Type)})
	}
	language := u.DefaultLanguage
	if language == "" {
		language = lang
	}
	return ReadableUser{
		ID:              u.ID,
		UserName:        u.UserName,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		EmailAddress:    u.Email,
		Active:          u.Active,
		DefaultLanguage: language,
		Merchant:        u.MerchantStore.Code,
		Groups:          groups,
		LastAccess:      u.LastAccess,
		LoginTime:       u.LoginTime,
	}
}
