package merchant

import "shop-backend/internal/models"

type PersistableStore struct {
	Code            string `json:"code" validate:"required,max=100"`
	Name            string `json:"name" validate:"required,max=100"`
	DefaultLanguage string `json:"defaultLanguage" validate:"omitempty,len=2"`
	Parent          string `json:"parent"`
}

type UpdateStoreRequest struct {
	Name            *string `json:"name" validate:"omitempty,max=100"`
	DefaultLanguage *string `json:"defaultLanguage" validate:"omitempty,len=2"`
}

type ReadableStore struct {
	ID              uint   `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	DefaultLanguage string `json:"defaultLanguage"`
	ParentID        *uint  `json:"parentId,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

func NewReadableStore(s *models.MerchantStore) ReadableStore {
	return ReadableStore{
		ID:              s.ID,
		Code:            s.Code,
		Name:            s.Name,
		DefaultLanguage: s.DefaultLanguage,
		ParentID:        s.ParentID,
		CreatedAt:       s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
