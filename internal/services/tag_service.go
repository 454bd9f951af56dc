package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
)

// tagService handles transaction tags.
type tagService struct {
	db *gorm.DB
}

// NewTagService creates a new TagServicer.
func NewTagService(db *gorm.DB) TagServicer {
	return &tagService{db: db}
}

// CreateTag creates a tag. Names are unique per user, ignoring case.
func (s *tagService) CreateTag(userID, name, color string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tag name is required")
	}
	if err := s.checkDuplicate(userID, name, ""); err != nil {
		return nil, err
	}

	tag := &models.Tag{UserID: userID, Name: name, Color: color}
	if err := s.db.Create(tag).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tag, nil
}

func (s *tagService) checkDuplicate(userID, name, excludeID string) error {
	q := s.db.Model(&models.Tag{}).Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateTag
	}
	return nil
}

// GetUserTags lists the user's tags by name.
func (s *tagService) GetUserTags(userID string) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

func (s *tagService) getTag(userID, tagID string) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTagNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tag, nil
}

// UpdateTag renames or recolors a tag.
func (s *tagService) UpdateTag(userID, tagID string, name, color *string) (*models.Tag, error) {
	tag, err := s.getTag(userID, tagID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tag name cannot be empty")
		}
		if err := s.checkDuplicate(userID, n, tag.ID); err != nil {
			return nil, err
		}
		updates["name"] = n
	}
	if color != nil {
		updates["color"] = *color
	}

	if len(updates) > 0 {
		if err := s.db.Model(tag).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.getTag(userID, tag.ID)
}

// DeleteTag removes a tag from every transaction and deletes it.
func (s *tagService) DeleteTag(userID, tagID string) error {
	tag, err := s.getTag(userID, tagID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM transaction_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Tag{}, "id = ?", tag.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
