package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "kakeibo/internal/errors"
	"kakeibo/internal/models"
	"kakeibo/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visibleTo scopes a category query to the user's own and the system categories.
func visibleTo(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(user_id = ? OR user_id IS NULL)", userID)
	}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID string, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if in.Type != models.CategoryTypeIncome && in.Type != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}

	if err := s.checkDuplicateName(userID, name, in.Type, ""); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		if _, err := s.parentFor(userID, *in.ParentID, in.Type); err != nil {
			return nil, err
		}
	}

	category := &models.Category{
		UserID:      &userID,
		Name:        name,
		Type:        in.Type,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		ParentID:    in.ParentID,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// checkDuplicateName rejects a name already used by one of the user's categories of the same type.
func (s *categoryService) checkDuplicateName(userID, name string, categoryType models.CategoryType, excludeID string) error {
	q := s.db.Model(&models.Category{}).
		Where("user_id = ? AND type = ? AND LOWER(name) = LOWER(?)", userID, categoryType, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}

// parentFor loads a prospective parent and checks it is visible and of the same type.
func (s *categoryService) parentFor(userID, parentID string, categoryType models.CategoryType) (*models.Category, error) {
	var parent models.Category
	if err := s.db.Scopes(visibleTo(userID)).Where("id = ?", parentID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if parent.Type != categoryType {
		return nil, apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch, "parent category has a different type")
	}
	return &parent, nil
}

// GetUserCategories retrieves a paginated list of the categories visible to a
// user, system categories first, optionally filtered by type.
func (s *categoryService) GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).Scopes(visibleTo(userID))
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("is_system DESC, type ASC, name ASC").
		Scopes(pagination.Paginate(page)).
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category visible to the user.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Scopes(visibleTo(userID)).Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates one of the user's own categories. System categories
// are read-only.
func (s *categoryService) UpdateCategory(userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsSystem || !category.OwnedBy(userID) {
		return nil, apperrors.ErrCategoryProtected
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		if err := s.checkDuplicateName(userID, name, category.Type, category.ID); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Icon != nil {
		updates["icon"] = *fields.Icon
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}

	switch {
	case fields.ClearParent:
		updates["parent_id"] = nil
	case fields.ParentID != nil:
		if *fields.ParentID == category.ID {
			return nil, apperrors.ErrSelfParentCategory
		}
		if _, err := s.parentFor(userID, *fields.ParentID, category.Type); err != nil {
			return nil, err
		}
		if err := s.checkCycle(category.ID, *fields.ParentID); err != nil {
			return nil, err
		}
		updates["parent_id"] = *fields.ParentID
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", category.ID).First(category).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// checkCycle walks up from the new parent and fails if it reaches the category itself.
func (s *categoryService) checkCycle(categoryID, parentID string) error {
	seen := map[string]bool{}
	current := parentID
	for current != "" && !seen[current] {
		if current == categoryID {
			return apperrors.ErrCategoryCycle
		}
		seen[current] = true

		var next models.Category
		if err := s.db.Select("id", "parent_id").Where("id = ?", current).First(&next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if next.ParentID == nil {
			return nil
		}
		current = *next.ParentID
	}
	return nil
}

// DeleteCategory deletes one of the user's categories. Children move to the
// top level, transactions become uncategorized and budget lines targeting
// the category are removed.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}
	if category.IsSystem || !category.OwnedBy(userID) {
		return apperrors.ErrCategoryProtected
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Category{}).
			Where("parent_id = ?", category.ID).
			Update("parent_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Transaction{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("category_id = ?", category.ID).
			Delete(&models.BudgetCategory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
