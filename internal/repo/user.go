package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/zeeeeby/cathouse-server/internal/models"
)

func (s *Store) FindUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", handle).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUserWithRole inserts the user row and its default role membership in
// one transaction: either both exist afterwards or neither does. The unique
// constraint on username is the authoritative conflict signal; callers may
// pre-check the handle only as a fast path.
func (s *Store) CreateUserWithRole(ctx context.Context, user *models.User, role models.RoleName) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateHandle
			}
			return err
		}
		roleID, err := roleIDByName(tx, role)
		if err != nil {
			return err
		}
		return tx.Create(&models.UserRole{UserID: user.ID, RoleID: roleID}).Error
	})
}

// RoleForUser resolves the user's current effective role through the
// membership join.
func (s *Store) RoleForUser(ctx context.Context, userID uint) (models.RoleName, error) {
	var role models.Role
	err := s.DB.WithContext(ctx).Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return role.Name, nil
}

// GrantRole replaces the user's role membership. The uniqueIndex on
// user_roles.user_id keeps a user from ever holding two roles at once.
func (s *Store) GrantRole(ctx context.Context, userID uint, role models.RoleName) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		roleID, err := roleIDByName(tx, role)
		if err != nil {
			return err
		}
		res := tx.Model(&models.UserRole{}).Where("user_id = ?", userID).Update("role_id", roleID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Create(&models.UserRole{UserID: userID, RoleID: roleID}).Error
		}
		return nil
	})
}

func roleIDByName(tx *gorm.DB, name models.RoleName) (uint, error) {
	var role models.Role
	if err := tx.Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUnknownRole
		}
		return 0, err
	}
	return role.ID, nil
}
