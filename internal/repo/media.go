package repo

import (
	"context"

	"github.com/zeeeeby/cathouse-server/internal/models"
)

func (s *Store) SaveProfileImages(ctx context.Context, images []models.ProfileImage) ([]models.ProfileImage, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if err := s.DB.WithContext(ctx).Create(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (s *Store) DeleteProfileImages(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Where("url IN ?", urls).Delete(&models.ProfileImage{}).Error
}
