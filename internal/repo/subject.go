package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mlevchenko/studyhub/internal/models"
)

func (r *GormRepo) GetSubject(ctx context.Context, id uint) (*models.Subject, error) {
	var subject models.Subject
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&subject).Error; err != nil {
		return nil, translate(err)
	}
	return &subject, nil
}

func (r *GormRepo) GetSubjects(ctx context.Context, offset, limit int) (int64, []models.Subject, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Subject{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Subject
	if err := r.DB.WithContext(ctx).Model(&models.Subject{}).
		Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) CreateSubject(ctx context.Context, s *models.Subject) error {
	if err := r.DB.WithContext(ctx).Create(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

func (r *GormRepo) PatchSubject(ctx context.Context, id uint, name, description *string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.DB.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, translate(err)
	}

	if name != nil {
		subject.Name = *name
	}
	if description != nil {
		subject.Description = description
	}

	if err := r.DB.WithContext(ctx).Save(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &subject, nil
}

func (r *GormRepo) DeleteSubject(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Subject{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
