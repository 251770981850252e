package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	"github.com/justsurfingit/job-application-tracker/internal/models"
)

// Postgres is the gorm-backed production backend.
type Postgres struct {
	DB *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{DB: db}
}

func (p *Postgres) LookupUser(ctx context.Context, token string) (*domain.User, error) {
	var user models.User
	err := p.DB.WithContext(ctx).
		Joins("JOIN sessions ON sessions.user_id = users.id").
		Where("sessions.token = ? AND sessions.expires_at > ?", token, time.Now()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainUser(user), nil
}

func (p *Postgres) ListJobs(ctx context.Context, userID string) ([]models.JobRow, error) {
	var rows []models.JobRow
	err := p.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (p *Postgres) InsertJob(ctx context.Context, row models.JobRow) (models.JobRow, error) {
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		event := statusEvent(row, "", row.CreatedAt)
		return tx.Create(&event).Error
	})
	if err != nil {
		return models.JobRow{}, err
	}
	return row, nil
}

func (p *Postgres) UpdateJob(ctx context.Context, id, userID string, patch models.RowPatch) (models.JobRow, error) {
	var row models.JobRow
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		from := row.Status

		// gorm only recognizes the plain map type.
		values := make(map[string]any, len(patch)+1)
		for col, v := range patch {
			values[col] = v
		}
		values["updated_at"] = time.Now()

		res := tx.Model(&models.JobRow{}).Where("id = ? AND user_id = ?", id, userID).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		if row.Status != from {
			event := statusEvent(row, from, row.UpdatedAt)
			return tx.Create(&event).Error
		}
		return nil
	})
	if err != nil {
		return models.JobRow{}, err
	}
	return row, nil
}

func (p *Postgres) DeleteJob(ctx context.Context, id, userID string) error {
	return p.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.JobRow{}).Error
}

func (p *Postgres) ListEvents(ctx context.Context, userID string, since time.Time) ([]models.JobEvent, error) {
	var events []models.JobEvent
	err := p.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at asc").
		Find(&events).Error
	return events, err
}

func (p *Postgres) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("lower(email) = lower(?)", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (p *Postgres) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := p.DB.WithContext(ctx).Where("lower(email) = lower(?)", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *Postgres) CreateSession(ctx context.Context, session models.Session) error {
	return p.DB.WithContext(ctx).Create(&session).Error
}

func (p *Postgres) FindSession(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := p.DB.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, token string) error {
	return p.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
}

func (p *Postgres) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
