package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Wikid82/nginxguard/internal/models"
)

var ErrNoHistory = errors.New("no whitelist updates recorded")

// HistoryService keeps an audit trail of whitelist rewrites.
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record stores one update.
func (s *HistoryService) Record(update *models.WhitelistUpdate) error {
	return s.db.Create(update).Error
}

// Latest returns the most recent update.
func (s *HistoryService) Latest() (*models.WhitelistUpdate, error) {
	var update models.WhitelistUpdate
	if err := s.db.Order("applied_at desc, id desc").First(&update).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoHistory
		}
		return nil, err
	}
	return &update, nil
}

// List returns up to limit updates, newest first. A non-positive limit returns all of them.
func (s *HistoryService) List(limit int) ([]models.WhitelistUpdate, error) {
	var updates []models.WhitelistUpdate
	query := s.db.Order("applied_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&updates).Error; err != nil {
		return nil, err
	}
	return updates, nil
}
