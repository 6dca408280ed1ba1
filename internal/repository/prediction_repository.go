package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// PredictionRepository provides persistence APIs for prediction history.
type PredictionRepository struct {
	db *gorm.DB
}

// NewPredictionRepository creates a new repository instance.
func NewPredictionRepository(db *gorm.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Record persists one prediction. The timestamp is assigned server-side at
// insert and drives history ordering.
func (r *PredictionRepository) Record(ctx context.Context, p *Prediction) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

// ListByUser returns the user's full history, newest first. History is
// personal-use sized, so there is no pagination.
func (r *PredictionRepository) ListByUser(ctx context.Context, userID uint) ([]Prediction, error) {
	var predictions []Prediction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

// ClearUser deletes the user's entire history. Deleting an already-empty
// history is not an error.
func (r *PredictionRepository) ClearUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Prediction{}).Error
}
