package repository

import "time"

// User is an account that owns prediction history.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex;size:150;not null"`
	PasswordHash string    `gorm:"column:password_hash;size:150;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`

	Predictions []Prediction `gorm:"foreignKey:UserID"`
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}

// Prediction is one persisted classification event. Rows are immutable after
// insert and only removed by the owner's bulk clear.
type Prediction struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"column:user_id;index;not null"`
	// ImageData is the base64-encoded PNG of the uploaded image.
	ImageData         string    `gorm:"column:image_data;type:text;not null"`
	DiseaseClass      string    `gorm:"column:disease_class;size:255;not null"`
	ConfidencePercent float64   `gorm:"column:confidence_percent;not null"`
	Recommendation    string    `gorm:"column:pesticide_recommendation;type:text;not null"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (Prediction) TableName() string {
	return "predictions"
}
