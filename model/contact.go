package model

import "time"

type ContactMessage struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"index;not null"`
	Subject   string    `json:"subject" gorm:"not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Category  string    `json:"category"`
	Delivered bool      `json:"delivered" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}
