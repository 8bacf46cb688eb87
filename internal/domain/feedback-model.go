package domain

import "time"

type Feedback struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	CountryID  uint      `gorm:"not null;index" json:"country_id"`
	VisaTypeID uint      `gorm:"not null;index" json:"visa_type_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`

	User     *Applicant `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Country  *Country   `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	VisaType *VisaType  `gorm:"foreignKey:VisaTypeID" json:"visa_type,omitempty"`
}
