package domain

// Applicant is the snapshot of the submitting user shown to reviewers.
type Applicant struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	FullName       string `gorm:"type:varchar(150);not null" json:"full_name"`
	Email          string `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	PassportNumber string `gorm:"type:varchar(30)" json:"passport_number"`
	Nationality    string `gorm:"type:varchar(60)" json:"nationality"`
}

func (Applicant) TableName() string {
	return "applicants"
}

type Country struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CountryName string `gorm:"type:varchar(100);not null" json:"country_name"`
}

type VisaType struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CountryID uint   `gorm:"not null;index" json:"country_id"`
	VisaName  string `gorm:"type:varchar(100);not null" json:"visa_name"`
}

// NotAvailable is rendered for missing related data.
const NotAvailable = "N/A"
