package models

import "time"

type ImportJob struct {
	ID               string `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	CompanyID        string `gorm:"type:uuid;not null;index"`
	UserID           string `gorm:"type:uuid;not null"`
	DataType         string `gorm:"type:text;not null"`
	Status           string `gorm:"type:text;not null"`
	FileName         string `gorm:"type:text;not null"`
	TotalRows        int    `gorm:"not null;default:0"`
	ValidRows        int    `gorm:"not null;default:0"`
	ErrorRows        int    `gorm:"not null;default:0"`
	DryRun           bool   `gorm:"not null;default:false"`
	RequiresApproval bool   `gorm:"not null;default:false"`
	ValidationErrors string `gorm:"type:jsonb;not null;default:'[]'"`
	HeadersFound     string `gorm:"type:jsonb;not null;default:'[]'"`
	ProcessedRows    int    `gorm:"not null;default:0"`
	InsertErrors     string `gorm:"type:jsonb;not null;default:'[]'"`
	StartedAt        *time.Time
	FinishedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
