package models

import "time"

// Target tables for committed imports. Fields mirror the canonical record
// fields for each entity type.

type Customer struct {
	ID          int64  `gorm:"primaryKey"`
	CompanyID   string `gorm:"type:uuid;index;not null"`
	DisplayName string `gorm:"size:255;not null"`
	FirstName   string `gorm:"size:120"`
	LastName    string `gorm:"size:120"`
	CompanyName string `gorm:"size:255"`
	Email       string `gorm:"size:320"`
	Phone       string `gorm:"size:32"`
	Address     string `gorm:"size:255"`
	City        string `gorm:"size:120"`
	State       string `gorm:"size:120"`
	Zip         string `gorm:"size:20"`
	Notes       string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Customer) TableName() string {
	return "customers"
}

type Job struct {
	ID            int64  `gorm:"primaryKey"`
	CompanyID     string `gorm:"type:uuid;index;not null"`
	Title         string `gorm:"size:255;not null"`
	Description   string `gorm:"type:text"`
	CustomerName  string `gorm:"size:255"`
	Address       string `gorm:"size:255"`
	City          string `gorm:"size:120"`
	State         string `gorm:"size:120"`
	Zip           string `gorm:"size:20"`
	Status        string `gorm:"size:60"`
	ScheduledDate string `gorm:"size:40"`
	Notes         string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Job) TableName() string {
	return "jobs"
}

type Material struct {
	ID          int64  `gorm:"primaryKey"`
	CompanyID   string `gorm:"type:uuid;index;not null"`
	Name        string `gorm:"size:255;not null"`
	Sku         string `gorm:"size:120"`
	Description string `gorm:"type:text"`
	Unit        string `gorm:"size:40"`
	UnitCost    string `gorm:"size:40"`
	Quantity    string `gorm:"size:40"`
	Category    string `gorm:"size:120"`
	VendorName  string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Material) TableName() string {
	return "materials"
}

type Vendor struct {
	ID            int64  `gorm:"primaryKey"`
	CompanyID     string `gorm:"type:uuid;index;not null"`
	Name          string `gorm:"size:255;not null"`
	DisplayName   string `gorm:"size:255"`
	ContactName   string `gorm:"size:255"`
	Email         string `gorm:"size:320"`
	Phone         string `gorm:"size:32"`
	Address       string `gorm:"size:255"`
	City          string `gorm:"size:120"`
	State         string `gorm:"size:120"`
	Zip           string `gorm:"size:20"`
	Website       string `gorm:"size:255"`
	AccountNumber string `gorm:"size:120"`
	Notes         string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Vendor) TableName() string {
	return "vendors"
}
