package repository

import (
	"context"
	"fmt"

	record "github.com/fieldops/importer/internal/domain/record"
	"github.com/fieldops/importer/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// existingRecordLimit bounds how many stored records feed the duplicate
// check; the pairwise comparison is quadratic.
const existingRecordLimit = 2000

// ExistingRecordRepository reads already-committed records back as
// canonical records so uploads can be deduplicated against the store.
type ExistingRecordRepository struct {
	db *gorm.DB
}

func NewExistingRecordRepository(db *gorm.DB) *ExistingRecordRepository {
	return &ExistingRecordRepository{db: db}
}

func (r *ExistingRecordRepository) ListByCompany(ctx context.Context, entity record.EntityType, companyID string) ([]record.CanonicalRecord, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id").Limit(existingRecordLimit)

	switch entity {
	case record.EntityCustomer:
		var rows []models.Customer
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list customers: %w", err)
		}
		out := make([]record.CanonicalRecord, 0, len(rows))
		for _, row := range rows {
			out = append(out, canonical(entity, companyID, map[string]string{
				"display_name": row.DisplayName,
				"first_name":   row.FirstName,
				"last_name":    row.LastName,
				"company_name": row.CompanyName,
				"email":        row.Email,
				"phone":        row.Phone,
				"address":      row.Address,
				"city":         row.City,
				"state":        row.State,
				"zip":          row.Zip,
			}))
		}
		return out, nil
	case record.EntityJob:
		var rows []models.Job
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		out := make([]record.CanonicalRecord, 0, len(rows))
		for _, row := range rows {
			out = append(out, canonical(entity, companyID, map[string]string{
				"title":         row.Title,
				"customer_name": row.CustomerName,
				"address":       row.Address,
				"city":          row.City,
				"state":         row.State,
				"zip":           row.Zip,
			}))
		}
		return out, nil
	case record.EntityMaterial:
		var rows []models.Material
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list materials: %w", err)
		}
		out := make([]record.CanonicalRecord, 0, len(rows))
		for _, row := range rows {
			out = append(out, canonical(entity, companyID, map[string]string{
				"name": row.Name,
				"sku":  row.Sku,
			}))
		}
		return out, nil
	case record.EntityVendor:
		var rows []models.Vendor
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list vendors: %w", err)
		}
		out := make([]record.CanonicalRecord, 0, len(rows))
		for _, row := range rows {
			out = append(out, canonical(entity, companyID, map[string]string{
				"name":         row.Name,
				"display_name": row.DisplayName,
				"email":        row.Email,
				"phone":        row.Phone,
				"address":      row.Address,
				"city":         row.City,
				"state":        row.State,
				"zip":          row.Zip,
			}))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", record.ErrUnknownDataType, entity)
	}
}

// canonical builds a record from the non-empty columns only, so the
// similarity denominator sees the same field presence an upload would.
func canonical(entity record.EntityType, companyID string, columns map[string]string) record.CanonicalRecord {
	fields := map[string]string{"company_id": companyID}
	for key, value := range columns {
		if value != "" {
			fields[key] = value
		}
	}
	return record.CanonicalRecord{Entity: entity, Fields: fields}
}
