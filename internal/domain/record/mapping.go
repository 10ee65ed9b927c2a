package record

import (
	"fmt"
	"strings"
)

// fieldAlias binds one accepted source column name to a target field.
// Aliases for the same target are listed lowest priority first: a later
// alias overwrites an earlier one when both columns carry a value.
type fieldAlias struct {
	source string
	target string
}

var fieldMappings = map[EntityType][]fieldAlias{
	EntityCustomer: {
		{"name", "display_name"},
		{"full_name", "display_name"},
		{"customer_name", "display_name"},
		{"display_name", "display_name"},
		{"first", "first_name"},
		{"first_name", "first_name"},
		{"last", "last_name"},
		{"surname", "last_name"},
		{"last_name", "last_name"},
		{"company", "company_name"},
		{"business_name", "company_name"},
		{"company_name", "company_name"},
		{"email_address", "email"},
		{"email", "email"},
		{"mobile", "phone"},
		{"cell", "phone"},
		{"phone_number", "phone"},
		{"phone", "phone"},
		{"street", "address"},
		{"street_address", "address"},
		{"address_1", "address"},
		{"address", "address"},
		{"town", "city"},
		{"city", "city"},
		{"province", "state"},
		{"state", "state"},
		{"postal_code", "zip"},
		{"zip_code", "zip"},
		{"zip", "zip"},
		{"comments", "notes"},
		{"notes", "notes"},
	},
	EntityJob: {
		{"name", "title"},
		{"job_name", "title"},
		{"job_title", "title"},
		{"title", "title"},
		{"details", "description"},
		{"description", "description"},
		{"client", "customer_name"},
		{"customer", "customer_name"},
		{"customer_name", "customer_name"},
		{"street_address", "address"},
		{"address", "address"},
		{"city", "city"},
		{"state", "state"},
		{"postal_code", "zip"},
		{"zip_code", "zip"},
		{"zip", "zip"},
		{"job_status", "status"},
		{"status", "status"},
		{"date", "scheduled_date"},
		{"start_date", "scheduled_date"},
		{"scheduled_date", "scheduled_date"},
		{"notes", "notes"},
	},
	EntityMaterial: {
		{"item", "name"},
		{"item_name", "name"},
		{"material_name", "name"},
		{"name", "name"},
		{"part_number", "sku"},
		{"item_code", "sku"},
		{"sku", "sku"},
		{"description", "description"},
		{"uom", "unit"},
		{"unit_of_measure", "unit"},
		{"unit", "unit"},
		{"price", "unit_cost"},
		{"cost", "unit_cost"},
		{"unit_cost", "unit_cost"},
		{"qty", "quantity"},
		{"stock", "quantity"},
		{"quantity", "quantity"},
		{"category", "category"},
		{"supplier", "vendor_name"},
		{"vendor", "vendor_name"},
		{"vendor_name", "vendor_name"},
	},
	EntityVendor: {
		{"company", "name"},
		{"company_name", "name"},
		{"vendor_name", "name"},
		{"name", "name"},
		{"display_name", "display_name"},
		{"contact", "contact_name"},
		{"contact_name", "contact_name"},
		{"email_address", "email"},
		{"email", "email"},
		{"phone_number", "phone"},
		{"phone", "phone"},
		{"street_address", "address"},
		{"address", "address"},
		{"city", "city"},
		{"state", "state"},
		{"postal_code", "zip"},
		{"zip_code", "zip"},
		{"zip", "zip"},
		{"url", "website"},
		{"website", "website"},
		{"account", "account_number"},
		{"account_number", "account_number"},
		{"notes", "notes"},
	},
}

// NormalizeHeader lower-cases a source column name and collapses whitespace
// runs to single underscores, matching the convention uploaded headers are
// keyed by.
func NormalizeHeader(header string) string {
	return strings.Join(strings.Fields(strings.ToLower(header)), "_")
}

// MappedRow is the outcome of mapping and validating one raw row.
type MappedRow struct {
	Valid  bool
	Record CanonicalRecord
	Errors []string
}

// MapAndValidate maps a raw header-keyed row onto the entity's canonical
// fields, applies the entity's required-field rules, and stamps the tenant
// onto the record. It is pure: the same row always yields the same result.
func MapAndValidate(raw map[string]string, entity EntityType, companyID string) MappedRow {
	aliases, ok := fieldMappings[entity]
	if !ok {
		return MappedRow{Errors: []string{fmt.Sprintf("Unknown data type: %s", entity)}}
	}

	fields := make(map[string]string)
	for _, alias := range aliases {
		value := strings.TrimSpace(raw[alias.source])
		if value != "" {
			fields[alias.target] = value
		}
	}
	fields["company_id"] = companyID

	var errs []string
	switch entity {
	case EntityCustomer:
		if fields["display_name"] == "" && fields["first_name"] == "" {
			errs = append(errs, "Customer name is required")
		} else if fields["display_name"] == "" {
			fields["display_name"] = strings.TrimSpace(fields["first_name"] + " " + fields["last_name"])
		}
	case EntityJob:
		if fields["title"] == "" {
			errs = append(errs, "Job title is required")
		}
	case EntityMaterial:
		if fields["name"] == "" {
			errs = append(errs, "Material name is required")
		}
	case EntityVendor:
		if fields["name"] == "" && fields["display_name"] == "" {
			errs = append(errs, "Vendor name is required")
		} else if fields["display_name"] == "" {
			fields["display_name"] = fields["name"]
		}
	}

	return MappedRow{
		Valid:  len(errs) == 0,
		Record: CanonicalRecord{Entity: entity, Fields: fields},
		Errors: errs,
	}
}
