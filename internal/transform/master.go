package transform

import (
	"strings"

	"github.com/finledger/ledger-engine/internal/ledger"
)

// defaultVendorType is assigned when vendor master data carries no type.
const defaultVendorType = "Supplier"

// Accounts transforms raw account master data into ledger entities: codes
// uppercased, names and types title-cased, active defaulting to true.
func Accounts(records []Record) []ledger.Account {
	result := make([]ledger.Account, 0, len(records))
	for _, rec := range records {
		canonical := canonicalize(rec)
		result = append(result, ledger.Account{
			Code:       cleanIdentifier(canonical[ColAccountCode]),
			Name:       titleCase(canonical["account_name"]),
			Type:       ledger.AccountType(titleCase(canonical["account_type"])),
			ParentCode: cleanIdentifier(canonical["parent_code"]),
			Active:     parseActive(canonical["is_active"]),
		})
	}
	return result
}

// Vendors transforms raw vendor master data into ledger entities.
func Vendors(records []Record) []ledger.Vendor {
	result := make([]ledger.Vendor, 0, len(records))
	for _, rec := range records {
		canonical := canonicalize(rec)
		vendorType := titleCase(canonical["vendor_type"])
		if vendorType == "" {
			vendorType = defaultVendorType
		}
		result = append(result, ledger.Vendor{
			Code:         cleanIdentifier(canonical[ColVendorCode]),
			Name:         titleCase(canonical["vendor_name"]),
			Type:         vendorType,
			ContactEmail: strings.ToLower(strings.TrimSpace(canonical["contact_email"])),
			ContactPhone: strings.TrimSpace(canonical["contact_phone"]),
			Address:      strings.TrimSpace(canonical["address"]),
			Active:       parseActive(canonical["is_active"]),
		})
	}
	return result
}

// parseActive interprets the master-data active flag; absent means active.
func parseActive(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "Y", "YES", "TRUE", "1":
		return true
	default:
		return false
	}
}
