package registry

import "github.com/arledger/arledger/internal/core/domain"

// Well-known reference data codes used by the default configuration.
const (
	AccountReceivables = "RE"
	AccountSettlements = "SE"
	AccountSuspense    = "SU"

	EntryCapital          = "CA"
	EntryFee              = "FE"
	EntryInterest         = "IN"
	EntryRent             = "IR"
	EntryPayment          = "PM"
	EntrySettlement       = "SE"
	EntryManualSettlement = "MS"
	EntryOverpayment      = "OP"
	EntryCreditNoteRecon  = "CN"
)

// Default returns a registry preloaded with the stock chart of reference
// data. Payback priorities order invoice items during settlement: interest
// is paid off first, then fees, then capital.
func Default() *Registry {
	r := New()
	accountTypes := []domain.AccountType{
		{Code: AccountReceivables, Name: "Receivables", Category: domain.Asset},
		{Code: AccountSettlements, Name: "Settlements", Category: domain.Asset},
		{Code: AccountSuspense, Name: "Suspense", Category: domain.Liability},
	}
	entryTypes := []domain.EntryType{
		{Code: EntryCapital, Name: "Capital", Classification: domain.Other, PaybackPriority: 3},
		{Code: EntryFee, Name: "Fee", Classification: domain.Other, PaybackPriority: 2},
		{Code: EntryInterest, Name: "Interest", Classification: domain.Other, PaybackPriority: 1},
		{Code: EntryRent, Name: "Rent", Classification: domain.Other, PaybackPriority: 3},
		{Code: EntryPayment, Name: "Payment", Classification: domain.Payment},
		{Code: EntrySettlement, Name: "Settlement", Classification: domain.Settlement},
		{Code: EntryManualSettlement, Name: "Manual settlement", Classification: domain.Settlement},
		{Code: EntryOverpayment, Name: "Overpayment", Classification: domain.Other, PaybackPriority: 3},
		{Code: EntryCreditNoteRecon, Name: "Credit note reconciliation", Classification: domain.Settlement},
	}
	for _, at := range accountTypes {
		if err := r.RegisterAccountType(at); err != nil {
			panic(err) // static data, cannot collide
		}
	}
	for _, et := range entryTypes {
		if err := r.RegisterEntryType(et); err != nil {
			panic(err)
		}
	}
	return r
}
