package domain

// AccountCategory defines the fundamental accounting category of an account type.
type AccountCategory string

const (
	Asset     AccountCategory = "ASSET"
	Liability AccountCategory = "LIABILITY"
	Equity    AccountCategory = "EQUITY"
	Income    AccountCategory = "INCOME"
	Expense   AccountCategory = "EXPENSE"
)

// IsDebitNormal reports whether accounts of this category increase with debits
// (positive entries). Asset and expense accounts are debit-normal; liability,
// equity and income accounts are credit-normal.
func (c AccountCategory) IsDebitNormal() bool {
	return c == Asset || c == Expense
}

// Valid reports whether c is one of the known categories.
func (c AccountCategory) Valid() bool {
	switch c {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// AccountType is reference data classifying accounts. Immutable once an
// account refers to it; codes are unique within a registry.
type AccountType struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Category AccountCategory `json:"category"`
}

// Account is a named ledger node of a given type. It aggregates entries but
// does not own their lifecycle beyond association; an account with entries
// cannot be deleted.
type Account struct {
	AccountID string `json:"accountID"` // Primary key (UUID)
	Name      string `json:"name"`
	TypeCode  string `json:"typeCode"` // Ref -> AccountType.Code in the registry
	Currency  string `json:"currency"`
	AuditFields
}
