package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type represents the type of a transaction (income, expense or savings).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
	TypeSavings Type = "savings"
)

// Valid reports whether t is one of the known transaction types.
func (t Type) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeSavings:
		return true
	}

	return false
}

// Entity is anything held in a synchronized collection. The identifier is
// the merge key between the local and remote copies of a row; it never
// changes after creation.
type Entity interface {
	EntityID() string
}

// Transaction represents a single ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"` // calendar day, YYYY-MM-DD
	Description string          `json:"desc"`
	CategoryID  string          `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Type            `json:"type"`
	PaymentLink string          `json:"paymentLink,omitempty"`
	Attachment  string          `json:"attachment,omitempty"` // proxy URL or inline-encoded blob
	Currency    string          `json:"currency,omitempty"`   // empty means the configured main currency
}

func (t Transaction) EntityID() string { return t.ID }

// Category partitions transactions of a single type.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"` // display hex
	Type  Type   `json:"type"`
}

func (c Category) EntityID() string { return c.ID }

// RecurringExpense is a monthly bill template.
type RecurringExpense struct {
	ID           string          `json:"id"`
	Description  string          `json:"desc"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryID   string          `json:"categoryId"`
	DueDateDay   int             `json:"dueDateDay"` // 1-31
	PaymentLink  string          `json:"paymentLink,omitempty"`
	Active       bool            `json:"active"`
	Attachment   string          `json:"attachment,omitempty"`
	LastPaidDate string          `json:"lastPaidDate,omitempty"` // YYYY-MM-DD of the last payment
}

func (r RecurringExpense) EntityID() string { return r.ID }

// NewID returns a fresh collection-unique identifier.
func NewID() string {
	return uuid.NewString()
}

// DefaultCategories seeds a new ledger before any persisted or remote
// state is available.
func DefaultCategories() []Category {
	return []Category{
		{ID: "c1", Name: "Salary", Icon: "Wallet", Color: "#047857", Type: TypeIncome},
		{ID: "c2", Name: "Freelance", Icon: "Briefcase", Color: "#4d7c0f", Type: TypeIncome},
		{ID: "c3", Name: "Housing", Icon: "Home", Color: "#be123c", Type: TypeExpense},
		{ID: "c4", Name: "Food", Icon: "Utensils", Color: "#c2410c", Type: TypeExpense},
		{ID: "c5", Name: "Lifestyle", Icon: "Coffee", Color: "#7e22ce", Type: TypeExpense},
		{ID: "c6", Name: "Emergency Fund", Icon: "Safe", Color: "#d4a373", Type: TypeSavings},
	}
}

// DefaultRecurringExpenses seeds the recurring bill list.
func DefaultRecurringExpenses() []RecurringExpense {
	return []RecurringExpense{
		{ID: "r1", Description: "Apartment Rent", Amount: decimal.NewFromInt(4000), CategoryID: "c3", DueDateDay: 1, Active: true},
		{ID: "r2", Description: "Netflix Subscription", Amount: decimal.NewFromInt(45), CategoryID: "c5", DueDateDay: 15, Active: true},
	}
}
