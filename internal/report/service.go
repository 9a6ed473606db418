// Package report aggregates the synchronized collections into the figures
// the UI renders: period totals, category breakdowns and recurring dues.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hsalif/penna/internal/ledger"
)

// Collection is the read/write surface of a synchronized collection.
type Collection[T ledger.Entity] interface {
	Items() []T
	Update(fn func([]T) []T)
}

// RateSource resolves a base currency to its multiplier table.
type RateSource interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

type View string

const (
	ViewMonthly View = "monthly"
	ViewYearly  View = "yearly"
)

// Period selects the transactions a summary covers.
type Period struct {
	Year  int
	Month time.Month // ignored in yearly view
	View  View
}

// Start is the first instant of the period.
func (p Period) Start() time.Time {
	if p.View == ViewYearly {
		return time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) contains(date time.Time) bool {
	if p.View == ViewYearly {
		return date.Year() == p.Year
	}

	return date.Year() == p.Year && date.Month() == p.Month
}

type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Savings decimal.Decimal `json:"savings"`
}

type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
}

type Summary struct {
	Transactions    []ledger.Transaction `json:"transactions"`
	Totals          Totals               `json:"totals"`
	Net             decimal.Decimal      `json:"net"`
	StartingBalance decimal.Decimal      `json:"startingBalance"`
	ByCategory      []CategoryTotal      `json:"byCategory"`
	Currency        string               `json:"currency"`
	Converted       bool                 `json:"converted"` // false when rates were unavailable
}

// Due is a recurring expense annotated with its payment state for the
// current month.
type Due struct {
	ledger.RecurringExpense
	Paid bool `json:"paid"`
}

type Service struct {
	transactions Collection[ledger.Transaction]
	categories   Collection[ledger.Category]
	recurring    Collection[ledger.RecurringExpense]
	rates        RateSource
	mainCurrency string
}

func NewService(
	transactions Collection[ledger.Transaction],
	categories Collection[ledger.Category],
	recurring Collection[ledger.RecurringExpense],
	rates RateSource,
	mainCurrency string,
) *Service {
	return &Service{
		transactions: transactions,
		categories:   categories,
		recurring:    recurring,
		rates:        rates,
		mainCurrency: mainCurrency,
	}
}

// Summary aggregates the period's transactions in the main currency.
// Foreign amounts are converted with the rate table for the main currency;
// when rates are unavailable amounts pass through unconverted and the
// summary says so.
func (s *Service) Summary(ctx context.Context, p Period) *Summary {
	txs := s.transactions.Items()

	var table map[string]float64

	converted := true

	if s.needsConversion(txs) {
		var err error

		table, err = s.rates.Rates(ctx, s.mainCurrency)
		if err != nil {
			converted = false
		}
	}

	summary := &Summary{
		Currency:  s.mainCurrency,
		Converted: converted,
	}

	start := p.Start()
	byCategory := make(map[string]decimal.Decimal)

	for _, tx := range txs {
		date, err := time.Parse(time.DateOnly, tx.Date)
		if err != nil {
			continue
		}

		amount := s.convert(tx, table)

		if date.Before(start) {
			switch tx.Type {
			case ledger.TypeIncome:
				summary.StartingBalance = summary.StartingBalance.Add(amount)
			case ledger.TypeExpense, ledger.TypeSavings:
				summary.StartingBalance = summary.StartingBalance.Sub(amount)
			}

			continue
		}

		if !p.contains(date) {
			continue
		}

		summary.Transactions = append(summary.Transactions, tx)
		byCategory[tx.CategoryID] = byCategory[tx.CategoryID].Add(amount)

		switch tx.Type {
		case ledger.TypeIncome:
			summary.Totals.Income = summary.Totals.Income.Add(amount)
		case ledger.TypeExpense:
			summary.Totals.Expense = summary.Totals.Expense.Add(amount)
		case ledger.TypeSavings:
			summary.Totals.Savings = summary.Totals.Savings.Add(amount)
		}
	}

	summary.Net = summary.Totals.Income.
		Sub(summary.Totals.Expense).
		Sub(summary.Totals.Savings)

	categories := make(map[string]ledger.Category)
	for _, cat := range s.categories.Items() {
		categories[cat.ID] = cat
	}

	for id, total := range byCategory {
		cat := categories[id]
		summary.ByCategory = append(summary.ByCategory, CategoryTotal{
			CategoryID: id,
			Name:       cat.Name,
			Color:      cat.Color,
			Total:      total,
		})
	}

	sort.Slice(summary.ByCategory, func(i, j int) bool {
		return summary.ByCategory[i].Total.GreaterThan(summary.ByCategory[j].Total)
	})

	return summary
}

// UpcomingRecurring lists the active recurring expenses ordered by due day,
// marking the ones already paid in now's month.
func (s *Service) UpcomingRecurring(now time.Time) []Due {
	var dues []Due

	for _, item := range s.recurring.Items() {
		if !item.Active {
			continue
		}

		paid := false

		if item.LastPaidDate != "" {
			if last, err := time.Parse(time.DateOnly, item.LastPaidDate); err == nil {
				paid = last.Year() == now.Year() && last.Month() == now.Month()
			}
		}

		dues = append(dues, Due{RecurringExpense: item, Paid: paid})
	}

	sort.Slice(dues, func(i, j int) bool {
		return dues[i].DueDateDay < dues[j].DueDateDay
	})

	return dues
}

// ProcessRecurring converts the selected recurring expenses into dated
// expense transactions and stamps their last-paid date. Both mutations go
// through the synchronized collections.
func (s *Service) ProcessRecurring(ids []string, now time.Time) []ledger.Transaction {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}

	today := now.Format(time.DateOnly)

	var created []ledger.Transaction

	for _, item := range s.recurring.Items() {
		if _, ok := selected[item.ID]; !ok {
			continue
		}

		created = append(created, ledger.Transaction{
			ID:          ledger.NewID(),
			Date:        today,
			Description: item.Description,
			CategoryID:  item.CategoryID,
			Amount:      item.Amount,
			Type:        ledger.TypeExpense,
			PaymentLink: item.PaymentLink,
		})
	}

	if len(created) == 0 {
		return nil
	}

	s.transactions.Update(func(items []ledger.Transaction) []ledger.Transaction {
		return append(created, items...)
	})

	s.recurring.Update(func(items []ledger.RecurringExpense) []ledger.RecurringExpense {
		for i := range items {
			if _, ok := selected[items[i].ID]; ok {
				items[i].LastPaidDate = today
			}
		}

		return items
	})

	return created
}

func (s *Service) needsConversion(txs []ledger.Transaction) bool {
	for _, tx := range txs {
		if tx.Currency != "" && tx.Currency != s.mainCurrency {
			return true
		}
	}

	return false
}

// convert brings a transaction amount into the main currency. The rate
// table is keyed by target currency for the main base, so a foreign amount
// divides by its multiplier.
func (s *Service) convert(tx ledger.Transaction, table map[string]float64) decimal.Decimal {
	if tx.Currency == "" || tx.Currency == s.mainCurrency || table == nil {
		return tx.Amount
	}

	rate, ok := table[tx.Currency]
	if !ok || rate <= 0 {
		return tx.Amount
	}

	return tx.Amount.Div(decimal.NewFromFloat(rate))
}
