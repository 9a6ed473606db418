package report_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsalif/penna/internal/ledger"
	"github.com/hsalif/penna/internal/rates"
	"github.com/hsalif/penna/internal/report"
)

type fakeCollection[T ledger.Entity] struct {
	items []T
}

func (f *fakeCollection[T]) Items() []T {
	return slices.Clone(f.items)
}

func (f *fakeCollection[T]) Update(fn func([]T) []T) {
	f.items = fn(slices.Clone(f.items))
}

type fakeRates struct {
	table map[string]float64
	err   error
	calls int
}

func (f *fakeRates) Rates(context.Context, string) (map[string]float64, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.table, nil
}

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newService(
	txs []ledger.Transaction,
	recurring []ledger.RecurringExpense,
	rateSource report.RateSource,
) (*report.Service, *fakeCollection[ledger.Transaction], *fakeCollection[ledger.RecurringExpense]) {
	transactions := &fakeCollection[ledger.Transaction]{items: txs}
	categories := &fakeCollection[ledger.Category]{items: ledger.DefaultCategories()}
	recurringCol := &fakeCollection[ledger.RecurringExpense]{items: recurring}

	return report.NewService(transactions, categories, recurringCol, rateSource, "USD"),
		transactions, recurringCol
}

func TestService_SummaryMonthly(t *testing.T) {
	txs := []ledger.Transaction{
		{ID: "t1", Date: "2024-05-03", CategoryID: "c1", Amount: amount("3000"), Type: ledger.TypeIncome},
		{ID: "t2", Date: "2024-05-10", CategoryID: "c4", Amount: amount("250"), Type: ledger.TypeExpense},
		{ID: "t3", Date: "2024-05-20", CategoryID: "c6", Amount: amount("500"), Type: ledger.TypeSavings},
		// Prior month feeds the starting balance only.
		{ID: "t4", Date: "2024-04-01", CategoryID: "c1", Amount: amount("1000"), Type: ledger.TypeIncome},
		{ID: "t5", Date: "2024-04-15", CategoryID: "c4", Amount: amount("300"), Type: ledger.TypeExpense},
		// Future month is excluded entirely.
		{ID: "t6", Date: "2024-06-01", CategoryID: "c4", Amount: amount("99"), Type: ledger.TypeExpense},
		// Unparsable dates are skipped.
		{ID: "t7", Date: "May 3rd", CategoryID: "c4", Amount: amount("1"), Type: ledger.TypeExpense},
	}

	source := &fakeRates{}
	svc, _, _ := newService(txs, nil, source)

	summary := svc.Summary(context.Background(), report.Period{
		Year: 2024, Month: time.May, View: report.ViewMonthly,
	})

	assert.Len(t, summary.Transactions, 3)
	assert.True(t, summary.Totals.Income.Equal(amount("3000")))
	assert.True(t, summary.Totals.Expense.Equal(amount("250")))
	assert.True(t, summary.Totals.Savings.Equal(amount("500")))
	assert.True(t, summary.Net.Equal(amount("2250")))
	assert.True(t, summary.StartingBalance.Equal(amount("700")), "prior income minus expense")
	assert.Equal(t, 0, source.calls, "no foreign currency, no rate lookup")
	assert.True(t, summary.Converted)

	require.Len(t, summary.ByCategory, 3)
	assert.Equal(t, "c1", summary.ByCategory[0].CategoryID, "largest total first")
	assert.Equal(t, "Salary", summary.ByCategory[0].Name)
}

func TestService_SummaryYearly(t *testing.T) {
	txs := []ledger.Transaction{
		{ID: "t1", Date: "2024-01-03", CategoryID: "c1", Amount: amount("100"), Type: ledger.TypeIncome},
		{ID: "t2", Date: "2024-12-30", CategoryID: "c4", Amount: amount("40"), Type: ledger.TypeExpense},
		{ID: "t3", Date: "2023-12-31", CategoryID: "c1", Amount: amount("10"), Type: ledger.TypeIncome},
	}

	svc, _, _ := newService(txs, nil, &fakeRates{})

	summary := svc.Summary(context.Background(), report.Period{Year: 2024, View: report.ViewYearly})

	assert.Len(t, summary.Transactions, 2)
	assert.True(t, summary.StartingBalance.Equal(amount("10")))
}

func TestService_SummaryConvertsForeignCurrency(t *testing.T) {
	txs := []ledger.Transaction{
		{ID: "t1", Date: "2024-05-03", CategoryID: "c4", Amount: amount("375"), Type: ledger.TypeExpense, Currency: "SAR"},
		{ID: "t2", Date: "2024-05-04", CategoryID: "c4", Amount: amount("50"), Type: ledger.TypeExpense},
	}

	source := &fakeRates{table: map[string]float64{"SAR": 3.75}}
	svc, _, _ := newService(txs, nil, source)

	summary := svc.Summary(context.Background(), report.Period{
		Year: 2024, Month: time.May, View: report.ViewMonthly,
	})

	assert.True(t, summary.Totals.Expense.Equal(amount("150")), "375 SAR at 3.75 is 100 USD, plus 50 USD")
	assert.True(t, summary.Converted)
	assert.Equal(t, 1, source.calls)
}

func TestService_SummaryDegradesWithoutRates(t *testing.T) {
	txs := []ledger.Transaction{
		{ID: "t1", Date: "2024-05-03", CategoryID: "c4", Amount: amount("375"), Type: ledger.TypeExpense, Currency: "SAR"},
	}

	svc, _, _ := newService(txs, nil, &fakeRates{err: rates.ErrUnavailable})

	summary := svc.Summary(context.Background(), report.Period{
		Year: 2024, Month: time.May, View: report.ViewMonthly,
	})

	assert.False(t, summary.Converted)
	assert.True(t, summary.Totals.Expense.Equal(amount("375")), "original amount passes through")
}

func TestService_UpcomingRecurring(t *testing.T) {
	now := time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)

	recurring := []ledger.RecurringExpense{
		{ID: "r1", Description: "Rent", DueDateDay: 15, Active: true, LastPaidDate: "2024-04-15"},
		{ID: "r2", Description: "Netflix", DueDateDay: 1, Active: true, LastPaidDate: "2024-05-01"},
		{ID: "r3", Description: "Old Gym", DueDateDay: 5, Active: false},
	}

	svc, _, _ := newService(nil, recurring, &fakeRates{})

	dues := svc.UpcomingRecurring(now)

	require.Len(t, dues, 2, "inactive items are excluded")
	assert.Equal(t, "r2", dues[0].ID, "ordered by due day")
	assert.True(t, dues[0].Paid, "paid this month")
	assert.Equal(t, "r1", dues[1].ID)
	assert.False(t, dues[1].Paid, "last paid in a previous month")
}

func TestService_ProcessRecurring(t *testing.T) {
	now := time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)

	existing := []ledger.Transaction{
		{ID: "t1", Date: "2024-05-01", Amount: amount("10"), Type: ledger.TypeExpense},
	}

	recurring := []ledger.RecurringExpense{
		{ID: "r1", Description: "Rent", Amount: amount("4000"), CategoryID: "c3", DueDateDay: 1, Active: true, PaymentLink: "https://pay.example"},
		{ID: "r2", Description: "Netflix", Amount: amount("45"), CategoryID: "c5", DueDateDay: 15, Active: true},
	}

	svc, transactions, recurringCol := newService(existing, recurring, &fakeRates{})

	created := svc.ProcessRecurring([]string{"r1", "missing"}, now)

	require.Len(t, created, 1)
	assert.Equal(t, "Rent", created[0].Description)
	assert.Equal(t, ledger.TypeExpense, created[0].Type)
	assert.Equal(t, "2024-05-20", created[0].Date)
	assert.Equal(t, "https://pay.example", created[0].PaymentLink)
	assert.NotEmpty(t, created[0].ID)

	items := transactions.Items()
	require.Len(t, items, 2)
	assert.Equal(t, created[0].ID, items[0].ID, "new transactions are prepended")

	updated := recurringCol.Items()
	assert.Equal(t, "2024-05-20", updated[0].LastPaidDate)
	assert.Empty(t, updated[1].LastPaidDate, "unselected items untouched")

	assert.Nil(t, svc.ProcessRecurring(nil, now))
}
