package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/hsalif/penna/internal/ledger"
	"github.com/hsalif/penna/internal/synced"
)

var errUnknownCategory = errors.New("unknown category")

// prepareTransaction fills in missing identifiers and rejects payloads
// that disagree with the category they reference.
func prepareTransaction(categories *synced.Collection[ledger.Category]) func(ledger.Transaction) (ledger.Transaction, error) {
	return func(tx ledger.Transaction) (ledger.Transaction, error) {
		if tx.ID == "" {
			tx.ID = ledger.NewID()
		}

		if !tx.Type.Valid() {
			return tx, fmt.Errorf("invalid transaction type %q", tx.Type)
		}

		if tx.Amount.IsNegative() {
			return tx, errors.New("amount must not be negative")
		}

		if tx.Date == "" {
			tx.Date = time.Now().Format("2006-01-02")
		} else if _, err := time.Parse("2006-01-02", tx.Date); err != nil {
			return tx, fmt.Errorf("invalid date %q, want YYYY-MM-DD", tx.Date)
		}

		category, ok := findCategory(categories, tx.CategoryID)
		if !ok {
			return tx, errUnknownCategory
		}

		if category.Type != tx.Type {
			return tx, fmt.Errorf("category %q is %s, transaction is %s", category.Name, category.Type, tx.Type)
		}

		return tx, nil
	}
}

func prepareCategory(c ledger.Category) (ledger.Category, error) {
	if c.ID == "" {
		c.ID = ledger.NewID()
	}

	if c.Name == "" {
		return c, errors.New("name is required")
	}

	if !c.Type.Valid() {
		return c, fmt.Errorf("invalid category type %q", c.Type)
	}

	return c, nil
}

func prepareRecurring(r ledger.RecurringExpense) (ledger.RecurringExpense, error) {
	if r.ID == "" {
		r.ID = ledger.NewID()
	}

	if r.Amount.IsNegative() {
		return r, errors.New("amount must not be negative")
	}

	if r.DueDateDay < 1 || r.DueDateDay > 31 {
		return r, fmt.Errorf("due day %d out of range", r.DueDateDay)
	}

	return r, nil
}

func findCategory(categories *synced.Collection[ledger.Category], id string) (ledger.Category, bool) {
	for _, c := range categories.Items() {
		if c.ID == id {
			return c, true
		}
	}

	return ledger.Category{}, false
}
