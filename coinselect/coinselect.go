// Package coinselect chooses unspent Chia coins to fund a spend.
//
// Selection is deterministic and greedy: coins are consumed largest-first
// until the running total covers the required amount. There is no change
// minimization or dust consolidation; callers that care about the leftover
// use the change amount reported by PlanSpend.
package coinselect

import (
	"fmt"
	"math/big"
	"sort"
)

// Coin is an unspent value-bearing coin record. Coins are immutable; the
// selector copies them into the result and never mutates the input.
type Coin struct {
	// ParentCoinInfo is the hex id of the coin that created this coin.
	ParentCoinInfo string

	// PuzzleHash is the hex hash of the coin's spending condition.
	PuzzleHash string

	// Amount is the coin value in mojos. Individual amounts fit in a
	// uint64, but sums across coins can exceed it.
	Amount uint64
}

// ErrInsufficientFunds is returned when no subset of the available coins can
// cover the required amount. It carries the shortfall so callers can render
// a meaningful message, and is an expected outcome rather than an
// exceptional one.
type ErrInsufficientFunds struct {
	// Required is the amount the selection had to reach.
	Required *big.Int

	// Available is the sum of every available coin.
	Available *big.Int
}

// Error returns a human-readable string describing the error.
func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: need %v mojos, only %v mojos available",
		e.Required, e.Available)
}

// Selection is the outcome of a successful coin selection.
type Selection struct {
	// Coins holds the selected coins in selection order, largest first.
	Coins []Coin

	// Total is the summed amount of the selected coins. Always at least
	// the required amount.
	Total *big.Int
}

// SelectCoins picks a subset of the available coins whose summed amount is
// at least required. Coins are sorted by amount descending, ties keeping the
// caller's input order, and accumulated until the total meets the target.
// A required amount of zero succeeds with an empty selection.
func SelectCoins(required *big.Int, available []Coin) (*Selection, error) {
	if required == nil {
		required = new(big.Int)
	}
	if required.Sign() < 0 {
		return nil, fmt.Errorf("required amount must not be negative, got %v", required)
	}

	sorted := make([]Coin, len(available))
	copy(sorted, available)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})

	total := new(big.Int)
	selected := make([]Coin, 0, len(sorted))
	for _, coin := range sorted {
		if total.Cmp(required) >= 0 {
			break
		}
		selected = append(selected, coin)
		total.Add(total, new(big.Int).SetUint64(coin.Amount))
	}

	// The loop only stops early once the target is met, so an exhausted
	// total is the sum of every available coin.
	if total.Cmp(required) < 0 {
		return nil, &ErrInsufficientFunds{
			Required:  new(big.Int).Set(required),
			Available: total,
		}
	}

	return &Selection{Coins: selected, Total: total}, nil
}

// SpendPlan is a funded spend: the coins covering amount plus fee, and the
// change owed back to the spender.
type SpendPlan struct {
	Selection

	// Amount is the payment amount in mojos.
	Amount *big.Int

	// Fee is the network fee in mojos.
	Fee *big.Int

	// Change is Total - Amount - Fee. Zero when the selection is exact.
	Change *big.Int
}

// PlanSpend selects coins covering amount plus fee and computes the change.
func PlanSpend(amount, fee *big.Int, available []Coin) (*SpendPlan, error) {
	if amount == nil {
		amount = new(big.Int)
	}
	if fee == nil {
		fee = new(big.Int)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("spend amount must not be negative, got %v", amount)
	}
	if fee.Sign() < 0 {
		return nil, fmt.Errorf("fee must not be negative, got %v", fee)
	}

	required := new(big.Int).Add(amount, fee)
	selection, err := SelectCoins(required, available)
	if err != nil {
		return nil, err
	}

	return &SpendPlan{
		Selection: *selection,
		Amount:    new(big.Int).Set(amount),
		Fee:       new(big.Int).Set(fee),
		Change:    new(big.Int).Sub(selection.Total, required),
	}, nil
}
