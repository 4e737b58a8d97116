package chiawallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/brightpool/chia-wallet-sdk/coinselect"
)

// Wallet exposes the high-level flows of one custodial wallet: balance and
// history reads scoped to the wallet's own address, and transfers that
// select coins, have the custody backend sign, and broadcast.
type Wallet struct {
	cfg        *Config
	logger     zerolog.Logger
	custody    *CustodyManager
	explorer   *ExplorerClient
	puzzleHash []byte
}

// NewWallet creates a wallet bound to the configured address
func NewWallet(cfg *Config, logger zerolog.Logger, custody *CustodyManager, explorer *ExplorerClient) (*Wallet, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("wallet address not configured")
	}

	prefix, puzzleHash, err := DecodeAddress(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address: %w", err)
	}
	if prefix != cfg.AddressPrefix() {
		return nil, fmt.Errorf("wallet address prefix %q does not match network %s", prefix, cfg.Network)
	}

	return &Wallet{
		cfg:        cfg,
		logger:     logger,
		custody:    custody,
		explorer:   explorer,
		puzzleHash: puzzleHash,
	}, nil
}

// Address returns the wallet's receive address
func (w *Wallet) Address() string {
	return w.cfg.Address
}

// PublicKey returns the wallet's master public key from the custody backend
func (w *Wallet) PublicKey(ctx context.Context) (string, error) {
	return w.custody.GetPublicKey(ctx, w.cfg.WalletID)
}

// Balance returns the wallet's balance
func (w *Wallet) Balance(ctx context.Context) (*Balance, error) {
	return w.explorer.GetBalance(ctx, w.cfg.Address)
}

// NFTs returns the wallet's NFTs
func (w *Wallet) NFTs(ctx context.Context) ([]NFT, error) {
	return w.explorer.GetNFTs(ctx, w.cfg.Address)
}

// Transactions returns up to limit entries of the wallet's history
func (w *Wallet) Transactions(ctx context.Context, limit int) ([]TransactionRecord, error) {
	return w.explorer.GetTransactions(ctx, w.cfg.Address, limit)
}

// SpendableCoins returns the wallet's unspent coins as selector inputs
func (w *Wallet) SpendableCoins(ctx context.Context) ([]coinselect.Coin, error) {
	records, err := w.explorer.GetCoins(ctx, PuzzleHashToHex(w.puzzleHash))
	if err != nil {
		return nil, err
	}

	coins := make([]coinselect.Coin, 0, len(records))
	for _, record := range records {
		if record.Spent {
			continue
		}
		coins = append(coins, coinselect.Coin{
			ParentCoinInfo: record.Coin.ParentCoinInfo,
			PuzzleHash:     record.Coin.PuzzleHash,
			Amount:         record.Coin.Amount,
		})
	}

	return coins, nil
}

// Transfer sends amount mojos to an address, paying fee mojos on top.
// Change goes back to the wallet's own puzzle hash. Returns the broadcast
// transaction name. An uncoverable amount surfaces as
// *coinselect.ErrInsufficientFunds.
func (w *Wallet) Transfer(ctx context.Context, toAddress string, amount, fee *big.Int) (string, error) {
	prefix, toPuzzleHash, err := DecodeAddress(toAddress)
	if err != nil {
		return "", fmt.Errorf("invalid destination address: %w", err)
	}
	if prefix != w.cfg.AddressPrefix() {
		return "", fmt.Errorf("destination address prefix %q does not match network %s", prefix, w.cfg.Network)
	}

	available, err := w.SpendableCoins(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch spendable coins: %w", err)
	}

	plan, err := coinselect.PlanSpend(amount, fee, available)
	if err != nil {
		return "", err
	}

	payments, err := w.buildPayments(toPuzzleHash, plan)
	if err != nil {
		return "", err
	}

	spendFee, err := mojoAmount(plan.Fee)
	if err != nil {
		return "", err
	}

	req := SpendRequest{
		WalletID: w.cfg.WalletID,
		Coins:    wireCoins(plan.Coins),
		Payments: payments,
		Fee:      spendFee,
	}

	bundle, err := w.custody.CreateSpendBundle(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to sign spend bundle: %w", err)
	}

	name, err := w.explorer.PushTransaction(ctx, bundle)
	if err != nil {
		return "", fmt.Errorf("failed to broadcast spend bundle: %w", err)
	}

	// The coin set changed; cached coin and balance reads are stale now.
	w.explorer.requests.Clear("coins:" + PuzzleHashToHex(w.puzzleHash))
	w.explorer.requests.Clear("balance:" + w.cfg.Address)

	w.logger.Info().
		Str("name", name).
		Str("to", toAddress).
		Str("amount", plan.Amount.String()).
		Str("fee", plan.Fee.String()).
		Str("change", plan.Change.String()).
		Int("coin_count", len(plan.Coins)).
		Msg("Transfer broadcast")

	return name, nil
}

// Offer asks the custody backend to create and sign an offer trading the
// wallet's coins for the requested payments
func (w *Wallet) Offer(ctx context.Context, offered []coinselect.Coin, requested []Payment, fee *big.Int) (string, error) {
	offerFee, err := mojoAmount(fee)
	if err != nil {
		return "", err
	}

	offer := UnsignedOffer{
		WalletID:          w.cfg.WalletID,
		OfferedCoins:      wireCoins(offered),
		RequestedPayments: requested,
		Fee:               offerFee,
	}

	return w.custody.CreateOffer(ctx, offer)
}

func (w *Wallet) buildPayments(toPuzzleHash []byte, plan *coinselect.SpendPlan) ([]Payment, error) {
	amount, err := mojoAmount(plan.Amount)
	if err != nil {
		return nil, err
	}

	payments := []Payment{{
		PuzzleHash: PuzzleHashToHex(toPuzzleHash),
		Amount:     amount,
	}}

	if plan.Change.Sign() > 0 {
		change, err := mojoAmount(plan.Change)
		if err != nil {
			return nil, err
		}
		payments = append(payments, Payment{
			PuzzleHash: PuzzleHashToHex(w.puzzleHash),
			Amount:     change,
		})
	}

	return payments, nil
}

func wireCoins(coins []coinselect.Coin) []Coin {
	wire := make([]Coin, len(coins))
	for i, coin := range coins {
		wire[i] = Coin{
			ParentCoinInfo: coin.ParentCoinInfo,
			PuzzleHash:     coin.PuzzleHash,
			Amount:         coin.Amount,
		}
	}
	return wire
}

// mojoAmount narrows a big.Int to a single payment amount. Individual
// payments must fit in a uint64 even though selection totals may not.
func mojoAmount(v *big.Int) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount %v does not fit in a single payment", v)
	}
	return v.Uint64(), nil
}
