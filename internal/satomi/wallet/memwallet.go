package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemWallet is an in-process wallet backend used by cmd/satomi when no real
// node is wired, and by the test suites. It implements SnapshotSource and
// Broadcaster over a mutable in-memory ledger.
type MemWallet struct {
	mu             sync.Mutex
	balanceSats    int64
	pendingSats    int64
	utxoCount      int
	receiveAddress string
	txs            []Tx
	network        string
	blockHeight    int64

	// FailWith, when non-nil, makes the next SignAndBroadcast return this
	// error instead of succeeding. Used to exercise the error flow.
	FailWith error

	broadcasts int
}

// NewMemWallet returns a wallet pre-funded with the given balance.
func NewMemWallet(balanceSats int64, receiveAddress string) *MemWallet {
	return &MemWallet{
		balanceSats:    balanceSats,
		utxoCount:      3,
		receiveAddress: receiveAddress,
		network:        "mainnet",
		blockHeight:    860_000,
	}
}

// Snapshot implements SnapshotSource.
func (w *MemWallet) Snapshot(ctx context.Context) (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	txs := make([]Tx, len(w.txs))
	copy(txs, w.txs)
	return &Snapshot{
		BalanceSats:    w.balanceSats,
		PendingSats:    w.pendingSats,
		UTXOCount:      w.utxoCount,
		ReceiveAddress: w.receiveAddress,
		RecentTxs:      txs,
		Network:        w.network,
		BlockHeight:    w.blockHeight,
		PeerCount:      8,
		Synced:         true,
	}, nil
}

// SignAndBroadcast implements Broadcaster. The fee is approximated from the
// rate and a nominal 1-in-2-out vsize so the ledger stays plausible.
func (w *MemWallet) SignAndBroadcast(ctx context.Context, req SendRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.FailWith != nil {
		err := w.FailWith
		w.FailWith = nil
		return "", err
	}

	const nominalVsize = 141
	feeSats := int64(req.FeeRateSatVB * nominalVsize)
	total := req.AmountSats + feeSats
	if total > w.balanceSats {
		return "", fmt.Errorf("need %d sats, have %d: %w", total, w.balanceSats, ErrInsufficientFunds)
	}

	txid := randomTxID()
	w.balanceSats -= total
	w.pendingSats += req.AmountSats
	w.broadcasts++
	w.txs = append([]Tx{{
		TxID:       txid,
		AmountSats: -req.AmountSats,
		Address:    req.Address,
		Timestamp:  time.Now(),
	}}, w.txs...)
	return txid, nil
}

// SeedHistory replaces the transaction list, newest first.
func (w *MemWallet) SeedHistory(txs []Tx) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.txs = txs
}

// Broadcasts returns how many sends have been broadcast. The duplicate-
// confirmation tests assert on this counter.
func (w *MemWallet) Broadcasts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.broadcasts
}

func randomTxID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%064x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// StaticPrice is a PriceSource that always quotes the same prices, keyed by
// uppercase currency code. Currencies without an entry are unavailable.
type StaticPrice map[string]decimal.Decimal

// Price implements PriceSource.
func (p StaticPrice) Price(ctx context.Context, currency string) (decimal.Decimal, error) {
	q, ok := p[strings.ToUpper(currency)]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no quote for %s: %w", currency, ErrUnavailable)
	}
	return q, nil
}

// StaticFees is a FeeSource that always returns the same estimate triple.
type StaticFees FeeEstimates

// Estimates implements FeeSource.
func (f StaticFees) Estimates(ctx context.Context) (FeeEstimates, error) {
	est := FeeEstimates(f)
	est.FetchedAt = time.Now()
	return est, nil
}
