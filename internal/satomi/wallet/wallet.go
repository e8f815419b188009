// Package wallet defines the contracts between the conversation engine and
// the wallet backend: a read-only state snapshot, the signing/broadcast
// boundary, and the live price and fee-estimate collaborators.
//
// The engine never constructs, signs, or broadcasts transactions itself and
// never validates address checksums — those concerns live behind the
// interfaces in this package. Everything the engine hands over has already
// passed structural extraction only.
package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// SatsPerBTC is the number of satoshis in one bitcoin.
const SatsPerBTC = 100_000_000

// MaxSupplySats is the total bitcoin supply in satoshis. Amounts above this
// are rejected during extraction as nonsense input.
const MaxSupplySats = 21_000_000 * SatsPerBTC

// Typed failures returned by the signing/broadcast collaborator. The flow
// controller surfaces these verbatim and moves the conversation to its error
// state; the next message may retry or cancel.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSigningFailed     = errors.New("signing failed")
	ErrNetworkFailure    = errors.New("network failure")

	// ErrUnavailable is returned by the price and fee collaborators when a
	// quote cannot be produced in time. Callers degrade to an "unavailable"
	// reply — they never block indefinitely waiting for one.
	ErrUnavailable = errors.New("collaborator unavailable")
)

// FeeEstimates is the {slow, medium, fast} rate triple in sat/vB.
type FeeEstimates struct {
	SlowSatVB   float64
	MediumSatVB float64
	FastSatVB   float64
	FetchedAt   time.Time
}

// Rate returns the rate for the named urgency level. Unknown levels fall
// back to medium.
func (f FeeEstimates) Rate(level string) float64 {
	switch level {
	case "slow":
		return f.SlowSatVB
	case "fast":
		return f.FastSatVB
	default:
		return f.MediumSatVB
	}
}

// Tx is one wallet transaction as shown to the user in history listings.
type Tx struct {
	TxID          string
	AmountSats    int64 // negative for outgoing
	Address       string
	Confirmations int
	Timestamp     time.Time
}

// Incoming reports whether the transaction credited the wallet.
func (t Tx) Incoming() bool { return t.AmountSats >= 0 }

// Snapshot is the read-only wallet state handed to the engine per message.
type Snapshot struct {
	BalanceSats    int64
	PendingSats    int64
	UTXOCount      int
	ReceiveAddress string
	RecentTxs      []Tx
	Network        string // "mainnet" or "testnet"
	BlockHeight    int64
	PeerCount      int
	Synced         bool
}

// BalanceBTC returns the confirmed balance as a decimal BTC amount.
func (s *Snapshot) BalanceBTC() decimal.Decimal {
	return decimal.New(s.BalanceSats, 0).Div(decimal.New(SatsPerBTC, 0))
}

// SnapshotSource produces the current wallet snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// SendRequest is the finalized triple handed to the broadcaster once the
// user has confirmed a pending send.
type SendRequest struct {
	Address      string
	AmountSats   int64
	FeeRateSatVB float64
}

// Broadcaster signs and broadcasts a confirmed send. It returns the txid on
// success, or one of the typed failures above. Implementations perform the
// checksum validation the extractor deliberately skipped.
type Broadcaster interface {
	SignAndBroadcast(ctx context.Context, req SendRequest) (txid string, err error)
}

// PriceSource quotes the BTC price in the given ISO-4217 currency.
type PriceSource interface {
	Price(ctx context.Context, currency string) (decimal.Decimal, error)
}

// FeeSource produces current network fee estimates.
type FeeSource interface {
	Estimates(ctx context.Context) (FeeEstimates, error)
}

// BTCToSats converts a decimal BTC amount to satoshis, truncating below
// one satoshi.
func BTCToSats(btc decimal.Decimal) int64 {
	return btc.Mul(decimal.New(SatsPerBTC, 0)).IntPart()
}

// SatsToBTC converts satoshis to a decimal BTC amount.
func SatsToBTC(sats int64) decimal.Decimal {
	return decimal.New(sats, 0).Div(decimal.New(SatsPerBTC, 0))
}
