// Package intent defines the closed set of wallet operations the engine can
// recognize, and the pattern-based classifier that maps free text onto them
// with calibrated, tiered confidence.
//
// Classification is deterministic and rule-based: keyword sets, trigger
// phrases, regular expressions, and typo-tolerant fuzzy matching. There is no
// statistical model anywhere in this package, so every result is explainable
// from the matched pattern recorded in Score.Provenance.
package intent

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind enumerates every wallet operation. The set is closed: switches over
// Kind in the reply layer are exhaustive so a new variant surfaces
// missing-case errors at compile review rather than at runtime.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfirmAction
	KindCancelAction
	KindSend
	KindBumpFee
	KindNewAddress
	KindReceive
	KindRefreshWallet
	KindHideBalance
	KindShowBalance
	KindExportHistory
	KindSettings
	KindBalance
	KindHistory
	KindFeeEstimate
	KindPrice
	KindConvertAmount
	KindTransactionDetail
	KindWalletHealth
	KindUTXOList
	KindNetworkStatus
	KindExplain
	KindHelp
	KindAbout
	KindGreeting
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindConfirmAction:     "confirm_action",
	KindCancelAction:      "cancel_action",
	KindSend:              "send",
	KindBumpFee:           "bump_fee",
	KindNewAddress:        "new_address",
	KindReceive:           "receive",
	KindRefreshWallet:     "refresh_wallet",
	KindHideBalance:       "hide_balance",
	KindShowBalance:       "show_balance",
	KindExportHistory:     "export_history",
	KindSettings:          "settings",
	KindBalance:           "balance",
	KindHistory:           "history",
	KindFeeEstimate:       "fee_estimate",
	KindPrice:             "price",
	KindConvertAmount:     "convert_amount",
	KindTransactionDetail: "transaction_detail",
	KindWalletHealth:      "wallet_health",
	KindUTXOList:          "utxo_list",
	KindNetworkStatus:     "network_status",
	KindExplain:           "explain",
	KindHelp:              "help",
	KindAbout:             "about",
	KindGreeting:          "greeting",
}

// String returns the stable snake_case name of the kind, used in persistence
// and logging.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindFromString maps a stored intent name back to its Kind. Unrecognized
// names come back as KindUnknown so replayed history never fails.
func KindFromString(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// Intent is one member of the closed tagged union. Payload fields are only
// meaningful for the kinds that declare them; equality is structural.
type Intent struct {
	Kind Kind

	Count    int             // KindHistory: number of transactions requested
	Currency string          // KindPrice / KindConvertAmount
	Amount   decimal.Decimal // KindConvertAmount
	TxID     string          // KindTransactionDetail / KindBumpFee
	Topic    string          // KindExplain
	Raw      string          // KindUnknown: the unclassified input verbatim
}

// Equal reports structural equality, including payloads.
func (in Intent) Equal(other Intent) bool {
	return in.Kind == other.Kind &&
		in.Count == other.Count &&
		in.Currency == other.Currency &&
		in.Amount.Equal(other.Amount) &&
		in.TxID == other.TxID &&
		in.Topic == other.Topic &&
		in.Raw == other.Raw
}

// IsAction reports whether the intent mutates wallet or conversation state
// (as opposed to answering a question).
func (in Intent) IsAction() bool {
	switch in.Kind {
	case KindSend, KindBumpFee, KindNewAddress, KindReceive, KindRefreshWallet,
		KindHideBalance, KindShowBalance, KindExportHistory, KindConfirmAction,
		KindCancelAction:
		return true
	}
	return false
}

// Convenience constructors for payload-carrying variants.

func Unknown(raw string) Intent        { return Intent{Kind: KindUnknown, Raw: raw} }
func History(count int) Intent        { return Intent{Kind: KindHistory, Count: count} }
func Price(currency string) Intent    { return Intent{Kind: KindPrice, Currency: currency} }
func Explain(topic string) Intent     { return Intent{Kind: KindExplain, Topic: topic} }
func TransactionDetail(txid string) Intent {
	return Intent{Kind: KindTransactionDetail, TxID: txid}
}
func BumpFee(txid string) Intent { return Intent{Kind: KindBumpFee, TxID: txid} }
func ConvertAmount(amount decimal.Decimal, currency string) Intent {
	return Intent{Kind: KindConvertAmount, Amount: amount, Currency: currency}
}
