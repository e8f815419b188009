package engine

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seijun/satomi/internal/satomi/extract"
	"github.com/seijun/satomi/internal/satomi/intent"
	"github.com/seijun/satomi/internal/satomi/memory"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

// bestGuessFloor is the confidence band between acting and giving up: above
// it but below MinActionable the engine names its best guess and asks.
const bestGuessFloor = 0.5

// dispatch answers a stateless (non-flow) intent.
func (e *Engine) dispatch(ctx context.Context, sess *session, top intent.Score, ents extract.Entities) (string, memory.ShownData) {
	r := e.deps.Responder

	if top.Confidence < intent.MinActionable {
		if top.Confidence >= bestGuessFloor && top.Intent.Kind != intent.KindUnknown {
			return r.Render("best_guess", map[string]string{
				"guess": strings.ReplaceAll(top.Intent.Kind.String(), "_", " "),
			}), memory.ShownData{}
		}
		return r.Render("unknown", nil), memory.ShownData{}
	}

	switch top.Intent.Kind {
	case intent.KindGreeting:
		return r.Render("greeting", nil), memory.ShownData{}
	case intent.KindAbout:
		return r.Render("about", nil), memory.ShownData{}
	case intent.KindHelp:
		return r.Render("help", nil), memory.ShownData{}

	case intent.KindConfirmAction, intent.KindCancelAction:
		// Reaching dispatch means no flow was pending.
		return r.Render("nothing_pending", nil), memory.ShownData{}

	case intent.KindBalance:
		return e.answerBalance(ctx, sess)
	case intent.KindHideBalance:
		sess.balanceHidden = true
		return r.Render("hide_balance", nil), memory.ShownData{}
	case intent.KindShowBalance:
		sess.balanceHidden = false
		return e.answerBalance(ctx, sess)

	case intent.KindHistory:
		return e.answerHistory(ctx, top.Intent.Count)
	case intent.KindExportHistory:
		return e.answerExport(ctx)
	case intent.KindTransactionDetail:
		return e.answerTxDetail(ctx, sess, top.Intent.TxID)

	case intent.KindPrice:
		return e.answerPrice(ctx, top.Intent.Currency)
	case intent.KindConvertAmount:
		return e.answerConvert(ctx, sess, top.Intent, ents)
	case intent.KindFeeEstimate:
		return e.answerFees(ctx)

	case intent.KindReceive:
		return e.answerReceive(ctx, "receive")
	case intent.KindNewAddress:
		return e.answerReceive(ctx, "new_address")

	case intent.KindRefreshWallet:
		snap, err := e.deps.Snapshots.Snapshot(ctx)
		if err != nil {
			return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
		}
		return r.Render("refresh", map[string]string{
			"height": strconv.FormatInt(snap.BlockHeight, 10),
		}), memory.ShownData{}

	case intent.KindNetworkStatus:
		snap, err := e.deps.Snapshots.Snapshot(ctx)
		if err != nil {
			return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
		}
		return r.Render("network_status", map[string]string{
			"network": snap.Network,
			"height":  strconv.FormatInt(snap.BlockHeight, 10),
			"peers":   strconv.Itoa(snap.PeerCount),
		}), memory.ShownData{}

	case intent.KindWalletHealth:
		snap, err := e.deps.Snapshots.Snapshot(ctx)
		if err != nil {
			return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
		}
		return r.Render("wallet_health", map[string]string{
			"synced": strconv.FormatBool(snap.Synced),
			"utxos":  strconv.Itoa(snap.UTXOCount),
			"peers":  strconv.Itoa(snap.PeerCount),
		}), memory.ShownData{}

	case intent.KindUTXOList:
		snap, err := e.deps.Snapshots.Snapshot(ctx)
		if err != nil {
			return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
		}
		return r.Render("utxo_list", map[string]string{
			"utxos":   strconv.Itoa(snap.UTXOCount),
			"balance": formatBTC(snap.BalanceSats),
		}), memory.ShownData{}

	case intent.KindSettings:
		return r.Render("settings", nil), memory.ShownData{}

	case intent.KindExplain:
		return e.answerExplain(top.Intent.Topic)

	case intent.KindBumpFee:
		return e.answerBumpFee(sess, top.Intent.TxID)
	}

	return r.Render("unknown", nil), memory.ShownData{}
}

func (e *Engine) answerBalance(ctx context.Context, sess *session) (string, memory.ShownData) {
	r := e.deps.Responder
	if sess.balanceHidden {
		return r.Render("balance_hidden", nil), memory.ShownData{}
	}
	snap, err := e.deps.Snapshots.Snapshot(ctx)
	if err != nil {
		return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
	}

	shown := memory.ShownData{BalanceSats: &snap.BalanceSats}
	if snap.PendingSats != 0 {
		return r.Render("balance_with_pending", map[string]string{
			"balance": formatBTC(snap.BalanceSats),
			"pending": formatBTC(snap.PendingSats),
		}), shown
	}
	return r.Render("balance", map[string]string{
		"balance": formatBTC(snap.BalanceSats),
	}), shown
}

func (e *Engine) answerHistory(ctx context.Context, count int) (string, memory.ShownData) {
	r := e.deps.Responder
	snap, err := e.deps.Snapshots.Snapshot(ctx)
	if err != nil {
		return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
	}
	if len(snap.RecentTxs) == 0 {
		return r.Render("history_empty", nil), memory.ShownData{}
	}

	if count <= 0 {
		count = intent.DefaultHistoryCount
	}
	txs := snap.RecentTxs
	if len(txs) > count {
		txs = txs[:count]
	}

	var b strings.Builder
	for i, tx := range txs {
		dir := "received"
		if !tx.Incoming() {
			dir = "sent"
		}
		amt := tx.AmountSats
		if amt < 0 {
			amt = -amt
		}
		fmt.Fprintf(&b, "%d. %s %s BTC (%d conf) %s\n",
			i+1, dir, formatBTC(amt), tx.Confirmations, shortTxID(tx.TxID))
	}

	return r.Render("history", map[string]string{
		"count": strconv.Itoa(len(txs)),
		"list":  strings.TrimRight(b.String(), "\n"),
	}), memory.ShownData{Transactions: txs}
}

func (e *Engine) answerExport(ctx context.Context) (string, memory.ShownData) {
	r := e.deps.Responder
	snap, err := e.deps.Snapshots.Snapshot(ctx)
	if err != nil {
		return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
	}
	if len(snap.RecentTxs) == 0 {
		return r.Render("history_empty", nil), memory.ShownData{}
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write([]string{"txid", "amount_btc", "address", "confirmations", "timestamp"})
	for _, tx := range snap.RecentTxs {
		w.Write([]string{
			tx.TxID,
			formatBTC(tx.AmountSats),
			tx.Address,
			strconv.Itoa(tx.Confirmations),
			tx.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	w.Flush()

	return r.Render("export", map[string]string{
		"count": strconv.Itoa(len(snap.RecentTxs)),
		"csv":   strings.TrimRight(b.String(), "\n"),
	}), memory.ShownData{Transactions: snap.RecentTxs}
}

func (e *Engine) answerTxDetail(ctx context.Context, sess *session, txid string) (string, memory.ShownData) {
	r := e.deps.Responder
	if txid == "" {
		txid = sess.mem.LastTxID()
	}
	if txid == "" {
		return r.Render("tx_not_found", nil), memory.ShownData{}
	}

	snap, err := e.deps.Snapshots.Snapshot(ctx)
	if err != nil {
		return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
	}
	for _, tx := range snap.RecentTxs {
		if tx.TxID != txid {
			continue
		}
		dir := "received"
		amt := tx.AmountSats
		if !tx.Incoming() {
			dir = "sent"
			amt = -amt
		}
		return r.Render("tx_detail", map[string]string{
			"txid":      tx.TxID,
			"direction": dir,
			"amount":    formatBTC(amt),
			"confs":     strconv.Itoa(tx.Confirmations),
		}), memory.ShownData{}
	}
	return r.Render("tx_not_found", nil), memory.ShownData{}
}

func (e *Engine) answerPrice(ctx context.Context, currency string) (string, memory.ShownData) {
	r := e.deps.Responder
	if currency == "" {
		currency = "USD"
	}
	price, err := e.deps.Prices.Price(ctx, currency)
	if err != nil {
		return r.Render("unavailable", map[string]string{"service": "price"}), memory.ShownData{}
	}
	return r.Render("price", map[string]string{
		"price":    price.StringFixed(2),
		"currency": currency,
	}), memory.ShownData{}
}

func (e *Engine) answerConvert(ctx context.Context, sess *session, in intent.Intent, ents extract.Entities) (string, memory.ShownData) {
	r := e.deps.Responder
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	amount := in.Amount
	if amount.IsZero() && ents.Amount != nil {
		amount = *ents.Amount
	}
	if amount.IsZero() {
		if last, unit := sess.mem.LastAmount(); last != nil {
			amount = *last
			if unit == extract.UnitSats {
				amount = wallet.SatsToBTC(last.IntPart())
			}
		}
	}
	if amount.IsZero() {
		// No amount anywhere: answer with the unit price instead.
		return e.answerPrice(ctx, currency)
	}

	price, err := e.deps.Prices.Price(ctx, currency)
	if err != nil {
		return r.Render("unavailable", map[string]string{"service": "price"}), memory.ShownData{}
	}
	value := amount.Mul(price)
	shownFiat := value
	out := r.Render("convert", map[string]string{
		"amount":   amount.String(),
		"value":    value.StringFixed(2),
		"currency": currency,
	})
	return out, memory.ShownData{FiatBalance: &shownFiat, FiatCurrency: currency}
}

func (e *Engine) answerFees(ctx context.Context) (string, memory.ShownData) {
	r := e.deps.Responder
	est, err := e.deps.Fees.Estimates(ctx)
	if err != nil {
		return r.Render("unavailable", map[string]string{"service": "fee"}), memory.ShownData{}
	}
	return r.Render("fee_estimate", map[string]string{
		"slow":   formatRate(est.SlowSatVB),
		"medium": formatRate(est.MediumSatVB),
		"fast":   formatRate(est.FastSatVB),
	}), memory.ShownData{FeeEstimates: &est}
}

func (e *Engine) answerReceive(ctx context.Context, pool string) (string, memory.ShownData) {
	r := e.deps.Responder
	snap, err := e.deps.Snapshots.Snapshot(ctx)
	if err != nil || snap.ReceiveAddress == "" {
		return r.Render("unavailable", map[string]string{"service": "wallet"}), memory.ShownData{}
	}
	return r.Render(pool, map[string]string{
		"address": snap.ReceiveAddress,
	}), memory.ShownData{ReceiveAddress: snap.ReceiveAddress}
}

func (e *Engine) answerExplain(topic string) (string, memory.ShownData) {
	r := e.deps.Responder
	def, ok := glossary[normalizeTopic(topic)]
	if !ok {
		return r.Render("explain_unknown", nil), memory.ShownData{}
	}
	return r.Render("explain", map[string]string{
		"topic":      topic,
		"definition": def,
	}), memory.ShownData{}
}

func (e *Engine) answerBumpFee(sess *session, txid string) (string, memory.ShownData) {
	r := e.deps.Responder
	if txid == "" {
		txid = sess.mem.LastTxID()
	}
	if txid == "" {
		if sent := sess.mem.LastSentTx(); sent != nil {
			txid = sent.TxID
		}
	}
	if txid == "" {
		return r.Render("bump_fee_missing_tx", nil), memory.ShownData{}
	}
	return r.Render("bump_fee", map[string]string{
		"txid": shortTxID(txid),
	}), memory.ShownData{}
}

func shortTxID(txid string) string {
	if len(txid) <= 16 {
		return txid
	}
	return txid[:8] + "…" + txid[len(txid)-8:]
}

func formatRate(rate float64) string {
	return decimal.NewFromFloat(rate).String()
}
