package engine

import "strings"

// glossary holds the plain-language definitions served by explain requests.
var glossary = map[string]string{
	"utxo": "an unspent transaction output — a discrete chunk of bitcoin your " +
		"wallet received and hasn't spent yet. Your balance is the sum of your UTXOs.",
	"satoshi": "the smallest unit of bitcoin. 100,000,000 satoshis make one BTC.",
	"sats":    "short for satoshis, the smallest unit of bitcoin: 100,000,000 sats = 1 BTC.",
	"mempool": "the waiting room for transactions that have been broadcast but not " +
		"yet mined into a block. Busier mempool means higher fees.",
	"fee rate": "the price you pay miners per virtual byte of your transaction, in " +
		"sat/vB. Higher rates confirm faster.",
	"feerate": "the price you pay miners per virtual byte of your transaction, in " +
		"sat/vB. Higher rates confirm faster.",
	"confirmation": "a block mined on top of the one containing your transaction. " +
		"Each confirmation makes a reversal exponentially harder; six is the classic bar.",
	"segwit": "a 2017 upgrade that moved signatures out of the base transaction, " +
		"cutting fees and fixing malleability. Segwit addresses start with bc1q.",
	"taproot": "a 2021 upgrade that makes complex spends look like simple ones, " +
		"improving privacy and fees. Taproot addresses start with bc1p.",
	"lightning": "a second-layer payment network that settles instantly and " +
		"cheaply off-chain, anchored to Bitcoin for security.",
	"multisig": "a wallet that needs several keys to sign a spend, e.g. 2-of-3. " +
		"No single lost or stolen key can move the funds.",
	"cold storage": "keeping keys on a device that never touches the internet, " +
		"out of reach of online attackers.",
	"seed phrase": "the 12 or 24 words that back up your wallet. Anyone who " +
		"learns them controls your funds — never type them into a chat.",
	"bip21": "the bitcoin: URI format that packs an address, an amount, and a " +
		"label into one scannable payment link.",
}

func normalizeTopic(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	switch t {
	case "satoshis":
		return "satoshi"
	case "utxos":
		return "utxo"
	case "confirmations":
		return "confirmation"
	}
	return t
}
