package intent

import (
	"regexp"
	"strings"

	"github.com/seijun/satomi/internal/satomi/extract"
)

// DefaultHistoryCount is used when a history request names no count.
const DefaultHistoryCount = 5

// buildCategories returns the category table in evaluation order:
// confirmation and cancellation first (they must pre-empt an active flow),
// then action intents, then informational ones.
func buildCategories() []category {
	return []category{
		{
			kind: KindConfirmAction,
			keywords: []string{
				"confirm", "confirmo", "confirme", "proceed", "affirmative",
			},
			shortOnly: []string{
				"yes", "y", "ok", "okay", "yep", "yup", "sure", "sí", "si",
				"oui", "vale", "dale",
			},
			phrases: []string{
				"go ahead", "do it", "send it", "looks good", "that's right",
				"adelante", "hazlo", "envíalo", "vas-y", "c'est bon",
			},
		},
		{
			kind: KindCancelAction,
			keywords: []string{
				"cancel", "abort", "cancela", "cancelar", "annule", "annuler",
			},
			shortOnly: []string{"no", "n", "nope", "nah", "stop", "non"},
			phrases: []string{
				"never mind", "nevermind", "forget it", "don't send",
				"olvídalo", "no lo envíes", "laisse tomber", "n'envoie pas",
			},
		},

		// --- actions ---
		{
			kind:   KindSend,
			action: true,
			keywords: []string{
				"send", "pay", "transfer", "withdraw",
				"envía", "envia", "enviar", "manda", "mandar", "pagar", "transferir",
				"envoie", "envoyer", "payer", "transférer",
			},
			phrases: []string{
				"i want to send", "i'd like to send", "can you send",
				"make a payment", "quiero enviar", "je veux envoyer",
			},
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bsend\b.*\bto\b`),
			},
			// Past-tense sending reads as a history question, not a command;
			// keep it out of send so "what did I send" routes to history.
			excludes: []*regexp.Regexp{
				regexp.MustCompile(`\b(i|we)\s+(just\s+)?sent\b`),
				regexp.MustCompile(`\bwhat\s+did\s+i\s+send\b`),
				regexp.MustCompile(`\b(have|did)\s+i\s+sen[dt]\b`),
				regexp.MustCompile(`\bsent\s+(yesterday|last\s+\w+)\b`),
			},
		},
		{
			kind:   KindBumpFee,
			action: true,
			phrases: []string{
				"bump fee", "bump the fee", "speed up", "speed it up",
				"accelerate", "replace by fee", "rbf", "cpfp", "stuck transaction",
				"acelerar", "acelera la transacción", "accélérer", "accélère",
			},
			build: func(text string, ents extract.Entities) Intent {
				return BumpFee(ents.TxID)
			},
		},
		{
			kind:   KindNewAddress,
			action: true,
			phrases: []string{
				"new address", "fresh address", "another address",
				"generate an address", "generate address", "unused address",
				"nueva dirección", "nueva direccion", "otra dirección",
				"nouvelle adresse", "une autre adresse",
			},
		},
		{
			kind:   KindReceive,
			action: true,
			keywords: []string{
				"receive", "deposit", "recibir", "recibe", "depositar",
				"recevoir", "reçois", "dépôt",
			},
			phrases: []string{
				"receive address", "my address", "deposit address",
				"get paid", "where do i receive", "show me an address",
				"mi dirección", "mon adresse",
			},
		},
		{
			kind:   KindRefreshWallet,
			action: true,
			keywords: []string{
				"refresh", "resync", "rescan",
				"actualiza", "actualizar", "rafraîchir", "rafraichis",
			},
			phrases: []string{
				"refresh wallet", "sync wallet", "sync my wallet",
				"refresh my balance", "sincroniza", "synchronise",
			},
		},
		{
			kind:    KindHideBalance,
			action:  true,
			phrases: []string{
				"hide balance", "hide my balance", "privacy mode",
				"oculta el saldo", "ocultar saldo", "masque le solde",
			},
		},
		{
			kind:    KindShowBalance,
			action:  true,
			phrases: []string{
				"show balance again", "unhide balance", "unhide my balance",
				"show my balance again", "muestra el saldo otra vez",
				"réaffiche le solde",
			},
		},
		{
			kind:   KindExportHistory,
			action: true,
			keywords: []string{
				"export", "exportar", "exporter",
			},
			phrases: []string{
				"export history", "download history", "csv export",
				"export my transactions", "as csv",
			},
		},
		{
			kind:   KindSettings,
			action: true,
			keywords: []string{
				"settings", "preferences", "ajustes", "configuración",
				"paramètres", "préférences",
			},
			phrases: []string{
				"change settings", "open settings", "change my preferences",
			},
		},

		// --- informational ---
		{
			kind: KindBalance,
			keywords: []string{
				"balance", "saldo", "solde", "funds",
			},
			phrases: []string{
				"how much do i have", "how much money", "what do i have",
				"cuánto tengo", "cuanto tengo", "combien j'ai", "combien il me reste",
			},
			weak: []string{"have", "own"},
			// Visibility toggles mention "balance" but belong to hide/show.
			excludes: []*regexp.Regexp{
				regexp.MustCompile(`\b(?:hide|unhide|oculta\w*|masque)\b`),
				regexp.MustCompile(`\bbalance\s+again\b`),
			},
		},
		{
			kind: KindHistory,
			keywords: []string{
				"history", "transactions", "historial", "historique",
				"movimientos", "mouvements",
			},
			phrases: []string{
				"recent transactions", "last transactions", "transaction list",
				"what did i send", "what have i sent", "payments i made",
				"últimos movimientos", "dernières transactions",
			},
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bi\s+(just\s+)?sent\b`),
				regexp.MustCompile(`\b(did|have)\s+i\s+sen[dt]\b`),
			},
			build: func(text string, ents extract.Entities) Intent {
				if ents.Count != nil {
					return History(*ents.Count)
				}
				return History(DefaultHistoryCount)
			},
		},
		{
			kind: KindConvertAmount,
			keywords: []string{
				"convert", "convertir", "convertis",
			},
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bhow much is\b.*\b(in|en)\s+[a-z]{3,8}\b`),
				regexp.MustCompile(`\bworth\s+in\b`),
				regexp.MustCompile(`\bcuánto\s+(es|son|vale[n]?)\b.*\ben\b`),
			},
			build: func(text string, ents extract.Entities) Intent {
				cur := ents.Currency
				if cur == "" {
					cur = "USD"
				}
				if ents.Amount != nil {
					return ConvertAmount(*ents.Amount, cur)
				}
				return Intent{Kind: KindConvertAmount, Currency: cur}
			},
		},
		{
			kind: KindPrice,
			keywords: []string{
				"price", "precio", "prix",
			},
			phrases: []string{
				"bitcoin price", "btc price", "exchange rate",
				"how much is bitcoin", "how much is btc", "how much is one bitcoin",
				"cuánto vale bitcoin", "cuanto vale bitcoin", "combien vaut",
			},
			build: func(text string, ents extract.Entities) Intent {
				cur := ents.Currency
				if cur == "" {
					cur = "USD"
				}
				return Price(cur)
			},
		},
		{
			kind: KindFeeEstimate,
			keywords: []string{
				"fee", "fees", "comisión", "comision", "frais",
			},
			phrases: []string{
				"network fees", "fee estimate", "current fees",
				"how expensive is it to send", "transaction cost",
				"cuánto cuesta enviar", "combien coûte un envoi",
			},
		},
		{
			kind: KindTransactionDetail,
			phrases: []string{
				"transaction details", "transaction detail", "show transaction",
				"look up transaction", "tx details", "that transaction",
				"detalles de la transacción", "détails de la transaction",
			},
			patterns: []*regexp.Regexp{
				// A raw txid on its own is a detail request.
				regexp.MustCompile(`\b[0-9a-f]{64}\b`),
			},
			build: func(text string, ents extract.Entities) Intent {
				return TransactionDetail(ents.TxID)
			},
		},
		{
			kind: KindUTXOList,
			keywords: []string{
				"utxo", "utxos",
			},
			phrases: []string{
				"unspent outputs", "list my coins", "coin control",
				"salidas sin gastar", "sorties non dépensées",
			},
			// "what is a utxo" is a definition question, not a listing request;
			// leave it to explain.
			excludes: []*regexp.Regexp{
				regexp.MustCompile(`\bwhat(?:'s| is| are)\s+(?:a |an |the )?utxos?\b`),
				regexp.MustCompile(`\bexplain\b`),
			},
		},
		{
			kind: KindWalletHealth,
			phrases: []string{
				"wallet health", "health check", "is my wallet ok",
				"is everything ok with my wallet", "wallet status",
				"estado de la billetera", "santé du portefeuille",
			},
		},
		{
			kind: KindNetworkStatus,
			keywords: []string{
				"mempool",
			},
			phrases: []string{
				"network status", "block height", "network congestion",
				"is the network busy", "estado de la red", "état du réseau",
			},
			excludes: []*regexp.Regexp{
				regexp.MustCompile(`\bwhat(?:'s| is| are)\s+(?:a |an |the )?mempool\b`),
				regexp.MustCompile(`\bexplain\b`),
			},
		},
		{
			kind: KindExplain,
			keywords: []string{
				"explain", "explícame", "explicame", "explique",
			},
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bwhat(?:'s| is| are)\s+(?:a |an |the )?(?:segwit|taproot|utxo|sats?|satoshis?|mempool|fee rate|feerate|confirmation|lightning|multisig|cold storage|seed phrase|bip21)\b`),
				regexp.MustCompile(`\bwhat does\s+\S+\s+mean\b`),
			},
			build: func(text string, ents extract.Entities) Intent {
				return Explain(explainTopic(text))
			},
		},
		{
			kind: KindHelp,
			keywords: []string{
				"help", "ayuda", "aide",
			},
			phrases: []string{
				"what can you do", "how do i use", "show commands",
				"qué puedes hacer", "que peux-tu faire",
			},
		},
		{
			kind: KindAbout,
			phrases: []string{
				"who are you", "what are you", "about you", "tell me about yourself",
				"quién eres", "quien eres", "qui es-tu",
			},
		},
		{
			kind: KindGreeting,
			// Greetings and social-positive closers ("thanks!") only match at
			// full strength when the whole message is the greeting; otherwise
			// substantive categories take the turn. Explicit rule, tested.
			shortOnly: []string{
				"hi", "hello", "hey", "yo", "gm", "gn", "howdy",
				"thanks", "thx", "ty", "cool", "nice", "awesome", "great",
				"hola", "buenas", "gracias", "genial",
				"bonjour", "salut", "merci", "super",
			},
			phrases: []string{
				"good morning", "good evening", "good night", "thank you",
				"buenos días", "buenas noches", "muchas gracias",
				"bonne nuit", "merci beaucoup",
			},
		},
	}
}

// explainTopic pulls the glossary term out of an explain request.
func explainTopic(text string) string {
	lower := strings.ToLower(text)
	for _, topic := range []string{
		"segwit", "taproot", "utxo", "satoshi", "sats", "mempool",
		"fee rate", "feerate", "confirmation", "lightning", "multisig",
		"cold storage", "seed phrase", "bip21",
	} {
		if strings.Contains(lower, topic) {
			return topic
		}
	}
	// "what does X mean" — take the word before "mean".
	if m := regexp.MustCompile(`what does\s+(\S+)\s+mean`).FindStringSubmatch(lower); m != nil {
		return strings.Trim(m[1], `"'`)
	}
	return ""
}
