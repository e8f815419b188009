package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	segwitAddr  = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	taprootAddr = "bc1p5d7rjq7g6rdk2yhzks9smlaqtedr4dekq08ge8ztwac72sfr9rusxg3297"
	legacyAddr  = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	p2shAddr    = "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"
	testnetAddr = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
)

func TestExtractAddressFamilies(t *testing.T) {
	tests := []struct {
		addr    string
		family  Family
		testnet bool
	}{
		{segwitAddr, FamilySegwit, false},
		{taprootAddr, FamilyTaproot, false},
		{legacyAddr, FamilyLegacy, false},
		{p2shAddr, FamilyScript, false},
		{testnetAddr, FamilySegwit, true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.addr, ExtractAddress("send it to "+tt.addr+" thanks"))
			fam, testnet := DetectFamily(tt.addr)
			assert.Equal(t, tt.family, fam)
			assert.Equal(t, tt.testnet, testnet)
		})
	}
}

func TestExtractAddressMaxLengthBase58(t *testing.T) {
	// Base58check addresses run up to 35 characters.
	long := "1AbCdEfGhJkMnPqRsTuVwXyZ23456789abc"
	require.Len(t, long, 35)
	assert.Equal(t, long, ExtractAddress("send it to "+long))
	fam, testnet := DetectFamily(long)
	assert.Equal(t, FamilyLegacy, fam)
	assert.False(t, testnet)
}

func TestExtractAddressInProse(t *testing.T) {
	// Trailing punctuation is stripped.
	assert.Equal(t, segwitAddr, ExtractAddress("is "+segwitAddr+" correct?"))
	assert.Equal(t, segwitAddr, ExtractAddress("use "+segwitAddr+"."))

	// Uppercase bech32 (QR style) folds to lowercase.
	assert.Equal(t, segwitAddr, ExtractAddress("BC1QAR0SRRR7XFKVY5L643LYDNW9RE59GTZZWF5MDQ"))
}

func TestExtractAddressRejectsMixedCaseBech32(t *testing.T) {
	mixed := "bc1qAr0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	assert.Empty(t, ExtractAddress("send to "+mixed))
}

func TestExtractAddressIgnoresTxIDs(t *testing.T) {
	txid := "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	assert.Empty(t, ExtractAddress("look up "+txid))
	// But a real address next to a txid still extracts.
	assert.Equal(t, segwitAddr, ExtractAddress("tx "+txid+" went to "+segwitAddr))
}

func TestParseBIP21(t *testing.T) {
	e := Extract("pay bitcoin:" + segwitAddr + "?amount=0.01&label=coffee")
	assert.Equal(t, segwitAddr, e.Address)
	require.NotNil(t, e.Amount)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, UnitBTC, e.Unit)

	// Bare URI without parameters.
	e = Extract("bitcoin:" + legacyAddr)
	assert.Equal(t, legacyAddr, e.Address)
	assert.Nil(t, e.Amount)

	// Invalid amounts in the URI are dropped, the address survives.
	e = Extract("bitcoin:" + segwitAddr + "?amount=-3")
	assert.Equal(t, segwitAddr, e.Address)
	assert.Nil(t, e.Amount)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, `send "all" now`, Normalize("send “all”   now"))
	assert.Equal(t, "a - b", Normalize("a — b"))
	assert.Equal(t, "", Normalize("   "))
}
