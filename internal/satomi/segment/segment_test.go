package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seijun/satomi/internal/satomi/intent"
)

const segwitAddr = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"

func newSegmenter() *Segmenter {
	return NewSegmenter(intent.NewClassifier())
}

func TestSplitSingleCommandStaysWhole(t *testing.T) {
	s := newSegmenter()
	got := s.SplitIfCompound("what is my balance")
	require.Len(t, got, 1)
	assert.Equal(t, "what is my balance", got[0])
}

func TestSplitTwoInformational(t *testing.T) {
	s := newSegmenter()
	got := s.SplitIfCompound("check my balance and show fees")
	require.Len(t, got, 2)
	assert.Equal(t, "check my balance", got[0])
	assert.Equal(t, "show fees", got[1])
}

func TestSplitActionDisplacesInformational(t *testing.T) {
	s := newSegmenter()
	got := s.SplitIfCompound("send 1 btc to " + segwitAddr + " and check my balance")
	require.Len(t, got, 1)
	assert.Equal(t, "send 1 btc to "+segwitAddr, got[0])
}

func TestSplitKeepsFirstConflictingAction(t *testing.T) {
	s := newSegmenter()
	got := s.SplitIfCompound("send 0.01 btc to " + segwitAddr + " and also give me a deposit address")
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "send 0.01 btc")
}

func TestSplitDistinctActionsCoexist(t *testing.T) {
	s := newSegmenter()
	got := s.SplitIfCompound("refresh my wallet and export my transactions")
	require.Len(t, got, 2)
	assert.Equal(t, "refresh my wallet", got[0])
	assert.Equal(t, "export my transactions", got[1])
}

func TestSplitRecursive(t *testing.T) {
	s := newSegmenter()
	got := s.SplitIfCompound("check the price and the fees then show my history")
	require.Len(t, got, 3)
	assert.Equal(t, "check the price", got[0])
	assert.Equal(t, "the fees", got[1])
	assert.Equal(t, "show my history", got[2])
}

func TestSplitSentenceBoundary(t *testing.T) {
	s := newSegmenter()
	got := s.SplitIfCompound("what's my balance? show me the fees")
	require.Len(t, got, 2)
	assert.Equal(t, "what's my balance?", got[0])
	assert.Equal(t, "show me the fees", got[1])
}

func TestSplitProseWithConnectorStaysWhole(t *testing.T) {
	s := newSegmenter()
	// Two keywords present, but the right half of the "and" is not a command.
	in := "send the balance and the rest later"
	got := s.SplitIfCompound(in)
	require.Len(t, got, 1)
	assert.Equal(t, in, got[0])
}

func TestSplitEmptyInput(t *testing.T) {
	s := newSegmenter()
	assert.Nil(t, s.SplitIfCompound("   "))
}
