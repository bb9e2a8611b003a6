package inventory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBulkInputSimpleLines(t *testing.T) {
	input := strings.Join([]string{
		"alice:hunter2",
		"",
		"bob.smith:pass-word1",
		"this is not a credential",
		"carol:s3cret",
		"missingcolon",
	}, "\n")

	items, rejected := ParseBulkInput(input)

	require.Len(t, items, 3)
	for _, it := range items {
		assert.Equal(t, TierStandard, it.Tier)
	}
	assert.Equal(t, "alice:hunter2", items[0].Payload)
	assert.Equal(t, "bob.smith:pass-word1", items[1].Payload)
	assert.Equal(t, "carol:s3cret", items[2].Payload)

	assert.Equal(t, []string{"this is not a credential", "missingcolon"}, rejected)
}

func TestParseBulkInputDecoratedBlocks(t *testing.T) {
	block1 := "USERNAME: @good_account\nEMAIL: good@example.com\nPASSWORD: abc123"
	block2 := "USERNAME: @reset_account\nRESET: https://example.com/reset/xyz"
	broken := "PASSWORD: orphan-without-username"

	input := decoratedHeader + "\n" + block1 + "\n" +
		decoratedHeader + "\n" + block2 + "\n" +
		decoratedHeader + "\n" + broken + "\n" + decoratedHeader

	items, rejected := ParseBulkInput(input)

	require.Len(t, items, 2)
	assert.Equal(t, TierPremium, items[0].Tier)
	assert.Equal(t, block1, items[0].Payload)
	assert.Equal(t, block2, items[1].Payload)

	require.Len(t, rejected, 1)
	assert.Equal(t, broken, rejected[0])
}

func TestParseBulkInputDecoratedNeedsWayIn(t *testing.T) {
	// Username alone is unusable without an email or reset link.
	input := decoratedHeader + "\nUSERNAME: @lonely\nPASSWORD: whatever"

	items, rejected := ParseBulkInput(input)
	assert.Empty(t, items)
	require.Len(t, rejected, 1)
}

func TestParseBulkInputEmpty(t *testing.T) {
	items, rejected := ParseBulkInput("   \n  ")
	assert.Empty(t, items)
	assert.Empty(t, rejected)
}
