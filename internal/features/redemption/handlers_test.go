package redemption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDeliveryEscapesPayload(t *testing.T) {
	res := &Result{
		RecordID: 1,
		Payload:  "insta_user:p<a&ss>word",
		Cost:     15,
		Balance:  5,
	}

	text := formatDelivery(res)
	assert.Contains(t, text, "<code>insta_user:p&lt;a&amp;ss&gt;word</code>")
	assert.NotContains(t, text, "p<a&ss>word")
	assert.Contains(t, text, "Cost: -15 points")
	assert.Contains(t, text, "Balance: 5 points")
}

func TestFormatHistoryMasksAndEscapes(t *testing.T) {
	ts := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	recs := []Record{
		{ID: 1, Account: "alice:hunter2", CreatedAt: ts},
		{ID: 2, Account: "<bob>&co", CreatedAt: ts}, // no separator, shown as-is but escaped
	}

	text := formatHistory(recs)
	assert.Contains(t, text, "1. <code>alice:•••••••</code>")
	assert.NotContains(t, text, "hunter2")
	assert.Contains(t, text, "2. <code>&lt;bob&gt;&amp;co</code>")
	assert.Contains(t, text, "2025-03-10 14:30")
}
