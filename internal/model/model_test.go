package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampFormat(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 1, 15, 10, 30, 0, 123456789, time.UTC))
	assert.Equal(t, "2025-01-15T10:30:00.123456Z", ts.String())
}

func TestTimestampRoundTrip(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ts := NewTimestamp(time.Date(2025, 3, 1, 7, 0, 0, 5000, loc))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01T10:00:00.000005Z"`, string(data))

	var got Timestamp
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, ts.Equal(got.Time))

	again, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestTimestampAcceptsRFC3339(t *testing.T) {
	var got Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-01T10:00:00Z"`), &got))
	assert.Equal(t, "2025-03-01T10:00:00.000000Z", got.String())
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var got Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &got))
	assert.Error(t, json.Unmarshal([]byte(`42`), &got))
}

func TestPrevHashString(t *testing.T) {
	assert.Empty(t, BlockHeader{}.PrevHashString())
	h := "abc"
	assert.Equal(t, "abc", BlockHeader{PrevHash: &h}.PrevHashString())
}

func TestHasLedgerRef(t *testing.T) {
	assert.False(t, ConciliationResult{}.HasLedgerRef())
	assert.True(t, ConciliationResult{LedgerTxID: "0x00010001"}.HasLedgerRef())
}
