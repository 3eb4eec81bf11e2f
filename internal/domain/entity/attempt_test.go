package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintArray_ScanValue(t *testing.T) {
	t.Run("value of populated array is JSON", func(t *testing.T) {
		arr := UintArray{3, 1, 2}
		value, err := arr.Value()
		require.NoError(t, err)
		assert.JSONEq(t, "[3,1,2]", string(value.([]byte)))
	})

	t.Run("value of empty array is an empty JSON array, not null", func(t *testing.T) {
		value, err := UintArray{}.Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", string(value.([]byte)))
	})

	t.Run("scan round trip", func(t *testing.T) {
		var arr UintArray
		require.NoError(t, arr.Scan([]byte("[5,6,7]")))
		assert.Equal(t, UintArray{5, 6, 7}, arr)
	})

	t.Run("scan nil yields empty array", func(t *testing.T) {
		var arr UintArray
		require.NoError(t, arr.Scan(nil))
		assert.Empty(t, arr)
	})

	t.Run("scan rejects non-bytes", func(t *testing.T) {
		var arr UintArray
		assert.Error(t, arr.Scan("not bytes"))
	})
}

func TestUintArray_Contains(t *testing.T) {
	arr := UintArray{1, 2, 3}
	assert.True(t, arr.Contains(2))
	assert.False(t, arr.Contains(4))
	assert.False(t, UintArray{}.Contains(1))
}

func TestAttempt_StatusHelpers(t *testing.T) {
	tests := []struct {
		status   string
		active   bool
		terminal bool
	}{
		{AttemptStatusInProgress, true, false},
		{AttemptStatusCompleted, false, true},
		{AttemptStatusTimedOut, false, true},
		{AttemptStatusAbandoned, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			a := Attempt{Status: tt.status}
			assert.Equal(t, tt.active, a.IsActive())
			assert.Equal(t, tt.terminal, a.IsTerminal())
		})
	}
}

func TestAttempt_Expiry(t *testing.T) {
	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("no time limit never expires", func(t *testing.T) {
		a := Attempt{StartedAt: started, TimeLimitSec: 0}
		assert.False(t, a.HasTimeLimit())
		assert.False(t, a.Expired(started.Add(100*time.Hour)))
	})

	t.Run("expires exactly at the deadline", func(t *testing.T) {
		a := Attempt{StartedAt: started, TimeLimitSec: 600}
		assert.False(t, a.Expired(started.Add(599*time.Second)))
		assert.True(t, a.Expired(started.Add(600*time.Second)))
		assert.True(t, a.Expired(started.Add(601*time.Second)))
	})

	t.Run("deadline derives from start plus snapshot", func(t *testing.T) {
		a := Attempt{StartedAt: started, TimeLimitSec: 600}
		assert.Equal(t, started.Add(10*time.Minute), a.Deadline())
	})
}

func TestAttempt_RemainingSeconds(t *testing.T) {
	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := Attempt{StartedAt: started, TimeLimitSec: 600}

	assert.Equal(t, 600, a.RemainingSeconds(started))
	assert.Equal(t, 300, a.RemainingSeconds(started.Add(5*time.Minute)))
	assert.Equal(t, 0, a.RemainingSeconds(started.Add(11*time.Minute)), "clamped at zero")

	unlimited := Attempt{StartedAt: started}
	assert.Equal(t, 0, unlimited.RemainingSeconds(started))
}
