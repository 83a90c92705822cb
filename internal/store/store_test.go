package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

func record(id string, status model.TransferStatus) model.TransferRecord {
	now := time.Now().UTC()
	return model.TransferRecord{
		ID:                    id,
		Status:                status,
		FromChain:             types.ChainSolana,
		ToChain:               types.ChainEthereum,
		Token:                 "SOL",
		Amount:                2.5,
		ProtocolID:            "wormhole",
		SourceTxHash:          "0xabc",
		RequiredConfirmations: 32,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func TestInsertAndGet(t *testing.T) {
	s := New()
	require.NoError(t, s.Insert(record("a", model.StatusProcessing)))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, model.StatusProcessing, got.Status)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsert_RejectsDuplicates(t *testing.T) {
	s := New()
	require.NoError(t, s.Insert(record("a", model.StatusProcessing)))
	assert.Error(t, s.Insert(record("a", model.StatusProcessing)))
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	s := New()
	require.NoError(t, s.Insert(record("a", model.StatusProcessing)))

	got, err := s.Get("a")
	require.NoError(t, err)
	got.Status = model.StatusFailed // mutating the copy must not leak

	again, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, again.Status)
}

func TestUpdate_BumpsUpdatedAt(t *testing.T) {
	s := New()
	rec := record("a", model.StatusProcessing)
	rec.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Insert(rec))

	require.NoError(t, s.Update("a", func(r *model.TransferRecord) {
		r.Confirmations = 5
	}))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Confirmations)
	assert.WithinDuration(t, time.Now(), got.UpdatedAt, time.Minute)
}

func TestUpdate_TerminalRecordsAreImmutable(t *testing.T) {
	s := New()
	require.NoError(t, s.Insert(record("done", model.StatusCompleted)))
	require.NoError(t, s.Insert(record("dead", model.StatusFailed)))

	for _, id := range []string{"done", "dead"} {
		err := s.Update(id, func(r *model.TransferRecord) {
			r.Status = model.StatusProcessing
		})
		assert.ErrorIs(t, err, ErrTerminalState, id)
	}

	got, err := s.Get("done")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestLiveIDs_ExcludesTerminalRecords(t *testing.T) {
	s := New()
	older := record("older", model.StatusProcessing)
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Insert(older))
	require.NoError(t, s.Insert(record("newer", model.StatusConfirming)))
	require.NoError(t, s.Insert(record("done", model.StatusCompleted)))
	require.NoError(t, s.Insert(record("dead", model.StatusFailed)))

	assert.Equal(t, []string{"older", "newer"}, s.LiveIDs())
}

func TestList_FiltersAndOrders(t *testing.T) {
	s := New()
	a := record("a", model.StatusProcessing)
	a.CreatedAt = time.Now().Add(-2 * time.Hour)
	b := record("b", model.StatusCompleted)
	b.CreatedAt = time.Now().Add(-1 * time.Hour)
	c := record("c", model.StatusProcessing)
	c.FromChain = types.ChainEthereum
	require.NoError(t, s.Insert(a))
	require.NoError(t, s.Insert(b))
	require.NoError(t, s.Insert(c))

	all := s.List(Filter{})
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID) // newest first

	processing := s.List(Filter{Status: model.StatusProcessing})
	require.Len(t, processing, 2)

	fromSolana := s.List(Filter{FromChain: types.ChainSolana})
	require.Len(t, fromSolana, 2)
}

func TestConcurrentInsertAndSweepAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.Insert(record(fmt.Sprintf("t-%d", i), model.StatusProcessing))
		}(i)
		go func() {
			defer wg.Done()
			for _, id := range s.LiveIDs() {
				_ = s.Update(id, func(r *model.TransferRecord) {
					r.Confirmations++
				})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, s.List(Filter{}), 50)
}

func TestCountByStatus(t *testing.T) {
	s := New()
	require.NoError(t, s.Insert(record("a", model.StatusProcessing)))
	require.NoError(t, s.Insert(record("b", model.StatusProcessing)))
	require.NoError(t, s.Insert(record("c", model.StatusFailed)))

	counts := s.CountByStatus()
	assert.Equal(t, 2, counts[model.StatusProcessing])
	assert.Equal(t, 1, counts[model.StatusFailed])
	assert.Equal(t, 0, counts[model.StatusCompleted])
}
