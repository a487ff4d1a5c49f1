package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecution(seq int64) Execution {
	return Execution{
		ID:          fmt.Sprintf("exec-%03d", seq),
		Seq:         seq,
		Command:     "invest",
		Outcome:     OutcomeOK,
		PayloadHash: "p",
		ReceiptHash: "r",
	}
}

func TestWriteExecution_ListNewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for seq := int64(1); seq <= 5; seq++ {
		require.NoError(t, s.WriteExecution(ctx, testExecution(seq)))
	}

	all, err := s.ListExecutions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, int64(5), all[0].Seq)
	assert.Equal(t, int64(1), all[4].Seq)

	last2, err := s.ListExecutions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, []int64{5, 4}, []int64{last2[0].Seq, last2[1].Seq})
}

func TestWriteExecution_ErrorOutcome(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := testExecution(1)
	e.Outcome = OutcomeError
	e.Code = "DECODE_FAILURE"
	e.Message = "no schema matched"
	require.NoError(t, s.WriteExecution(ctx, e))

	got, err := s.ListExecutions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e, got[0])
}

func TestWriteExecution_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := testExecution(1)
	require.NoError(t, s.WriteExecution(ctx, e))
	require.NoError(t, s.WriteExecution(ctx, e))

	all, err := s.ListExecutions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestWriteExecution_SeqUnique(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteExecution(ctx, testExecution(1)))
	dup := testExecution(1)
	dup.ID = "another-id"
	assert.Error(t, s.WriteExecution(ctx, dup))
}

func TestWriteExecution_RejectsUnknownOutcome(t *testing.T) {
	s := createTestStore(t)
	e := testExecution(1)
	e.Outcome = "maybe"
	assert.Error(t, s.WriteExecution(context.Background(), e))
}

func TestMaxSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)

	require.NoError(t, s.WriteExecution(ctx, testExecution(7)))
	require.NoError(t, s.WriteExecution(ctx, testExecution(3)))

	seq, err = s.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}
