package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fundledger/internal/store"
)

func TestMarshalSnapshot_Canonical(t *testing.T) {
	trace := []TraceEvent{
		{Seq: 1, ExecutionID: "exec-0001", Command: "transfer", Signer: "a", Outcome: store.OutcomeOK,
			Written: []string{"holder/a", "holder/b"}},
		{Seq: 2, ExecutionID: "exec-0002", Command: "transfer", Signer: "b", Outcome: store.OutcomeError,
			Code: "AUTHORIZATION_MISMATCH", Written: []string{}},
	}

	data, err := MarshalSnapshot("pair", trace)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"pair","trace":[`+
			`{"command":"transfer","execution_id":"exec-0001","outcome":"ok","seq":1,"signer":"a","written":["holder/a","holder/b"]},`+
			`{"code":"AUTHORIZATION_MISMATCH","command":"transfer","execution_id":"exec-0002","outcome":"error","seq":2,"signer":"b","written":[]}]}`,
		string(data))
}

func TestMarshalSnapshot_Empty(t *testing.T) {
	data, err := MarshalSnapshot("empty", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[]}`, string(data))
}
