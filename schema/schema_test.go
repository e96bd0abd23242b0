package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInPrepareRoundTrip(t *testing.T) {
	m := InPrepare{RID: "1", GroupID: 2, NodeID: "node-3", Value: "BLOCK_HASH_ABC", Sig: "sig:node-3:1", TS: 1.5}
	got, err := ParseInPrepare(m.Fields())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestRepAggregateRoundTripWithSignersJSON(t *testing.T) {
	m := RepAggregate{
		RID: "1", GroupID: 0, RepID: "node-0", Value: "BLOCK_HASH_ABC",
		ValidSigs: 4, Signers: []string{"node-0", "node-1", "node-2", "node-3"}, TS: 2,
	}
	fields := m.Fields()
	require.Equal(t, `["node-0","node-1","node-2","node-3"]`, fields["sigs_json"])
	got, err := ParseRepAggregate(fields)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestRepAggregateBottomValue(t *testing.T) {
	m := RepAggregate{RID: "1", GroupID: 0, RepID: "node-0", Value: Bottom, ValidSigs: 0, Signers: nil, TS: 1}
	got, err := ParseRepAggregate(m.Fields())
	require.NoError(t, err)
	require.Equal(t, Bottom, got.Value)
}

func TestOutPrepareRoundTrip(t *testing.T) {
	m := OutPrepare{RID: "1", Winner: "BLOCK_HASH_ABC", Votes: 16, Total: 16, Threshold: 12, Consensus: true}
	got, err := ParseOutPrepare(m.Fields())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestParseMissingFieldReturnsFieldError(t *testing.T) {
	_, err := ParseInPrepare(map[string]string{"rid": "1"})
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "InPrepare", fe.Record)
}

func TestParseMalformedIntReturnsFieldError(t *testing.T) {
	fields := InPrepare{RID: "1", GroupID: 0, NodeID: "n", Value: "v", Sig: "s", TS: 1}.Fields()
	fields["group_id"] = "not-a-number"
	_, err := ParseInPrepare(fields)
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "group_id", fe.Field)
}

func TestAlertFields(t *testing.T) {
	m := Alert{RID: "1", GroupID: 2, NodeID: "node-2", Reason: AlertWeakSig, Evidence: "valid_sigs=0", TS: 3}
	got, err := ParseAlert(m.Fields())
	require.NoError(t, err)
	require.Equal(t, m, got)
}
