// Package schema defines the wire records exchanged over the bus: typed
// Go structs at the API boundary, encoded to and parsed from flat
// string->string field maps on the wire.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Bottom is the sentinel value standing in for "no intra-group quorum".
const Bottom = "⊥"

// FieldError reports a single malformed field during Parse*. Callers log
// it and skip the record; it is never a fatal condition.
type FieldError struct {
	Record string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("schema: %s.%s: %v", e.Record, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func parseInt(record, field string, fields map[string]string) (int, error) {
	raw, ok := fields[field]
	if !ok {
		return 0, &FieldError{record, field, fmt.Errorf("missing field")}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldError{record, field, err}
	}
	return v, nil
}

func parseFloat(record, field string, fields map[string]string) (float64, error) {
	raw, ok := fields[field]
	if !ok {
		return 0, &FieldError{record, field, fmt.Errorf("missing field")}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &FieldError{record, field, err}
	}
	return v, nil
}

func requireField(record, field string, fields map[string]string) (string, error) {
	v, ok := fields[field]
	if !ok {
		return "", &FieldError{record, field, fmt.Errorf("missing field")}
	}
	return v, nil
}

// PrePrepare1 is the initial proposal broadcast by the coordinator.
type PrePrepare1 struct {
	RID      string
	Proposer string
	Value    string
	TS       float64
}

func (m PrePrepare1) Fields() map[string]string {
	return map[string]string{
		"rid":      m.RID,
		"proposer": m.Proposer,
		"value":    m.Value,
		"ts":       formatTS(m.TS),
	}
}

func ParsePrePrepare1(fields map[string]string) (PrePrepare1, error) {
	var m PrePrepare1
	var err error
	if m.RID, err = requireField("PrePrepare1", "rid", fields); err != nil {
		return m, err
	}
	if m.Proposer, err = requireField("PrePrepare1", "proposer", fields); err != nil {
		return m, err
	}
	if m.Value, err = requireField("PrePrepare1", "value", fields); err != nil {
		return m, err
	}
	if m.TS, err = parseFloat("PrePrepare1", "ts", fields); err != nil {
		return m, err
	}
	return m, nil
}

// InPrepare is a node's local prepare message, sent to its group stream.
type InPrepare struct {
	RID     string
	GroupID int
	NodeID  string
	Value   string
	Sig     string
	TS      float64
}

func (m InPrepare) Fields() map[string]string {
	return map[string]string{
		"rid":      m.RID,
		"group_id": strconv.Itoa(m.GroupID),
		"node_id":  m.NodeID,
		"value":    m.Value,
		"sig":      m.Sig,
		"ts":       formatTS(m.TS),
	}
}

func ParseInPrepare(fields map[string]string) (InPrepare, error) {
	var m InPrepare
	var err error
	if m.RID, err = requireField("InPrepare", "rid", fields); err != nil {
		return m, err
	}
	if m.GroupID, err = parseInt("InPrepare", "group_id", fields); err != nil {
		return m, err
	}
	if m.NodeID, err = requireField("InPrepare", "node_id", fields); err != nil {
		return m, err
	}
	if m.Value, err = requireField("InPrepare", "value", fields); err != nil {
		return m, err
	}
	if m.Sig, err = requireField("InPrepare", "sig", fields); err != nil {
		return m, err
	}
	if m.TS, err = parseFloat("InPrepare", "ts", fields); err != nil {
		return m, err
	}
	return m, nil
}

// RepAggregate is a representative's summary of its group's prepare phase.
type RepAggregate struct {
	RID       string
	GroupID   int
	RepID     string
	Value     string
	ValidSigs int
	Signers   []string
	TS        float64
}

func (m RepAggregate) Fields() map[string]string {
	signers, _ := json.Marshal(m.Signers)
	return map[string]string{
		"rid":        m.RID,
		"group_id":   strconv.Itoa(m.GroupID),
		"rep_id":     m.RepID,
		"value":      m.Value,
		"valid_sigs": strconv.Itoa(m.ValidSigs),
		"sigs_json":  string(signers),
		"ts":         formatTS(m.TS),
	}
}

func ParseRepAggregate(fields map[string]string) (RepAggregate, error) {
	var m RepAggregate
	var err error
	if m.RID, err = requireField("RepAggregate", "rid", fields); err != nil {
		return m, err
	}
	if m.GroupID, err = parseInt("RepAggregate", "group_id", fields); err != nil {
		return m, err
	}
	if m.RepID, err = requireField("RepAggregate", "rep_id", fields); err != nil {
		return m, err
	}
	if m.Value, err = requireField("RepAggregate", "value", fields); err != nil {
		return m, err
	}
	if m.ValidSigs, err = parseInt("RepAggregate", "valid_sigs", fields); err != nil {
		return m, err
	}
	raw, err := requireField("RepAggregate", "sigs_json", fields)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal([]byte(raw), &m.Signers); err != nil {
		return m, &FieldError{"RepAggregate", "sigs_json", err}
	}
	if m.TS, err = parseFloat("RepAggregate", "ts", fields); err != nil {
		return m, err
	}
	return m, nil
}

// AlertReason enumerates the anomalies a representative may report.
type AlertReason string

const (
	AlertTimeout  AlertReason = "timeout"
	AlertMismatch AlertReason = "mismatch"
	AlertWeakSig  AlertReason = "weak_sig"
)

// Alert is evidence of anomalous representative or group behavior.
type Alert struct {
	RID      string
	GroupID  int
	NodeID   string
	Reason   AlertReason
	Evidence string
	TS       float64
}

func (m Alert) Fields() map[string]string {
	return map[string]string{
		"rid":      m.RID,
		"group_id": strconv.Itoa(m.GroupID),
		"node_id":  m.NodeID,
		"reason":   string(m.Reason),
		"evidence": m.Evidence,
		"ts":       formatTS(m.TS),
	}
}

func ParseAlert(fields map[string]string) (Alert, error) {
	var m Alert
	var err error
	if m.RID, err = requireField("Alert", "rid", fields); err != nil {
		return m, err
	}
	if m.GroupID, err = parseInt("Alert", "group_id", fields); err != nil {
		return m, err
	}
	if m.NodeID, err = requireField("Alert", "node_id", fields); err != nil {
		return m, err
	}
	reason, err := requireField("Alert", "reason", fields)
	if err != nil {
		return m, err
	}
	m.Reason = AlertReason(reason)
	if m.Evidence, err = requireField("Alert", "evidence", fields); err != nil {
		return m, err
	}
	if m.TS, err = parseFloat("Alert", "ts", fields); err != nil {
		return m, err
	}
	return m, nil
}

// OutPrepare carries the coordinator's tally result for observers.
type OutPrepare struct {
	RID       string
	Winner    string
	Votes     int
	Total     int
	Threshold int
	Consensus bool
}

func (m OutPrepare) Fields() map[string]string {
	return map[string]string{
		"rid":       m.RID,
		"winner":    m.Winner,
		"votes":     strconv.Itoa(m.Votes),
		"total":     strconv.Itoa(m.Total),
		"threshold": strconv.Itoa(m.Threshold),
		"consensus": strconv.FormatBool(m.Consensus),
	}
}

func ParseOutPrepare(fields map[string]string) (OutPrepare, error) {
	var m OutPrepare
	var err error
	if m.RID, err = requireField("OutPrepare", "rid", fields); err != nil {
		return m, err
	}
	if m.Winner, err = requireField("OutPrepare", "winner", fields); err != nil {
		return m, err
	}
	if m.Votes, err = parseInt("OutPrepare", "votes", fields); err != nil {
		return m, err
	}
	if m.Total, err = parseInt("OutPrepare", "total", fields); err != nil {
		return m, err
	}
	if m.Threshold, err = parseInt("OutPrepare", "threshold", fields); err != nil {
		return m, err
	}
	raw, err := requireField("OutPrepare", "consensus", fields)
	if err != nil {
		return m, err
	}
	if m.Consensus, err = strconv.ParseBool(raw); err != nil {
		return m, &FieldError{"OutPrepare", "consensus", err}
	}
	return m, nil
}

// Commit is the coordinator's final committed value.
type Commit struct {
	RID   string
	Value string
	Votes int
}

func (m Commit) Fields() map[string]string {
	return map[string]string{
		"rid":   m.RID,
		"value": m.Value,
		"votes": strconv.Itoa(m.Votes),
	}
}

func ParseCommit(fields map[string]string) (Commit, error) {
	var m Commit
	var err error
	if m.RID, err = requireField("Commit", "rid", fields); err != nil {
		return m, err
	}
	if m.Value, err = requireField("Commit", "value", fields); err != nil {
		return m, err
	}
	if m.Votes, err = parseInt("Commit", "votes", fields); err != nil {
		return m, err
	}
	return m, nil
}

// PrePrepare2 carries the coordinator's decided value to the network after
// consensus is reached.
type PrePrepare2 struct {
	RID   string
	Value string
}

func (m PrePrepare2) Fields() map[string]string {
	return map[string]string{"rid": m.RID, "value": m.Value}
}

func ParsePrePrepare2(fields map[string]string) (PrePrepare2, error) {
	var m PrePrepare2
	var err error
	if m.RID, err = requireField("PrePrepare2", "rid", fields); err != nil {
		return m, err
	}
	if m.Value, err = requireField("PrePrepare2", "value", fields); err != nil {
		return m, err
	}
	return m, nil
}

// RoundDecision is the coordinator's in-memory summary of a completed
// round; schema.OutPrepare and schema.Commit are its wire projections.
type RoundDecision struct {
	RID       string
	Winner    string
	Votes     int
	Total     int
	Threshold int
	Consensus bool
}

func formatTS(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}
