// Package actor implements the per-node intra-group behavior: every node
// publishes an InPrepare message, and the group's representative
// additionally aggregates the group's stream into a RepAggregate plus any
// Alerts.
package actor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nbft-project/nbft/bus"
	"github.com/nbft-project/nbft/config"
	"github.com/nbft-project/nbft/schema"
)

// blockInterval bounds a single blocking StreamScan call while the
// representative is collecting; it is not the overall collection
// deadline, only the granularity of each poll.
const blockInterval = 200 * time.Millisecond

// Node is the per-round actor for a single network participant.
type Node struct {
	ID      string
	GroupID int
	RepID   string
	Honest  bool

	cfg config.Config
	bus bus.Bus
	log *zap.Logger
}

// New constructs a Node actor. honest=false makes the node equivocate
// during InPrepare1.
func New(id string, groupID int, repID string, honest bool, cfg config.Config, b bus.Bus, log *zap.Logger) *Node {
	if log == nil {
		log = zap.NewNop()
	}
	return &Node{ID: id, GroupID: groupID, RepID: repID, Honest: honest, cfg: cfg, bus: b, log: log}
}

// IsRepresentative reports whether this node is its group's representative.
func (n *Node) IsRepresentative() bool {
	return n.ID == n.RepID
}

// Sign produces the node's (deterministic, non-cryptographic) signature
// over rid. The real signing primitive is out of scope; this models it as
// an opaque string so the wire format is reproducible in tests.
func (n *Node) Sign(rid string) string {
	return fmt.Sprintf("sig:%s:%s", n.ID, rid)
}

// InPrepare1 publishes this node's InPrepare message to its group stream.
// A dishonest node equivocates: it substitutes a per-node fabricated
// payload instead of the proposed value.
func (n *Node) InPrepare1(ctx context.Context, rid string, value string) error {
	if !n.Honest {
		value = fmt.Sprintf("FAKE:%s", n.ID)
	}
	msg := schema.InPrepare{
		RID:     rid,
		GroupID: n.GroupID,
		NodeID:  n.ID,
		Value:   value,
		Sig:     n.Sign(rid),
		TS:      nowSeconds(),
	}
	_, err := n.bus.StreamAppend(ctx, bus.InPrep1Key(n.GroupID), msg.Fields())
	if err != nil {
		return fmt.Errorf("actor %s: publish InPrepare: %w", n.ID, err)
	}
	n.log.Debug("published InPrepare",
		zap.String("node", n.ID), zap.Int("group", n.GroupID), zap.String("value", value))
	return nil
}

// InPrepare2Collect runs the representative aggregation algorithm. It is a
// no-op for non-representative nodes.
func (n *Node) InPrepare2Collect(ctx context.Context, rid string, deadline time.Duration) (*schema.RepAggregate, error) {
	if !n.IsRepresentative() {
		return nil, nil
	}

	start := time.Now()
	seen := make(map[string]string) // node_id -> value, first-seen wins
	order := make([]string, 0)      // distinct values in first-encounter order
	var lastID uint64

	for len(seen) < n.cfg.M && time.Since(start) < deadline {
		remaining := deadline - time.Since(start)
		block := blockInterval
		if remaining < block {
			block = remaining
		}
		if block <= 0 {
			break
		}
		recs, err := n.bus.StreamScan(ctx, bus.InPrep1Key(n.GroupID), lastID, n.cfg.M, block)
		if err != nil {
			return nil, fmt.Errorf("actor %s: scan InPrepare1: %w", n.ID, err)
		}
		for _, rec := range recs {
			lastID = rec.ID
			msg, err := schema.ParseInPrepare(rec.Fields)
			if err != nil {
				n.log.Warn("skipping malformed InPrepare", zap.Error(err))
				continue
			}
			if msg.GroupID != n.GroupID {
				continue
			}
			if _, dup := seen[msg.NodeID]; dup {
				continue
			}
			seen[msg.NodeID] = msg.Value
			if !containsString(order, msg.Value) {
				order = append(order, msg.Value)
			}
		}
	}

	elapsed := time.Since(start)

	counts := make(map[string]int, len(order))
	for _, v := range seen {
		counts[v]++
	}
	topValue, topCount := "", 0
	for _, v := range order {
		if counts[v] > topCount {
			topValue, topCount = v, counts[v]
		}
	}

	hasQuorum := topCount >= n.cfg.Quorum()

	aggValue := schema.Bottom
	validSigs := 0
	if hasQuorum {
		aggValue = topValue
		validSigs = topCount
	}

	signers := make([]string, 0, len(seen))
	for nid := range seen {
		signers = append(signers, nid)
	}

	agg := schema.RepAggregate{
		RID: rid, GroupID: n.GroupID, RepID: n.ID,
		Value: aggValue, ValidSigs: validSigs, Signers: signers, TS: nowSeconds(),
	}
	if _, err := n.bus.StreamAppend(ctx, bus.InPrep2Key(n.GroupID), agg.Fields()); err != nil {
		return nil, fmt.Errorf("actor %s: publish RepAggregate: %w", n.ID, err)
	}

	var reasons []schema.AlertReason
	if elapsed >= deadline {
		reasons = append(reasons, schema.AlertTimeout)
	}
	if !hasQuorum {
		if len(order) > 1 {
			reasons = append(reasons, schema.AlertMismatch)
		}
		reasons = append(reasons, schema.AlertWeakSig)
	}

	for _, reason := range reasons {
		alert := schema.Alert{
			RID: rid, GroupID: n.GroupID, NodeID: n.ID, Reason: reason,
			Evidence: fmt.Sprintf("valid_sigs=%d, rep=%s", validSigs, n.RepID),
			TS:       nowSeconds(),
		}
		if _, err := n.bus.StreamAppend(ctx, bus.AlertsKey(rid, n.GroupID), alert.Fields()); err != nil {
			return nil, fmt.Errorf("actor %s: publish Alert: %w", n.ID, err)
		}
		n.log.Warn("alert broadcast", zap.String("group_rep", n.ID), zap.String("reason", string(reason)))
	}

	return &agg, nil
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
