// Package coordinator implements the inter-group round orchestration:
// alert-based group exclusion, weighted vote tallying, and the commit
// decision.
package coordinator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nbft-project/nbft/bus"
	"github.com/nbft-project/nbft/config"
	"github.com/nbft-project/nbft/group"
	"github.com/nbft-project/nbft/metrics"
	"github.com/nbft-project/nbft/schema"
)

// pollInterval is how often RunRound polls for missing group aggregates.
const pollInterval = 50 * time.Millisecond

// Coordinator runs rounds across a fixed set of groups and representatives.
type Coordinator struct {
	cfg   config.Config
	asn   *group.Assignment
	reps  map[int]string // gid -> representative node id
	bus   bus.Bus
	log   *zap.Logger
	stats *metrics.Metrics
}

// New constructs a Coordinator for a round's groups and representatives.
func New(cfg config.Config, asn *group.Assignment, reps map[int]string, b bus.Bus, log *zap.Logger, stats *metrics.Metrics) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	if stats == nil {
		stats = metrics.NoOp()
	}
	return &Coordinator{cfg: cfg, asn: asn, reps: reps, bus: b, log: log, stats: stats}
}

// StoreRoundConfig purges any prior state for this round's keys and
// persists the round's config, node->group map, and gid->rep map. This
// must run before phase 1, since the bus persists streams beyond a round.
func (c *Coordinator) StoreRoundConfig(ctx context.Context, rid string, nodeIDs []string) error {
	if err := c.purge(ctx, rid); err != nil {
		return fmt.Errorf("coordinator: purge prior round state: %w", err)
	}

	cfgFields := map[string]string{
		"n":     strconv.Itoa(c.cfg.N),
		"m":     strconv.Itoa(c.cfg.M),
		"R":     strconv.Itoa(c.cfg.R()),
		"E":     strconv.Itoa(c.cfg.E()),
		"omega": strconv.Itoa(c.cfg.Omega()),
		"view":  strconv.Itoa(c.cfg.View),
		"prev":  c.cfg.PrevHash,
	}
	if err := c.bus.MapSet(ctx, bus.RoundConfigKey(rid), cfgFields); err != nil {
		return fmt.Errorf("coordinator: store round config: %w", err)
	}

	nodeToGroup := make(map[string]string, len(nodeIDs))
	for _, nid := range nodeIDs {
		if gid, ok := c.asn.ForNode(nid); ok {
			nodeToGroup[nid] = strconv.Itoa(gid)
		}
	}
	if err := c.bus.MapSet(ctx, bus.GroupsKey(rid), nodeToGroup); err != nil {
		return fmt.Errorf("coordinator: store groups map: %w", err)
	}

	gidToRep := make(map[string]string, len(c.reps))
	for gid, rep := range c.reps {
		gidToRep[strconv.Itoa(gid)] = rep
	}
	if err := c.bus.MapSet(ctx, bus.RepKey(rid), gidToRep); err != nil {
		return fmt.Errorf("coordinator: store rep map: %w", err)
	}
	return nil
}

func (c *Coordinator) purge(ctx context.Context, rid string) error {
	for gid := range c.asn.Groups {
		for _, key := range []string{bus.InPrep1Key(gid), bus.InPrep2Key(gid), bus.AlertsKey(rid, gid)} {
			if err := c.bus.Delete(ctx, key); err != nil {
				return err
			}
		}
	}
	for _, key := range []string{
		bus.RepVotesKey(rid), bus.DecisionsKey(rid),
		bus.CommitKey(), bus.OutPrepareKey(), bus.PrePrepare1Key(), bus.PrePrepare2Key(),
	} {
		if err := c.bus.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// groupAggregate is the coordinator's local view of a group's result.
type groupAggregate struct {
	repID     string
	value     string
	validSigs int
}

// RunRound drives one full round: publish PrePrepare1, collect group
// aggregates under a hard deadline, apply alert-based exclusion, tally
// weighted votes, and publish the outcome. An error return means an
// infrastructure failure (bus unreachable or malformed required state);
// protocol anomalies and a failed consensus are not errors.
func (c *Coordinator) RunRound(ctx context.Context, rid string, value string) (schema.RoundDecision, error) {
	primary := c.firstRepresentativeByGroupID()
	pre := schema.PrePrepare1{RID: rid, Proposer: primary, Value: value, TS: nowSeconds()}
	if _, err := c.bus.StreamAppend(ctx, bus.PrePrepare1Key(), pre.Fields()); err != nil {
		return schema.RoundDecision{}, fmt.Errorf("coordinator: publish PrePrepare1: %w", err)
	}

	aggregates, err := c.collectAggregates(ctx, rid)
	if err != nil {
		return schema.RoundDecision{}, err
	}

	excluded, err := c.excludedGroups(ctx, rid)
	if err != nil {
		return schema.RoundDecision{}, err
	}
	for gid := range excluded {
		c.stats.AlertExcludedGroup()
		c.log.Warn("excluding group due to self-referential alert", zap.Int("group", gid))
	}

	tally, order := c.tally(aggregates, excluded)

	threshold := (c.cfg.R() - c.cfg.Omega()) * c.cfg.M
	total := 0
	for _, v := range tally {
		total += v
	}
	winner, votes := argMax(tally, order)
	consensus := total >= threshold

	decision := schema.RoundDecision{RID: rid, Winner: winner, Votes: votes, Total: total, Threshold: threshold, Consensus: consensus}
	if err := c.publishDecision(ctx, decision, tally); err != nil {
		return schema.RoundDecision{}, err
	}

	c.stats.RoundCompleted(consensus)
	c.stats.ObserveVotes(votes)
	return decision, nil
}

func (c *Coordinator) firstRepresentativeByGroupID() string {
	if rep, ok := c.reps[0]; ok {
		return rep
	}
	for gid := 0; gid < len(c.asn.Groups); gid++ {
		if rep, ok := c.reps[gid]; ok {
			return rep
		}
	}
	return ""
}

func (c *Coordinator) collectAggregates(ctx context.Context, rid string) (map[int]groupAggregate, error) {
	deadline := time.Now().Add(c.cfg.CoordinatorDeadline())
	aggregates := make(map[int]groupAggregate, len(c.asn.Groups))

	for time.Now().Before(deadline) && len(aggregates) < len(c.asn.Groups) {
		for gid := range c.asn.Groups {
			if _, done := aggregates[gid]; done {
				continue
			}
			rec, ok, err := c.bus.StreamLast(ctx, bus.InPrep2Key(gid))
			if err != nil {
				return nil, fmt.Errorf("coordinator: read RepAggregate for group %d: %w", gid, err)
			}
			if !ok {
				continue
			}
			agg, err := schema.ParseRepAggregate(rec.Fields)
			if err != nil {
				c.log.Warn("skipping malformed RepAggregate", zap.Error(err))
				continue
			}
			if agg.RID != rid {
				continue
			}
			aggregates[gid] = groupAggregate{repID: agg.RepID, value: agg.Value, validSigs: agg.ValidSigs}
			c.log.Info("received group aggregate",
				zap.Int("group", gid), zap.String("rep", agg.RepID), zap.String("value", agg.Value), zap.Int("valid_sigs", agg.ValidSigs))
		}
		if len(aggregates) >= len(c.asn.Groups) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if len(aggregates) == 0 {
		c.log.Warn("no group aggregates received before coordinator deadline")
	}
	return aggregates, nil
}

// excludedGroups returns the set of group ids excluded from the tally: a
// group is excluded iff its alerts stream contains at least one record
// whose own group_id field equals that same group id. Cross-group alerts
// (which should not occur on a correctly-keyed stream, but may appear on
// malformed input) are ignored.
func (c *Coordinator) excludedGroups(ctx context.Context, rid string) (map[int]bool, error) {
	excluded := make(map[int]bool)
	for gid := range c.asn.Groups {
		recs, err := c.bus.StreamRange(ctx, bus.AlertsKey(rid, gid), 0, ^uint64(0))
		if err != nil {
			return nil, fmt.Errorf("coordinator: read alerts for group %d: %w", gid, err)
		}
		for _, rec := range recs {
			alert, err := schema.ParseAlert(rec.Fields)
			if err != nil {
				c.log.Warn("skipping malformed Alert", zap.Error(err))
				continue
			}
			c.stats.Alert(string(alert.Reason))
			if alert.GroupID == gid {
				excluded[gid] = true
			}
		}
	}
	return excluded, nil
}

// tally computes the weighted vote count per reported value across
// non-excluded groups' aggregates, and the order values were first seen in
// (for deterministic tie-breaking in argMax).
func (c *Coordinator) tally(aggregates map[int]groupAggregate, excluded map[int]bool) (map[string]int, []string) {
	tally := make(map[string]int)
	var order []string
	for gid := 0; gid < len(c.asn.Groups); gid++ {
		agg, ok := aggregates[gid]
		if !ok || excluded[gid] {
			continue
		}
		weight := agg.validSigs
		if agg.validSigs >= c.cfg.FullWeightThreshold() {
			weight = c.cfg.M
		}
		if _, seen := tally[agg.value]; !seen {
			order = append(order, agg.value)
		}
		tally[agg.value] += weight
		c.log.Info("counting group toward tally", zap.Int("group", gid), zap.String("value", agg.value), zap.Int("weight", weight))
	}
	return tally, order
}

// argMax returns the value with the highest tally, breaking ties by the
// order values were first encountered in. Defaults to (⊥, 0) when empty.
func argMax(tally map[string]int, order []string) (string, int) {
	winner, votes := schema.Bottom, 0
	found := false
	for _, v := range order {
		count := tally[v]
		if !found || count > votes {
			winner, votes, found = v, count, true
		}
	}
	return winner, votes
}

func (c *Coordinator) publishDecision(ctx context.Context, decision schema.RoundDecision, tally map[string]int) error {
	repVotes := make(map[string]string, len(tally))
	for value, votes := range tally {
		repVotes[value] = strconv.Itoa(votes)
	}
	if err := c.bus.MapSet(ctx, bus.RepVotesKey(decision.RID), repVotes); err != nil {
		return fmt.Errorf("coordinator: store rep votes: %w", err)
	}

	out := schema.OutPrepare{
		RID: decision.RID, Winner: decision.Winner, Votes: decision.Votes,
		Total: decision.Total, Threshold: decision.Threshold, Consensus: decision.Consensus,
	}
	if _, err := c.bus.StreamAppend(ctx, bus.OutPrepareKey(), out.Fields()); err != nil {
		return fmt.Errorf("coordinator: publish OutPrepare: %w", err)
	}

	if !decision.Consensus {
		c.log.Warn("consensus not reached",
			zap.Int("total_votes", decision.Total), zap.Int("threshold", decision.Threshold))
		return nil
	}

	if err := c.bus.MapSet(ctx, bus.DecisionsKey(decision.RID), map[string]string{
		"winner": decision.Winner, "votes": strconv.Itoa(decision.Votes),
	}); err != nil {
		return fmt.Errorf("coordinator: store decision: %w", err)
	}
	commit := schema.Commit{RID: decision.RID, Value: decision.Winner, Votes: decision.Votes}
	if _, err := c.bus.StreamAppend(ctx, bus.CommitKey(), commit.Fields()); err != nil {
		return fmt.Errorf("coordinator: publish Commit: %w", err)
	}
	pre2 := schema.PrePrepare2{RID: decision.RID, Value: decision.Winner}
	if _, err := c.bus.StreamAppend(ctx, bus.PrePrepare2Key(), pre2.Fields()); err != nil {
		return fmt.Errorf("coordinator: publish PrePrepare2: %w", err)
	}
	c.log.Info("consensus reached", zap.String("value", decision.Winner), zap.Int("votes", decision.Votes))
	return nil
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
