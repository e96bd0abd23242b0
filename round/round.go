// Package round provides the one-shot orchestration that wires config,
// group assignment, node actors, and the coordinator into a single round.
package round

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nbft-project/nbft/actor"
	"github.com/nbft-project/nbft/bus"
	"github.com/nbft-project/nbft/config"
	"github.com/nbft-project/nbft/coordinator"
	"github.com/nbft-project/nbft/group"
	"github.com/nbft-project/nbft/metrics"
	"github.com/nbft-project/nbft/schema"
)

// Driver runs a single round: it builds the group assignment, spins up one
// actor.Node per participant, samples dishonest nodes, and drives the two
// prepare phases before handing off to the coordinator.
type Driver struct {
	cfg   config.Config
	bus   bus.Bus
	log   *zap.Logger
	stats *metrics.Metrics
	rand  *rand.Rand
}

// New constructs a Driver. rnd seeds the dishonest-node sample; pass a
// rand.New(rand.NewSource(seed)) for reproducible runs, never the global
// source, so round outcomes stay byte-reproducible in tests.
func New(cfg config.Config, b bus.Bus, log *zap.Logger, stats *metrics.Metrics, rnd *rand.Rand) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	if stats == nil {
		stats = metrics.NoOp()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &Driver{cfg: cfg, bus: b, log: log, stats: stats, rand: rnd}
}

// nodeID returns the canonical id of the i-th participant.
func nodeID(i int) string {
	return fmt.Sprintf("node-%d", i)
}

// RunRound assigns groups, spawns actors, samples malNodes dishonest node
// ids, and drives phase 1 (every node's InPrepare1), phase 2 (every
// representative's InPrepare2Collect running concurrently with the
// coordinator's wait), and the coordinator's tally, in that order.
func (d *Driver) RunRound(ctx context.Context, rid string, value string, malNodes int) (schema.RoundDecision, error) {
	nodeIDs := make([]string, d.cfg.N)
	for i := range nodeIDs {
		nodeIDs[i] = nodeID(i)
	}

	asn := group.AssignGroups(nodeIDs, d.cfg)
	reps := make(map[int]string, len(asn.Groups))
	for gid, g := range asn.Groups {
		reps[gid] = group.PickRepresentative(g, d.cfg, gid)
	}

	dishonest := d.sampleDishonest(nodeIDs, malNodes)
	d.log.Info("round starting",
		zap.String("rid", rid), zap.Int("n", d.cfg.N), zap.Int("m", d.cfg.M),
		zap.Int("groups", len(asn.Groups)), zap.Int("dishonest", len(dishonest)))

	nodes := make(map[string]*actor.Node, len(nodeIDs))
	for gid, g := range asn.Groups {
		for _, nid := range g {
			nodes[nid] = actor.New(nid, gid, reps[gid], !dishonest[nid], d.cfg, d.bus, d.log)
		}
	}

	coord := coordinator.New(d.cfg, asn, reps, d.bus, d.log, d.stats)
	if err := coord.StoreRoundConfig(ctx, rid, nodeIDs); err != nil {
		return schema.RoundDecision{}, fmt.Errorf("round: store config: %w", err)
	}

	if err := d.runPhase1(ctx, rid, value, nodes); err != nil {
		return schema.RoundDecision{}, err
	}

	decision, err := d.runPhase2(ctx, rid, value, asn, reps, nodes, coord)
	if err != nil {
		return schema.RoundDecision{}, err
	}

	d.log.Info("round complete",
		zap.String("rid", rid), zap.Bool("consensus", decision.Consensus),
		zap.String("winner", decision.Winner), zap.Int("votes", decision.Votes))
	return decision, nil
}

// sampleDishonest picks count distinct node ids uniformly without
// replacement from ids, via d.rand (never the package-global source, so
// the sample is reproducible given the Driver's seed).
func (d *Driver) sampleDishonest(ids []string, count int) map[string]bool {
	if count <= 0 {
		return nil
	}
	if count > len(ids) {
		count = len(ids)
	}
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	d.rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	dishonest := make(map[string]bool, count)
	for _, nid := range shuffled[:count] {
		dishonest[nid] = true
	}
	return dishonest
}

// runPhase1 fans out InPrepare1 to every node and waits for all of them to
// publish before phase 2 may begin.
func (d *Driver) runPhase1(ctx context.Context, rid, value string, nodes map[string]*actor.Node) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range nodes {
		n := n
		g.Go(func() error {
			return n.InPrepare1(gctx, rid, value)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("round: phase 1 fan-out: %w", err)
	}
	return nil
}

// runPhase2 runs every representative's InPrepare2Collect concurrently
// with the coordinator's own collection loop: the coordinator polls the
// per-group streams the representatives publish to, so neither needs to
// wait on the other to start.
func (d *Driver) runPhase2(ctx context.Context, rid, value string, asn *group.Assignment, reps map[int]string, nodes map[string]*actor.Node, coord *coordinator.Coordinator) (schema.RoundDecision, error) {
	g, gctx := errgroup.WithContext(ctx)
	for gid := range asn.Groups {
		rep := nodes[reps[gid]]
		g.Go(func() error {
			_, err := rep.InPrepare2Collect(gctx, rid, d.cfg.InPrep2Deadline)
			return err
		})
	}

	var decision schema.RoundDecision
	g.Go(func() error {
		var err error
		decision, err = coord.RunRound(gctx, rid, value)
		return err
	})

	if err := g.Wait(); err != nil {
		return schema.RoundDecision{}, fmt.Errorf("round: phase 2 fan-out: %w", err)
	}
	return decision, nil
}
