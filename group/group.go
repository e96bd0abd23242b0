// Package group implements deterministic partitioning of nodes into
// consensus groups and selection of each group's representative.
package group

import (
	"fmt"

	"github.com/nbft-project/nbft/config"
	"github.com/nbft-project/nbft/ring"
)

// Group is an ordered, disjoint slice of up to cfg.M node ids.
type Group []string

// Assignment is the deterministic outcome of partitioning a node set into
// groups, with an O(1) reverse lookup from node id to group index.
type Assignment struct {
	Groups []Group
	byNode map[string]int
}

// ForNode returns the group index a node was assigned to.
func (a *Assignment) ForNode(id string) (int, bool) {
	gid, ok := a.byNode[id]
	return gid, ok
}

// AssignGroups partitions nodeIDs into cfg.R() groups of up to cfg.M ids
// each, per spec: a ring is built over all node ids, the walk is seeded
// with "{view}_{len(nodeIDs)}", and groups are filled in order, skipping
// ids already assigned. The result is deterministic and byte-reproducible
// for identical inputs.
func AssignGroups(nodeIDs []string, cfg config.Config) *Assignment {
	r := ring.New(nodeIDs)
	seed := fmt.Sprintf("%d_%d", cfg.View, len(nodeIDs))
	walk := r.Walk(seed)

	assigned := make(map[string]bool, len(nodeIDs))
	groups := make([]Group, cfg.R())
	for i := range groups {
		g := make(Group, 0, cfg.M)
		for len(g) < cfg.M && len(assigned) < len(nodeIDs) {
			nid := walk()
			for assigned[nid] {
				nid = walk()
			}
			g = append(g, nid)
			assigned[nid] = true
		}
		groups[i] = g
	}

	out := &Assignment{byNode: make(map[string]int, len(nodeIDs))}
	for gid, g := range groups {
		if len(g) == 0 {
			continue
		}
		out.Groups = append(out.Groups, g)
		newGid := len(out.Groups) - 1
		for _, nid := range g {
			out.byNode[nid] = newGid
		}
		_ = gid
	}
	return out
}

// PickRepresentative selects the representative of a group: a ring is
// built over the group's own members, and the representative is the node
// returned by Next("{masterIP}|{view}|{gid}").
func PickRepresentative(g Group, cfg config.Config, gid int) string {
	r := ring.New([]string(g))
	key := fmt.Sprintf("%s|%d|%d", cfg.MasterIP, cfg.View, gid)
	return r.Next(key)
}
