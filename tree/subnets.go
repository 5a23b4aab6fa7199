package tree

import (
	"net/netip"
	"sort"

	"go.uber.org/zap"

	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/netbox/models"
	"github.com/cimnine/netbox-forager/util"
)

const (
	FieldAggregate   = "aggregate"
	FieldSuperPrefix = "super_prefix"
	FieldSubPrefixes = "sub_prefixes"
	FieldIPAddresses = "ip_addresses"

	// depthField is the nesting depth NetBox reports for prefixes.
	depthField = "_depth"
)

type node struct {
	object  models.Object
	network netip.Prefix
	depth   int

	aggregate *node
	super     *node
	subs      []*node
	addresses []*node
}

// level indexes the networks of one depth by their masked prefix.
type level map[netip.Prefix][]*node

func (l level) add(n *node) {
	key := n.network.Masked()
	l[key] = append(l[key], n)
}

// containing returns the most specific node of l that contains network and
// is not more specific than network itself.
func (l level) containing(network netip.Prefix, skip func(*node) bool) *node {
	for bits := network.Bits(); bits >= 0; bits-- {
		candidate, err := network.Addr().Prefix(bits)
		if err != nil {
			continue
		}
		for _, n := range l[candidate] {
			if skip == nil || !skip(n) {
				return n
			}
		}
	}
	return nil
}

// Build returns a copy of collections in which every IPv4 aggregate, prefix
// and ip address of the global table carries its place in the subnet
// hierarchy: aggregate, super_prefix, sub_prefixes and ip_addresses.
// Containment is derived from the networks alone. Objects assigned to a VRF
// and IPv6 objects are left as they are. The input is not modified.
func Build(collections models.Collections, log logger.Logger) models.Collections {
	log = logger.OrNoop(log)
	out := Copy(collections)

	aggregates := inScope(log, models.Aggregates, out[models.Aggregates.Key()], models.Prefix)
	prefixes := inScope(log, models.Prefixes, out[models.Prefixes.Key()], models.Prefix)
	addresses := inScope(log, models.IPAddresses, out[models.IPAddresses.Key()], models.Address)

	assignDepths(prefixes)

	aggregateIndex := make(level)
	for _, a := range aggregates {
		aggregateIndex.add(a)
	}

	var levels []level
	for _, p := range prefixes {
		for len(levels) <= p.depth {
			levels = append(levels, make(level))
		}
		levels[p.depth].add(p)
	}

	for _, p := range prefixes {
		if p.depth != 0 {
			continue
		}
		if a := aggregateIndex.containing(p.network, nil); a != nil {
			p.aggregate = a
			a.subs = append(a.subs, p)
		}
	}

	noRoom := func(n *node) bool {
		return n.network.Bits() == 32
	}
	for d := 0; d+1 < len(levels); d++ {
		for _, q := range sortedNodes(levels[d+1]) {
			p := levels[d].containing(q.network, noRoom)
			if p == nil {
				continue
			}
			q.super = p
			p.subs = append(p.subs, q)
			if q.aggregate == nil {
				q.aggregate = p.aggregate
			}
		}
	}

	for _, addr := range addresses {
		for d := len(levels) - 1; d >= 0; d-- {
			p := levels[d].containing(addr.network, nil)
			if p == nil {
				continue
			}
			addr.super = p
			addr.aggregate = p.aggregate
			p.addresses = append(p.addresses, addr)
			break
		}
	}

	// Networks whose chain does not lead to an aggregate look it up directly.
	for _, p := range prefixes {
		if p.aggregate != nil {
			continue
		}
		if a := aggregateIndex.containing(p.network, nil); a != nil {
			p.aggregate = a
			a.subs = append(a.subs, p)
		}
	}
	for _, addr := range addresses {
		if addr.aggregate == nil {
			addr.aggregate = aggregateIndex.containing(addr.network, nil)
		}
	}

	for _, a := range aggregates {
		direct := a.subs[:0]
		for _, sub := range a.subs {
			if sub.super == nil {
				direct = append(direct, sub)
			}
		}
		a.subs = direct
	}

	for _, group := range [][]*node{aggregates, prefixes, addresses} {
		for _, n := range group {
			n.write()
		}
	}

	return out
}

func inScope(log logger.Logger, ep models.Endpoint, collection models.Collection, parse func(models.Object) (netip.Prefix, error)) []*node {
	nodes := make([]*node, 0, len(collection))
	for _, id := range collection.IDs() {
		object := collection[id]
		if !models.InGlobalTable(object) {
			continue
		}
		network, err := parse(object)
		if err != nil {
			log.Error("Leaving an object without valid network out of the subnet tree.",
				zap.Stringer("endpoint", ep), zap.Int("id", id), zap.Error(err))
			continue
		}
		if !network.Addr().Is4() {
			continue
		}
		nodes = append(nodes, &node{object: object, network: network})
	}
	return nodes
}

// assignDepths uses the depth reported by NetBox when every prefix has one.
// Otherwise it derives the depth from containment: sorted by network, a
// prefix is one level below the last open prefix that contains it.
func assignDepths(prefixes []*node) {
	reported := true
	for _, p := range prefixes {
		depth, ok := util.ToInt(p.object[depthField])
		if !ok || depth < 0 {
			reported = false
			break
		}
		p.depth = depth
	}
	if reported {
		return
	}

	sorted := append([]*node(nil), prefixes...)
	sortByNetwork(sorted)

	var open []*node
	for _, p := range sorted {
		for len(open) > 0 && !contains(open[len(open)-1].network, p.network) {
			open = open[:len(open)-1]
		}
		p.depth = len(open)
		open = append(open, p)
	}
}

func contains(outer, inner netip.Prefix) bool {
	return outer.Bits() <= inner.Bits() && outer.Contains(inner.Addr())
}

func sortByNetwork(nodes []*node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].network, nodes[j].network
		if c := a.Masked().Addr().Compare(b.Masked().Addr()); c != 0 {
			return c < 0
		}
		if a.Bits() != b.Bits() {
			return a.Bits() < b.Bits()
		}
		if c := a.Addr().Compare(b.Addr()); c != 0 {
			return c < 0
		}
		return nodes[i].object.ID() < nodes[j].object.ID()
	})
}

func sortedNodes(l level) []*node {
	var nodes []*node
	for _, group := range l {
		nodes = append(nodes, group...)
	}
	sortByNetwork(nodes)
	return nodes
}

// unique sorts nodes by network and drops repeated objects.
func unique(nodes []*node) []*node {
	sortByNetwork(nodes)

	seen := make(map[*node]bool, len(nodes))
	out := make([]*node, 0, len(nodes))
	for _, n := range nodes {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (n *node) write() {
	n.object[FieldAggregate] = ref(n.aggregate)
	n.object[FieldSuperPrefix] = ref(n.super)
	n.object[FieldSubPrefixes] = refs(unique(n.subs))
	n.object[FieldIPAddresses] = refs(unique(n.addresses))
}

func ref(n *node) map[string]interface{} {
	if n == nil {
		return map[string]interface{}{}
	}
	return n.object
}

func refs(nodes []*node) []interface{} {
	out := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, map[string]interface{}(n.object))
	}
	return out
}
