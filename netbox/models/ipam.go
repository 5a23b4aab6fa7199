package models

import (
	"fmt"
	"net/netip"
)

var (
	Aggregates   = register(Endpoint{App: "ipam", Model: "aggregates"})
	Prefixes     = register(Endpoint{App: "ipam", Model: "prefixes", Loners: []string{"^prefix$"}})
	IPRanges     = register(Endpoint{App: "ipam", Model: "ip-ranges"})
	IPAddresses  = register(Endpoint{App: "ipam", Model: "ip-addresses", Loners: []string{"^address$"}})
	RIRs         = register(Endpoint{App: "ipam", Model: "rirs"})
	Roles        = register(Endpoint{App: "ipam", Model: "roles"})
	VLANGroups   = register(Endpoint{App: "ipam", Model: "vlan-groups"})
	VLANs        = register(Endpoint{App: "ipam", Model: "vlans"})
	VRFs         = register(Endpoint{App: "ipam", Model: "vrfs"})
	RouteTargets = register(Endpoint{App: "ipam", Model: "route-targets"})
	ASNs         = register(Endpoint{App: "ipam", Model: "asns"})
	Services     = register(Endpoint{App: "ipam", Model: "services"})
)

// Prefix parses the "prefix" field of an aggregate or prefix.
func Prefix(o Object) (netip.Prefix, error) {
	return parseNetwork(o, "prefix")
}

// Address parses the "address" field of an ip address. The prefix length of
// the result is the one of the assigned network, e.g. 10.0.0.1/24.
func Address(o Object) (netip.Prefix, error) {
	return parseNetwork(o, "address")
}

// Network returns the prefix of an aggregate or prefix, or the address of an ip address.
func Network(o Object) (netip.Prefix, error) {
	if _, ok := o["prefix"]; ok {
		return Prefix(o)
	}
	return Address(o)
}

// InGlobalTable reports whether the object is not assigned to a VRF.
func InGlobalTable(o Object) bool {
	return o["vrf"] == nil
}

func parseNetwork(o Object, field string) (netip.Prefix, error) {
	raw, ok := o[field].(string)
	if !ok {
		return netip.Prefix{}, fmt.Errorf("object %d has no %s", o.ID(), field)
	}
	return netip.ParsePrefix(raw)
}
