// Package regions models the static Riot routing topology: main regions
// (continental routing domains used by the match endpoints) and the
// sub-regions (platform clusters used by the league endpoints) they own.
package regions

import "fmt"

// SubRegion is a platform routing value such as "br1" or "euw1".
type SubRegion string

// MainRegion is a continental routing value such as "americas".
type MainRegion string

// Host returns the API host serving this sub-region.
func (s SubRegion) Host() string {
	return fmt.Sprintf("https://%s.api.riotgames.com", string(s))
}

// Host returns the API host serving this main region.
func (m MainRegion) Host() string {
	return fmt.Sprintf("https://%s.api.riotgames.com", string(m))
}

// Topology maps each main region to the sub-regions it aggregates.
type Topology map[MainRegion][]SubRegion

// Default returns the full production topology.
func Default() Topology {
	return Topology{
		"americas": {"na1", "br1", "la1", "la2"},
		"asia":     {"kr", "jp1"},
		"europe":   {"eun1", "euw1", "tr1", "ru"},
		"sea":      {"oc1", "ph2", "sg2", "th2", "tw2", "vn2"},
	}
}

// Strings converts a sub-region slice to plain strings, the form the
// persistence layer binds as query parameters.
func Strings(subs []SubRegion) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = string(s)
	}
	return out
}
