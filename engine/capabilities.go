package engine

// ExchangeCapabilities echoes the consensus client's supplied capability
// list unchanged: feature detection is best-effort string matching on
// the caller's side, so the core has nothing to negotiate (spec.md §4.4).
func ExchangeCapabilities(supported []string) []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}
