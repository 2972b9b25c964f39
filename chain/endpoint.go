package chain

import "strings"

// networkPresets maps the well-known network names to their default
// WebSocket endpoint, mirroring the source's networking.py preset table.
var networkPresets = map[string]string{
	"finney":  "wss://entrypoint-finney.opentensor.ai:443",
	"test":    "wss://test.finney.opentensor.ai:443",
	"archive": "wss://archive.chain.opentensor.ai:443",
	"local":   "ws://127.0.0.1:9944",
}

// ResolveEndpoint resolves a network name or raw endpoint into a usable
// WebSocket URL: a recognized preset name expands to its endpoint; anything
// else is treated as a literal endpoint and has "ws://" prepended if it
// carries no scheme.
func ResolveEndpoint(networkOrEndpoint string) string {
	if endpoint, ok := networkPresets[networkOrEndpoint]; ok {
		return endpoint
	}
	if strings.Contains(networkOrEndpoint, "://") {
		return networkOrEndpoint
	}
	return "ws://" + networkOrEndpoint
}
