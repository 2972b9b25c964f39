package chain

import "testing"

func TestResolveEndpointPresets(t *testing.T) {
	cases := map[string]string{
		"finney":  "wss://entrypoint-finney.opentensor.ai:443",
		"test":    "wss://test.finney.opentensor.ai:443",
		"archive": "wss://archive.chain.opentensor.ai:443",
		"local":   "ws://127.0.0.1:9944",
	}
	for name, want := range cases {
		if got := ResolveEndpoint(name); got != want {
			t.Errorf("ResolveEndpoint(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestResolveEndpointPassesThroughSchemedURL(t *testing.T) {
	got := ResolveEndpoint("wss://my-node.example.com:443")
	want := "wss://my-node.example.com:443"
	if got != want {
		t.Fatalf("ResolveEndpoint = %q, want %q", got, want)
	}
}

func TestResolveEndpointPrependsSchemeWhenMissing(t *testing.T) {
	got := ResolveEndpoint("127.0.0.1:9944")
	want := "ws://127.0.0.1:9944"
	if got != want {
		t.Fatalf("ResolveEndpoint = %q, want %q", got, want)
	}
}
