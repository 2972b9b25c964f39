package config

import "testing"

func TestDefault(t *testing.T) {
	c := Default()
	if c.RequestTimeout().Seconds() != 30 {
		t.Fatalf("expected 30s default request timeout, got %v", c.RequestTimeout())
	}
	if c.BlockHashLRUSize() != 128 {
		t.Fatalf("expected default LRU size 128, got %d", c.BlockHashLRUSize())
	}
	if c.Network.Name != "finney" {
		t.Fatalf("expected default network finney, got %q", c.Network.Name)
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BlockHashLRUSize() != 128 {
		t.Fatalf("expected default LRU size, got %d", cfg.BlockHashLRUSize())
	}
}
