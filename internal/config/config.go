// Package config loads a BlockChat node's settings from an optional TOML
// file and a thin layer of CLI flag overrides, the same two-stage shape
// cmd/gtos's own config.go applies to its Config struct: defaults, then
// naoina/toml.Decode over a file if one is given, then explicit flag
// values stomp anything the file set.
package config

import (
	"fmt"
	"os"

	"github.com/naoina/toml"
)

// Config is everything a running node needs that isn't passed per-call:
// where its own HTTP servers listen, who to dial to join the ring, how
// many transactions a block carries, and how stale a transaction may be
// before it is rejected (spec.md §3's CAPACITY and TTL_LIMIT parameters).
type Config struct {
	// IP and Port are this node's own peer-facing listen address,
	// registered into the ring under these values.
	IP   string `toml:"ip"`
	Port string `toml:"port"`

	// APIPort is the separate client-facing API listen port (spec.md §6
	// groups /api/* under its own address so a node can expose the wallet
	// surface without also exposing it to peers, or vice versa).
	APIPort string `toml:"api_port"`

	// BootstrapIP and BootstrapPort address the well-known node 0 every
	// joining node registers against (spec.md §4.10).
	BootstrapIP   string `toml:"bootstrap_ip"`
	BootstrapPort string `toml:"bootstrap_port"`

	// Bootstrap, when true, makes this process node 0 instead of a joiner.
	Bootstrap bool `toml:"bootstrap"`

	// TotalNodes is N, the ring size the bootstrap node waits to fill
	// before shipping ring and chain to every peer. Ignored by joiners.
	TotalNodes uint32 `toml:"total_nodes"`

	// Capacity is CAPACITY, the number of transactions a block carries
	// (spec.md §3, §4.5).
	Capacity int `toml:"capacity"`

	// TTLLimit is TTL_LIMIT, how many blocks behind the tip a transaction
	// may still confirm (spec.md §3, §4.2).
	TTLLimit uint64 `toml:"ttl_limit"`

	// Fanout bounds concurrent broadcast RPCs (package p2p's worker pool
	// size); zero selects p2p.DefaultFanout.
	Fanout int `toml:"fanout"`
}

// Defaults sets a four-node ring with CAPACITY=5 and TTL_LIMIT=10, and the
// conventional bootstrap address used throughout original_source's run
// scripts.
func Defaults() Config {
	return Config{
		IP:            "127.0.0.1",
		Port:          "5000",
		APIPort:       "6000",
		BootstrapIP:   "127.0.0.1",
		BootstrapPort: "5000",
		TotalNodes:    4,
		Capacity:      5,
		TTLLimit:      10,
		Fanout:        8,
	}
}

// Load starts from Defaults and, if path is non-empty, decodes a TOML
// file over them — the same "defaults, then toml.Decode" order
// cmd/gtos's loadConfig applies before dumpconfig/flag overrides run.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
