// Command blockchat runs one BlockChat node: it either bootstraps a new
// ring (-bootstrap) or joins an existing one by registering against
// BOOTSTRAP_IP:BOOTSTRAP_PORT, then serves the peer-to-peer endpoints and
// the client-facing API for the lifetime of the process.
//
// It is the Go-native replacement for original_source/src/run.py's
// bootstrap-vs-join branch, using github.com/urfave/cli/v2 the way the
// teacher's cmd/toskey and cmd/gtos entrypoints do, instead of run.py's
// argparse.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/blockchat/api"
	"github.com/tos-network/blockchat/bootstrap"
	"github.com/tos-network/blockchat/consensus/pos"
	"github.com/tos-network/blockchat/internal/config"
	"github.com/tos-network/blockchat/internal/flags"
	"github.com/tos-network/blockchat/log"
	"github.com/tos-network/blockchat/node"
	"github.com/tos-network/blockchat/p2p"
	"github.com/tos-network/blockchat/wallet"
)

var gitCommit = ""
var gitDate = ""

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML config file",
	}
	portFlag = &cli.StringFlag{
		Name:     "p",
		Usage:    "port this node's peer-to-peer server listens on",
		Category: flags.NetworkingCategory,
	}
	apiPortFlag = &cli.StringFlag{
		Name:     "api-port",
		Usage:    "port this node's client-facing API listens on",
		Category: flags.NetworkingCategory,
	}
	nodesFlag = &cli.UintFlag{
		Name:     "n",
		Usage:    "number of nodes in the ring (bootstrap only)",
		Category: flags.BootstrapCategory,
	}
	capacityFlag = &cli.IntFlag{
		Name:     "capacity",
		Usage:    "number of transactions a block carries",
		Category: flags.ConsensusCategory,
	}
	ttlFlag = &cli.Uint64Flag{
		Name:     "ttl-limit",
		Usage:    "blocks behind tip a transaction may still confirm",
		Category: flags.ConsensusCategory,
	}
	bootstrapFlag = &cli.BoolFlag{
		Name:     "bootstrap",
		Usage:    "run as the bootstrap node (node 0)",
		Category: flags.BootstrapCategory,
	}
	bootstrapIPFlag = &cli.StringFlag{
		Name:     "bootstrap-ip",
		Usage:    "BOOTSTRAP_IP: address of the bootstrap node to register against",
		Category: flags.BootstrapCategory,
	}
	bootstrapPortFlag = &cli.StringFlag{
		Name:     "bootstrap-port",
		Usage:    "BOOTSTRAP_PORT: port of the bootstrap node to register against",
		Category: flags.BootstrapCategory,
	}
	localFlag = &cli.BoolFlag{
		Name:     "local",
		Usage:    "LOCAL: register 127.0.0.1 as this node's address instead of the resolved hostname",
		Value:    true,
		Category: flags.NetworkingCategory,
	}
)

func main() {
	app := &cli.App{
		Name:  "blockchat",
		Usage: "run a BlockChat permissioned proof-of-stake node",
		Flags: []cli.Flag{
			configFlag, portFlag, apiPortFlag, nodesFlag, capacityFlag,
			ttlFlag, bootstrapFlag, bootstrapIPFlag, bootstrapPortFlag, localFlag,
		},
		Action:  run,
		Version: fmt.Sprintf("%s-%s", gitCommit, gitDate),
	}
	if err := app.Run(os.Args); err != nil {
		log.Crit("blockchat: fatal", "err", err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}
	overlayFlags(c, &cfg)
	pos.TTLLimit = cfg.TTLLimit
	pos.CapacityPerBlock = uint64(cfg.Capacity)

	w, err := wallet.Generate()
	if err != nil {
		return fmt.Errorf("blockchat: generate wallet: %w", err)
	}
	n, err := node.New(w, cfg.Capacity)
	if err != nil {
		return fmt.Errorf("blockchat: new node: %w", err)
	}

	client := p2p.NewClient(cfg.Fanout, p2p.DefaultBroadcastTimeout)
	n.SetBroadcaster(client)

	var registrar p2p.Registrar
	if cfg.Bootstrap {
		b, err := bootstrap.New(n, client, cfg.TotalNodes, cfg.IP, cfg.Port)
		if err != nil {
			return fmt.Errorf("blockchat: bootstrap: %w", err)
		}
		registrar = b
		log.Info("bootstrap node ready", "ip", cfg.IP, "port", cfg.Port, "total_nodes", cfg.TotalNodes)
	}

	errc := make(chan error, 2)
	peerServer := &http.Server{Addr: ":" + cfg.Port, Handler: p2p.NewServer(n, registrar)}
	go func() { errc <- peerServer.ListenAndServe() }()

	if !cfg.Bootstrap {
		if err := join(n, client, cfg); err != nil {
			return fmt.Errorf("blockchat: join: %w", err)
		}
	}

	apiServer := &http.Server{Addr: ":" + cfg.APIPort, Handler: api.New(n)}
	go func() { errc <- apiServer.ListenAndServe() }()
	log.Info("node serving", "id", n.ID(), "p2p_port", cfg.Port, "api_port", cfg.APIPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	peerServer.Shutdown(shutdownCtx)
	apiServer.Shutdown(shutdownCtx)
	return nil
}

// join runs the non-bootstrap side of spec.md §4.10/§4.9: register against
// the bootstrap node, then block until the bootstrap's finalize push has
// delivered both the ring (learning this node's own id) and the genesis
// chain, the two POSTs p2p.Server already routes to LearnRing and
// InstallChainFromPeer as they arrive.
func join(n *node.Node, client *p2p.Client, cfg config.Config) error {
	bootstrapPeer := p2p.Peer{IP: cfg.BootstrapIP, Port: cfg.BootstrapPort}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.RegisterSelf(ctx, bootstrapPeer, n.WalletView().PublicKey, cfg.IP, cfg.Port); err != nil {
		return fmt.Errorf("register with bootstrap: %w", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for n.Chain() == nil && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if n.Chain() == nil {
		return fmt.Errorf("timed out waiting for bootstrap to push ring and chain")
	}
	client.SetPeers(p2p.PeersFromRing(n.ID(), n.ChainLedger()))
	return nil
}

func overlayFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(portFlag.Name) {
		cfg.Port = c.String(portFlag.Name)
	}
	if c.IsSet(apiPortFlag.Name) {
		cfg.APIPort = c.String(apiPortFlag.Name)
	}
	if c.IsSet(nodesFlag.Name) {
		cfg.TotalNodes = uint32(c.Uint(nodesFlag.Name))
	}
	if c.IsSet(capacityFlag.Name) {
		cfg.Capacity = c.Int(capacityFlag.Name)
	}
	if c.IsSet(ttlFlag.Name) {
		cfg.TTLLimit = c.Uint64(ttlFlag.Name)
	}
	if c.IsSet(bootstrapFlag.Name) {
		cfg.Bootstrap = c.Bool(bootstrapFlag.Name)
	}
	if c.IsSet(bootstrapIPFlag.Name) {
		cfg.BootstrapIP = c.String(bootstrapIPFlag.Name)
	}
	if c.IsSet(bootstrapPortFlag.Name) {
		cfg.BootstrapPort = c.String(bootstrapPortFlag.Name)
	}
	if c.IsSet(localFlag.Name) && !c.Bool(localFlag.Name) {
		cfg.IP = localHostname()
	}
}

// localHostname resolves this machine's hostname for LOCAL=false, the
// configuration option spec.md §6 describes ("else use resolved
// hostname").
func localHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "127.0.0.1"
	}
	return h
}
