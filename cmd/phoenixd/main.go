// Command phoenixd is the Phoenix retimer control-plane daemon. It scans a
// range of I2C addresses (or connects a single UART adapter), connects every
// retimer it finds, watches a register overlay directory for hot-reloadable
// vendor registers, and holds the resulting registry open until terminated.
// It exposes no HTTP surface of its own — that lives in an external
// collaborator consuming this process's façade (spec §1 OUT OF SCOPE).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phoenixhw/phoenix/internal/discovery"
	"github.com/phoenixhw/phoenix/internal/regmap"
	"github.com/phoenixhw/phoenix/internal/registry"
	"github.com/phoenixhw/phoenix/internal/transport"
)

func main() {
	var (
		uartPort   = flag.String("uart", "", "UART device path (e.g. /dev/ttyUSB0); if set, skips I2C discovery")
		i2cPort    = flag.Uint("i2c-adapter", 1, "I2C adapter number (/dev/i2c-N)")
		busSpeed   = flag.Uint("bus-speed-khz", 400, "I2C bus speed in kHz (100, 400, or 1000)")
		overlayDir = flag.String("overlay-dir", "", "directory containing an optional registers.yaml overlay")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *overlayDir != "" {
		watcher, err := regmap.WatchOverlay(*overlayDir)
		if err != nil {
			slog.Error("overlay watcher failed to start", "err", err)
			os.Exit(1)
		}
		defer watcher.Close()
		slog.Info("watching register overlay", "dir", *overlayDir)
	}

	reg := registry.New()
	watchLifecycle(reg)

	if *uartPort != "" {
		cfg := transport.Config{Kind: transport.KindUART, UART: transport.UARTConfig{PortName: *uartPort, BaudRate: 115200}}
		handle, err := reg.Connect(ctx, cfg)
		if err != nil {
			slog.Error("uart connect failed", "port", *uartPort, "err", err)
			os.Exit(1)
		}
		slog.Info("connected over uart", "handle", handle)
	} else {
		addresses := make([]uint8, 0, 8)
		for a := uint8(0x50); a <= 0x57; a++ {
			addresses = append(addresses, a)
		}
		cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{
			AdapterPort: uint8(*i2cPort), BusSpeedKHz: uint16(*busSpeed),
		}}
		found, err := discovery.Discover(ctx, cfg, addresses)
		if err != nil {
			slog.Error("discovery failed", "err", err)
			os.Exit(1)
		}
		slog.Info("discovery complete", "found", len(found))
		for _, identity := range found {
			connectCfg := cfg.WithSlaveAddress(identity.DeviceAddress)
			handle, err := reg.Connect(ctx, connectCfg)
			if err != nil {
				slog.Warn("connect failed after successful probe", "addr", identity.DeviceAddress, "err", err)
				continue
			}
			slog.Info("connected", "handle", handle, "identity", identity.String())
		}
	}

	slog.Info("phoenixd running", "devices", reg.Len())
	<-ctx.Done()
	slog.Info("shutting down")
}

func watchLifecycle(reg *registry.Registry) {
	sub := reg.Events.Subscribe("phoenixd-log")
	go func() {
		for event := range sub {
			switch event.Kind {
			case registry.DeviceConnected:
				slog.Info("device connected", "handle", event.Handle, "identity", event.Identity.String(), "at", time.Now().Format(time.RFC3339))
			case registry.DeviceDisconnected:
				slog.Info("device disconnected", "handle", event.Handle)
			}
		}
	}()
}
