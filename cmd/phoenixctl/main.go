// Command phoenixctl is a thin CLI exercising the device façade directly
// against a single adapter, for bench bring-up without a dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/phoenixhw/phoenix/internal/regmap"
	"github.com/phoenixhw/phoenix/internal/registry"
	"github.com/phoenixhw/phoenix/internal/transport"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet("phoenixctl", flag.ExitOnError)
	i2cPort := fs.Uint("i2c-adapter", 1, "I2C adapter number")
	busSpeed := fs.Uint("bus-speed-khz", 400, "I2C bus speed in kHz")
	slaveAddr := fs.Uint("addr", 0x50, "7-bit I2C slave address")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	cfg := transport.Config{Kind: transport.KindI2C, I2C: transport.I2CConfig{
		AdapterPort:  uint8(*i2cPort),
		BusSpeedKHz:  uint16(*busSpeed),
		SlaveAddress: uint8(*slaveAddr),
	}}

	reg := registry.New()
	handle, err := reg.Connect(ctx, cfg)
	if err != nil {
		slog.Error("connect failed", "err", err)
		os.Exit(1)
	}
	defer reg.Disconnect(handle)

	device, err := reg.Get(handle)
	if err != nil {
		slog.Error("get failed", "err", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "status":
		status, err := device.GetStatus(ctx)
		if err != nil {
			slog.Error("get_status failed", "err", err)
			os.Exit(1)
		}
		fmt.Printf("temperature_c=%d healthy=%v ppa_ltssm=%s ppa_speed=%s ppa_width=%d\n",
			status.TemperatureC, status.IsHealthy,
			status.PPAStatus.CurrentLtssmState, status.PPAStatus.CurrentLinkSpeed, status.PPAStatus.CurrentLinkWidth)
	case "config":
		config, err := device.GetConfiguration(ctx)
		if err != nil {
			slog.Error("get_configuration failed", "err", err)
			os.Exit(1)
		}
		fmt.Printf("bifurcation=%s max_data_rate=%s clocking=%s orientation=%v\n",
			config.BifurcationMode, config.MaxDataRate, config.ClockingMode, config.PortOrientation)
	case "reset":
		if err := device.Reset(ctx, regmap.ResetSoft); err != nil {
			slog.Error("reset failed", "err", err)
			os.Exit(1)
		}
		fmt.Println("reset complete")
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: phoenixctl <status|config|reset> [-i2c-adapter N] [-bus-speed-khz N] [-addr N]")
}
