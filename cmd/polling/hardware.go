package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var (
	hardware = cli.Command{
		Name:  "hardware",
		Usage: "connect a trezor or ledger device and pick one of its accounts",
		Subcommands: []*cli.Command{
			hardwareConnectCmd, hardwareScanCmd, hardwareChooseCmd,
		},
	}

	deviceFlag = cli.StringFlag{
		Name:     "device",
		Usage:    "the device type, either trezor or ledger",
		Required: true,
	}

	hardwareConnectCmd = &cli.Command{
		Name:  "connect",
		Usage: "scan the device and list the derived accounts",
		Flags: []cli.Flag{
			&deviceFlag,
			&cli.BoolFlag{
				Name:  "live",
				Usage: "use the Ledger Live derivation path",
			},
		},
		Action: connectAction,
	}
	hardwareScanCmd = &cli.Command{
		Name:   "scan",
		Usage:  "print the last scan of the device",
		Flags:  []cli.Flag{&deviceFlag},
		Action: scanAction,
	}
	hardwareChooseCmd = &cli.Command{
		Name:  "choose",
		Usage: "pick one of the scanned accounts and start tracking it",
		Flags: []cli.Flag{
			&deviceFlag,
			&cli.StringFlag{
				Name:     "address",
				Usage:    "the chosen address, as listed by connect",
				Required: true,
			},
		},
		Action: chooseAction,
	}
)

func connectAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}
	device, err := parseDevice(ctx)
	if err != nil {
		return err
	}

	var reply []domain.HardwareAccount
	if err := client.do(
		context.Background(), http.MethodPost, hardwarePath(device)+"/connect",
		map[string]bool{"live": ctx.Bool("live")}, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func scanAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}
	device, err := parseDevice(ctx)
	if err != nil {
		return err
	}

	var reply domain.HardwareScan
	if err := client.do(
		context.Background(), http.MethodGet, hardwarePath(device), nil, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func chooseAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}
	device, err := parseDevice(ctx)
	if err != nil {
		return err
	}

	var reply domain.Account
	if err := client.do(
		context.Background(), http.MethodPost, hardwarePath(device)+"/choose",
		map[string]string{"address": ctx.String("address")}, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func parseDevice(ctx *cli.Context) (domain.AccountType, error) {
	device := domain.AccountType(ctx.String(deviceFlag.Name))
	if !device.IsHardware() {
		return "", fmt.Errorf("unknown device %q", device)
	}
	return device, nil
}

func hardwarePath(device domain.AccountType) string {
	return "/v1/hardware/" + string(device)
}
