package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/urfave/cli/v2"
)

const activeAccount = "active"

var (
	state = cli.Command{
		Name:   "state",
		Usage:  "print the whole account state tracked by the daemon",
		Action: stateAction,
	}
	accounts = cli.Command{
		Name:   "accounts",
		Usage:  "list all tracked accounts",
		Action: listAccountsAction,
	}
	account = cli.Command{
		Name:  "account",
		Usage: "get, add, update or activate a tracked account",
		Subcommands: []*cli.Command{
			accountGetCmd, accountAddCmd, accountActivateCmd, accountVoteCmd,
		},
	}
	lock = cli.Command{
		Name:  "lock",
		Usage: "record a confirmed lock of MKR into the account's vote proxy",
		Flags: []cli.Flag{
			&addressFlag,
			&cli.StringFlag{
				Name:     "amount",
				Usage:    "the locked MKR amount",
				Required: true,
			},
		},
		Action: lockAction,
	}
	withdraw = cli.Command{
		Name:  "withdraw",
		Usage: "record a confirmed withdrawal of MKR from the account's vote proxy",
		Flags: []cli.Flag{
			&addressFlag,
			&cli.StringFlag{
				Name:     "amount",
				Usage:    "the withdrawn MKR amount",
				Required: true,
			},
		},
		Action: withdrawAction,
	}

	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "the account address, defaults to the active account",
		Value: activeAccount,
	}

	accountGetCmd = &cli.Command{
		Name:   "get",
		Usage:  "print a tracked account",
		Flags:  []cli.Flag{&addressFlag},
		Action: getAccountAction,
	}
	accountAddCmd = &cli.Command{
		Name:  "add",
		Usage: "look up an address on chain and start tracking it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "the address to track",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "the account type, one of: " + accountTypesUsage(),
				Value: string(domain.AccountTypePlain),
			},
			&cli.BoolFlag{
				Name:  "activate",
				Usage: "make the added account the active one",
			},
		},
		Action: addAccountAction,
	}
	accountActivateCmd = &cli.Command{
		Name:  "activate",
		Usage: "make a tracked account the active one, an empty address clears it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "the address of the tracked account",
			},
		},
		Action: activateAccountAction,
	}
	accountVoteCmd = &cli.Command{
		Name:  "vote",
		Usage: "set the proposal the account is voting for",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "the address of the tracked account",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "proposal",
				Usage: "the voted proposal, empty for none",
			},
		},
		Action: voteAction,
	}
)

func stateAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	var reply domain.State
	if err := client.do(
		context.Background(), http.MethodGet, "/v1/state", nil, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func listAccountsAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	var reply []domain.Account
	if err := client.do(
		context.Background(), http.MethodGet, "/v1/accounts", nil, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func getAccountAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	var reply domain.Account
	if err := client.do(
		context.Background(), http.MethodGet,
		accountPath(ctx.String("address")), nil, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func addAccountAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	accountType := domain.AccountType(ctx.String("type"))
	if !accountType.IsValid() {
		return fmt.Errorf("unknown account type %q", accountType)
	}

	var reply domain.Account
	if err := client.do(
		context.Background(), http.MethodPost, "/v1/accounts",
		map[string]interface{}{
			"address": ctx.String("address"),
			"type":    accountType,
		}, &reply,
	); err != nil {
		return err
	}

	if ctx.Bool("activate") {
		if err := client.do(
			context.Background(), http.MethodPut, "/v1/accounts/active",
			map[string]string{"address": reply.Address}, nil,
		); err != nil {
			return err
		}
	}

	printRespJSON(reply)
	return nil
}

func activateAccountAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	address := ctx.String("address")
	if err := client.do(
		context.Background(), http.MethodPut, "/v1/accounts/active",
		map[string]string{"address": address}, nil,
	); err != nil {
		return err
	}

	fmt.Println()
	if address == "" {
		fmt.Println("active account cleared")
		return nil
	}
	fmt.Println("active account:", address)
	return nil
}

func voteAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	proposal := ctx.String("proposal")
	var reply domain.Account
	if err := client.do(
		context.Background(), http.MethodPatch,
		accountPath(ctx.String("address")),
		domain.AccountUpdate{VotingFor: &proposal}, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func lockAction(ctx *cli.Context) error {
	return mkrMovementAction(ctx, "lock")
}

func withdrawAction(ctx *cli.Context) error {
	return mkrMovementAction(ctx, "withdraw")
}

func mkrMovementAction(ctx *cli.Context, movement string) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	var reply domain.Account
	if err := client.do(
		context.Background(), http.MethodPost,
		accountPath(ctx.String("address"))+"/"+movement,
		map[string]string{"amount": ctx.String("amount")}, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func accountPath(address string) string {
	if address == "" {
		address = activeAccount
	}
	return "/v1/accounts/" + url.PathEscape(address)
}

func accountTypesUsage() string {
	types := append(
		[]domain.AccountType{domain.AccountTypePlain}, domain.HardwareAccountTypes...,
	)
	usage := make([]string, 0, len(types))
	for _, t := range types {
		usage = append(usage, string(t))
	}
	return strings.Join(usage, ", ")
}
