package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/polling-network/polling-daemon/internal/core/application"
	"github.com/urfave/cli/v2"
)

var (
	webhook = cli.Command{
		Name:  "webhook",
		Usage: "add or remove webhooks",
		Subcommands: []*cli.Command{
			webhookAddCmd, webhookRemoveCmd,
		},
	}
	listwebhooks = cli.Command{
		Name:  "webhooks",
		Usage: "list all webhooks, optionally filtered by target event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "event",
				Usage: "the event to filter webhooks by",
			},
		},
		Action: listWebhooksAction,
	}

	webhookAddCmd = &cli.Command{
		Name:  "add",
		Usage: "add a (secured) webhook endpoint called whenever a target event occurs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "the webhook endpoint to be called whenever the target event occurs",
				Required: true,
			},
			&cli.StringFlag{
				Name: "secret",
				Usage: "the eventual secret to use to generate an OAuth token for " +
					"authenticating requests to the webhook endpoint",
			},
			&cli.StringFlag{
				Name:  "event",
				Usage: "the target event, like ACCOUNT_ADDED or MKR_LOCKED, * for any",
				Value: "*",
			},
		},
		Action: addWebhookAction,
	}

	webhookRemoveCmd = &cli.Command{
		Name:  "remove",
		Usage: "remove a webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "the id of the webhook to remove",
				Required: true,
			},
		},
		Action: removeWebhookAction,
	}
)

func addWebhookAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	var reply struct {
		ID string `json:"id"`
	}
	if err := client.do(
		context.Background(), http.MethodPost, "/v1/webhooks",
		application.Webhook{
			Event:    ctx.String("event"),
			Endpoint: ctx.String("endpoint"),
			Secret:   ctx.String("secret"),
		}, &reply,
	); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("webhook id:", reply.ID)
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	hookID := ctx.String("id")
	if err := client.do(
		context.Background(), http.MethodDelete,
		"/v1/webhooks/"+url.PathEscape(hookID), nil, nil,
	); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("removed webhook with id:", hookID)
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	client, err := getDaemonClient(ctx)
	if err != nil {
		return err
	}

	path := "/v1/webhooks"
	if event := ctx.String("event"); event != "" {
		path += "?event=" + url.QueryEscape(event)
	}

	var reply []application.WebhookInfo
	if err := client.do(
		context.Background(), http.MethodGet, path, nil, &reply,
	); err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}
