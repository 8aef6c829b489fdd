package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"
)

const (
	daemonURLKey     = "daemon_url"
	defaultDaemonURL = "http://localhost:9080"
)

var (
	pollingDataDir = btcutil.AppDataDir("polling-cli", false)
	statePath      = filepath.Join(pollingDataDir, "state.json")

	daemonURLFlag = cli.StringFlag{
		Name:    "daemon",
		Usage:   "url of the polling daemon http interface, overrides the local state",
		EnvVars: []string{"POLLING_DAEMON_URL"},
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "polling CLI"
	app.Usage = "Command line interface for pollingd account tracking"
	app.Flags = []cli.Flag{&daemonURLFlag}
	app.Commands = append(
		app.Commands,
		&config,
		&state,
		&accounts,
		&account,
		&lock,
		&withdraw,
		&hardware,
		&webhook,
		&listwebhooks,
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data, nil
		}
		return nil, fmt.Errorf("get config state error: %w", err)
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("get config state error: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if err := os.MkdirAll(pollingDataDir, 0755); err != nil {
		return err
	}

	currentData, err := getState()
	if err != nil {
		return err
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func printRespJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonBytes))
}

// getDaemonClient resolves the daemon url from the global flag first and the
// local state then.
func getDaemonClient(ctx *cli.Context) (*daemonClient, error) {
	url := ctx.String(daemonURLFlag.Name)
	if url == "" {
		state, err := getState()
		if err != nil {
			return nil, err
		}
		url = state[daemonURLKey]
	}
	if url == "" {
		url = defaultDaemonURL
	}

	return newDaemonClient(url)
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[polling] %v\n", err)
	}
	os.Exit(1)
}
