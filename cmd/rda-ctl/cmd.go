// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mattermost/rda-coordinator/client"
	"github.com/mattermost/rda-coordinator/model"
)

const defaultServer = "http://localhost:8080"

// newRootCmd builds the command tree. Output is written to out and requests
// go through httpClient.
func newRootCmd(out io.Writer, httpClient *http.Client) *cobra.Command {
	var serverURL string
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "rda-ctl",
		Short:         "Command line client for the RDA coordinator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("RDA_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", server, "coordinator URL, defaults to $RDA_SERVER")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")

	newClient := func() *client.Client {
		c := client.NewClient(serverURL)
		c.HTTPClient = httpClient
		return c
	}
	run := func(cmd *cobra.Command, call func(ctx context.Context, c *client.Client) (interface{}, error)) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		result, err := call(ctx, newClient())
		if err != nil {
			return err
		}
		return printJSON(out, result)
	}

	rootCmd.AddCommand(
		buildCreateCommand(run),
		buildGetCommand(run),
		buildProvisioningsCommand(run),
		buildPingCommand(run),
	)
	return rootCmd
}

type runFunc func(cmd *cobra.Command, call func(ctx context.Context, c *client.Client) (interface{}, error)) error

func buildCreateCommand(run runFunc) *cobra.Command {
	req := &model.ClusterCreationRequest{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision the cluster of a data set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, c *client.Client) (interface{}, error) {
				return c.CreateCluster(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&req.DataSource, "data-source", "", "data source name")
	cmd.Flags().StringVar(&req.DataSet, "data-set", "", "data set name")
	_ = cmd.MarkFlagRequired("data-source")
	_ = cmd.MarkFlagRequired("data-set")
	return cmd
}

func buildGetCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <cluster id or identifier>",
		Short: "Show a cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, c *client.Client) (interface{}, error) {
				return c.GetCluster(ctx, args[0])
			})
		},
	}
}

func buildProvisioningsCommand(run runFunc) *cobra.Command {
	req := &model.GetProvisioningsRequest{}

	cmd := &cobra.Command{
		Use:   "provisionings",
		Short: "List provisioning attempts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.State != "" && !model.IsValidProvisioningState(req.State) {
				return errors.Errorf("unknown state %q", req.State)
			}
			return run(cmd, func(ctx context.Context, c *client.Client) (interface{}, error) {
				return c.ListProvisionings(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&req.State, "state", "", "only list provisionings in this state")
	cmd.Flags().IntVar(&req.Page, "page", 0, "page to fetch")
	cmd.Flags().IntVar(&req.PerPage, "per-page", 0, "page size")
	return cmd
}

func buildPingCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the coordinator is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, c *client.Client) (interface{}, error) {
				return c.Ping(ctx)
			})
		},
	}
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "unable to print result")
}
