/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tomoncle/dbclient/database"
	"github.com/tomoncle/dbclient/utils"
)

// ClientFunc resolves the client a command operates on.
type ClientFunc func() (*database.Client, error)

type Options struct {
	client   ClientFunc
	timeout  time.Duration
	logLevel string
}

func (o *Options) newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

// New builds the root command.
func New(client ClientFunc) *cobra.Command {
	opts := &Options{
		client:  client,
		timeout: utils.EnvDefaultDuration("DB_CLI_TIMEOUT", 10*time.Second),
	}

	maincmd := &cobra.Command{
		Use:   "dbclient <cmd> <args>",
		Short: "inspect the shared database client",
		Long: `
This command connects with the same configuration as the application
(DATABASE_URL, DB_* variables, DB_CONFIG_FILE) and reports on the connection.
`,
		SilenceUsage:     true,
		TraverseChildren: true,
	}
	maincmd.PersistentFlags().DurationVarP(&opts.timeout, "timeout", "t", opts.timeout, "timeout for database operations")
	maincmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "level of all loggers (debug, info, warn, error)")
	maincmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if opts.logLevel != "" {
			utils.SetAllLoggersLevel(utils.ParseLogLevel(opts.logLevel))
		}
	}

	maincmd.AddCommand(newPing(opts))
	maincmd.AddCommand(newStats(opts))
	maincmd.AddCommand(newChannels(opts))
	maincmd.AddCommand(newExec(opts))
	return maincmd
}

func newPing(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "check that the database answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.newContext()
			defer cancel()
			status := c.HealthCheck(ctx)
			if !status.Healthy {
				return fmt.Errorf("database unhealthy: %s", status.LastError)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", status.ResponseTime.Round(time.Microsecond))
			return nil
		},
	}
}

func newStats(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print connection pool statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(c.Stats(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newChannels(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "print the enabled log channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.LogChannels().String())
			return nil
		},
	}
}

func newExec(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql> {<arg>}",
		Short: "execute a statement and print the affected row count",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.newContext()
			defer cancel()
			params := make([]interface{}, 0, len(args)-1)
			for _, a := range args[1:] {
				params = append(params, a)
			}
			n, err := c.ExecuteRaw(ctx, args[0], params...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) affected\n", n)
			return nil
		},
	}
}
