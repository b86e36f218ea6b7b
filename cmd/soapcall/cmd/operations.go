package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcu/soapinvoker"
)

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "Lists the operations published in the service WSDL",
	RunE:  runOperations,
}

func init() {
	rootCmd.AddCommand(operationsCmd)
}

func runOperations(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.URL == "" {
		return errors.New("--url is required")
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	ops, err := soapinvoker.NewClient(opts.Client).ListOperations(context.Background(), cfg.URL)
	if err != nil {
		return err
	}

	for _, op := range ops {
		fmt.Fprintln(cmd.OutOrStdout(), op)
	}

	return nil
}
