package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"

	"github.com/dcu/soapinvoker"
)

var (
	cfgFile string
	flags   Config
)

var rootCmd = &cobra.Command{
	Use:   "soapcall",
	Short: "Calls a SOAP 1.1 method and prints the response",
	Long: `soapcall sends one SOAP 1.1 request and prints the response body as XML.

The request is sent without SOAPAction first. If that fails at the transport
level it is sent again with namespace+method as SOAPAction.`,
	Example: `  soapcall --url http://svc/ep --namespace urn:ns --method GetUser --param id=42
  soapcall --config user.yaml --dotnet`,
	SilenceUsage: true,
	RunE:         runCall,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&flags.URL, "url", "", "service URL")
	rootCmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "log request and response envelopes")
	rootCmd.PersistentFlags().StringVar(&flags.Timeout, "timeout", "", "request timeout, e.g. 30s")

	rootCmd.Flags().StringVar(&flags.Namespace, "namespace", "", "target namespace of the method")
	rootCmd.Flags().StringVar(&flags.Method, "method", "", "method name")
	rootCmd.Flags().StringToStringVarP(&flags.Params, "param", "p", nil, "request parameter, name=value (repeatable)")
	rootCmd.Flags().BoolVar(&flags.DotNet, "dotnet", false, "encode the request for a .NET service")
	rootCmd.Flags().IntVar(&flags.Threads, "threads", 0, "number of calls run at the same time")
	rootCmd.Flags().BoolVar(&flags.KeepAlive, "keep-alive", false, "reuse HTTP connections")
	rootCmd.Flags().StringVar(&flags.Username, "username", "", "WS-Security username")
	rootCmd.Flags().StringVar(&flags.Password, "password", "", "WS-Security password")
}

// resolveConfig merges the config file with the flags set on cmd
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{}
	if cfgFile != "" {
		loaded, err := LoadConfig(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("url", func() { cfg.URL = flags.URL })
	set("debug", func() { cfg.Debug = flags.Debug })
	set("timeout", func() { cfg.Timeout = flags.Timeout })
	set("namespace", func() { cfg.Namespace = flags.Namespace })
	set("method", func() { cfg.Method = flags.Method })
	set("dotnet", func() { cfg.DotNet = flags.DotNet })
	set("threads", func() { cfg.Threads = flags.Threads })
	set("keep-alive", func() { cfg.KeepAlive = flags.KeepAlive })
	set("username", func() { cfg.Username = flags.Username })
	set("password", func() { cfg.Password = flags.Password })
	set("param", func() {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		for k, v := range flags.Params {
			cfg.Params[k] = v
		}
	})

	return cfg, nil
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resp, err := callOnce(ctx, opts, cfg.Endpoint(), cfg.Params)
	if err != nil {
		return err
	}

	return printResponse(cmd.OutOrStdout(), resp)
}

// callOnce runs a single call. When ctx ends first the invoker is left to the exiting
// process: Close would wait for the request still in flight.
func callOnce(ctx context.Context, opts soapinvoker.Options, ep soapinvoker.Endpoint, params map[string]string) (*soapinvoker.Response, error) {
	inv := soapinvoker.New(opts)

	resp, err := inv.Go(ep, params).Wait(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	_ = inv.Close()

	return resp, err
}

func printResponse(w io.Writer, resp *soapinvoker.Response) error {
	if resp.Body == nil {
		_, err := fmt.Fprintln(w, "(empty response)")
		return err
	}

	doc := etree.NewDocument()
	doc.SetRoot(resp.Body.Copy())
	doc.Indent(2)

	_, err := doc.WriteTo(w)
	return err
}
