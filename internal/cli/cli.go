package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lablabs/countries-explorer/internal/client"
	"github.com/lablabs/countries-explorer/internal/config"
	"github.com/lablabs/countries-explorer/internal/logging"
	"github.com/lablabs/countries-explorer/internal/routes"
	"github.com/lablabs/countries-explorer/internal/views"
)

// baseTransport is handed to every client the CLI builds; nil means
// http.DefaultTransport.
var baseTransport http.RoundTripper

// Execute initializes and runs the Cobra CLI
func Execute() error {
	return NewCommand().ExecuteContext(context.Background())
}

// NewCommand builds the root command with its subcommands.
func NewCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "countries-explorer",
		Short: "GraphQL client tutorial over the public countries API",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logging.InitializeLogger(viper.GetString(config.LogLevel), viper.GetString(config.LogFormat))
		},
		Run: func(_ *cobra.Command, _ []string) {
			routes.RunServer(clientOptions())
		},
	}

	viper.AutomaticEnv()
	config.SetDefaults()

	flags := cmd.PersistentFlags()

	flags.String(config.Listen, ":8080", "listen on addr:port ( default :8080), omit addr to listen on all interfaces")
	viper.BindEnv(config.Listen)

	flags.String(config.MetricsPath, "/metrics", "path for metrics, default /metrics")
	viper.BindEnv(config.MetricsPath)

	flags.String(config.GraphQLEndpoint, client.DefaultEndpoint, "countries GraphQL endpoint")
	viper.BindEnv(config.GraphQLEndpoint)

	flags.Int(config.MaxInflight, 4, "concurrent GraphQL requests, defaults to 4")
	viper.BindEnv(config.MaxInflight)

	flags.Float64(config.RateLimitRPS, 4, "outbound requests per second, 0 disables limiting")
	viper.BindEnv(config.RateLimitRPS)

	flags.Int(config.RateLimitBurst, 2, "outbound request burst, defaults to 2")
	viper.BindEnv(config.RateLimitBurst)

	flags.Duration(config.RequestTimeout, 0, "timeout of a single GraphQL request, 0 means none")
	viper.BindEnv(config.RequestTimeout)

	flags.Bool(config.QueryDeduplication, true, "share identical in-flight requests")
	viper.BindEnv(config.QueryDeduplication)

	flags.String(config.LogLevel, "info", "log level (debug, info, warn, error)")
	viper.BindEnv(config.LogLevel)

	flags.String(config.LogFormat, "text", "log format (text or json)")
	viper.BindEnv(config.LogFormat)

	flags.String(config.MetricsDenylist, "", "metrics to not expose, comma delimited list")
	viper.BindEnv(config.MetricsDenylist)

	viper.BindPFlags(flags)

	cmd.AddCommand(
		newViewCommand("list", "Print the list of countries", func(c *client.Client, _ []string) views.View {
			return views.NewCountryList(c)
		}),
		newViewCommand("show [code]", "Print the details of one country", func(c *client.Client, args []string) views.View {
			if len(args) == 0 {
				return views.NewCountryDetail(c)
			}
			return views.NewCountryDetailFor(c, args[0])
		}),
		newViewCommand("try [code]", "Resolve a code under the relaxed error policy", func(c *client.Client, args []string) views.View {
			if len(args) == 0 {
				return views.NewErrorExample(c)
			}
			return views.NewErrorExampleFor(c, args[0])
		}),
	)
	return cmd
}

// newViewCommand mounts one view, waits for it to settle and prints it.
func newViewCommand(use, short string, mount func(*client.Client, []string) views.View) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(clientOptions())
			defer c.Close()

			v := mount(c, args)
			defer v.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := v.Wait(ctx); err != nil {
				return fmt.Errorf("waiting for %s: %w", cmd.Name(), err)
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), v.Render())
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the view to settle")
	return cmd
}

func clientOptions() client.Options {
	opts := config.ClientOptions()
	opts.Transport = baseTransport
	return opts
}
