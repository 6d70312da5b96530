package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/platinummonkey/casserver/pkg/config"
	"github.com/platinummonkey/casserver/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// options is shared by every subcommand
type options struct {
	logLevel  string
	logFormat string
	metrics   bool

	cfg        *config.Config
	log        *logrus.Logger
	promReg    *prometheus.Registry
	promMetric *observability.Metrics
}

// NewRootCommand creates the cas-payload root command
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cas-payload",
		Short: "Evaluate CAS service access and render protocol responses",
		Long: `cas-payload runs the service admission check against a registered
services file and renders CAS validation responses from model files.

Settings are read from CAS_* environment variables; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides CAS_LOG_LEVEL")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (json, text); overrides CAS_LOG_FORMAT")
	root.PersistentFlags().BoolVar(&opts.metrics, "metrics", false, "Print collected metrics after the command")

	root.AddCommand(
		newAuthorizeCommand(opts),
		newRenderCommand(opts),
		newFailureCommand(opts),
	)

	return root
}

func (o *options) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if o.logLevel != "" {
		cfg.Observability.LogLevel = observability.ParseLogLevel(o.logLevel)
	}
	if o.logFormat != "" {
		cfg.Observability.LogFormat = observability.LogFormat(strings.ToLower(o.logFormat))
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	o.cfg = cfg
	o.log = observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, cmd.ErrOrStderr())

	if cfg.Observability.MetricsEnabled {
		o.promReg = prometheus.NewRegistry()
		o.promMetric = observability.NewMetrics(o.promReg)
	}

	return nil
}

// printMetrics writes every collected sample as "name{labels} value"
func (o *options) printMetrics(w io.Writer) error {
	if !o.metrics || o.promReg == nil {
		return nil
	}

	families, err := o.promReg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			}
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
