package cli

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/platinummonkey/casserver/pkg/validation"
	"github.com/spf13/cobra"
)

func newRenderCommand(opts *options) *cobra.Command {
	var modelFile, at string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a CAS authentication success response",
		Long: `Reads a validation model from YAML and prints the cas:serviceResponse
success document.

Example:
  cas-payload render --model model.yaml --at 2024-05-01T10:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, modelFile, at)
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "Path to validation model YAML (required)")
	cmd.Flags().StringVar(&at, "at", "", "Authentication date as RFC 3339; defaults to now")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func runRender(cmd *cobra.Command, opts *options, modelFile, at string) error {
	model, releasers, err := LoadModel(modelFile)
	if err != nil {
		return err
	}

	if len(releasers) == 0 && len(opts.cfg.Response.ReleasedAttributes) > 0 {
		releasers = append(releasers, validation.PrincipalAttributeReleaser{Allowed: opts.cfg.Response.ReleasedAttributes})
	}

	clock := clockwork.NewRealClock()
	if at != "" {
		ts, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("invalid --at value: %w", err)
		}
		clock = clockwork.NewFakeClockAt(ts)
	}

	builder := validation.NewResponseBuilder(validation.BuilderConfig{
		Clock:     clock,
		Releasers: releasers,
		Indent:    opts.cfg.Response.Indent,
		Metrics:   opts.promMetric,
	})

	body, err := builder.Build(model)
	if err != nil {
		opts.log.WithError(err).WithField("model", modelFile).Error("failed to render response")
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, string(body))
	return opts.printMetrics(out)
}
