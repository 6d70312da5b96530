package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jonboulle/clockwork"
	"github.com/platinummonkey/casserver/pkg/authz"
	"github.com/platinummonkey/casserver/pkg/services"
	"github.com/spf13/cobra"
)

func newAuthorizeCommand(opts *options) *cobra.Command {
	var servicesFile, serviceID string

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Decide whether a service may request authentication",
		Long: `Loads registered services from a YAML file and runs the admission check
for one service id. Exits non-zero when access is denied.

Example:
  cas-payload authorize --services services.yaml --service https://app.example.com/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthorize(cmd, opts, servicesFile, serviceID)
		},
	}

	cmd.Flags().StringVar(&servicesFile, "services", "", "Path to registered services YAML (required)")
	cmd.Flags().StringVar(&serviceID, "service", "", "Service id to authorize; empty means no service")
	_ = cmd.MarkFlagRequired("services")

	return cmd
}

func runAuthorize(cmd *cobra.Command, opts *options, servicesFile, serviceID string) error {
	defs, err := LoadServices(servicesFile, clockwork.NewRealClock())
	if err != nil {
		return err
	}

	var registry services.Registry = services.NewInMemoryRegistry(defs...)
	if opts.cfg.Registry.CacheEnabled() {
		registry = services.NewCachingRegistry(registry, opts.cfg.Registry.CacheSize, opts.cfg.Registry.CacheTTL, opts.promMetric)
	}

	var service *services.Service
	if serviceID != "" {
		service = services.NewService(serviceID)
	}

	check := authz.NewCheck(registry, services.DefaultSelectionStrategy{}, opts.log, opts.promMetric)

	var redirect string
	sink := authz.RedirectSinkFunc(func(u *url.URL) {
		if u != nil {
			redirect = u.String()
		}
	})

	out := cmd.OutOrStdout()
	execErr := check.Execute(cmd.Context(), service, sink)

	var denial *authz.UnauthorizedServiceError
	switch {
	case execErr == nil:
		fmt.Fprintf(out, "ALLOWED service=%q\n", serviceID)
	case errors.As(execErr, &denial):
		fmt.Fprintf(out, "DENIED code=%s service=%q message_key=%s", denial.Code, denial.ServiceID, denial.MessageKey())
		if redirect != "" {
			fmt.Fprintf(out, " redirect=%s", redirect)
		}
		fmt.Fprintln(out)
	default:
		return execErr
	}

	if err := opts.printMetrics(out); err != nil {
		return err
	}
	return execErr
}
