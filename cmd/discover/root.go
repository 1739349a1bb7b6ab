package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alexivanou/foodmap-api/internal/client"
	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/discovery"
	"github.com/alexivanou/foodmap-api/internal/geo"
	"github.com/alexivanou/foodmap-api/internal/mapview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type dependencies struct {
	config    config.DiscoveryConfig
	newFinder func(baseURL string, opts ...client.Option) discovery.Finder
	geocoder  discovery.Geocoder
}

type discoverFlags struct {
	apiURL     string
	lat        float64
	lng        float64
	address    string
	radius     float64
	search     string
	format     string
	noFallback bool
	timeout    time.Duration
	verbose    bool
}

func newRootCommand(deps dependencies) *cobra.Command {
	var flags discoverFlags

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Show restaurants around a point, the way the map view does.",
		Long: "Resolves a reference point (--lat/--lng, --address, or the configured default),\n" +
			"queries the restaurant API for everything within --radius meters and prints\n" +
			"the resulting map markers, nearest first.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := mapview.ParseFormat(flags.format)
			if err != nil {
				return err
			}

			latSet := cmd.Flags().Changed("lat")
			lngSet := cmd.Flags().Changed("lng")
			if latSet != lngSet {
				return fmt.Errorf("--lat and --lng must be given together")
			}
			if latSet && flags.address != "" {
				return fmt.Errorf("--address cannot be combined with --lat/--lng")
			}

			logger := zap.NewNop()
			if flags.verbose {
				if logger, err = zap.NewDevelopment(); err != nil {
					return fmt.Errorf("initialize logger: %w", err)
				}
				defer logger.Sync()
			}

			opts := discovery.OptionsFromConfig(deps.config)
			if cmd.Flags().Changed("radius") {
				opts.RadiusMeters = flags.radius
			}
			if flags.noFallback {
				opts.ShowAllWhenEmpty = false
			}

			var locator discovery.Locator
			switch {
			case latSet:
				point := geo.Location{Lat: flags.lat, Lng: flags.lng}
				if err := point.Validate(); err != nil {
					return err
				}
				locator = discovery.FixedLocator{Location: point}
			case flags.address != "":
				locator = discovery.AddressLocator{Geocoder: deps.geocoder, Address: flags.address}
			}

			ctx := cmd.Context()
			if flags.timeout > 0 {
				var cancel func()
				ctx, cancel = context.WithTimeout(ctx, flags.timeout)
				defer cancel()
			}

			finder := deps.newFinder(flags.apiURL, client.WithLogger(logger))
			view := mapview.New()
			initErr := view.Init(ctx, nil)

			controller := discovery.New(finder, locator, view, opts, logger)
			defer controller.Close()

			if flags.search != "" {
				err = controller.Search(ctx, flags.search)
			} else {
				err = controller.Activate(ctx)
			}
			if ierr := <-initErr; ierr != nil {
				return ierr
			}
			if err != nil {
				return err
			}

			snap := controller.Snapshot()
			if !snap.Located && flags.search == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Location unavailable, using default point %s\n", snap.Reference)
			}
			if snap.Message != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), snap.Message)
			}
			if snap.FellBack {
				fmt.Fprintf(cmd.ErrOrStderr(), "Nothing within %s, showing all %d results\n",
					mapview.FormatDistance(snap.RadiusMeters), snap.Candidates)
			}
			return view.Render(cmd.OutOrStdout(), format)
		},
	}

	cmd.Flags().StringVar(&flags.apiURL, "api", deps.config.APIBaseURL, "Restaurant API base URL")
	cmd.Flags().Float64Var(&flags.lat, "lat", 0, "Reference latitude")
	cmd.Flags().Float64Var(&flags.lng, "lng", 0, "Reference longitude")
	cmd.Flags().StringVar(&flags.address, "address", "", "Geocode this address as the reference point")
	cmd.Flags().Float64VarP(&flags.radius, "radius", "r", deps.config.RadiusMeters, "Search radius in meters")
	cmd.Flags().StringVarP(&flags.search, "search", "q", "", "Search restaurants by name instead of distance")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&flags.noFallback, "no-fallback", false, "Show nothing instead of all results when none is within the radius")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "Overall deadline")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	return cmd
}
