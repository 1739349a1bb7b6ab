package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/alexivanou/foodmap-api/internal/database"
	"github.com/alexivanou/foodmap-api/internal/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Print catalog, database and runtime statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	format := cmd.Flags().StringP("format", "f", envOr("OUTPUT_FORMAT", "text"), "Output format: text, json or yaml")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), cmd.OutOrStdout(), *format)
	}

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, format string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	// a fresh in-memory database has no tables until migrated
	if cfg.DB.Type == config.DBTypeMemory {
		if err := database.Migrate(db, cfg.DB, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	logger.Debug("Collecting statistics", zap.String("db_type", string(cfg.DB.Type)))
	s, err := stats.NewCollector(db, cfg.DB).Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect statistics: %w", err)
	}

	switch strings.ToLower(format) {
	case "json", "yaml":
		return stats.Encode(out, s, strings.ToLower(format))
	case "text", "human":
		printHumanReadable(out, s)
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func printHumanReadable(w io.Writer, s *stats.Stats) {
	fmt.Fprintf(w, "Statistics at %s\n\n", s.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(w, "Catalog")
	fmt.Fprintf(w, "  restaurants      %d (%d on the map, %d without location)\n",
		s.Catalog.Restaurants, s.Catalog.LocatedRestaurants, s.Catalog.UnlocatedRestaurants)
	fmt.Fprintf(w, "  average rating   %.1f\n", s.Catalog.AverageRating)
	statuses := make([]string, 0, len(s.Catalog.OrdersByStatus))
	for status := range s.Catalog.OrdersByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(w, "  orders %-9s %d\n", strings.ToLower(status), s.Catalog.OrdersByStatus[status])
	}

	fmt.Fprintf(w, "\nDatabase (%s, %d rows)\n", s.Database.Type, s.Database.TotalRecords)
	for _, ts := range s.Database.TableStats {
		fmt.Fprintf(w, "  %-16s %d", ts.Name, ts.RowCount)
		if ts.SizeBytes > 0 {
			fmt.Fprintf(w, " (%s)", formatBytes(uint64(ts.SizeBytes)))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\nProcess")
	fmt.Fprintf(w, "  heap             %s\n", formatBytes(s.Memory.HeapAlloc))
	fmt.Fprintf(w, "  goroutines       %d\n", s.Runtime.NumGoroutines)
	fmt.Fprintf(w, "  uptime           %ds\n", s.Runtime.UptimeSeconds)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
