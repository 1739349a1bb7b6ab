package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/alexivanou/foodmap-api/internal/config"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
)

type Stats struct {
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Memory    MemoryStats   `json:"memory" yaml:"memory"`
	Database  DatabaseStats `json:"database" yaml:"database"`
	Catalog   CatalogStats  `json:"catalog" yaml:"catalog"`
	Runtime   RuntimeStats  `json:"runtime" yaml:"runtime"`
}

// CatalogStats summarizes the directory contents
type CatalogStats struct {
	Restaurants          int64            `json:"restaurants" yaml:"restaurants"`
	LocatedRestaurants   int64            `json:"located_restaurants" yaml:"located_restaurants"`
	UnlocatedRestaurants int64            `json:"unlocated_restaurants" yaml:"unlocated_restaurants"`
	AverageRating        float64          `json:"average_rating" yaml:"average_rating"`
	OrdersByStatus       map[string]int64 `json:"orders_by_status" yaml:"orders_by_status"`
}

type MemoryStats struct {
	Alloc        uint64 `json:"alloc" yaml:"alloc"`
	TotalAlloc   uint64 `json:"total_alloc" yaml:"total_alloc"`
	Sys          uint64 `json:"sys" yaml:"sys"`
	NumGC        uint32 `json:"num_gc" yaml:"num_gc"`
	HeapAlloc    uint64 `json:"heap_alloc" yaml:"heap_alloc"`
	HeapSys      uint64 `json:"heap_sys" yaml:"heap_sys"`
	HeapInuse    uint64 `json:"heap_inuse" yaml:"heap_inuse"`
	HeapReleased uint64 `json:"heap_released" yaml:"heap_released"`
}

type DatabaseStats struct {
	Type         string      `json:"type" yaml:"type"`
	TotalRecords int64       `json:"total_records" yaml:"total_records"`
	SizeBytes    int64       `json:"size_bytes" yaml:"size_bytes"`
	TableStats   []TableStat `json:"table_stats" yaml:"table_stats"`
}

type TableStat struct {
	Name      string `json:"name" yaml:"name"`
	RowCount  int64  `json:"row_count" yaml:"row_count"`
	SizeBytes int64  `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
}

type RuntimeStats struct {
	NumGoroutines int   `json:"num_goroutines" yaml:"num_goroutines"`
	NumCPU        int   `json:"num_cpu" yaml:"num_cpu"`
	UptimeSeconds int64 `json:"uptime_seconds" yaml:"uptime_seconds"`
}

type Collector struct {
	db         *sqlx.DB
	config     config.DBConfig
	startTime  time.Time
	cachedMem  *MemoryStats
	cacheTime  time.Time
	cacheMutex sync.RWMutex
}

var (
	memStatsCacheDuration = 5 * time.Second
)

func NewCollector(db *sqlx.DB, cfg config.DBConfig) *Collector {
	return &Collector{
		db:        db,
		config:    cfg,
		startTime: time.Now(),
	}
}

func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Timestamp: time.Now(),
	}

	stats.Memory = c.collectMemoryStats()

	dbStats, err := c.collectDatabaseStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Database = *dbStats

	catalog, err := c.collectCatalogStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Catalog = *catalog
	stats.Runtime = c.collectRuntimeStats()

	return stats, nil
}

func (c *Collector) collectMemoryStats() MemoryStats {
	c.cacheMutex.RLock()
	if c.cachedMem != nil && time.Since(c.cacheTime) < memStatsCacheDuration {
		mem := *c.cachedMem
		c.cacheMutex.RUnlock()
		return mem
	}
	c.cacheMutex.RUnlock()

	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mem := MemoryStats{
		Alloc:        m.Alloc,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		HeapInuse:    m.HeapInuse,
		HeapReleased: m.HeapReleased,
	}

	c.cachedMem = &mem
	c.cacheTime = time.Now()

	return mem
}

func (c *Collector) collectDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{
		Type: string(c.config.Type),
	}

	if totalSize, err := c.getDatabaseSize(ctx); err == nil {
		stats.SizeBytes = totalSize
	}

	tableStats, err := c.getTableStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.TableStats = tableStats

	var totalRecords int64
	for _, ts := range tableStats {
		totalRecords += ts.RowCount
	}
	stats.TotalRecords = totalRecords

	return stats, nil
}

func (c *Collector) getDatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	var err error

	if c.config.Type == config.DBTypePostgreSQL {
		err = c.db.GetContext(ctx, &size, "SELECT pg_database_size(current_database())")
	} else {
		err = c.db.GetContext(ctx, &size, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	}

	if err != nil {
		return 0, err
	}
	return size, nil
}

func (c *Collector) collectCatalogStats(ctx context.Context) (*CatalogStats, error) {
	stats := &CatalogStats{OrdersByStatus: make(map[string]int64)}

	var counts struct {
		Total   int64 `db:"total"`
		Located int64 `db:"located"`
	}
	q := `SELECT COUNT(*) AS total,
			COUNT(CASE WHEN lat IS NOT NULL AND lng IS NOT NULL THEN 1 END) AS located
		FROM restaurants`
	if err := c.db.GetContext(ctx, &counts, q); err != nil {
		return nil, fmt.Errorf("failed to count restaurants: %w", err)
	}
	stats.Restaurants = counts.Total
	stats.LocatedRestaurants = counts.Located
	stats.UnlocatedRestaurants = counts.Total - counts.Located

	var avg sql.NullFloat64
	if err := c.db.GetContext(ctx, &avg, "SELECT AVG(rating) FROM reviews"); err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	if avg.Valid {
		stats.AverageRating = math.Round(avg.Float64*10) / 10
	}

	var rows []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}
	if err := c.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM orders GROUP BY status"); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	for _, r := range rows {
		stats.OrdersByStatus[r.Status] = r.Count
	}

	return stats, nil
}

func (c *Collector) getTableStats(ctx context.Context) ([]TableStat, error) {
	var stats []TableStat

	tables := []string{"restaurants", "menu_items", "reviews", "users", "addresses", "orders"}

	for _, table := range tables {
		stat, err := c.getTableStat(ctx, table)
		if err != nil {
			continue
		}
		stats = append(stats, *stat)
	}

	return stats, nil
}

func (c *Collector) getTableStat(ctx context.Context, tableName string) (*TableStat, error) {
	stat := &TableStat{Name: tableName}

	countQuery := "SELECT COUNT(*) FROM " + tableName
	var count int64
	err := c.db.GetContext(ctx, &count, countQuery)
	if err != nil {
		return nil, err
	}
	stat.RowCount = count

	if c.config.Type == config.DBTypePostgreSQL {
		sizeQuery := `SELECT COALESCE(pg_total_relation_size($1::regclass), 0)`
		var size int64
		err = c.db.GetContext(ctx, &size, sizeQuery, tableName)
		if err == nil {
			stat.SizeBytes = size
		}
	} else {
		// Try to use dbstat if available
		sizeQuery := `SELECT SUM(pgsize) FROM dbstat WHERE name = ?`
		var size int64
		_ = c.db.GetContext(ctx, &size, sizeQuery, tableName)
		stat.SizeBytes = size
	}

	return stat, nil
}

func (c *Collector) collectRuntimeStats() RuntimeStats {
	uptime := time.Since(c.startTime).Seconds()
	return RuntimeStats{
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		UptimeSeconds: int64(uptime),
	}
}

// Encode writes s as "json" (indented) or "yaml"
func Encode(w io.Writer, s *Stats, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
