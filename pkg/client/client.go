package client

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/eapache/go-resiliency/retrier"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ClickHouse answers catalog queries from tables named after the catalogs
type ClickHouse struct {
	config  config.Backend
	mu      sync.Mutex
	db      *sql.DB
	version string
	retrier *retrier.Retrier
}

func NewClickHouse(cfg config.Backend, version string) (*ClickHouse, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.Errorf("backend %s has no addresses", cfg.Name)
	}
	return &ClickHouse{
		config:  cfg,
		version: version,
		retrier: newRetrier(cfg.Retries),
	}, nil
}

// conn connects on first use, a failed attempt is retried by the next call
func (c *ClickHouse) conn() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		db, err := c.connect()
		if err != nil {
			return nil, err
		}
		c.db = db
	}
	return c.db, nil
}

func (c *ClickHouse) connect() (*sql.DB, error) {
	tlsCfg, err := tlsConfig(c.config)
	if err != nil {
		return nil, err
	}
	options := &clickhouse.Options{
		Addr: c.config.Addresses,
		Auth: clickhouse.Auth{
			Database: c.config.Database,
			Username: c.config.Username,
			Password: c.config.Password,
		},
		TLS: tlsCfg,
	}
	options.ClientInfo.Products = append(options.ClientInfo.Products, struct{ Name, Version string }{
		"catalog-browser",
		c.version,
	})
	options.Protocol = clickhouse.Native
	if c.config.Protocol == "http" {
		options.Protocol = clickhouse.HTTP
	}

	db := clickhouse.OpenDB(options)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "can't connect to %s", c.config.Name)
	}
	return db, nil
}

func (c *ClickHouse) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *ClickHouse) table(cat *catalog.Catalog) string {
	name := quoteIdent(indexName(c.config, cat))
	if c.config.Database != "" {
		return quoteIdent(c.config.Database) + "." + name
	}
	return name
}

func (c *ClickHouse) Search(ctx context.Context, q Query) (*aggr.Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	db, err := c.conn()
	if err != nil {
		return nil, err
	}
	table := c.table(q.Catalog)
	resp := &aggr.Response{Aggregations: make(map[string]aggr.Aggr)}

	total, err := c.count(ctx, db, table, q)
	if err != nil {
		return nil, err
	}
	resp.Hits.Total = aggr.Total(total)

	for _, name := range q.Terms {
		f, _ := q.Catalog.Field(name)
		terms, err := c.terms(ctx, db, table, q, f)
		if err != nil {
			return nil, err
		}
		resp.Aggregations[name] = aggr.Aggr{Terms: terms}
	}
	if q.Histogram != nil && len(q.Terms) == 0 {
		sqlText, args := histogramSQL(table, q)
		hist := &aggr.Terms{}
		err := c.query(ctx, db, sqlText, args, func() {
			hist.Buckets = nil
		}, func(rows *sql.Rows) error {
			var key float64
			var count uint64
			if err := rows.Scan(&key, &count); err != nil {
				return err
			}
			hist.Buckets = append(hist.Buckets, aggr.Bucket{Key: aggr.NumberKey(key), DocCount: int64(count)})
			return nil
		})
		if err != nil {
			return nil, err
		}
		resp.Aggregations[HistName] = aggr.Aggr{Terms: hist}
	}
	for _, name := range q.Stats {
		stats := &aggr.Stats{}
		sqlText, args := statsSQL(table, q, name)
		err := c.query(ctx, db, sqlText, args, nil, func(rows *sql.Rows) error {
			return rows.Scan(&stats.Min, &stats.Max, &stats.Avg)
		})
		if err != nil {
			return nil, err
		}
		resp.Aggregations[name] = aggr.Aggr{Stats: stats}
	}
	if q.HitsSize > 0 && len(q.Catalog.Bulk) > 0 {
		if resp.Hits.Hits, err = c.hits(ctx, db, table, q); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *ClickHouse) count(ctx context.Context, db *sql.DB, table string, q Query) (int64, error) {
	where, args := whereClause(q)
	var total uint64
	err := c.query(ctx, db, "SELECT count() FROM "+table+where, args, nil, func(rows *sql.Rows) error {
		return rows.Scan(&total)
	})
	return int64(total), err
}

func (c *ClickHouse) terms(ctx context.Context, db *sql.DB, table string, q Query, f catalog.Field) (*aggr.Terms, error) {
	terms := &aggr.Terms{}
	var index map[string]int
	sqlText, args := termsSQL(table, q, f.Name)
	err := c.query(ctx, db, sqlText, args, func() {
		terms.Buckets = nil
		index = make(map[string]int)
	}, func(rows *sql.Rows) error {
		var key string
		var count uint64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		index[key] = len(terms.Buckets)
		terms.Buckets = append(terms.Buckets, aggr.Bucket{Key: bucketKey(f, key), DocCount: int64(count)})
		return nil
	})
	if err != nil || q.Histogram == nil {
		return terms, err
	}

	sqlText, args = nestedHistogramSQL(table, q, f.Name)
	err = c.query(ctx, db, sqlText, args, func() {
		for i := range terms.Buckets {
			terms.Buckets[i].Hist = nil
		}
	}, func(rows *sql.Rows) error {
		var key string
		var histKey float64
		var count uint64
		if err := rows.Scan(&key, &histKey, &count); err != nil {
			return err
		}
		i, ok := index[key]
		if !ok {
			return nil
		}
		b := &terms.Buckets[i]
		if b.Hist == nil {
			b.Hist = &aggr.Terms{}
		}
		b.Hist.Buckets = append(b.Hist.Buckets, aggr.Bucket{Key: aggr.NumberKey(histKey), DocCount: int64(count)})
		return nil
	})
	return terms, err
}

func (c *ClickHouse) hits(ctx context.Context, db *sql.DB, table string, q Query) ([]map[string]any, error) {
	fields := q.Catalog.BulkFields()
	var hits []map[string]any
	sqlText, args := hitsSQL(table, q, fields)
	err := c.query(ctx, db, sqlText, args, func() {
		hits = make([]map[string]any, 0, q.HitsSize)
	}, func(rows *sql.Rows) error {
		values := make([]sql.NullString, len(fields))
		dest := make([]interface{}, len(fields))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		hit := make(map[string]any, len(fields))
		for i, f := range fields {
			if values[i].Valid {
				hit[f.Name] = typedValue(f, values[i].String)
			}
		}
		hits = append(hits, hit)
		return nil
	})
	return hits, err
}

// query runs sqlText with retries and calls scan for every row. reset runs
// before every attempt, it must drop what scan collected from a failed one.
func (c *ClickHouse) query(ctx context.Context, db *sql.DB, sqlText string, args []interface{}, reset func(), scan func(*sql.Rows) error) error {
	log.Debug().Str("sql", sqlText).Interface("args", args).Msg("clickhouse query")
	err := c.retrier.RunCtx(ctx, func(ctx context.Context) error {
		if reset != nil {
			reset()
		}
		rows, err := db.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			if err := scan(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})
	if err != nil {
		log.Error().Err(err).Str("sql", sqlText).Msg("clickhouse query failed")
		return errors.Wrap(err, "clickhouse query failed")
	}
	return nil
}

func bucketKey(f catalog.Field, key string) aggr.Key {
	if f.Base.Numeric() {
		if k, ok := aggr.ParseNumberKey(key); ok {
			return k
		}
	}
	return aggr.StringKey(key)
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

func whereClause(q Query) (string, []interface{}) {
	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var conds []string
	var args []interface{}
	for _, name := range names {
		f, _ := q.Catalog.Field(name)
		conds = append(conds, quoteIdent(name)+" = ?")
		args = append(args, typedValue(f, q.Filters[name]))
	}
	if r := q.Range; r != nil {
		if !r.From.IsZero() {
			conds = append(conds, quoteIdent(r.Field)+" >= ?")
			args = append(args, r.From)
		}
		if !r.To.IsZero() {
			conds = append(conds, quoteIdent(r.Field)+" <= ?")
			args = append(args, r.To)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func histogramBucket(h *Histogram) string {
	interval := strconv.FormatFloat(h.Interval, 'f', -1, 64)
	return "floor(" + quoteIdent(h.Field) + " / " + interval + ") * " + interval
}

func termsSQL(table string, q Query, field string) (string, []interface{}) {
	where, args := whereClause(q)
	return "SELECT toString(" + quoteIdent(field) + ") AS key, count() AS doc_count FROM " + table + where +
		" GROUP BY key ORDER BY doc_count DESC, key LIMIT " + strconv.Itoa(q.termsSize()), args
}

func nestedHistogramSQL(table string, q Query, field string) (string, []interface{}) {
	where, args := whereClause(q)
	return "SELECT toString(" + quoteIdent(field) + ") AS key, " + histogramBucket(q.Histogram) + " AS hist_key, count() AS doc_count FROM " + table + where +
		" GROUP BY key, hist_key ORDER BY key, hist_key", args
}

func histogramSQL(table string, q Query) (string, []interface{}) {
	where, args := whereClause(q)
	return "SELECT " + histogramBucket(q.Histogram) + " AS key, count() AS doc_count FROM " + table + where +
		" GROUP BY key ORDER BY key", args
}

func statsSQL(table string, q Query, field string) (string, []interface{}) {
	where, args := whereClause(q)
	f := quoteIdent(field)
	return "SELECT toFloat64(min(" + f + ")), toFloat64(max(" + f + ")), avg(" + f + ") FROM " + table + where, args
}

func hitsSQL(table string, q Query, fields []catalog.Field) (string, []interface{}) {
	where, args := whereClause(q)
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = "toString(" + quoteIdent(f.Name) + ") AS " + quoteIdent(f.Name)
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + table + where + " LIMIT " + strconv.Itoa(q.HitsSize), args
}
