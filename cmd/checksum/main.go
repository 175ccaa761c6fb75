package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/myuser/shardsum/internal/checksum"
	"github.com/myuser/shardsum/internal/config"
	"github.com/myuser/shardsum/internal/metrics"
	"github.com/myuser/shardsum/internal/sql"
	"github.com/myuser/shardsum/internal/storage"
	"github.com/myuser/shardsum/internal/tables"
)

// optionalString is a string flag that remembers whether it was set.
type optionalString struct {
	value *string
}

func (o *optionalString) String() string {
	if o.value == nil {
		return ""
	}
	return *o.value
}

func (o *optionalString) Set(s string) error {
	o.value = &s
	return nil
}

type options struct {
	table         string
	startKey      optionalString
	endKey        optionalString
	limit         int
	query         string
	engine        string
	path          string
	hash          string
	progressEvery int
	verify        bool
	stats         bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var opts options
	flag.StringVar(&opts.table, "table", "", "Table to checksum (data, raft_log, txns, ranges)")
	flag.Var(&opts.startKey, "start-key", "Inclusive start of the range, in the table's key form")
	flag.Var(&opts.endKey, "end-key", "Inclusive end of the range, in the table's key form")
	flag.IntVar(&opts.limit, "limit", 0, "Maximum number of records to hash (0 = all)")
	flag.StringVar(&opts.query, "query", "", "Request as SQL, e.g. \"SELECT * FROM raft_log WHERE k BETWEEN 1 AND 9 LIMIT 5\"")
	flag.StringVar(&opts.engine, "engine", cfg.Engine, "Storage engine (pebble, log)")
	flag.StringVar(&opts.path, "path", "", "Store location (default derived from SHARDSUM_DATA_DIR)")
	flag.StringVar(&opts.hash, "hash", cfg.Hash, "Hash algorithm (siphash, xxhash, murmur3)")
	flag.IntVar(&opts.progressEvery, "progress-every", cfg.ProgressEvery, "Log progress every N records")
	flag.BoolVar(&opts.verify, "verify-records", false, "Validate every record against its table schema")
	flag.BoolVar(&opts.stats, "stats", false, "Print walk counters as JSON when done")
	flag.Parse()

	if opts.path == "" {
		opts.path = cfg.StorePath(opts.engine)
	}

	if err := run(opts); err != nil {
		log.Fatalf("checksum: %v", err)
	}
}

func run(opts options) error {
	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	kind := storage.Kind(opts.engine)
	if kind == storage.KindMemory {
		return fmt.Errorf("engine %q holds no data on disk; use pebble or log", opts.engine)
	}

	log.Printf("WARNING: run this against a stopped shard node. Concurrent writers do not corrupt data but may change the checksum.")

	engine, err := storage.Open(kind, opts.path, true)
	if err != nil {
		return err
	}
	defer engine.Close()

	log.Printf("table=%s start=%s end=%s limit=%d", req.Table, describeBound(req.StartKey), describeBound(req.EndKey), req.Limit)

	res, err := checksum.Compute(engine, req)
	if err != nil {
		return err
	}
	res.Log(nil)

	if opts.stats {
		return metrics.WriteJSON(os.Stdout)
	}
	return nil
}

// buildRequest merges flags and the optional SQL query into a request.
func buildRequest(opts options) (checksum.Request, error) {
	tableName := opts.table
	start, end, limit := opts.startKey.value, opts.endKey.value, opts.limit

	if opts.query != "" {
		if opts.table != "" || start != nil || end != nil || limit != 0 {
			return checksum.Request{}, fmt.Errorf("-query cannot be combined with -table, -start-key, -end-key or -limit")
		}
		q, err := sql.ParseQuery(opts.query)
		if err != nil {
			return checksum.Request{}, fmt.Errorf("parse query: %w", err)
		}
		tableName, start, end, limit = q.Table, q.StartKey, q.EndKey, q.Limit
	}

	if tableName == "" {
		return checksum.Request{}, fmt.Errorf("a table is required (-table or -query)")
	}
	table, err := tables.Parse(tableName)
	if err != nil {
		return checksum.Request{}, err
	}
	if limit < 0 {
		return checksum.Request{}, fmt.Errorf("-limit must not be negative, got %d", limit)
	}
	alg, err := checksum.ParseAlgorithm(opts.hash)
	if err != nil {
		return checksum.Request{}, err
	}

	return checksum.Request{
		Table:         table,
		StartKey:      start,
		EndKey:        end,
		Limit:         limit,
		Algorithm:     alg,
		Progress:      checksum.LogProgress(nil),
		ProgressEvery: opts.progressEvery,
		VerifyRecords: opts.verify,
	}, nil
}

func describeBound(b *string) string {
	if b == nil {
		return ".."
	}
	return *b
}
