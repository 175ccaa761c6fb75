package main

import (
	"flag"
	"fmt"
	"log"

	"go.etcd.io/etcd/raft/v3/raftpb"

	"github.com/myuser/shardsum/internal/config"
	"github.com/myuser/shardsum/internal/storage"
	"github.com/myuser/shardsum/internal/tables"
)

// Seed fills a store with deterministic shard data so checksums can be
// compared across machines and engines.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	engine := flag.String("engine", cfg.Engine, "Storage engine (pebble, log)")
	path := flag.String("path", "", "Store location (default derived from SHARDSUM_DATA_DIR)")
	entries := flag.Int("raft-entries", 1000, "Number of raft log entries")
	keys := flag.Int("keys", 500, "Number of user keys in the data table")
	versions := flag.Int("versions", 3, "MVCC versions per user key")
	txns := flag.Int("txns", 200, "Number of transaction records")
	flag.Parse()

	if *path == "" {
		*path = cfg.StorePath(*engine)
	}
	e, err := storage.Open(storage.Kind(*engine), *path, false)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer e.Close()

	if err := seed(e, *entries, *keys, *versions, *txns); err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("Seeded %s store at %s: %d raft entries, %d keys x %d versions, %d txns\n",
		*engine, *path, *entries, *keys, *versions, *txns)
}

func seed(e storage.Engine, entries, keys, versions, txns int) error {
	for i := 1; i <= entries; i++ {
		ent := raftpb.Entry{
			Term:  uint64(1 + i/100),
			Index: uint64(i),
			Type:  raftpb.EntryNormal,
			Data:  []byte(fmt.Sprintf("PUT user%d val%d", i%max(keys, 1), i)),
		}
		val, err := ent.Marshal()
		if err != nil {
			return err
		}
		if err := e.Put(tables.RaftLog.String(), tables.RaftLogKey(ent.Index), val); err != nil {
			return err
		}
	}

	for k := 0; k < keys; k++ {
		for v := 1; v <= versions; v++ {
			ts := uint64(v * 10)
			raw, err := tables.MVCCCodec{}.Encode(tables.MVCCKey{Key: fmt.Sprintf("user%05d", k), Ts: ts})
			if err != nil {
				return err
			}
			if err := e.Put(tables.Data.String(), raw, []byte(fmt.Sprintf("val%d@%d", k, ts))); err != nil {
				return err
			}
		}
	}

	for i := 0; i < txns; i++ {
		id := fmt.Sprintf("txn-%06d", i)
		if err := e.Put(tables.Txns.String(), []byte(id), []byte("COMMITTED")); err != nil {
			return err
		}
	}

	// Ten ranges splitting the key space evenly by first byte.
	for i := 0; i < 10; i++ {
		start := []byte{byte(i * 25)}
		if i == 0 {
			start = []byte{}
		}
		if err := e.Put(tables.Ranges.String(), start, []byte(fmt.Sprintf("shard-%d", i+1))); err != nil {
			return err
		}
	}
	return nil
}
