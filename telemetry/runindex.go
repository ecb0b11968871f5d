package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// HomeTotal is a home's stockpile at the end of a window.
type HomeTotal struct {
	WindowEnd int32  `csv:"window_end"`
	Home      string `csv:"home"`
	Food      int    `csv:"food"`
	Agents    int    `csv:"agents"`
}

// RunIndex is a queryable SQLite index of a run: metadata, window stats,
// home totals and bookmarks. Writes are queued to a single writer goroutine
// and dropped if it falls behind; the CSV and event log remain authoritative.
// A nil *RunIndex accepts and discards writes.
type RunIndex struct {
	db *sql.DB

	ch   chan indexReq
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends against closing ch.
	mu     sync.RWMutex
	closed bool
}

type indexReqKind int

const (
	reqMeta indexReqKind = iota + 1
	reqWindow
	reqHome
	reqBookmark
)

type indexReq struct {
	kind indexReqKind

	key, value string
	window     WindowStats
	home       HomeTotal
	bookmark   Bookmark
}

// OpenRunIndex opens or creates the index database at path.
// Returns nil if path is empty (indexing disabled).
func OpenRunIndex(path string) (*RunIndex, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initIndexPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index pragmas: %w", err)
	}
	if err := initIndexSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index schema: %w", err)
	}

	ri := &RunIndex{
		db: db,
		ch: make(chan indexReq, 16384),
	}
	ri.wg.Add(1)
	go func() {
		defer ri.wg.Done()
		ri.loop()
	}()
	return ri, nil
}

func initIndexPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initIndexSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS windows (
			window_end INTEGER PRIMARY KEY,
			sim_time REAL NOT NULL,
			agents INTEGER NOT NULL,
			pursuing INTEGER NOT NULL,
			carrying INTEGER NOT NULL,
			pickups INTEGER NOT NULL,
			deliveries INTEGER NOT NULL,
			delivered INTEGER NOT NULL,
			ring_err_mean REAL NOT NULL,
			ring_err_p90 REAL NOT NULL,
			items_remaining INTEGER NOT NULL,
			home_food INTEGER NOT NULL,
			digest TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS homes (
			window_end INTEGER NOT NULL,
			home TEXT NOT NULL,
			food INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			PRIMARY KEY (window_end, home)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_homes_home ON homes(home, window_end);`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			tick INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (tick, type)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (ri *RunIndex) send(r indexReq) {
	if ri == nil {
		return
	}
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	if ri.closed {
		return
	}
	select {
	case ri.ch <- r:
	default:
	}
}

// RecordMeta stores a run-level key/value pair such as the seed.
func (ri *RunIndex) RecordMeta(key, value string) {
	ri.send(indexReq{kind: reqMeta, key: key, value: value})
}

// RecordWindow stores one window of stats.
func (ri *RunIndex) RecordWindow(stats WindowStats) {
	ri.send(indexReq{kind: reqWindow, window: stats})
}

// RecordHome stores a home's totals at the end of a window.
func (ri *RunIndex) RecordHome(h HomeTotal) {
	ri.send(indexReq{kind: reqHome, home: h})
}

// RecordBookmark stores a triggered bookmark.
func (ri *RunIndex) RecordBookmark(b Bookmark) {
	ri.send(indexReq{kind: reqBookmark, bookmark: b})
}

// Close drains queued writes and closes the database.
func (ri *RunIndex) Close() error {
	if ri == nil {
		return nil
	}
	var err error
	ri.once.Do(func() {
		ri.mu.Lock()
		ri.closed = true
		close(ri.ch)
		ri.mu.Unlock()
		ri.wg.Wait()
		err = ri.db.Close()
	})
	return err
}

func (ri *RunIndex) loop() {
	ctx := context.Background()

	insertMeta, _ := ri.db.Prepare(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`)
	insertWindow, _ := ri.db.Prepare(`INSERT OR REPLACE INTO windows(window_end,sim_time,agents,pursuing,carrying,pickups,deliveries,delivered,ring_err_mean,ring_err_p90,items_remaining,home_food,digest,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertHome, _ := ri.db.Prepare(`INSERT OR REPLACE INTO homes(window_end,home,food,agents) VALUES(?,?,?,?)`)
	insertBookmark, _ := ri.db.Prepare(`INSERT OR REPLACE INTO bookmarks(tick,type,description) VALUES(?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertMeta, insertWindow, insertHome, insertBookmark} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := ri.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range ri.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqMeta:
			exec(insertMeta, r.key, r.value)
		case reqWindow:
			w := r.window
			raw, _ := json.Marshal(w)
			exec(insertWindow,
				int64(w.WindowEndTick), w.SimTimeSec, w.Agents, w.Pursuing, w.Carrying,
				w.Pickups, w.Deliveries, w.Delivered, w.RingErrMean, w.RingErrP90,
				w.ItemsRemaining, w.HomeFood, w.Digest, string(raw),
			)
		case reqHome:
			exec(insertHome, int64(r.home.WindowEnd), r.home.Home, r.home.Food, r.home.Agents)
		case reqBookmark:
			exec(insertBookmark, int64(r.bookmark.Tick), string(r.bookmark.Type), r.bookmark.Description)
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}
