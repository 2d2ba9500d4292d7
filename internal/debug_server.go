package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Type      string
	EntityID  string
	ExpiresAt string
	Detail    string
}

type StatsProvider func() any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]int
}

// NewDebugHandler serves /debug/stats as JSON and /debug/inspect?prefix= as an HTML key listing.
// Values are never rendered, only their size.
func NewDebugHandler(log *slog.Logger, db *badger.DB, statsProvider StatsProvider) http.Handler {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("GET /debug/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(statsProvider()); err != nil {
			log.Debug("Stats encoding failed", "error", err)
		}
	})

	mux.HandleFunc("GET /debug/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		data := PageData{Prefix: prefix, Stats: make(map[string]int)}

		err := db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				row := KeyMapper(string(item.KeyCopy(nil)), item.ValueSize(), item.ExpiresAt())
				data.Items = append(data.Items, row)
				data.Stats[row.Type]++
			}
			return nil
		})
		if err != nil {
			log.Error("Inspect failed", "prefix", prefix, "error", err)
			http.Error(w, "inspect failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})
	return mux
}

// StartDebugServer listens on every interface, the returned server is shut down by the caller.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, statsProvider StatsProvider) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           NewDebugHandler(log, db, statsProvider),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Starting debug server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Debug server stopped", "error", err)
		}
	}()
	return srv
}

// KeyMapper splits "type:entity" keys of the repositories.
func KeyMapper(key string, size int64, expiresAt uint64) InspectRow {
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		EntityID:  "--------",
		ExpiresAt: "-",
		Detail:    "Size: " + strconv.FormatInt(size, 10) + " bytes",
	}
	if kind, entity, ok := strings.Cut(key, ":"); ok {
		row.Type = kind
		row.EntityID = entity
	}
	if expiresAt > 0 {
		row.ExpiresAt = time.Unix(int64(expiresAt), 0).UTC().Format(time.RFC3339)
	}
	return row
}
