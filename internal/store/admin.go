package store

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/reftrack/internal/httputil"
)

// DefaultRunLimit bounds the /debug/runs listing when no limit is given.
const DefaultRunLimit = 20

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := s.db.Query(`SELECT run_id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// The single connection must be released before GetRun.
	rows.Close()

	out := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(id)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

// AttachAdminRoutes mounts the debug pages for the run database on mux:
// a tailsql console, a gzip backup download and a JSON run listing.
func (s *Store) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://reftrack.db", s.db, &tailsql.DBOptions{
		Label: "Reference track runs",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("runs", "Recent runs with their targets (JSON, ?limit=N)", http.HandlerFunc(s.handleRuns))
	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(s.handleBackup))
	return nil
}

type runListing struct {
	*Run
	Targets []*Target `json:"targets"`
}

func (s *Store) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	limit := DefaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.Error(w, http.StatusBadRequest, "invalid limit %q", v)
			return
		}
		limit = n
	}

	runs, err := s.ListRuns(limit)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "%v", err)
		return
	}
	out := make([]runListing, 0, len(runs))
	for _, run := range runs {
		targets, err := s.ListTargets(run.RunID)
		if err != nil {
			httputil.Error(w, http.StatusInternalServerError, "%v", err)
			return
		}
		out = append(out, runListing{Run: run, Targets: targets})
	}

	httputil.JSON(w, http.StatusOK, out)
}

func (s *Store) handleBackup(w http.ResponseWriter, r *http.Request) {
	dir, err := os.MkdirTemp("", "reftrack-backup-")
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup directory: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("[store] failed to remove backup directory: %v", err)
		}
	}()

	name := fmt.Sprintf("backup-%d.db", time.Now().Unix())
	path := filepath.Join(dir, name)
	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", name))
	w.Header().Set("Content-Type", "application/gzip")
	gz := gzip.NewWriter(w)
	defer gz.Close()
	if _, err := io.Copy(gz, f); err != nil {
		log.Printf("[store] failed to write backup: %v", err)
	}
}
