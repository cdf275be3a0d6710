package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fcstats/pkg/gameimport"
)

// Global DB handle for helper funcs
var db *gorm.DB

// global flags (parsed in main)
var (
	verbose bool
	season  uint
)

func main() {
	dir := flag.String("dir", "imports", "directory to scan/watch for CSV exports")
	watch := flag.Bool("watch", false, "keep watching the directory after the initial scan")
	seasonFlag := flag.Uint("season", 0, "season number applied to imported matches (required)")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()
	season = *seasonFlag
	if season < 1 {
		log.Fatal("-season is required and must be at least 1")
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	var err error
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(*dir, "processed"), 0755); err != nil {
		log.Fatalf("cannot create processed dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(*dir, "failed"), 0755); err != nil {
		log.Fatalf("cannot create failed dir: %v", err)
	}

	for _, name := range listCSVFiles(*dir) {
		importFile(*dir, name)
	}

	if *watch {
		if err := watchDirectory(*dir); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func listCSVFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isCSV(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isCSV(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".csv"
}

// importFile runs the bulk importer over one export and files it under
// processed/ or failed/ so a drop is never handled twice.
func importFile(dir, name string) {
	full := filepath.Join(dir, name)
	f, err := os.Open(full)
	if err != nil {
		log.Printf("%s: open failed: %v", name, err)
		return
	}
	rows, err := gameimport.ReadRows(f)
	_ = f.Close()
	if err != nil {
		fileAway(dir, name, "failed")
		log.Printf("%s: %v", name, err)
		return
	}
	created, err := gameimport.New(db).ImportBatch(rows, season)
	if err != nil {
		fileAway(dir, name, "failed")
		log.Printf("%s: import aborted: %v", name, err)
		return
	}
	fileAway(dir, name, "processed")
	log.Printf("%s: imported %d matches (season %d)", name, created, season)
}

func fileAway(dir, name, sub string) {
	if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, sub, name)); err != nil {
		log.Printf("%s: move to %s failed: %v", name, sub, err)
	}
}

func watchDirectory(dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isCSV(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	for name := range fileCh {
		if verbose {
			log.Printf("picked up %s", name)
		}
		importFile(dir, name)
	}
	return nil
}
