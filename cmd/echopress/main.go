// Command echopress aligns oscillator capture windows against pressure
// streams and reports derivative-based uncertainty bounds.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/echopress-data/echopress/internal/adapters"
	"github.com/echopress-data/echopress/internal/align"
	"github.com/echopress-data/echopress/internal/config"
	"github.com/echopress-data/echopress/internal/db"
	"github.com/echopress-data/echopress/internal/export"
	"github.com/echopress-data/echopress/internal/ingest"
	"github.com/echopress-data/echopress/internal/monitoring"
	"github.com/echopress-data/echopress/internal/sigutil"
	"github.com/echopress-data/echopress/internal/viz"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(os.Args[2:])
	case "align":
		runAlign(os.Args[2:])
	case "calibrate":
		runCalibrate(os.Args[2:])
	case "transform":
		runTransform(os.Args[2:])
	case "migrate":
		runMigrate(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: echopress <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  ingest      Scan a data directory and list sessions and stream files")
	fmt.Println("  align       Align capture windows against a pressure stream")
	fmt.Println("  calibrate   Apply voltage-to-pressure calibration to a stream file")
	fmt.Println("  transform   Run a cycle-synchronous adapter over an oscillator stream")
	fmt.Println("  migrate     Manage the sqlite schema")
	fmt.Println("  help        Show this help message")
	fmt.Println()
	fmt.Println("Run 'echopress <command> -h' for command options.")
}

// loadConfig resolves the optional session config file into engine
// settings; an empty path yields all defaults.
func loadConfig(path string) *config.SessionConfig {
	if path == "" {
		return config.EmptySessionConfig()
	}
	cfg, err := config.LoadSessionConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	root := fs.String("root", ".", "Data directory to scan")
	fs.Parse(args)

	ix, err := ingest.NewIndexer(*root)
	if err != nil {
		log.Fatalf("Failed to create indexer: %v", err)
	}
	if err := ix.Scan(); err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	sessions := ix.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return
	}
	var totalP, totalO int
	for _, sid := range sessions {
		fmt.Printf("session %s (%d pstream, %d ostream)\n",
			sid, len(ix.PStreams(sid)), len(ix.OStreams(sid)))
		for _, p := range ix.PStreams(sid) {
			fmt.Printf("  pstream  %s\n", p)
		}
		for _, o := range ix.OStreams(sid) {
			fmt.Printf("  ostream  %s\n", o)
		}
		totalP += len(ix.PStreams(sid))
		totalO += len(ix.OStreams(sid))
	}
	fmt.Printf("%d sessions, %d pressure streams, %d oscillator streams\n",
		len(sessions), totalP, totalO)
}

func runAlign(args []string) {
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	pstreamPath := fs.String("pstream", "", "Pressure stream file")
	root := fs.String("root", "", "Data directory; aligns every O-stream of -session")
	session := fs.String("session", "", "Session ID to align (with -root)")
	configPath := fs.String("config", "", "Session config JSON")
	out := fs.String("out", "", "Per-midpoint CSV output path")
	tallOut := fs.String("tall", "", "Consolidated per-sample CSV output path")
	htmlOut := fs.String("html", "", "Interactive chart output path")
	pngOut := fs.String("png", "", "Static plot output path")
	dbPath := fs.String("db", "", "Persist the run to this sqlite database")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	resolved, err := cfg.Resolve()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	engine, err := align.NewEngine(resolved)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	ostreamPaths := fs.Args()
	sessionID := *session
	if *root != "" {
		if *session == "" {
			log.Fatal("-root requires -session")
		}
		ix, err := ingest.NewIndexer(*root)
		if err != nil {
			log.Fatalf("Failed to create indexer: %v", err)
		}
		if err := ix.Scan(); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		if *pstreamPath == "" {
			p, ok := ix.FirstPStream(*session)
			if !ok {
				log.Fatalf("Session %s has no pressure stream", *session)
			}
			*pstreamPath = p
		}
		ostreamPaths = append(ostreamPaths, ix.OStreams(*session)...)
	}
	if *pstreamPath == "" {
		log.Fatal("A pressure stream is required (-pstream or -root/-session)")
	}
	if len(ostreamPaths) == 0 {
		log.Fatal("At least one O-stream file is required")
	}

	pstream, err := ingest.LoadPStream(*pstreamPath)
	if err != nil {
		log.Fatalf("Failed to load pressure stream: %v", err)
	}

	midpoints := make([]float64, 0, len(ostreamPaths))
	ostreams := make([]*ingest.OStream, 0, len(ostreamPaths))
	for _, path := range ostreamPaths {
		o, err := ingest.LoadOStream(path)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		m, err := o.Window().Midpoint()
		if err != nil {
			log.Fatalf("No midpoint for %s: %v", path, err)
		}
		midpoints = append(midpoints, m)
		ostreams = append(ostreams, o)
		if sessionID == "" {
			sessionID = o.SessionID
		}
	}

	batch, err := engine.AlignBatch(pstream.Times, pstream.Pressures, midpoints)
	if err != nil {
		log.Fatalf("Alignment failed: %v", err)
	}

	counts := batch.Counts()
	monitoring.Logf("aligned %d records: %d aligned, %d warnings, %d rejected",
		len(batch.Results), counts.Aligned, counts.Warnings, counts.Rejected)
	for _, v := range batch.Violations {
		monitoring.Logf("violation: %s", v)
	}

	if *out != "" {
		if err := export.WriteResultsFile(*out, midpoints, pstream.Pressures, batch); err != nil {
			log.Fatalf("Failed to write results: %v", err)
		}
		monitoring.Logf("wrote %s", *out)
	} else {
		if err := export.WriteResults(os.Stdout, midpoints, pstream.Pressures, batch); err != nil {
			log.Fatalf("Failed to write results: %v", err)
		}
	}

	if *tallOut != "" {
		rows, err := tallRows(cfg, sessionID, ostreamPaths, ostreams, pstream, batch)
		if err != nil {
			log.Fatalf("Failed to build consolidated export: %v", err)
		}
		if err := export.WriteTallFile(*tallOut, rows); err != nil {
			log.Fatalf("Failed to write consolidated export: %v", err)
		}
		monitoring.Logf("wrote %s", *tallOut)
	}

	if *htmlOut != "" {
		title := "Alignment " + sessionID
		if err := viz.RenderHTMLFile(*htmlOut, title, pstream.Times, pstream.Pressures, midpoints, batch); err != nil {
			log.Fatalf("Failed to render chart: %v", err)
		}
		monitoring.Logf("wrote %s", *htmlOut)
	}
	if *pngOut != "" {
		title := "Alignment " + sessionID
		if err := viz.SavePNG(*pngOut, title, pstream.Times, pstream.Pressures, midpoints, batch); err != nil {
			log.Fatalf("Failed to save plot: %v", err)
		}
		monitoring.Logf("wrote %s", *pngOut)
	}

	if *dbPath != "" {
		database, err := db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()
		runID, err := database.SaveRun(sessionID, resolved, midpoints, batch)
		if err != nil {
			log.Fatalf("Failed to persist run: %v", err)
		}
		monitoring.Logf("saved run %s", runID)
	}
}

// tallRows registers every oscillator sample in the signal, file and
// pressure-map tables and merges them into the consolidated export. Each
// file's alignment annotations apply to all of its samples; rejected
// files carry none.
func tallRows(cfg *config.SessionConfig, sessionID string, paths []string, ostreams []*ingest.OStream, pstream *ingest.PStream, batch align.BatchResult) ([]export.TallRow, error) {
	signals := export.NewSignals()
	files := export.NewOscFiles()
	mappings := export.NewFile2PressureMap()

	for f, o := range ostreams {
		samples, err := o.Channel(cfg.GetScalarChannel())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[f], err)
		}
		r := batch.Results[f]
		stamp := strconv.FormatFloat(o.Timestamps[0], 'g', -1, 64)

		for i, v := range samples {
			key := export.Key{SID: sessionID, FileStamp: stamp, Idx: i}
			row := export.SignalRow{Key: key, Value: v}
			if !r.Rejected() {
				eAlign, lo, hi := r.EAlign, r.BoundLo, r.BoundHi
				row.AlignmentError = &eAlign
				row.DerivLo = &lo
				row.DerivHi = &hi
			}
			if err := signals.Add(row); err != nil {
				return nil, err
			}
			if err := files.Add(export.OscFileRow{Key: key, Path: paths[f]}); err != nil {
				return nil, err
			}
			if !r.Rejected() {
				label := strconv.FormatFloat(pstream.Times[r.Index], 'g', -1, 64)
				if err := mappings.Add(export.File2PressureRow{Key: key, PressureLabel: label}); err != nil {
					return nil, err
				}
			}
		}
	}
	return export.TallExport(signals, files, mappings), nil
}

func runCalibrate(args []string) {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	configPath := fs.String("config", "", "Session config JSON with alpha/beta coefficients")
	channel := fs.Int("channel", -1, "Channel to calibrate (default: config scalar_channel)")
	out := fs.String("out", "", "Output CSV path (default: stdout)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatal("Usage: echopress calibrate [options] <ostream-file>")
	}

	cfg := loadConfig(*configPath)
	coeffs := cfg.Calibration()
	if err := coeffs.Validate(); err != nil {
		log.Fatalf("Invalid calibration: %v", err)
	}
	ch := *channel
	if ch < 0 {
		ch = cfg.GetScalarChannel()
	}

	o, err := ingest.LoadOStream(fs.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load stream: %v", err)
	}
	voltages, err := o.Channel(ch)
	if err != nil {
		log.Fatalf("Channel %d: %v", ch, err)
	}
	calibrated, err := coeffs.ApplySlice(voltages, ch)
	if err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create output: %v", err)
		}
		defer f.Close()
		w = f
	}
	fmt.Fprintln(w, "timestamp,voltage,pressure")
	for i, v := range voltages {
		fmt.Fprintf(w, "%s,%s,%s\n",
			strconv.FormatFloat(o.Timestamps[i], 'g', -1, 64),
			strconv.FormatFloat(v, 'g', -1, 64),
			strconv.FormatFloat(calibrated[i], 'g', -1, 64))
	}
}

func runTransform(args []string) {
	fs := flag.NewFlagSet("transform", flag.ExitOnError)
	configPath := fs.String("config", "", "Session config JSON")
	name := fs.String("adapter", "", "Adapter name (default: config adapter)")
	outDir := fs.String("out-dir", ".", "Directory for output matrices")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatal("Usage: echopress transform [options] <ostream-file>")
	}

	cfg := loadConfig(*configPath)
	adapterName := *name
	if adapterName == "" {
		adapterName = cfg.GetAdapter()
	}
	adapter, err := adapters.Get(adapterName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	o, err := ingest.LoadOStream(fs.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load stream: %v", err)
	}
	signal, err := o.Channel(cfg.GetScalarChannel())
	if err != nil {
		log.Fatalf("Channel %d: %v", cfg.GetScalarChannel(), err)
	}

	if rms, err := sigutil.RMS(signal); err == nil {
		monitoring.Logf("signal: %d samples, rms %.4g", len(signal), rms)
	}

	cycles, err := adapter.Layer1(signal, cfg.GetFS(), cfg.GetF0())
	if err != nil {
		log.Fatalf("Cycle mapping failed: %v", err)
	}
	outputs, err := adapter.Layer2(cycles, cfg.GetFS())
	if err != nil {
		log.Fatalf("Transform failed: %v", err)
	}

	for key, matrix := range outputs {
		path := filepath.Join(*outDir, fmt.Sprintf("%s_%s.csv", adapterName, key))
		if err := writeMatrix(path, matrix); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		monitoring.Logf("wrote %s (%d cycles)", path, len(matrix))
	}
}

func writeMatrix(path string, matrix [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, row := range matrix {
		for i, v := range row {
			if i > 0 {
				if _, err := f.WriteString(","); err != nil {
					return err
				}
			}
			if _, err := f.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
				return err
			}
		}
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	return nil
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "echopress.db", "Path to database file")
	fs.Parse(args)

	db.RunMigrateCommand(fs.Args(), *dbPath)
}
