package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/pinchviz/internal/app"
	"github.com/ayusman/pinchviz/internal/capture"
	"github.com/ayusman/pinchviz/internal/config"
	"github.com/ayusman/pinchviz/internal/dataset"
	"github.com/ayusman/pinchviz/internal/detector"
	"github.com/ayusman/pinchviz/internal/server"
	"github.com/ayusman/pinchviz/internal/source"
	"github.com/ayusman/pinchviz/internal/store"
	"github.com/ayusman/pinchviz/internal/tracker"
	"github.com/ayusman/pinchviz/internal/tray"
)

func main() {
	cfg := config.Load()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection string (overrides -db)")
	flag.BoolVar(&cfg.Seed, "seed", cfg.Seed, "fill an empty SQLite database with demo rows")
	flag.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device id")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "frame width in pixels")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "frame height in pixels")
	flag.IntVar(&cfg.FPS, "fps", cfg.FPS, "render frames per second")
	flag.StringVar(&cfg.WebDir, "web", cfg.WebDir, "static viewer directory")
	flag.BoolVar(&cfg.Tray, "tray", cfg.Tray, "show the system tray menu")
	mock := flag.Bool("mock", false, "use the mock hand detector")
	preview := flag.Bool("preview", false, "show the composited frames in a desktop window")
	flag.Parse()

	fmt.Println("pinchviz - pinch tables into charts")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closer, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open data source: %v", err)
	}
	defer closer.Close()

	tables, err := src.ListTables(ctx)
	if err != nil {
		log.Printf("Failed to list tables, using defaults: %v", err)
	}

	stream := server.NewStreamHandler()
	hub := server.NewEventHub()
	sinks := []app.FrameSink{stream}
	notifiers := []app.Notifier{hub}

	var win *previewWindow
	if *preview {
		win = newPreviewWindow("pinchviz")
		sinks = append(sinks, win)
	}

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New()
		notifiers = append(notifiers, t)
	}

	appCfg := app.Config{
		CameraConfig: capture.Config{
			DeviceID: cfg.CameraID,
			Width:    cfg.Width,
			Height:   cfg.Height,
			FPS:      capture.DefaultFPS,
		},
		DetectorConfig: detector.DefaultConfig(),
		Stream:         tracker.DefaultConfig(),
		Director: app.DirectorConfig{
			Width:     cfg.Width,
			Height:    cfg.Height,
			FPS:       cfg.FPS,
			Tables:    tables,
			Sinks:     sinks,
			Notifiers: notifiers,
		},
		Generator: dataset.NewEngine(src, dataset.DefaultConfig()),
	}
	if *mock {
		appCfg.Detector = detector.NewMockDetector()
	}

	a, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		log.Printf("Starting without camera: %v", err)
	}
	defer a.Stop()

	webDir := findWebDir(cfg.WebDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}
	srv := server.New(server.Config{
		StaticDir: webDir,
		Source:    src,
		Charted:   a.Director(),
		Stream:    stream,
		Events:    hub,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	switch {
	case t != nil:
		t.OnToggle(a.SetEnabled)
		t.OnOpen(func() { openBrowser("http://" + cfg.Addr) })
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// The tray owns the main thread until it quits.
		t.Run()
	case win != nil:
		win.Run(ctx, stop)
	default:
		<-ctx.Done()
	}

	log.Println("Shutting down")
}

// openSource connects to Postgres when a URL is configured and otherwise
// opens (and optionally seeds) the SQLite database.
func openSource(ctx context.Context, cfg config.Config) (source.Source, io.Closer, error) {
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pg, err := store.NewPostgres(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("Using PostgreSQL data source")
		return pg, pg, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Seed {
		if err := st.Seed(ctx); err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("seed database: %w", err)
		}
	}
	log.Printf("Using SQLite data source %s", st.Path())
	return st, st, nil
}

// findWebDir resolves the static viewer directory. A relative dir is also
// looked up next to the executable and under ~/.pinchviz.
// Returns the first existing directory or empty string if none found.
func findWebDir(dir string) string {
	if dir == "" {
		return ""
	}
	candidates := []string{dir}
	if !filepath.IsAbs(dir) {
		if exe, err := os.Executable(); err == nil {
			candidates = append(candidates, filepath.Join(filepath.Dir(exe), dir))
		}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, filepath.Join(home, ".pinchviz", dir))
		}
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
