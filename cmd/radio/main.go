package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/praeterii/radio/internal/adapter"
	"github.com/praeterii/radio/internal/adapter/mpv"
	"github.com/praeterii/radio/internal/adapter/radiobrowser"
	"github.com/praeterii/radio/internal/coordinator"
	"github.com/praeterii/radio/internal/dispatch"
	"github.com/praeterii/radio/internal/service"
	"github.com/praeterii/radio/internal/session"
	"github.com/praeterii/radio/internal/store"
	"github.com/praeterii/radio/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

type options struct {
	country   string
	list      bool
	countries bool
}

func main() {
	var showVersion bool
	var opts options
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&opts.country, "country", "", "country code to browse (not saved)")
	flag.BoolVar(&opts.list, "list", false, "print the stations of the current country and exit")
	flag.BoolVar(&opts.countries, "countries", false, "print the country list and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("radio %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logFile, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting radio", "version", Version)

	storePath, err := adapter.ExpandHome(cfg.Preferences.StorePath)
	if err != nil {
		return err
	}
	prefs, err := store.NewPreferenceStore(storePath)
	if err != nil {
		// Another instance may hold the lock; run without persistence
		logger.Warn("preferences unavailable, using memory only", "error", err, "path", storePath)
		prefs, _ = store.NewPreferenceStore("")
	}
	defer prefs.Close()

	locale := service.NewLocaleService(prefs, logger)
	if code := firstNonEmpty(opts.country, cfg.Preferences.CountryCode); code != "" {
		locale.UseOverride(code)
	}

	client := radiobrowser.NewClient(cfg.Directory.BaseURL, cfg.Directory.UserAgent, cfg.Directory.Timeout, logger)

	socket, err := adapter.ExpandHome(cfg.Player.Socket)
	if err != nil {
		return err
	}
	launcher := mpv.NewLauncher(cfg.Player.Command, cfg.Player.Args, socket, logger)
	connector := mpv.NewConnector(socket, launcher, cfg.Player.ConnectTimeout, logger)

	queue := dispatch.New()
	handle := session.NewHandle(connector, queue, session.Options{
		KeepAlive: cfg.Player.KeepAlive,
		Logger:    logger,
	})

	coord := coordinator.New(coordinator.Deps{
		Directory:    client,
		Preferences:  locale,
		Session:      handle,
		Dispatcher:   queue,
		StationLimit: cfg.Directory.StationLimit,
		HideBroken:   cfg.Directory.HideBroken,
		Logger:       logger,
	})
	defer coord.Close()

	headless := opts.list || opts.countries || !term.IsTerminal(int(os.Stdout.Fd()))
	if headless {
		// Directory timeout covers each attempt; leave room for retries
		ctx, cancel := context.WithTimeout(context.Background(), 4*cfg.Directory.Timeout+5*time.Second)
		defer cancel()
		return runHeadless(ctx, coord, queue, opts.countries, os.Stdout)
	}

	return runTUI(coord, queue, logger)
}

func runTUI(coord *coordinator.Coordinator, queue *dispatch.Queue, logger *slog.Logger) error {
	coord.Start()
	coord.LoadStations()

	p := tea.NewProgram(tui.NewModel(coord), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tui.Pump(ctx, queue, p)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runHeadless loads one list, prints it and returns. The queue runs on
// this goroutine, which plays the UI role.
func runHeadless(ctx context.Context, coord *coordinator.Coordinator, queue *dispatch.Queue, countries bool, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result error
	coord.SetObserver(coordinator.ObserverFunc(func(s coordinator.UiState) {
		switch {
		case countries && !s.CountriesLoading:
			if len(s.Countries) == 0 {
				result = errors.New("no countries loaded")
			} else {
				printCountries(out, s)
			}
			cancel()
		case !countries && !s.Loading:
			if s.ErrorMessage != "" {
				result = errors.New(s.ErrorMessage)
			} else {
				printStations(out, s)
			}
			cancel()
		}
	}))

	if countries {
		coord.LoadCountries()
	} else {
		coord.LoadStations()
	}

	err := queue.Run(ctx)
	if result != nil {
		return result
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out waiting for the directory")
	}
	return nil
}

func printStations(out io.Writer, s coordinator.UiState) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, st := range s.Stations {
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Name, st.Description(), st.URL)
	}
	w.Flush()
}

func printCountries(out io.Writer, s coordinator.UiState) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range s.Countries {
		fmt.Fprintf(w, "%s\t%s\t%d\n", c.Code, c.Name, c.StationCount)
	}
	w.Flush()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
