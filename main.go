package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gregLibert/thai-idcard/pkg/config"
	"github.com/gregLibert/thai-idcard/pkg/pcsc"
	"github.com/gregLibert/thai-idcard/pkg/thaiid"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	readerName := flag.String("reader", "", "Exact reader name (default: pick by name hints)")
	format := flag.String("format", "", "Output format: text, json or yaml")
	photoDir := flag.String("photo-dir", "", "Save the card photo into this directory")
	wait := flag.Bool("wait", false, "Wait for a card to be inserted")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn or error")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "thai-idcard - read a Thai national ID card\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  thai-idcard [flags] [command]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  read      Read the card and print its content (default)\n")
		fmt.Fprintf(os.Stderr, "  readers   List the connected card readers\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "reader":
			cfg.Reader.Name = *readerName
		case "format":
			cfg.Output.Format = *format
		case "photo-dir":
			cfg.Output.PhotoDir = *photoDir
		case "wait":
			cfg.Reader.Wait = *wait
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	level, _ := cfg.Log.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "read"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	switch command {
	case "read":
		err = readCard(ctx, cfg, logger)
	case "readers":
		err = listReaders(os.Stdout, cfg.Reader)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		stop()
		fatal(err)
	}
}

func fatal(err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted.")
	} else {
		fmt.Fprintln(os.Stderr, thaiid.Describe(err))
	}
	os.Exit(1)
}

func listReaders(w io.Writer, rc config.ReaderConfig) error {
	pc, err := pcsc.Establish()
	if err != nil {
		return err
	}
	defer releaseContext(pc)

	devs, err := pc.Devices()
	if err != nil {
		return err
	}
	return printReaders(w, devs, rc)
}

// printReaders lists devs and marks with '*' the one a read would use.
func printReaders(w io.Writer, devs []thaiid.Device, rc config.ReaderConfig) error {
	if len(devs) == 0 {
		return thaiid.ErrNoDevice
	}

	selected, _ := pickDevice(devs, rc)
	for i, d := range devs {
		mark := " "
		if selected != nil && d.Name() == selected.Name() {
			mark = "*"
		}
		fmt.Fprintf(w, "%s [%d] %s\n", mark, i, d.Name())
	}
	return nil
}

func readCard(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pc, err := pcsc.Establish()
	if err != nil {
		return err
	}
	defer releaseContext(pc)

	devs, err := pc.Devices()
	if err != nil {
		return err
	}
	dev, err := pickDevice(devs, cfg.Reader)
	if err != nil {
		return err
	}
	logger.Info("using reader", "name", dev.Name())

	if cfg.Reader.Wait {
		logger.Info("waiting for card", "reader", dev.Name())
		if err := pc.WaitForCard(ctx, dev.Name(), cfg.Reader.PollInterval); err != nil {
			return err
		}
	}

	reader := thaiid.NewReader(append(cfg.ReaderOptions(), thaiid.WithLogger(logger))...)

	var res thaiid.Result
	select {
	case res = <-reader.Start(dev):
	case <-ctx.Done():
		// The read goroutine still releases the card once it finishes.
		return ctx.Err()
	}
	if res.Err != nil {
		return res.Err
	}

	if err := writeRecord(os.Stdout, res.Record, cfg.Output.Format, time.Now()); err != nil {
		return fmt.Errorf("failed to print record: %w", err)
	}

	if cfg.Output.PhotoDir == "" {
		return nil
	}
	if !res.Record.HasPhoto() {
		logger.Warn("card has no photo to save")
		return nil
	}
	path, err := savePhoto(cfg.Output.PhotoDir, res.Record)
	if err != nil {
		return err
	}
	logger.Info("photo saved", "path", path, "bytes", len(res.Record.Photo))
	return nil
}

func pickDevice(devs []thaiid.Device, rc config.ReaderConfig) (thaiid.Device, error) {
	if rc.Name == "" {
		return thaiid.SelectDevice(devs, rc.Hints)
	}
	if len(devs) == 0 {
		return nil, thaiid.ErrNoDevice
	}
	dev, ok := thaiid.FindDevice(devs, rc.Name)
	if !ok {
		return nil, fmt.Errorf("reader %q not found", rc.Name)
	}
	return dev, nil
}

func releaseContext(pc *pcsc.Context) {
	if err := pc.Release(); err != nil {
		slog.Warn("failed to release PC/SC context", "error", err)
	}
}
