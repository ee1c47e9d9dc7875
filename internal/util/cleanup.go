package util

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

const PartialSuffix = ".part"

// InterruptContext returns a context that is cancelled on the first
// SIGINT/SIGTERM so the running crawl can stop between chapters and keep
// what it has. A second signal removes unfinished output files in
// outputDir and exits.
func InterruptContext(parent context.Context, outputDir string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sig:
		case <-ctx.Done():
			signal.Stop(sig)
			return
		}

		fmt.Println("\nInterrupt received. Finishing with the chapters fetched so far (press Ctrl+C again to abort)...")
		cancel()

		<-sig
		fmt.Println("\nAborting.")
		CleanupPartialFiles(outputDir)
		os.Exit(1)
	}()

	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}

func CleanupPartialFiles(outputDir string) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), PartialSuffix) {
			continue
		}

		full := filepath.Join(outputDir, e.Name())
		if err := os.Remove(full); err != nil {
			fmt.Printf("Error cleaning up %s: %v\n", full, err)
		} else {
			fmt.Printf("Removed %s\n", full)
		}
	}
}

// WriteFileAtomic writes through a ".part" sibling and renames it into
// place once write returns without error.
func WriteFileAtomic(path string, write func(f *os.File) error) error {
	tmp := path + PartialSuffix

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	return os.Rename(tmp, path)
}
