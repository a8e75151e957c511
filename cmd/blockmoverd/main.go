// Package main provides the blockmoverd daemon entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nornicdb/blockmover/pkg/config"
	"github.com/nornicdb/blockmover/pkg/fabric"
	"github.com/nornicdb/blockmover/pkg/storage"
	"github.com/nornicdb/blockmover/pkg/telemetry"
	"github.com/nornicdb/blockmover/pkg/transfer"
	"github.com/nornicdb/blockmover/pkg/view"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blockmoverd",
		Short: "blockmoverd - block transfer engine daemon",
		Long: `blockmoverd runs the block transfer engine as a long-lived
process, minting a transfer context against a GPU device and periodically
running a demo Memcpy transfer cycle against it so the engine's
health can be observed without a calling application attached.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("blockmoverd v%s (%s)\n", version, commit)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the daemon and run the demo transfer loop",
		RunE:  runServe,
	}
	serveCmd.Flags().Int("device-id", 0, "GPU device to mint streams on")
	serveCmd.Flags().Int("streams", 1, "number of streams in the device's stream pool")
	serveCmd.Flags().Duration("interval", 5*time.Second, "interval between demo transfer cycles")
	serveCmd.Flags().Int("block-size", 4096, "size in bytes of each demo block")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	deviceID, _ := cmd.Flags().GetInt("device-id")
	streamCount, _ := cmd.Flags().GetInt("streams")
	interval, _ := cmd.Flags().GetDuration("interval")
	blockSize, _ := cmd.Flags().GetInt("block-size")

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	telemetry.SetLevel(levelFromString(cfg.Logging.Level))
	if !cmd.Flags().Changed("device-id") {
		deviceID = cfg.Device.DefaultDeviceID
	}
	if !cmd.Flags().Changed("streams") {
		streamCount = cfg.Device.StreamCount
	}

	fmt.Printf("starting blockmoverd v%s\n", version)
	fmt.Printf("  device:    %d\n", deviceID)
	fmt.Printf("  streams:   %d\n", streamCount)
	fmt.Printf("  interval:  %s\n", interval)
	fmt.Printf("  blockSize: %d bytes\n", blockSize)

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	agent := fabric.NewLoopbackAgent()
	runtime := transfer.NewRuntimeHandle(transfer.RuntimeConfig{
		OffloadEnabled: cfg.Runtime.OffloadEnabled,
		Workers:        cfg.Runtime.Workers,
	})
	tctx, err := transfer.NewContext(transfer.StreamPoolConfig{
		DeviceID:    deviceID,
		StreamCount: streamCount,
	}, agent, runtime)
	if err != nil {
		return fmt.Errorf("creating transfer context: %w", err)
	}

	diskAlloc := storage.NewDiskAllocator(cfg.Disk.Dir)
	var regStore *storage.RegistrationStore
	if cfg.Registration.PersistEnabled {
		regStore, err = storage.OpenRegistrationStore(storage.RegistrationStoreOptions{
			DataDir:    cfg.Registration.DataDir,
			InMemory:   cfg.Registration.InMemory,
			SyncWrites: cfg.Registration.SyncWrites,
		})
		if err != nil {
			return fmt.Errorf("opening registration store: %w", err)
		}
		defer regStore.Close()
		diskAlloc = storage.NewDiskAllocatorWithStore(cfg.Disk.Dir, regStore)
	}

	loop := newDemoLoop(tctx, metrics, blockSize, diskAlloc)
	defer loop.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("blockmoverd ready, press Ctrl+C to stop")

	for {
		select {
		case <-ticker.C:
			if err := loop.RunCycle(context.Background()); err != nil {
				telemetry.Error("demo transfer cycle failed", telemetry.Fields{"error": err.Error()})
			}
		case <-sigChan:
			fmt.Println("\nshutting down")
			return nil
		}
	}
}

func levelFromString(s string) telemetry.Level {
	switch s {
	case "debug":
		return telemetry.LevelDebug
	case "warn":
		return telemetry.LevelWarn
	case "error":
		return telemetry.LevelError
	default:
		return telemetry.LevelInfo
	}
}

// demoLoop exercises a System->Pinned copy, plus a
// Pinned->Disk spill with a registered fabric pin, every cycle so an
// operator can watch bytes-moved/latency metrics and the persisted
// registration ledger accrue on a live daemon without a real calling
// application.
type demoLoop struct {
	ctx    *transfer.Context
	metric *telemetry.Metrics
	size   int

	sysAlloc  *storage.SystemAllocator
	pinAlloc  *storage.PinnedAllocator
	diskAlloc *storage.DiskAllocator
}

func newDemoLoop(ctx *transfer.Context, metric *telemetry.Metrics, size int, diskAlloc *storage.DiskAllocator) *demoLoop {
	return &demoLoop{
		ctx:       ctx,
		metric:    metric,
		size:      size,
		sysAlloc:  storage.NewSystemAllocator(),
		pinAlloc:  storage.NewPinnedAllocator(),
		diskAlloc: diskAlloc,
	}
}

// noopRegistration is a Registration handle for the demo loop's spill
// block, standing in for a real fabric pin token since no actual fabric
// peer is registered in this daemon.
type noopRegistration struct{}

func (noopRegistration) Release() error { return nil }

func (d *demoLoop) RunCycle(ctx context.Context) error {
	_, span := telemetry.StartTransferSpan(ctx, "Memcpy", 1)
	defer span.End()

	sys, err := d.sysAlloc.Allocate(d.size)
	if err != nil {
		return fmt.Errorf("allocating system block: %w", err)
	}
	defer sys.Close()

	pin, err := d.pinAlloc.Allocate(d.size)
	if err != nil {
		return fmt.Errorf("allocating pinned block: %w", err)
	}
	defer pin.Close()

	if err := sys.Memset(0xAB, 0, d.size); err != nil {
		return fmt.Errorf("priming system block: %w", err)
	}

	srcView, err := view.New[view.BlockKind](sys, 0, d.size)
	if err != nil {
		return fmt.Errorf("building source view: %w", err)
	}
	dstView, err := view.New[view.BlockKind](pin, 0, d.size)
	if err != nil {
		return fmt.Errorf("building destination view: %w", err)
	}

	start := time.Now()
	done, err := transfer.Execute(
		[]view.MemoryView[view.BlockKind]{srcView},
		[]view.MemoryView[view.BlockKind]{dstView},
		[]transfer.BlockIdentity{{}},
		d.ctx,
		transfer.AlwaysContiguous,
	)
	if err != nil {
		return fmt.Errorf("executing transfer: %w", err)
	}
	<-done

	d.metric.RecordTransfer(ctx, "Memcpy", int64(d.size), time.Since(start))

	if err := d.spillToDisk(ctx, pin); err != nil {
		return fmt.Errorf("spilling to disk: %w", err)
	}

	telemetry.Debug("demo transfer cycle complete", telemetry.Fields{"bytes": d.size})
	return nil
}

// spillToDisk copies pin to a fresh Disk-tier block, registers a fabric
// pin on it, and closes it, exercising the Pinned->Disk strategy and the
// Disk-tier registration path (persisted when the daemon was started with
// registration persistence enabled) on every demo cycle.
func (d *demoLoop) spillToDisk(ctx context.Context, pin storage.Storage) error {
	disk, err := d.diskAlloc.Allocate(d.size)
	if err != nil {
		return fmt.Errorf("allocating disk block: %w", err)
	}
	defer disk.Close()

	srcView, err := view.New[view.BlockKind](pin, 0, d.size)
	if err != nil {
		return fmt.Errorf("building pinned source view: %w", err)
	}
	dstView, err := view.New[view.BlockKind](disk, 0, d.size)
	if err != nil {
		return fmt.Errorf("building disk destination view: %w", err)
	}

	start := time.Now()
	done, err := transfer.Execute(
		[]view.MemoryView[view.BlockKind]{srcView},
		[]view.MemoryView[view.BlockKind]{dstView},
		[]transfer.BlockIdentity{{}},
		d.ctx,
		transfer.AlwaysContiguous,
	)
	if err != nil {
		return fmt.Errorf("executing spill transfer: %w", err)
	}
	<-done
	d.metric.RecordTransfer(ctx, "Memcpy", int64(d.size), time.Since(start))

	if err := disk.Register("demo-spill-pin", noopRegistration{}); err != nil {
		return fmt.Errorf("registering disk block: %w", err)
	}
	return nil
}

func (d *demoLoop) Close() {}
