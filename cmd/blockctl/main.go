// Package main provides the blockctl one-shot CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nornicdb/blockmover/pkg/fabric"
	"github.com/nornicdb/blockmover/pkg/storage"
	"github.com/nornicdb/blockmover/pkg/transfer"
	"github.com/nornicdb/blockmover/pkg/view"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blockctl",
		Short: "blockctl - one-shot block transfer engine tool",
		Long: `blockctl exercises the block transfer engine outside a long-
running process: allocate a block in a tier, move it to another tier, or
inspect which strategy the engine resolves for a given tier pair.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("blockctl v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newTransferCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <src-tier> <dst-tier>",
		Short: "Print the transfer strategy resolved for a source/destination tier pair",
		Long:  "Tiers: system, pinned, device, disk, fabric",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseKind(args[0])
			if err != nil {
				return err
			}
			dst, err := parseKind(args[1])
			if err != nil {
				return err
			}
			strategy := transfer.Resolve(src, dst)
			fmt.Printf("%s -> %s resolves to %s\n", src, dst, strategy)
			return nil
		},
	}
	return cmd
}

func newTransferCmd() *cobra.Command {
	var srcTier, dstTier string
	var size int

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Allocate a block in each tier and move it from src to dst",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(srcTier, dstTier, size)
		},
	}
	cmd.Flags().StringVar(&srcTier, "src", "system", "source tier: system, pinned, device")
	cmd.Flags().StringVar(&dstTier, "dst", "pinned", "destination tier: system, pinned, device")
	cmd.Flags().IntVar(&size, "size", 4096, "block size in bytes")
	return cmd
}

func parseKind(s string) (storage.Kind, error) {
	switch s {
	case "system":
		return storage.KindSystem, nil
	case "pinned":
		return storage.KindPinned, nil
	case "device":
		return storage.KindDevice, nil
	case "disk":
		return storage.KindDisk, nil
	case "fabric":
		return storage.KindFabric, nil
	default:
		return 0, fmt.Errorf("unknown tier %q (want system, pinned, device, disk, or fabric)", s)
	}
}

func allocatorFor(tier string) (storage.Allocator, error) {
	switch tier {
	case "system":
		return storage.NewSystemAllocator(), nil
	case "pinned":
		return storage.NewPinnedAllocator(), nil
	case "device":
		return storage.NewDeviceAllocator(0), nil
	default:
		return nil, fmt.Errorf("tier %q is not allocatable from blockctl transfer (use resolve for disk/fabric)", tier)
	}
}

func runTransfer(srcTier, dstTier string, size int) error {
	srcAlloc, err := allocatorFor(srcTier)
	if err != nil {
		return err
	}
	dstAlloc, err := allocatorFor(dstTier)
	if err != nil {
		return err
	}

	src, err := srcAlloc.Allocate(size)
	if err != nil {
		return fmt.Errorf("allocating source block: %w", err)
	}
	defer src.Close()

	dst, err := dstAlloc.Allocate(size)
	if err != nil {
		return fmt.Errorf("allocating destination block: %w", err)
	}
	defer dst.Close()

	if err := src.Memset(0xCD, 0, size); err != nil {
		return fmt.Errorf("priming source block: %w", err)
	}

	srcView, err := view.New[view.BlockKind](src, 0, size)
	if err != nil {
		return fmt.Errorf("building source view: %w", err)
	}
	dstView, err := view.New[view.BlockKind](dst, 0, size)
	if err != nil {
		return fmt.Errorf("building destination view: %w", err)
	}

	agent := fabric.NewLoopbackAgent()
	tctx, err := transfer.NewContext(transfer.DefaultStreamPoolConfig(), agent, nil)
	if err != nil {
		return fmt.Errorf("creating transfer context: %w", err)
	}

	strategy := transfer.Resolve(src.Tier().Kind, dst.Tier().Kind)
	fmt.Printf("resolved strategy: %s\n", strategy)

	done, err := transfer.Execute(
		[]view.MemoryView[view.BlockKind]{srcView},
		[]view.MemoryView[view.BlockKind]{dstView},
		[]transfer.BlockIdentity{{}},
		tctx,
		transfer.AlwaysContiguous,
	)
	if err != nil {
		return fmt.Errorf("executing transfer: %w", err)
	}
	<-done

	fmt.Printf("moved %d bytes %s -> %s\n", size, srcTier, dstTier)
	return nil
}
