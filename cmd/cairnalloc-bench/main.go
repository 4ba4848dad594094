// Command cairnalloc-bench drives the cairnalloc allocator directly: a
// small allocate/free/resize workload generator plus diagnostic dump, used
// to exercise the block manager the way a host runtime would.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
	"unsafe"

	"github.com/cairnalloc/cairnalloc/internal/abi"
	"github.com/cairnalloc/cairnalloc/internal/allocator"
	"github.com/cairnalloc/cairnalloc/internal/cli"
	"github.com/cairnalloc/cairnalloc/internal/tunables"
)

func main() {
	var (
		showVersion  = flag.Bool("version", false, "show version information")
		jsonOutput   = flag.Bool("json", false, "output version in JSON format")
		configPath   = flag.String("config", "", "path to a JSON config file supplying default verbose/debug settings")
		abiCheck     = flag.String("abi-check", "", "semver constraint to check the allocator ABI against, e.g. ^1.0.0")
		tunablesPath = flag.String("tunables", "", "path to a JSON tunables file to load (and watch for changes)")
		iterations   = flag.Int("iterations", 10000, "number of allocate/free operations to run")
		maxSize      = flag.Int("max-size", 4096, "maximum allocation size in bytes")
		dump         = flag.Bool("dump", false, "print the allocator's block chains after the run")
		verbose      = flag.Bool("verbose", false, "verbose logging")
		debug        = flag.Bool("debug", false, "debug logging")
	)

	flag.Usage = func() {
		cli.PrintCommandUsage("cairnalloc-bench", cli.CommandInfo{
			Name:        "cairnalloc-bench",
			Usage:       fmt.Sprintf("%s [OPTIONS]", os.Args[0]),
			Description: "drives the cairnalloc block allocator with a synthetic allocate/free/resize workload",
			Examples: []string{
				fmt.Sprintf("%s -iterations 50000 -dump", os.Args[0]),
				fmt.Sprintf("%s -config bench.json -tunables tunables.json", os.Args[0]),
			},
			Flags: []cli.FlagInfo{
				{Name: "iterations", Usage: "number of allocate/free operations to run", Default: "10000"},
				{Name: "max-size", Usage: "maximum allocation size in bytes", Default: "4096"},
				{Name: "dump", Usage: "print the allocator's block chains after the run"},
				{Name: "abi-check", Usage: "semver constraint to check the allocator ABI against"},
				{Name: "tunables", Usage: "path to a JSON tunables file to load (and watch for changes)"},
				{Name: "config", Usage: "path to a JSON config file supplying default verbose/debug settings"},
			},
		})
	}

	flag.Parse()

	if *showVersion {
		cli.PrintVersion("cairnalloc-bench", *jsonOutput)
		os.Exit(0)
	}

	cfg, err := cli.LoadConfig(*configPath)
	if err != nil {
		cli.ExitWithError("loading config: %v", err)
	}

	if cfg.Verbose {
		*verbose = true
	}

	if cfg.Debug {
		*debug = true
	}

	logger := cli.NewLogger(*verbose, *debug)
	allocator.SetLogger(logger)

	if *abiCheck != "" {
		if !abi.CompatibleWith(*abiCheck) {
			cli.ExitWithError("allocator ABI %s is not compatible with constraint %q", abi.Version(), *abiCheck)
		}

		fmt.Printf("allocator ABI %s satisfies %q\n", abi.Version(), *abiCheck)
	}

	if *tunablesPath != "" {
		stop, err := tunables.Watch(*tunablesPath, func(t tunables.Tunables) {
			logger.Verbose = t.Verbose
			logger.DebugMode = t.Debug
		})
		if err != nil {
			cli.ExitWithError("loading tunables: %v", err)
		}

		defer stop()
	}

	cli.HandleError(runWorkload(logger, *iterations, *maxSize), logger)

	if *dump {
		allocator.PrintState()
	}
}

// runWorkload allocates and frees blocks of 1..maxSize bytes, occasionally
// resizing live ones, to exercise split and coalesce end to end. The
// large-allocation (mmap) path is reached only when maxSize is at least
// allocator.MMAPThreshold; the default of 4096 stays on the heap.
func runWorkload(logger *cli.Logger, iterations, maxSize int) error {
	rng := rand.New(rand.NewSource(1))
	live := make([]livePtr, 0, iterations/4)
	peak := 0

	start := time.Now()

	for i := 0; i < iterations; i++ {
		switch {
		case len(live) > 0 && rng.Intn(3) == 0:
			idx := rng.Intn(len(live))
			allocator.Free(live[idx].ptr)
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]

		case len(live) > 0 && rng.Intn(5) == 0:
			idx := rng.Intn(len(live))
			newSize := uintptr(1 + rng.Intn(maxSize))
			newPtr := allocator.Resize(live[idx].ptr, newSize)

			if newPtr == nil {
				return fmt.Errorf("resize failed at iteration %d", i)
			}

			live[idx] = livePtr{ptr: newPtr, size: newSize}

		default:
			size := uintptr(1 + rng.Intn(maxSize))
			ptr := allocator.Allocate(size)

			if ptr == nil {
				return fmt.Errorf("allocate failed at iteration %d (size %d)", i, size)
			}

			live = append(live, livePtr{ptr: ptr, size: size})
			if len(live) > peak {
				peak = len(live)
			}
		}
	}

	for _, lp := range live {
		allocator.Free(lp.ptr)
	}

	logger.Info("%d iterations, %d peak live allocations in %s", iterations, peak, time.Since(start))

	return nil
}

type livePtr struct {
	ptr  unsafe.Pointer
	size uintptr
}
