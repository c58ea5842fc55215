package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucaspiller/n1core/config"
	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/devices"
	"github.com/lucaspiller/n1core/loader"
	"github.com/lucaspiller/n1core/service"
	"github.com/lucaspiller/n1core/testrunner"
	"github.com/lucaspiller/n1core/tools"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "test":
		runTest(os.Args[2:])
	case "run":
		runRun(os.Args[2:])
	case "-version", "--version", "version":
		printVersion()
	case "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "n1: unknown subcommand %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("n1 %s\n", Version)
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if Date != "unknown" {
		fmt.Printf("Built: %s\n", Date)
	}
}

func printUsage() {
	fmt.Print(`n1 — assembler and emulator for the n1 16-bit ISA

Usage:
  n1 build <input> [-o output.bin] [-listing] [-xref] [-lint]
  n1 test <input> [-verbose]
  n1 run <input> [-trace] [-ws-addr 127.0.0.1:4190] [-verbose] [-max-ticks N]
  n1 version

build   assembles <input> (a plain .n1 file or literate .n1.md) to a flat
        64KiB binary image, optionally emitting a listing and symbol
        cross-reference.
test    assembles <input> and runs every literate n1test block found along
        the way against a fresh core, reporting pass/fail per block.
run     assembles <input> and executes it to Halted or Fault, optionally
        streaming TraceEvents over a WebSocket endpoint for external tooling.
`)
}

func assembleOrDie(path string) *loader.AssembleResult {
	result, err := loader.Assemble(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "n1: %v\n", err)
		os.Exit(1)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "%s\n", w.String())
	}
	return result
}

func loadConfigOrDie() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "n1: loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runBuild(args []string) {
	cfg := loadConfigOrDie()

	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "output binary path (default: <input> with .bin extension)")
	listing := fs.Bool("listing", cfg.Assembler.ListingOutput, "print a listing to stdout")
	xref := fs.Bool("xref", cfg.Assembler.XrefOutput, "print a symbol cross-reference to stdout")
	lint := fs.Bool("lint", cfg.Assembler.LintOnAssemble, "run the static linter and print findings")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "n1 build: expected exactly one input file")
		os.Exit(1)
	}
	input := fs.Arg(0)

	result := assembleOrDie(input)

	if *lint {
		for _, issue := range tools.Lint(result.Assignment, nil) {
			fmt.Fprintln(os.Stderr, issue.String())
		}
	}

	if *listing {
		text, err := tools.FormatListing(result.Assignment, input, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "n1 build: listing: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(text)
	}

	if *xref {
		fmt.Print(tools.FormatXRef(tools.BuildXRef(result.Assignment)))
	}

	outPath := *output
	if outPath == "" {
		outPath = defaultBinPath(input)
	}
	if err := os.WriteFile(outPath, result.Output.Image[:result.Output.HighWater], 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "n1 build: writing %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", outPath, result.Output.HighWater)
}

func defaultBinPath(input string) string {
	for i := len(input) - 1; i >= 0 && input[i] != '/'; i-- {
		if input[i] == '.' {
			return input[:i] + ".bin"
		}
	}
	return input + ".bin"
}

func runTest(args []string) {
	cfg := loadConfigOrDie()

	fs := flag.NewFlagSet("test", flag.ExitOnError)
	verbose := fs.Bool("verbose", cfg.TestRunner.Verbose, "print every block's result, not just failures")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "n1 test: expected exactly one input file")
		os.Exit(1)
	}
	input := fs.Arg(0)

	result := assembleOrDie(input)

	blocks, err := testrunner.BuildBlocks(result.TestBlocks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "n1 test: %v\n", err)
		os.Exit(1)
	}
	if len(blocks) == 0 {
		fmt.Println("no n1test blocks found")
		return
	}

	run := testrunner.Run(result.Output.Image, blocks, cfg.CoreProfile())
	if *verbose || !run.Success() {
		fmt.Print(testrunner.Summary(run))
	}
	if run.Success() {
		fmt.Printf("%d block(s) passed\n", len(run.Blocks))
		return
	}
	fmt.Println("FAILED")
	os.Exit(1)
}

func runRun(args []string) {
	fileCfg := loadConfigOrDie()

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	trace := fs.Bool("trace", fileCfg.Execution.EnableTrace, "stream TraceEvents over a WebSocket endpoint")
	wsAddr := fs.String("ws-addr", fileCfg.Trace.ListenAddr, "WebSocket listen address, used with -trace")
	verbose := fs.Bool("verbose", false, "print entry state and exit status")
	maxTicks := fs.Uint("max-ticks", uint(fileCfg.Execution.TickBudgetCycles), "tick budget before the core halts on budget overrun")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "n1 run: expected exactly one input file")
		os.Exit(1)
	}
	input := fs.Arg(0)

	result := assembleOrDie(input)
	profile := fileCfg.CoreProfile()
	state := loader.LoadIntoCore(result.Output.Image, profile)

	cfg := core.DefaultCoreConfig()
	cfg.Profile = profile
	cfg.TickBudgetCycles = uint16(*maxTicks)

	var srv *service.Server
	if *trace {
		srv = service.NewServer(*wsAddr)
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "n1 run: starting trace server: %v\n", err)
			os.Exit(1)
		}
		cfg.TracingEnabled = true
		cfg.Trace = srv.Sink()
		fmt.Printf("streaming trace events on ws://%s/trace\n", *wsAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
			os.Exit(130)
		}()
	}

	bus, _, timer, _ := devices.NewStandardBus(os.Stdout)

	if *verbose {
		fmt.Printf("loaded %s: %d bytes, profile=%s\n", input, result.Output.HighWater, profile)
	}

	for {
		outcome := state.RunOne(bus, cfg, core.BoundaryHalted)
		timer.TickOnce()
		if outcome.FinalStep.Kind == core.StepFault {
			fmt.Fprintf(os.Stderr, "n1 run: fault %s at PC=0x%04X\n", outcome.FinalStep.Fault, state.Arch.PC())
			if srv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = srv.Shutdown(ctx)
				cancel()
			}
			os.Exit(1)
		}
		if outcome.FinalStep.Kind == core.StepHaltedForTick && state.Arch.RunState() == core.RunHaltedForTick {
			break
		}
	}

	if *verbose {
		fmt.Printf("halted at tick %d, PC=0x%04X\n", state.Arch.Tick(), state.Arch.PC())
	}

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
