// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/beevik/r6502/host"
	"github.com/beevik/term"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/pkg/profile"
)

var (
	load       string
	loadAddr   string
	startPC    string
	trap       bool
	maxInst    int
	cpuProfile string
	statsAddr  string
	verbose    bool
)

func init() {
	flag.StringVar(&load, "load", "", "binary image to load into memory")
	flag.StringVar(&loadAddr, "addr", "0000", "hex address at which to load the image")
	flag.StringVar(&startPC, "pc", "", "hex address at which to start execution (default: the load address)")
	flag.BoolVar(&trap, "trap", false, "run the image until it traps, report the result and exit")
	flag.IntVar(&maxInst, "max", 0, "maximum number of instructions to run with -trap (0 is unlimited)")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to this directory")
	flag.StringVar(&statsAddr, "statsview", "", "serve runtime statistics on this address (e.g. localhost:12600)")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: r6502 [options] [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	if err := start(); err != nil {
		exitOnError(err)
	}
}

// Configure logging and the optional profilers, then run the emulator.
func start() error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cpuProfile), profile.NoShutdownHook).Stop()
	}

	if statsAddr != "" {
		viewer.SetConfiguration(viewer.WithAddr(statsAddr))
		mgr := statsview.New()
		go mgr.Start()
		slog.Info("serving runtime statistics", "addr", statsAddr)
	}

	return run()
}

func run() error {
	h := host.New()
	h.SetOutput(os.Stdout)

	// Load a binary image if requested.
	if load != "" {
		addr, err := parseAddr(loadAddr)
		if err != nil {
			return err
		}
		if err := h.Load(load, addr); err != nil {
			return err
		}
		slog.Info("loaded image", "file", load, "addr", addr)
	}

	if startPC != "" {
		pc, err := parseAddr(startPC)
		if err != nil {
			return err
		}
		h.SetPC(pc)
	}

	// Run the image until it traps, then exit.
	if trap {
		pc, cycles, err := h.RunUntilTrap(maxInst)
		if err != nil {
			return fmt.Errorf("stopped at $%04X after %d cycles: %w", pc, cycles, err)
		}
		fmt.Printf("Trapped at $%04X after %d cycles.\n", pc, cycles)
		return nil
	}

	// Run commands contained in command-line files.
	for _, filename := range flag.Args() {
		file, err := os.Open(filename)
		if err != nil {
			return err
		}
		slog.Info("running command file", "file", filename)
		ok := h.RunCommands(file, os.Stdout, false)
		file.Close()
		if !ok {
			return nil
		}
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands interactively.
	h.RunCommands(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
	return nil
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func parseAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "$"), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address '%s'", s)
	}
	return uint16(v), nil
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
