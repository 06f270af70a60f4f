// Command dcpuemu loads and runs a DCPU-16 1.7 binary image.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dcpu16vm/dcpu16"
	"github.com/dcpu16vm/dcpu16/disasm"
	"github.com/dcpu16vm/dcpu16/image"
)

var version = "dev"

// cyclesPerFrame and framesPerSecond implement spec.md §6's "~100kHz over
// 30 frames/sec" recommendation for timed (-p off) execution.
const (
	cyclesPerFrame  = 100000 / 30
	framesPerSecond = 30
)

func main() {
	var printTrace bool
	var noColor bool
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:   "dcpuemu <binary file>",
		Short: "Run a DCPU-16 1.7 binary image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println(version)
				return nil
			}
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			return run(args[0], printTrace, noColor)
		},
	}
	rootCmd.Flags().BoolVarP(&printTrace, "print", "p", false, "print CPU state and disassembly each tick (untimed)")
	rootCmd.Flags().BoolVarP(&noColor, "no-color", "m", false, "disable ANSI coloring in --print output")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print version and exit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string, printTrace, noColor bool) error {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	words, err := image.Decode(data)
	if err != nil {
		log.Errorw("failed to load image", "path", path, "error", err)
		return err
	}

	cpu := dcpu16.New()
	cpu.SetLogger(log)
	cpu.Write(0, words)

	if printTrace {
		runTraced(cpu, noColor)
		return nil
	}

	frame := time.Second / framesPerSecond
	for !cpu.Terminated() {
		start := time.Now()
		cpu.Run(cyclesPerFrame)
		if elapsed := time.Since(start); elapsed < frame {
			time.Sleep(frame - elapsed)
		}
	}
	return nil
}

// runTraced steps one instruction at a time, printing the disassembly of
// the instruction about to execute and the register file after it runs.
func runTraced(cpu *dcpu16.DCPU16, noColor bool) {
	for !cpu.Terminated() {
		pc := cpu.Registers()[dcpu16.PC]
		window := cpu.Read(pc, 3)
		ins, _ := disasm.Decode(window, pc)
		fmt.Printf("0x%04x  %s\n", pc, disasm.FormatColor(ins, !noColor))

		cpu.Tick()

		r := cpu.Registers()
		fmt.Printf("  A=%04x B=%04x C=%04x X=%04x Y=%04x Z=%04x I=%04x J=%04x PC=%04x SP=%04x EX=%04x IA=%04x\n",
			r[dcpu16.A], r[dcpu16.B], r[dcpu16.C], r[dcpu16.X], r[dcpu16.Y], r[dcpu16.Z],
			r[dcpu16.I], r[dcpu16.J], r[dcpu16.PC], r[dcpu16.SP], r[dcpu16.EX], r[dcpu16.IA])
	}
}
