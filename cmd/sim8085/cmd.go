package main

import (
	"bytes"
	"errors"
	"fmt"
	stdio "io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	xterm "golang.org/x/term"

	"github.com/girisakar365/8085-mP/cpu"
	"github.com/girisakar365/8085-mP/emulator"
	"github.com/girisakar365/8085-mP/internal"
	"github.com/girisakar365/8085-mP/internal/config"
)

var cfgFile string
var stateFile string
var verbose bool
var blocks bool

var rootCmd = &cobra.Command{
	Use:           "sim8085",
	Short:         "sim8085 assembles and runs 8085 assembly programs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var assembleCmd = &cobra.Command{
	Use:   "assemble FILE...",
	Short: "Assemble files and print their listings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		width := terminalWidth(cmd.OutOrStdout())
		for _, file := range args {
			emu, err := newEmulator()
			if err != nil {
				return err
			}
			inf, err := os.Open(file)
			if err != nil {
				return report(file, err)
			}
			prog, err := emu.Assemble(inf)
			inf.Close()
			if err != nil {
				return report(file, err)
			}

			out := cmd.OutOrStdout()
			if len(args) > 1 {
				fmt.Fprintf(out, "%v:\n", file)
			}
			for _, op := range prog.Opcodes {
				row := op.String()
				if width > 0 && len(row) > width {
					row = row[:width]
				}
				fmt.Fprintln(out, row)
			}
			for _, warning := range prog.Warnings {
				log.Printf("%v: warning: %v", file, warning)
			}
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Run files, each in its own session, and print the final state",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(stateFile) != 0 && len(args) > 1 {
			return errors.New("--state needs a single file")
		}

		outputs := make([]bytes.Buffer, len(args))
		var g errgroup.Group
		for n, file := range args {
			g.Go(func() error {
				return runFile(&outputs[n], file, len(args) > 1)
			})
		}
		err := g.Wait()

		for n := range outputs {
			cmd.OutOrStdout().Write(outputs[n].Bytes())
		}

		return err
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Write the power-on state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		emu, err := newEmulator()
		if err != nil {
			return err
		}
		emu.Reset()

		if len(stateFile) == 0 {
			return emu.State().Save(cmd.OutOrStdout())
		}

		return saveState(emu)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info [MNEMONIC...]",
	Short: "Describe instructions, or list all mnemonics",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for mnemonic := range cpu.Mnemonics() {
				fmt.Fprintln(out, mnemonic)
			}
			return nil
		}

		for _, mnemonic := range args {
			info, err := cpu.Info(strings.ToUpper(mnemonic))
			if err != nil {
				return report(mnemonic, err)
			}
			fmt.Fprintf(out, "%v: %v\n", info.Mnemonic, info.Hint)
			fmt.Fprintf(out, "% 10s: %v\n", "category", info.Category)
			fmt.Fprintf(out, "% 10s: %v\n", "operands", info.Shape)
			fmt.Fprintf(out, "% 10s: %d\n", "length", info.Length)
			cycles := fmt.Sprintf("%d", info.Cycles)
			if info.CyclesTaken != 0 {
				cycles += fmt.Sprintf("/%d", info.CyclesTaken)
			}
			if info.CyclesMemory != 0 {
				cycles += fmt.Sprintf(" (M: %d)", info.CyclesMemory)
			}
			fmt.Fprintf(out, "% 10s: %v\n", "cycles", cycles)
			for key, code := range internal.IterSeq2Sorted(info.Codes) {
				if len(key) == 0 {
					key = "-"
				}
				fmt.Fprintf(out, "% 10s: %02XH\n", key, code)
			}
		}
		return nil
	},
}

// Execute bootstraps the viper configuration and runs the command line.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Print(err)
	}
	return err
}

func init() {
	log.SetFlags(0)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&stateFile, "state", "s", "", "persisted state file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose mode")
	runCmd.Flags().BoolVarP(&blocks, "blocks", "b", false, "run as label blocks")

	rootCmd.AddCommand(assembleCmd, runCmd, resetCmd, infoCmd)
}

func initConfig() {
	if err := config.NewConfig(cfgFile); err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}
	if verbose {
		config.CLIConfig.Verbose = true
	}
	if blocks {
		config.CLIConfig.Runtime.Blocks = true
	}
}

// newEmulator creates a session from the configuration.
func newEmulator() (emu *emulator.Emulator, err error) {
	cfg := config.CLIConfig

	emu = emulator.NewEmulator()
	emu.Verbose = cfg.Verbose
	emu.Cpu.StepLimit = cfg.Runtime.StepLimit
	emu.Cpu.Stack.Limit = cfg.Runtime.StackDepth

	emu.Origin, err = cfg.Origin()
	if err != nil {
		return
	}
	emu.DataBase, err = cfg.DataBase()

	return
}

// runFile runs one file in its own session, writing the result to out.
func runFile(out stdio.Writer, file string, named bool) (err error) {
	emu, err := newEmulator()
	if err != nil {
		return
	}

	if len(stateFile) != 0 {
		err = loadState(emu)
		if err != nil {
			return
		}
	}

	inf, err := os.Open(file)
	if err != nil {
		return report(file, err)
	}
	defer inf.Close()

	var snap *emulator.Snapshot
	if config.CLIConfig.Runtime.Blocks {
		snap, err = emu.ExecuteBlocks(inf)
	} else {
		snap, err = emu.Execute(inf)
	}

	if named {
		fmt.Fprintf(out, "%v:\n", file)
	}
	if snap != nil {
		for name, value := range snap.Values() {
			fmt.Fprintf(out, "% 8s: %v\n", name, value)
		}
		fmt.Fprintf(out, "% 8s: %d\n", "ticks", snap.Ticks)
		fmt.Fprintf(out, "% 8s: %d\n", "cycles", snap.Cycles)
	}
	if err != nil {
		return report(file, err)
	}

	if len(stateFile) != 0 {
		err = saveState(emu)
	}

	return
}

func loadState(emu *emulator.Emulator) (err error) {
	inf, err := os.Open(stateFile)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
		return
	}
	if err != nil {
		return
	}
	defer inf.Close()

	state, err := emulator.LoadState(inf)
	if err != nil {
		return report(stateFile, err)
	}

	err = emu.Restore(state)
	if err != nil {
		return report(stateFile, err)
	}

	return
}

func saveState(emu *emulator.Emulator) (err error) {
	ouf, err := os.Create(stateFile)
	if err != nil {
		return
	}

	err = emu.State().Save(ouf)
	if err != nil {
		ouf.Close()
		return report(stateFile, err)
	}

	return ouf.Close()
}

// report prefixes err with its source and error kind.
func report(source string, err error) error {
	kind := cpu.KindOf(err)
	if len(kind) == 0 {
		return fmt.Errorf("%v: %w", source, err)
	}
	return fmt.Errorf("%v: %v: %w", source, kind, err)
}

// terminalWidth returns the width of w if it is a terminal, or 0.
func terminalWidth(w stdio.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !xterm.IsTerminal(int(file.Fd())) {
		return 0
	}

	width, _, err := xterm.GetSize(int(file.Fd()))
	if err != nil {
		return 0
	}

	return width
}
