// Command dcpuasm assembles DCPU-16 1.7 source into a big-endian binary
// image.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dcpu16vm/dcpu16/asm"
	"github.com/dcpu16vm/dcpu16/image"
)

var version = "dev"

func main() {
	var output string
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:   "dcpuasm <input file>",
		Short: "Assemble DCPU-16 1.7 source into a binary image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println(version)
				return nil
			}
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			return assemble(args[0], output)
		},
	}
	rootCmd.Flags().StringVarP(&output, "output", "o", "output.bin", "output binary path")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print version and exit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func assemble(inputPath, outputPath string) error {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	words, err := asm.Assemble(string(src))
	if err != nil {
		var asmErr *asm.Error
		if errors.As(err, &asmErr) {
			log.Errorw("assembly failed",
				"line", asmErr.Line, "col", asmErr.Col, "len", asmErr.Len, "kind", asmErr.Kind.String())
			fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", inputPath, asmErr.Line, asmErr.Col, asmErr.Kind)
			return err
		}
		log.Errorw("assembly failed", "error", err)
		return err
	}

	if err := os.WriteFile(outputPath, image.Encode(words), 0o644); err != nil {
		return err
	}
	log.Infow("assembled", "input", inputPath, "output", outputPath, "words", len(words))
	return nil
}
