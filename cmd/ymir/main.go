// Command ymir is the compiler's CLI driver: a thin Cobra wrapper around
// pkg/ymir.Compile, grounded on QTest-hq-qtest/cmd/cli/main.go's
// cobra.Command-plus-subcommand shape and zerolog console bootstrap.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ymir-lang/ymir/internal/diag"
	"github.com/ymir-lang/ymir/pkg/ymir"
)

type osLoader struct{}

func (osLoader) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

var version = "dev"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:     "ymir",
		Short:   "Ymir compiles a declarative REST API description into scaffolds",
		Long:    "Ymir compiles a Ymir DSL script into an Express/Node handler base, a Spring-Boot controller scaffold, a go-chi server, and an optional static frontend.",
		Version: version,
	}

	rootCmd.AddCommand(compileCmd())
	rootCmd.AddCommand(targetsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func compileCmd() *cobra.Command {
	var (
		entryFile  string
		projectDir string
		targets    []string
		outDir     string
		check      bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a Ymir script into one or more targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				entryFile = args[0]
			}
			if entryFile == "" {
				return fmt.Errorf("an entry .ymr file is required")
			}

			log.Info().Str("entry", entryFile).Strs("targets", targets).Msg("compiling")

			result, err := ymir.Compile(ymir.Options{
				EntryFile:  entryFile,
				ProjectDir: projectDir,
				Targets:    targets,
				OutDir:     outDir,
				Check:      check,
				Write:      !dryRun,
			})
			if err != nil {
				if result != nil && len(result.Diagnostics) > 0 {
					renderer := diag.NewRenderer(osLoader{})
					for _, d := range result.Diagnostics {
						_ = renderer.Render(os.Stderr, d)
					}
				}
				return err
			}

			for target, files := range result.Files {
				log.Info().Str("target", target).Int("files", len(files)).Msg("emitted")
			}
			if check {
				if len(result.Changed) == 0 {
					fmt.Println("up to date")
				} else {
					fmt.Println(strings.Join(result.Changed, "\n"))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&entryFile, "file", "f", "", "entry .ymr file")
	cmd.Flags().StringVar(&projectDir, "project-dir", "", "directory ymir.json is read from (defaults to the entry file's directory)")
	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "targets to emit (repeatable); defaults to every registered target")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "override the output directory from ymir.json")
	cmd.Flags().BoolVar(&check, "check", false, "report which files would change without writing them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compile without writing any files")

	return cmd
}

func targetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the registered emission targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range ymir.DefaultRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}
}
