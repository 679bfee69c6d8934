package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/Heetpatel09/TimeWise-sub001/core"
	"github.com/Heetpatel09/TimeWise-sub001/core/allocation"
	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	logger    core.Logger
	out       io.Writer
	openDB    func() (*sql.DB, error) // migrations only
	validate  *validator.Validate
	rosterSvc *roster.Service
	allocSvc  *allocation.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]        - run database migrations (up, up-by-one, up-to V, down, down-to V, redo, reset, status, version, create NAME [sql|go], fix)")
	fmt.Fprintln(cli.out, "  seed -file ROSTER.yaml        - load subjects, sections and teachers from a YAML roster")
	fmt.Fprintln(cli.out, "  allocate [-save] [-json]      - allocate sections to teachers and print the result")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedCmd.SetOutput(cli.out)
	seedFile := seedCmd.String("file", "", "Path to the YAML roster to load.")

	allocateCmd := flag.NewFlagSet("allocate", flag.ContinueOnError)
	allocateCmd.SetOutput(cli.out)
	allocateSave := allocateCmd.Bool("save", false, "Save the allocation and merge it into teacher qualifications.")
	allocateJSON := allocateCmd.Bool("json", false, "Print JSON (default when stdout is not a terminal).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *seedFile == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(*seedFile)
	case "allocate":
		if err := allocateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		asJSON := *allocateJSON || !isTerminalFunc(int(os.Stdout.Fd()))
		return cli.allocate(*allocateSave, asJSON)
	default:
		cli.printUsage()
		return errHelp
	}
}
