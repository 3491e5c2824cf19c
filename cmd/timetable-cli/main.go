package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "timetable-cli"
	app.Usage = "generate university timetables offline"
	app.Version = Version
	app.Writer = out
	app.Commands = []*cli.Command{&generateCommand}
	return app
}

var (
	fileFlag = &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "path to the JSON problem (grid, rooms, studentGroups, activities)",
		Required: true,
	}
	budgetFlag = &cli.IntFlag{
		Name:  "budget",
		Usage: "maximum backtrack steps before the search gives up",
		Value: scheduler.DefaultSearchBudget,
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "output format: table or csv",
		Value: "table",
	}
)

var generateCommand = cli.Command{
	Name:   "generate",
	Usage:  "Run the scheduler over a problem file and print the timetable",
	Flags:  []cli.Flag{fileFlag, budgetFlag, formatFlag},
	Action: generateAction,
}

func generateAction(ctx *cli.Context) error {
	format := ctx.String(formatFlag.Name)
	if format != "table" && format != "csv" {
		return fmt.Errorf("unsupported format %q", format)
	}

	problem, err := readProblem(ctx.String(fileFlag.Name))
	if err != nil {
		return err
	}
	grid, err := problem.grid()
	if err != nil {
		return fmt.Errorf("invalid grid: %w", err)
	}

	runCtx := ctx.Context
	if runCtx == nil {
		runCtx = context.Background()
	}
	engine := scheduler.New(grid, scheduler.Options{SearchBudget: ctx.Int(budgetFlag.Name)})
	result, err := engine.Run(runCtx, problem.schedulerInput())
	if err != nil {
		return err
	}

	data := entryDataset(grid, problem.Activities, result)
	if format == "csv" {
		return writeCSV(ctx.App.Writer, data)
	}
	return writeTable(ctx.App.Writer, data, result)
}
