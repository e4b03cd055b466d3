package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/recalc"
	"bilancio/internal/repair"
)

const commandTimeout = 30 * time.Minute

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentCLI)

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "recalc":
		os.Exit(runRecalc(logger, args))
	case "recalc-from":
		os.Exit(runRecalcFrom(logger, args))
	case "finalize":
		os.Exit(runFinalize(logger, args))
	case "delete-month":
		os.Exit(runDeleteMonth(logger, args))
	case "fix-precision", "remap-orphans", "validate", "repair-index":
		os.Exit(runRepair(logger, cmd, args))
	case "enqueue":
		os.Exit(runEnqueue(logger, args))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Bilancio ledger recalculation")
	fmt.Println("\nUsage:")
	fmt.Println("  bilancio <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  recalc         Recalculate the given budgets, or every budget with -all")
	fmt.Println("  recalc-from    Recalculate one budget from a month onwards")
	fmt.Println("  finalize       Commit a month's allocations and recalculate")
	fmt.Println("  delete-month   Delete a month document and recalculate")
	fmt.Println("  fix-precision  Round drifting stored amounts to the cent")
	fmt.Println("  remap-orphans  Point unknown account and category ids at the sentinels")
	fmt.Println("  validate       Report data problems without changing anything")
	fmt.Println("  repair-index   Reconcile each budget's month index with stored months")
	fmt.Println("  enqueue        Queue a recalculation request for the worker")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'bilancio <command> -h' for more information on a command.")
}

// setup loads config, opens the store and wires the engine. The returned
// cleanup closes the store.
func setup(logger *log.Logger) (context.Context, context.CancelFunc, *cli.Engine, func()) {
	cfg := cli.LoadAndValidateConfig(logger)
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	ctx = log.NewContext(ctx, logger)

	res := cli.OpenStore(ctx, logger, cfg)
	engine := cli.NewEngine(cfg, res, logger)
	cleanup := func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	}
	return ctx, cancel, engine, cleanup
}

func runRecalc(logger *log.Logger, args []string) int {
	fs := flag.NewFlagSet("recalc", flag.ExitOnError)
	all := fs.Bool("all", false, "Recalculate every stored budget")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: bilancio recalc [-all] [budget-id ...]")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *all == (fs.NArg() > 0) {
		fs.Usage()
		return 2
	}

	ctx, cancel, engine, cleanup := setup(logger)
	defer cancel()
	defer cleanup()

	var (
		res *recalc.Result
		err error
	)
	if *all {
		res, err = engine.Orchestrator.RecalculateAll(ctx)
	} else {
		res, err = engine.Orchestrator.RecalculateBudgets(ctx, fs.Args())
	}
	if err != nil {
		return printError(logger, err)
	}
	if !res.OK() {
		return printResult(logger, res, fmt.Errorf("%d of %d budgets failed", res.Failed, res.Failed+res.Processed))
	}
	return printResult(logger, res, nil)
}

func runRecalcFrom(logger *log.Logger, args []string) int {
	fs := flag.NewFlagSet("recalc-from", flag.ExitOnError)
	budgetID := fs.String("budget", "", "Budget id")
	var from yearMonthFlag
	fs.Var(&from, "from", "First month to recalculate (YYYY-MM)")
	fs.Parse(args)

	if *budgetID == "" || !from.set {
		fmt.Fprintln(os.Stderr, "Usage: bilancio recalc-from -budget ID -from YYYY-MM")
		return 2
	}

	ctx, cancel, engine, cleanup := setup(logger)
	defer cancel()
	defer cleanup()

	res, err := engine.Orchestrator.RecalculateFrom(ctx, *budgetID, from.ym)
	if err != nil {
		return printError(logger, err)
	}
	return printResult(logger, res, nil)
}

func runFinalize(logger *log.Logger, args []string) int {
	fs := flag.NewFlagSet("finalize", flag.ExitOnError)
	budgetID := fs.String("budget", "", "Budget id")
	var month yearMonthFlag
	fs.Var(&month, "month", "Month to finalize (YYYY-MM)")
	allocs := allocationFlag{}
	fs.Var(allocs, "alloc", "Allocation as category=amount; repeatable")
	fs.Parse(args)

	if *budgetID == "" || !month.set {
		fmt.Fprintln(os.Stderr, "Usage: bilancio finalize -budget ID -month YYYY-MM [-alloc category=amount ...]")
		return 2
	}

	ctx, cancel, engine, cleanup := setup(logger)
	defer cancel()
	defer cleanup()

	res, err := engine.Orchestrator.FinalizeAllocations(ctx, *budgetID, month.ym, allocs)
	if err != nil {
		return printError(logger, err)
	}
	return printResult(logger, res, nil)
}

func runDeleteMonth(logger *log.Logger, args []string) int {
	fs := flag.NewFlagSet("delete-month", flag.ExitOnError)
	budgetID := fs.String("budget", "", "Budget id")
	var month yearMonthFlag
	fs.Var(&month, "month", "Month to delete (YYYY-MM)")
	fs.Parse(args)

	if *budgetID == "" || !month.set {
		fmt.Fprintln(os.Stderr, "Usage: bilancio delete-month -budget ID -month YYYY-MM")
		return 2
	}

	ctx, cancel, engine, cleanup := setup(logger)
	defer cancel()
	defer cleanup()

	res, err := engine.Orchestrator.DeleteMonth(ctx, *budgetID, month.ym)
	if err != nil {
		return printError(logger, err)
	}
	return printResult(logger, res, nil)
}

func runRepair(logger *log.Logger, cmd string, args []string) int {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bilancio %s [budget-id ...]\nWithout ids every stored budget is processed.\n", cmd)
	}
	fs.Parse(args)

	ctx, cancel, engine, cleanup := setup(logger)
	defer cancel()
	defer cleanup()

	var pass func(context.Context, []string) (*repair.Report, error)
	switch cmd {
	case "fix-precision":
		pass = engine.Repairer.FixPrecision
	case "remap-orphans":
		pass = engine.Repairer.RemapOrphans
	case "validate":
		pass = engine.Repairer.Validate
	default:
		pass = engine.Repairer.RepairIndex
	}

	rep, err := pass(ctx, fs.Args())
	if err != nil {
		return printError(logger, err)
	}
	if rep.Failed > 0 {
		return printResult(logger, rep, fmt.Errorf("%s failed for %d budgets", cmd, rep.Failed))
	}
	return printResult(logger, rep, nil)
}

func runEnqueue(logger *log.Logger, args []string) int {
	fs := flag.NewFlagSet("enqueue", flag.ExitOnError)
	budgetID := fs.String("budget", "", "Budget id")
	var from yearMonthFlag
	fs.Var(&from, "from", "Recalculate from this month (YYYY-MM); full recalculation when omitted")
	fs.Parse(args)

	if *budgetID == "" {
		fmt.Fprintln(os.Stderr, "Usage: bilancio enqueue -budget ID [-from YYYY-MM]")
		return 2
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return 1
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to enqueue requests")
		return 1
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return 1
	}
	defer client.Close()

	var fromPtr *core.YearMonth
	if from.set {
		fromPtr = &from.ym
	}
	msg := amqp.NewRecalcRequestMessage(*budgetID, fromPtr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.PublishRecalcRequest(ctx, msg); err != nil {
		logger.Error("Failed to enqueue recalculation", log.FieldError, err, log.FieldBudgetID, *budgetID)
		return 1
	}

	logger.Info("Recalculation enqueued",
		log.FieldOperation, log.OpEnqueue,
		log.FieldMessageID, msg.ID,
		log.FieldBudgetID, *budgetID)
	return printResult(logger, msg, nil)
}

// printError reports a failed command. Per-budget error entries are written
// to stdout like a result so scripts can read them.
func printError(logger *log.Logger, err error) int {
	var budgetErr *recalc.BudgetError
	if errors.As(err, &budgetErr) {
		return printResult(logger, budgetErr.Entries, err)
	}
	logger.Error("Command failed", log.FieldError, err)
	return 1
}

// printResult writes out as indented JSON and maps err to the exit code.
func printResult(logger *log.Logger, out any, err error) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		logger.Error("Failed to write result", log.FieldError, encErr)
		return 1
	}
	if err != nil {
		logger.Error("Command failed", log.FieldError, err)
		return 1
	}
	return 0
}
