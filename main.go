package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
	"github.com/irqpolicy/irqpolicy/internal/cli"
	"github.com/irqpolicy/irqpolicy/internal/eventbus"
	"github.com/irqpolicy/irqpolicy/internal/export"
	"github.com/irqpolicy/irqpolicy/internal/policy"
	"github.com/irqpolicy/irqpolicy/internal/store"
	"github.com/irqpolicy/irqpolicy/internal/watch"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "isr":
		err = runISR(os.Args[2:])
	case "rule":
		err = runRule(os.Args[2:])
	case "compile":
		err = runCompile(os.Args[2:])
	case "review":
		err = runReview(os.Args[2:])
	case "history":
		err = runHistory(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "version":
		fmt.Fprintf(os.Stderr, "irqpolicy %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore opens the workspace database and seeds it on first use: from
// the workspace catalogs file when present, else the built-in seed.
func openStore(dir string, logger *slog.Logger) (*store.SQLiteStore, *catalog.Catalogs, error) {
	st, err := store.NewSQLiteStore(filepath.Join(dir, cli.DatabaseFileName), logger)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	c, err := st.LoadCatalogs(ctx)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if len(c.ISRs) == 0 && len(c.Rules) == 0 {
		c = catalog.Seed()
		if fileC, fileErr := catalog.Load(filepath.Join(dir, cli.CatalogFileName)); fileErr == nil {
			c = fileC
		}
		if err := st.SaveCatalogs(ctx, c); err != nil {
			st.Close()
			return nil, nil, err
		}
		logger.Info("seeded catalog store", "isrs", len(c.ISRs), "rules", len(c.Rules))
	}
	return st, c, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dir := fs.String("dir", cli.DefaultWorkspace(), "workspace directory")
	fs.Parse(args)
	return cli.RunInit(*dir)
}

func runISR(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: irqpolicy isr add|rm|list [options]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("isr "+sub, flag.ExitOnError)
	dir := fs.String("dir", cli.DefaultWorkspace(), "workspace directory")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	id := fs.String("id", "", "ISR id (generated when empty on add)")
	fn := fs.String("fn", "", "ISR function symbol")
	priority := fs.Int("priority", 0, "priority, 0 = highest")
	hw := fs.String("hw", "-1", "hardware vector id (number or symbolic token, -1 = none)")
	desc := fs.String("desc", "", "free-text description")
	fs.Parse(rest)

	logger := newLogger(*logLevel)
	st, c, err := openStore(*dir, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()

	switch sub {
	case "add":
		d, err := c.AddISR(catalog.ISRDescriptor{
			ID: *id, FunctionName: *fn, Priority: *priority, HardwareID: *hw, Description: *desc,
		})
		if err != nil {
			return err
		}
		if err := st.AddISR(ctx, d); err != nil {
			return err
		}
		fmt.Printf("added ISR %s (%s)\n", d.ID, d.FunctionName)
	case "rm":
		if *id == "" {
			return fmt.Errorf("isr rm: -id is required")
		}
		found, err := st.DeleteISR(ctx, *id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("isr rm: no ISR with id %q", *id)
		}
		fmt.Printf("deleted ISR %s (stale rule links cleared)\n", *id)
	case "list":
		fmt.Printf("%-14s %-24s %8s  %s\n", "ID", "FUNCTION", "PRIORITY", "HW")
		for _, d := range c.ISRs {
			fmt.Printf("%-14s %-24s %8d  %v\n", d.ID, d.FunctionName, d.Priority, d.CanonicalHardwareID())
		}
	default:
		return fmt.Errorf("unknown isr subcommand %q", sub)
	}
	return nil
}

func runRule(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: irqpolicy rule add|rm|list [options]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("rule "+sub, flag.ExitOnError)
	dir := fs.String("dir", cli.DefaultWorkspace(), "workspace directory")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	id := fs.String("id", "", "rule id (generated when empty on add)")
	mode := fs.String("mode", "FUNCTION_CALL", "FUNCTION_CALL or REGISTER_WRITE")
	identifier := fs.String("identifier", "", "function or register symbol to match")
	pattern := fs.String("pattern", "SIMPLE", "SIMPLE, ARG_MATCH, ARG_AS_ID, WRITE_VAL, BITWISE_MASK or REG_BIT_MAPPING")
	argIndex := fs.Int("arg-index", 0, "argument index for ARG_MATCH / ARG_AS_ID")
	match := fs.String("match", "", "literal for ARG_MATCH / WRITE_VAL / BITWISE_MASK")
	bitMode := fs.String("bit-mode", "", "FIXED or DYNAMIC (REG_BIT_MAPPING)")
	bitIndex := fs.Int("bit-index", 0, "bit index 0-63 (REG_BIT_MAPPING, FIXED)")
	polarity := fs.String("polarity", "", "1_DISABLES or 0_DISABLES (REG_BIT_MAPPING)")
	action := fs.String("action", "DISABLE", "ENABLE or DISABLE")
	scope := fs.String("scope", "GLOBAL", "GLOBAL or SPECIFIC")
	link := fs.String("link", "", "linked ISR id for SPECIFIC scope")
	fs.Parse(rest)

	logger := newLogger(*logLevel)
	st, c, err := openStore(*dir, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()

	switch sub {
	case "add":
		r, err := c.AddRule(catalog.ControlRule{
			ID: *id, Mode: catalog.Mode(*mode), Identifier: *identifier,
			Pattern: catalog.Pattern(*pattern), ArgIndex: *argIndex, MatchValue: *match,
			RegBitMode: catalog.BitMode(*bitMode), RegBitIndex: *bitIndex,
			RegPolarity: catalog.Polarity(*polarity), Action: catalog.RuleAction(*action),
			TargetScope: catalog.Scope(*scope), LinkedISRID: *link,
		})
		if err != nil {
			return err
		}
		if err := st.AddRule(ctx, r); err != nil {
			return err
		}
		fmt.Printf("added rule %s: %s\n", r.ID, policy.DescribeRule(r, c))
	case "rm":
		if *id == "" {
			return fmt.Errorf("rule rm: -id is required")
		}
		found, err := st.DeleteRule(ctx, *id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("rule rm: no rule with id %q", *id)
		}
		fmt.Printf("deleted rule %s\n", *id)
	case "list":
		fmt.Printf("%-20s %-16s %-20s %-16s %s\n", "ID", "MODE", "IDENTIFIER", "PATTERN", "TARGET")
		for _, r := range c.Rules {
			fmt.Printf("%-20s %-16s %-20s %-16s %s\n", r.ID, r.Mode, r.Identifier, r.Pattern, c.TargetDetail(r))
		}
	default:
		return fmt.Errorf("unknown rule subcommand %q", sub)
	}
	return nil
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	dir := fs.String("dir", cli.DefaultWorkspace(), "workspace directory")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	file := fs.String("file", "", "compile a catalogs YAML file instead of the workspace store")
	out := fs.String("o", "", "output path (default <workspace>/policy.json, '-' for stdout)")
	project := fs.String("project", "firmware", "meta.project in the document header")
	note := fs.String("note", "", "meta.note in the document header")
	fs.Parse(args)

	logger := newLogger(*logLevel)
	st, c, err := openStore(*dir, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()

	if *file != "" {
		c, err = catalog.Load(*file)
		if err != nil {
			return err
		}
	}

	doc := policy.Compile(c)
	doc.Meta = export.NewMeta(*project, *note)

	outPath := *out
	if outPath == "" {
		outPath = filepath.Join(*dir, cli.PolicyFileName)
	}

	var size int
	if outPath == "-" {
		data, err := export.Render(doc)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		size = len(data)
		outPath = ""
	} else {
		size, err = export.WriteFile(outPath, doc)
		if err != nil {
			return err
		}
		logger.Info("policy compiled",
			"isrs", len(doc.InterruptVectors), "rules", len(doc.ControlRules), "out", outPath)
	}

	return st.RecordCompile(ctx, &store.CompileRecord{
		Timestamp:  time.Now(),
		ISRCount:   len(doc.InterruptVectors),
		RuleCount:  len(doc.ControlRules),
		OutputPath: outPath,
		SizeBytes:  int64(size),
	})
}

func runReview(args []string) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	dir := fs.String("dir", cli.DefaultWorkspace(), "workspace directory")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	file := fs.String("file", "", "review a catalogs YAML file instead of the workspace store")
	fs.Parse(args)

	logger := newLogger(*logLevel)
	st, c, err := openStore(*dir, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if *file != "" {
		c, err = catalog.Load(*file)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Interrupt vectors (%d):\n", len(c.ISRs))
	for _, d := range c.ISRs {
		fmt.Printf("  %-24s priority %d, vector %v", d.FunctionName, d.Priority, d.CanonicalHardwareID())
		if d.Description != "" {
			fmt.Printf("  (%s)", d.Description)
		}
		fmt.Println()
	}

	fmt.Printf("\nControl rules (%d):\n", len(c.Rules))
	for _, r := range c.Rules {
		fmt.Printf("  %-20s %s\n", r.ID, policy.DescribeRule(r, c))
	}

	if warnings := policy.Lint(c); len(warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  %-20s %s\n", w.RuleID, w.Message)
		}
	}
	return nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dir := fs.String("dir", cli.DefaultWorkspace(), "workspace directory")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	n := fs.Int("n", 10, "number of entries")
	fs.Parse(args)

	logger := newLogger(*logLevel)
	st, _, err := openStore(*dir, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.History(context.Background(), *n)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no compiles recorded yet")
		return nil
	}
	for _, rec := range records {
		out := rec.OutputPath
		if out == "" {
			out = "(stdout)"
		}
		fmt.Printf("%-16s %3d ISRs %3d rules  %-8s  %s\n",
			humanize.Time(rec.Timestamp), rec.ISRCount, rec.RuleCount,
			humanize.Bytes(uint64(rec.SizeBytes)), out)
	}
	return nil
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dir := fs.String("dir", cli.DefaultWorkspace(), "workspace directory")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	file := fs.String("file", "", "catalogs YAML to watch (default <workspace>/catalogs.yaml)")
	out := fs.String("o", "", "output path (default <workspace>/policy.json)")
	project := fs.String("project", "firmware", "meta.project in the document header")
	debounce := fs.Duration("debounce", 300*time.Millisecond, "settle time after an edit burst")
	fs.Parse(args)

	logger := newLogger(*logLevel)

	catalogPath := *file
	if catalogPath == "" {
		catalogPath = filepath.Join(*dir, cli.CatalogFileName)
	}
	outPath := *out
	if outPath == "" {
		outPath = filepath.Join(*dir, cli.PolicyFileName)
	}

	st, _, err := openStore(*dir, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	bus := eventbus.New(64)
	events, unsub := bus.Subscribe("main")
	defer unsub()
	go func() {
		for ev := range events {
			logger.Debug("event", "type", string(ev.Type), "path", ev.Path, "detail", ev.Detail)
		}
	}()

	w, err := watch.New(watch.Config{
		CatalogPath: catalogPath,
		OutputPath:  outPath,
		Project:     *project,
		Debounce:    *debounce,
	}, bus, st, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("watching catalogs", "file", catalogPath, "out", outPath)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "irqpolicy — interrupt control policy compiler")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  irqpolicy init [-dir path]                 Create the workspace and seed catalogs")
	fmt.Fprintln(os.Stderr, "  irqpolicy isr add|rm|list [options]        Edit the ISR catalog")
	fmt.Fprintln(os.Stderr, "  irqpolicy rule add|rm|list [options]       Edit the control rule catalog")
	fmt.Fprintln(os.Stderr, "  irqpolicy compile [options]                Compile the policy document")
	fmt.Fprintln(os.Stderr, "  irqpolicy review [options]                 Human-readable catalogs and warnings")
	fmt.Fprintln(os.Stderr, "  irqpolicy history [-n count]               Recent compiles")
	fmt.Fprintln(os.Stderr, "  irqpolicy watch [options]                  Recompile on every catalogs edit")
	fmt.Fprintln(os.Stderr, "  irqpolicy version                          Print version")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Examples:")
	fmt.Fprintln(os.Stderr, "  irqpolicy isr add -fn USART1_IRQHandler -priority 5 -hw 37")
	fmt.Fprintln(os.Stderr, "  irqpolicy rule add -identifier HAL_UART_DisableIT -action DISABLE -scope SPECIFIC -link <isr-id>")
	fmt.Fprintln(os.Stderr, "  irqpolicy compile -o policy.json")
	fmt.Fprintln(os.Stderr, "  irqpolicy watch -file catalogs.yaml -o policy.json")
}
