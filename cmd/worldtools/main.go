// Command worldtools converts region files between the legacy, standard and
// anvil region formats.
//
//	worldtools [flags] <command> [args]
//
// Run "worldtools help" for a list of commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/mckt-minecraft/worldtools/convert"
	"github.com/mckt-minecraft/worldtools/world/region"
	"github.com/spf13/pflag"
)

const baseUsage = "Usage: worldtools"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError makes the process exit with code after the reason was already
// reported.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// env is what commands run with.
type env struct {
	ctx    context.Context
	log    *slog.Logger
	conf   convert.Config
	stdout io.Writer
}

type command struct {
	name, usage, short, long string
	// minArgs is the number of arguments below which the usage of the
	// command is shown instead of running it.
	minArgs int
	run     func(e env, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{
			name:    "convert",
			usage:   "<in-format> <in-file> <out-format> <out-file>",
			short:   "Convert from one save format to another.",
			long:    "If <in-file> is a directory, every region file in it is converted into the directory <out-file>. Formats: " + formatNames() + ".",
			minArgs: 4,
			run:     runConvert,
		},
		{
			name:    "inspect",
			usage:   "<format> <file> [<x> <z>]",
			short:   "Summarise the chunks of a region file.",
			long:    "With a chunk position, the palette of every section of that chunk is listed.",
			minArgs: 2,
			run:     runInspect,
		},
		{
			name:  "help",
			usage: "[command]",
			short: "Get help on commands.",
			long:  "Specify a command to view specific help.",
			run:   runHelp,
		},
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("worldtools", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to a TOML configuration file, created with defaults if missing")
	logLevel := flags.String("log-level", "", "minimum level of log messages: debug, info, warn or error")
	workers := flags.Int("workers", 0, "number of region files converted at the same time")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	uc := convert.DefaultConfig()
	if *configPath != "" {
		var err error
		if uc, err = convert.LoadUserConfig(*configPath); err != nil {
			return err
		}
	}
	if flags.Changed("log-level") {
		uc.Log.Level = *logLevel
	}
	if flags.Changed("workers") {
		uc.Convert.Workers = *workers
	}
	level, err := uc.LogLevel()
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	conf, err := uc.Config(log)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	e := env{ctx: ctx, log: log, conf: conf, stdout: stdout}

	rest := flags.Args()
	if len(rest) == 0 {
		log.Info(baseUsage + " <command> [args] ...")
		return runHelp(e, nil)
	}
	cmd, ok := lookup(rest[0])
	if !ok {
		log.Error("Unknown command.", "command", rest[0])
		return exitError{code: 1}
	}
	if len(rest)-1 < cmd.minArgs {
		printHelp(cmd, func(s string) { log.Error(s) })
		return exitError{code: 1}
	}
	return cmd.run(e, rest[1:])
}

func lookup(name string) (command, bool) {
	i := slices.IndexFunc(commands, func(c command) bool { return strings.EqualFold(c.name, name) })
	if i == -1 {
		return command{}, false
	}
	return commands[i], true
}

func runHelp(e env, args []string) error {
	if len(args) == 0 {
		e.log.Info("Summary of commands:")
		width := 0
		for _, c := range commands {
			width = max(width, len(c.name))
		}
		for _, c := range commands {
			e.log.Info(fmt.Sprintf("  + %-*s -- %s", width, c.name, c.short))
		}
		return nil
	}
	cmd, ok := lookup(args[0])
	if !ok {
		e.log.Error("Unknown command.", "command", args[0])
		return exitError{code: 1}
	}
	printHelp(cmd, func(s string) { e.log.Info(s) })
	return nil
}

func printHelp(cmd command, log func(string)) {
	log(strings.TrimSpace(baseUsage + " " + cmd.name + " " + cmd.usage))
	if cmd.long == "" {
		log(cmd.short)
		return
	}
	log(strings.TrimSuffix(cmd.short, ".") + ". " + cmd.long)
}

func formatNames() string {
	names := make([]string, 0, 3)
	for _, f := range region.Formats() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

// parseFormat looks up a format named by the user, reporting unknown names.
func parseFormat(log *slog.Logger, name string) (region.Format, error) {
	f, err := region.FormatByName(name)
	if err != nil {
		log.Error("Unknown save format.", "format", name, "known", formatNames())
		return 0, exitError{code: 1}
	}
	return f, nil
}

func runConvert(e env, args []string) error {
	from, err := parseFormat(e.log, args[0])
	if err != nil {
		return err
	}
	to, err := parseFormat(e.log, args[2])
	if err != nil {
		return err
	}
	in, out := args[1], args[3]
	fi, err := os.Stat(in)
	if err != nil {
		e.log.Error("Cannot read input.", "file", in, "error", err)
		return exitError{code: 1}
	}

	conv := e.conf.New()
	if !fi.IsDir() {
		if err := conv.Convert(from, to, in, out); err != nil {
			return exitError{code: 1}
		}
		return nil
	}
	res, err := conv.ConvertBatch(e.ctx, from, to, in, out)
	if err != nil {
		e.log.Error("Batch conversion stopped.", "error", err)
		return exitError{code: 1}
	}
	if res.Failed > 0 {
		return exitError{code: 1}
	}
	return nil
}
