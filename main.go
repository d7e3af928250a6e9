package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/ardanlabs/sdlgen/config"
	"github.com/ardanlabs/sdlgen/diag"
	"github.com/ardanlabs/sdlgen/driver"
)

// Exit codes.
const (
	exitOK          = 0
	exitDiagnostics = 1
	exitIO          = 2
	exitUsage       = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr *os.File) int {
	app := kingpin.New("sdlgen", "Generate Go bindings for the SDL headers through purego.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(nil)

	gen := app.Command("generate", "Parse the headers and write the bindings.")
	headers := gen.Flag("headers", "Directory holding the C headers.").Required().String()
	out := gen.Flag("out", "Directory the Go files are written to.").Required().String()
	targetMap := gen.Flag("target-map", "YAML file mapping target macros to Go build constraints.").String()
	skipIdents := gen.Flag("skip-idents", "YAML file listing identifiers the parser drops.").String()
	roots := gen.Flag("root", "Header to bind, relative to --headers. Repeatable; all headers when omitted.").Strings()
	include := gen.Flag("include", "Extra #include search directory. Repeatable.").Short('I').Strings()
	pkg := gen.Flag("package", "Go package name of the bindings.").Default("sdl").String()
	lib := gen.Flag("lib", "Base name of the shared library.").Default("SDL3").String()
	strict := gen.Flag("strict-redefine", "Treat differing macro redefinitions as errors.").Bool()
	verbose := gen.Flag("verbose", "Log every header and file.").Short('v').Bool()

	cmd, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "sdlgen: %v\n", err)
		return exitUsage
	}
	if cmd != gen.FullCommand() {
		return exitOK
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*targetMap, *skipIdents)
	if err != nil {
		fmt.Fprintf(stderr, "sdlgen: loading configuration: %v\n", err)
		if errors.Is(err, fs.ErrNotExist) {
			return exitIO
		}
		return exitUsage
	}

	res, err := driver.Run(driver.Options{
		Headers: *headers,
		Out:     *out,
		Roots:   *roots,
		Include: *include,
		Config:  cfg,
		Package: *pkg,
		Library: *lib,
		Strict:  *strict,
		Log:     log,
	})

	if res.Diagnostics != nil {
		if perr := diag.NewPrinter(stderr).PrintAll(res.Diagnostics); perr != nil {
			log.Error("printing diagnostics", "error", perr)
		}
	}

	var derr *driver.Error
	switch {
	case errors.As(err, &derr) && derr.Kind == driver.KindIO:
		fmt.Fprintf(stderr, "sdlgen: %v\n", err)
		return exitIO
	case err != nil:
		fmt.Fprintf(stderr, "sdlgen: %v\n", err)
		return exitDiagnostics
	case res.Diagnostics.ErrorCount() > 0:
		fmt.Fprintf(stderr, "sdlgen: %s\n", res.Diagnostics.Summary())
		return exitDiagnostics
	}
	return exitOK
}
