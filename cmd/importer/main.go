// Command importer imports a directory from disk into the configured store
// as one new collection and prints the resulting tree.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"docvault/internal/config"
	"docvault/internal/domain"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/repository"
	serviceDocsys "docvault/internal/service/docsystem"
	"docvault/internal/service/docsystem/converter"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	flags := flag.NewFlagSet("importer", flag.ContinueOnError)
	flags.SetOutput(errOut)
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), "\nUsage:\n   importer [-name NAME] [-quiet] <DIRECTORY>\n\n")
		flags.PrintDefaults()
	}
	name := flags.String("name", "", "Collection name (default: derived from the imported paths)")
	quiet := flags.Bool("quiet", false, "Only print the collection id")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}
	dir := flags.Arg(0)

	_ = godotenv.Load()
	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg, "importer")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stores, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	defer stores.Close()

	entries, err := serviceDocsys.ReadDirectory(ctx, dir, cfg.MaxImportBytes)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", dir, err)
		return 1
	}

	analyzer := serviceDocsys.NewContentAnalyzer()
	importService := serviceDocsys.NewImportService(
		stores.Collections,
		stores.Nodes,
		converter.NewConverterRegistry(),
		serviceDocsys.NewFileProcessorRegistry(cfg.MaxImportBytes),
		analyzer,
		cfg.ImportWorkers,
		logger,
	)

	var progress docsysSvc.ProgressFunc
	if f, ok := out.(*os.File); ok && !*quiet && term.IsTerminal(int(f.Fd())) {
		progress = progressLine(out)
	}

	result, err := importService.Import(ctx, &docsysSvc.ImportRequest{
		Entries:        entries,
		CollectionName: *name,
		OnProgress:     progress,
	})
	if err != nil {
		fmt.Fprintf(errOut, "import failed: %v\n", err)
		if errors.Is(err, domain.ErrValidation) {
			return 2
		}
		return 1
	}

	if *quiet {
		fmt.Fprintln(out, result.CollectionID)
		return exitCode(result)
	}

	collectionService := serviceDocsys.NewCollectionService(stores.Collections, stores.Nodes, logger)
	tree, err := collectionService.GetTree(ctx, result.CollectionID)
	if err != nil {
		fmt.Fprintf(errOut, "load tree: %v\n", err)
		return 1
	}

	fmt.Fprint(out, renderTree(tree))
	fmt.Fprint(out, summary(result))
	return exitCode(result)
}

// progressLine redraws one status line per processed file
func progressLine(out io.Writer) docsysSvc.ProgressFunc {
	return func(p docsysSvc.Progress) {
		fmt.Fprintf(out, "\033[2K\r[%d/%d] %3.0f%% %s", p.Done, p.Total, p.Fraction*100, p.Path)
		if p.Done == p.Total {
			fmt.Fprint(out, "\033[2K\r")
		}
	}
}

func exitCode(result *docsysSvc.ImportResult) int {
	if result.Failed > 0 {
		return 3
	}
	return 0
}
