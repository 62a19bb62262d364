package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/wavelink/docpublish/network"
	"github.com/wavelink/docpublish/publish"
)

type app struct {
	logger   log.Logger
	sink     publish.StatusSink
	client   *network.Client
	selector publish.FileSelector
	opener   publish.LinkOpener
}

func (a *app) orchestrator() *publish.Orchestrator {
	return publish.NewOrchestrator(a.client, a.sink, nil, a.opener, a.logger)
}

// upload publishes every selected file, one independent attempt each.
func (a *app) upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: upload needs at least one path", errUsage)
	}

	files, err := a.selector.Select(args)
	if err != nil {
		a.sink.Alert(err.Error())
		return err
	}

	o := a.orchestrator()
	failed := 0
	for i := range files {
		a.logger.Println()
		o.Select(&files[i])
		if err := o.Upload(ctx); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(files))
	}
	a.logger.Donef("%d file(s) published", len(files))
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: list takes no arguments", errUsage)
	}
	return a.orchestrator().ListDocuments(ctx)
}

func (a *app) download(ctx context.Context, args []string, stderr io.Writer) error {
	flags := flag.NewFlagSet("download", flag.ContinueOnError)
	flags.SetOutput(stderr)
	outputDir := flags.String("o", "", "save the document into this directory instead of opening it in the browser")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %s", errUsage, err)
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("%w: download needs exactly one storage path", errUsage)
	}
	storagePath := flags.Arg(0)

	if *outputDir != "" {
		dir, err := filepath.Abs(*outputDir)
		if err != nil {
			return fmt.Errorf("%w: invalid output directory: %s", errUsage, err)
		}
		a.opener = publish.FileSaver{Downloader: a.client, Dir: dir}
	}

	item := publish.NewDocumentItem(filepath.Base(storagePath), storagePath)
	if err := a.orchestrator().Download(ctx, item); err != nil {
		return err
	}
	if *outputDir != "" {
		a.logger.Donef("Saved %s into %s", storagePath, *outputDir)
	}
	return nil
}
