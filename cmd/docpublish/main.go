// Command docpublish publishes documents through signed storage URLs issued by the application server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/wavelink/docpublish/envconf"
	"github.com/wavelink/docpublish/publish"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

const usage = `Usage:
  docpublish upload <path|pattern>...
  docpublish list
  docpublish download [-o dir] <storage_path>

Configuration is read from the environment (and a .env file):
  DOCPUBLISH_API_URL             application server base URL (required)
  DOCPUBLISH_LINK_CONTRACT       explicit (default) or signed_url
  DOCPUBLISH_UPLOAD_LINK_PATH    default /api/get-upload-link
  DOCPUBLISH_RECORD_PATH         default /api/record-document
  DOCPUBLISH_DOCUMENTS_PATH      default /api/get-documents
  DOCPUBLISH_DOWNLOAD_LINK_PATH  default /api/get-download-link
  DOCPUBLISH_VERBOSE             print debug logs
`

func main() {
	os.Exit(run(os.Args[1:], env.NewRepository(), os.Stderr))
}

func run(args []string, envRepo env.Repository, stderr io.Writer) int {
	logger := log.NewLogger()

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	if err := loadDotEnv(); err != nil {
		logger.Errorf("%s", err)
		return exitUsage
	}
	config, err := parseConfig(envRepo)
	if err != nil {
		logger.Errorf("%s", err)
		return exitUsage
	}
	logger.EnableDebugLog(config.Verbose)
	logger.Debugf("Config:\n%s", envconf.Print(config))

	client, err := newClient(config, logger)
	if err != nil {
		logger.Errorf("%s", err)
		return exitUsage
	}

	app := &app{
		logger: logger,
		sink:   publish.NewLoggerSink(logger),
		client: client,
		selector: publish.NewFileSelector(
			logger,
			pathutil.NewPathModifier(),
			pathutil.NewPathChecker(),
		),
	}

	ctx := context.Background()
	switch args[0] {
	case "upload":
		err = app.upload(ctx, args[1:])
	case "list":
		err = app.list(ctx, args[1:])
	case "download":
		err = app.download(ctx, args[1:], stderr)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		logger.Errorf("%s", err)
		fmt.Fprint(stderr, usage)
		return exitUsage
	default:
		logger.Debugf("%s", err)
		return exitFail
	}
}
