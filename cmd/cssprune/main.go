package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"cssprune/misc"
	"cssprune/prune"
	"cssprune/state"
)

const sourceHelp = `%s
SOURCE:
    HTML document(s) CSS is checked against:
        "[path_to_file]page.html" - single document
        "[path_to_directory]directory" - all .html, .htm and .xhtml files under directory, in natural order
        "[path_to_archive]archive.zip[path_in_archive]" - all documents in archive or under path in archive
        "[path_to_archive]archive.zip[path_in_archive]/page.html" - single document in archive
        "http(s)://host/page.html" - remote document
        "-" - single document from STDIN, references are relative to working directory

    Stylesheets are taken from <link rel="stylesheet"> elements unless --stylesheet
    is given. References of local documents are relative to the document directory
    (and --csspath), references of remote documents to the document URL.
    Scripts are never executed, documents are checked as they are.

    Resulting CSS goes to STDOUT (or --output FILE), log goes to STDERR.
`

const dumpConfigHelp = `%s

DESTINATION:
    file to write configuration to, if absent - STDOUT

Without --default produces "active" configuration: embedded defaults with
values from configuration file applied. Secret values (fetch headers) are masked.
`

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "removes CSS rules HTML documents do not use",
		Version:         fmt.Sprintf("%s (%s) : %s", misc.GetVersion(), runtime.Version(), misc.GetGitHash()),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log everything and pack logs, configuration and CSS into report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:               "prune",
				Usage:              "Outputs only CSS rules used by HTML document(s)",
				ArgsUsage:          "SOURCE...",
				OnUsageError:       usageErrorHandler,
				Flags:              prune.Flags(),
				Action:             prune.Run,
				CustomHelpTemplate: fmt.Sprintf(sourceHelp, cli.CommandHelpTemplate),
			},
			{
				Name:      "dumpconfig",
				Usage:     "Dumps either default or actual configuration (YAML)",
				ArgsUsage: "DESTINATION",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError:       usageErrorHandler,
				Action:             dumpConfiguration,
				CustomHelpTemplate: fmt.Sprintf(dumpConfigHelp, cli.CommandHelpTemplate),
			},
		},
	}
}

func main() {
	// remote fetches may take a while, let them be interrupted
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	err := newApp().Run(ctx, os.Args)
	stop()

	if err != nil {
		// log may be not ready yet (argument parsing) or already closed
		if !errWasHandled {
			fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		}
		os.Exit(1)
	}
}
