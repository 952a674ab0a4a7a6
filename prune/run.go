package prune

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"cssprune/common"
	"cssprune/config"
	"cssprune/document"
	"cssprune/state"
)

// Flags returns command line flags of prune command.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "stylesheet", Aliases: []string{"s"},
			Usage: "use stylesheet from `URL_OR_FILE` instead of those referenced by documents (may be repeated)"},
		&cli.StringFlag{Name: "raw", Usage: "additional `CSS` text to process"},
		&cli.StringSliceFlag{Name: "ignore", Aliases: []string{"i"},
			Usage: "always keep `SELECTOR`, \"/.../\" is a regular expression (may be repeated)"},
		&cli.StringFlag{Name: "csspath", Usage: "`PATH` inserted between local document directory and stylesheet reference"},
		&cli.DurationFlag{Name: "timeout", Usage: "`DURATION` limit for fetching single remote resource"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write resulting CSS to `FILE` instead of STDOUT"},
		&cli.StringFlag{Name: "style", Value: common.OutputStylePretty.String(),
			Usage: "output `STYLE` (supported styles: " + strings.Join(common.OutputStyleNames(), ", ") + ")"},
		&cli.BoolFlag{Name: "report-stats", Usage: "log statistics of removed rules and selectors"},
		&cli.BoolFlag{Name: "inline-styles", Usage: "also process <style> elements of the documents"},
		&cli.StringFlag{Name: "force-charset",
			Usage: "Force `ENCODING` for ALL processed documents (see IANA.org for character set names)"},
	}
}

// Run is the action of prune command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("prune")

	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("no input source has been specified")
	}

	env.Style = env.Cfg.Output.Style
	if cmd.IsSet("style") {
		if env.Style, err = common.ParseOutputStyle(cmd.String("style")); err != nil {
			log.Warn("Unknown output style requested, switching to pretty", zap.Error(err))
			env.Style = common.OutputStylePretty
		}
	}
	env.ReportStats = cmd.Bool("report-stats")

	opts := optionsFromConfig(env.Cfg)
	opts.Stylesheets = cmd.StringSlice("stylesheet")
	opts.Raw = cmd.String("raw")
	opts.Ignore = append(opts.Ignore, cmd.StringSlice("ignore")...)
	if cmd.IsSet("csspath") {
		opts.CSSPath = cmd.String("csspath")
	}
	if cmd.IsSet("timeout") {
		opts.Fetch.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("inline-styles") {
		opts.InlineStyles = cmd.Bool("inline-styles")
	}
	if cp := cmd.String("force-charset"); cp != "" {
		opts.ForceCharset = cp
	}
	if opts.ForceCharset != "" {
		// documents may lie about their encoding, let user decide
		if enc, err := ianaindex.IANA.Encoding(opts.ForceCharset); err != nil || enc == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", opts.ForceCharset), zap.Error(err))
			opts.ForceCharset = ""
		} else {
			n, _ := ianaindex.IANA.Name(enc)
			log.Debug("Forcefully decoding all documents", zap.String("charset", n))
		}
	}

	dst := cmd.String("output")

	log.Info("Processing starting", zap.Strings("sources", sources), zap.Stringer("style", env.Style))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	res, err := Process(ctx, sources, opts, log)
	if err != nil {
		return err
	}
	if err := write(res, dst, env.Style); err != nil {
		return err
	}
	report(env, res, log)
	return nil
}

// optionsFromConfig fills options with configured values, command line may
// override them later.
func optionsFromConfig(cfg *config.Config) Options {
	headers := make(map[string]string, len(cfg.Fetch.Headers))
	for k, v := range cfg.Fetch.Headers {
		headers[k] = v.Reveal()
	}
	return Options{
		Ignore:       append([]string(nil), cfg.Filter.Ignore...),
		CSSPath:      cfg.Output.CSSPath,
		InlineStyles: cfg.Output.InlineStyles,
		ForceCharset: cfg.Fetch.ForceCharset,
		References:   cfg.Filter.References,
		Workers:      cfg.Filter.Workers,
		Fetch: document.FetchOptions{
			Timeout:   cfg.Fetch.Timeout,
			Rate:      cfg.Fetch.Rate,
			Burst:     cfg.Fetch.Burst,
			UserAgent: cfg.Fetch.UserAgent,
			Headers:   headers,
			MaxSize:   cfg.Fetch.MaxSize,
		},
	}
}

// write outputs resulting CSS to file or, when dst is empty, to STDOUT.
func write(res *Result, dst string, style common.OutputStyle) (err error) {
	var out io.Writer = os.Stdout
	if dst != "" {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("unable to create output directory: %w", err)
		}
		f, err := os.Create(dst)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", dst, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("unable to close destination file '%s': %w", dst, cerr)
			}
		}()
		out = f
	}
	if _, err := io.WriteString(out, res.Sheet.Format(style)); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	return nil
}

func report(env *state.LocalEnv, res *Result, log *zap.Logger) {
	if env.ReportStats {
		s := res.Stats
		log.Info("Statistics",
			zap.Int("documents", res.Documents),
			zap.Int("stylesheets", len(res.Stylesheets)),
			zap.Int("rules.in", s.RulesIn),
			zap.Int("rules.out", s.RulesOut),
			zap.Int("selectors.in", s.SelectorsIn),
			zap.Int("selectors.out", s.SelectorsOut),
			zap.Int("selectors.ignored", s.Ignored),
			zap.Int("selectors.fail-open", s.FailOpen),
			zap.Int("selectors.evaluated", s.Evaluated),
			zap.Int("named.in", s.NamedIn),
			zap.Int("named.dropped", s.NamedDropped),
			zap.Int("groups.dropped", s.GroupsDropped),
		)
	}
	// store processing results for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData("css/input.css", []byte(res.Input))
		env.Rpt.StoreData("css/output.css", []byte(res.Sheet.String()))
		env.Rpt.StoreData("css/tree.txt", []byte(res.Sheet.Dump()))
	}
}
