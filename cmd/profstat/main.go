// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Profstat parses the profiling logs written by climate model
// components and the workflow tools that run them, and prints their
// timings as tables.
//
// Usage:
//
//	profstat [flags] -parser name [label=]log...
//	profstat [flags] -config job.yaml
//	profstat [flags] -db driver:dsn -show run
//
// Each log is parsed by the parser named by -parser. Parsers are fms,
// cice5, um, um-total, esmf, cylc, cylc-db, and payu-json. A log
// argument of the form label=path labels the profile in the output;
// otherwise the path is the label.
//
// A job file lists logs that need different parsers:
//
//	logs:
//	  - name: MOM
//	    parser: fms
//	    path: output000/ocean.out
//	    options: {hits: true}
//	  - name: ESMF
//	    parser: esmf
//	    path: output000/ESMF_Profile.summary
//
// Logs are parsed concurrently, at most -j at a time, and printed in
// the order they were given.
//
// # Output
//
// The -format flag selects the output format: text (the default)
// prints aligned tables with times scaled to a common unit per
// column, csv prints unscaled values, html prints an HTML page, json
// prints the profiles including call trees, and prom prints the
// Prometheus text exposition format with metric names prefixed by
// -namespace.
//
// # Archiving
//
// With -save, the parsed profiles are stored as a new run in the
// database named by -db, for example "sqlite3:runs.db" or
// "mysql:user@tcp(host)/profiles". The run ID is printed on standard
// error. -show run prints the profiles of a stored run instead of
// parsing logs.
//
// # Errors
//
// By default any log that fails to parse stops profstat. With
// -keep-going, logs that a parser does not recognize are logged and
// skipped.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/access-nri/profiling/internal/config"
	"github.com/access-nri/profiling/profdb"
	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profparse"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	_ "github.com/go-sql-driver/mysql"
)

var exit = os.Exit // replaced during testing

func main() {
	if err := profstat(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			exit(2)
		}
		fmt.Fprintf(os.Stderr, "profstat: %s\n", err)
		exit(1)
	}
}

// A job is one log to parse.
type job struct {
	label  string
	path   string
	parser proffmt.Parser
}

func profstat(w, wErr io.Writer, args []string) error {
	flags := flag.NewFlagSet("profstat", flag.ContinueOnError)
	flags.SetOutput(wErr)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), `usage: profstat [flags] -parser name [label=]log...
       profstat [flags] -config job.yaml
       profstat [flags] -db driver:dsn -show run
`)
		flags.PrintDefaults()
	}
	var (
		flagParser       = flags.String("parser", "", "parse logs with `name`: "+strings.Join(profparse.Names(), ", "))
		flagHits         = flags.Bool("hits", true, "FMS timing tables have a hits column")
		flagHierarchical = flags.Bool("hierarchical", false, "recover the ESMF call tree")
		flagConfig       = flags.String("config", "", "read the logs to parse from job `file`")
		flagFormat       = flags.String("format", "text", "print results in `format`: text, csv, html, json, prom")
		flagNamespace    = flags.String("namespace", "profiling", "prefix Prometheus metric names with `ns`")
		flagDB           = flags.String("db", "", "archive database `driver:dsn`")
		flagSave         = flags.Bool("save", false, "store the parsed profiles as a new run in -db")
		flagLabel        = flags.String("label", "", "label of the run stored by -save")
		flagShow         = flags.Int64("show", 0, "print stored `run` from -db instead of parsing logs")
		flagJobs         = flags.Int("j", runtime.GOMAXPROCS(0), "parse at most `n` logs at a time")
		flagKeepGoing    = flags.Bool("keep-going", false, "skip logs that the parser does not recognize")
		flagVerbose      = flags.Bool("v", false, "log parser details")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	write, ok := writers[*flagFormat]
	if !ok {
		return fmt.Errorf("unknown format %q", *flagFormat)
	}
	if *flagJobs < 1 {
		return fmt.Errorf("-j must be at least 1")
	}
	if (*flagSave || *flagShow != 0) && *flagDB == "" {
		return fmt.Errorf("-save and -show require -db")
	}
	logger := newLogger(wErr, *flagVerbose)
	ctx := context.Background()

	var profiles []proffmt.Labeled
	if *flagShow != 0 {
		if flags.NArg() > 0 || *flagConfig != "" || *flagSave {
			return fmt.Errorf("-show takes no logs")
		}
		var err error
		profiles, err = show(ctx, *flagDB, *flagShow)
		if err != nil {
			return err
		}
	} else {
		var jobs []job
		switch {
		case *flagConfig != "":
			if flags.NArg() > 0 {
				return fmt.Errorf("-config and log arguments are mutually exclusive")
			}
			f, err := config.Load(*flagConfig)
			if err != nil {
				return err
			}
			for _, l := range f.Logs {
				p, err := profparse.New(l.Parser, l.Options.ParserOptions(logger.WithValues("log", l.Name)))
				if err != nil {
					return err
				}
				jobs = append(jobs, job{l.Name, l.Path, p})
			}
		case flags.NArg() == 0:
			flags.Usage()
			return flag.ErrHelp
		default:
			if *flagParser == "" {
				return fmt.Errorf("-parser is required")
			}
			p, err := profparse.New(*flagParser, profparse.Options{
				Hits:         *flagHits,
				Hierarchical: *flagHierarchical,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			files := proffmt.Files{Paths: flags.Args(), AllowLabels: true}
			for _, in := range files.Inputs() {
				jobs = append(jobs, job{in.Label, in.Path, p})
			}
		}

		var err error
		profiles, err = parseAll(ctx, logger, jobs, *flagJobs, *flagKeepGoing)
		if err != nil {
			return err
		}
		if *flagSave {
			id, err := save(ctx, *flagDB, *flagLabel, profiles)
			if err != nil {
				return err
			}
			fmt.Fprintf(wErr, "saved %d profiles as run %d\n", len(profiles), id)
		}
	}

	var buf bytes.Buffer
	if err := write(&buf, *flagNamespace, profiles); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

var writers = map[string]func(w io.Writer, namespace string, profiles []proffmt.Labeled) error{
	"text": func(w io.Writer, _ string, ps []proffmt.Labeled) error { return proffmt.WriteText(w, ps) },
	"csv":  func(w io.Writer, _ string, ps []proffmt.Labeled) error { return proffmt.WriteCSV(w, ps) },
	"html": func(w io.Writer, _ string, ps []proffmt.Labeled) error { return proffmt.WriteHTML(w, ps) },
	"json": func(w io.Writer, _ string, ps []proffmt.Labeled) error { return proffmt.WriteJSON(w, ps) },
	"prom": proffmt.WritePrometheus,
}

// newLogger returns a logger writing to w. Parser details are logged
// only when verbose is set.
func newLogger(w io.Writer, verbose bool) logr.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(zapcore.AddSync(w)), level)
	return zapr.NewLogger(zap.New(core))
}

// parseAll parses every job, at most limit at a time, and returns
// the profiles in job order. If keepGoing is set, jobs whose parser
// does not recognize the log are logged and left out.
func parseAll(ctx context.Context, logger logr.Logger, jobs []job, limit int, keepGoing bool) ([]proffmt.Labeled, error) {
	results := make([]*proffmt.Profile, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := j.parser.Parse(j.path)
			if err != nil {
				if keepGoing && errors.Is(err, proffmt.ErrNoData) {
					logger.Error(err, "skipping log", "label", j.label)
					return nil
				}
				return err
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var profiles []proffmt.Labeled
	for i, p := range results {
		if p != nil {
			profiles = append(profiles, proffmt.Labeled{Label: jobs[i].label, Profile: p})
		}
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles found")
	}
	return profiles, nil
}

func openDB(arg string) (*profdb.DB, error) {
	driver, dsn, ok := strings.Cut(arg, ":")
	if !ok {
		return nil, fmt.Errorf("-db %q is not of the form driver:dsn", arg)
	}
	return profdb.OpenSQL(driver, dsn)
}

// save stores profiles as a new run and returns its ID.
func save(ctx context.Context, dbSpec, label string, profiles []proffmt.Labeled) (int64, error) {
	db, err := openDB(dbSpec)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	run, err := db.NewRun(ctx, label)
	if err != nil {
		return 0, err
	}
	for _, p := range profiles {
		if err := run.InsertProfile(p.Label, p.Profile); err != nil {
			run.Abort()
			return 0, fmt.Errorf("saving %s: %w", p.Label, err)
		}
	}
	if err := run.Commit(); err != nil {
		return 0, err
	}
	return run.ID, nil
}

// show reads back the profiles of a stored run.
func show(ctx context.Context, dbSpec string, runID int64) ([]proffmt.Labeled, error) {
	db, err := openDB(dbSpec)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	info, err := db.QueryRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(info.Profiles) == 0 {
		return nil, fmt.Errorf("run %d has no profiles", runID)
	}
	var profiles []proffmt.Labeled
	for _, label := range info.Profiles {
		p, err := db.QueryProfile(ctx, runID, label, profparse.PETs, profparse.PEs)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, proffmt.Labeled{Label: label, Profile: p})
	}
	return profiles, nil
}
