package main

import (
	"fmt"
	"os"
	"time"

	osmwrangle "github.com/jocon37/OpenStreetMap-Data-Wrangling"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/audit"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/config"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/export"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/log"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/normalize"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/reader"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/rules"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/sample"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/stats"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/validate"
	_ "github.com/jocon37/OpenStreetMap-Data-Wrangling/writer/csv"
	_ "github.com/jocon37/OpenStreetMap-Data-Wrangling/writer/postgis"
)

func PrintCmds() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [args]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Available commands:")
	fmt.Fprintln(os.Stderr, "\texport")
	fmt.Fprintln(os.Stderr, "\tsample")
	fmt.Fprintln(os.Stderr, "\taudit")
	fmt.Fprintln(os.Stderr, "\tversion")
}

func exitOnUsage(err error) {
	if err == nil {
		return
	}
	if err == config.ErrUsage {
		os.Exit(2)
	}
	log.Fatal(err)
}

// setup applies the base options and returns a func that stops the
// profilers.
func setup(o *config.BaseOptions, st *stats.Statistics) (func(), error) {
	if o.Quiet {
		log.SetMinLevel(log.LWarn)
	}
	if o.Debug {
		log.SetMinLevel(log.LDebug)
	}
	if o.Level != "" {
		log.SetMinLevel(o.Level)
	}
	if o.Httpprofile != "" {
		stats.StartHttpPProf(o.Httpprofile, st.Registry())
	}
	if o.Memprofile != "" {
		return stats.MemProfiler(o.Memprofile, 10*time.Second)
	}
	return func() {}, nil
}

func loadRules(o *config.BaseOptions) (*rules.Rules, error) {
	name := o.Rules
	if name == "" {
		name = rules.DefaultName
	}
	return rules.Load(name)
}

func runExport(args []string) error {
	opts, err := config.ParseExport(args, os.Stderr)
	exitOnUsage(err)
	st := stats.New()
	stop, err := setup(&opts.BaseOptions, st)
	if err != nil {
		return err
	}
	defer stop()

	r, err := loadRules(&opts.BaseOptions)
	if err != nil {
		return err
	}
	exportOpts := export.Options{
		Rules:            r,
		CacheSize:        opts.CacheSize,
		Strict:           opts.Strict,
		Stats:            st,
		ProgressInterval: time.Second,
	}
	if opts.Validate {
		schema, err := validate.Load(opts.Schema)
		if err != nil {
			return err
		}
		exportOpts.Validator = validate.New(schema)
	}

	summary, err := export.RunFile(opts.Input, opts.WriterConfig(), exportOpts)
	if err != nil {
		return err
	}
	log.Infof("rows: %v", summary.Rows)
	log.Infof("skipped elements: %d, rejected postcodes: %d, rewritten streets: %d, problematic keys: %d",
		summary.Skipped, summary.Tags.RejectedPostcodes, summary.Tags.RewrittenStreets, summary.Tags.ProblemKeys)
	return nil
}

func runSample(args []string) error {
	opts, err := config.ParseSample(args, os.Stderr)
	exitOnUsage(err)
	stop, err := setup(&opts.BaseOptions, stats.New())
	if err != nil {
		return err
	}
	defer stop()

	step := log.Step("Sampling " + opts.Input)
	res, err := sample.RunFile(opts.Input, opts.Output, sample.Options{Every: opts.Every})
	if err != nil {
		return err
	}
	step()
	log.Infof("wrote %d of %d elements to %s", res.Kept, res.Elements, opts.Output)
	return nil
}

func runAudit(args []string) error {
	opts, err := config.ParseAudit(args, os.Stderr)
	exitOnUsage(err)
	stop, err := setup(&opts.BaseOptions, stats.New())
	if err != nil {
		return err
	}
	defer stop()

	r, err := loadRules(&opts.BaseOptions)
	if err != nil {
		return err
	}
	src, err := reader.Open(opts.Input, opts.Kinds)
	if err != nil {
		return err
	}
	defer src.Close()

	report, err := audit.Run(src, r, opts.Kinds)
	if err != nil {
		return err
	}
	var street *normalize.Street
	if opts.Suggest {
		street = normalize.NewStreet(r.Street, 0)
	}
	return report.Write(os.Stdout, street)
}

func main() {
	if len(os.Args) <= 1 {
		PrintCmds()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "sample":
		err = runSample(os.Args[2:])
	case "audit":
		err = runAudit(os.Args[2:])
	case "version":
		fmt.Println(osmwrangle.Version)
		os.Exit(0)
	default:
		PrintCmds()
		log.Fatalf("invalid command: '%s'", os.Args[1])
	}
	// profilers are already stopped by the run funcs
	if err != nil {
		log.Fatal(err)
	}
}
