// Package config parses the command line options of the sub commands.
// Options can also be set in a JSON config file (-config), command line
// flags take precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/log"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/sample"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/writer"
)

type Config struct {
	Rules      string `json:"rules"`
	LogLevel   string `json:"loglevel"`
	Sink       string `json:"sink"`
	Output     string `json:"output"`
	Connection string `json:"connection"`
	Schema     string `json:"schema"`
	Strict     bool   `json:"strict"`
	Validate   bool   `json:"validate"`
	CacheSize  int    `json:"cachesize"`
}

const (
	defaultSink      = "csv"
	defaultOutput    = "."
	defaultCacheSize = 4096
)

type BaseOptions struct {
	Rules       string
	ConfigFile  string
	Httpprofile string
	Memprofile  string
	Quiet       bool
	Debug       bool
	LogLevel    string
	// Level is the parsed LogLevel, empty if not set.
	Level log.Level
	// Input is the OSM file, the only positional argument.
	Input string
}

type ExportOptions struct {
	BaseOptions
	Sink       string
	Output     string
	Connection string
	Schema     string
	Strict     bool
	Validate   bool
	CacheSize  int
}

type SampleOptions struct {
	BaseOptions
	Output string
	Every  int
}

type AuditOptions struct {
	BaseOptions
	Suggest  bool
	KindList string
	// Kinds is the parsed KindList.
	Kinds element.Kinds
}

func addBaseFlags(flags *flag.FlagSet, o *BaseOptions) {
	flags.StringVar(&o.Rules, "rules", "", "rules file or bundled rules name (default denver)")
	flags.StringVar(&o.ConfigFile, "config", "", "config (json)")
	flags.StringVar(&o.Httpprofile, "httpprofile", "", "bind address for profile and metrics server")
	flags.StringVar(&o.Memprofile, "memprofile", "", "dir for periodic heap profiles")
	flags.BoolVar(&o.Quiet, "quiet", false, "quiet log output")
	flags.BoolVar(&o.Debug, "debug", false, "debug log output")
	flags.StringVar(&o.LogLevel, "loglevel", "", "minimum log level: debug, progress, step, info, warn, error")
}

func newFlagSet(name, args string, output io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintf(output, "Usage: %s %s [args] %s\n\n", os.Args[0], name, args)
		flags.PrintDefaults()
	}
	return flags
}

// ErrUsage is returned for invalid arguments after the usage was
// printed.
var ErrUsage = errors.New("invalid arguments")

func parse(flags *flag.FlagSet, args []string, o *BaseOptions) (map[string]bool, error) {
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, ErrUsage
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(flags.Output(), "expected exactly one input file")
		flags.Usage()
		return nil, ErrUsage
	}
	o.Input = flags.Arg(0)

	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set, nil
}

func loadConfig(path string) (*Config, error) {
	conf := &Config{}
	if path == "" {
		return conf, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading config")
	}
	defer f.Close()
	decoder := json.NewDecoder(f)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "parsing config %s", path)
	}
	return conf, nil
}

func (o *BaseOptions) updateFromConfig(conf *Config, set map[string]bool) {
	if !set["rules"] && conf.Rules != "" {
		o.Rules = conf.Rules
	}
	if !set["loglevel"] && conf.LogLevel != "" {
		o.LogLevel = conf.LogLevel
	}
}

func (o *BaseOptions) check() []error {
	errs := []error{}
	if o.Quiet && o.Debug {
		errs = append(errs, errors.New("-quiet and -debug are exclusive"))
	}
	if o.LogLevel != "" {
		if o.Quiet || o.Debug {
			errs = append(errs, errors.New("-loglevel can not be combined with -quiet or -debug"))
		}
		lvl, err := log.ParseLevel(o.LogLevel)
		if err != nil {
			errs = append(errs, err)
		}
		o.Level = lvl
	}
	return errs
}

func ParseExport(args []string, output io.Writer) (*ExportOptions, error) {
	o := &ExportOptions{}
	flags := newFlagSet("export", "file.osm", output)
	addBaseFlags(flags, &o.BaseOptions)
	flags.StringVar(&o.Sink, "sink", "", "output type: csv, postgis or null (default csv, postgis for postgis:// connections)")
	flags.StringVar(&o.Output, "output", defaultOutput, "output directory for csv")
	flags.StringVar(&o.Connection, "connection", "", "connection parameters for postgis")
	flags.StringVar(&o.Schema, "schema", "", "validation schema (default bundled schema)")
	flags.BoolVar(&o.Strict, "strict", false, "stop on elements with missing attributes")
	flags.BoolVar(&o.Validate, "validate", false, "validate all records")
	flags.IntVar(&o.CacheSize, "cachesize", defaultCacheSize, "number of cached street names")

	set, err := parse(flags, args, &o.BaseOptions)
	if err != nil {
		return nil, err
	}
	conf, err := loadConfig(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	o.updateFromConfig(conf, set)
	if errs := o.check(); len(errs) != 0 {
		return nil, reportErrors(flags, errs)
	}
	return o, nil
}

func (o *ExportOptions) updateFromConfig(conf *Config, set map[string]bool) {
	o.BaseOptions.updateFromConfig(conf, set)
	if !set["sink"] {
		o.Sink = conf.Sink
	}
	if !set["output"] && conf.Output != "" {
		o.Output = conf.Output
	}
	if !set["connection"] && conf.Connection != "" {
		o.Connection = conf.Connection
	}
	if !set["schema"] && conf.Schema != "" {
		o.Schema = conf.Schema
	}
	if !set["strict"] && conf.Strict {
		o.Strict = true
	}
	if !set["validate"] && conf.Validate {
		o.Validate = true
	}
	if !set["cachesize"] && conf.CacheSize != 0 {
		o.CacheSize = conf.CacheSize
	}
	if o.Sink == "" {
		o.Sink = defaultSink
		if typ := writer.ConnectionType(o.Connection); typ != "" {
			o.Sink = typ
		}
	}
}

func (o *ExportOptions) check() []error {
	errs := o.BaseOptions.check()
	switch o.Sink {
	case "csv", "null":
	case "postgis", "postgres":
		if o.Connection == "" {
			errs = append(errs, errors.New("missing -connection for postgis sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink %s", o.Sink))
	}
	if o.Schema != "" && !o.Validate {
		errs = append(errs, errors.New("-schema requires -validate"))
	}
	return errs
}

// WriterConfig returns the config for writer.Open.
func (o *ExportOptions) WriterConfig() writer.Config {
	conf := writer.Config{Type: o.Sink, ConnectionParams: o.Output}
	if o.Sink == "postgis" || o.Sink == "postgres" {
		conf.ConnectionParams = o.Connection
	}
	return conf
}

func ParseSample(args []string, output io.Writer) (*SampleOptions, error) {
	o := &SampleOptions{}
	flags := newFlagSet("sample", "file.osm", output)
	addBaseFlags(flags, &o.BaseOptions)
	flags.StringVar(&o.Output, "output", "sample.osm", "sample file")
	flags.IntVar(&o.Every, "every", sample.DefaultEvery, "keep every nth element")

	set, err := parse(flags, args, &o.BaseOptions)
	if err != nil {
		return nil, err
	}
	conf, err := loadConfig(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	o.updateFromConfig(conf, set)
	errs := o.check()
	if o.Every < 1 {
		errs = append(errs, errors.New("-every must be positive"))
	}
	if len(errs) != 0 {
		return nil, reportErrors(flags, errs)
	}
	return o, nil
}

func ParseAudit(args []string, output io.Writer) (*AuditOptions, error) {
	o := &AuditOptions{}
	flags := newFlagSet("audit", "file.osm", output)
	addBaseFlags(flags, &o.BaseOptions)
	flags.BoolVar(&o.Suggest, "suggest", false, "print normalized names")
	flags.StringVar(&o.KindList, "kinds", "node,way", "element kinds to audit (node, way, relation)")

	set, err := parse(flags, args, &o.BaseOptions)
	if err != nil {
		return nil, err
	}
	conf, err := loadConfig(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	o.updateFromConfig(conf, set)
	errs := o.check()
	kinds, err := element.ParseKinds(o.KindList)
	if err != nil {
		errs = append(errs, err)
	}
	o.Kinds = kinds
	if len(errs) != 0 {
		return nil, reportErrors(flags, errs)
	}
	return o, nil
}

func reportErrors(flags *flag.FlagSet, errs []error) error {
	fmt.Fprintln(flags.Output(), "errors in config/options:")
	for _, err := range errs {
		fmt.Fprintf(flags.Output(), "\t%s\n", err)
	}
	fmt.Fprintln(flags.Output())
	flags.Usage()
	return ErrUsage
}
