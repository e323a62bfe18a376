// Package export runs the complete export: it reads all nodes and ways
// of a source, shapes and optionally validates their records and writes
// them into a sink.
package export

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/log"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/reader"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/rules"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/shape"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/stats"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/validate"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/writer"
)

// Kinds are the exported element kinds. Relations are not read.
var Kinds = element.KindsOf(element.NODE, element.WAY)

type Options struct {
	Rules     *rules.Rules
	CacheSize int
	// Strict stops the export at the first element with missing
	// attributes. Otherwise these elements are skipped.
	Strict bool
	// Validator checks all records if set.
	Validator *validate.Validator
	// Stats collects the counts. A new Statistics is used if nil.
	Stats *stats.Statistics
	// ProgressInterval enables the progress log.
	ProgressInterval time.Duration
}

type exporter struct {
	shaper    *shape.Shaper
	validator *validate.Validator
	writer    *writer.Writer
	stats     *stats.Statistics
	strict    bool
}

// Run exports all elements of src into sink. sink is closed after a
// successful export and aborted on errors.
func Run(src reader.Source, sink writer.Sink, opts Options) (stats.Summary, error) {
	st := opts.Stats
	if st == nil {
		st = stats.New()
	}
	r := opts.Rules
	if r == nil {
		r = rules.Default()
	}
	shaper, err := shape.New(r, opts.CacheSize)
	if err != nil {
		abort(sink)
		return st.Summary(), err
	}
	e := &exporter{
		shaper:    shaper,
		validator: opts.Validator,
		writer:    writer.New(sink),
		stats:     st,
		strict:    opts.Strict,
	}

	if opts.ProgressInterval > 0 {
		st.Start(opts.ProgressInterval)
	}
	err = reader.ForEach(src, Kinds, e.visit)
	if opts.ProgressInterval > 0 {
		st.Stop()
	}
	if err != nil {
		abort(sink)
		return st.Summary(), err
	}
	if err := sink.Close(); err != nil {
		return st.Summary(), errors.Wrap(err, "closing output")
	}
	return st.Summary(), nil
}

func abort(sink writer.Sink) {
	if err := sink.Abort(); err != nil {
		log.Errorf("aborting output: %s", err)
	}
}

func (e *exporter) visit(elem element.Element) error {
	e.stats.AddElement(elem.Kind())
	rec, err := e.shaper.Shape(elem)
	if err == shape.ErrNotShaped {
		return nil
	}
	if err != nil {
		var missing *shape.MissingAttributeError
		if !e.strict && errors.As(err, &missing) {
			log.Warnf("skipping %s", err)
			e.stats.AddSkipped(elem.Kind())
			return nil
		}
		return err
	}
	if e.validator != nil {
		if err := e.validator.Validate(rec); err != nil {
			return err
		}
	}
	if err := e.writer.Write(rec); err != nil {
		return errors.Wrapf(err, "writing %s %d", rec.Kind, rec.ID())
	}
	e.addRows(rec)
	e.stats.AddOutcome(rec.Outcome)
	if rec.Outcome.ProblemKeys > 0 {
		log.Debugf("%s %d: %d tags with problematic keys", rec.Kind, rec.ID(), rec.Outcome.ProblemKeys)
	}
	return nil
}

func (e *exporter) addRows(rec shape.Records) {
	switch rec.Kind {
	case element.NODE:
		e.stats.AddRows(writer.Nodes.Name, 1)
		e.stats.AddRows(writer.NodesTags.Name, len(rec.Tags))
	case element.WAY:
		e.stats.AddRows(writer.Ways.Name, 1)
		e.stats.AddRows(writer.WaysNodes.Name, len(rec.WayNodes))
		e.stats.AddRows(writer.WaysTags.Name, len(rec.Tags))
	}
}

// RunFile exports the OSM file path (.osm, .osm.gz, .osm.bz2 or .pbf)
// into a new sink for conf.
func RunFile(path string, conf writer.Config, opts Options) (stats.Summary, error) {
	defer log.Step("Exporting " + path)()

	src, err := reader.Open(path, Kinds)
	if err != nil {
		return stats.Summary{}, err
	}
	defer src.Close()

	sink, err := writer.Open(conf)
	if err != nil {
		return stats.Summary{}, errors.Wrapf(err, "opening %s output", conf.Type)
	}
	summary, err := Run(src, sink, opts)
	if err != nil {
		return summary, errors.Wrapf(err, "exporting %s", path)
	}
	return summary, nil
}
