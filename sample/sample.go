// Package sample writes a smaller copy of an OSM XML file that contains
// every Nth node, way and relation.
package sample

import (
	"bufio"
	"encoding/xml"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/parser/osmxml"
)

const DefaultEvery = 100

const (
	header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n<osm>\n"
	footer = "</osm>\n"
)

type Options struct {
	// Every keeps elements 0, Every, 2*Every, ...
	Every int
}

type Result struct {
	Elements int
	Kept     int
}

// Run copies every Nth top-level element of r to w. Elements are copied
// token by token, only one token is kept in memory.
func Run(r io.Reader, w io.Writer, opts Options) (Result, error) {
	var res Result
	every := opts.Every
	if every <= 0 {
		every = DefaultEvery
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header); err != nil {
		return res, err
	}
	enc := xml.NewEncoder(bw)
	dec := osmxml.NewDecoder(r)

	depth := 0
	root := false
	for {
		token, err := dec.Token()
		if err == io.EOF {
			if !root {
				return res, parseError(dec, errors.New("no root element"))
			}
			break
		}
		if err != nil {
			return res, parseError(dec, err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			root = true
			depth++
			if depth != 2 {
				continue
			}
			if _, ok := element.KindValues[tok.Name.Local]; !ok {
				continue
			}
			keep := res.Elements%every == 0
			res.Elements++
			depth--
			if !keep {
				if err := dec.Skip(); err != nil {
					return res, parseError(dec, err)
				}
				continue
			}
			if err := copyElement(dec, enc, tok); err != nil {
				return res, err
			}
			if err := enc.Flush(); err != nil {
				return res, err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return res, err
			}
			res.Kept++
		case xml.EndElement:
			depth--
		}
	}

	if _, err := bw.WriteString(footer); err != nil {
		return res, err
	}
	return res, bw.Flush()
}

// copyElement writes start and all tokens up to the matching end
// element.
func copyElement(dec *xml.Decoder, enc *xml.Encoder, start xml.StartElement) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		token, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return parseError(dec, err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.ProcInst, xml.Directive:
			continue
		case xml.CharData:
			token = tok.Copy()
		}
		if err := enc.EncodeToken(token); err != nil {
			return err
		}
	}
	return nil
}

func parseError(dec *xml.Decoder, err error) error {
	line, col := dec.InputPos()
	return &osmxml.ParseError{Line: line, Column: col, Err: err}
}

// RunFile samples the file in (see osmxml.OpenFile for compressed
// input) into the new file out.
func RunFile(in, out string, opts Options) (Result, error) {
	r, err := osmxml.OpenFile(in)
	if err != nil {
		return Result{}, err
	}
	defer r.Close()

	f, err := os.Create(out)
	if err != nil {
		return Result{}, errors.Wrap(err, "creating sample file")
	}
	res, err := Run(r, f, opts)
	if err != nil {
		f.Close()
		return res, err
	}
	if err := f.Close(); err != nil {
		return res, errors.Wrap(err, "closing sample file")
	}
	return res, nil
}
