// cmd/cli/typed.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/and161185/sitecms/internal/model"
	"github.com/and161185/sitecms/pkg/client"
)

// sections decodes a replacement for one single-object section into doc.
var sections = map[string]func(doc *model.SiteContent, raw []byte) error{
	"hero": func(doc *model.SiteContent, raw []byte) error {
		var v model.Hero
		if err := decodeStrict(raw, &v); err != nil {
			return err
		}
		doc.Hero = v
		return nil
	},
	"about": func(doc *model.SiteContent, raw []byte) error {
		var v model.About
		if err := decodeStrict(raw, &v); err != nil {
			return err
		}
		doc.About = v
		return nil
	},
	"contact": func(doc *model.SiteContent, raw []byte) error {
		var v model.Contact
		if err := decodeStrict(raw, &v); err != nil {
			return err
		}
		doc.Contact = v
		return nil
	},
}

// decodeStrict rejects unknown fields so that a typo in a section file is not silently dropped.
func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// replaceSection swaps one named section of doc for the JSON in section.
func replaceSection(doc []byte, name string, section []byte) ([]byte, error) {
	set, ok := sections[name]
	if !ok {
		return nil, fmt.Errorf("unknown section %q (want hero, about or contact)", name)
	}

	var content model.SiteContent
	if err := json.Unmarshal(doc, &content); err != nil {
		return nil, fmt.Errorf("decode current document: %w", err)
	}
	if err := set(&content, section); err != nil {
		return nil, fmt.Errorf("decode %s section: %w", name, err)
	}
	return json.Marshal(content)
}

// cmdSection pulls the document, replaces one section and pushes the result.
func cmdSection(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("section", flag.ContinueOnError)
	name := fs.String("name", "", "hero | about | contact")
	file := fs.String("file", "", "section JSON (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *file == "" {
		return errors.New("need -name and -file")
	}

	section, err := readAll(*file)
	if err != nil {
		return err
	}
	current, err := c.Content(ctx)
	if err != nil {
		return err
	}
	next, err := replaceSection(current, *name, section)
	if err != nil {
		return err
	}
	if err := c.PushContent(ctx, next); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s updated\n", *name)
	return nil
}
