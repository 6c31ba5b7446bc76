// Package watermark stamps provenance marks onto every page of a PDF so a
// leaked copy identifies its licensee. Four marks of varying prominence are
// drawn per page; cropping all of them out means cropping the content too.
package watermark

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrDocumentProcessing wraps any failure to parse or re-serialize the source
// document. Callers surface it as a generic server error; the cause stays in
// the server log.
var ErrDocumentProcessing = errors.New("document processing failed")

// Licensee identifies who the output is watermarked for. ID and FullName are
// drawn directly onto pages, so both must be present.
type Licensee struct {
	ID       string
	FullName string
	Email    string
}

func (l Licensee) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("licensee id is required")
	}
	if l.FullName == "" {
		return fmt.Errorf("licensee full name is required")
	}
	return nil
}

const (
	timestampFormat = "2006-01-02 15:04:05"
	copyrightNotice = "© New Era Club. All rights reserved."

	diagonalDesc = "fontname:Helvetica, points:42, position:c, rotation:-45, opacity:0.3, scalefactor:1 abs, fillcolor:#555555"
	headerDesc   = "fontname:Helvetica, points:8, position:tl, offset:12 -12, rotation:0, opacity:0.8, scalefactor:1 abs, fillcolor:#333333"
	footerDesc   = "fontname:Helvetica, points:7, position:bl, offset:12 12, rotation:0, opacity:0.9, scalefactor:1 abs, fillcolor:#333333"
	cornerDesc   = "fontname:Helvetica, points:6, position:br, offset:-12 12, rotation:0, opacity:0.7, scalefactor:1 abs, fillcolor:#333333"
)

// Compositor applies the four-mark watermark set. The zero value is not
// usable; construct with NewCompositor.
type Compositor struct {
	now func() time.Time
}

func NewCompositor() *Compositor {
	return &Compositor{now: time.Now}
}

// NewCompositorAt pins the provenance timestamp, for reproducible output.
func NewCompositorAt(now func() time.Time) *Compositor {
	return &Compositor{now: now}
}

// Apply returns a new buffer with all marks stamped on every page. The input
// slice is never modified. The timestamp is computed once, so every page of
// one document carries identical provenance text.
func (c *Compositor) Apply(document []byte, licensee Licensee) ([]byte, error) {
	if err := licensee.Validate(); err != nil {
		return nil, err
	}

	at := c.now().UTC()
	stamp := at.Format(timestampFormat)

	marks := []struct {
		text string
		desc string
	}{
		{fmt.Sprintf("%s\n%s", licensee.FullName, idPrefix(licensee.ID, 8)), diagonalDesc},
		{fmt.Sprintf("Licensed to %s - %s", licensee.FullName, stamp), headerDesc},
		{fmt.Sprintf("%s - %s UTC", idPrefix(licensee.ID, 12), stamp), footerDesc},
		{copyrightNotice, cornerDesc},
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// Classic xref and uncompressed object dicts keep the serializer's
	// Info dates and trailer ID addressable for pinVolatileMetadata.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	current := document
	for _, mark := range marks {
		wm, err := api.TextWatermark(mark.text, mark.desc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("%w: build watermark: %v", ErrDocumentProcessing, err)
		}

		var out bytes.Buffer
		if err := api.AddWatermarks(bytes.NewReader(current), &out, nil, wm, conf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDocumentProcessing, err)
		}
		current = out.Bytes()
	}
	return pinVolatileMetadata(current, document, licensee, at), nil
}

var (
	pdfDateRx   = regexp.MustCompile(`D:\d{14}[+-]\d{2}'\d{2}'`)
	trailerIDRx = regexp.MustCompile(`/ID\s*\[\s*<[0-9A-Fa-f]+>\s*<[0-9A-Fa-f]+>\s*\]`)
	hexRunRx    = regexp.MustCompile(`[0-9A-Fa-f]{16,}`)
)

// pinVolatileMetadata rewrites the two places the serializer consults the
// wall clock: the Info dictionary dates and the trailer file ID. Both are
// replaced with values derived from the input, the licensee and the
// compositor's clock, so one source document stamped for one member at one
// instant always yields the same bytes. Every substitution preserves length,
// which keeps the xref offsets valid.
func pinVolatileMetadata(document, source []byte, licensee Licensee, at time.Time) []byte {
	date := []byte(at.Format("D:20060102150405+00'00'"))
	out := pdfDateRx.ReplaceAll(document, date)

	seed := sha256.New()
	seed.Write(source)
	fmt.Fprintf(seed, "|%s|%s", licensee.ID, date)
	digest := hex.EncodeToString(seed.Sum(nil))

	return trailerIDRx.ReplaceAllFunc(out, func(m []byte) []byte {
		return hexRunRx.ReplaceAllFunc(m, func(run []byte) []byte {
			return []byte(repeatToLength(digest, len(run)))
		})
	})
}

func repeatToLength(s string, n int) string {
	for len(s) < n {
		s += s
	}
	return s[:n]
}

// PageCount reports the number of pages in a PDF buffer.
func PageCount(document []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(document), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDocumentProcessing, err)
	}
	return n, nil
}

func idPrefix(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}
