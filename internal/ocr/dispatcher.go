package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/labflowhq/labflow/internal/models"
)

// dispatchWorkers caps the number of concurrent remote recognition calls.
const dispatchWorkers = 4

const jpegQuality = 85

// PageText is the per-page outcome of a dispatch. Failed pages carry their
// error here instead of aborting the sibling pages.
type PageText struct {
	Index int
	Text  string
	Err   error
}

// Dispatcher fans rasterized pages out to an OCR engine. With a remote
// engine it runs a fixed pool of dispatchWorkers and consults the result
// cache before every network call; without one it falls back to the local
// engine, sequentially and in page order.
type Dispatcher struct {
	remote   Engine
	local    Engine
	cache    *Cache
	language string
}

// NewDispatcher wires a dispatcher. remote may be nil, in which case every
// dispatch uses local. cache may be nil to disable caching.
func NewDispatcher(remote, local Engine, cache *Cache, language string) *Dispatcher {
	return &Dispatcher{
		remote:   remote,
		local:    local,
		cache:    cache,
		language: language,
	}
}

// Dispatch recognizes every page and returns the per-page outcomes, indexed
// by page order regardless of completion order. It never fails as a whole;
// per-page errors are recorded in the corresponding PageText.
func (d *Dispatcher) Dispatch(ctx context.Context, pages []models.PageImage) []PageText {
	if d.remote == nil {
		return d.dispatchLocal(ctx, pages)
	}
	return d.dispatchRemote(ctx, pages)
}

func (d *Dispatcher) dispatchRemote(ctx context.Context, pages []models.PageImage) []PageText {
	results := make([]PageText, len(pages))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(dispatchWorkers)

	for i, page := range pages {
		eg.Go(func() error {
			results[i] = d.recognizePage(gctx, d.remote, page)
			if results[i].Err != nil {
				slog.Warn("OCR failed for page, skipping.", "page", page.Index+1, "engine", d.remote.Name(), "error", results[i].Err)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (d *Dispatcher) dispatchLocal(ctx context.Context, pages []models.PageImage) []PageText {
	results := make([]PageText, len(pages))
	for i, page := range pages {
		results[i] = d.recognizePage(ctx, d.local, page)
		if results[i].Err != nil {
			slog.Warn("OCR failed for page, skipping.", "page", page.Index+1, "engine", d.local.Name(), "error", results[i].Err)
		}
	}
	return results
}

func (d *Dispatcher) recognizePage(ctx context.Context, engine Engine, page models.PageImage) PageText {
	out := PageText{Index: page.Index}

	data, err := encodeJPEG(page.Image)
	if err != nil {
		out.Err = fmt.Errorf("encode page %d: %w", page.Index+1, err)
		return out
	}

	key := Key(data, page.Index)
	if d.cache != nil {
		if res, ok := d.cache.Get(key); ok {
			out.Text = res.PlainText()
			return out
		}
	}

	res, err := engine.Recognize(ctx, Input{
		PageIndex: page.Index,
		Image:     data,
		Language:  d.language,
	})
	if err != nil {
		out.Err = err
		return out
	}

	if d.cache != nil {
		d.cache.Put(key, res)
	}
	out.Text = res.PlainText()
	return out
}

// CombineText joins the successful page texts in page order. Failed pages
// contribute nothing; partial text from succeeding pages is still returned.
func CombineText(pages []PageText) string {
	var b strings.Builder
	for _, p := range pages {
		if p.Err != nil || strings.TrimSpace(p.Text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// encodeJPEG re-encodes the page raster as a compressed image for upload.
func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
