package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"

	"carsales/internal/domain"
)

// maxBrochureBytes bounds how much of a brochure is read to count pages.
const maxBrochureBytes = 64 << 20

// Thumbnail decodes an image and returns a size x size JPEG crop of it.
func Thumbnail(r io.Reader, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %d", size)
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Thumbnail(img, size, size, imaging.Lanczos)
	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BrochurePages returns the page count of the PDF brochure at path.
func BrochurePages(ctx context.Context, store Store, path string) (int, error) {
	rc, _, err := store.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBrochureBytes))
	if err != nil {
		return 0, err
	}
	return countPages(data)
}

func countPages(data []byte) (n int, err error) {
	// the pdf reader panics on some malformed input
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("read pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return r.NumPage(), nil
}

type pageKey struct {
	path    string
	size    int64
	modTime int64
}

type pageCount struct {
	pages int
	err   error
}

// PageCounter remembers brochure page counts, keyed by path, size and
// modification time, so a brochure is read again only after it changes.
type PageCounter struct {
	store Store

	mu     sync.Mutex
	counts map[pageKey]pageCount
}

func NewPageCounter(store Store) *PageCounter {
	return &PageCounter{store: store, counts: make(map[pageKey]pageCount)}
}

// Pages returns the page count of the brochure described by info. Read
// failures are remembered too; context errors are not.
func (c *PageCounter) Pages(ctx context.Context, info domain.AssetInfo) (int, error) {
	key := pageKey{path: info.Path, size: info.Size, modTime: info.ModTime.UnixNano()}
	c.mu.Lock()
	pc, ok := c.counts[key]
	c.mu.Unlock()
	if ok {
		return pc.pages, pc.err
	}

	pages, err := BrochurePages(ctx, c.store, info.Path)
	if ctx.Err() != nil {
		return pages, err
	}
	c.mu.Lock()
	c.counts[key] = pageCount{pages: pages, err: err}
	c.mu.Unlock()
	return pages, err
}
