// Package drop turns things dragged onto the canvas into items: catalog
// symbols, files from the operating system and assets already indexed in
// the project's resource directory.
//
// File copies run on worker goroutines. Their results are queued and only
// applied to the layout by Drain, which the session calls at the frame
// boundary.
package drop

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
	"github.com/msalah0e/nodecanvas/internal/parallel"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

var (
	ErrEmptyPayload  = errors.New("empty drop payload")
	ErrUnknownAsset  = errors.New("no operator for file type")
	ErrNoStringInput = errors.New("operator has no string input")
	ErrNotIndexed    = errors.New("asset is not indexed")
	ErrNameTaken     = errors.New("no free resource name")
)

const (
	// maxCollisions bounds the "name-N.ext" suffixes tried for one copy.
	maxCollisions = 1000

	// stagePrefix marks in-flight copies; the index ignores them.
	stagePrefix = ".drop-"
)

// StringType is the slot type a dropped file path is assigned to.
const StringType = "string"

// Stride separates the items created by a multi-file drop.
var Stride = geom.V(0, 40)

// Payload is what is being dragged. The first non-empty source wins.
type Payload struct {
	SymbolID string   `yaml:"symbol,omitempty"`
	Paths    []string `yaml:"paths,omitempty"`  // absolute OS paths
	Assets   []string `yaml:"assets,omitempty"` // relative to the resource dir
}

func (p Payload) Empty() bool {
	return p.SymbolID == "" && len(p.Paths) == 0 && len(p.Assets) == 0
}

// Options configures file handling.
type Options struct {
	ProjectDir  string
	ResourceDir string // relative to ProjectDir unless absolute
	Concurrency int
}

// Handler applies drops to one session's layout.
type Handler struct {
	cat   catalog.Catalog
	rec   *undo.Recorder
	types AssetTypes
	index *Index
	opts  Options
	log   *zap.Logger

	wg       sync.WaitGroup
	inflight atomic.Int32
	mu       sync.Mutex
	ready    []batch
}

// batch is a finished copy job waiting for the frame thread.
type batch struct {
	pos   geom.Vec2
	files []string // project relative
}

// NewHandler creates a drop handler. index may be nil, in which case
// asset drops are rejected.
func NewHandler(cat catalog.Catalog, rec *undo.Recorder, types AssetTypes, index *Index, opts Options, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.ResourceDir == "" {
		opts.ResourceDir = "Resources"
	}
	return &Handler{cat: cat, rec: rec, types: types, index: index, opts: opts, log: log}
}

// ResourceDir returns the absolute resource directory.
func (h *Handler) ResourceDir() string {
	if filepath.IsAbs(h.opts.ResourceDir) {
		return h.opts.ResourceDir
	}
	return filepath.Join(h.opts.ProjectDir, h.opts.ResourceDir)
}

// Drop handles a payload released at a canvas position. Symbol and asset
// drops are applied immediately and their new item ids returned. OS path
// drops start copying in the background and return no ids; the items
// appear when Drain runs after the copies finish.
func (h *Handler) Drop(ctx context.Context, p Payload, pos geom.Vec2) ([]string, error) {
	switch {
	case p.SymbolID != "":
		return h.dropSymbol(p.SymbolID, pos)
	case len(p.Paths) > 0:
		h.startCopy(ctx, p.Paths, pos)
		return nil, nil
	case len(p.Assets) > 0:
		return h.dropAssets(p.Assets, pos), nil
	default:
		return nil, ErrEmptyPayload
	}
}

func (h *Handler) dropSymbol(id string, pos geom.Vec2) ([]string, error) {
	item, err := h.cat.Instantiate(id, pos)
	if err != nil {
		h.log.Warn("dropped symbol not found", zap.String("symbol", id), zap.Error(err))
		return nil, err
	}
	if err := h.rec.Execute(&undo.AddItem{Item: item}); err != nil {
		return nil, err
	}
	return []string{item.ID}, nil
}

func (h *Handler) dropAssets(assets []string, pos geom.Vec2) []string {
	var files []string
	for _, a := range assets {
		if h.index == nil || !h.index.Has(a) {
			h.log.Warn("skipping dropped asset", zap.String("asset", a), zap.Error(ErrNotIndexed))
			continue
		}
		files = append(files, h.projectPath(filepath.Join(h.ResourceDir(), filepath.FromSlash(a))))
	}
	return h.place(fmt.Sprintf("Drop %d assets", len(files)), files, pos)
}

func (h *Handler) startCopy(ctx context.Context, paths []string, pos geom.Vec2) {
	var tasks []parallel.Task[string]
	for _, p := range paths {
		if _, ok := h.types.PrimaryOperator(ExtOf(p)); !ok {
			h.log.Warn("skipping dropped file", zap.String("path", p), zap.Error(ErrUnknownAsset))
			continue
		}
		tasks = append(tasks, parallel.Task[string]{
			Name: p,
			Fn: func(context.Context) (string, error) {
				return h.importFile(p)
			},
		})
	}
	if len(tasks) == 0 {
		return
	}

	h.wg.Add(1)
	h.inflight.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.inflight.Add(-1)
		results := parallel.Run(ctx, tasks, h.opts.Concurrency)
		b := batch{pos: pos}
		for _, r := range results {
			if r.Err != nil {
				h.log.Warn("copying dropped file failed", zap.String("path", r.Name), zap.Error(r.Err))
				continue
			}
			b.files = append(b.files, r.Value)
		}
		h.mu.Lock()
		h.ready = append(h.ready, b)
		h.mu.Unlock()
	}()
}

// importFile copies src into the resource directory unless an identical
// file is already there and returns its project-relative path. A different
// file under the same name is never overwritten; the copy gets the next
// free "name-N.ext" instead.
func (h *Handler) importFile(src string) (string, error) {
	res := h.ResourceDir()
	if within(res, src) {
		return h.projectPath(src), nil
	}
	sum, err := digest(src)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(res, 0o755); err != nil {
		return "", err
	}

	var staged string
	defer func() {
		if staged != "" {
			os.Remove(staged)
		}
	}()

	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 0; n < maxCollisions; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		dst := filepath.Join(res, name)

		existing, err := digest(dst)
		switch {
		case err == nil && existing == sum:
			return h.projectPath(dst), nil
		case err == nil:
			continue
		case !errors.Is(err, fs.ErrNotExist):
			return "", err
		}

		if staged == "" {
			if staged, err = stageCopy(src, res); err != nil {
				return "", fmt.Errorf("copy %s: %w", base, err)
			}
		}
		// Link fails when another copy claimed the name first.
		if err := os.Link(staged, dst); err != nil {
			if errors.Is(err, fs.ErrExist) {
				n--
				continue
			}
			return "", fmt.Errorf("copy %s: %w", base, err)
		}
		return h.projectPath(dst), nil
	}
	return "", fmt.Errorf("copy %s: %w", base, ErrNameTaken)
}

func digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// stageCopy copies src to a temporary file in dir.
func stageCopy(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, stagePrefix+"*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Busy reports whether copies are still running or waiting for Drain.
func (h *Handler) Busy() bool {
	if h.inflight.Load() > 0 {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ready) > 0
}

// Wait blocks until every background copy has finished. Results still
// need a Drain to reach the layout.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// Drain applies finished copy jobs to the layout, one macro per drop, and
// returns the ids of the created items. It must run on the frame thread.
func (h *Handler) Drain() []string {
	h.mu.Lock()
	ready := h.ready
	h.ready = nil
	h.mu.Unlock()

	var ids []string
	for _, b := range ready {
		if h.index != nil {
			for _, f := range b.files {
				abs := filepath.FromSlash(f)
				if !filepath.IsAbs(abs) {
					abs = filepath.Join(h.opts.ProjectDir, abs)
				}
				if within(h.ResourceDir(), abs) {
					rel, _ := filepath.Rel(h.ResourceDir(), abs)
					h.index.Add(rel)
				}
			}
		}
		ids = append(ids, h.place(fmt.Sprintf("Drop %d files", len(b.files)), b.files, b.pos)...)
	}
	return ids
}

// place instantiates one item per file inside a single macro. Files that
// cannot be mapped to an operator are logged and skipped.
func (h *Handler) place(label string, files []string, pos geom.Vec2) []string {
	if len(files) == 0 {
		return nil
	}
	var ids []string
	err := h.rec.Do(label, func() error {
		for _, f := range files {
			item, err := h.instantiateAsset(f, pos.Add(Stride.Scale(float64(len(ids)))))
			if err != nil {
				h.log.Warn("skipping dropped file", zap.String("path", f), zap.Error(err))
				continue
			}
			if err := h.rec.Execute(&undo.AddItem{Item: item}); err != nil {
				h.log.Warn("adding dropped item failed", zap.String("path", f), zap.Error(err))
				continue
			}
			ids = append(ids, item.ID)
		}
		return nil
	})
	if err != nil {
		h.log.Error("drop failed", zap.String("label", label), zap.Error(err))
		return nil
	}
	return ids
}

func (h *Handler) instantiateAsset(path string, pos geom.Vec2) (*layout.Item, error) {
	opID, ok := h.types.PrimaryOperator(ExtOf(path))
	if !ok {
		return nil, fmt.Errorf("%s: %w", ExtOf(path), ErrUnknownAsset)
	}
	sym, ok := h.cat.TryResolve(opID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", opID, catalog.ErrUnknownSymbol)
	}
	slot, ok := sym.FirstInput(StringType)
	if !ok {
		return nil, fmt.Errorf("%s: %w", sym.Name, ErrNoStringInput)
	}
	item, err := h.cat.Instantiate(opID, pos)
	if err != nil {
		return nil, err
	}
	if item.Inputs == nil {
		item.Inputs = make(map[string]string)
	}
	item.Inputs[slot.ID] = path
	return item, nil
}

func (h *Handler) projectPath(abs string) string {
	if rel, err := filepath.Rel(h.opts.ProjectDir, abs); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(abs)
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}
