// Package upload is the public boundary anonymous uploaders cross. A short
// code resolves to a collection; while it is open, files are stored in the
// collection owner's folder using the owner's provider credential.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boxdrop/service/internal/collection"
	"github.com/boxdrop/service/internal/storage"
)

// counterTimeout bounds the item counter update, which runs even when the
// uploader has gone away.
const counterTimeout = 5 * time.Second

var (
	// ErrValidation is returned for malformed codes and unacceptable files.
	ErrValidation = errors.New("invalid upload")

	// ErrExpired is returned once a collection's retention window has passed.
	ErrExpired = errors.New("link has expired")
)

// Status is the state of one file in a batch.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// File is one submitted file.
type File struct {
	Name        string
	ContentType string // as declared by the client
	Data        []byte
}

// Result is the outcome of one file. IdempotencyKey is unique per attempt
// and recorded with the stored file.
type Result struct {
	Index          int    `json:"index"`
	FileName       string `json:"fileName"`
	IdempotencyKey string `json:"idempotencyKey"`
	Status         Status `json:"status"`
	FileID         string `json:"fileId,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Outcome is the result of a batch. CounterUpdated is false when files were
// stored but the item counter could not be incremented; the collection then
// under-counts.
type Outcome struct {
	Results        []Result `json:"results"`
	Completed      int      `json:"completed"`
	Failed         int      `json:"failed"`
	ItemCount      int      `json:"itemCount"`
	CounterUpdated bool     `json:"counterUpdated"`
}

// Box is the public view of an open collection.
type Box struct {
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
	ItemCount int       `json:"itemCount"`
}

// Notifier is told about counter changes.
type Notifier interface {
	NotifyUpdated(ctx context.Context, c *collection.Collection)
}

// Config tunes the gateway.
type Config struct {
	Provider    string
	Concurrency int
	Timeout     time.Duration // per file
}

// Gateway runs public upload requests.
type Gateway struct {
	store     collection.Store
	connector storage.Connector
	notifier  Notifier
	cfg       Config
	now       func() time.Time
	newKey    func() string
	log       *zap.Logger
}

// NewGateway creates a Gateway.
func NewGateway(store collection.Store, connector storage.Connector, notifier Notifier, cfg Config, log *zap.Logger) *Gateway {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Gateway{
		store:     store,
		connector: connector,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
		newKey:    uuid.NewString,
		log:       log,
	}
}

// Resolve returns the public view of the collection behind code.
func (g *Gateway) Resolve(ctx context.Context, code string) (*Box, error) {
	c, err := g.open(ctx, code)
	if err != nil {
		return nil, err
	}
	return &Box{Name: c.Name, ExpiresAt: c.ExpiresAt, ItemCount: c.ItemCount}, nil
}

// Upload stores files in the folder of the collection behind code.
// Failures before any file is sent fail the whole request; afterwards each
// file succeeds or fails on its own.
func (g *Gateway) Upload(ctx context.Context, code string, files []File, remoteAddr string) (*Outcome, error) {
	c, err := g.open(ctx, code)
	if err != nil {
		return nil, err
	}

	objects, err := prepare(files)
	if err != nil {
		return nil, err
	}

	g.log.Info("acting as collection owner for public upload",
		zap.String("collection_id", c.ID),
		zap.String("owner_id", c.OwnerID),
		zap.String("code", c.Code),
		zap.String("remote_addr", remoteAddr),
		zap.Int("files", len(files)),
	)
	fs := g.connector.Open(storage.Session{OwnerID: c.OwnerID, Provider: g.cfg.Provider})
	if err := fs.Prepare(ctx); err != nil {
		return nil, fmt.Errorf("resolve owner token: %w", err)
	}

	results := g.uploadAll(ctx, fs, c.FolderID, objects)

	out := &Outcome{Results: results, ItemCount: c.ItemCount, CounterUpdated: true}
	for _, r := range results {
		if r.Status == StatusCompleted {
			out.Completed++
		} else {
			out.Failed++
		}
	}
	if out.Completed == 0 {
		return out, nil
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), counterTimeout)
	defer cancel()
	count, err := g.store.IncrementItemCount(cctx, c.ID, out.Completed)
	if err != nil {
		out.CounterUpdated = false
		g.log.Error("item counter not updated after upload",
			zap.String("collection_id", c.ID),
			zap.Int("uploaded", out.Completed),
			zap.Error(err),
		)
		return out, nil
	}
	out.ItemCount = count
	c.ItemCount = count
	g.notifier.NotifyUpdated(cctx, c)
	return out, nil
}

// open resolves code and checks the collection is still accepting uploads.
func (g *Gateway) open(ctx context.Context, code string) (*collection.Collection, error) {
	if !collection.ValidCode(code) {
		return nil, fmt.Errorf("%w: malformed link code", ErrValidation)
	}
	c, err := g.store.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	if c.Expired(g.now()) {
		return nil, ErrExpired
	}
	return c, nil
}

func (g *Gateway) uploadAll(ctx context.Context, fs storage.FileStore, folderID string, objects []storage.Object) []Result {
	results := make([]Result, len(objects))
	for i := range objects {
		objects[i].IdempotencyKey = g.newKey()
		results[i] = Result{
			Index:          i,
			FileName:       objects[i].Name,
			IdempotencyKey: objects[i].IdempotencyKey,
			Status:         StatusPending,
		}
	}

	var group errgroup.Group
	group.SetLimit(g.cfg.Concurrency)
	for i := range objects {
		i := i
		group.Go(func() error {
			results[i].Status = StatusUploading

			fctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
			defer cancel()
			f, err := fs.Upload(fctx, folderID, objects[i])
			if err != nil {
				results[i].Status = StatusError
				results[i].Error = failureMessage(err)
				g.log.Warn("file upload failed",
					zap.String("file", objects[i].Name),
					zap.String("idempotency_key", objects[i].IdempotencyKey),
					zap.Error(err),
				)
				// a failed file never cancels its siblings
				return nil
			}
			results[i].Status = StatusCompleted
			results[i].FileID = f.ID
			return nil
		})
	}
	// the group only bounds parallelism; failures are recorded per file and
	// no goroutine returns an error
	_ = group.Wait()
	return results
}

// prepare checks every file is an image and builds the objects to upload.
func prepare(files []File) ([]storage.Object, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files submitted", ErrValidation)
	}
	objects := make([]storage.Object, 0, len(files))
	for _, f := range files {
		contentType, ok := imageType(f)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an image", ErrValidation, f.Name)
		}
		name := strings.TrimSpace(f.Name)
		if name == "" {
			name = "upload"
		}
		objects = append(objects, storage.Object{Name: name, ContentType: contentType, Data: f.Data})
	}
	return objects, nil
}

// imageType sniffs the content type of f. The declared type must not
// contradict the content. HEIC/HEIF, which the sniffer does not know, is
// recognised by its ftyp brand.
func imageType(f File) (string, bool) {
	if len(f.Data) == 0 {
		return "", false
	}
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
	if declared != "" && declared != "application/octet-stream" && !strings.HasPrefix(declared, "image/") {
		return "", false
	}

	sniffed := http.DetectContentType(f.Data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, true
	}
	if isHEIF(f.Data) {
		if declared == "image/heif" {
			return declared, true
		}
		return "image/heic", true
	}
	return "", false
}

var heifBrands = [][]byte{[]byte("heic"), []byte("heix"), []byte("heif"), []byte("mif1"), []byte("msf1")}

func isHEIF(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	for _, brand := range heifBrands {
		if bytes.Equal(data[8:12], brand) {
			return true
		}
	}
	return false
}

// failureMessage is the short per-file error shown to the uploader.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "upload timed out"
	case errors.Is(err, storage.ErrOwnerDisconnected):
		return "owner is not connected to storage"
	default:
		return "storage provider rejected the file"
	}
}
