package collection

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/events"
	"github.com/boxdrop/service/internal/storage"
)

// Service contains the owner-facing collection logic.
type Service struct {
	store     Store
	allocator *Allocator
	connector storage.Connector
	publisher events.Publisher
	provider  string
	origin    string
	log       *zap.Logger
}

// NewService creates a collection Service. origin is the public app origin
// share links point at.
func NewService(store Store, allocator *Allocator, connector storage.Connector, publisher events.Publisher, provider, origin string, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		allocator: allocator,
		connector: connector,
		publisher: publisher,
		provider:  provider,
		origin:    strings.TrimRight(origin, "/"),
		log:       log,
	}
}

// Create makes a provider folder for the owner and allocates a collection
// for it. The folder is removed again when allocation fails.
func (s *Service) Create(ctx context.Context, ownerID, name string) (*Collection, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	fs := s.connector.Open(storage.Session{OwnerID: ownerID, Provider: s.provider})
	folder, err := fs.CreateFolder(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	c, err := s.allocator.Allocate(ctx, ownerID, name, folder.ID)
	if err != nil {
		if delErr := fs.Delete(ctx, folder.ID); delErr != nil {
			s.log.Warn("remove orphaned folder", zap.String("owner_id", ownerID), zap.String("folder_id", folder.ID), zap.Error(delErr))
		}
		return nil, err
	}

	s.log.Info("collection created", zap.String("owner_id", ownerID), zap.String("collection_id", c.ID), zap.String("code", c.Code))
	s.publish(ctx, events.CollectionCreated, c, true)
	return c, nil
}

// List returns the owner's collections, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Collection, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Get returns one of the owner's collections.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Collection, error) {
	return s.store.GetForOwner(ctx, ownerID, id)
}

// Delete removes the collection. With purge the provider folder and its
// files are deleted too; otherwise they stay in the owner's account.
func (s *Service) Delete(ctx context.Context, ownerID, id string, purge bool) error {
	c, err := s.store.GetForOwner(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if purge {
		fs := s.connector.Open(storage.Session{OwnerID: ownerID, Provider: s.provider})
		if err := fs.Delete(ctx, c.FolderID); err != nil {
			return fmt.Errorf("purge collection folder: %w", err)
		}
	}
	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.log.Info("collection deleted", zap.String("owner_id", ownerID), zap.String("collection_id", id), zap.Bool("purged", purge))
	s.publish(ctx, events.CollectionDeleted, c, false)
	return nil
}

// Files lists the files uploaded into the collection's folder.
func (s *Service) Files(ctx context.Context, ownerID, id string) ([]storage.File, error) {
	c, err := s.store.GetForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	fs := s.connector.Open(storage.Session{OwnerID: ownerID, Provider: s.provider})
	files, err := fs.ListFiles(ctx, c.FolderID)
	if err != nil {
		return nil, fmt.Errorf("list collection files: %w", err)
	}
	return files, nil
}

// Content is a downloaded file of a collection.
type Content struct {
	File        storage.File
	ContentType string
	Data        []byte
}

// FileContent downloads fileID. The file must be listed in the
// collection's folder; other files of the owner's drive are not reachable.
func (s *Service) FileContent(ctx context.Context, ownerID, id, fileID string) (*Content, error) {
	c, err := s.store.GetForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	fs := s.connector.Open(storage.Session{OwnerID: ownerID, Provider: s.provider})
	files, err := fs.ListFiles(ctx, c.FolderID)
	if err != nil {
		return nil, fmt.Errorf("list collection files: %w", err)
	}

	idx := slices.IndexFunc(files, func(f storage.File) bool { return f.ID == fileID })
	if idx < 0 {
		return nil, fmt.Errorf("%w: file %q is not in the collection", ErrNotFound, fileID)
	}
	data, contentType, err := fs.Download(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("download collection file: %w", err)
	}
	if contentType == "" {
		contentType = files[idx].MimeType
	}
	return &Content{File: files[idx], ContentType: contentType, Data: data}, nil
}

// ShareURL returns the public upload link for code.
func (s *Service) ShareURL(code string) string {
	return s.origin + "/#/box/" + code
}

// Snapshot returns the owner's collections for a dashboard that just
// connected to the change feed.
func (s *Service) Snapshot(ctx context.Context, ownerID string) (interface{}, error) {
	list, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(list))
	for _, c := range list {
		out = append(out, s.View(c))
	}
	return out, nil
}

// View is a collection as shown to its owner.
type View struct {
	Collection
	ShareURL string `json:"shareUrl"`
}

// View decorates c with its share link.
func (s *Service) View(c Collection) View {
	return View{Collection: c, ShareURL: s.ShareURL(c.Code)}
}

// NotifyUpdated publishes the new state of c after its counter changed.
func (s *Service) NotifyUpdated(ctx context.Context, c *Collection) {
	s.publish(ctx, events.CollectionUpdated, c, true)
}

// publish sends a change event. Failures are logged; dashboards resync
// from the snapshot on reconnect.
func (s *Service) publish(ctx context.Context, t events.Type, c *Collection, withView bool) {
	var payload interface{}
	if withView {
		payload = s.View(*c)
	}
	e, err := events.New(t, c.OwnerID, c.ID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn("publish collection event", zap.String("type", string(t)), zap.String("collection_id", c.ID), zap.Error(err))
	}
}
