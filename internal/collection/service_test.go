package collection_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/collection"
	"github.com/boxdrop/service/internal/events"
	"github.com/boxdrop/service/internal/mocks"
	"github.com/boxdrop/service/internal/storage"
)

const (
	ownerID      = "owner-1"
	provider     = "google"
	collectionID = "5b1c1f8e-3f0e-4a57-9d9e-0d6c2b1f4a11"
)

var session = storage.Session{OwnerID: ownerID, Provider: provider}

type fixture struct {
	store     *mocks.MockCollectionStore
	connector *mocks.MockConnector
	files     *mocks.MockFileStore
	publisher *mocks.MockPublisher
	svc       *collection.Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	f := &fixture{
		store:     mocks.NewMockCollectionStore(ctrl),
		connector: mocks.NewMockConnector(ctrl),
		files:     mocks.NewMockFileStore(ctrl),
		publisher: mocks.NewMockPublisher(ctrl),
	}
	alloc := collection.NewAllocator(f.store, collection.AllocatorConfig{
		CodeLength: 6, MaxAttempts: 3, Retention: 90 * 24 * time.Hour,
	}, zap.NewNop())
	f.svc = collection.NewService(f.store, alloc, f.connector, f.publisher, provider, "https://boxdrop.example/", zap.NewNop())
	return f
}

func stored() *collection.Collection {
	created := time.Now().Add(-time.Hour).UTC()
	return &collection.Collection{
		ID: collectionID, OwnerID: ownerID, Name: "Wedding", FolderID: "folder-1", Code: "AB12CD",
		CreatedAt: created, ExpiresAt: created.Add(90 * 24 * time.Hour),
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)

	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().CreateFolder(gomock.Any(), "Wedding").Return(&storage.File{ID: "folder-1"}, nil)
	f.store.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *collection.Collection) error {
		assert.Equal(t, "folder-1", c.FolderID)
		assert.Equal(t, ownerID, c.OwnerID)
		c.ID = collectionID
		return nil
	})
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
		assert.Equal(t, events.CollectionCreated, e.Type)
		assert.Equal(t, ownerID, e.OwnerID)
		var view collection.View
		require.NoError(t, json.Unmarshal(e.Payload, &view))
		assert.Equal(t, "https://boxdrop.example/#/box/"+view.Code, view.ShareURL)
		return nil
	})

	c, err := f.svc.Create(context.Background(), ownerID, "  Wedding ")
	require.NoError(t, err)
	assert.Equal(t, collectionID, c.ID)
}

func TestService_CreateRemovesFolderWhenAllocationFails(t *testing.T) {
	f := newFixture(t)

	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().CreateFolder(gomock.Any(), "Wedding").Return(&storage.File{ID: "folder-1"}, nil)
	f.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(collection.ErrCodeTaken).Times(3)
	f.files.EXPECT().Delete(gomock.Any(), "folder-1").Return(nil)

	_, err := f.svc.Create(context.Background(), ownerID, "Wedding")
	assert.ErrorIs(t, err, collection.ErrAllocationExhausted)
}

func TestService_CreateOwnerDisconnected(t *testing.T) {
	f := newFixture(t)

	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().CreateFolder(gomock.Any(), "Wedding").Return(nil, storage.ErrOwnerDisconnected)

	_, err := f.svc.Create(context.Background(), ownerID, "Wedding")
	assert.ErrorIs(t, err, storage.ErrOwnerDisconnected)
}

func TestService_CreateRejectsEmptyName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), ownerID, " ")
	assert.ErrorIs(t, err, collection.ErrValidation)
}

func TestService_PublishFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)

	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().CreateFolder(gomock.Any(), "Wedding").Return(&storage.File{ID: "folder-1"}, nil)
	f.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(assert.AnError)

	_, err := f.svc.Create(context.Background(), ownerID, "Wedding")
	assert.NoError(t, err)
}

func TestService_DeleteKeepsFolder(t *testing.T) {
	f := newFixture(t)

	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.store.EXPECT().Delete(gomock.Any(), ownerID, collectionID).Return(nil)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
		assert.Equal(t, events.CollectionDeleted, e.Type)
		assert.Equal(t, collectionID, e.CollectionID)
		return nil
	})

	require.NoError(t, f.svc.Delete(context.Background(), ownerID, collectionID, false))
}

func TestService_DeletePurgesFolder(t *testing.T) {
	f := newFixture(t)

	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().Delete(gomock.Any(), "folder-1").Return(nil)
	f.store.EXPECT().Delete(gomock.Any(), ownerID, collectionID).Return(nil)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), ownerID, collectionID, true))
}

func TestService_DeleteOtherOwner(t *testing.T) {
	f := newFixture(t)

	f.store.EXPECT().GetForOwner(gomock.Any(), "intruder", collectionID).Return(nil, collection.ErrNotFound)

	err := f.svc.Delete(context.Background(), "intruder", collectionID, true)
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestService_Files(t *testing.T) {
	f := newFixture(t)
	want := []storage.File{{ID: "f-1", Name: "a.jpg"}}

	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().ListFiles(gomock.Any(), "folder-1").Return(want, nil)

	files, err := f.svc.Files(context.Background(), ownerID, collectionID)
	require.NoError(t, err)
	assert.Equal(t, want, files)
}

func TestService_Snapshot(t *testing.T) {
	f := newFixture(t)

	f.store.EXPECT().ListByOwner(gomock.Any(), ownerID).Return([]collection.Collection{*stored()}, nil)

	snap, err := f.svc.Snapshot(context.Background(), ownerID)
	require.NoError(t, err)
	views, ok := snap.([]collection.View)
	require.True(t, ok)
	require.Len(t, views, 1)
	assert.Equal(t, "https://boxdrop.example/#/box/AB12CD", views[0].ShareURL)
}

func TestService_FileContentFallsBackToListedType(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().ListFiles(gomock.Any(), "folder-1").Return([]storage.File{{ID: "f-1", Name: "a.heic", MimeType: "image/heic"}}, nil)
	f.files.EXPECT().Download(gomock.Any(), "f-1").Return([]byte("heic"), "", nil)

	content, err := f.svc.FileContent(context.Background(), ownerID, collectionID, "f-1")
	require.NoError(t, err)
	assert.Equal(t, "image/heic", content.ContentType)
	assert.Equal(t, "a.heic", content.File.Name)
}

func TestService_FileContentOtherOwner(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetForOwner(gomock.Any(), "owner-2", collectionID).Return(nil, collection.ErrNotFound)

	_, err := f.svc.FileContent(context.Background(), "owner-2", collectionID, "f-1")
	assert.ErrorIs(t, err, collection.ErrNotFound)
}
