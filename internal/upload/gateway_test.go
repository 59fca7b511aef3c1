package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/collection"
	"github.com/boxdrop/service/internal/credential"
	"github.com/boxdrop/service/internal/mocks"
	"github.com/boxdrop/service/internal/storage"
)

const (
	ownerID  = "owner-1"
	provider = "google"
)

var (
	pngData  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegData = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	session  = storage.Session{OwnerID: ownerID, Provider: provider}
)

type notifier struct {
	mu      sync.Mutex
	updated []collection.Collection
}

func (n *notifier) NotifyUpdated(_ context.Context, c *collection.Collection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, *c)
}

func openCollection(now time.Time) *collection.Collection {
	created := now.Add(-24 * time.Hour)
	return &collection.Collection{
		ID: "c-1", OwnerID: ownerID, Name: "Wedding", FolderID: "folder-1", Code: "AB12CD",
		CreatedAt: created, ExpiresAt: created.Add(90 * 24 * time.Hour), ItemCount: 2,
	}
}

func images(names ...string) []File {
	files := make([]File, 0, len(names))
	for _, n := range names {
		files = append(files, File{Name: n, ContentType: "image/png", Data: pngData})
	}
	return files
}

func newGateway(store collection.Store, connector storage.Connector, n Notifier) *Gateway {
	return NewGateway(store, connector, n, Config{Provider: provider, Concurrency: 2, Timeout: time.Second}, zap.NewNop())
}

func TestResolve_ExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		expiresAt time.Time
		expired   bool
	}{
		{name: "one millisecond past", expiresAt: now.Add(-time.Millisecond), expired: true},
		{name: "exactly now", expiresAt: now, expired: true},
		{name: "one millisecond left", expiresAt: now.Add(time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			store := mocks.NewMockCollectionStore(ctrl)
			c := openCollection(now)
			c.ExpiresAt = tt.expiresAt
			store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(c, nil)

			g := newGateway(store, mocks.NewMockConnector(ctrl), &notifier{})
			g.now = func() time.Time { return now }

			box, err := g.Resolve(context.Background(), "AB12CD")
			if tt.expired {
				assert.ErrorIs(t, err, ErrExpired)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Wedding", box.Name)
			assert.Equal(t, 2, box.ItemCount)
		})
	}
}

func TestUpload_CollectionPastRetentionIsExpired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	connector := mocks.NewMockConnector(ctrl)

	created := time.Now().Add(-91 * 24 * time.Hour)
	store.EXPECT().GetByCode(gomock.Any(), "AB12").Return(&collection.Collection{
		ID: "c-1", OwnerID: ownerID, FolderID: "folder-1", Code: "AB12",
		CreatedAt: created, ExpiresAt: created.Add(90 * 24 * time.Hour),
	}, nil)

	_, err := newGateway(store, connector, &notifier{}).Upload(context.Background(), "AB12", images("a.png"), "203.0.113.9:4000")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestUpload_MalformedCodeNeverHitsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g := newGateway(mocks.NewMockCollectionStore(ctrl), mocks.NewMockConnector(ctrl), &notifier{})
	for _, code := range []string{"", "AB1", "AB-12", "ABCDEFGHIJKLM"} {
		_, err := g.Upload(context.Background(), code, images("a.png"), "")
		assert.ErrorIs(t, err, ErrValidation, code)
	}
}

func TestUpload_UnknownCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	store.EXPECT().GetByCode(gomock.Any(), "ZZZZZZ").Return(nil, collection.ErrNotFound)

	_, err := newGateway(store, mocks.NewMockConnector(ctrl), &notifier{}).Upload(context.Background(), "ZZZZZZ", images("a.png"), "")
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestUpload_NonImageFailsWholeBatchBeforeUploading(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(openCollection(time.Now()), nil)

	files := append(images("a.png"), File{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")})
	_, err := newGateway(store, mocks.NewMockConnector(ctrl), &notifier{}).Upload(context.Background(), "AB12CD", files, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpload_NoFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(openCollection(time.Now()), nil)

	_, err := newGateway(store, mocks.NewMockConnector(ctrl), &notifier{}).Upload(context.Background(), "AB12CD", nil, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpload_OwnerDisconnectedFailsBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	connector := mocks.NewMockConnector(ctrl)
	fs := mocks.NewMockFileStore(ctrl)

	store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(openCollection(time.Now()), nil)
	connector.EXPECT().Open(session).Return(fs)
	fs.EXPECT().Prepare(gomock.Any()).Return(storage.ErrOwnerDisconnected)

	_, err := newGateway(store, connector, &notifier{}).Upload(context.Background(), "AB12CD", images("a.png", "b.png"), "")
	assert.ErrorIs(t, err, storage.ErrOwnerDisconnected)
}

func TestUpload_CounterFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	connector := mocks.NewMockConnector(ctrl)
	fs := mocks.NewMockFileStore(ctrl)
	n := &notifier{}

	store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(openCollection(time.Now()), nil)
	connector.EXPECT().Open(session).Return(fs)
	fs.EXPECT().Prepare(gomock.Any()).Return(nil)
	fs.EXPECT().Upload(gomock.Any(), "folder-1", gomock.Any()).Return(&storage.File{ID: "f"}, nil).Times(2)
	store.EXPECT().IncrementItemCount(gomock.Any(), "c-1", 2).Return(0, errors.New("connection reset"))

	out, err := newGateway(store, connector, n).Upload(context.Background(), "AB12CD", images("a.png", "b.png"), "")
	require.NoError(t, err)
	assert.False(t, out.CounterUpdated)
	assert.Equal(t, 2, out.Completed)
	assert.Equal(t, 2, out.ItemCount, "count stays at the last known value")
	assert.Empty(t, n.updated)
}

func TestUpload_AllFailedSkipsCounter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	connector := mocks.NewMockConnector(ctrl)
	fs := mocks.NewMockFileStore(ctrl)

	store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(openCollection(time.Now()), nil)
	connector.EXPECT().Open(session).Return(fs)
	fs.EXPECT().Prepare(gomock.Any()).Return(nil)
	fs.EXPECT().Upload(gomock.Any(), "folder-1", gomock.Any()).Return(nil, &storage.UpstreamError{Status: http.StatusInternalServerError}).Times(2)

	out, err := newGateway(store, connector, &notifier{}).Upload(context.Background(), "AB12CD", images("a.png", "b.png"), "")
	require.NoError(t, err)
	assert.Zero(t, out.Completed)
	assert.Equal(t, 2, out.Failed)
	assert.True(t, out.CounterUpdated)
}

func TestUpload_TimeoutFailsOnlyThatFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	connector := mocks.NewMockConnector(ctrl)
	fs := mocks.NewMockFileStore(ctrl)

	store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(openCollection(time.Now()), nil)
	connector.EXPECT().Open(session).Return(fs)
	fs.EXPECT().Prepare(gomock.Any()).Return(nil)
	fs.EXPECT().Upload(gomock.Any(), "folder-1", gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, obj storage.Object) (*storage.File, error) {
			if obj.Name == "slow.png" {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &storage.File{ID: "id-" + obj.Name}, nil
		}).Times(2)
	store.EXPECT().IncrementItemCount(gomock.Any(), "c-1", 1).Return(3, nil)

	g := NewGateway(store, connector, &notifier{}, Config{Provider: provider, Concurrency: 2, Timeout: 50 * time.Millisecond}, zap.NewNop())
	out, err := g.Upload(context.Background(), "AB12CD", images("slow.png", "fast.png"), "")
	require.NoError(t, err)
	assert.Equal(t, StatusError, out.Results[0].Status)
	assert.Equal(t, "upload timed out", out.Results[0].Error)
	assert.Equal(t, StatusCompleted, out.Results[1].Status)
	assert.Equal(t, 3, out.ItemCount)
}

// fakeDrive is a provider files endpoint that fails uploads named in fail.
type fakeDrive struct {
	fail    map[string]bool
	uploads atomic.Int32
	keys    sync.Map
}

func (d *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.uploads.Add(1)
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	part, err := multipart.NewReader(r.Body, params["boundary"]).NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var meta struct {
		Name          string            `json:"name"`
		AppProperties map[string]string `json:"appProperties"`
	}
	_ = json.NewDecoder(part).Decode(&meta)
	_, _ = io.Copy(io.Discard, r.Body)

	if d.fail[meta.Name] {
		http.Error(w, `{"error":{"code":500,"message":"backend"}}`, http.StatusInternalServerError)
		return
	}
	d.keys.Store(meta.AppProperties["idempotencyKey"], meta.Name)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": "id-" + meta.Name, "name": meta.Name})
}

func newDriveProvider(t *testing.T, creds storage.Credentials, drive http.Handler) *storage.Provider {
	t.Helper()
	srv := httptest.NewServer(drive)
	t.Cleanup(srv.Close)
	return storage.NewProvider(storage.Deps{
		Credentials: creds,
		HTTP:        resty.New(),
		Margin:      30 * time.Second,
		Timeout:     2 * time.Second,
		Log:         zap.NewNop(),
	}, storage.Endpoints{API: srv.URL, Upload: srv.URL, Profile: srv.URL})
}

func TestUpload_FiveFilesThirdFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	creds := mocks.NewMockCredentials(ctrl)
	drive := &fakeDrive{fail: map[string]bool{"3.jpg": true}}
	n := &notifier{}

	live := time.Now().Add(time.Hour)
	store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(openCollection(time.Now()), nil)
	creds.EXPECT().Get(gomock.Any(), ownerID, provider).Return(&credential.Credential{
		OwnerID: ownerID, Provider: provider, AccessToken: "live", ExpiresAt: &live,
	}, nil).Times(1)
	store.EXPECT().IncrementItemCount(gomock.Any(), "c-1", 4).Return(6, nil)

	files := make([]File, 0, 5)
	for _, name := range []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"} {
		files = append(files, File{Name: name, ContentType: "image/jpeg", Data: jpegData})
	}

	g := newGateway(store, newDriveProvider(t, creds, drive), n)
	out, err := g.Upload(context.Background(), "AB12CD", files, "203.0.113.9:4000")
	require.NoError(t, err)

	require.Len(t, out.Results, 5)
	for i, r := range out.Results {
		assert.Equal(t, i, r.Index)
		assert.NotEmpty(t, r.IdempotencyKey)
		if i == 2 {
			assert.Equal(t, StatusError, r.Status)
			assert.Empty(t, r.FileID)
			continue
		}
		assert.Equal(t, StatusCompleted, r.Status)
		assert.Equal(t, "id-"+r.FileName, r.FileID)
		name, ok := drive.keys.Load(r.IdempotencyKey)
		assert.True(t, ok)
		assert.Equal(t, r.FileName, name)
	}
	assert.Equal(t, 4, out.Completed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 6, out.ItemCount)
	assert.True(t, out.CounterUpdated)

	require.Len(t, n.updated, 1)
	assert.Equal(t, 6, n.updated[0].ItemCount)
}

func TestUpload_ExpiredTokenRevokedRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockCollectionStore(ctrl)
	creds := mocks.NewMockCredentials(ctrl)
	drive := &fakeDrive{}

	expired := time.Now().Add(-time.Hour)
	store.EXPECT().GetByCode(gomock.Any(), "AB12CD").Return(openCollection(time.Now()), nil)
	creds.EXPECT().Get(gomock.Any(), ownerID, provider).Return(&credential.Credential{
		OwnerID: ownerID, Provider: provider, AccessToken: "old", RefreshToken: "revoked", ExpiresAt: &expired,
	}, nil)
	creds.EXPECT().Refresh(gomock.Any(), ownerID, provider).Return(nil, &credential.RefreshError{
		OwnerID: ownerID, Provider: provider, Status: http.StatusBadRequest, Code: "invalid_grant", Err: credential.ErrProviderRejected,
	})

	g := newGateway(store, newDriveProvider(t, creds, drive), &notifier{})
	_, err := g.Upload(context.Background(), "AB12CD", images("a.png", "b.png"), "")
	assert.ErrorIs(t, err, storage.ErrOwnerDisconnected)
	assert.Zero(t, drive.uploads.Load())
}

func TestImageType(t *testing.T) {
	heic := append([]byte{0, 0, 0, 24}, []byte("ftypheic\x00\x00\x00\x00mif1heic")...)
	tests := []struct {
		name string
		file File
		want string
		ok   bool
	}{
		{name: "png", file: File{ContentType: "image/png", Data: pngData}, want: "image/png", ok: true},
		{name: "jpeg without declared type", file: File{Data: jpegData}, want: "image/jpeg", ok: true},
		{name: "octet stream declared", file: File{ContentType: "application/octet-stream", Data: jpegData}, want: "image/jpeg", ok: true},
		{name: "heic", file: File{ContentType: "image/heic", Data: heic}, want: "image/heic", ok: true},
		{name: "declared text", file: File{ContentType: "text/plain", Data: pngData}},
		{name: "image header on text", file: File{ContentType: "image/png", Data: []byte("plain text")}},
		{name: "empty", file: File{ContentType: "image/png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := imageType(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
