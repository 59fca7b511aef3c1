package collection_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/collection"
	"github.com/boxdrop/service/internal/middleware"
	"github.com/boxdrop/service/internal/response"
	"github.com/boxdrop/service/internal/storage"
)

func newRouter(f *fixture) http.Handler {
	h := collection.NewHandler(f.svc, zap.NewNop())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithOwnerID(r.Context(), ownerID)))
		})
	})
	r.Post("/collections", h.Create)
	r.Get("/collections", h.List)
	r.Get("/collections/{id}", h.Get)
	r.Delete("/collections/{id}", h.Delete)
	r.Get("/collections/{id}/files", h.Files)
	r.Get("/collections/{id}/files/{fileId}/content", h.FileContent)
	return r
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, strings.NewReader(body)))
	return w
}

func TestHandler_CreateStatuses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(f *fixture)
		status int
	}{
		{
			name:   "bad json",
			body:   `{`,
			setup:  func(f *fixture) {},
			status: http.StatusBadRequest,
		},
		{
			name:   "empty name",
			body:   `{"name":""}`,
			setup:  func(f *fixture) {},
			status: http.StatusBadRequest,
		},
		{
			name: "owner disconnected",
			body: `{"name":"Wedding"}`,
			setup: func(f *fixture) {
				f.connector.EXPECT().Open(session).Return(f.files)
				f.files.EXPECT().CreateFolder(gomock.Any(), "Wedding").Return(nil, storage.ErrOwnerDisconnected)
			},
			status: http.StatusForbidden,
		},
		{
			name: "provider down",
			body: `{"name":"Wedding"}`,
			setup: func(f *fixture) {
				f.connector.EXPECT().Open(session).Return(f.files)
				f.files.EXPECT().CreateFolder(gomock.Any(), "Wedding").Return(nil, &storage.UpstreamError{Status: http.StatusServiceUnavailable})
			},
			status: http.StatusBadGateway,
		},
		{
			name: "allocation exhausted",
			body: `{"name":"Wedding"}`,
			setup: func(f *fixture) {
				f.connector.EXPECT().Open(session).Return(f.files)
				f.files.EXPECT().CreateFolder(gomock.Any(), "Wedding").Return(&storage.File{ID: "folder-1"}, nil)
				f.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(collection.ErrCodeTaken).Times(3)
				f.files.EXPECT().Delete(gomock.Any(), "folder-1").Return(nil)
			},
			status: http.StatusConflict,
		},
		{
			name: "created",
			body: `{"name":"Wedding"}`,
			setup: func(f *fixture) {
				f.connector.EXPECT().Open(session).Return(f.files)
				f.files.EXPECT().CreateFolder(gomock.Any(), "Wedding").Return(&storage.File{ID: "folder-1"}, nil)
				f.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			status: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			w := serve(newRouter(f), http.MethodPost, "/collections", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandler_GetNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, "missing").Return(nil, collection.ErrNotFound)

	w := serve(newRouter(f), http.MethodGet, "/collections/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ListHidesOwner(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().ListByOwner(gomock.Any(), ownerID).Return([]collection.Collection{*stored()}, nil)

	w := serve(newRouter(f), http.MethodGet, "/collections", "")
	require.Equal(t, http.StatusOK, w.Code)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.NotContains(t, w.Body.String(), ownerID)
	assert.Contains(t, w.Body.String(), `"shareUrl":"https://boxdrop.example/#/box/AB12CD"`)
}

func TestHandler_DeletePurgeFlag(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().Delete(gomock.Any(), "folder-1").Return(nil)
	f.store.EXPECT().Delete(gomock.Any(), ownerID, collectionID).Return(nil)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	w := serve(newRouter(f), http.MethodDelete, "/collections/"+collectionID+"?purge=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Files(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().ListFiles(gomock.Any(), "folder-1").Return([]storage.File{{ID: "f-1"}}, nil)

	w := serve(newRouter(f), http.MethodGet, "/collections/"+collectionID+"/files", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"f-1"`)
}

func TestHandler_FileContent(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().ListFiles(gomock.Any(), "folder-1").Return([]storage.File{{ID: "f-1", Name: "cake.jpg", MimeType: "image/jpeg"}}, nil)
	f.files.EXPECT().Download(gomock.Any(), "f-1").Return([]byte("jpeg-bytes"), "image/jpeg", nil)

	w := serve(newRouter(f), http.MethodGet, "/collections/"+collectionID+"/files/f-1/content", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=cake.jpg`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "jpeg-bytes", w.Body.String())
}

func TestHandler_FileContentOutsideFolder(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().ListFiles(gomock.Any(), "folder-1").Return([]storage.File{{ID: "f-1"}}, nil)

	w := serve(newRouter(f), http.MethodGet, "/collections/"+collectionID+"/files/private-doc/content", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_FileContentProviderDown(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().GetForOwner(gomock.Any(), ownerID, collectionID).Return(stored(), nil)
	f.connector.EXPECT().Open(session).Return(f.files)
	f.files.EXPECT().ListFiles(gomock.Any(), "folder-1").Return([]storage.File{{ID: "f-1"}}, nil)
	f.files.EXPECT().Download(gomock.Any(), "f-1").Return(nil, "", &storage.UpstreamError{Status: http.StatusServiceUnavailable})

	w := serve(newRouter(f), http.MethodGet, "/collections/"+collectionID+"/files/f-1/content", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
