package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	fileFields     = "id,name,mimeType,size,createdTime,thumbnailLink,webViewLink"
	listPageSize   = "1000"
)

// Drive implements FileStore over a Drive v3 style files API.
type Drive struct {
	client    *AuthorizedClient
	endpoints Endpoints
}

var _ FileStore = (*Drive)(nil)

// NewDrive creates a Drive sending requests through client.
func NewDrive(client *AuthorizedClient, endpoints Endpoints) *Drive {
	return &Drive{client: client, endpoints: endpoints}
}

// Prepare loads a usable owner token.
func (d *Drive) Prepare(ctx context.Context) error {
	return d.client.Prepare(ctx)
}

// CreateFolder creates a top-level folder named name.
func (d *Drive) CreateFolder(ctx context.Context, name string) (*File, error) {
	body, err := json.Marshal(map[string]string{"name": name, "mimeType": folderMimeType})
	if err != nil {
		return nil, fmt.Errorf("encode folder metadata: %w", err)
	}
	resp, err := d.client.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    d.endpoints.API + "/files",
		Query:  url.Values{"fields": {fileFields}},
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return decodeFile(resp.Body())
}

// ListFiles returns the non-trashed files in folderID, following pagination.
func (d *Drive) ListFiles(ctx context.Context, folderID string) ([]File, error) {
	query := url.Values{
		"q":        {fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))},
		"fields":   {"nextPageToken,files(" + fileFields + ")"},
		"orderBy":  {"createdTime desc"},
		"pageSize": {listPageSize},
	}

	files := []File{}
	for {
		resp, err := d.client.Do(ctx, &Request{
			Method: http.MethodGet,
			URL:    d.endpoints.API + "/files",
			Query:  query,
		})
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		var page struct {
			Files         []File `json:"files"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := json.Unmarshal(resp.Body(), &page); err != nil {
			return nil, fmt.Errorf("decode file list: %w", err)
		}
		files = append(files, page.Files...)
		if page.NextPageToken == "" {
			return files, nil
		}
		query.Set("pageToken", page.NextPageToken)
	}
}

// Upload stores obj in folderID as one multipart/related request carrying
// the metadata and the media. The idempotency key is recorded as an app
// property so a retried attempt can be told apart from a duplicate. A
// deadline on ctx takes the place of the provider call timeout.
func (d *Drive) Upload(ctx context.Context, folderID string, obj Object) (*File, error) {
	metadata := map[string]interface{}{
		"name":     obj.Name,
		"parents":  []string{folderID},
		"mimeType": obj.ContentType,
	}
	if obj.IdempotencyKey != "" {
		metadata["appProperties"] = map[string]string{"idempotencyKey": obj.IdempotencyKey}
	}

	body, contentType, err := multipartRelated(metadata, obj)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(ctx, &Request{
		Method:         http.MethodPost,
		URL:            d.endpoints.Upload + "/files",
		Query:          url.Values{"uploadType": {"multipart"}, "fields": {fileFields}},
		Header:         map[string]string{"Content-Type": contentType},
		Body:           body,
		CallerDeadline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", obj.Name, err)
	}
	return decodeFile(resp.Body())
}

// Download returns the content and content type of fileID.
func (d *Drive) Download(ctx context.Context, fileID string) ([]byte, string, error) {
	resp, err := d.client.Do(ctx, &Request{
		Method: http.MethodGet,
		URL:    d.endpoints.API + "/files/" + url.PathEscape(fileID),
		Query:  url.Values{"alt": {"media"}},
	})
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// Delete removes fileID, which may be a folder.
func (d *Drive) Delete(ctx context.Context, fileID string) error {
	_, err := d.client.Do(ctx, &Request{
		Method: http.MethodDelete,
		URL:    d.endpoints.API + "/files/" + url.PathEscape(fileID),
	})
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Profile returns the owner's provider account.
func (d *Drive) Profile(ctx context.Context) (*Profile, error) {
	resp, err := d.client.Do(ctx, &Request{Method: http.MethodGet, URL: d.endpoints.Profile})
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(resp.Body(), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func multipartRelated(metadata map[string]interface{}, obj Object) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	meta, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, "", fmt.Errorf("create metadata part: %w", err)
	}
	if err := json.NewEncoder(meta).Encode(metadata); err != nil {
		return nil, "", fmt.Errorf("encode file metadata: %w", err)
	}

	media, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {obj.ContentType}})
	if err != nil {
		return nil, "", fmt.Errorf("create media part: %w", err)
	}
	if _, err := media.Write(obj.Data); err != nil {
		return nil, "", fmt.Errorf("write media part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), "multipart/related; boundary=" + mw.Boundary(), nil
}

func decodeFile(body []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	return &f, nil
}

// escapeQuery escapes a value for a single-quoted files.list query term.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
