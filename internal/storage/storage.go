// Package storage talks to the owner's cloud-storage account. Every call is
// made on behalf of one owner through an AuthorizedClient, which keeps the
// owner's provider token valid for the duration of a request.
package storage

import (
	"context"
	"time"
)

// File is a file or folder in the provider account.
type File struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MimeType      string    `json:"mimeType"`
	Size          int64     `json:"size,string,omitempty"`
	CreatedTime   time.Time `json:"createdTime"`
	ThumbnailLink string    `json:"thumbnailLink,omitempty"`
	WebViewLink   string    `json:"webViewLink,omitempty"`
}

// Object is a file to upload. Data is held in memory so a retried request
// replays the identical body.
type Object struct {
	Name           string
	ContentType    string
	Data           []byte
	IdempotencyKey string
}

// Profile is the provider account of the owner.
type Profile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// FileStore is the provider file API as seen by one owner.
type FileStore interface {
	// Prepare makes sure a usable owner token is available, refreshing it
	// if it is about to expire.
	Prepare(ctx context.Context) error
	CreateFolder(ctx context.Context, name string) (*File, error)
	ListFiles(ctx context.Context, folderID string) ([]File, error)
	Upload(ctx context.Context, folderID string, obj Object) (*File, error)
	Download(ctx context.Context, fileID string) ([]byte, string, error)
	Delete(ctx context.Context, fileID string) error
	Profile(ctx context.Context) (*Profile, error)
}

// Connector opens a FileStore acting for the owner of session.
type Connector interface {
	Open(session Session) FileStore
}

// Endpoints are the base URLs of the provider APIs.
type Endpoints struct {
	API     string // e.g. https://www.googleapis.com/drive/v3
	Upload  string // e.g. https://www.googleapis.com/upload/drive/v3
	Profile string // e.g. https://www.googleapis.com/oauth2/v2/userinfo
}

// Provider builds per-owner Drive clients sharing one HTTP client.
type Provider struct {
	deps      Deps
	endpoints Endpoints
}

var _ Connector = (*Provider)(nil)

// NewProvider creates a Provider.
func NewProvider(deps Deps, endpoints Endpoints) *Provider {
	return &Provider{deps: deps, endpoints: endpoints}
}

// Open returns a Drive for session. The returned value must not outlive the
// request that asked for it.
func (p *Provider) Open(session Session) FileStore {
	return NewDrive(NewAuthorizedClient(p.deps, session), p.endpoints)
}
