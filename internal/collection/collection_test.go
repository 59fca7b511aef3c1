package collection

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCollection() Collection {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Collection{
		ID:        "5b1c1f8e-3f0e-4a57-9d9e-0d6c2b1f4a11",
		OwnerID:   "owner-1",
		Name:      "Wedding",
		FolderID:  "folder-1",
		Code:      "AB12CD",
		CreatedAt: created,
		ExpiresAt: created.Add(90 * 24 * time.Hour),
	}
}

func TestCollection_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Collection)
		ok     bool
	}{
		{name: "valid", mutate: func(c *Collection) {}, ok: true},
		{name: "missing id", mutate: func(c *Collection) { c.ID = "" }},
		{name: "missing owner", mutate: func(c *Collection) { c.OwnerID = "" }},
		{name: "missing folder", mutate: func(c *Collection) { c.FolderID = "" }},
		{name: "short code", mutate: func(c *Collection) { c.Code = "AB1" }},
		{name: "code with symbols", mutate: func(c *Collection) { c.Code = "AB-12" }},
		{name: "negative count", mutate: func(c *Collection) { c.ItemCount = -1 }},
		{name: "expiry equals creation", mutate: func(c *Collection) { c.ExpiresAt = c.CreatedAt }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCollection()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCollection_ExpiredBoundary(t *testing.T) {
	c := validCollection()

	assert.False(t, c.Expired(c.ExpiresAt.Add(-time.Millisecond)))
	assert.True(t, c.Expired(c.ExpiresAt), "expiry instant itself is closed")
	assert.True(t, c.Expired(c.ExpiresAt.Add(time.Millisecond)))
}

func TestCollection_ExpiredAfterRetention(t *testing.T) {
	now := time.Now()
	created := now.Add(-91 * 24 * time.Hour)
	c := Collection{Code: "AB12", CreatedAt: created, ExpiresAt: created.Add(90 * 24 * time.Hour)}

	assert.True(t, c.Expired(now))
}

func TestNormalizeName(t *testing.T) {
	name, err := NormalizeName("  Summer party  ")
	require.NoError(t, err)
	assert.Equal(t, "Summer party", name)

	_, err = NormalizeName("   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NormalizeName(strings.Repeat("é", MaxNameLength))
	assert.NoError(t, err)

	_, err = NormalizeName(strings.Repeat("a", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("AB12"))
	assert.True(t, ValidCode("abcDEF123456"))
	assert.False(t, ValidCode("ABC"))
	assert.False(t, ValidCode("ABCDEFGHIJKLM"))
	assert.False(t, ValidCode("AB 12"))
	assert.False(t, ValidCode(""))
}
