// Package storage archives exported invoice documents.
package storage

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var ErrStorageDisabled = errors.New("storage_disabled")

// Archive stores exported documents under a key.
type Archive interface {
	Enabled() bool
	Put(ctx context.Context, key, contentType string, data []byte) (Object, error)
}

// Object describes a stored document.
type Object struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	Size     int    `json:"size"`
}

// ObjectKey builds "<prefix>/<yyyy>/<mm>/<slug>-<uuid>.pdf" for an invoice number.
func ObjectKey(prefix, invoiceNumber string, now time.Time) string {
	name := slug.Make(invoiceNumber)
	if name == "" {
		name = "invoice"
	}
	file := name + "-" + uuid.NewString() + ".pdf"
	return path.Join(prefix, now.UTC().Format("2006"), now.UTC().Format("01"), file)
}

type NoopArchive struct{}

func (NoopArchive) Enabled() bool { return false }

func (NoopArchive) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	return Object{}, ErrStorageDisabled
}
