package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUploadNotFound = errors.New("upload not found")

// Kind says which route relayed the upload
type Kind string

const (
	KindResize  Kind = "resize"
	KindRestore Kind = "restore"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusUploaded Status = "uploaded"
	StatusFailed   Status = "failed"
)

// Upload is one relayed object as recorded in the uploads table.
type Upload struct {
	ID           uuid.UUID `json:"id"`
	Kind         Kind      `json:"kind"`
	OriginalName string    `json:"original_name"`
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Width        string    `json:"width,omitempty"`
	Height       string    `json:"height,omitempty"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
