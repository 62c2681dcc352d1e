package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Document : metadata of a file uploaded to a case. The blob itself lives in
// external storage addressed by FilePath.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID           int64     `json:"id" bun:",pk,autoincrement"`
	CaseID       int64     `json:"case_id" bun:",notnull"`
	Title        string    `json:"title" bun:",type:varchar(500),notnull"`
	Description  *string   `json:"description" bun:",type:varchar(1000)"`
	FilePath     string    `json:"file_path" bun:",type:varchar(1000),notnull"`
	FileName     string    `json:"file_name" bun:",type:varchar(255),notnull"`
	FileSize     int64     `json:"file_size" bun:",notnull"`
	MimeType     string    `json:"mime_type" bun:",type:varchar(100),notnull"`
	UploadedByID int64     `json:"uploaded_by_id" bun:",notnull"`
	UploadedAt   time.Time `json:"uploaded_at" bun:",nullzero,notnull,default:current_timestamp"`

	Case       *Case `json:"case,omitempty" bun:"rel:belongs-to,join:case_id=id"`
	UploadedBy *User `json:"uploaded_by,omitempty" bun:"rel:belongs-to,join:uploaded_by_id=id"`
}
