package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

type ActivityAction string

const (
	ActionUpload   ActivityAction = "upload"
	ActionDownload ActivityAction = "download"
	ActionEdit     ActivityAction = "edit"
	ActionDelete   ActivityAction = "delete"
	ActionView     ActivityAction = "view"
	ActionShare    ActivityAction = "share"
)

// ActivityLogEntry is append-only; clients never edit or delete entries.
type ActivityLogEntry struct {
	LogID     string         `json:"log_id"`
	Action    ActivityAction `json:"action"`
	User      *User          `json:"user,omitempty"`
	Asset     *Asset         `json:"asset,omitempty"`
	Details   map[string]any `json:"details"`
	IPAddress string         `json:"ip_address,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type UploadDetails struct {
	FileName string `mapstructure:"file_name"`
	FileSize int64  `mapstructure:"file_size"`
	FileType string `mapstructure:"file_type"`
}

type EditDetails struct {
	Fields   []string `mapstructure:"fields"`
	OldTitle string   `mapstructure:"old_title"`
	NewTitle string   `mapstructure:"new_title"`
}

type DownloadDetails struct {
	Source string `mapstructure:"source"`
}

type ShareDetails struct {
	SharedWith string `mapstructure:"shared_with"`
	Permission string `mapstructure:"permission"`
}

// DecodeDetails interprets Details according to the entry's action. Unknown
// keys are ignored; the map stays the source of truth.
func (e ActivityLogEntry) DecodeDetails() (any, error) {
	var out any
	switch e.Action {
	case ActionUpload:
		out = &UploadDetails{}
	case ActionEdit:
		out = &EditDetails{}
	case ActionDownload:
		out = &DownloadDetails{}
	case ActionShare:
		out = &ShareDetails{}
	default:
		return e.Details, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return nil, fmt.Errorf("details decoder: %w", err)
	}
	if err := decoder.Decode(e.Details); err != nil {
		return nil, fmt.Errorf("decode %s details: %w", e.Action, err)
	}
	return out, nil
}

type ActivityListParams struct {
	Page    int
	Action  ActivityAction
	UserID  int64
	AssetID string
}

type Comment struct {
	CommentID string    `json:"comment_id"`
	Asset     *Asset    `json:"asset,omitempty"`
	User      *User     `json:"user,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
