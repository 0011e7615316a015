package models

import "time"

// MaterialFile is a document uploaded to a project.
type MaterialFile struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Path       string    `json:"path"`
}

// FileTag identifies the (category, checklist item) slot a file is assigned to.
type FileTag struct {
	CategoryID string `json:"category_id"`
	ItemID     string `json:"item_id"`
}

// SentinelTag is the fallback "other documents" slot. Untagged and
// unrecognized files are always assigned here, so a file is never tag-less.
var SentinelTag = FileTag{CategoryID: "folder_1", ItemID: "other_docs"}

// String renders the tag as category/item.
func (t FileTag) String() string {
	return t.CategoryID + "/" + t.ItemID
}

// ItemStatus is the collection state of a checklist item.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemCollected ItemStatus = "collected"
)

// MaterialItem is one checklist slot within a category.
type MaterialItem struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Required bool           `json:"required"`
	Status   ItemStatus     `json:"status"`
	Files    []MaterialFile `json:"files"`
}

// MaterialCategory groups checklist items (identity documents, education, ...).
type MaterialCategory struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Order        int            `json:"order"`
	IsRepeatable bool           `json:"is_repeatable"`
	Items        []MaterialItem `json:"items"`
}

// MaterialCollection is the full categorization payload for a project.
type MaterialCollection struct {
	Categories []MaterialCategory  `json:"categories"`
	Files      []MaterialFile      `json:"files"`
	FileTags   map[int64][]FileTag `json:"file_tags"`
}

// Normalize derives each item's status from its files: collected iff the item
// holds at least one file.
func (c *MaterialCollection) Normalize() {
	for i := range c.Categories {
		for j := range c.Categories[i].Items {
			item := &c.Categories[i].Items[j]
			if len(item.Files) > 0 {
				item.Status = ItemCollected
			} else {
				item.Status = ItemPending
			}
		}
	}
}

// ZipFileStatus is the outcome for one file extracted from an uploaded archive.
type ZipFileStatus string

const (
	ZipFileSuccess      ZipFileStatus = "success"
	ZipFileUnrecognized ZipFileStatus = "unrecognized"
	ZipFileError        ZipFileStatus = "error"
)

// ZipFileResult describes one extracted file.
type ZipFileResult struct {
	Filename     string        `json:"filename"`
	Status       ZipFileStatus `json:"status"`
	CategoryID   string        `json:"category_id,omitempty"`
	ItemID       string        `json:"item_id,omitempty"`
	CategoryName string        `json:"category_name,omitempty"`
	Message      string        `json:"message,omitempty"`
}

// ZipUploadResult is the expand-and-classify response for an archive upload.
type ZipUploadResult struct {
	TotalFiles        int             `json:"total_files"`
	SuccessCount      int             `json:"success_count"`
	UnrecognizedCount int             `json:"unrecognized_count"`
	Files             []ZipFileResult `json:"files"`
}
