package dto

// NostrPostRequest publishes Content as a note right away, outside the
// scheduling pipeline.
type NostrPostRequest struct {
	Content string `json:"content" binding:"required"`
}
