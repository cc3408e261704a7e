package failure

import "time"

// Record is a notification that could not be synchronized.
type Record struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	Codename      string    `json:"codename"`
	Language      string    `json:"language"`
	ContentType   string    `json:"content_type"`
	Action        string    `json:"action"`
	Error         string    `json:"error"`
	StatusCode    int       `json:"status_code"`
	CorrelationID string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}
