package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExportEvent records one delivered download. It carries no table data.
type ExportEvent struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	FileName  string    `json:"file_name"`
	Rows      int       `json:"rows"`
	Bytes     int       `json:"bytes"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExportEvent stamps a new event with a random ID and the current time.
func NewExportEvent(format, fileName string, rows, bytes int) *ExportEvent {
	return &ExportEvent{
		ID:        uuid.NewString(),
		Format:    format,
		FileName:  fileName,
		Rows:      rows,
		Bytes:     bytes,
		Timestamp: time.Now().UTC(),
	}
}

func (e *ExportEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExportEventFromJSON decodes and checks an event body.
func ExportEventFromJSON(data []byte) (*ExportEvent, error) {
	var e ExportEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, fmt.Errorf("export event id: %w", err)
	}
	return &e, nil
}
