package model

import "time"

// LookupEvent records the outcome of one create or retrieve call against the backend.
type LookupEvent struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Operation  string    `json:"operation" gorm:"size:16;not null;index"`
	ISRC       string    `json:"isrc" gorm:"size:32;not null;index"`
	Outcome    string    `json:"outcome" gorm:"size:16;not null"`
	Status     int       `json:"status" gorm:"not null;default:0"`
	Message    string    `json:"message,omitempty" gorm:"type:text"`
	FirstSeen  bool      `json:"first_seen" gorm:"not null;default:false"`
	DurationMS int64     `json:"duration_ms" gorm:"not null;default:0"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
}

const (
	OperationCreate   = "create"
	OperationRetrieve = "retrieve"

	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

const (
	LookupStreamName     = "LOOKUPS"
	LookupStreamSubject  = "tracks.lookups"
	LookupConsumerName   = "lookup-recorder"
	LookupStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
