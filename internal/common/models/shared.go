package models

import "time"

type ContextKey string

// Log is the document shape for application logs mirrored into Mongo
// by the logger's async DB writer.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	IpAddress    string    `bson:"ip_address" json:"ip_address"`
	Caller       string    `bson:"caller" json:"caller"` // Function name
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
