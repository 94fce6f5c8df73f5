// Package events decodes object-store upload notifications.
package events

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// s3Notification is the S3 event envelope delivered through SQS.
type s3Notification struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// UploadEvent identifies one newly stored object.
type UploadEvent struct {
	Bucket string
	Key    string
}

// ParseNotification decodes an S3 event body into upload events. Object keys
// arrive URL-encoded with spaces as "+"; they are decoded here so downstream
// key parsing sees the original storage key.
func ParseNotification(body []byte) ([]UploadEvent, error) {
	var envelope s3Notification
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}

	events := make([]UploadEvent, 0, len(envelope.Records))
	for _, record := range envelope.Records {
		key, err := decodeKey(record.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("decode object key %q: %w", record.S3.Object.Key, err)
		}
		events = append(events, UploadEvent{
			Bucket: record.S3.Bucket.Name,
			Key:    key,
		})
	}
	return events, nil
}

func decodeKey(raw string) (string, error) {
	return url.QueryUnescape(strings.ReplaceAll(raw, "+", " "))
}
