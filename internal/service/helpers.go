package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arjndr/postpilot/internal/models"
	"github.com/arjndr/postpilot/internal/transfer"
)

// normalizePayload validates a publish payload against its content type and
// flattens it to the ordered list of texts to post. Single posts come back
// as a one-element slice so the posting loop handles both shapes.
func normalizePayload(contentType string, payload *transfer.PostPayload) ([]string, error) {
	if payload == nil {
		return nil, errors.New("payload is required")
	}

	switch contentType {
	case models.ContentTypeSinglePost:
		text := strings.TrimSpace(payload.Text)
		if text == "" {
			return nil, errors.New("post text cannot be empty")
		}
		return []string{text}, nil
	case models.ContentTypeThread:
		if len(payload.Items) == 0 {
			return nil, errors.New("thread must contain at least one item")
		}
		items := make([]string, 0, len(payload.Items))
		for i, item := range payload.Items {
			trimmed := strings.TrimSpace(item)
			if trimmed == "" {
				return nil, fmt.Errorf("thread item %d is empty", i)
			}
			items = append(items, trimmed)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("invalid content type: %s", contentType)
	}
}

func tweetURL(handle, tweetID string) string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", handle, tweetID)
}
