package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/services"
	"github.com/desertthunder/signx/internal/shared"
)

// TagAPI is the subset of [services.DeviceService] used for tag edits.
type TagAPI interface {
	AddDeviceTags(ctx context.Context, deviceID string, tags []models.Tag) error
	DeleteDeviceTag(ctx context.Context, deviceID, key string) error
}

// TagResult is the outcome of a tag edit on one device.
type TagResult struct {
	DeviceID string
	Message  string
	Err      error
}

// AddTags sets tags on every device in ids, one request per device.
func AddTags(ctx context.Context, progress chan<- ProgressUpdate, api TagAPI, ids []string, tags []models.Tag) ([]TagResult, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: no tags given", shared.ErrMissingArgument)
	}
	for _, tag := range tags {
		if tag.Key == "" {
			return nil, fmt.Errorf("%w: tag key must not be empty", shared.ErrInvalidArgument)
		}
	}

	return eachDevice(ctx, progress, ids, func(id string) error {
		return api.AddDeviceTags(ctx, id, tags)
	})
}

// DeleteTag removes the tag with key from every device in ids, one request per device.
func DeleteTag(ctx context.Context, progress chan<- ProgressUpdate, api TagAPI, ids []string, key string) ([]TagResult, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: tag key", shared.ErrMissingArgument)
	}

	return eachDevice(ctx, progress, ids, func(id string) error {
		return api.DeleteDeviceTag(ctx, id, key)
	})
}

func eachDevice(ctx context.Context, progress chan<- ProgressUpdate, ids []string, fn func(id string) error) ([]TagResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no devices selected", shared.ErrMissingArgument)
	}

	results := make([]TagResult, 0, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := TagResult{DeviceID: id, Message: "OK"}
		if err := fn(id); err != nil {
			result.Err = err
			result.Message = services.UserMessage(err, "Request failed")
		}
		results = append(results, result)
		sendProgress(progress, tagDeviceUpdate(i+1, len(ids), result))
	}
	return results, nil
}
