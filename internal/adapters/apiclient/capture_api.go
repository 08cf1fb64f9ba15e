package apiclient

import (
	"context"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

// Capture endpoints
const (
	PathCaptureStart  = "/capture/start"
	PathCaptureStop   = "/capture/stop"
	PathCaptureStatus = "/capture/status"
)

var _ ports.CaptureAPI = (*Client)(nil)

func (c *Client) StartCapture(ctx context.Context) (domain.CaptureAck, error) {
	var ack domain.CaptureAck
	err := c.Post(ctx, PathCaptureStart, nil, &ack)
	return ack, err
}

func (c *Client) StopCapture(ctx context.Context) (domain.CaptureAck, error) {
	var ack domain.CaptureAck
	err := c.Post(ctx, PathCaptureStop, nil, &ack)
	return ack, err
}

func (c *Client) CaptureStatus(ctx context.Context) (domain.CaptureStatus, error) {
	var st domain.CaptureStatus
	err := c.Get(ctx, PathCaptureStatus, nil, &st)
	return st, err
}
