package sse

import (
	"sync"
	"sync/atomic"
)

type Client struct {
	StaffID string
	Role    string
	Ch      chan Event
	Done    chan struct{}

	fullStreak atomic.Int32
	closeOnce  sync.Once
}

func NewClient(staffID, role string) *Client {
	return &Client{
		StaffID: staffID,
		Role:    role,
		Ch:      make(chan Event, 512),
		Done:    make(chan struct{}),
	}
}

func (c *Client) Close() {
	if c == nil {
		return
	}

	c.closeOnce.Do(func() {
		close(c.Done)
	})
}

func (c *Client) markDispatchSuccess() {
	if c == nil {
		return
	}
	c.fullStreak.Store(0)
}

func (c *Client) markDispatchFull() int32 {
	if c == nil {
		return 0
	}
	return c.fullStreak.Add(1)
}
