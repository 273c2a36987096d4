package handlers

import (
	"io"

	"github.com/gin-gonic/gin"
)

// StreamEventsHandler pushes dispatch events to the client over SSE.
// An optional booking_id query parameter narrows the stream to one booking.
func (hb *HandlerBundle) StreamEventsHandler(c *gin.Context) {
	bookingID := c.Query("booking_id")

	events, cancel := hb.Events.Subscribe(bookingID)
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
