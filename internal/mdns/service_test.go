package mdns

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "_audiotruyen._tcp", ServiceType)
	assert.Equal(t, "v1", APIVersion)
	assert.NotEmpty(t, ServerVersion)
}

func TestStopWithoutStart(t *testing.T) {
	s := NewService(slog.New(slog.DiscardHandler))

	// Must be harmless before Start and when called twice.
	s.Stop()
	s.Stop()
}
