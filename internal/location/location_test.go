package location

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "rider:location:r-1", Key("r-1"))
}

func TestLocation_JSONRoundTrip(t *testing.T) {
	// Формат хранения в Redis должен переживать сериализацию без потерь
	loc := Location{Latitude: 28.7041, Longitude: 77.1025, Timestamp: time.Now().UTC().Truncate(time.Second)}

	payload, err := json.Marshal(loc)
	assert.NoError(t, err)

	var parsed Location
	assert.NoError(t, json.Unmarshal(payload, &parsed))
	assert.Equal(t, loc, parsed)
}
