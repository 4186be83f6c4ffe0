package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeRegisterDeviceRequest(t *testing.T) {
	encoded := `{"token":"t1","platform":"android"}`
	var decoded RegisterDeviceRequest
	err := json.Unmarshal([]byte(encoded), &decoded)
	assert.Nil(t, err)
	assert.Equal(t, "t1", decoded.Token)
}

func TestEncodeLatestImageResponse(t *testing.T) {
	var response LatestImageResponse
	response.ImageUrl = "https://res.cloudinary.com/demo/image/upload/a.jpg"
	serialized, _ := json.Marshal(response)
	assert.Equal(t, `{"imageUrl":"https://res.cloudinary.com/demo/image/upload/a.jpg","timestamp":"0001-01-01T00:00:00Z"}`, string(serialized))
}
