package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetaValues(t *testing.T) {
	meta := map[string]any{
		"source": "MX-10",
		"size":   uint64(1234),
		"lines":  int64(7),
		"rate":   2.5,
	}
	assert.Equal(t, "MX-10", metaString(meta, "source"))
	assert.Equal(t, "", metaString(meta, "size"))
	assert.Equal(t, int64(1234), metaInt(meta, "size"))
	assert.Equal(t, int64(7), metaInt(meta, "lines"))
	assert.Equal(t, int64(2), metaInt(meta, "rate"))
	assert.Equal(t, int64(0), metaInt(nil, "missing"))
}
