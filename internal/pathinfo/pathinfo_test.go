package pathinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabels(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		source   string
		settings string
	}{
		{"absolute", "/data/MX-10/run3/THL-400/clusters.txt", "MX-10", "THL-400"},
		{"relative", "MX-10/run3/THL-400/clusters.txt", "MX-10", "THL-400"},
		{"deeper", "/srv/a/b/c/d/log.txt", "b", "d"},
		{"trailing dot segments", "./MX-10/./run3/THL-400/clusters.txt", "MX-10", "THL-400"},
		{"too shallow for source", "THL-400/clusters.txt", "", "THL-400"},
		{"bare file", "clusters.txt", "", ""},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, settings := Labels(tt.path)
			assert.Equal(t, tt.source, source)
			assert.Equal(t, tt.settings, settings)
		})
	}
}

func TestAncestor(t *testing.T) {
	assert.Equal(t, "clusters.txt", Ancestor("a/b/clusters.txt", 0))
	assert.Equal(t, "a", Ancestor("a/b/clusters.txt", 2))
	assert.Equal(t, "", Ancestor("a/b/clusters.txt", 3))
	assert.Equal(t, "", Ancestor("a/b/clusters.txt", -1))
}
