package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampMaxTokens(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name      string
		requested *int
		want      int
	}{
		{"missing value gets the ceiling", nil, 512},
		{"over ceiling is clipped", intPtr(10000), 512},
		{"zero is floored to one", intPtr(0), 1},
		{"negative is floored to one", intPtr(-50), 1},
		{"in-range value passes through", intPtr(100), 100},
		{"exact ceiling passes through", intPtr(512), 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampMaxTokens(tt.requested))
		})
	}
}
