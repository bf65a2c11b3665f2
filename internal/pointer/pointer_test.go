package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_To(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		give any
	}{
		{name: "para id", give: uint32(2114)},
		{name: "pallet instance", give: uint8(3)},
		{name: "string", give: "turing"},
		{name: "struct", give: struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.give, *To(tt.give))
		})
	}
}

func Test_Deref(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(2114), Deref(To(uint32(2114)), 0))
	assert.Equal(t, uint32(7), Deref[uint32](nil, 7))
}
