package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferReuse(t *testing.T) {
	buf := GetBuffer()
	assert.Len(t, *buf, BufferSize)

	*buf = (*buf)[:10]
	PutBuffer(buf)

	again := GetBuffer()
	assert.Len(t, *again, BufferSize, "returned buffers are restored to full length")
	PutBuffer(again)

	small := make([]byte, 16)
	assert.NotPanics(t, func() {
		PutBuffer(&small)
		PutBuffer(nil)
	})
}
