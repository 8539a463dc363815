// Package pool 复用文件读写使用的缓冲区
package pool

import "sync"

// BufferSize 单个缓冲区大小（256KB）
const BufferSize = 256 * 1024

// 存 *[]byte 避免 Put 时的切片头分配
var buffers = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// GetBuffer 取出一个 BufferSize 大小的缓冲区，用完必须 PutBuffer
func GetBuffer() *[]byte {
	return buffers.Get().(*[]byte)
}

// PutBuffer 归还缓冲区，长度被改动的缓冲区直接丢弃
func PutBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) != BufferSize {
		return
	}
	*buf = (*buf)[:BufferSize]
	buffers.Put(buf)
}
