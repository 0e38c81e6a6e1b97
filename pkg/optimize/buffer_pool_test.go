package optimize

import (
	"bytes"
	"testing"
)

func TestBufferPoolGetReturnsEmptyBuffer(t *testing.T) {
	pool := NewBufferPool(1024)

	buf := pool.Get()
	if buf.Len() != 0 {
		t.Errorf("expected empty buffer, got len %d", buf.Len())
	}

	buf.WriteString("payload")
	pool.Put(buf)

	buf2 := pool.Get()
	if buf2.Len() != 0 {
		t.Errorf("recycled buffer not reset, len %d", buf2.Len())
	}
}

func TestBufferPoolDropsOversized(t *testing.T) {
	pool := NewBufferPool(64)

	big := bytes.NewBuffer(make([]byte, 0, maxRetainedCapacity+1))
	pool.Put(big) // should be discarded, not panic

	pool.Put(nil) // nil is tolerated
}
