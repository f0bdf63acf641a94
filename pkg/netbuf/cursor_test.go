package netbuf

import "testing"

func TestCursorIntRoundTrip(t *testing.T) {
	buf := New(64)
	w := Acquire(buf, ModeWrite)

	if !w.WriteU8(0xAB) {
		t.Fatal("write u8 failed")
	}
	if !w.WriteI16(-1234) {
		t.Fatal("write i16 failed")
	}
	if !w.WriteU32(0xDEADBEEF) {
		t.Fatal("write u32 failed")
	}
	if !w.WriteU64(0x0102030405060708) {
		t.Fatal("write u64 failed")
	}

	r := Acquire(buf, ModeRead)
	if v, ok := r.ReadU8(); !ok || v != 0xAB {
		t.Fatalf("read u8 = %x, %v", v, ok)
	}
	if v, ok := r.ReadI16(); !ok || v != -1234 {
		t.Fatalf("read i16 = %d, %v", v, ok)
	}
	if v, ok := r.ReadU32(); !ok || v != 0xDEADBEEF {
		t.Fatalf("read u32 = %x, %v", v, ok)
	}
	if v, ok := r.ReadU64(); !ok || v != 0x0102030405060708 {
		t.Fatalf("read u64 = %x, %v", v, ok)
	}
}

func TestCursorBigEndianOnWire(t *testing.T) {
	buf := New(4)
	w := Acquire(buf, ModeWrite)
	w.WriteU32(0x01020304)

	b := buf.Bytes()
	want := []byte{0x01, 0x02, 0x03, 0x04}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d = %x, want %x", i, b[i], want[i])
		}
	}
}

func TestCursorWriteFailsWhenFull(t *testing.T) {
	buf := New(2)
	w := Acquire(buf, ModeWrite)
	if w.WriteU32(1) {
		t.Fatal("expected write to fail, buffer too small")
	}
}

func TestCursorReadRequiresReadMode(t *testing.T) {
	buf := NewFromBytes([]byte{1, 2, 3, 4})
	w := Acquire(buf, ModeWrite)
	if _, ok := w.ReadU8(); ok {
		t.Fatal("expected read to fail on write-only cursor")
	}
}

func TestCursorJumpClamps(t *testing.T) {
	buf := NewFromBytes([]byte{1, 2, 3, 4})
	c := Acquire(buf, ModeRead)

	if !c.Jump(2) {
		t.Fatal("jump within bounds should succeed")
	}
	if c.Head() != 2 {
		t.Fatalf("head = %d, want 2", c.Head())
	}

	// overrunning jump clamps head to size but still reports success
	if !c.Jump(100) {
		t.Fatal("overrunning jump should still succeed (clamped)")
	}
	if c.Head() != 4 {
		t.Fatalf("head = %d, want 4 (clamped)", c.Head())
	}
	if !c.EOF() {
		t.Fatal("expected EOF after clamped jump to end")
	}

	// at EOF, a zero-length jump fails
	if c.Jump(0) {
		t.Fatal("zero-length jump at EOF should fail")
	}
}

func TestCursorResetRewindsAndTruncatesOnWrite(t *testing.T) {
	buf := New(16)
	w := Acquire(buf, ModeWrite)
	w.WriteU32(1)
	w.WriteU32(2)
	if buf.Size() != 8 {
		t.Fatalf("size = %d, want 8", buf.Size())
	}
	w.Reset()
	if buf.Size() != 0 {
		t.Fatalf("size after reset = %d, want 0", buf.Size())
	}
}

func TestBufferRefAliasesParent(t *testing.T) {
	buf := NewFromBytes([]byte("hello world"))
	ref := buf.Ref(6)
	if string(ref.Bytes()) != "world" {
		t.Fatalf("ref = %q, want %q", ref.Bytes(), "world")
	}
	// mutating through the ref is visible in the parent
	ref.data[0] = 'W'
	if buf.Bytes()[6] != 'W' {
		t.Fatal("ref does not alias parent storage")
	}
}

func TestBufferContains(t *testing.T) {
	buf := NewFromBytes([]byte("./hello.txt"))
	if !buf.Contains([]byte("hello")) {
		t.Fatal("expected substring match")
	}
	if buf.Contains([]byte("zzz")) {
		t.Fatal("unexpected substring match")
	}
}

func TestBufferResizeNeverExceedsCapacity(t *testing.T) {
	buf := New(4)
	if buf.Resize(5) {
		t.Fatal("resize beyond capacity should fail")
	}
	if !buf.Resize(4) {
		t.Fatal("resize to capacity should succeed")
	}
}
