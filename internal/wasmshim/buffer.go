package wasmshim

type buffer struct {
	b []byte
}

func (w *buffer) u8(v byte) {
	w.b = append(w.b, v)
}

func (w *buffer) raw(v ...byte) {
	w.b = append(w.b, v...)
}

// u32 writes unsigned LEB128.
func (w *buffer) u32(v uint32) {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		w.u8(c)
		if v == 0 {
			return
		}
	}
}

// i32 writes signed LEB128.
func (w *buffer) i32(v int32) {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			w.u8(c)
			return
		}
		w.u8(c | 0x80)
	}
}

func (w *buffer) name(s string) {
	w.u32(uint32(len(s)))
	w.raw([]byte(s)...)
}

func (w *buffer) section(id byte, content *buffer) {
	w.u8(id)
	w.u32(uint32(len(content.b)))
	w.raw(content.b...)
}
