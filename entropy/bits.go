package entropy

// bitWriter accumulates bits MSB-first in a 64-bit register and flushes whole
// bytes to out.
type bitWriter struct {
	out      []byte
	bitBuf   uint64
	bitCount int
	written  uint64
}

// writeBits appends the low numBits of value, most significant first.
func (w *bitWriter) writeBits(value uint64, numBits int) {
	if numBits == 0 {
		return
	}
	if numBits < 64 {
		value &= (1 << numBits) - 1
	}
	w.written += uint64(numBits)

	available := 64 - w.bitCount
	if numBits <= available {
		if numBits == 64 {
			w.bitBuf = value
		} else {
			w.bitBuf = w.bitBuf<<numBits | value
		}
		w.bitCount += numBits
		if w.bitCount == 64 {
			w.flushWord()
		}

		return
	}

	high := numBits - available
	w.bitBuf = w.bitBuf<<available | value>>high
	w.bitCount = 64
	w.flushWord()
	w.bitBuf = value & ((1 << high) - 1)
	w.bitCount = high
}

func (w *bitWriter) flushWord() {
	b := w.bitBuf
	w.out = append(w.out,
		byte(b>>56), byte(b>>48), byte(b>>40), byte(b>>32),
		byte(b>>24), byte(b>>16), byte(b>>8), byte(b))
	w.bitBuf = 0
	w.bitCount = 0
}

// finish flushes the partial register, zero-filling the unused low bits.
func (w *bitWriter) finish() []byte {
	if w.bitCount > 0 {
		aligned := w.bitBuf << (64 - w.bitCount)
		for i := 0; i < (w.bitCount+7)/8; i++ {
			w.out = append(w.out, byte(aligned>>(56-8*i)))
		}
		w.bitBuf = 0
		w.bitCount = 0
	}

	return w.out
}

// bitReader reads bits MSB-first from a bounded byte slice.
type bitReader struct {
	data   []byte
	limit  uint64
	bitPos uint64
}

func newBitReader(data []byte, bitLen uint64) *bitReader {
	limit := uint64(len(data)) * 8
	if bitLen < limit {
		limit = bitLen
	}

	return &bitReader{data: data, limit: limit}
}

// readBit returns the next bit, or false once bitLen bits have been consumed.
func (r *bitReader) readBit() (uint8, bool) {
	if r.bitPos >= r.limit {
		return 0, false
	}
	b := r.data[r.bitPos>>3]
	bit := (b >> (7 - r.bitPos&7)) & 1
	r.bitPos++

	return bit, true
}
