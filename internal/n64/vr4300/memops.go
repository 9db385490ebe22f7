package vr4300

// memops.go implements the byte-addressable load/store semantics (sizes
// 1/2/4/8, plus the unaligned *Left/*Right family and LL/SC) named in
// spec §4.7.3. They operate on a single naturally-aligned 64-bit "slot"
// (one DCache doubleword) the caller has already located via CacheTag/
// DCache lookup; WriteBack is responsible for picking that slot out of
// the cache line and writing it back.

// ExtractLoad pulls size bytes starting at byteOffset out of slot (a
// big-endian view of one doubleword, matching the N64's MIPS byte order)
// and zero- or sign-extends the result to 64 bits.
func ExtractLoad(slot uint64, byteOffset uint8, size MemSize, signed bool) uint64 {
	shift := (8 - uint(byteOffset) - uint(size)) * 8
	mask := uint64(1)<<(uint(size)*8) - 1
	if size == Doubleword {
		mask = ^uint64(0)
	}
	value := (slot >> shift) & mask

	if !signed || size == Doubleword {
		return value
	}
	signBit := uint64(1) << (uint(size)*8 - 1)
	if value&signBit != 0 {
		value |= ^mask
	}
	return value
}

// InsertStore writes the low size bytes of val into slot at byteOffset,
// leaving the rest of the doubleword untouched.
func InsertStore(slot uint64, byteOffset uint8, size MemSize, val uint64) uint64 {
	shift := (8 - uint(byteOffset) - uint(size)) * 8
	mask := uint64(1)<<(uint(size)*8) - 1
	if size == Doubleword {
		mask = ^uint64(0)
	}
	cleared := slot &^ (mask << shift)
	return cleared | ((val & mask) << shift)
}

// LoadLeftMerge implements LWL/LDL: merge the most-significant
// byteOffset+1 bytes of slot into the high end of prev, per MIPS's
// unaligned-load convention. size is 4 for LWL, 8 for LDL.
func LoadLeftMerge(prev uint64, slot uint64, byteOffset uint8, size MemSize) uint64 {
	nbytes := uint(byteOffset) + 1
	shift := (uint(size) - nbytes) * 8
	highBytes := slot >> ((8 - nbytes) * 8)
	mask := uint64(1)<<(nbytes*8) - 1

	result := (prev &^ (mask << shift)) | ((highBytes & mask) << shift)
	if size == Word {
		return uint64(int64(int32(result)))
	}
	return result
}

// LoadRightMerge implements LWR/LDR: merge the least-significant
// 8-byteOffset bytes of slot into the low end of prev.
func LoadRightMerge(prev uint64, slot uint64, byteOffset uint8, size MemSize) uint64 {
	nbytes := 8 - uint(byteOffset)
	if nbytes > uint(size) {
		nbytes = uint(size)
	}
	mask := uint64(1)<<(nbytes*8) - 1
	result := (prev &^ mask) | (slot & mask)
	if size == Word && byteOffset == 0 {
		return uint64(int64(int32(result)))
	}
	return result
}

// StoreLeftMerge implements SWL/SDL: the inverse of LoadLeftMerge, moving
// the high bytes of val down into the low-addressed bytes of slot.
func StoreLeftMerge(slot uint64, val uint64, byteOffset uint8, size MemSize) uint64 {
	nbytes := uint(byteOffset) + 1
	valShift := (uint(size) - nbytes) * 8
	slotShift := (8 - nbytes) * 8
	mask := uint64(1)<<(nbytes*8) - 1

	bytes := (val >> valShift) & mask
	return (slot &^ (mask << slotShift)) | (bytes << slotShift)
}

// StoreRightMerge implements SWR/SDR: the inverse of LoadRightMerge.
func StoreRightMerge(slot uint64, val uint64, byteOffset uint8, size MemSize) uint64 {
	nbytes := 8 - uint(byteOffset)
	if nbytes > uint(size) {
		nbytes = uint(size)
	}
	mask := uint64(1)<<(nbytes*8) - 1
	return (slot &^ mask) | (val & mask)
}

// CacheOpKind is the 5-bit cache-operation field decoded from a CACHE
// instruction.
type CacheOpKind uint8

const (
	CacheOpIndexWritebackInvalidate CacheOpKind = 0
	CacheOpIndexLoadTag             CacheOpKind = 2
	CacheOpIndexStoreTag            CacheOpKind = 3
	CacheOpHit                      CacheOpKind = 4
)

// DecodeCacheOp extracts the 3-bit sub-operation from a CACHE
// instruction's 5-bit op field (bits 4:2 select the operation, bits 1:0
// select the cache). Only index-writeback-invalidate and index-store-tag
// are recognised per spec §4.7.3; anything else panics.
func DecodeCacheOp(op uint8) CacheOpKind {
	switch sub := (op >> 2) & 0x7; sub {
	case 0:
		return CacheOpIndexWritebackInvalidate
	case 3:
		return CacheOpIndexStoreTag
	default:
		panic("vr4300: unimplemented CACHE sub-operation")
	}
}
