package n64

import (
	"encoding/binary"
	"fmt"
	"os"
)

// PIFImageWords is the size, in 32-bit words, of the PIF boot image. The
// last 16 words are PIF RAM; everything before that is PIF ROM.
const PIFImageWords = 512

// PIFRAMWords is the number of trailing words of the PIF image that are
// writable RAM rather than ROM.
const PIFRAMWords = 16

// Config is the opaque per-core configuration object passed to
// NewStorage, as named in spec §6.
type Config struct {
	// PIFImagePath is the path to a 512-word, big-endian PIF boot image.
	PIFImagePath string

	// TraceDB names a sqlite path for a cycle trace. NewStorage does not
	// read it and opens no recorder; tracing is set up by the caller
	// through internal/trace, and the engine behaves identically with or
	// without it.
	TraceDB string
}

// loadPIFImage reads and decodes the configured PIF boot image.
func loadPIFImage(path string) (rom [PIFImageWords - PIFRAMWords]uint32, ram [PIFRAMWords]uint32, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return rom, ram, fmt.Errorf("n64: reading PIF image %q: %w", path, err)
	}

	wantBytes := PIFImageWords * 4
	if len(raw) != wantBytes {
		return rom, ram, fmt.Errorf(
			"n64: PIF image %q is %d bytes, want exactly %d (%d big-endian u32 words)",
			path, len(raw), wantBytes, PIFImageWords)
	}

	words := make([]uint32, PIFImageWords)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(raw[i*4 : i*4+4])
	}

	copy(rom[:], words[:PIFImageWords-PIFRAMWords])
	copy(ram[:], words[PIFImageWords-PIFRAMWords:])
	return rom, ram, nil
}
