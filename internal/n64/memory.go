package n64

import "encoding/binary"

// RDRAMBytes is the size of simulated main memory backing MemoryReq's RDRAM
// range (spec §1 Non-goals: expansion-pak bank switching and ECC are out of
// scope, so this is a single fixed bank sized for the console's base
// configuration, not the TLB's full physical address range).
const RDRAMBytes = 4 * 1024 * 1024

// Memory is the byte-addressable backing store the CPU actor reads and
// writes once it holds the bus: RDRAM plus the PIF boot image loaded from
// Config. It has no actor of its own - on real hardware RDRAM has no
// controller actor either, only RI's refresh/timing registers, which the RI
// peripheral stub models separately.
type Memory struct {
	RDRAM  [RDRAMBytes]byte
	PIFROM [PIFImageWords - PIFRAMWords]uint32
	PIFRAM [PIFRAMWords]uint32
}

// NewMemory builds Memory from a loaded Config, or an all-zero PIF image
// region if cfg.PIFImagePath is empty (useful for tests that don't care
// about PIF boot behavior).
func NewMemory(cfg Config) (*Memory, error) {
	m := &Memory{}
	if cfg.PIFImagePath != "" {
		rom, ram, err := loadPIFImage(cfg.PIFImagePath)
		if err != nil {
			return nil, err
		}
		m.PIFROM = rom
		m.PIFRAM = ram
	}
	return m, nil
}

// ReadRDRAM reads a big-endian value of size bytes (1, 2, 4, or 8) from
// RDRAM at addr, wrapping within RDRAMBytes.
func (m *Memory) ReadRDRAM(addr uint32, size int) uint64 {
	var buf [8]byte
	for i := 0; i < size; i++ {
		buf[8-size+i] = m.RDRAM[(addr+uint32(i))%RDRAMBytes]
	}
	return binary.BigEndian.Uint64(buf[:])
}

// WriteRDRAM writes the low size bytes of value, big-endian, to RDRAM at
// addr.
func (m *Memory) WriteRDRAM(addr uint32, size int, value uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	for i := 0; i < size; i++ {
		m.RDRAM[(addr+uint32(i))%RDRAMBytes] = buf[8-size+i]
	}
}

// pifWordIndex converts a PIF address to a word index into the 512-word PIF
// image and reports whether it falls in the writable RAM tail (pif_actor.rs's
// addr >= 512-16 rule).
func pifWordIndex(addr uint32) (index int, isRAM bool) {
	index = int(addr/4) % PIFImageWords
	isRAM = index >= PIFImageWords-PIFRAMWords
	return index, isRAM
}

// ReadPIF reads one 32-bit word from the PIF image at addr.
func (m *Memory) ReadPIF(addr uint32) uint32 {
	idx, isRAM := pifWordIndex(addr)
	if isRAM {
		return m.PIFRAM[idx-(PIFImageWords-PIFRAMWords)]
	}
	return m.PIFROM[idx]
}

// WritePIF writes one 32-bit word to the PIF image at addr. Writes to the
// ROM region are silently dropped, matching real hardware where PIF ROM is
// masked, not merely conventionally read-only.
func (m *Memory) WritePIF(addr uint32, value uint32) {
	idx, isRAM := pifWordIndex(addr)
	if !isRAM {
		return
	}
	m.PIFRAM[idx-(PIFImageWords-PIFRAMWords)] = value
}
