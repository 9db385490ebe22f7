package vr4300

// tlbEntry is one micro-TLB mapping: a 4K virtual page to a (pre-shifted)
// physical frame.
type tlbEntry struct {
	vpn    uint64
	pfn    uint32
	global bool
}

// MicroTLB is the two-entry, LRU-replaced translation cache that sits
// ahead of the (out-of-scope) joint TLB, per spec §4.7.1/§4.7.2. The two
// unmapped segments kseg0/kseg1 bypass it entirely.
type MicroTLB struct {
	entries [2]tlbEntry
	lru     uint8
}

// NewMicroTLB returns a MicroTLB with both entries mapping VPN 0 - a
// harmless default since a real lookup always checks the VPN first.
func NewMicroTLB() *MicroTLB {
	return &MicroTLB{
		entries: [2]tlbEntry{{global: true}, {global: true}},
	}
}

const (
	kseg0Start = 0xffff_ffff_8000_0000
	kseg0End   = 0xffff_ffff_9fff_ffff
	kseg1Start = 0xffff_ffff_a000_0000
	kseg1End   = 0xffff_ffff_bfff_ffff
)

// Translate maps a sign-extended 64-bit virtual address to the CacheTag
// the pipeline should compare against the physical cache's stored tag.
// kseg0/kseg1 bypass the TLB proper (windows onto the low 512MB); both
// return an uncached tag, so kseg0 accesses are not cached either.
// Everything else is a lookup that searches both entries, returning
// EmptyCacheTag (always a miss) if neither entry matches.
func (tlb *MicroTLB) Translate(va uint64) CacheTag {
	switch {
	case va >= kseg0Start && va <= kseg0End:
		return NewUncachedCacheTag(uint32(va) & 0x1fff_ffff)
	case va >= kseg1Start && va <= kseg1End:
		return NewUncachedCacheTag(uint32(va) & 0x1fff_ffff)
	}

	vpn := va >> 12
	for i, e := range tlb.entries {
		if e.vpn == vpn && e.global {
			tlb.lru = uint8(i)
			return NewCacheTag(e.pfn)
		}
	}
	return EmptyCacheTag
}

// Install loads a mapping into the least-recently-used slot, evicting
// whatever was there. Populating the micro-TLB from the joint TLB is out
// of scope (spec Non-goals); this exists so tests can exercise Translate
// without a full MMU.
func (tlb *MicroTLB) Install(vpn uint64, pfn uint32, global bool) {
	slot := 1 - tlb.lru
	tlb.entries[slot] = tlbEntry{vpn: vpn, pfn: pfn, global: global}
	tlb.lru = slot
}
