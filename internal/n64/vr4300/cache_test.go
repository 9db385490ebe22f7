package vr4300

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheTagEncoding(t *testing.T) {
	tag := NewCacheTag(0x8012_3456)
	require.True(t, tag.IsValid())
	require.False(t, tag.IsUncached())
	require.False(t, tag.IsDirty())
	require.Equal(t, uint32(0x8012_3000), tag.Tag())

	uncached := NewUncachedCacheTag(0x1fc0_0000)
	require.True(t, uncached.IsUncached())
	require.Equal(t, uint32(0x1fc0_0000), uncached.UncachedAddr())

	require.False(t, EmptyCacheTag.IsValid())
	require.False(t, InvalidCacheTag.Equal(NewCacheTag(0xcccc_c000)))
}

func TestCacheTagDirty(t *testing.T) {
	var dc DCache
	dc.FinishFill(0, NewCacheTag(0x8000_0000), [2]uint64{1, 2})
	tag, _ := dc.Fetch(0)
	require.False(t, tag.IsDirty())

	dc.Write(0, 0xdead_beef)
	tag, data := dc.Fetch(0)
	require.True(t, tag.IsDirty())
	require.Equal(t, uint64(0xdead_beef), data[0])
}

func TestMicroTLBKseg0Kseg1Bypass(t *testing.T) {
	tlb := NewMicroTLB()

	tag := tlb.Translate(0xffff_ffff_8012_3456)
	require.True(t, tag.IsUncached())
	require.Equal(t, uint32(0x0012_3454), tag.UncachedAddr())

	tag = tlb.Translate(0xffff_ffff_a000_1000)
	require.True(t, tag.IsUncached())
	require.Equal(t, uint32(0x0000_1000), tag.UncachedAddr())
}

func TestMicroTLBTwoEntryLookup(t *testing.T) {
	tlb := NewMicroTLB()
	tlb.Install(0x12345, 0x8000_0000, true)

	tag := tlb.Translate(0x12345000)
	require.True(t, tag.IsValid())
	require.False(t, tag.IsUncached())

	miss := tlb.Translate(0x99999000)
	require.Equal(t, EmptyCacheTag, miss)
}

func TestMicroTLBEvictsLRU(t *testing.T) {
	tlb := NewMicroTLB()
	tlb.Install(1, 0x1000, true)
	tlb.Install(2, 0x2000, true)

	// Accessing vpn 1 makes it MRU, so installing a third entry should
	// evict vpn 2.
	tlb.Translate(1 << 12)
	tlb.Install(3, 0x3000, true)

	require.Equal(t, EmptyCacheTag, tlb.Translate(2<<12))
	require.True(t, tlb.Translate(1<<12).IsValid())
	require.True(t, tlb.Translate(3<<12).IsValid())
}
