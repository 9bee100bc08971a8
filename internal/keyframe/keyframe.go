// Package keyframe builds keyframe tables that map a frame index to the
// keyframe decoding must start from.
package keyframe

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Eyevinn/mp4ff/mp4"
)

// ErrNoSampleTable is returned for MP4 files whose video samples are not
// described by a progressive sample table.
var ErrNoSampleTable = errors.New("keyframe: no progressive video sample table")

// Table lists keyframe positions in presentation order.
type Table struct {
	// Keyframes is sorted, deduplicated and always starts at 0.
	Keyframes []int
	// Total is the number of frames in the stream.
	Total int
}

// New builds a table from keyframe positions in any order.
func New(keyframes []int, total int) Table {
	kf := make([]int, 0, len(keyframes)+1)
	kf = append(kf, 0)
	for _, k := range keyframes {
		if k >= 0 && (total == 0 || k < total) {
			kf = append(kf, k)
		}
	}
	sort.Ints(kf)
	return Table{Keyframes: dedupe(kf), Total: total}
}

// FromFlags builds a table from per-packet keyframe flags. A stream with no
// flagged packets is treated as intra-only.
func FromFlags(flags []bool) Table {
	var kf []int
	for i, key := range flags {
		if key {
			kf = append(kf, i)
		}
	}
	if len(kf) == 0 {
		kf = make([]int, len(flags))
		for i := range kf {
			kf[i] = i
		}
	}
	return New(kf, len(flags))
}

// FromMP4 reads the sync-sample table of the first video track.
func FromMP4(rs io.ReadSeeker) (Table, error) {
	mp4File, err := mp4.DecodeFile(rs)
	if err != nil {
		return Table{}, fmt.Errorf("keyframe: failed to parse mp4: %w", err)
	}
	if mp4File.IsFragmented() || mp4File.Moov == nil {
		return Table{}, ErrNoSampleTable
	}

	for _, trak := range mp4File.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsz == nil {
			return Table{}, ErrNoSampleTable
		}
		stbl := trak.Mdia.Minf.Stbl

		// No stss box means every sample is a sync sample.
		var sync []uint32
		if stbl.Stss != nil {
			sync = stbl.Stss.SampleNumber
		}
		return fromSyncSamples(sync, stbl.Stsz.SampleNumber), nil
	}
	return Table{}, ErrNoSampleTable
}

// fromSyncSamples converts 1-based MP4 sync sample numbers.
func fromSyncSamples(sync []uint32, sampleCount uint32) Table {
	if sync == nil {
		all := make([]bool, sampleCount)
		for i := range all {
			all[i] = true
		}
		return FromFlags(all)
	}
	kf := make([]int, 0, len(sync))
	for _, nr := range sync {
		if nr > 0 {
			kf = append(kf, int(nr)-1)
		}
	}
	return New(kf, int(sampleCount))
}

// Preceding returns the last keyframe at or before index.
func (t Table) Preceding(index int) int {
	i := sort.SearchInts(t.Keyframes, index+1)
	if i == 0 {
		return 0
	}
	return t.Keyframes[i-1]
}

// dedupe removes duplicate values from a sorted slice.
func dedupe(sorted []int) []int {
	if len(sorted) <= 1 {
		return sorted
	}

	result := make([]int, 0, len(sorted))
	result = append(result, sorted[0])

	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			result = append(result, sorted[i])
		}
	}

	return result
}
