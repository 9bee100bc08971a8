package keyframe

import (
	"bytes"
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		keyframes []int
		total     int
		expected  []int
	}{
		{"adds zero", []int{24, 48}, 72, []int{0, 24, 48}},
		{"sorts and dedupes", []int{48, 0, 24, 24}, 72, []int{0, 24, 48}},
		{"drops out of range", []int{-3, 12, 99}, 50, []int{0, 12}},
		{"unknown total keeps all", []int{500}, 0, []int{0, 500}},
		{"empty", nil, 10, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.keyframes, tt.total)
			if !reflect.DeepEqual(got.Keyframes, tt.expected) {
				t.Errorf("New(%v).Keyframes = %v, want %v", tt.keyframes, got.Keyframes, tt.expected)
			}
			if got.Total != tt.total {
				t.Errorf("Total = %d, want %d", got.Total, tt.total)
			}
		})
	}
}

func TestPreceding(t *testing.T) {
	table := New([]int{0, 4, 8}, 12)

	tests := []struct {
		index    int
		expected int
	}{
		{0, 0},
		{3, 0},
		{4, 4},
		{7, 4},
		{8, 8},
		{11, 8},
	}

	for _, tt := range tests {
		if got := table.Preceding(tt.index); got != tt.expected {
			t.Errorf("Preceding(%d) = %d, want %d", tt.index, got, tt.expected)
		}
	}
}

func TestFromFlags(t *testing.T) {
	table := FromFlags([]bool{true, false, false, true, false})
	if !reflect.DeepEqual(table.Keyframes, []int{0, 3}) {
		t.Errorf("Keyframes = %v, want [0 3]", table.Keyframes)
	}
	if table.Total != 5 {
		t.Errorf("Total = %d, want 5", table.Total)
	}
}

func TestFromFlagsWithoutKeyframesIsIntraOnly(t *testing.T) {
	table := FromFlags([]bool{false, false, false})
	if !reflect.DeepEqual(table.Keyframes, []int{0, 1, 2}) {
		t.Errorf("Keyframes = %v, want [0 1 2]", table.Keyframes)
	}
}

func TestFromSyncSamples(t *testing.T) {
	table := fromSyncSamples([]uint32{1, 31, 61}, 90)
	if !reflect.DeepEqual(table.Keyframes, []int{0, 30, 60}) {
		t.Errorf("Keyframes = %v, want [0 30 60]", table.Keyframes)
	}
	if table.Total != 90 {
		t.Errorf("Total = %d, want 90", table.Total)
	}

	all := fromSyncSamples(nil, 3)
	if !reflect.DeepEqual(all.Keyframes, []int{0, 1, 2}) {
		t.Errorf("missing stss Keyframes = %v, want [0 1 2]", all.Keyframes)
	}
}

func TestFromMP4RejectsGarbage(t *testing.T) {
	if _, err := FromMP4(bytes.NewReader([]byte("YUV4MPEG2 W2 H2 F25:1\n"))); err == nil {
		t.Error("expected error for non-mp4 input")
	}
}
