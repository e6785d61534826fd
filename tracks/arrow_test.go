package tracks

import (
	"bytes"
	"reflect"
	"testing"
)

func TestArrowRoundTrip(t *testing.T) {
	_, tracks, err := DecodeTrk(trkFile(0, 2, 3, 1), nil, 0)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	saved := ArrowBatchSize
	ArrowBatchSize = 2
	defer func() { ArrowBatchSize = saved }()

	var buf bytes.Buffer
	if err := WriteArrow(&buf, tracks); err != nil {
		t.Fatalf("unable to write arrow stream: %v", err)
	}
	got, err := ReadArrow(&buf)
	if err != nil {
		t.Fatalf("unable to read arrow stream: %v", err)
	}
	if len(got) != len(tracks) {
		t.Fatalf("expected %d tracks, got %d", len(tracks), len(got))
	}
	for i := range tracks {
		if !reflect.DeepEqual(tracks[i].Coords(), got[i].Coords()) {
			t.Errorf("track %d differs: %v vs %v", i, tracks[i].Coords(), got[i].Coords())
		}
	}
}

func TestArrowEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArrow(&buf, nil); err != nil {
		t.Fatalf("unable to write arrow stream: %v", err)
	}
	got, err := ReadArrow(&buf)
	if err != nil {
		t.Fatalf("unable to read arrow stream: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no tracks, got %d", len(got))
	}
}
