package export

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/echopress-data/echopress/internal/align"
)

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func TestSignalsDuplicateKey(t *testing.T) {
	s := NewSignals()
	key := Key{SID: "s1", FileStamp: "10:00:00", Idx: 0}
	if err := s.Add(SignalRow{Key: key, Value: 1}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.Add(SignalRow{Key: key, Value: 2}); err == nil {
		t.Fatal("expected duplicate key error")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", s.Len())
	}
}

func TestRecordsSorted(t *testing.T) {
	s := NewSignals()
	keys := []Key{
		{SID: "b", FileStamp: "10:00:00", Idx: 0},
		{SID: "a", FileStamp: "10:00:01", Idx: 1},
		{SID: "a", FileStamp: "10:00:01", Idx: 0},
		{SID: "a", FileStamp: "10:00:00", Idx: 5},
	}
	for _, k := range keys {
		if err := s.Add(SignalRow{Key: k}); err != nil {
			t.Fatalf("insert %+v: %v", k, err)
		}
	}

	var got []Key
	for _, row := range s.Records() {
		got = append(got, row.Key)
	}
	want := []Key{
		{SID: "a", FileStamp: "10:00:00", Idx: 5},
		{SID: "a", FileStamp: "10:00:01", Idx: 0},
		{SID: "a", FileStamp: "10:00:01", Idx: 1},
		{SID: "b", FileStamp: "10:00:00", Idx: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record order mismatch (-want +got):\n%s", diff)
	}
}

func TestTallExportMergesOnKey(t *testing.T) {
	signals := NewSignals()
	files := NewOscFiles()
	mappings := NewFile2PressureMap()

	k1 := Key{SID: "s1", FileStamp: "10:00:00", Idx: 0}
	k2 := Key{SID: "s1", FileStamp: "10:00:01", Idx: 0}

	if err := signals.Add(SignalRow{Key: k1, Value: 1.5, AlignmentError: fptr(0.25)}); err != nil {
		t.Fatal(err)
	}
	if err := files.Add(OscFileRow{Key: k1, Path: "/data/a.csv"}); err != nil {
		t.Fatal(err)
	}
	if err := files.Add(OscFileRow{Key: k2, Path: "/data/b.csv"}); err != nil {
		t.Fatal(err)
	}
	if err := mappings.Add(File2PressureRow{Key: k1, PressureLabel: "p-042"}); err != nil {
		t.Fatal(err)
	}

	got := TallExport(signals, files, mappings)
	want := []TallRow{
		{
			Key:            k1,
			Path:           sptr("/data/a.csv"),
			Value:          fptr(1.5),
			AlignmentError: fptr(0.25),
			PressureLabel:  sptr("p-042"),
		},
		{Key: k2, Path: sptr("/data/b.csv")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tall export mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteResults(t *testing.T) {
	batch := align.BatchResult{Results: []align.Result{
		{
			State: align.StateAligned, Index: 1, EAlign: 0.5,
			DpDt: 10, DeltaP: 5, BoundLo: -5, BoundHi: 5,
			Diagnostics: align.Diagnostics{Method: "central_difference", WEff: 3},
		},
		{
			State: align.StateRejected, Index: align.RejectedIndex, EAlign: 9,
			Diagnostics: align.Diagnostics{Method: "central_difference"},
		},
	}}
	midpoints := []float64{10.5, 99}
	pressures := []float64{100, 101, 102}

	var sb strings.Builder
	if err := WriteResults(&sb, midpoints, pressures, batch); err != nil {
		t.Fatalf("write results: %v", err)
	}

	want := strings.Join([]string{
		"seq,midpoint,state,index,e_align,pressure,dpdt,delta_p,bound_lo,bound_hi,method,w_eff",
		"0,10.5,ALIGNED,1,0.5,101,10,5,-5,5,central_difference,3",
		"1,99,REJECTED,-1,9,,,,,,central_difference,",
		"",
	}, "\n")
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteResultsLengthMismatch(t *testing.T) {
	var sb strings.Builder
	err := WriteResults(&sb, []float64{1}, nil, align.BatchResult{})
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestWriteTall(t *testing.T) {
	rows := []TallRow{
		{
			Key:           Key{SID: "s1", FileStamp: "10:00:00", Idx: 0},
			Path:          sptr("/data/a.csv"),
			Value:         fptr(1.5),
			PressureLabel: sptr("p-042"),
		},
		{Key: Key{SID: "s1", FileStamp: "10:00:01", Idx: 2}},
	}

	var sb strings.Builder
	if err := WriteTall(&sb, rows); err != nil {
		t.Fatalf("write tall: %v", err)
	}

	want := strings.Join([]string{
		"sid,file_stamp,idx,path,value,alignment_error,deriv_lo,deriv_hi,pressure_label",
		"s1,10:00:00,0,/data/a.csv,1.5,,,,p-042",
		"s1,10:00:01,2,,,,,,",
		"",
	}, "\n")
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}
