package ogg

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func writeStream(t *testing.T, cfg StreamConfig, payloads [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, p := range payloads {
		if err := w.WritePacket(p); err != nil {
			t.Fatalf("WritePacket: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestReaderRoundTrip(t *testing.T) {
	cfg := StreamConfig{SampleRate: 12000, Channels: 2, FrameMs: 40}
	payloads := [][]byte{
		{0x11},
		bytes.Repeat([]byte{0x22}, 255),
		nil,
		bytes.Repeat([]byte{0x33}, 1000),
		{0x44, 0x55},
	}
	r, err := NewReader(bytes.NewReader(writeStream(t, cfg, payloads)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Header.Channels != 2 || r.Header.SampleRate != 12000 || r.Tags.Vendor != Vendor {
		t.Errorf("headers = %+v %+v", r.Header, r.Tags)
	}

	for i, want := range payloads {
		got, gotCfg, err := r.ReadPacket()
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if gotCfg != cfg {
			t.Errorf("packet %d: config %+v, want %+v", i, gotCfg, cfg)
		}
		if want == nil && got != nil {
			t.Errorf("packet %d: lost packet returned %d bytes", i, len(got))
		}
		if !bytes.Equal(got, want) {
			t.Errorf("packet %d: payload mismatch", i)
		}
		if g := r.GranulePos(); g != uint64((i+1)*cfg.Samples48k()) {
			t.Errorf("packet %d: granule %d", i, g)
		}
	}
	if _, _, err := r.ReadPacket(); err != io.EOF {
		t.Errorf("after last packet: %v, want io.EOF", err)
	}
	if _, _, err := r.ReadPacket(); err != io.EOF {
		t.Errorf("second read after EOF: %v, want io.EOF", err)
	}
}

func TestReaderEmptyStream(t *testing.T) {
	r, err := NewReader(bytes.NewReader(writeStream(t, StreamConfig{SampleRate: 8000, Channels: 1, FrameMs: 10}, nil)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, _, err := r.ReadPacket(); err != io.EOF {
		t.Errorf("ReadPacket = %v, want io.EOF", err)
	}
}

// rawStream builds a stream from explicit pages sharing one serial.
type rawStream struct {
	buf bytes.Buffer
	seq uint32
}

func (s *rawStream) page(flags byte, granule uint64, segments []byte, payload []byte) {
	p := Page{
		HeaderType:   flags,
		GranulePos:   granule,
		SerialNumber: 42,
		PageSequence: s.seq,
		Segments:     segments,
		Payload:      payload,
	}
	s.buf.Write(p.Encode())
	s.seq++
}

func (s *rawStream) headers() {
	head := (&OpusHead{Version: 1, Channels: 1, SampleRate: 16000}).Encode()
	s.page(PageFlagBOS, 0, BuildSegmentTable(len(head)), head)
	tags := (&OpusTags{Vendor: "test"}).Encode()
	s.page(0, 0, BuildSegmentTable(len(tags)), tags)
}

func TestReaderPacketSpanningPages(t *testing.T) {
	packet := append([]byte{0x48}, bytes.Repeat([]byte{7}, 299)...)

	var s rawStream
	s.headers()
	s.page(0, noGranule, []byte{255}, packet[:255])
	s.page(PageFlagContinuation|PageFlagEOS, 960, []byte{45}, packet[255:])

	r, err := NewReader(&s.buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, _, err := r.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if !bytes.Equal(got, packet[1:]) {
		t.Errorf("got %d bytes, want %d", len(got), len(packet)-1)
	}
	if r.GranulePos() != 960 {
		t.Errorf("granule = %d", r.GranulePos())
	}
}

func TestReaderSeveralPacketsPerPage(t *testing.T) {
	var s rawStream
	s.headers()
	s.page(PageFlagEOS, 3*960, []byte{2, 3, 1}, []byte{0x48, 1, 0x48, 2, 3, 0x48})

	r, err := NewReader(&s.buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	want := [][]byte{{1}, {2, 3}, nil}
	for i, w := range want {
		got, _, err := r.ReadPacket()
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if !bytes.Equal(got, w) {
			t.Errorf("packet %d = %v, want %v", i, got, w)
		}
	}
	if _, _, err := r.ReadPacket(); err != io.EOF {
		t.Errorf("final read = %v, want io.EOF", err)
	}
}

func TestReaderDropsOrphanContinuation(t *testing.T) {
	var s rawStream
	s.headers()
	// The first 10 bytes finish a packet whose start is missing.
	s.page(PageFlagContinuation|PageFlagEOS, 960, []byte{10, 2}, append(make([]byte, 10), 0x48, 9))

	r, err := NewReader(&s.buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, _, err := r.ReadPacket()
	if err != nil || !bytes.Equal(got, []byte{9}) {
		t.Errorf("ReadPacket = %v, %v; want [9]", got, err)
	}
}

func TestReaderSkipsOtherStreams(t *testing.T) {
	var s rawStream
	s.headers()
	other := Page{SerialNumber: 7, Segments: []byte{2}, Payload: []byte{0x60, 0}}
	s.buf.Write(other.Encode())
	s.page(PageFlagEOS, 960, []byte{2}, []byte{0x48, 5})

	r, err := NewReader(&s.buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, _, err := r.ReadPacket()
	if err != nil || !bytes.Equal(got, []byte{5}) {
		t.Errorf("ReadPacket = %v, %v; want [5]", got, err)
	}
}

func TestReaderErrors(t *testing.T) {
	valid := writeStream(t, StreamConfig{SampleRate: 16000, Channels: 1, FrameMs: 20}, [][]byte{{1, 2, 3}})

	var hybrid rawStream
	hybrid.headers()
	hybrid.page(PageFlagEOS, 960, []byte{2}, []byte{12 << 3, 0})

	var noBOS rawStream
	tags := (&OpusTags{Vendor: "test"}).Encode()
	noBOS.page(0, 0, BuildSegmentTable(len(tags)), tags)

	var open rawStream
	open.headers()
	open.page(0, noGranule, []byte{255}, make([]byte, 255))

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrUnexpectedEOS},
		{"not ogg", []byte("this is certainly not an ogg stream"), ErrInvalidPage},
		{"headers only partly present", valid[:40], ErrUnexpectedEOS},
		{"no BOS", noBOS.buf.Bytes(), ErrInvalidPage},
		{"hybrid packet", hybrid.buf.Bytes(), ErrNotSILK},
		{"truncated page", valid[:len(valid)-2], ErrUnexpectedEOS},
		{"unfinished packet", open.buf.Bytes(), ErrUnexpectedEOS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(tt.data))
			if err == nil {
				_, _, err = r.ReadPacket()
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
