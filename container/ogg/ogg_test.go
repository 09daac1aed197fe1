package ogg

import (
	"bytes"
	"errors"
	"testing"
)

func TestOggCRC(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := crcUpdate(0, nil); got != 0 {
			t.Errorf("crcUpdate(0, nil) = 0x%08x, want 0", got)
		}
	})

	t.Run("update consistency", func(t *testing.T) {
		data := []byte("hello world")
		full := crcUpdate(0, data)
		partial := crcUpdate(crcUpdate(0, data[:5]), data[5:])
		if full != partial {
			t.Errorf("full=0x%08x, partial=0x%08x", full, partial)
		}
	})

	t.Run("non-IEEE polynomial", func(t *testing.T) {
		if got, want := crcUpdate(0, []byte("OggS")), uint32(0x5fb0a94f); got != want {
			t.Errorf("crc(OggS) = 0x%08x, want 0x%08x", got, want)
		}
	})
}

func TestBuildSegmentTable(t *testing.T) {
	tests := []struct {
		n    int
		want []byte
	}{
		{0, []byte{0}},
		{1, []byte{1}},
		{254, []byte{254}},
		{255, []byte{255, 0}},
		{256, []byte{255, 1}},
		{510, []byte{255, 255, 0}},
		{600, []byte{255, 255, 90}},
	}
	for _, tt := range tests {
		if got := BuildSegmentTable(tt.n); !bytes.Equal(got, tt.want) {
			t.Errorf("BuildSegmentTable(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
	if got := len(BuildSegmentTable(maxPacketSize)); got != maxSegments {
		t.Errorf("max packet uses %d segments, want %d", got, maxSegments)
	}
}

func testPage() *Page {
	payload := bytes.Repeat([]byte{0xAB}, 300)
	return &Page{
		HeaderType:   PageFlagBOS,
		GranulePos:   123456789,
		SerialNumber: 0xDEADBEEF,
		PageSequence: 7,
		Segments:     BuildSegmentTable(len(payload)),
		Payload:      payload,
	}
}

func TestPageRoundTrip(t *testing.T) {
	p := testPage()
	data := p.Encode()
	if len(data) != pageHeaderSize+2+300 {
		t.Fatalf("encoded size = %d", len(data))
	}

	// Trailing bytes belong to the next page.
	got, n, err := ParsePage(append(data, "OggS"...))
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
	if got.HeaderType != p.HeaderType || got.GranulePos != p.GranulePos ||
		got.SerialNumber != p.SerialNumber || got.PageSequence != p.PageSequence {
		t.Errorf("header mismatch: got %+v", got)
	}
	if !bytes.Equal(got.Segments, p.Segments) || !bytes.Equal(got.Payload, p.Payload) {
		t.Error("segments or payload mismatch")
	}
	if !got.IsBOS() || got.IsEOS() || got.IsContinuation() {
		t.Error("flags mismatch")
	}
}

func TestPageAppendTo(t *testing.T) {
	p := testPage()
	prefix := []byte("prefix")
	data := p.AppendTo(append([]byte(nil), prefix...))
	if !bytes.HasPrefix(data, prefix) {
		t.Fatal("AppendTo overwrote dst")
	}
	if !bytes.Equal(data[len(prefix):], p.Encode()) {
		t.Error("AppendTo differs from Encode")
	}
}

func TestParsePageErrors(t *testing.T) {
	good := testPage().Encode()

	corrupt := append([]byte(nil), good...)
	corrupt[len(corrupt)-1] ^= 0x01

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'

	badVersion := append([]byte(nil), good...)
	badVersion[4] = 1

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidPage},
		{"short header", good[:20], ErrInvalidPage},
		{"short segments", good[:pageHeaderSize+1], ErrInvalidPage},
		{"short payload", good[:len(good)-1], ErrInvalidPage},
		{"bad magic", badMagic, ErrInvalidPage},
		{"bad version", badVersion, ErrInvalidPage},
		{"bad crc", corrupt, ErrBadCRC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParsePage(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("ParsePage error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStreamConfigTOC(t *testing.T) {
	tests := []struct {
		cfg  StreamConfig
		want byte
	}{
		{StreamConfig{8000, 1, 10}, 0x00},
		{StreamConfig{8000, 1, 20}, 0x08},
		{StreamConfig{8000, 2, 60}, 0x1C},
		{StreamConfig{12000, 1, 20}, 0x28},
		{StreamConfig{16000, 1, 20}, 0x48},
		{StreamConfig{16000, 2, 40}, 0x54},
		{StreamConfig{16000, 2, 60}, 0x5C},
	}
	for _, tt := range tests {
		got, err := tt.cfg.TOC()
		if err != nil {
			t.Errorf("%+v: %v", tt.cfg, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%+v: TOC = 0x%02x, want 0x%02x", tt.cfg, got, tt.want)
		}
	}

	for _, bad := range []StreamConfig{
		{24000, 1, 20},
		{16000, 0, 20},
		{16000, 3, 20},
		{16000, 1, 5},
		{},
	} {
		if _, err := bad.TOC(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%+v: error = %v, want ErrInvalidConfig", bad, err)
		}
	}
}

func TestParseTOC(t *testing.T) {
	for _, rate := range bandwidthRates {
		for _, ms := range frameDurations {
			for ch := 1; ch <= 2; ch++ {
				cfg := StreamConfig{rate, ch, ms}
				toc, err := cfg.TOC()
				if err != nil {
					t.Fatalf("%+v: %v", cfg, err)
				}
				got, err := ParseTOC(toc)
				if err != nil || got != cfg {
					t.Errorf("ParseTOC(0x%02x) = %+v, %v; want %+v", toc, got, err, cfg)
				}
			}
		}
	}

	tests := []struct {
		name string
		toc  byte
		want error
	}{
		{"hybrid", 12 << 3, ErrNotSILK},
		{"celt", 31 << 3, ErrNotSILK},
		{"two frames", 0x48 | 1, ErrUnsupportedPacket},
		{"arbitrary frames", 0x48 | 3, ErrUnsupportedPacket},
	}
	for _, tt := range tests {
		if _, err := ParseTOC(tt.toc); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestOpusHead(t *testing.T) {
	h := OpusHead{Version: 1, Channels: 2, PreSkip: 312, SampleRate: 16000, OutputGain: -256}
	data := h.Encode()
	if len(data) != opusHeadSize {
		t.Fatalf("len = %d, want %d", len(data), opusHeadSize)
	}
	got, err := ParseOpusHead(data)
	if err != nil {
		t.Fatalf("ParseOpusHead: %v", err)
	}
	if *got != h {
		t.Errorf("got %+v, want %+v", *got, h)
	}

	t.Run("errors", func(t *testing.T) {
		mutate := func(i int, v byte) []byte {
			b := append([]byte(nil), data...)
			b[i] = v
			return b
		}
		cases := map[string][]byte{
			"short":      data[:18],
			"magic":      mutate(0, 'X'),
			"version":    mutate(8, 0x10),
			"channels":   mutate(9, 0),
			"surround":   mutate(9, 6),
			"family one": mutate(18, 1),
		}
		for name, b := range cases {
			if _, err := ParseOpusHead(b); !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("%s: error = %v, want ErrInvalidHeader", name, err)
			}
		}
	})
}

func TestOpusTags(t *testing.T) {
	tags := OpusTags{Vendor: Vendor, Comments: []string{"TITLE=test", "ENCODER=gosilk"}}
	data := tags.Encode()
	got, err := ParseOpusTags(data)
	if err != nil {
		t.Fatalf("ParseOpusTags: %v", err)
	}
	if got.Vendor != tags.Vendor || len(got.Comments) != 2 || got.Comments[1] != "ENCODER=gosilk" {
		t.Errorf("got %+v", got)
	}
	if v, ok := got.Get("title"); !ok || v != "test" {
		t.Errorf("Get(title) = %q, %v", v, ok)
	}
	if _, ok := got.Get("ARTIST"); ok {
		t.Error("Get(ARTIST) found a missing key")
	}

	for n := range len(data) {
		if _, err := ParseOpusTags(data[:n]); !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("truncated to %d: error = %v", n, err)
		}
	}

	// A comment count larger than the remaining bytes allow.
	huge := (&OpusTags{Vendor: "v"}).Encode()
	huge[len(huge)-4] = 0xFF
	if _, err := ParseOpusTags(huge); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("huge count: error = %v", err)
	}
}
