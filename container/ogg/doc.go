// Package ogg stores gosilk packets in Ogg Opus files (RFC 7845, RFC 3533).
//
// A SILK payload becomes a SILK-only Opus packet by prefixing one
// table-of-contents byte that names the bandwidth, the packet duration and
// the channel count. Files written by Writer therefore play in any Opus
// player, and Reader strips the byte again before handing the payload to a
// gosilk.Decoder.
//
// # Page Layout
//
// Writer emits the OpusHead page (BOS), the OpusTags page and then one audio
// packet per page. The granule position of an audio page counts 48 kHz
// samples up to the end of its packet. The last audio page carries the EOS
// flag.
//
//	Bytes 0-3:   "OggS" capture pattern
//	Byte 4:      Stream structure version (0)
//	Byte 5:      Header type flags (continuation, BOS, EOS)
//	Bytes 6-13:  Granule position
//	Bytes 14-17: Bitstream serial number
//	Bytes 18-21: Page sequence number
//	Bytes 22-25: CRC checksum
//	Byte 26:     Number of segments
//	Bytes 27+:   Segment table, then payload
//
// # Lost Packets
//
// WritePacket(nil) stores a TOC-only packet, which Opus decoders treat as a
// lost frame. ReadPacket returns a nil payload for it, and passing that to
// gosilk.Decoder.Decode runs packet loss concealment.
//
// # Example
//
//	w, err := ogg.NewWriter(f, ogg.StreamConfig{SampleRate: 16000, Channels: 1, FrameMs: 20})
//	if err != nil {
//		return err
//	}
//	for _, packet := range packets {
//		if err := w.WritePacket(packet); err != nil {
//			return err
//		}
//	}
//	return w.Close()
package ogg
