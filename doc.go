// Package gosilk implements the SILK speech codec in pure Go.
//
// SILK is the linear-prediction layer of Opus (RFC 6716 section 4.2). It
// codes narrowband to wideband speech at 8, 12 or 16 kHz, in packets of
// 10, 20, 40 or 60 ms, mono or stereo. The bitstream is bit-exact with the
// fixed-point reference, so packets produced here decode with any
// conforming SILK decoder and vice versa.
//
// # Packets
//
// A packet holds one to three 20 ms frames (or a single 10 ms frame) per
// channel, preceded by the voice activity and redundancy flags. Packets
// carry no framing of their own: both ends must agree on the sample rate,
// channel count and frame duration, the way an Opus TOC byte would tell
// them.
//
// # Usage
//
//	enc, err := gosilk.NewEncoder(16000, 1)
//	...
//	packet, err := enc.EncodeFrame(pcm) // 320 samples for 20 ms
//	...
//	dec, err := gosilk.NewDecoder(16000, 1)
//	...
//	out, err := dec.DecodeFrame(packet)
//
// Passing a nil packet to DecodeFrame conceals a lost packet.
//
// Encoders and decoders are NOT safe for concurrent use. Independent
// streams may run in parallel on their own instances.
package gosilk
