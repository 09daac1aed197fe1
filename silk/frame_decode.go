package silk

import "github.com/thesyncim/gosilk/rangecoding"

// Packet decode modes.
const (
	decodeNormal = iota
	decodeLost
	decodeLBRR // recover the previous packet from this packet's redundant frames
)

// decodeFrame decodes or conceals one frame of one channel into out, which
// must hold frameLength samples. vad is the frame's activity flag; redundant
// frames are always active.
func (s *DecoderState) decodeFrame(rd *rangecoding.Decoder, out []int16, vad, lost bool, condCoding int, tr *FrameTrace) {
	var ctrl decoderControl
	if !lost {
		decodeIndices(rd, &s.frameGeometry, &s.indices, &s.history, vad, condCoding)

		var pulses [maxFrameLength + shellCodecFrameLength]int16
		DecodePulses(rd, pulses[:], int(s.indices.SignalType), int(s.indices.QuantOffsetType), s.frameLength)

		s.decodeParameters(&ctrl, condCoding)
		s.decodeCore(&ctrl, out, pulses[:])
		s.plc(&ctrl, out, false)

		s.LossCount = 0
		s.prevSignalType = int(s.indices.SignalType)
		s.FirstFrameAfterReset = false
	} else {
		s.plc(&ctrl, out, true)
	}

	s.updateOutBuf(out)
	s.plcGlueFrames(out[:s.frameLength])
	s.lagPrev = ctrl.pitchL[s.nbSubfr-1]

	if tr != nil {
		tr.Lost = lost
		tr.CondCoding = condCoding
		tr.Indices = s.indices
		tr.GainsQ16 = append([]int32(nil), ctrl.gainsQ16[:s.nbSubfr]...)
		tr.PitchL = append([]int(nil), ctrl.pitchL[:s.nbSubfr]...)
	}
}

// skipLBRR parses one redundant frame so the primary frames that follow can
// be read. The result is not used.
func (s *DecoderState) skipLBRR(rd *rangecoding.Decoder, condCoding int) {
	decodeIndices(rd, &s.frameGeometry, &s.indices, &s.history, true, condCoding)
	var pulses [maxFrameLength + shellCodecFrameLength]int16
	DecodePulses(rd, pulses[:], int(s.indices.SignalType), int(s.indices.QuantOffsetType), s.frameLength)
}

// readVADFlags reads the per-frame VAD flags and the LBRR flag of one channel.
func (s *DecoderState) readVADFlags(rd *rangecoding.Decoder, nFrames int) {
	for i := 0; i < nFrames; i++ {
		s.vadFlags[i] = rd.DecodeBit(1) == 1
	}
	s.lbrrFlag = rd.DecodeBit(1) == 1
}

func (s *DecoderState) readLBRRFlags(rd *rangecoding.Decoder, nFrames int) {
	s.lbrrFlags = [maxFramesPerPacket]bool{}
	if !s.lbrrFlag {
		return
	}
	if nFrames == 1 {
		s.lbrrFlags[0] = true
		return
	}
	sym := rd.DecodeICDF(silkLBRRFlagsICDF[nFrames-2], 8) + 1
	for i := 0; i < nFrames; i++ {
		s.lbrrFlags[i] = (sym>>i)&1 == 1
	}
}

// Decoder decodes SILK packets of one stream.
//
// A Decoder is NOT safe for concurrent use.
type Decoder struct {
	channels  [2]DecoderState
	stereo    stereoDecState
	nChannels int
	fsKHz     int
	nFrames   int
	nbSubfr   int

	prevDecodeOnlyMiddle bool

	rd    rangecoding.Decoder
	tmp   [2][maxFrameLength + 2]int16
	trace *DecoderTrace
}

// NewDecoder returns a decoder for the given internal rate and channel count,
// set up for 20 ms packets.
func NewDecoder(fsKHz, channels int) (*Decoder, error) {
	if fsKHz != 8 && fsKHz != 12 && fsKHz != 16 {
		return nil, ErrInvalidSampleRate
	}
	if channels != 1 && channels != 2 {
		return nil, ErrInvalidChannels
	}
	d := &Decoder{nChannels: channels, fsKHz: fsKHz}
	d.nFrames, d.nbSubfr = 1, maxNbSubfr
	d.Reset()
	return d, nil
}

// packetLayout returns the number of frames and subframes per frame of a
// packet of the given duration.
func packetLayout(ms int) (nFrames, nbSubfr int, ok bool) {
	switch ms {
	case 10:
		return 1, 2, true
	case 20:
		return 1, maxNbSubfr, true
	case 40:
		return 2, maxNbSubfr, true
	case 60:
		return 3, maxNbSubfr, true
	}
	return 0, 0, false
}

// SetFrameDuration sets the packet duration in milliseconds. Filter memories
// are kept.
func (d *Decoder) SetFrameDuration(ms int) error {
	nFrames, nbSubfr, ok := packetLayout(ms)
	if !ok {
		return ErrInvalidFrameDuration
	}
	d.nFrames, d.nbSubfr = nFrames, nbSubfr
	for n := range d.channels {
		d.channels[n].setFrameSize(nbSubfr)
	}
	return nil
}

// Reset returns the decoder to the state of a new stream.
func (d *Decoder) Reset() {
	for n := range d.channels {
		d.channels[n].Reset(d.fsKHz, d.nbSubfr)
	}
	d.stereo = stereoDecState{}
	d.prevDecodeOnlyMiddle = false
}

// SetTrace installs a trace collector; nil disables tracing.
func (d *Decoder) SetTrace(t *DecoderTrace) {
	d.trace = t
}

// Channels returns the channel count.
func (d *Decoder) Channels() int { return d.nChannels }

// FrameSamples returns the number of samples per channel in one packet.
func (d *Decoder) FrameSamples() int {
	return d.nFrames * d.nbSubfr * subFrameLengthMs * d.fsKHz
}

// FinalRange returns the range coder state after the last packet read, for
// comparison with other decoders of the same packets.
func (d *Decoder) FinalRange() uint32 {
	rng, _ := d.rd.State()
	return rng
}

// State returns the channel decoder n, for inspection.
func (d *Decoder) State(n int) *DecoderState { return &d.channels[n] }

// Decode decodes one packet into out as interleaved samples and returns the
// number of samples per channel. A nil or empty packet is concealed. Corrupt
// packets still produce audio.
func (d *Decoder) Decode(data []byte, out []int16) (int, error) {
	mode := decodeLost
	if len(data) > 0 {
		mode = decodeNormal
	}
	return d.decode(data, out, mode)
}

// DecodeFEC recovers the packet before data, which was lost, from the
// redundant frames data carries, and writes it to out like Decode. Frames
// without a redundant copy are concealed, and a packet with no copies at all
// decodes like Decode(nil, out). Decode data itself afterwards as usual.
func (d *Decoder) DecodeFEC(data []byte, out []int16) (int, error) {
	return d.decode(data, out, decodeLBRR)
}

func (d *Decoder) decode(data []byte, out []int16, mode int) (int, error) {
	total := d.FrameSamples()
	if len(out) < total*d.nChannels {
		return 0, ErrOutputTooSmall
	}
	if len(data) == 0 {
		mode = decodeLost
	}
	if mode != decodeLost {
		d.rd.Init(data)
		d.readFlags()
		switch {
		case mode == decodeNormal:
			d.skipRedundant()
		case !d.channels[0].lbrrFlag && !d.channels[1].lbrrFlag:
			mode = decodeLost
		}
	}

	frameLength := d.channels[0].frameLength
	for i := 0; i < d.nFrames; i++ {
		d.decodeOne(i, mode)
		for n := 0; n < d.nChannels; n++ {
			src := d.tmp[n][1 : frameLength+1]
			dst := out[i*frameLength*d.nChannels:]
			for k, v := range src {
				dst[k*d.nChannels+n] = v
			}
		}
	}
	return total, nil
}

// readFlags reads the VAD and LBRR flags of every channel.
func (d *Decoder) readFlags() {
	d.channels[1].lbrrFlag = false
	for n := 0; n < d.nChannels; n++ {
		d.channels[n].readVADFlags(&d.rd, d.nFrames)
	}
	for n := 0; n < d.nChannels; n++ {
		d.channels[n].readLBRRFlags(&d.rd, d.nFrames)
	}
}

// skipRedundant parses past the redundant frames to the primary ones.
func (d *Decoder) skipRedundant() {
	for i := 0; i < d.nFrames; i++ {
		for n := 0; n < d.nChannels; n++ {
			ch := &d.channels[n]
			if !ch.lbrrFlags[i] {
				continue
			}
			if n == 0 && d.nChannels == 2 {
				DecodeStereoPred(&d.rd)
				if !d.channels[1].lbrrFlags[i] {
					DecodeMidOnly(&d.rd)
				}
			}
			cond := codeIndependently
			if i > 0 && ch.lbrrFlags[i-1] {
				cond = codeConditionally
			}
			ch.skipLBRR(&d.rd, cond)
		}
	}
}

// decodeOne decodes or conceals frame i of the packet into d.tmp. In
// decodeLBRR mode the frame comes from the redundant copy, and channels
// without one are concealed.
func (d *Decoder) decodeOne(i, mode int) {
	frameLength := d.channels[0].frameLength
	predQ13 := d.stereo.predPrevQ13
	midOnly := false
	if d.nChannels == 2 && (mode == decodeNormal || mode == decodeLBRR && d.channels[0].lbrrFlags[i]) {
		predQ13 = DecodeStereoPred(&d.rd)
		side := d.channels[1].vadFlags[i]
		if mode == decodeLBRR {
			side = d.channels[1].lbrrFlags[i]
		}
		if !side {
			midOnly = DecodeMidOnly(&d.rd)
		}
	}

	// The side channel restarts from silence after mid-only frames.
	if d.nChannels == 2 && !midOnly && d.prevDecodeOnlyMiddle {
		side := &d.channels[1]
		clear(side.outBuf[:])
		clear(side.sLPCQ14Buf[:])
		side.lagPrev = 100
		side.lastGainIndex = 10
		side.prevSignalType = typeNoVoiceActivity
		side.FirstFrameAfterReset = true
	}

	hasSide := !midOnly
	if mode != decodeNormal {
		hasSide = !d.prevDecodeOnlyMiddle || mode == decodeLBRR && d.channels[1].lbrrFlags[i]
	}

	for n := 0; n < d.nChannels; n++ {
		out := d.tmp[n][2 : frameLength+2]
		if n == 1 && !hasSide {
			clear(out)
			continue
		}
		ch := &d.channels[n]
		cond := codeConditionally
		switch {
		case i == 0:
			cond = codeIndependently
		case mode == decodeLBRR:
			if !ch.lbrrFlags[i-1] {
				cond = codeIndependently
			}
		case n == 1 && d.prevDecodeOnlyMiddle:
			cond = codeIndependentlyNoLtpScaling
		}
		vad, lost := ch.vadFlags[i], mode == decodeLost
		if mode == decodeLBRR {
			vad, lost = true, !ch.lbrrFlags[i]
		}
		var tr *FrameTrace
		if d.trace != nil {
			d.trace.Frames = append(d.trace.Frames, FrameTrace{Channel: n, Frame: i, MidOnly: midOnly, LBRR: mode == decodeLBRR && !lost})
			tr = &d.trace.Frames[len(d.trace.Frames)-1]
		}
		ch.decodeFrame(&d.rd, out, vad, lost, cond, tr)
	}

	if d.nChannels == 2 {
		d.stereo.MSToLR(d.tmp[0][:], d.tmp[1][:], predQ13, d.fsKHz, frameLength)
	} else {
		copy(d.tmp[0][:2], d.stereo.sMid[:])
		copy(d.stereo.sMid[:], d.tmp[0][frameLength:frameLength+2])
	}

	if mode == decodeLost {
		for n := 0; n < d.nChannels; n++ {
			d.channels[n].lastGainIndex = 10
		}
	} else {
		d.prevDecodeOnlyMiddle = midOnly
	}
}
