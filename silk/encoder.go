package silk

import "github.com/thesyncim/gosilk/rangecoding"

// Encoder limits.
const (
	// MaxPacketBytes is the largest packet Encode produces.
	MaxPacketBytes = 1275

	defaultBitrateBps = 20000
	defaultComplexity = 5
	maxComplexity     = 10

	// sideBitsFractionQ8 is the share of a stereo frame's bits the side
	// channel gets, in Q8.
	sideBitsFractionQ8 = 64

	lbrrLossScaleQ16     = 655   // SILK_FIX_CONST(0.01, 16)
	lbrrGainIncreaseQ16  = 26214 // SILK_FIX_CONST(0.4, 16)
	lbrrMaxGainIncreases = 7
	lbrrMinGainIncreases = 2
)

// lbrrMinRateBps is the channel rate below which no redundancy is sent, at
// zero loss.
func lbrrMinRateBps(fsKHz int) int {
	switch fsKHz {
	case 8:
		return 12000
	case 12:
		return 14000
	}
	return 16000
}

// Encoder encodes SILK packets of one stream.
//
// An Encoder is NOT safe for concurrent use.
type Encoder struct {
	channels  [2]EncoderState
	stereo    stereoEncState
	nChannels int
	fsKHz     int
	nFrames   int
	nbSubfr   int

	bitrate      int
	complexity   int
	packetLoss   int
	frameCounter int

	prevDecodeOnlyMiddle bool

	inbandFEC         bool
	lbrrEnabled       bool
	lbrrGainIncreases int8
	lbrrStereoIx      [maxFramesPerPacket][2][3]int8
	lbrrMidOnly       [maxFramesPerPacket]bool

	enc   rangecoding.Encoder
	buf   [MaxPacketBytes]byte
	in    [2][maxFrameLength]int16
	ms    [2][maxFrameLength]int16
	trace *EncoderTrace
}

// NewEncoder returns an encoder for the given internal rate and channel
// count, set up for 20 ms packets.
func NewEncoder(fsKHz, channels int) (*Encoder, error) {
	if fsKHz != 8 && fsKHz != 12 && fsKHz != 16 {
		return nil, ErrInvalidSampleRate
	}
	if channels != 1 && channels != 2 {
		return nil, ErrInvalidChannels
	}
	e := &Encoder{
		nChannels:  channels,
		fsKHz:      fsKHz,
		nFrames:    1,
		nbSubfr:    maxNbSubfr,
		bitrate:    defaultBitrateBps * channels,
		complexity: defaultComplexity,
	}
	e.Reset()
	return e, nil
}

// Reset returns the encoder to the state of a new stream. Settings are kept.
func (e *Encoder) Reset() {
	for n := range e.channels {
		e.channels[n].reset(e.fsKHz, e.nbSubfr)
	}
	e.stereo = stereoEncState{}
	e.prevDecodeOnlyMiddle = false
	e.frameCounter = 0
	e.lbrrEnabled = false
}

// SetFrameDuration sets the packet duration in milliseconds. Filter memories
// are kept.
func (e *Encoder) SetFrameDuration(ms int) error {
	nFrames, nbSubfr, ok := packetLayout(ms)
	if !ok {
		return ErrInvalidFrameDuration
	}
	if nFrames != e.nFrames {
		// Pending copies no longer line up with the packet's frames.
		for n := range e.channels {
			e.channels[n].lbrrFlags = [maxFramesPerPacket]bool{}
		}
	}
	e.nFrames, e.nbSubfr = nFrames, nbSubfr
	for n := range e.channels {
		e.channels[n].setFrameSize(nbSubfr)
	}
	return nil
}

// SetBitrate sets the target bitrate of the whole stream in bits per second.
// The rate is clamped to 5..80 kbps per channel.
func (e *Encoder) SetBitrate(bps int) {
	e.bitrate = min(max(bps, minTargetRateBps*e.nChannels), maxTargetRateBps*e.nChannels)
}

// Bitrate returns the target bitrate after clamping.
func (e *Encoder) Bitrate() int { return e.bitrate }

// SetComplexity sets the analysis effort, 0..10.
func (e *Encoder) SetComplexity(c int) {
	e.complexity = min(max(c, 0), maxComplexity)
}

// SetPacketLoss sets the expected packet loss in percent, 0..100. Higher
// loss makes the first frame of each packet lean less on past output.
func (e *Encoder) SetPacketLoss(pct int) {
	e.packetLoss = min(max(pct, 0), 100)
}

// SetInbandFEC turns redundant coding on or off. When on, and the expected
// packet loss and the bitrate are high enough, each packet also carries a
// coarser copy of the previous packet's active frames.
func (e *Encoder) SetInbandFEC(on bool) {
	e.inbandFEC = on
}

// SetTrace installs a trace collector; nil disables tracing.
func (e *Encoder) SetTrace(t *EncoderTrace) {
	e.trace = t
}

// Channels returns the channel count.
func (e *Encoder) Channels() int { return e.nChannels }

// State returns the coder of channel n, for inspection: 0 is the mono or mid
// channel, 1 the side channel.
func (e *Encoder) State(n int) *EncoderState { return &e.channels[n] }

// FrameSamples returns the number of samples per channel in one packet.
func (e *Encoder) FrameSamples() int {
	return e.nFrames * e.nbSubfr * subFrameLengthMs * e.fsKHz
}

// Encode codes one packet of interleaved pcm, FrameSamples() samples per
// channel, and returns a newly allocated packet. act describes the packet's
// content; frames with act.SpeechQ8 below the activity threshold are coded
// as inactive.
func (e *Encoder) Encode(pcm []int16, act Activity) ([]byte, error) {
	fl := e.channels[0].frameLength
	if len(pcm) != e.nFrames*fl*e.nChannels {
		return nil, ErrInvalidFrameSize
	}
	e.enc.Init(e.buf[:])

	// VAD and LBRR flags are patched in once the frames are coded.
	nFlags := (e.nFrames + 1) * e.nChannels
	first := 256 - 256>>nFlags
	flagsICDF := [2]uint8{uint8(first), 0}
	e.enc.EncodeICDF(0, flagsICDF[:], 8)
	lbrrBits := e.writeLBRR()
	e.setupLBRR()

	vad := act.SpeechQ8 >= speechActivityDTXThresQ8
	var vadFlags [2][maxFramesPerPacket]bool
	frameBits := e.bitrate*e.nbSubfr*subFrameLengthMs/1000 - lbrrBits/e.nFrames
	if e.nChannels == 1 {
		frameBits -= nFlags / e.nFrames
	}

	for i := 0; i < e.nFrames; i++ {
		for n := 0; n < e.nChannels; n++ {
			src := pcm[i*fl*e.nChannels:]
			for k := 0; k < fl; k++ {
				e.in[n][k] = src[k*e.nChannels+n]
			}
		}

		f := channelFrame{
			act:        act,
			vad:        vad,
			complexity: e.complexity,
			packetLoss: e.packetLoss,
			nFrames:    e.nFrames,
			seed:       e.frameCounter,
			frame:      i,

			lbrr:              e.lbrrEnabled,
			lbrrGainIncreases: e.lbrrGainIncreases,
		}
		e.frameCounter++

		if e.nChannels == 1 {
			vadFlags[0][i] = vad
			f.condCoding = condCodingFor(i, 0, false)
			f.targetBits = frameBits
			f.snrDBQ7 = controlSNR(e.fsKHz, e.nbSubfr, e.bitrate)
			e.encodeChannel(0, i, e.in[0][:fl], &f, false)
			continue
		}

		ix, midOnly := e.stereo.LRToMS(e.ms[0][:fl], e.ms[1][:fl], e.in[0][:fl], e.in[1][:fl], e.fsKHz, fl)
		sideVAD := vad && !midOnly
		vadFlags[0][i] = vad
		vadFlags[1][i] = sideVAD
		e.lbrrStereoIx[i], e.lbrrMidOnly[i] = ix, midOnly
		before := e.enc.Tell()
		EncodeStereoPred(&e.enc, ix)
		if !sideVAD {
			EncodeMidOnly(&e.enc, midOnly)
		}
		bits := frameBits - (e.enc.Tell() - before) - nFlags/e.nFrames

		if !midOnly && e.prevDecodeOnlyMiddle {
			e.channels[1].restart()
		}

		midBits, sideBits := bits, 0
		if !midOnly {
			sideBits = bits * sideBitsFractionQ8 >> 8
			midBits -= sideBits
		}
		f.condCoding = condCodingFor(i, 0, e.prevDecodeOnlyMiddle)
		f.targetBits = midBits
		f.snrDBQ7 = controlSNR(e.fsKHz, e.nbSubfr, midBits*1000/(e.nbSubfr*subFrameLengthMs))
		e.encodeChannel(0, i, e.ms[0][:fl], &f, midOnly)

		if midOnly {
			e.channels[1].skip(e.ms[1][:fl])
		} else {
			f.vad = sideVAD
			f.condCoding = condCodingFor(i, 1, e.prevDecodeOnlyMiddle)
			f.targetBits = sideBits
			f.snrDBQ7 = controlSNR(e.fsKHz, e.nbSubfr, sideBits*1000/(e.nbSubfr*subFrameLengthMs))
			e.encodeChannel(1, i, e.ms[1][:fl], &f, false)
		}
		e.prevDecodeOnlyMiddle = midOnly
	}

	var flags uint32
	for n := 0; n < e.nChannels; n++ {
		for i := 0; i < e.nFrames; i++ {
			flags <<= 1
			if vadFlags[n][i] {
				flags |= 1
			}
		}
		flags <<= 1 // no LBRR
	}
	e.enc.PatchInitialBits(flags, uint(nFlags))

	out := e.enc.Done()
	if e.enc.Error() != 0 {
		return nil, ErrPacketOverflow
	}
	return append([]byte(nil), out...), nil
}

// writeLBRR writes the redundant copies of the previous packet's frames,
// clears them, and returns the bits they took.
func (e *Encoder) writeLBRR() int {
	start := e.enc.Tell()
	for n := 0; n < e.nChannels; n++ {
		c := &e.channels[n]
		sym := 0
		for i := 0; i < e.nFrames; i++ {
			if c.lbrrFlags[i] {
				sym |= 1 << i
			}
		}
		c.lbrrSent = sym != 0
		if sym != 0 && e.nFrames > 1 {
			e.enc.EncodeICDF(sym-1, silkLBRRFlagsICDF[e.nFrames-2], 8)
		}
	}
	for i := 0; i < e.nFrames; i++ {
		for n := 0; n < e.nChannels; n++ {
			c := &e.channels[n]
			if !c.lbrrFlags[i] {
				continue
			}
			if n == 0 && e.nChannels == 2 {
				EncodeStereoPred(&e.enc, e.lbrrStereoIx[i])
				if !e.channels[1].lbrrFlags[i] {
					EncodeMidOnly(&e.enc, e.lbrrMidOnly[i])
				}
			}
			cond := codeIndependently
			if i > 0 && c.lbrrFlags[i-1] {
				cond = codeConditionally
			}
			ix := &c.lbrrIndices[i]
			encodeIndices(&e.enc, &c.frameGeometry, ix, &c.history, true, cond)
			EncodePulses(&e.enc, int(ix.SignalType), int(ix.QuantOffsetType), c.lbrrPulses[i][:c.frameLength], c.frameLength)
		}
	}
	for n := range e.channels {
		e.channels[n].lbrrFlags = [maxFramesPerPacket]bool{}
	}
	return e.enc.Tell() - start
}

// setupLBRR decides whether the frames of the packet being coded get
// redundant copies, and how much coarser the copies are. Redundancy needs
// in-band FEC on, some expected loss and a channel rate above a threshold
// that falls as the loss rises.
func (e *Encoder) setupLBRR() {
	prev := e.lbrrEnabled
	e.lbrrEnabled = false
	if !e.inbandFEC || e.packetLoss == 0 {
		return
	}
	thres := lbrrMinRateBps(e.fsKHz) * (125 - min(e.packetLoss, 25))
	if int32(e.bitrate/e.nChannels) <= silkSMULWB(int32(thres), lbrrLossScaleQ16) {
		return
	}
	e.lbrrEnabled = true
	e.lbrrGainIncreases = lbrrMaxGainIncreases
	if prev {
		inc := lbrrMaxGainIncreases - silkSMULWB(int32(e.packetLoss), lbrrGainIncreaseQ16)
		e.lbrrGainIncreases = int8(max(inc, lbrrMinGainIncreases))
	}
}

func (e *Encoder) encodeChannel(n, frame int, in []int16, f *channelFrame, midOnly bool) {
	var ft *FrameTrace
	if e.trace != nil {
		e.trace.Frames = append(e.trace.Frames, FrameTrace{Channel: n, Frame: frame, MidOnly: midOnly})
		ft = &e.trace.Frames[len(e.trace.Frames)-1]
	}
	e.channels[n].encode(&e.enc, in, f, e.trace, ft)
}

// condCodingFor returns how frame i of channel n is coded: the first frame of
// a packet stands alone, a side channel restarting after mid-only frames
// stands alone without LTP scaling, and everything else is conditional.
func condCodingFor(i, n int, prevDecodeOnlyMiddle bool) int {
	switch {
	case i == 0:
		return codeIndependently
	case n == 1 && prevDecodeOnlyMiddle:
		return codeIndependentlyNoLtpScaling
	}
	return codeConditionally
}

// controlSNR maps a channel bitrate to the target SNR in dB, Q7, by
// interpolating the rate tables of the internal sample rate.
func controlSNR(fsKHz, nbSubfr, bps int) int32 {
	rate := silkLimit32(int32(bps), minTargetRateBps, maxTargetRateBps)
	if nbSubfr == 2 {
		rate -= reduceBitrate10msBps
	}
	table := &silkTargetRateWB
	switch fsKHz {
	case 8:
		table = &silkTargetRateNB
	case 12:
		table = &silkTargetRateMB
	}
	for k := 1; k < len(table); k++ {
		if rate <= table[k] {
			fracQ6 := ((rate - table[k-1]) << 6) / (table[k] - table[k-1])
			return silkSNRTableQ1[k-1]<<6 + fracQ6*(silkSNRTableQ1[k]-silkSNRTableQ1[k-1])
		}
	}
	return silkSNRTableQ1[len(silkSNRTableQ1)-1] << 6
}
