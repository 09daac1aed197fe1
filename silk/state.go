package silk

// SideInfoIndices holds the quantization indices of one frame, in the order
// they appear in the bitstream.
type SideInfoIndices struct {
	GainsIndices     [maxNbSubfr]int8
	LTPIndex         [maxNbSubfr]int8
	NLSFIndices      [maxLPCOrder + 1]int8
	LagIndex         int16
	ContourIndex     int8
	SignalType       int8
	QuantOffsetType  int8
	NLSFInterpCoefQ2 int8
	PERIndex         int8
	LTPScaleIndex    int8
	Seed             int8
}

// frameGeometry holds the rate and frame-size dependent parameters shared by
// the encoder and decoder of one channel.
type frameGeometry struct {
	fsKHz        int
	nbSubfr      int
	frameLength  int
	subfrLength  int
	ltpMemLength int
	lpcOrder     int
	nlsfCB       *nlsfCodebook
}

func newFrameGeometry(fsKHz, nbSubfr int) frameGeometry {
	g := frameGeometry{
		fsKHz:        fsKHz,
		nbSubfr:      nbSubfr,
		subfrLength:  subFrameLengthMs * fsKHz,
		ltpMemLength: ltpMemLengthMs * fsKHz,
		nlsfCB:       codebookForRate(fsKHz),
	}
	g.frameLength = g.nbSubfr * g.subfrLength
	g.lpcOrder = g.nlsfCB.order
	return g
}

// indexHistory is the entropy-coding context carried between frames: delta
// pitch lags are only allowed after a voiced frame.
type indexHistory struct {
	prevSignalType int
	prevLagIndex   int
}

// decoderControl holds the dequantized parameters of one frame.
type decoderControl struct {
	pitchL      [maxNbSubfr]int
	gainsQ16    [maxNbSubfr]int32
	predCoefQ12 [2][maxLPCOrder]int16
	ltpCoefQ14  [ltpOrder * maxNbSubfr]int16
	ltpScaleQ14 int32
}

// plcState is the concealment memory of one channel.
type plcState struct {
	pitchLQ8        int32
	ltpCoefQ14      [ltpOrder]int16
	prevLPCQ12      [maxLPCOrder]int16
	lastFrameLost   bool
	randSeed        int32
	randScaleQ14    int32
	concEnergy      int32
	concEnergyShift int
	prevLTPScaleQ14 int32
	prevGainQ16     [2]int32
	fsKHz           int
	nbSubfr         int
	subfrLength     int
}

// DecoderState is the persistent state of one decoded channel.
type DecoderState struct {
	frameGeometry

	indices SideInfoIndices
	history indexHistory

	prevGainQ16          int32
	excQ14               [maxFrameLength]int32
	sLPCQ14Buf           [maxLPCOrder]int32
	outBuf               [maxFrameLength + 2*maxSubFrameLength]int16
	lagPrev              int
	lastGainIndex        int8
	prevNLSFQ15          [maxLPCOrder]int16
	FirstFrameAfterReset bool
	LossCount            int
	prevSignalType       int

	vadFlags  [maxFramesPerPacket]bool
	lbrrFlag  bool
	lbrrFlags [maxFramesPerPacket]bool

	plcMem plcState
}

// NewDecoderState returns a channel decoder in its reset state.
func NewDecoderState(fsKHz, nbSubfr int) *DecoderState {
	s := &DecoderState{}
	s.Reset(fsKHz, nbSubfr)
	return s
}

// Reset puts the channel back into the state of a fresh stream.
func (s *DecoderState) Reset(fsKHz, nbSubfr int) {
	*s = DecoderState{frameGeometry: newFrameGeometry(fsKHz, nbSubfr)}
	s.FirstFrameAfterReset = true
	s.prevGainQ16 = 65536
	s.lagPrev = 100
	s.lastGainIndex = 10
	s.plcMem.reset(&s.frameGeometry)
}

// LBRR reports whether the last packet read carried redundant frames for
// this channel.
func (s *DecoderState) LBRR() bool {
	return s.lbrrFlag
}

// setFrameSize switches the number of subframes; the rate, and with it every
// filter memory, stays.
func (s *DecoderState) setFrameSize(nbSubfr int) {
	if s.nbSubfr == nbSubfr {
		return
	}
	s.frameGeometry = newFrameGeometry(s.fsKHz, nbSubfr)
}

// LastSignalType reports the signal type of the most recent good frame.
func (s *DecoderState) LastSignalType() int {
	return s.prevSignalType
}

// LagPrev reports the pitch lag of the last subframe decoded.
func (s *DecoderState) LagPrev() int {
	return s.lagPrev
}
