package silk

// FrameTrace records the decisions behind one coded channel frame.
type FrameTrace struct {
	Channel    int
	Frame      int // index within the packet
	Lost       bool
	LBRR       bool // decoded from a redundant copy
	MidOnly    bool
	CondCoding int
	Indices    SideInfoIndices
	GainsQ16   []int32
	PitchL     []int
}

// DecoderTrace collects per-frame information while decoding.
// When non-nil, the decoder appends one entry per channel frame.
type DecoderTrace struct {
	Frames []FrameTrace
}

// EncoderTrace captures intermediate encoder values for debugging.
// When non-nil, the encoder populates it while encoding; the sub-traces
// describe the most recent frame.
type EncoderTrace struct {
	Frames []FrameTrace
	Pitch  *PitchTrace
	NLSF   *NLSFTrace
	LTP    *LTPTrace
	Gains  *GainLoopTrace
}

// PitchTrace captures the pitch search of a frame.
type PitchTrace struct {
	PitchLags  []int
	LagIndex   int
	Contour    int
	CorrQ15    int32
	Voiced     bool
	SpeechQ8   int
	SignalType int
}

// NLSFTrace captures NLSF analysis and quantization.
type NLSFTrace struct {
	RawNLSFQ15       []int16
	QuantizedNLSFQ15 []int16
	Stage1Idx        int
	Residuals        []int
	InterpIdx        int
	Fallbacks        int // filters that needed the stability fallback
}

// LTPTrace captures LTP analysis and quantization.
type LTPTrace struct {
	PitchLags     []int
	PERIndex      int
	LTPIndex      []int8
	BQ14          []int16
	PredGainQ7    int32
	SumLogGainQ7  int32
	LTPScaleIndex int
}

// GainLoopTrace captures the rate control loop of a frame.
type GainLoopTrace struct {
	Iterations  int
	TargetBits  int
	UsedBits    []int
	GainsIndex  []int8
	FoundLower  bool
	FoundHigher bool
}
