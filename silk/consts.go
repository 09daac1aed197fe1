package silk

// Frame geometry, quantizer limits and bitstream constants. Names follow
// libopus silk/define.h and silk/tuning_parameters.h.
const (
	maxNbSubfr        = 4
	subFrameLengthMs  = 5
	ltpMemLengthMs    = 20
	maxFsKHz          = 16
	maxSubFrameLength = subFrameLengthMs * maxFsKHz
	maxFrameLength    = maxSubFrameLength * maxNbSubfr
	maxLTPMemLength   = ltpMemLengthMs * maxFsKHz
	maxLPCOrder       = 16
	maxOrderLPC       = 24 // longest predictor the analysis helpers accept
	minLPCOrder       = 10
	ltpOrder          = 5
	maxShapeLPCOrder  = 24
	laShapeMaxMs      = 5
	maxShapeWinLength = (subFrameLengthMs + 2*laShapeMaxMs) * maxFsKHz

	shellCodecFrameLength     = 16
	log2ShellCodecFrameLength = 4
	nRateLevels               = 10
	silkMaxPulses             = 16
	maxFramesPerPacket        = 3

	maxLPCStabilizeIterations    = 16
	maxPredictionPowerGainInvQ30 = 107374 // SILK_FIX_CONST(1/1e4, 30)
	lpcInvPredQA                 = 24
	aLimitQ24                    = 16773022 // SILK_FIX_CONST(0.99975, 24)

	nLevelsQGain      = 64
	maxDeltaGainQuant = 36
	minDeltaGainQuant = -4
	minQGainDb        = 2
	maxQGainDb        = 88

	offsetVLQ10         = 32
	offsetVHQ10         = 100
	offsetUVLQ10        = 100
	offsetUVHQ10        = 240
	quantLevelAdjustQ10 = 80

	typeNoVoiceActivity = 0
	typeUnvoiced        = 1
	typeVoiced          = 2

	codeIndependently             = 0
	codeIndependentlyNoLtpScaling = 1
	codeConditionally             = 2

	nlsfQuantMaxAmplitude     = 4
	nlsfQuantMaxAmplitudeExt  = 10
	nlsfQuantDelDecStatesLog2 = 2
	nlsfQuantDelDecStates     = 1 << nlsfQuantDelDecStatesLog2
	nlsfQuantLevelAdjQ10      = 102 // SILK_FIX_CONST(0.1, 10)
	nlsfWQ                    = 2
	nlsfVQMaxSurvivors        = 32
	nlsfMinDistanceQ15        = 1 // smallest spacing NLSF2A accepts
	bweAfterLossQ16           = 63570
	lsfCosTabSizeFix          = 128

	// Pitch lag limits (define.h, pitch_est_defines.h).
	peMaxLagMs         = 18
	peMinLagMs         = 2
	peNbCbksStage2     = 3
	peNbCbksStage2Ext  = 11
	peNbCbksStage3Max  = 34
	peNbCbksStage310ms = 12
	peNbCbksStage210ms = 3

	// LTP quantization (tuning_parameters.h).
	maxSumLogGainQ7       = 5333  // SILK_FIX_CONST(MAX_SUM_LOG_GAIN_DB/6, 7)
	ltpGainMiddleAvgRDQ14 = 12304 // silk_LTP_gain_middle_avg_RD_Q14
	ltpGainSafetyQ7       = 51    // SILK_FIX_CONST(0.4, 7)

	// Rate control.
	maxTargetRateBps = 80000
	minTargetRateBps = 5000

	// Stereo prediction (define.h).
	stereoQuantTabSize  = 16
	stereoQuantSubSteps = 5
	stereoInterpLenMs   = 8

	// Lost-frame concealment (PLC.h).
	plcBWECoefQ16       = 64881 // SILK_FIX_CONST(0.99, 16)
	plcRandBufSize      = 128
	plcPitchDriftFacQ16 = 655

	vPitchGainStartMinQ14   = 11469 // SILK_FIX_CONST(0.7, 14)
	vPitchGainStartMaxQ14   = 15565 // SILK_FIX_CONST(0.95, 14)
	log2InvLPCGainHighThres = 3
	log2InvLPCGainLowThres  = 8

	silkInt32Max = int32(0x7fffffff)
	silkInt32Min = int32(-0x80000000)
)

// silkQuantizationOffsetsQ10 is indexed by [signalType>>1][quantOffsetType].
var silkQuantizationOffsetsQ10 = [2][2]int32{
	{offsetUVLQ10, offsetUVHQ10},
	{offsetVLQ10, offsetVHQ10},
}
