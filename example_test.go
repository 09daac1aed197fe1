package gosilk_test

import (
	"fmt"
	"log"
	"math"

	"github.com/thesyncim/gosilk"
)

func ExampleNewEncoder() {
	// Create an encoder for 16kHz mono speech
	enc, err := gosilk.NewEncoder(16000, 1)
	if err != nil {
		log.Fatal(err)
	}

	// Configure encoder settings
	if err := enc.SetBitrate(24000); err != nil {
		log.Fatal(err)
	}
	if err := enc.SetComplexity(10); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Encoder: %dHz, %d channels, %d samples per packet\n", enc.SampleRate(), enc.Channels(), enc.FrameSize())
	// Output: Encoder: 16000Hz, 1 channels, 320 samples per packet
}

func ExampleNewDecoder() {
	// Create a decoder for 8kHz stereo with 40ms packets
	dec, err := gosilk.NewDecoder(8000, 2)
	if err != nil {
		log.Fatal(err)
	}
	if err := dec.SetFrameDuration(40); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Decoder: %dHz, %d channels, %d samples per packet\n", dec.SampleRate(), dec.Channels(), dec.FrameSize())
	// Output: Decoder: 8000Hz, 2 channels, 320 samples per packet
}

func ExampleEncoder_EncodeFrame() {
	enc, err := gosilk.NewEncoder(16000, 1)
	if err != nil {
		log.Fatal(err)
	}

	// 20ms of a 220 Hz tone (320 samples)
	pcm := make([]int16, enc.FrameSize())
	for i := range pcm {
		pcm[i] = int16(8000 * math.Sin(2*math.Pi*220*float64(i)/16000))
	}

	packet, err := enc.EncodeFrame(pcm)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Encoded %d samples, packet fits: %v\n", len(pcm), len(packet) <= gosilk.MaxPacketBytes)
	// Output: Encoded 320 samples, packet fits: true
}

func ExampleDecoder_DecodeFrame() {
	enc, _ := gosilk.NewEncoder(12000, 1)
	dec, _ := gosilk.NewDecoder(12000, 1)

	packet, err := enc.EncodeFrame(make([]int16, enc.FrameSize()))
	if err != nil {
		log.Fatal(err)
	}

	pcm, err := dec.DecodeFrame(packet)
	if err != nil {
		log.Fatal(err)
	}

	// A nil packet conceals a lost one
	concealed, err := dec.DecodeFrame(nil)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Decoded %d samples, concealed %d samples\n", len(pcm), len(concealed))
	// Output: Decoded 240 samples, concealed 240 samples
}

func ExampleEncoder_SetAnalyzer() {
	enc, _ := gosilk.NewEncoder(16000, 1)

	// Mark every packet as active speech
	enc.SetAnalyzer(alwaysSpeech{})

	packet, err := enc.EncodeFrame(make([]int16, enc.FrameSize()))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(packet) > 0)
	// Output: true
}

type alwaysSpeech struct{}

func (alwaysSpeech) Analyze(pcm []int16) gosilk.Analysis {
	return gosilk.Analysis{SpeechActivityQ8: 255, BandwidthHz: 8000}
}
