package pixeltobin

import "image/color"

// Countdown colors shown for one second each at the start of a loop.
var countdownColors = []color.RGBA{
	{R: 255, A: 255},         // red
	{R: 255, G: 255, A: 255}, // yellow
	{G: 255, A: 255},         // green
	{A: 255},                 // black
}

// BuildSequence expands a loaded sequence into its encoded form. For
// pixel domains the frame list is repeated cfg.Loop times, each pass
// optionally prefixed by countdown frames and followed by loopDelay worth
// of black frames (omitted after the final pass). Loop values <= 0 mean a
// single pass; looping is then the player's concern, not the artifact's.
// Text sequences pass through unchanged.
func BuildSequence(cfg *SampleConfig, seq *Sequence) *Sequence {
	if len(seq.Pixel) == 0 {
		return seq
	}

	loops := cfg.Loop
	if loops <= 0 {
		loops = 1
	}

	delayFrames := cfg.LoopDelay * cfg.FPS / 1000

	out := &Sequence{FPS: seq.FPS}
	for loop := 0; loop < loops; loop++ {
		if cfg.CountDown {
			out.Pixel = append(out.Pixel, countdownFrames(cfg.Width, cfg.Height, cfg.FPS)...)
		}
		out.Pixel = append(out.Pixel, seq.Pixel...)
		if loop < loops-1 && delayFrames > 0 {
			black := SolidGrid(cfg.Width, cfg.Height, color.RGBA{A: 255})
			for i := 0; i < delayFrames; i++ {
				out.Pixel = append(out.Pixel, black)
			}
		}
	}
	return out
}

// countdownFrames returns one second of each countdown color.
func countdownFrames(width, height, fps int) []*PixelGrid {
	frames := make([]*PixelGrid, 0, len(countdownColors)*fps)
	for _, c := range countdownColors {
		frame := SolidGrid(width, height, c)
		for i := 0; i < fps; i++ {
			frames = append(frames, frame)
		}
	}
	return frames
}
