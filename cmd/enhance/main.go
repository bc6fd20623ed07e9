// Enhance - run the meter-photo pipeline on a single image file
//
// Useful for tuning profiles offline: reads an image, applies the same
// enhancement the capture service runs on trigger, writes the JPEG.
package main

import (
	"flag"
	"fmt"
	"os"

	"gocv.io/x/gocv"

	"github.com/metersnap/metersnap/pkg/debug"
	"github.com/metersnap/metersnap/pkg/enhance"
)

func main() {
	profile := flag.String("profile", "balanced", "enhancement profile: compact, balanced, detail")
	out := flag.String("out", "enhanced.jpg", "output JPEG path")
	pipeLog := flag.Bool("debug-pipeline", false, "print per-stage pipeline logs")
	flag.Parse()
	debug.Pipeline = *pipeLog

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: enhance [-profile name] [-out file] <image>")
		os.Exit(1)
	}

	cfg := enhance.GetProfile(*profile)
	if cfg == nil {
		fmt.Fprintf(os.Stderr, "Unknown profile %q (have: compact, balanced, detail)\n", *profile)
		os.Exit(1)
	}

	enhancer, err := enhance.New(*cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mat := gocv.IMRead(flag.Arg(0), gocv.IMReadColor)
	defer mat.Close()

	frame, err := enhance.FrameFromMat(&mat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	result, err := enhancer.Enhance(frame)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: enhance: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, result.Data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: write %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("%s: %dx%d -> %s: %dx%d (%d KB)\n",
		flag.Arg(0), frame.Width, frame.Height,
		*out, result.Width, result.Height, len(result.Data)/1024)
}
