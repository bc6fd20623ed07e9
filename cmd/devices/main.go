// Devices - list the video devices the capture service can see
//
// Prints the catalog with labels and group IDs, and marks which device
// the rear-lens heuristic would pick by default.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/metersnap/metersnap/pkg/device"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	catalog := device.NewV4L2Catalog()
	devices, err := catalog.ListVideoDevices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("No video devices found")
		return
	}

	chosen := device.SelectDefault(devices)

	for _, d := range devices {
		marker := "  "
		if chosen != nil && d.ID == chosen.ID {
			marker = "* "
		}
		label := d.Label
		if label == "" {
			label = "(no label)"
		}
		fmt.Printf("%s%-16s %-40s group=%s\n", marker, d.ID, label, d.GroupID)
	}

	if chosen != nil {
		fmt.Printf("\nDefault: %s\n", chosen.ID)
		if counterpart := device.SelectCounterpart(devices, chosen.ID); counterpart != nil {
			fmt.Printf("Flip target: %s\n", counterpart.ID)
		}
	}
}
