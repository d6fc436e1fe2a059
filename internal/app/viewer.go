// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/inertial_replay/internal/source"
)

// RunViewer polls src every interval and prints each frame to out until ctx
// is done.
func RunViewer(ctx context.Context, src source.Source, interval time.Duration, out io.Writer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			f := Poll(src, t)
			if _, err := fmt.Fprintf(out,
				"%-24s EST R=%7.2f P=%7.2f Y=%7.2f | REF R=%7.2f P=%7.2f Y=%7.2f | acc=(%.2f %.2f %.2f) tilt R=%7.2f P=%7.2f mag=(%.2f %.2f %.2f)\n",
				f.Label,
				f.Estimate.Pose.Roll, f.Estimate.Pose.Pitch, f.Estimate.Pose.Yaw,
				f.Reference.Pose.Roll, f.Reference.Pose.Pitch, f.Reference.Pose.Yaw,
				f.Arrows.Accel.X, f.Arrows.Accel.Y, f.Arrows.Accel.Z,
				f.Arrows.Tilt.Roll, f.Arrows.Tilt.Pitch,
				f.Arrows.Mag.X, f.Arrows.Mag.Y, f.Arrows.Mag.Z,
			); err != nil {
				return err
			}
		}
	}
}
