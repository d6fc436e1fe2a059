// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/num/quat"
)

// ErrMalformed is wrapped by every decode failure.
var ErrMalformed = errors.New("malformed record")

// maxLineSize bounds a single telemetry line.
const maxLineSize = 64 * 1024

// wireSample mirrors one line as produced by the device firmware:
//
//	{"dt": 10, "accel": [x,y,z], "gyro": [x,y,z], "mag": [x,y,z], "state": [[w,x,y,z,_,_,_]]}
//
// Pointers and slices let us tell a missing field apart from a zero one.
type wireSample struct {
	DT    *float64    `json:"dt"`
	Accel []float64   `json:"accel"`
	Gyro  []float64   `json:"gyro"`
	Mag   []float64   `json:"mag"`
	State [][]float64 `json:"state"`
}

// Decode parses one telemetry line into a Sample.
func Decode(line []byte) (Sample, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Sample{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()

	var w wireSample
	if err := dec.Decode(&w); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Sample{}, fmt.Errorf("%w: trailing data after record", ErrMalformed)
	}

	if w.DT == nil {
		return Sample{}, fmt.Errorf("%w: missing dt", ErrMalformed)
	}
	if *w.DT < 0 {
		return Sample{}, fmt.Errorf("%w: negative dt %g", ErrMalformed, *w.DT)
	}

	accel, err := vec3("accel", w.Accel)
	if err != nil {
		return Sample{}, err
	}
	gyro, err := vec3("gyro", w.Gyro)
	if err != nil {
		return Sample{}, err
	}
	mag, err := vec3("mag", w.Mag)
	if err != nil {
		return Sample{}, err
	}

	if len(w.State) != 1 || len(w.State[0]) != 7 {
		return Sample{}, fmt.Errorf("%w: state must be [[7 numbers]]", ErrMalformed)
	}
	s := w.State[0]
	ref := quat.Number{Real: s[0], Imag: s[1], Jmag: s[2], Kmag: s[3]}
	if quat.Abs(ref) == 0 {
		return Sample{}, fmt.Errorf("%w: zero reference orientation", ErrMalformed)
	}

	return Sample{
		DT:        *w.DT,
		Accel:     accel,
		Gyro:      gyro,
		Mag:       mag,
		Reference: ref,
	}, nil
}

func vec3(name string, v []float64) (Vec3, error) {
	if len(v) != 3 {
		return Vec3{}, fmt.Errorf("%w: %s must have 3 components, got %d", ErrMalformed, name, len(v))
	}
	return Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// ReadAll decodes every line of r in order. Lines that fail to decode, or
// that run past maxLineSize, are skipped and counted in dropped; only an
// error reading r is returned.
func ReadAll(r io.Reader) (samples []Sample, dropped int, err error) {
	br := bufio.NewReaderSize(r, maxLineSize)

	for {
		line, err := br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			dropped++
			for err == bufio.ErrBufferFull {
				_, err = br.ReadSlice('\n')
			}
			line = nil
		}

		if len(bytes.TrimSpace(line)) > 0 {
			if s, decErr := Decode(line); decErr != nil {
				dropped++
			} else {
				samples = append(samples, s)
			}
		}

		switch {
		case err == io.EOF:
			return samples, dropped, nil
		case err != nil:
			return samples, dropped, fmt.Errorf("error reading records: %w", err)
		}
	}
}

// Load reads a newline-delimited record log from path.
func Load(path string) ([]Sample, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open record log: %w", err)
	}
	defer f.Close()

	return ReadAll(f)
}
