package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
)

const validLine = `{"dt": 10, "accel": [0.1, 0.2, 9.8], "gyro": [1, 2, 3], "mag": [20, -5, 40], "state": [[1, 0, 0, 0, 0, 0, 0]]}`

func TestDecode_Valid(t *testing.T) {
	s, err := Decode([]byte(validLine))
	require.NoError(t, err)

	assert.Equal(t, 10.0, s.DT)
	assert.Equal(t, Vec3{X: 0.1, Y: 0.2, Z: 9.8}, s.Accel)
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 3}, s.Gyro)
	assert.Equal(t, Vec3{X: 20, Y: -5, Z: 40}, s.Mag)
	assert.Equal(t, quat.Number{Real: 1}, s.Reference)
}

func TestDecode_ReferenceIsScalarFirst(t *testing.T) {
	s, err := Decode([]byte(`{"dt":1,"accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[0.5,0.1,0.2,0.3,9,9,9]]}`))
	require.NoError(t, err)
	assert.Equal(t, quat.Number{Real: 0.5, Imag: 0.1, Jmag: 0.2, Kmag: 0.3}, s.Reference)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"not json", "hello world"},
		{"truncated", `{"dt": 10, "accel": [0,0`},
		{"missing dt", `{"accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[1,0,0,0,0,0,0]]}`},
		{"missing gyro", `{"dt":1,"accel":[0,0,0],"mag":[0,0,0],"state":[[1,0,0,0,0,0,0]]}`},
		{"unknown field", `{"dt":1,"temp":3,"accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[1,0,0,0,0,0,0]]}`},
		{"short accel", `{"dt":1,"accel":[0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[1,0,0,0,0,0,0]]}`},
		{"long mag", `{"dt":1,"accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0,0],"state":[[1,0,0,0,0,0,0]]}`},
		{"short state", `{"dt":1,"accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[1,0,0,0]]}`},
		{"two states", `{"dt":1,"accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[1,0,0,0,0,0,0],[1,0,0,0,0,0,0]]}`},
		{"zero reference", `{"dt":1,"accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[0,0,0,0,1,1,1]]}`},
		{"negative dt", `{"dt":-1,"accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[1,0,0,0,0,0,0]]}`},
		{"string number", `{"dt":"1","accel":[0,0,0],"gyro":[0,0,0],"mag":[0,0,0],"state":[[1,0,0,0,0,0,0]]}`},
		{"trailing garbage", validLine + ` }`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.line))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func line(dt string) string {
	return `{"dt": ` + dt + `, "accel": [0,0,0], "gyro": [0,0,0], "mag": [0,0,0], "state": [[1,0,0,0,0,0,0]]}`
}

func TestReadAll_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		line("1"),
		"garbage",
		line("2"),
		"",
		`{"dt": 3}`,
		line("3"),
		`{"dt": 4, "accel": [0,0,0], "gyro": [0,0,0], "mag": [0,0,0], "state": [[0,0,0,0,0,0,0]]}`,
	}, "\n")

	samples, dropped, err := ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, dropped)

	got := make([]float64, 0, len(samples))
	for _, s := range samples {
		got = append(got, s.DT)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, got); diff != "" {
		t.Errorf("decoded dt sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestReadAll_CRLF(t *testing.T) {
	samples, dropped, err := ReadAll(strings.NewReader(validLine + "\r\n" + validLine + "\r\n"))
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Len(t, samples, 2)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilt.txt")
	require.NoError(t, os.WriteFile(path, []byte(validLine+"\nnope\n"+validLine+"\n"), 0o644))

	samples, dropped, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
	assert.Equal(t, 1, dropped)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadAll_OverlongLineIsDropped(t *testing.T) {
	junk := strings.Repeat("x", 70*1024)
	input := validLine + "\n" + junk + "\n" + validLine + "\n"

	samples, dropped, err := ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, samples, 2)
	assert.Equal(t, 1, dropped)
}

func TestReadAll_OverlongLastLine(t *testing.T) {
	input := validLine + "\n" + strings.Repeat("{", maxLineSize+1)

	samples, dropped, err := ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, samples, 1)
	assert.Equal(t, 1, dropped)
}

func TestReadAll_NoTrailingNewline(t *testing.T) {
	samples, dropped, err := ReadAll(strings.NewReader(validLine + "\n" + validLine))
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Len(t, samples, 2)
}
