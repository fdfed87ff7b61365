package cmd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	assetscene "github.com/achilleasa/lighttracer/asset/scene"
	"github.com/achilleasa/lighttracer/renderer"
	"github.com/achilleasa/lighttracer/scene"
	"github.com/achilleasa/lighttracer/types"
)

func TestSummarizeBatch(t *testing.T) {
	require.Equal(t, batchSummary{}, summarizeBatch(nil))

	vertices := []scene.LightVertex{
		{Color: types.XYZ(1, 0.5, 0.5), PDF: 1},
		{Color: types.XYZ(0.5, 2, 0.5), PDF: 1},
		{Color: types.XYZ(1, 1, 1), PDF: 3},
		{Color: types.XYZ(0.25, 0.25, 1), PDF: 4},
	}

	// Flux weights: 1, 2, 3, 4
	summary := summarizeBatch(vertices)
	require.Equal(t, 4, summary.Count)
	require.InDelta(t, 2.5, summary.Mean, 1e-9)
	require.InDelta(t, math.Sqrt(5.0/3.0), summary.StdDev, 1e-9)
	require.InDelta(t, 2, summary.Median, 1e-9)
	require.InDelta(t, 4, summary.Max, 1e-9)
}

func TestWriteBatch(t *testing.T) {
	batch := &renderer.Batch{
		Round: 1,
		Vertices: []scene.LightVertex{
			{Position: types.XYZ(1, 2, 3), TriangleIndex: 4, BackFace: true, Color: types.XYZ(0.5, 0.5, 0.5), PDF: 2},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeBatch(&buf, batch))
	require.Equal(t, 4*assetscene.LightVertexStride, buf.Len())

	decoded := make([]float32, assetscene.LightVertexStride)
	require.NoError(t, binary.Read(&buf, binary.LittleEndian, decoded))
	require.Equal(t, []float32{1, 2, 3, -5, 0.5, 0.5, 0.5, 2}, decoded)
}

type errWriteCloser struct {
	writeErr error
	closeErr error
	closed   bool
}

func (w *errWriteCloser) Write(p []byte) (int, error) {
	if w.writeErr != nil {
		return 0, w.writeErr
	}
	return len(p), nil
}

func (w *errWriteCloser) Close() error {
	w.closed = true
	return w.closeErr
}

func TestFinishOutput(t *testing.T) {
	errDiskFull := errors.New("disk full")
	errClose := errors.New("close failed")
	errRun := errors.New("round failed")

	specs := []struct {
		sink   *errWriteCloser
		runErr error
		expErr error
	}{
		{&errWriteCloser{}, nil, nil},
		{&errWriteCloser{writeErr: errDiskFull}, nil, errDiskFull},
		{&errWriteCloser{closeErr: errClose}, nil, errClose},
		{&errWriteCloser{writeErr: errDiskFull, closeErr: errClose}, nil, errDiskFull},
		{&errWriteCloser{writeErr: errDiskFull}, errRun, errRun},
	}

	for index, spec := range specs {
		out := bufio.NewWriter(spec.sink)
		// Stays buffered until the final flush
		_, err := out.Write([]byte{1, 2, 3, 4})
		require.NoError(t, err)

		err = finishOutput(out, spec.sink, spec.runErr)
		if spec.expErr == nil {
			require.NoError(t, err, "spec %d", index)
		} else {
			require.ErrorIs(t, err, spec.expErr, "spec %d", index)
		}
		require.True(t, spec.sink.closed, "spec %d: sink not closed", index)
	}
}
