package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cjy7811/rm-vision/pipeline"
	"github.com/cjy7811/rm-vision/replay"
)

func TestUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 2, runMain(nil, &stdout, &stderr))
	require.Contains(t, stderr.String(), "usage: rmlink")

	stderr.Reset()
	require.Equal(t, 2, runMain([]string{"bogus"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), `unknown command "bogus"`)
}

func TestRunRequiresInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, runMain([]string{"run"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "-input is required")
}

func TestGenRunInspect(t *testing.T) {
	for _, tc := range []struct {
		name     string
		config   string
		strategy string
		live     bool
	}{
		{name: "pair replay", config: `{}`, strategy: "pair"},
		{name: "packed live", config: `{"levels": 4, "strategy": "packed"}`, strategy: "packed", live: true},
		{name: "huffman replay", config: `{"levels": 4, "strategy": "packed+huffman", "record_compression": "huffman"}`, strategy: "packed+huffman"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			cfgPath := filepath.Join(dir, "link.json")
			require.NoError(t, os.WriteFile(cfgPath, []byte(tc.config), 0o644))
			input := filepath.Join(dir, "frames.cbor")
			logPath := filepath.Join(dir, "out.pklog")

			var stdout, stderr bytes.Buffer
			require.Equal(t, 0, runMain([]string{"gen", "-config", cfgPath, "-out", input, "-frames", "12"}, &stdout, &stderr), stderr.String())

			args := []string{"run", "-config", cfgPath, "-input", input, "-record", logPath}
			if tc.live {
				args = append(args, "-live")
			}
			require.Equal(t, 0, runMain(args, &stdout, &stderr), stderr.String())

			var snap pipeline.Snapshot
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &snap))
			require.Equal(t, uint64(12), snap.Frames)
			require.Equal(t, uint64(12), snap.Sent)

			stdout.Reset()
			require.Equal(t, 0, runMain([]string{"inspect", "-log", logPath, "-strategy", tc.strategy}, &stdout, &stderr), stderr.String())
			out := stdout.String()
			require.Contains(t, out, "12 packets")
			require.Contains(t, out, "packet 0 seq=0")
			require.Contains(t, out, "packet 11 seq=11")
			require.Equal(t, 12, strings.Count(out, "detections=[{"))
		})
	}
}

func TestSyntheticRecord(t *testing.T) {
	rec := syntheticRecord(0, 120, 80, 2)
	require.Len(t, rec.Gray, 120*80)
	require.Len(t, rec.Circles, 1)
	require.InDelta(t, 480.0, rec.Circles[0].X, 1e-9)
	require.InDelta(t, 240.0, rec.Circles[0].Y, 1e-9)

	res, err := replay.PassThrough().Detect(rec)
	require.NoError(t, err)
	require.Equal(t, uint8(1), res.Raster.At(90, 40))
	require.Equal(t, uint8(0), res.Raster.At(0, 0))
}
