package classifier

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

const birdnetCSV = `Start (s),End (s),Scientific name,Common name,Confidence,File
0.0,3.0,Erithacus rubecula,European Robin,0.9100,rec.wav
3.0,6.0,Turdus merula,Eurasian Blackbird,0.3000,rec.wav
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeSilentWAV writes a one-second mono 16-bit recording.
func writeSilentWAV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, 8000),
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func request(path string) domain.AnalyzeRequest {
	return domain.AnalyzeRequest{
		Path:          path,
		Lat:           50.9481,
		Lon:           -3.2503,
		Date:          time.Date(2026, 1, 21, 0, 0, 0, 0, time.UTC),
		MinConfidence: 0.5,
	}
}

func TestParseCSV(t *testing.T) {
	dets, err := ParseCSV(strings.NewReader(birdnetCSV))

	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, domain.Detection{
		CommonName:     "European Robin",
		ScientificName: "Erithacus rubecula",
		Label:          "Erithacus rubecula_European Robin",
		Confidence:     0.91,
		StartTime:      0,
		EndTime:        3,
	}, dets[0])
}

func TestParseCSV_LabelOnly(t *testing.T) {
	dets, err := ParseCSV(strings.NewReader("label,confidence,start_time,end_time\nParus major_Great Tit,0.7,6,9\n"))

	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "Parus major", dets[0].ScientificName)
	assert.Equal(t, "Great Tit", dets[0].CommonName)
	assert.Equal(t, 6.0, dets[0].StartTime)
}

func TestParseCSV_EmptyAndBad(t *testing.T) {
	dets, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, dets)

	_, err = ParseCSV(strings.NewReader("foo,bar\n1,2\n"))
	require.ErrorIs(t, err, errNoHeader)

	_, err = ParseCSV(strings.NewReader("Scientific name,Confidence\nErithacus rubecula,high\n"))
	require.Error(t, err)
}

func TestFilterConfidence(t *testing.T) {
	dets := []domain.Detection{{Label: "a", Confidence: 0.49}, {Label: "b", Confidence: 0.5}, {Label: "c", Confidence: 0.9}}
	got := FilterConfidence(dets, 0.5)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Label)
}

func TestWeek48(t *testing.T) {
	assert.Equal(t, 1, Week48(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, Week48(time.Date(2026, 1, 21, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, Week48(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 48, Week48(time.Date(2026, 12, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, Week48(time.Time{}))
}

func TestExpandArgs(t *testing.T) {
	got := ExpandArgs(
		[]string{"{input}", "-o", "{output}", "--lat={lat}", "--lon", "{lon}", "--week", "{week}", "--date", "{date}", "--min_conf", "{min_conf}"},
		request("/data/rec.wav"), "/tmp/out")

	assert.Equal(t, []string{
		"/data/rec.wav", "-o", "/tmp/out", "--lat=50.9481", "--lon", "-3.2503",
		"--week", "3", "--date", "2026-01-21", "--min_conf", "0.5",
	}, got)
}

func TestValidateWAV(t *testing.T) {
	dir := t.TempDir()
	good := writeSilentWAV(t, dir, "S4A00001_20260121_060000.wav")
	require.NoError(t, ValidateWAV(good))

	bad := filepath.Join(dir, "S4A00001_20260121_070000.wav")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not audio"), 0o644))
	require.ErrorIs(t, ValidateWAV(bad), domain.ErrUnsupportedAudio)

	mp3 := filepath.Join(dir, "S4A00001_20260121_080000.mp3")
	require.NoError(t, os.WriteFile(mp3, []byte("ID3"), 0o644))
	require.ErrorIs(t, ValidateWAV(mp3), domain.ErrUnsupportedAudio)
}

func TestAnalyze_Stdout(t *testing.T) {
	path := writeSilentWAV(t, t.TempDir(), "S4A00001_20260121_060000.wav")
	c := NewCommand("sh", []string{"-c", "printf '%s' \"$0\"", birdnetCSV}, time.Minute, testLogger())

	dets, err := c.Analyze(context.Background(), request(path))

	require.NoError(t, err)
	require.Len(t, dets, 1, "detections under the floor are dropped")
	assert.Equal(t, "European Robin", dets[0].CommonName)
}

func TestAnalyze_OutputDirectory(t *testing.T) {
	path := writeSilentWAV(t, t.TempDir(), "S4A00001_20260121_060000.wav")
	c := NewCommand("sh", []string{"-c", "printf '%s' \"$0\" > \"$1/result.BirdNET.results.csv\"", birdnetCSV, "{output}"}, time.Minute, testLogger())

	dets, err := c.Analyze(context.Background(), request(path))

	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "Erithacus rubecula_European Robin", dets[0].Label)
}

func TestAnalyze_CommandFails(t *testing.T) {
	path := writeSilentWAV(t, t.TempDir(), "S4A00001_20260121_060000.wav")
	c := NewCommand("sh", []string{"-c", "echo boom >&2; exit 3"}, time.Minute, testLogger())

	_, err := c.Analyze(context.Background(), request(path))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAnalyze_Timeout(t *testing.T) {
	path := writeSilentWAV(t, t.TempDir(), "S4A00001_20260121_060000.wav")
	c := NewCommand("sleep", []string{"5"}, 50*time.Millisecond, testLogger())

	_, err := c.Analyze(context.Background(), request(path))

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyze_CorruptAudioNeverRunsCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "S4A00001_20260121_060000.wav")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	marker := filepath.Join(dir, "ran")
	c := NewCommand("touch", []string{marker}, time.Minute, testLogger())

	_, err := c.Analyze(context.Background(), request(path))

	require.ErrorIs(t, err, domain.ErrUnsupportedAudio)
	assert.NoFileExists(t, marker)
}
