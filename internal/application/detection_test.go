package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/infrastructure/storage"
	"damage-vision/internal/infrastructure/vision"
)

type fakeAnalyzer struct {
	text   string
	err    error
	calls  int
	prompt string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, imageData []byte, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.text, f.err
}

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), "car.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func newTestService(a *fakeAnalyzer, dir string) *DetectionService {
	return NewDetectionService(a, vision.NewRenderer(), storage.NewVisualStore(dir))
}

func decodeVisual(t *testing.T, env entity.SuccessEnvelope) image.Image {
	t.Helper()
	require.NotNil(t, env.VisualOutputBase64)
	data, err := base64.StdEncoding.DecodeString(*env.VisualOutputBase64)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func sameImages(t *testing.T, path string, got image.Image) bool {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	if want.Bounds().Size() != got.Bounds().Size() {
		return false
	}
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.RGBAModel.Convert(want.At(x, y)) != color.RGBAModel.Convert(got.At(x, y)) {
				return false
			}
		}
	}
	return true
}

func TestDetect_FileNotFound(t *testing.T) {
	a := &fakeAnalyzer{}
	out := newTestService(a, t.TempDir()).Detect(context.Background(), "/no/such/car.jpg")

	require.True(t, out.Failed())
	require.Equal(t, KindFileNotFound, out.Err.Kind)
	require.Zero(t, a.calls)

	body, err := json.Marshal(out.Envelope())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	require.Contains(t, m, "error")
	require.Contains(t, m, "details")
	require.Contains(t, m, "visual_output_base64")
	require.Nil(t, m["visual_output_base64"])
}

func TestDetect_ImageDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	a := &fakeAnalyzer{text: `{}`}
	out := newTestService(a, t.TempDir()).Detect(context.Background(), path)

	require.True(t, out.Failed())
	require.Equal(t, KindImageDecode, out.Err.Kind)
	require.Zero(t, a.calls, "model must not be called for undecodable images")
}

func TestDetect_EmptyFileIsDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jpg")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	a := &fakeAnalyzer{text: `{}`}
	out := newTestService(a, t.TempDir()).Detect(context.Background(), path)

	require.True(t, out.Failed())
	require.Equal(t, KindImageDecode, out.Err.Kind)
	require.Zero(t, a.calls)
}

func TestDetect_EmptyParts(t *testing.T) {
	path := writeTestImage(t, 64, 48)
	a := &fakeAnalyzer{text: `{"brand":"Honda","model":"Civic","parts":[]}`}

	out := newTestService(a, t.TempDir()).Detect(context.Background(), path)
	require.False(t, out.Failed())
	require.Equal(t, 1, a.calls)
	require.Equal(t, DamagePrompt, a.prompt)

	env := out.Report.Envelope()
	require.Equal(t, 0, env.NumDetections)
	require.Empty(t, env.Parts)
	require.NotNil(t, env.Parts)
	require.Equal(t, "Honda", env.Brand)
	require.Equal(t, "Civic", env.Model)
}

func TestDetect_FencedEqualsUnfenced(t *testing.T) {
	path := writeTestImage(t, 100, 80)
	payload := `{"brand":"Ford","model":"Focus","parts":[{"label":"door","damage_type":"Dent","box_2d":[100,100,500,500],"conf":0.8}]}`

	plain := newTestService(&fakeAnalyzer{text: payload}, t.TempDir()).Detect(context.Background(), path)
	fenced := newTestService(&fakeAnalyzer{text: "```json\n" + payload + "\n```"}, t.TempDir()).Detect(context.Background(), path)

	require.False(t, plain.Failed())
	require.False(t, fenced.Failed())

	a, err := json.Marshal(plain.Envelope())
	require.NoError(t, err)
	b, err := json.Marshal(fenced.Envelope())
	require.NoError(t, err)
	require.JSONEq(t, string(a), string(b))
}

func TestDetect_ResponseParseError(t *testing.T) {
	path := writeTestImage(t, 10, 10)
	for _, text := range []string{"sorry, I can't help", "```json\n{broken\n```", `[1,2,3]`, `{"parts": "none"}`, `{"parts": ["scratch", 5]}`, `{"parts": [{"label":"door"}, null]}`} {
		out := newTestService(&fakeAnalyzer{text: text}, t.TempDir()).Detect(context.Background(), path)
		require.True(t, out.Failed(), text)
		require.Equal(t, KindResponseParse, out.Err.Kind, text)
	}
}

func TestDetect_AnalyzerErrorIsUnclassified(t *testing.T) {
	path := writeTestImage(t, 10, 10)
	a := &fakeAnalyzer{err: errors.New("403 permission denied")}

	out := newTestService(a, t.TempDir()).Detect(context.Background(), path)
	require.True(t, out.Failed())
	require.Equal(t, KindUnclassified, out.Err.Kind)

	env, ok := out.Envelope().(entity.ErrorEnvelope)
	require.True(t, ok)
	require.Equal(t, "403 permission denied", env.Error)
	require.Contains(t, env.Details, "Unclassified: 403 permission denied")
	require.Nil(t, env.VisualOutputBase64)
}

func TestDetect_MissingBrandAndModel(t *testing.T) {
	path := writeTestImage(t, 20, 20)
	a := &fakeAnalyzer{text: `{"parts":[{"label":"hood","damage_type":"Scratch","box_2d":[0,0,500,500],"conf":0.7}]}`}

	out := newTestService(a, t.TempDir()).Detect(context.Background(), path)
	require.False(t, out.Failed())

	body, err := json.Marshal(out.Envelope())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	require.Equal(t, "Unknown", m["brand"])
	require.Equal(t, "Unknown", m["model"])

	raw := m["raw_details"].(map[string]any)
	require.NotContains(t, raw, "brand")
	require.NotContains(t, raw, "model")
	require.Len(t, raw["parts"], 1)
}

func TestDetect_MissingPartsKey(t *testing.T) {
	path := writeTestImage(t, 20, 20)
	out := newTestService(&fakeAnalyzer{text: `{"brand":"Kia"}`}, t.TempDir()).Detect(context.Background(), path)
	require.False(t, out.Failed())

	env := out.Report.Envelope()
	require.Equal(t, 0, env.NumDetections)
	require.NotNil(t, env.Parts)
	require.NotContains(t, env.RawDetails, "parts")
}

func TestDetect_MalformedBoxIsKeptButNotDrawn(t *testing.T) {
	path := writeTestImage(t, 60, 40)
	a := &fakeAnalyzer{text: `{"brand":"VW","model":"Golf","parts":[
		{"label":"bumper","damage_type":"Cracked","box_2d":[10,20,30],"conf":0.6},
		{"label":"Roof","damage_type":"Dent","conf":0.5}
	]}`}

	out := newTestService(a, t.TempDir()).Detect(context.Background(), path)
	require.False(t, out.Failed())

	env := out.Report.Envelope()
	require.Equal(t, 2, env.NumDetections)
	require.Len(t, env.Parts, 2)
	require.True(t, sameImages(t, path, decodeVisual(t, env)), "image must stay pixel-identical")
}

func TestDetect_DrawsValidBox(t *testing.T) {
	path := writeTestImage(t, 60, 40)
	a := &fakeAnalyzer{text: `{"parts":[{"label":"door","damage_type":"Dent","box_2d":[500,500,1000,1000],"conf":0.9}]}`}

	out := newTestService(a, t.TempDir()).Detect(context.Background(), path)
	require.False(t, out.Failed())

	img := decodeVisual(t, out.Report.Envelope())
	require.False(t, sameImages(t, path, img))
	// левый верхний угол рамки: (w/2, h/2)
	require.Equal(t, color.RGBA{R: 255, A: 255}, color.RGBAModel.Convert(img.At(30, 20)))
}

func TestDetect_VisualRoundTripKeepsSize(t *testing.T) {
	path := writeTestImage(t, 123, 45)
	a := &fakeAnalyzer{text: `{"brand":"Mazda","model":"3","parts":[{"label":"wheel","damage_type":"Scratch","box_2d":[0,0,1000,1000],"conf":0.4}]}`}

	out := newTestService(a, t.TempDir()).Detect(context.Background(), path)
	require.False(t, out.Failed())
	require.Equal(t, 123, out.Report.Width)
	require.Equal(t, 45, out.Report.Height)

	img := decodeVisual(t, out.Report.Envelope())
	require.Equal(t, image.Pt(123, 45), img.Bounds().Size())
}

func TestDetect_EncodeFailureDegradesToNull(t *testing.T) {
	path := writeTestImage(t, 10, 10)
	a := &fakeAnalyzer{text: `{"brand":"Audi","model":"A4","parts":[]}`}
	missingDir := filepath.Join(t.TempDir(), "gone")

	out := newTestService(a, missingDir).Detect(context.Background(), path)
	require.False(t, out.Failed())

	env := out.Report.Envelope()
	require.Nil(t, env.VisualOutputBase64)
	require.Equal(t, "Audi", env.Brand)
}

func TestDetect_NoTempFilesLeft(t *testing.T) {
	path := writeTestImage(t, 10, 10)
	dir := t.TempDir()
	out := newTestService(&fakeAnalyzer{text: `{"parts":[]}`}, dir).Detect(context.Background(), path)
	require.False(t, out.Failed())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(ctx context.Context, imageData []byte, prompt string) (string, error) {
	panic("boom")
}

func TestDetectImage_RecoversPanic(t *testing.T) {
	path := writeTestImage(t, 10, 10)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	svc := NewDetectionService(panicAnalyzer{}, vision.NewRenderer(), storage.NewVisualStore(t.TempDir()))
	out := svc.DetectImage(context.Background(), data)
	require.True(t, out.Failed())
	require.Equal(t, KindUnclassified, out.Err.Kind)
	require.Contains(t, out.Err.Error(), "boom")
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindUnclassified, KindOf(errors.New("x")))
	wrapped := errors.Join(errors.New("ctx"), newError(KindEncodeIO, errors.New("disk full")))
	require.Equal(t, KindEncodeIO, KindOf(wrapped))
}
