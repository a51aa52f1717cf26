package preview

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_FitsWithinBounds(t *testing.T) {
	dir := t.TempDir()
	g, err := New(Config{Dir: dir, MaxWidth: 64, MaxHeight: 64, Quality: 90})
	require.NoError(t, err)

	var src bytes.Buffer
	require.NoError(t, imaging.Encode(&src, imaging.New(400, 200, color.White), imaging.JPEG))

	name, err := g.Generate(&src, "trip/day1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, Name("trip/day1/a.jpg"), name)

	out, err := imaging.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, 64, out.Bounds().Dx())
	assert.Equal(t, 32, out.Bounds().Dy())
}

func TestGenerate_RejectsNonImage(t *testing.T) {
	g, err := New(Config{Dir: t.TempDir(), MaxWidth: 10, MaxHeight: 10})
	require.NoError(t, err)

	_, err = g.Generate(bytes.NewReader([]byte("nope")), "x.jpg")
	assert.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{MaxWidth: 10, MaxHeight: 10})
	assert.Error(t, err)

	_, err = New(Config{Dir: t.TempDir(), MaxWidth: 0, MaxHeight: 10})
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	a := Name("trip/day1/a.jpg")
	assert.Regexp(t, `^a-[0-9a-f]{8}\.jpg$`, a)
	assert.Equal(t, a, Name("trip/day1/a.jpg"))

	// Flattening the directory must not merge distinct photos
	assert.NotEqual(t, Name("a/b.jpg"), Name("a_b.jpg"))
	assert.NotEqual(t, Name("2019/img.jpg"), Name("2020/img.jpg"))

	assert.Regexp(t, `^img-[0-9a-f]{8}\.jpg$`, Name(`C:\photos\img.JPG`))
}
