package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/club_companion/internal/domain"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeDecodeImage(t *testing.T) {
	raw := pngBytes(t)

	uri, err := Encode(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.True(t, IsDataURI(uri))

	data, ext, err := Decode(uri)
	require.NoError(t, err)
	assert.Equal(t, "png", ext)
	assert.Equal(t, raw, data)
}

func TestEncodeRejectsNonImage(t *testing.T) {
	_, err := Encode([]byte("just some text, not a picture"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, _, err := Decode("/uploads/student_profile_pictures/1.png")
	assert.ErrorIs(t, err, ErrDataURI)

	_, _, err = Decode("data:image/png,plain")
	assert.ErrorIs(t, err, ErrDataURI)

	_, _, err = Decode("data:image/png;base64,aGVsbG8gd29ybGQ=")
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	uri, err := Encode(pngBytes(t))
	require.NoError(t, err)

	url, err := store.Save(context.Background(), domain.Actor{ID: 7, Role: domain.RoleClub}, uri)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/club_profile_pictures/7_"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	rel := strings.TrimPrefix(url, URLPrefix+"/")
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	assert.NoError(t, err)
}
