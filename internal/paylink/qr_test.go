package paylink

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQRRendererProducesPNG(t *testing.T) {
	r := QRRenderer{Size: 200}
	img, err := r.Render(context.Background(), "upi://pay?payee=a@b&name=x&amount=1.00&note=r")
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	require.Equal(t, 200, decoded.Bounds().Dx())
	require.Equal(t, 200, decoded.Bounds().Dy())

	require.True(t, strings.HasPrefix(DataURI(img), "data:image/png;base64,"))
}

func TestQRRendererFailuresAreEncodingErrors(t *testing.T) {
	r := QRRenderer{Level: "H"}

	_, err := r.Render(context.Background(), "")
	require.True(t, IsEncoding(err))

	_, err = r.Render(context.Background(), strings.Repeat("x", 5000))
	require.True(t, IsEncoding(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, "upi://pay")
	require.True(t, IsEncoding(err))
	require.ErrorIs(t, err, context.Canceled)
}
