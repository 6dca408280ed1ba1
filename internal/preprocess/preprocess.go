// Package preprocess converts uploaded image bytes into the tensor layout
// the crop disease model expects, and produces the text-safe payload stored
// with each prediction.
package preprocess

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

// Model input geometry. The model was trained on stretched 224x224 RGB
// images rescaled to [0,1]; the resize here must stay non-aspect-preserving
// to match.
const (
	InputHeight   = 224
	InputWidth    = 224
	InputChannels = 3

	// TensorLen is the flat length of the single-image input tensor,
	// batch dimension included.
	TensorLen = 1 * InputHeight * InputWidth * InputChannels
)

// Decode parses uploaded bytes as a JPEG, PNG, or GIF image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("preprocess: decode image: %w", err)
	}
	return img, nil
}

// ToTensor stretches img to the model resolution and flattens it into a
// normalized NHWC float32 tensor with a leading batch dimension of one.
func ToTensor(img image.Image) []float32 {
	scaled := resize.Resize(InputWidth, InputHeight, img, resize.Bilinear)

	tensor := make([]float32, TensorLen)
	bounds := scaled.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			tensor[i] = float32(r>>8) / 255.0
			tensor[i+1] = float32(g>>8) / 255.0
			tensor[i+2] = float32(b>>8) / 255.0
			i += 3
		}
	}
	return tensor
}

// EncodePNG re-encodes the decoded image as PNG, the canonical stored form.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("preprocess: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 converts image bytes to the text-safe form persisted in the
// prediction history.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 restores the exact image bytes from the stored form.
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("preprocess: decode stored image: %w", err)
	}
	return data, nil
}
