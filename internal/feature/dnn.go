package feature

import (
	"encoding/binary"
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// DNNBackbone runs an ONNX image backbone through the OpenCV DNN module.
// The model is expected to take a 1x3xHxW float blob and emit a flat
// embedding (a classification network with its head removed).
type DNNBackbone struct {
	net gocv.Net
}

// LoadDNNBackbone reads an ONNX model from disk.
func LoadDNNBackbone(modelPath string) (*DNNBackbone, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("feature: cannot read ONNX model %s", modelPath)
	}
	return &DNNBackbone{net: net}, nil
}

// Forward runs the network on a normalized CHW tensor.
func (b *DNNBackbone) Forward(input []float32, height, width int) ([]float32, error) {
	if len(input) != 3*height*width {
		return nil, fmt.Errorf("feature: tensor length %d, want %d", len(input), 3*height*width)
	}

	buf := make([]byte, 4*len(input))
	for i, v := range input {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	blob, err := gocv.NewMatWithSizesFromBytes([]int{1, 3, height, width}, gocv.MatTypeCV32F, buf)
	if err != nil {
		return nil, fmt.Errorf("feature: build blob: %w", err)
	}
	defer blob.Close()

	b.net.SetInput(blob, "")
	out := b.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("feature: read output: %w", err)
	}
	vec := make([]float32, len(data))
	copy(vec, data)
	return vec, nil
}

// Close releases the network.
func (b *DNNBackbone) Close() error {
	return b.net.Close()
}
