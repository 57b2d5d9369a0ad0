package segment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// mattingInputSize is the square resolution matting networks such as
// U2-Net are exported at.
const mattingInputSize = 320

// mattingThreshold binarizes the model's per-pixel foreground probability.
const mattingThreshold = 0.5

// DNNRemover runs an ONNX salient-object matting model through the OpenCV
// DNN module. The model is expected to take a 1x3xNxN float blob and emit
// an NxN foreground probability map.
type DNNRemover struct {
	net       gocv.Net
	inputSize int
}

// LoadDNNRemover reads an ONNX matting model from disk.
func LoadDNNRemover(modelPath string) (*DNNRemover, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("segment: cannot read ONNX model %s", modelPath)
	}
	return &DNNRemover{net: net, inputSize: mattingInputSize}, nil
}

// AlphaMask runs the matting network and returns a 0/255 single-channel
// mask resized back to the input image's dimensions.
func (r *DNNRemover) AlphaMask(img gocv.Mat) (gocv.Mat, error) {
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(r.inputSize, r.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	r.net.SetInput(blob, "")
	out := r.net.Forward("")
	defer out.Close()

	probs, err := out.DataPtrFloat32()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("segment: read matting output: %w", err)
	}
	n := r.inputSize * r.inputSize
	if len(probs) < n {
		return gocv.NewMat(), fmt.Errorf("segment: matting output has %d values, want %d", len(probs), n)
	}

	small := gocv.Zeros(r.inputSize, r.inputSize, gocv.MatTypeCV8U)
	defer small.Close()
	for i := 0; i < n; i++ {
		if probs[i] > mattingThreshold {
			small.SetUCharAt(i/r.inputSize, i%r.inputSize, 255)
		}
	}

	alpha := gocv.NewMat()
	gocv.Resize(small, &alpha, image.Pt(img.Cols(), img.Rows()), 0, 0,
		gocv.InterpolationNearestNeighbor)
	return alpha, nil
}

// Close releases the network.
func (r *DNNRemover) Close() error {
	return r.net.Close()
}

var _ BackgroundRemover = (*DNNRemover)(nil)
