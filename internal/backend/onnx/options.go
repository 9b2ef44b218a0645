package onnx

import (
	"errors"

	"github.com/ekisa-team/awairs/mapsafe"
)

// ErrUnavailable is returned when the binary was built without cgo and the
// ONNX Runtime cannot be linked.
var ErrUnavailable = errors.New("onnxruntime backend unavailable: built without cgo")

// threadOptions extracts the session thread settings from model options.
// Zero leaves the runtime default in place.
func threadOptions(options map[string]any) (intra, inter int) {
	intra = max(mapsafe.Get(options, "intra_op_threads", 0), 0)
	inter = max(mapsafe.Get(options, "inter_op_threads", 0), 0)
	return intra, inter
}
