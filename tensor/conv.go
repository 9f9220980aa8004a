package tensor

import (
	"fmt"
)

// conv2DForward computes a 2D convolution over NCHW input with OIHW weights.
func conv2DForward(input, weight, bias *Tensor, stride, padding int) (*Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("conv2d expects 4D input [batch, channels, height, width], got shape %v", input.Shape)
	}
	if len(weight.Shape) != 4 {
		return nil, fmt.Errorf("conv2d expects 4D weight [out, in, kh, kw], got shape %v", weight.Shape)
	}

	batch, inC, inH, inW := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	outC, kC, kH, kW := weight.Shape[0], weight.Shape[1], weight.Shape[2], weight.Shape[3]

	if inC != kC {
		return nil, fmt.Errorf("channel mismatch: input has %d channels, weight expects %d", inC, kC)
	}
	if bias != nil && (len(bias.Shape) != 1 || bias.Shape[0] != outC) {
		return nil, fmt.Errorf("bias shape %v does not match %d output channels", bias.Shape, outC)
	}
	if stride < 1 {
		return nil, fmt.Errorf("stride must be at least 1, got %d", stride)
	}

	outH := (inH+2*padding-kH)/stride + 1
	outW := (inW+2*padding-kW)/stride + 1
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("kernel %dx%d does not fit input %dx%d with padding %d", kH, kW, inH, inW, padding)
	}

	in := input.Data.([]float32)
	w := weight.Data.([]float32)
	out := make([]float32, batch*outC*outH*outW)

	var b []float32
	if bias != nil {
		b = bias.Data.([]float32)
	}

	for n := 0; n < batch; n++ {
		for co := 0; co < outC; co++ {
			var biasVal float32
			if b != nil {
				biasVal = b[co]
			}
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					sum := biasVal
					hStart := oh*stride - padding
					wStart := ow*stride - padding
					for ci := 0; ci < inC; ci++ {
						for kh := 0; kh < kH; kh++ {
							ih := hStart + kh
							if ih < 0 || ih >= inH {
								continue
							}
							inRow := ((n*inC+ci)*inH + ih) * inW
							wRow := ((co*inC+ci)*kH + kh) * kW
							for kw := 0; kw < kW; kw++ {
								iw := wStart + kw
								if iw < 0 || iw >= inW {
									continue
								}
								sum += in[inRow+iw] * w[wRow+kw]
							}
						}
					}
					out[((n*outC+co)*outH+oh)*outW+ow] = sum
				}
			}
		}
	}

	return NewTensor([]int{batch, outC, outH, outW}, Float32, out)
}

// conv2DBackward computes gradients with respect to input, weight, and bias.
func conv2DBackward(input, weight *Tensor, hasBias bool, gradOut *Tensor, stride, padding int) (*Tensor, *Tensor, *Tensor) {
	batch, inC, inH, inW := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	outC, _, kH, kW := weight.Shape[0], weight.Shape[1], weight.Shape[2], weight.Shape[3]
	outH, outW := gradOut.Shape[2], gradOut.Shape[3]

	in := input.Data.([]float32)
	w := weight.Data.([]float32)
	g := gradOut.Data.([]float32)

	gradIn := make([]float32, len(in))
	gradW := make([]float32, len(w))

	var gradB []float32
	if hasBias {
		gradB = make([]float32, outC)
	}

	for n := 0; n < batch; n++ {
		for co := 0; co < outC; co++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					gv := g[((n*outC+co)*outH+oh)*outW+ow]
					if gv == 0 {
						continue
					}
					if gradB != nil {
						gradB[co] += gv
					}
					hStart := oh*stride - padding
					wStart := ow*stride - padding
					for ci := 0; ci < inC; ci++ {
						for kh := 0; kh < kH; kh++ {
							ih := hStart + kh
							if ih < 0 || ih >= inH {
								continue
							}
							inRow := ((n*inC+ci)*inH + ih) * inW
							wRow := ((co*inC+ci)*kH + kh) * kW
							for kw := 0; kw < kW; kw++ {
								iw := wStart + kw
								if iw < 0 || iw >= inW {
									continue
								}
								gradIn[inRow+iw] += gv * w[wRow+kw]
								gradW[wRow+kw] += gv * in[inRow+iw]
							}
						}
					}
				}
			}
		}
	}

	gradInT, _ := NewTensor(input.Shape, Float32, gradIn)
	gradWT, _ := NewTensor(weight.Shape, Float32, gradW)

	var gradBT *Tensor
	if hasBias {
		gradBT, _ = NewTensor([]int{outC}, Float32, gradB)
	}

	return gradInT, gradWT, gradBT
}

// Conv2DOp implements the Operation interface for 2D convolution.
type Conv2DOp struct {
	baseOp
	stride  int
	padding int
	hasBias bool
}

func (op *Conv2DOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) < 2 || len(inputs) > 3 {
		panic("Conv2DOp requires input, weight, and optional bias")
	}
	op.inputs = inputs
	op.hasBias = len(inputs) == 3

	var bias *Tensor
	if op.hasBias {
		bias = inputs[2]
	}

	result, err := conv2DForward(inputs[0], inputs[1], bias, op.stride, op.padding)
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *Conv2DOp) Backward(gradOut *Tensor) []*Tensor {
	gradIn, gradW, gradB := conv2DBackward(op.inputs[0], op.inputs[1], op.hasBias, gradOut, op.stride, op.padding)
	if op.hasBias {
		return []*Tensor{gradIn, gradW, gradB}
	}
	return []*Tensor{gradIn, gradW}
}

// Conv2DAutograd performs a 2D convolution and records it in the graph.
// bias may be nil.
func Conv2DAutograd(input, weight, bias *Tensor, stride, padding int) (*Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("conv2d expects 4D input [batch, channels, height, width], got shape %v", input.Shape)
	}
	if len(weight.Shape) != 4 {
		return nil, fmt.Errorf("conv2d expects 4D weight [out, in, kh, kw], got shape %v", weight.Shape)
	}
	if input.Shape[1] != weight.Shape[1] {
		return nil, fmt.Errorf("channel mismatch: input has %d channels, weight expects %d", input.Shape[1], weight.Shape[1])
	}
	if bias != nil && (len(bias.Shape) != 1 || bias.Shape[0] != weight.Shape[0]) {
		return nil, fmt.Errorf("bias shape %v does not match %d output channels", bias.Shape, weight.Shape[0])
	}
	if stride < 1 {
		return nil, fmt.Errorf("stride must be at least 1, got %d", stride)
	}
	if (input.Shape[2]+2*padding-weight.Shape[2])/stride+1 <= 0 ||
		(input.Shape[3]+2*padding-weight.Shape[3])/stride+1 <= 0 {
		return nil, fmt.Errorf("kernel %dx%d does not fit input %dx%d with padding %d",
			weight.Shape[2], weight.Shape[3], input.Shape[2], input.Shape[3], padding)
	}

	op := &Conv2DOp{stride: stride, padding: padding}
	if bias != nil {
		return op.Forward(input, weight, bias), nil
	}
	return op.Forward(input, weight), nil
}

// MaxPool2DOp implements the Operation interface for 2D max pooling.
type MaxPool2DOp struct {
	baseOp
	kernel int
	stride int
	argmax []int
}

func (op *MaxPool2DOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 1 {
		panic("MaxPool2DOp requires exactly 1 input")
	}
	op.inputs = inputs

	input := inputs[0]
	batch, c, inH, inW := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	outH := (inH-op.kernel)/op.stride + 1
	outW := (inW-op.kernel)/op.stride + 1

	in := input.Data.([]float32)
	out := make([]float32, batch*c*outH*outW)
	op.argmax = make([]int, len(out))

	for n := 0; n < batch; n++ {
		for ci := 0; ci < c; ci++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					best := float32(0)
					bestIdx := -1
					for kh := 0; kh < op.kernel; kh++ {
						ih := oh*op.stride + kh
						for kw := 0; kw < op.kernel; kw++ {
							iw := ow*op.stride + kw
							idx := ((n*c+ci)*inH+ih)*inW + iw
							if bestIdx == -1 || in[idx] > best {
								best = in[idx]
								bestIdx = idx
							}
						}
					}
					outIdx := ((n*c+ci)*outH+oh)*outW + ow
					out[outIdx] = best
					op.argmax[outIdx] = bestIdx
				}
			}
		}
	}

	result, err := NewTensor([]int{batch, c, outH, outW}, Float32, out)
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *MaxPool2DOp) Backward(gradOut *Tensor) []*Tensor {
	g := gradOut.Data.([]float32)
	gradIn := make([]float32, op.inputs[0].NumElems)

	for i, srcIdx := range op.argmax {
		gradIn[srcIdx] += g[i]
	}

	grad, err := NewTensor(op.inputs[0].Shape, Float32, gradIn)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed: %v", err))
	}
	return []*Tensor{grad}
}

// MaxPool2DAutograd performs 2D max pooling and records it in the graph.
func MaxPool2DAutograd(input *Tensor, kernel, stride int) (*Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("max pool expects 4D input [batch, channels, height, width], got shape %v", input.Shape)
	}
	if kernel < 1 || stride < 1 {
		return nil, fmt.Errorf("kernel and stride must be at least 1, got %d and %d", kernel, stride)
	}
	if input.Shape[2] < kernel || input.Shape[3] < kernel {
		return nil, fmt.Errorf("kernel %d does not fit input %dx%d", kernel, input.Shape[2], input.Shape[3])
	}

	op := &MaxPool2DOp{kernel: kernel, stride: stride}
	return op.Forward(input), nil
}

// GlobalAvgPool2DOp averages each channel's spatial plane, reducing
// [batch, channels, h, w] to [batch, channels].
type GlobalAvgPool2DOp struct {
	baseOp
}

func (op *GlobalAvgPool2DOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 1 {
		panic("GlobalAvgPool2DOp requires exactly 1 input")
	}
	op.inputs = inputs

	input := inputs[0]
	batch, c, h, w := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	plane := h * w

	in := input.Data.([]float32)
	out := make([]float32, batch*c)

	for n := 0; n < batch; n++ {
		for ci := 0; ci < c; ci++ {
			base := (n*c + ci) * plane
			var sum float32
			for i := 0; i < plane; i++ {
				sum += in[base+i]
			}
			out[n*c+ci] = sum / float32(plane)
		}
	}

	result, err := NewTensor([]int{batch, c}, Float32, out)
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *GlobalAvgPool2DOp) Backward(gradOut *Tensor) []*Tensor {
	input := op.inputs[0]
	batch, c, h, w := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	plane := h * w

	g := gradOut.Data.([]float32)
	gradIn := make([]float32, input.NumElems)

	for n := 0; n < batch; n++ {
		for ci := 0; ci < c; ci++ {
			share := g[n*c+ci] / float32(plane)
			base := (n*c + ci) * plane
			for i := 0; i < plane; i++ {
				gradIn[base+i] = share
			}
		}
	}

	grad, err := NewTensor(input.Shape, Float32, gradIn)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed: %v", err))
	}
	return []*Tensor{grad}
}

// GlobalAvgPool2DAutograd averages spatial planes and records the operation
// in the graph.
func GlobalAvgPool2DAutograd(input *Tensor) (*Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("global average pool expects 4D input, got shape %v", input.Shape)
	}

	op := &GlobalAvgPool2DOp{}
	return op.Forward(input), nil
}
