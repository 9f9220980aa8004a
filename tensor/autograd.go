package tensor

import (
	"fmt"
)

// reduceGradientToShape sums a gradient over broadcast dimensions so it
// matches the shape of the original input.
func reduceGradientToShape(grad *Tensor, targetShape []int) (*Tensor, error) {
	if sameShape(grad.Shape, targetShape) {
		return grad, nil
	}

	gradData := grad.Data.([]float32)
	out := make([]float32, calculateNumElements(targetShape))

	for i, v := range gradData {
		out[broadcastSourceIndex(i, grad.Shape, targetShape)] += v
	}

	return NewTensor(targetShape, Float32, out)
}

// accumulateGrad adds a new gradient into an existing one, allocating on
// first use.
func accumulateGrad(existing, incoming *Tensor) *Tensor {
	if existing == nil {
		return incoming
	}

	a := existing.Data.([]float32)
	b := incoming.Data.([]float32)
	for i := range a {
		a[i] += b[i]
	}
	return existing
}

// baseOp stores operation inputs for the backward pass.
type baseOp struct {
	inputs []*Tensor
}

func (op *baseOp) Inputs() []*Tensor {
	return op.inputs
}

func anyRequiresGrad(tensors []*Tensor) bool {
	for _, t := range tensors {
		if t.requiresGrad || t.creator != nil {
			return true
		}
	}
	return false
}

// AddOp implements the Operation interface for tensor addition.
type AddOp struct {
	baseOp
}

func (op *AddOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 2 {
		panic("AddOp requires exactly 2 inputs")
	}
	op.inputs = inputs

	result, err := Add(inputs[0], inputs[1])
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *AddOp) Backward(gradOut *Tensor) []*Tensor {
	// Gradient flows unchanged to both inputs; broadcasting requires
	// reducing back to the original shapes.
	gradA, err := reduceGradientToShape(gradOut, op.inputs[0].Shape)
	if err != nil {
		panic(fmt.Sprintf("failed to reduce gradient for input A: %v", err))
	}

	gradB, err := reduceGradientToShape(gradOut, op.inputs[1].Shape)
	if err != nil {
		panic(fmt.Sprintf("failed to reduce gradient for input B: %v", err))
	}

	return []*Tensor{gradA, gradB}
}

// SubOp implements the Operation interface for tensor subtraction.
type SubOp struct {
	baseOp
}

func (op *SubOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 2 {
		panic("SubOp requires exactly 2 inputs")
	}
	op.inputs = inputs

	result, err := Sub(inputs[0], inputs[1])
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *SubOp) Backward(gradOut *Tensor) []*Tensor {
	gradA, err := reduceGradientToShape(gradOut, op.inputs[0].Shape)
	if err != nil {
		panic(fmt.Sprintf("failed to reduce gradient for input A: %v", err))
	}

	negGrad, err := Scale(gradOut, -1.0)
	if err != nil {
		panic(fmt.Sprintf("failed to negate gradient: %v", err))
	}

	gradB, err := reduceGradientToShape(negGrad, op.inputs[1].Shape)
	if err != nil {
		panic(fmt.Sprintf("failed to reduce gradient for input B: %v", err))
	}

	return []*Tensor{gradA, gradB}
}

// MulOp implements the Operation interface for elementwise multiplication.
type MulOp struct {
	baseOp
}

func (op *MulOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 2 {
		panic("MulOp requires exactly 2 inputs")
	}
	op.inputs = inputs

	result, err := Mul(inputs[0], inputs[1])
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *MulOp) Backward(gradOut *Tensor) []*Tensor {
	a, b := op.inputs[0], op.inputs[1]

	// d(a*b)/da = b, d(a*b)/db = a
	fullGradA, err := Mul(gradOut, b)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed for gradA: %v", err))
	}
	gradA, err := reduceGradientToShape(fullGradA, a.Shape)
	if err != nil {
		panic(fmt.Sprintf("failed to reduce gradient for input A: %v", err))
	}

	fullGradB, err := Mul(gradOut, a)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed for gradB: %v", err))
	}
	gradB, err := reduceGradientToShape(fullGradB, b.Shape)
	if err != nil {
		panic(fmt.Sprintf("failed to reduce gradient for input B: %v", err))
	}

	return []*Tensor{gradA, gradB}
}

// MatMulOp implements the Operation interface for matrix multiplication.
type MatMulOp struct {
	baseOp
}

func (op *MatMulOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 2 {
		panic("MatMulOp requires exactly 2 inputs")
	}
	op.inputs = inputs

	result, err := MatMul(inputs[0], inputs[1])
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *MatMulOp) Backward(gradOut *Tensor) []*Tensor {
	a, b := op.inputs[0], op.inputs[1]

	// dL/dA = dL/dY @ B^T, dL/dB = A^T @ dL/dY
	bT, err := Transpose2D(b)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed transposing B: %v", err))
	}
	gradA, err := MatMul(gradOut, bT)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed for gradA: %v", err))
	}

	aT, err := Transpose2D(a)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed transposing A: %v", err))
	}
	gradB, err := MatMul(aT, gradOut)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed for gradB: %v", err))
	}

	return []*Tensor{gradA, gradB}
}

// ReLUOp implements the Operation interface for ReLU activation.
type ReLUOp struct {
	baseOp
}

func (op *ReLUOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 1 {
		panic("ReLUOp requires exactly 1 input")
	}
	op.inputs = inputs

	result, err := ReLU(inputs[0])
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *ReLUOp) Backward(gradOut *Tensor) []*Tensor {
	inputData := op.inputs[0].Data.([]float32)
	gradData := gradOut.Data.([]float32)
	out := make([]float32, len(gradData))

	for i := range out {
		if inputData[i] > 0 {
			out[i] = gradData[i]
		}
	}

	grad, err := NewTensor(op.inputs[0].Shape, Float32, out)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed: %v", err))
	}
	return []*Tensor{grad}
}

// SigmoidOp implements the Operation interface for sigmoid activation.
type SigmoidOp struct {
	baseOp
	output *Tensor
}

func (op *SigmoidOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 1 {
		panic("SigmoidOp requires exactly 1 input")
	}
	op.inputs = inputs

	result, err := Sigmoid(inputs[0])
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	op.output = result
	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *SigmoidOp) Backward(gradOut *Tensor) []*Tensor {
	// ds/dx = s * (1 - s), using the saved forward output
	s := op.output.Data.([]float32)
	gradData := gradOut.Data.([]float32)
	out := make([]float32, len(gradData))

	for i := range out {
		out[i] = gradData[i] * s[i] * (1.0 - s[i])
	}

	grad, err := NewTensor(op.inputs[0].Shape, Float32, out)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed: %v", err))
	}
	return []*Tensor{grad}
}

// ReshapeOp implements the Operation interface for reshaping.
type ReshapeOp struct {
	baseOp
	newShape []int
}

func (op *ReshapeOp) Forward(inputs ...*Tensor) *Tensor {
	if len(inputs) != 1 {
		panic("ReshapeOp requires exactly 1 input")
	}
	op.inputs = inputs

	result, err := Reshape(inputs[0], op.newShape)
	if err != nil {
		panic(fmt.Sprintf("forward pass failed: %v", err))
	}

	result.creator = op
	result.requiresGrad = anyRequiresGrad(inputs)
	return result
}

func (op *ReshapeOp) Backward(gradOut *Tensor) []*Tensor {
	grad, err := Reshape(gradOut, op.inputs[0].Shape)
	if err != nil {
		panic(fmt.Sprintf("backward pass failed: %v", err))
	}
	return []*Tensor{grad}
}

// AddAutograd performs addition and records it in the computational graph.
func AddAutograd(a, b *Tensor) (*Tensor, error) {
	if _, err := BroadcastShapes(a.Shape, b.Shape); err != nil {
		return nil, err
	}
	op := &AddOp{}
	return op.Forward(a, b), nil
}

// SubAutograd performs subtraction and records it in the computational graph.
func SubAutograd(a, b *Tensor) (*Tensor, error) {
	if _, err := BroadcastShapes(a.Shape, b.Shape); err != nil {
		return nil, err
	}
	op := &SubOp{}
	return op.Forward(a, b), nil
}

// MulAutograd performs multiplication and records it in the computational graph.
func MulAutograd(a, b *Tensor) (*Tensor, error) {
	if _, err := BroadcastShapes(a.Shape, b.Shape); err != nil {
		return nil, err
	}
	op := &MulOp{}
	return op.Forward(a, b), nil
}

// MatMulAutograd performs matrix multiplication and records it in the graph.
func MatMulAutograd(a, b *Tensor) (*Tensor, error) {
	if len(a.Shape) != 2 || len(b.Shape) != 2 || a.Shape[1] != b.Shape[0] {
		return nil, fmt.Errorf("MatMul requires compatible 2D tensors, got %v and %v", a.Shape, b.Shape)
	}
	op := &MatMulOp{}
	return op.Forward(a, b), nil
}

// ReLUAutograd applies ReLU and records it in the computational graph.
func ReLUAutograd(a *Tensor) (*Tensor, error) {
	if a.DType != Float32 {
		return nil, fmt.Errorf("ReLU only supports Float32 tensors")
	}
	op := &ReLUOp{}
	return op.Forward(a), nil
}

// SigmoidAutograd applies sigmoid and records it in the computational graph.
func SigmoidAutograd(a *Tensor) (*Tensor, error) {
	if a.DType != Float32 {
		return nil, fmt.Errorf("Sigmoid only supports Float32 tensors")
	}
	op := &SigmoidOp{}
	return op.Forward(a), nil
}

// ReshapeAutograd reshapes a tensor and records it in the computational graph.
func ReshapeAutograd(a *Tensor, newShape []int) (*Tensor, error) {
	if calculateNumElements(newShape) != a.NumElems {
		return nil, fmt.Errorf("cannot reshape %v to %v", a.Shape, newShape)
	}
	op := &ReshapeOp{newShape: append([]int{}, newShape...)}
	return op.Forward(a), nil
}

// Backward propagates gradients from this tensor back through the graph.
// If seed is nil the tensor must hold a single element, and a gradient of
// one is used. Gradients accumulate on every tensor with requiresGrad set
// until ZeroGrad is called.
func (t *Tensor) Backward(seed *Tensor) error {
	if t.DType != Float32 {
		return fmt.Errorf("backward only supports Float32 tensors")
	}

	if seed == nil {
		if t.NumElems != 1 {
			return fmt.Errorf("backward without an explicit gradient requires a single-element tensor, got shape %v", t.Shape)
		}
		var err error
		seed, err = Ones(t.Shape, Float32)
		if err != nil {
			return err
		}
	} else if !sameShape(seed.Shape, t.Shape) {
		return fmt.Errorf("gradient shape %v does not match tensor shape %v", seed.Shape, t.Shape)
	}

	// Collect the graph in topological order (inputs before outputs).
	var order []*Tensor
	visited := make(map[*Tensor]bool)
	var visit func(node *Tensor)
	visit = func(node *Tensor) {
		if visited[node] {
			return
		}
		visited[node] = true
		if node.creator == nil {
			return
		}
		for _, in := range node.creator.Inputs() {
			visit(in)
		}
		order = append(order, node)
	}
	visit(t)

	grads := make(map[*Tensor]*Tensor)
	grads[t] = seed

	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		g := grads[node]
		if g == nil {
			continue
		}

		inputGrads := node.creator.Backward(g)
		ins := node.creator.Inputs()
		if len(inputGrads) != len(ins) {
			return fmt.Errorf("operation returned %d gradients for %d inputs", len(inputGrads), len(ins))
		}

		for j, in := range ins {
			if inputGrads[j] == nil {
				continue
			}
			if !in.requiresGrad && in.creator == nil {
				continue
			}
			grads[in] = accumulateGrad(grads[in], inputGrads[j])
		}
	}

	for node, g := range grads {
		if node.requiresGrad {
			node.grad = accumulateGrad(node.grad, g)
		}
	}

	return nil
}
