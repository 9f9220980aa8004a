package training

import (
	"fmt"
	"math"

	"github.com/tsawler/tampernet/tensor"
)

// Optimizer updates model parameters from their accumulated gradients.
type Optimizer interface {
	// Step applies one update to every parameter with a gradient.
	Step() error
	// ZeroGrad clears all parameter gradients.
	ZeroGrad()
	// GetLR returns the current learning rate.
	GetLR() float64
	// SetLR changes the learning rate.
	SetLR(lr float64)
}

// Adam implements the Adam optimizer with bias-corrected first and second
// moment estimates.
type Adam struct {
	params []*tensor.Tensor
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	step   int
	m      map[*tensor.Tensor][]float32
	v      map[*tensor.Tensor][]float32
}

// NewAdam creates an Adam optimizer with the standard moment decay rates.
func NewAdam(params []*tensor.Tensor, lr float64) *Adam {
	return &Adam{
		params: params,
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		m:      make(map[*tensor.Tensor][]float32),
		v:      make(map[*tensor.Tensor][]float32),
	}
}

// Step applies one Adam update.
func (a *Adam) Step() error {
	a.step++
	correction1 := 1.0 - math.Pow(a.beta1, float64(a.step))
	correction2 := 1.0 - math.Pow(a.beta2, float64(a.step))

	for _, p := range a.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}

		data, err := p.GetFloat32Data()
		if err != nil {
			return fmt.Errorf("failed to update parameter: %v", err)
		}
		g, err := grad.GetFloat32Data()
		if err != nil {
			return fmt.Errorf("failed to read gradient: %v", err)
		}
		if len(g) != len(data) {
			return fmt.Errorf("gradient has %d elements, parameter has %d", len(g), len(data))
		}

		m, ok := a.m[p]
		if !ok {
			m = make([]float32, len(data))
			a.m[p] = m
			a.v[p] = make([]float32, len(data))
		}
		v := a.v[p]

		for i := range data {
			m[i] = float32(a.beta1)*m[i] + float32(1-a.beta1)*g[i]
			v[i] = float32(a.beta2)*v[i] + float32(1-a.beta2)*g[i]*g[i]

			mHat := float64(m[i]) / correction1
			vHat := float64(v[i]) / correction2
			data[i] -= float32(a.lr * mHat / (math.Sqrt(vHat) + a.eps))
		}
	}
	return nil
}

// ZeroGrad clears all parameter gradients.
func (a *Adam) ZeroGrad() {
	tensor.ZeroGrad(a.params)
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR changes the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// SGD implements stochastic gradient descent with optional momentum.
type SGD struct {
	params   []*tensor.Tensor
	lr       float64
	momentum float64
	velocity map[*tensor.Tensor][]float32
}

// NewSGD creates an SGD optimizer. A momentum of 0 gives plain gradient
// descent.
func NewSGD(params []*tensor.Tensor, lr, momentum float64) *SGD {
	return &SGD{
		params:   params,
		lr:       lr,
		momentum: momentum,
		velocity: make(map[*tensor.Tensor][]float32),
	}
}

// Step applies one SGD update.
func (s *SGD) Step() error {
	for _, p := range s.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}

		data, err := p.GetFloat32Data()
		if err != nil {
			return fmt.Errorf("failed to update parameter: %v", err)
		}
		g, err := grad.GetFloat32Data()
		if err != nil {
			return fmt.Errorf("failed to read gradient: %v", err)
		}
		if len(g) != len(data) {
			return fmt.Errorf("gradient has %d elements, parameter has %d", len(g), len(data))
		}

		if s.momentum == 0 {
			for i := range data {
				data[i] -= float32(s.lr) * g[i]
			}
			continue
		}

		vel, ok := s.velocity[p]
		if !ok {
			vel = make([]float32, len(data))
			s.velocity[p] = vel
		}
		for i := range data {
			vel[i] = float32(s.momentum)*vel[i] + g[i]
			data[i] -= float32(s.lr) * vel[i]
		}
	}
	return nil
}

// ZeroGrad clears all parameter gradients.
func (s *SGD) ZeroGrad() {
	tensor.ZeroGrad(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR changes the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
