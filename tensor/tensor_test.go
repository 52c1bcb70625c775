// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/lens/backend/cpu"
	"github.com/born-ml/lens/tensor"
)

func TestPublicAPIRoundtrip(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)

	z := x.Add(y).MulScalar(4)
	if z.At(1, 2) != 4 {
		t.Errorf("At(1,2) = %v, want 4", z.At(1, 2))
	}
	if !z.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("shape = %v, want {2, 3}", z.Shape())
	}
}

func TestPublicRawOps(t *testing.T) {
	a, err := tensor.RawFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	if err != nil {
		t.Fatalf("RawFromSlice failed: %v", err)
	}
	b, err := tensor.RawFromSlice([]float32{10, 20}, tensor.Shape{1, 2})
	if err != nil {
		t.Fatalf("RawFromSlice failed: %v", err)
	}

	sum, err := tensor.Add(a, b)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	v, err := tensor.Values[float32](sum)
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	want := []float32{11, 22, 13, 24}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, v[i], want[i])
		}
	}

	if _, err := tensor.Add(a, a); err != nil {
		t.Errorf("same-shape Add failed: %v", err)
	}
	if _, err := tensor.Reshape(a, tensor.Shape{5}); err == nil {
		t.Error("expected reshape error")
	}
}

func TestCat(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	b, err := tensor.FromSlice([]float32{3, 4}, tensor.Shape{1, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	out := tensor.Cat([]*tensor.Tensor[float32, *cpu.Backend]{a, b}, 0)
	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Errorf("Cat shape = %v, want {2, 2}", out.Shape())
	}
}
