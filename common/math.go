package common

import (
	"unsafe"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// Orthographic creates an orthographic projection matrix mapping the given
// pixel rectangle onto WebGPU clip space, with depth mapped to [0, 1].
// UI panels are laid out in pixel coordinates with the origin at the top-left
// and y growing downward.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - width, height: viewport size in pixels
//   - near, far: depth range covered by panel z values
func Orthographic(out []float32, width, height, near, far float32) {
	Identity(out)
	out[0] = 2.0 / width
	out[5] = -2.0 / height
	out[10] = 1.0 / (near - far)
	out[12] = -1.0
	out[13] = 1.0
	out[14] = near / (near - far)
}

// BuildPanelMatrix constructs a 4x4 panel transform from a screen-space
// rectangle and depth. The unit quad spans [0,1]x[0,1], so the matrix scales
// it to the panel size and translates it to the panel origin. Column-major.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - x, y: panel origin in pixels
//   - z: panel depth (render order within its bucket's depth range)
//   - width, height: panel size in pixels
func BuildPanelMatrix(out []float32, x, y, z, width, height float32) {
	Identity(out)
	out[0] = width
	out[5] = height
	out[12] = x
	out[13] = y
	out[14] = z
}
