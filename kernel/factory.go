package kernel

import "fmt"

// Identity returns the 1x1 kernel that copies its input.
func Identity() Kernel {
	return MustNew("identity", 0, []int16{1}, 1)
}

// Box returns a normalized box (mean) kernel of the given radius.
func Box(radius int) Kernel {
	size := 2*radius + 1
	taps := make([]int16, size*size)
	for i := range taps {
		taps[i] = 1
	}

	return MustNew(fmt.Sprintf("box%d", size), radius, taps, uint16(size*size))
}

// Box3 returns the 3x3 mean kernel.
func Box3() Kernel {
	return Box(1)
}

// Box9 returns the 9x9 mean kernel.
func Box9() Kernel {
	return Box(4)
}

// Gaussian3 returns the 3x3 binomial approximation of a Gaussian.
func Gaussian3() Kernel {
	return MustNew("gaus3", 1, []int16{
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	}, 16)
}

// Gaussian5 returns the 5x5 Gaussian kernel with a total weight of 273.
func Gaussian5() Kernel {
	return MustNew("gaus5", 2, []int16{
		1, 4, 7, 4, 1,
		4, 16, 26, 16, 4,
		7, 26, 41, 26, 7,
		4, 16, 26, 16, 4,
		1, 4, 7, 4, 1,
	}, 273)
}

// LoG7 returns the 7x7 Laplacian-of-Gaussian edge detector. It is zero-sum.
func LoG7() Kernel {
	return MustNew("log7", 3, []int16{
		0, 0, -1, -1, -1, 0, 0,
		0, -2, -3, -3, -3, -2, 0,
		-1, -3, 5, 5, 5, -3, -1,
		-1, -3, 5, 16, 5, -3, -1,
		-1, -3, 5, 5, 5, -3, -1,
		0, -2, -3, -3, -3, -2, 0,
		0, 0, -1, -1, -1, 0, 0,
	}, 1)
}
