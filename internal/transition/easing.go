package transition

// Easing maps linear progress 0..1 to eased progress 0..1
type Easing func(t float64) float64

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func linear(t float64) float64 { return t }

// easeInCubic starts slow and accelerates
func easeInCubic(t float64) float64 {
	return t * t * t
}

// easeOutCubic starts fast and settles
func easeOutCubic(t float64) float64 {
	return 1 - pow(1-t, 3)
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
