// SPDX-License-Identifier: EPL-2.0

package mixer

// positionGains turns an angle in [0, 360) and a distance in [0, 255] into
// left and right gains.
//
// Only the far ear is attenuated: a sound at 90 degrees silences the left
// side and leaves the right at full level, while 0 and 180 play both sides
// equally. Distance scales both sides and never reaches silence.
func positionGains(angle, distance int) (float32, float32) {
	left, right := 255, 255

	switch {
	case angle < 90:
		left = 255 - int(255*float32(angle)/89)
	case angle < 180:
		left = int(255 * float32(angle-90) / 89)
	case angle < 270:
		right = 255 - int(255*float32(angle-180)/89)
	default:
		right = int(255 * float32(angle-270) / 89)
	}
	left = min(max(left, 0), 255)
	right = min(max(right, 0), 255)

	near := 255 - distance
	if near == 0 {
		near = 1
	}
	d := float32(near) / 255

	return float32(left) / 255 * d, float32(right) / 255 * d
}
