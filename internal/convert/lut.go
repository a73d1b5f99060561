package convert

// rescaleTable maps every source channel value in [0, srcMax] to the
// destination channel value, rounded, already shifted into position.
func rescaleTable(srcMax, dstMax uint16, dstShift uint8) []uint32 {
	lut := make([]uint32, int(srcMax)+1)
	for v := range lut {
		lut[v] = (uint32(v)*uint32(dstMax) + uint32(srcMax)/2) / uint32(srcMax) << dstShift
	}
	return lut
}

// levelTable maps every source channel value in [0, srcMax] to the nearest
// of n colour cube levels.
func levelTable(srcMax uint16, n int) []uint32 {
	lut := make([]uint32, int(srcMax)+1)
	for v := range lut {
		lut[v] = (uint32(v)*uint32(n-1) + uint32(srcMax)/2) / uint32(srcMax)
	}
	return lut
}
