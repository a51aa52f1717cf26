package geo

// ToDecimalDegrees converts a sexagesimal coordinate to signed decimal
// degrees. negative selects the southern or western hemisphere.
func ToDecimalDegrees(degrees, minutes, seconds float64, negative bool) float64 {
	dd := degrees + minutes/60 + seconds/3600
	if negative {
		return -dd
	}
	return dd
}
