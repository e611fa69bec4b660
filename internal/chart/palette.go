package chart

// rdYlBu11 is the 11-class ColorBrewer RdYlBu scheme, red to blue.
var rdYlBu11 = []string{
	"#a50026", "#d73027", "#f46d43", "#fdae61", "#fee090", "#ffffbf",
	"#e0f3f8", "#abd9e9", "#74add1", "#4575b4", "#313695",
}

// VariancePalette returns RdYlBu reversed so that low variance is blue and
// high variance is red.
func VariancePalette() []string {
	out := make([]string, len(rdYlBu11))
	for i, c := range rdYlBu11 {
		out[len(rdYlBu11)-1-i] = c
	}
	return out
}
