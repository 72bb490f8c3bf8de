package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/banshee-data/lvx-convert/internal/lvx"
	"github.com/banshee-data/lvx-convert/internal/units"
)

// WriteASC writes points as a CloudCompare-compatible .asc table with
// coordinates converted to unit.
func WriteASC(w io.Writer, points []lvx.PointSample, unit string) error {
	if !units.IsValid(unit) {
		return fmt.Errorf("invalid units %q, must be one of: %s", unit, units.GetValidUnitsString())
	}
	prec := 6
	if unit == units.Millimeters {
		prec = 0
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Exported points (%s)\n", unit)
	fmt.Fprintf(bw, "# Format: X Y Z Intensity ReturnNumber\n")
	for _, p := range points {
		fmt.Fprintf(bw, "%.*f %.*f %.*f %d %d\n",
			prec, units.ConvertLength(p.X, unit),
			prec, units.ConvertLength(p.Y, unit),
			prec, units.ConvertLength(p.Z, unit),
			p.Intensity, p.ReturnNumber)
	}
	return bw.Flush()
}
