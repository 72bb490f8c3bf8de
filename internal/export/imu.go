package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/banshee-data/lvx-convert/internal/lvx"
)

// ImuCSVHeader is the first row of every IMU table.
var ImuCSVHeader = []string{"timestamp", "gyro_x", "gyro_y", "gyro_z", "acc_x", "acc_y", "acc_z"}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// WriteImuCSV writes samples as CSV with ImuCSVHeader.
func WriteImuCSV(w io.Writer, samples []lvx.ImuSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ImuCSVHeader); err != nil {
		return err
	}
	row := make([]string, len(ImuCSVHeader))
	for _, s := range samples {
		row[0] = strconv.FormatUint(s.Timestamp, 10)
		row[1] = formatFloat32(s.GyroX)
		row[2] = formatFloat32(s.GyroY)
		row[3] = formatFloat32(s.GyroZ)
		row[4] = formatFloat32(s.AccX)
		row[5] = formatFloat32(s.AccY)
		row[6] = formatFloat32(s.AccZ)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
