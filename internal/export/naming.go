// Package export writes decoded chunks to disk: LAS 1.2 or CloudCompare
// ASC point clouds and IMU CSV tables.
package export

import (
	"fmt"

	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
)

// File extensions per output kind.
const (
	ExtLAS = ".las"
	ExtASC = ".asc"
	ExtCSV = ".csv"
)

// PointFileName names the point cloud written for label:
// 0{k}_{base}{ext} for chunks and {base}_All{ext} for the whole file.
func PointFileName(l chunk.Label, ext string) string {
	switch l.Kind {
	case chunk.KindChunk:
		return fmt.Sprintf("0%d_%s%s", l.Index, l.Base(), ext)
	default:
		return fmt.Sprintf("%s_All%s", l.Base(), ext)
	}
}

// ImuFileName names the IMU table written for label.
func ImuFileName(l chunk.Label) string {
	switch l.Kind {
	case chunk.KindChunk:
		return fmt.Sprintf("%s_imu_chunk_%d%s", l.Base(), l.Index, ExtCSV)
	case chunk.KindOverall:
		return fmt.Sprintf("%s_imu_overall%s", l.Base(), ExtCSV)
	default:
		return fmt.Sprintf("%s_All%s", l.Base(), ExtCSV)
	}
}
