package metrics

import (
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"runtime"
)

// SysHealth is a point-in-time view of the process and its data directory.
type SysHealth struct {
	AllocMB      uint64 `json:"alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	Goroutines   int    `json:"goroutines"`
	DataFiles    int    `json:"data_files"`
	DataBytes    int64  `json:"data_bytes"`
	DataDiskSize string `json:"data_disk_size"`
}

// GetSysHealth reads memory stats and sums the files under dataDir. A
// missing directory reports zero.
func GetSysHealth(dataDir string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	files, size := usage(dataDir)
	return SysHealth{
		AllocMB:      m.Alloc >> 20,
		SysMB:        m.Sys >> 20,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataFiles:    files,
		DataBytes:    size,
		DataDiskSize: formatBytes(size),
	}
}

func usage(root string) (files int, size int64) {
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

func formatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	exp := min(int(math.Log(float64(n))/math.Log(1024)), len(byteUnits)-1)
	return fmt.Sprintf("%.1f %s", float64(n)/math.Pow(1024, float64(exp)), byteUnits[exp])
}
