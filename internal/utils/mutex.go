package utils

import "sync"

var gdalMu sync.Mutex

// ExecuteWithGDALLock serializes fn with every other GDAL call in the process.
func ExecuteWithGDALLock(fn func()) {
	gdalMu.Lock()
	defer gdalMu.Unlock()
	fn()
}
