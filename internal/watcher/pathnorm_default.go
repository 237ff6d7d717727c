//go:build !darwin

package watcher

func platformNorm(path string) string {
	return path
}
