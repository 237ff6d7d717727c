//go:build darwin

package watcher

import "golang.org/x/text/unicode/norm"

// platformNorm composes path to NFC. HFS+ and APFS hand back decomposed
// names in change notifications, which would otherwise never match the
// composed form callers pass to Add.
func platformNorm(path string) string {
	return norm.NFC.String(path)
}
