//go:build !unix

package crypto

// mlock is unsupported here; key material is still zeroed on Destroy.
func mlock(_ []byte) bool {
	return false
}

func munlock(_ []byte) {}
