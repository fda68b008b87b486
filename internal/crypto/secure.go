package crypto

import (
	"runtime"
	"sync"
)

// SecureBytes holds sensitive bytes in a buffer that is mlocked when the OS
// allows it and zeroed by Destroy.
type SecureBytes struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// NewSecureBytes copies src into a fresh locked buffer.
// The caller still owns src and should clear it.
func NewSecureBytes(src []byte) *SecureBytes {
	sb := &SecureBytes{data: make([]byte, len(src))}
	sb.locked = mlock(sb.data)
	copy(sb.data, src)

	// Zero the buffer even if Destroy is never called
	runtime.SetFinalizer(sb, func(s *SecureBytes) {
		s.Destroy()
	})

	return sb
}

// Bytes returns the underlying slice, or nil once destroyed.
// The slice must not be retained past Destroy.
func (s *SecureBytes) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Len returns the length of the data, 0 once destroyed.
func (s *SecureBytes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// IsLocked reports whether the buffer is mlocked.
func (s *SecureBytes) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Destroy zeros and unlocks the buffer. Safe to call multiple times.
func (s *SecureBytes) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}

	clear(s.data)
	if s.locked {
		munlock(s.data)
		s.locked = false
	}
	s.data = nil

	runtime.SetFinalizer(s, nil)
}
