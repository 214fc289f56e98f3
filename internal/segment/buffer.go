package segment

import "github.com/ayusman/mudra/internal/detector"

// appendFrame appends to a capped landmark buffer, dropping the oldest
// frame first once the cap is exceeded.
func appendFrame(buf []detector.HandFrame, frame detector.HandFrame, max int) []detector.HandFrame {
	if len(buf) >= max {
		copy(buf, buf[1:])
		buf = buf[:max-1]
	}
	return append(buf, frame)
}

// appendImage appends to a capped image buffer with the same
// trim-from-front semantics.
func appendImage(buf [][]byte, img []byte, max int) [][]byte {
	if len(buf) >= max {
		copy(buf, buf[1:])
		buf = buf[:max-1]
	}
	return append(buf, img)
}
