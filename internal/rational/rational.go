// Package rational implements frame-exact time values of the form frames/fps.
package rational

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/kikiluvv/autocut/internal/errs"
)

// Time is a frame count at an integer frame rate.
type Time struct {
	Frames int64
	FPS    int64
}

// New returns frames/fps, rejecting a non-positive fps.
func New(frames, fps int64) (Time, error) {
	if fps <= 0 {
		return Time{}, fmt.Errorf("%w: fps %d", errs.ErrInvalidTimebase, fps)
	}
	return Time{Frames: frames, FPS: fps}, nil
}

// Zero returns 0 frames at fps.
func Zero(fps int64) Time {
	return Time{FPS: fps}
}

// Valid reports whether t has a positive frame rate.
func (t Time) Valid() bool {
	return t.FPS > 0
}

// Add sums two times at the same frame rate.
func (t Time) Add(o Time) (Time, error) {
	if !t.Valid() || !o.Valid() {
		return Time{}, fmt.Errorf("%w: add %s + %s", errs.ErrInvalidTimebase, t, o)
	}
	if t.FPS != o.FPS {
		return Time{}, fmt.Errorf("%w: cannot add %d fps to %d fps without conversion",
			errs.ErrInvalidTimebase, o.FPS, t.FPS)
	}
	return Time{Frames: t.Frames + o.Frames, FPS: t.FPS}, nil
}

// Compare returns -1, 0 or +1. It is exact across frame rates.
func (t Time) Compare(o Time) int {
	l := new(big.Int).Mul(big.NewInt(t.Frames), big.NewInt(o.FPS))
	r := new(big.Int).Mul(big.NewInt(o.Frames), big.NewInt(t.FPS))
	return l.Cmp(r)
}

// ConvertTo re-expresses t at fps. It fails unless the result is a whole
// number of frames.
func (t Time) ConvertTo(fps int64) (Time, error) {
	if !t.Valid() || fps <= 0 {
		return Time{}, fmt.Errorf("%w: convert %s to %d fps", errs.ErrInvalidTimebase, t, fps)
	}
	if fps == t.FPS {
		return t, nil
	}
	num := new(big.Int).Mul(big.NewInt(t.Frames), big.NewInt(fps))
	q, m := new(big.Int).QuoRem(num, big.NewInt(t.FPS), new(big.Int))
	if m.Sign() != 0 || !q.IsInt64() {
		return Time{}, fmt.Errorf("%w: %s is not a whole frame count at %d fps",
			errs.ErrInvalidTimebase, t, fps)
	}
	return Time{Frames: q.Int64(), FPS: fps}, nil
}

// RescaleFloor re-expresses t at fps, truncating toward zero.
func (t Time) RescaleFloor(fps int64) (Time, error) {
	if !t.Valid() || fps <= 0 {
		return Time{}, fmt.Errorf("%w: rescale %s to %d fps", errs.ErrInvalidTimebase, t, fps)
	}
	num := new(big.Int).Mul(big.NewInt(t.Frames), big.NewInt(fps))
	q := new(big.Int).Quo(num, big.NewInt(t.FPS))
	if !q.IsInt64() {
		return Time{}, fmt.Errorf("%w: %s overflows at %d fps", errs.ErrInvalidTimebase, t, fps)
	}
	return Time{Frames: q.Int64(), FPS: fps}, nil
}

// Seconds is for display and threshold checks only.
func (t Time) Seconds() float64 {
	if t.FPS <= 0 {
		return 0
	}
	return float64(t.Frames) / float64(t.FPS)
}

// String renders "N/Ds". The fraction is never reduced so the frame rate
// survives the round trip.
func (t Time) String() string {
	return strconv.FormatInt(t.Frames, 10) + "/" + strconv.FormatInt(t.FPS, 10) + "s"
}

// Parse reads "N/Ds" or "Ns".
func Parse(s string) (Time, error) {
	raw := strings.TrimSpace(s)
	body, ok := strings.CutSuffix(raw, "s")
	if !ok || body == "" {
		return Time{}, fmt.Errorf("%w: %q", errs.ErrInvalidTimebase, s)
	}

	num, den, hasDen := strings.Cut(body, "/")
	frames, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return Time{}, fmt.Errorf("%w: %q: %v", errs.ErrInvalidTimebase, s, err)
	}
	if !hasDen {
		return Time{Frames: frames, FPS: 1}, nil
	}

	fps, err := strconv.ParseInt(den, 10, 64)
	if err != nil {
		return Time{}, fmt.Errorf("%w: %q: %v", errs.ErrInvalidTimebase, s, err)
	}
	return New(frames, fps)
}

// MarshalText implements encoding.TextMarshaler.
func (t Time) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: fps %d", errs.ErrInvalidTimebase, t.FPS)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// FramesAt converts seconds to a frame count at fps, truncating.
func FramesAt(seconds float64, fps int64) int64 {
	return int64(seconds * float64(fps))
}

// RoundFrames converts seconds to the nearest frame count at fps.
func RoundFrames(seconds float64, fps int64) int64 {
	return int64(math.Round(seconds * float64(fps)))
}

// ParseRate reads a frame rate written as "N/D" or "N" and requires it to
// be a positive whole number of frames per second.
func ParseRate(s string) (int64, error) {
	num, den, hasDen := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: rate %q", errs.ErrInvalidTimebase, s)
	}
	d := int64(1)
	if hasDen {
		if d, err = strconv.ParseInt(den, 10, 64); err != nil {
			return 0, fmt.Errorf("%w: rate %q", errs.ErrInvalidTimebase, s)
		}
	}
	if n <= 0 || d <= 0 || n%d != 0 {
		return 0, fmt.Errorf("%w: rate %q is not a whole fps", errs.ErrInvalidTimebase, s)
	}
	return n / d, nil
}
