// Package util provides frame sources that feed a pipeline: video files and
// devices, directories of still frames, and in-memory images.
package util

import (
	"image"
	"os"

	"github.com/nvr-ai/go-motion/common"
	"github.com/nvr-ai/go-motion/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrEndOfStream is returned by Source.Read when no frames remain.
var ErrEndOfStream = errors.New("end of stream")

// Source yields frames one at a time.
type Source interface {
	// Read decodes the next frame into dst. It returns ErrEndOfStream when
	// the source is exhausted.
	Read(dst *gocv.Mat) error
	Close() error
}

// normalise copies src into dst, resizing to res when res is set and differs.
func normalise(src gocv.Mat, dst *gocv.Mat, res images.ResolutionPixels) error {
	if res.IsZero() || (src.Cols() == res.Width && src.Rows() == res.Height) {
		src.CopyTo(dst)
		return nil
	}
	if err := gocv.Resize(src, dst, res.Point(), 0, 0, gocv.InterpolationLinear); err != nil {
		return common.ProcessingError("normalise frame", err)
	}
	return nil
}

// Open returns a DirectorySource when input is a directory and a VideoSource
// otherwise.
func Open(input string, res images.ResolutionPixels) (Source, error) {
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		return NewDirectorySource(input, res)
	}
	return OpenVideoSource(input, res)
}

// VideoSource reads frames from a video file, stream URL or capture device.
type VideoSource struct {
	capture    *gocv.VideoCapture
	resolution images.ResolutionPixels
	scratch    gocv.Mat
}

// OpenVideoSource opens a capture. device is either a device index ("0") or
// a file path / URL.
//
// Arguments:
//   - device: Device id, file path or stream URL.
//   - res: Resolution frames are normalised to; zero keeps the native size.
//
// Returns:
//   - *VideoSource: The opened source.
//   - error: An input error if the capture cannot be opened.
//
// @example
// src, err := util.OpenVideoSource("clip.mp4", images.Res(1280, 720))
// defer src.Close()
func OpenVideoSource(device string, res images.ResolutionPixels) (*VideoSource, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, common.InputError("open video %s: %v", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, common.InputError("open video %s: capture not opened", device)
	}
	return &VideoSource{capture: capture, resolution: res, scratch: gocv.NewMat()}, nil
}

// Read implements Source.
func (v *VideoSource) Read(dst *gocv.Mat) error {
	if ok := v.capture.Read(&v.scratch); !ok || v.scratch.Empty() {
		return ErrEndOfStream
	}
	return normalise(v.scratch, dst, v.resolution)
}

// Close implements Source.
func (v *VideoSource) Close() error {
	v.scratch.Close()
	return v.capture.Close()
}

// DirectorySource replays a directory of still frames in frame order.
type DirectorySource struct {
	files      []ImageFile
	next       int
	resolution images.ResolutionPixels
}

// NewDirectorySource loads every image file in dir.
func NewDirectorySource(dir string, res images.ResolutionPixels) (*DirectorySource, error) {
	files, err := LoadDirectoryImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, common.InputError("no image files in %s", dir)
	}
	return &DirectorySource{files: files, resolution: res}, nil
}

// Len returns the number of frames in the directory.
func (d *DirectorySource) Len() int {
	return len(d.files)
}

// Read implements Source.
func (d *DirectorySource) Read(dst *gocv.Mat) error {
	if d.next >= len(d.files) {
		return ErrEndOfStream
	}
	file := d.files[d.next]
	d.next++

	decoded, err := gocv.IMDecode(file.Data, gocv.IMReadColor)
	if err != nil {
		return common.InputError("decode %s: %v", file.Path, err)
	}
	defer decoded.Close()
	if decoded.Empty() {
		return common.InputError("decode %s: empty image", file.Path)
	}
	return normalise(decoded, dst, d.resolution)
}

// Close implements Source.
func (d *DirectorySource) Close() error {
	d.files = nil
	return nil
}

// ImageSource replays in-memory Go images.
type ImageSource struct {
	frames     []image.Image
	next       int
	resolution images.ResolutionPixels
}

// NewImageSource returns a source over frames.
func NewImageSource(frames []image.Image, res images.ResolutionPixels) *ImageSource {
	return &ImageSource{frames: frames, resolution: res}
}

// Read implements Source.
func (s *ImageSource) Read(dst *gocv.Mat) error {
	if s.next >= len(s.frames) {
		return ErrEndOfStream
	}
	img := s.frames[s.next]
	s.next++

	mat, err := images.FromImage(img, s.resolution)
	if err != nil {
		return err
	}
	defer mat.Close()
	mat.CopyTo(dst)
	return nil
}

// Close implements Source.
func (s *ImageSource) Close() error {
	return nil
}

// MatSource replays frames that are already decoded. It does not take
// ownership of them.
type MatSource struct {
	frames []gocv.Mat
	next   int
}

// NewMatSource returns a source over frames.
func NewMatSource(frames ...gocv.Mat) *MatSource {
	return &MatSource{frames: frames}
}

// Read implements Source.
func (s *MatSource) Read(dst *gocv.Mat) error {
	if s.next >= len(s.frames) {
		return ErrEndOfStream
	}
	s.frames[s.next].CopyTo(dst)
	s.next++
	return nil
}

// Close implements Source.
func (s *MatSource) Close() error {
	return nil
}
