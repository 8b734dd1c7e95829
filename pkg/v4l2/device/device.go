//go:build linux

package device

import (
	"errors"
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"github.com/vidloop/keystoned/pkg/ioctl"
)

// Mode selects whether a Device streams frames in (capture) or out (output).
type Mode int

const (
	ModeCapture Mode = iota
	ModeOutput
)

// Sentinel errors surfaced by Capture/Write; the pipeline driver matches on
// these with errors.Is to decide between "skip this frame" and "exit".
var (
	ErrDeviceLost    = errors.New("v4l2: device lost")
	ErrTimeout       = errors.New("v4l2: dequeue timeout")
	ErrFormatChanged = errors.New("v4l2: format changed mid-stream")
	ErrShortWrite    = errors.New("v4l2: short write")
)

// DriverBuffers is the number of MMAP buffers requested from the driver.
const DriverBuffers = 4

type Device struct {
	fd   int
	mode Mode
	bufs [][]byte
	next uint32 // next output buffer index to fill, round-robin

	Width, Height, PixFmt uint32
}

func Open(path string, mode Mode) (*Device, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &Device{fd: fd, mode: mode}, nil
}

func (d *Device) bufType() uint32 {
	if d.mode == ModeOutput {
		return V4L2_BUF_TYPE_VIDEO_OUTPUT
	}
	return V4L2_BUF_TYPE_VIDEO_CAPTURE
}

type Capability struct {
	Driver  string
	Card    string
	BusInfo string
	Version string
}

func (d *Device) Capability() (*Capability, error) {
	c := v4l2_capability{}
	if err := ioctl.Ioctl(d.fd, VIDIOC_QUERYCAP, unsafe.Pointer(&c)); err != nil {
		return nil, err
	}
	return &Capability{
		Driver:  ioctl.Str(c.driver[:]),
		Card:    ioctl.Str(c.card[:]),
		BusInfo: ioctl.Str(c.bus_info[:]),
		Version: fmt.Sprintf("%d.%d.%d", byte(c.version>>16), byte(c.version>>8), byte(c.version)),
	}, nil
}

func (d *Device) ListFormats() ([]uint32, error) {
	var items []uint32

	for i := uint32(0); ; i++ {
		fd := v4l2_fmtdesc{
			index: i,
			typ:   d.bufType(),
		}
		if err := ioctl.Ioctl(d.fd, VIDIOC_ENUM_FMT, unsafe.Pointer(&fd)); err != nil {
			if !errors.Is(err, syscall.EINVAL) {
				return nil, err
			}
			break
		}

		items = append(items, fd.pixelformat)
	}

	return items, nil
}

func (d *Device) ListSizes(pixFmt uint32) ([][2]uint32, error) {
	var items [][2]uint32

	for i := uint32(0); ; i++ {
		fs := v4l2_frmsizeenum{
			index:        i,
			pixel_format: pixFmt,
		}
		if err := ioctl.Ioctl(d.fd, VIDIOC_ENUM_FRAMESIZES, unsafe.Pointer(&fs)); err != nil {
			if !errors.Is(err, syscall.EINVAL) {
				return nil, err
			}
			break
		}

		if fs.typ != V4L2_FRMSIZE_TYPE_DISCRETE {
			continue
		}

		items = append(items, [2]uint32{fs.discrete.width, fs.discrete.height})
	}

	return items, nil
}

func (d *Device) ListFrameRates(pixFmt, width, height uint32) ([]uint32, error) {
	var items []uint32

	for i := uint32(0); ; i++ {
		fi := v4l2_frmivalenum{
			index:        i,
			pixel_format: pixFmt,
			width:        width,
			height:       height,
		}
		if err := ioctl.Ioctl(d.fd, VIDIOC_ENUM_FRAMEINTERVALS, unsafe.Pointer(&fi)); err != nil {
			if !errors.Is(err, syscall.EINVAL) {
				return nil, err
			}
			break
		}

		if fi.typ != V4L2_FRMIVAL_TYPE_DISCRETE || fi.discrete.numerator != 1 {
			continue
		}

		items = append(items, fi.discrete.denominator)
	}

	return items, nil
}

// SetFormat negotiates (width, height, pixFmt) and records whatever the
// driver actually applied (it may silently pick the nearest supported
// value), so the caller can detect and log a fallback.
func (d *Device) SetFormat(width, height, pixFmt uint32) error {
	f := v4l2_format{
		typ: d.bufType(),
		pix: v4l2_pix_format{
			width:       width,
			height:      height,
			pixelformat: pixFmt,
			field:       V4L2_FIELD_NONE,
			colorspace:  V4L2_COLORSPACE_DEFAULT,
		},
	}
	if err := ioctl.Ioctl(d.fd, VIDIOC_S_FMT, unsafe.Pointer(&f)); err != nil {
		return err
	}

	d.Width, d.Height, d.PixFmt = f.pix.width, f.pix.height, f.pix.pixelformat
	return nil
}

func (d *Device) SetParam(fps uint32) error {
	p := v4l2_streamparm{
		typ: d.bufType(),
		capture: v4l2_captureparm{
			timeperframe: v4l2_fract{numerator: 1, denominator: fps},
		},
	}
	return ioctl.Ioctl(d.fd, VIDIOC_S_PARM, unsafe.Pointer(&p))
}

func (d *Device) StreamOn() (err error) {
	typ := d.bufType()

	rb := v4l2_requestbuffers{
		count:  DriverBuffers,
		typ:    typ,
		memory: V4L2_MEMORY_MMAP,
	}
	if err = ioctl.Ioctl(d.fd, VIDIOC_REQBUFS, unsafe.Pointer(&rb)); err != nil {
		return err
	}

	prot := syscall.PROT_READ
	if d.mode == ModeOutput {
		prot |= syscall.PROT_WRITE
	}

	d.bufs = make([][]byte, rb.count)
	for i := uint32(0); i < rb.count; i++ {
		qb := v4l2_buffer{
			index:  i,
			typ:    typ,
			memory: V4L2_MEMORY_MMAP,
		}
		if err = ioctl.Ioctl(d.fd, VIDIOC_QUERYBUF, unsafe.Pointer(&qb)); err != nil {
			return err
		}

		if d.bufs[i], err = syscall.Mmap(
			d.fd, int64(qb.offset), int(qb.length), prot, syscall.MAP_SHARED,
		); err != nil {
			return err
		}

		if d.mode == ModeCapture {
			if err = ioctl.Ioctl(d.fd, VIDIOC_QBUF, unsafe.Pointer(&qb)); err != nil {
				return err
			}
		}
	}

	return ioctl.Ioctl(d.fd, VIDIOC_STREAMON, unsafe.Pointer(&typ))
}

func (d *Device) StreamOff() (err error) {
	typ := d.bufType()
	if err = ioctl.Ioctl(d.fd, VIDIOC_STREAMOFF, unsafe.Pointer(&typ)); err != nil {
		return err
	}

	for i := range d.bufs {
		_ = syscall.Munmap(d.bufs[i])
	}
	d.bufs = nil

	rb := v4l2_requestbuffers{
		count:  0,
		typ:    typ,
		memory: V4L2_MEMORY_MMAP,
	}
	return ioctl.Ioctl(d.fd, VIDIOC_REQBUFS, unsafe.Pointer(&rb))
}

// Capture dequeues the next filled buffer, copies its bytes out (so the
// driver buffer can be immediately re-queued), and returns them. timeout<=0
// blocks indefinitely.
func (d *Device) Capture(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		ready, err := pollReadable(d.fd, timeout)
		if err != nil {
			return nil, translateErr(err)
		}
		if !ready {
			return nil, ErrTimeout
		}
	}

	dec := v4l2_buffer{
		typ:    d.bufType(),
		memory: V4L2_MEMORY_MMAP,
	}
	if err := ioctl.Ioctl(d.fd, VIDIOC_DQBUF, unsafe.Pointer(&dec)); err != nil {
		return nil, translateErr(err)
	}

	buf := make([]byte, dec.bytesused)
	copy(buf, d.bufs[dec.index][:dec.bytesused])

	enc := v4l2_buffer{
		typ:    d.bufType(),
		memory: V4L2_MEMORY_MMAP,
		index:  dec.index,
	}
	if err := ioctl.Ioctl(d.fd, VIDIOC_QBUF, unsafe.Pointer(&enc)); err != nil {
		return nil, translateErr(err)
	}

	return buf, nil
}

// Write copies data into the next output buffer in round-robin order and
// queues it for the driver to consume. Once every driver buffer has cycled
// through once, it dequeues the oldest completed buffer first so ownership
// never overlaps. A partial copy (data larger than the negotiated frame
// size) is retried once before surfacing ErrShortWrite.
func (d *Device) Write(data []byte) error {
	if d.next >= uint32(len(d.bufs)) {
		dq := v4l2_buffer{typ: V4L2_BUF_TYPE_VIDEO_OUTPUT, memory: V4L2_MEMORY_MMAP}
		if err := ioctl.Ioctl(d.fd, VIDIOC_DQBUF, unsafe.Pointer(&dq)); err != nil {
			return translateErr(err)
		}
		d.next = dq.index
	}

	index := d.next

	for attempt := 0; attempt < 2; attempt++ {
		n := copy(d.bufs[index], data)

		qb := v4l2_buffer{
			typ:       V4L2_BUF_TYPE_VIDEO_OUTPUT,
			memory:    V4L2_MEMORY_MMAP,
			index:     index,
			bytesused: uint32(n),
		}
		if err := ioctl.Ioctl(d.fd, VIDIOC_QBUF, unsafe.Pointer(&qb)); err != nil {
			return translateErr(err)
		}

		if n == len(data) {
			d.next++
			return nil
		}
	}

	return ErrShortWrite
}

func (d *Device) Close() error {
	return syscall.Close(d.fd)
}

// Control operations (VIDIOC_QUERYCTRL / G_CTRL / S_CTRL), used by the
// camera-controls surface in internal/capture.

type ControlInfo struct {
	ID           uint32
	Name         string
	Min, Max     int32
	Step         int32
	Default      int32
	Disabled     bool
	Inactive     bool
}

const (
	v4l2CtrlFlagDisabled = 1 << 0
	v4l2CtrlFlagInactive = 1 << 4
)

func (d *Device) QueryControl(id uint32) (*ControlInfo, error) {
	q := v4l2_queryctrl{id: id}
	if err := ioctl.Ioctl(d.fd, VIDIOC_QUERYCTRL, unsafe.Pointer(&q)); err != nil {
		return nil, err
	}
	return &ControlInfo{
		ID:       q.id,
		Name:     ioctl.Str(q.name[:]),
		Min:      q.minimum,
		Max:      q.maximum,
		Step:     q.step,
		Default:  q.default_value,
		Disabled: q.flags&v4l2CtrlFlagDisabled != 0,
		Inactive: q.flags&v4l2CtrlFlagInactive != 0,
	}, nil
}

func (d *Device) GetControl(id uint32) (int32, error) {
	c := v4l2_control{id: id}
	if err := ioctl.Ioctl(d.fd, VIDIOC_G_CTRL, unsafe.Pointer(&c)); err != nil {
		return 0, err
	}
	return c.value, nil
}

func (d *Device) SetControl(id uint32, value int32) error {
	c := v4l2_control{id: id, value: value}
	return ioctl.Ioctl(d.fd, VIDIOC_S_CTRL, unsafe.Pointer(&c))
}

func translateErr(err error) error {
	if errors.Is(err, syscall.ENODEV) || errors.Is(err, syscall.EIO) {
		return ErrDeviceLost
	}
	return err
}

