package device

const (
	V4L2_PIX_FMT_YUYV  = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	V4L2_PIX_FMT_MJPEG = 'M' | 'J'<<8 | 'P'<<16 | 'G'<<24
)

type Format struct {
	FourCC uint32
	Name   string
}

var Formats = []Format{
	{V4L2_PIX_FMT_YUYV, "YUYV"},
	{V4L2_PIX_FMT_MJPEG, "MJPEG"},
}

func FormatName(fourCC uint32) string {
	for _, f := range Formats {
		if f.FourCC == fourCC {
			return f.Name
		}
	}
	return "unknown"
}
