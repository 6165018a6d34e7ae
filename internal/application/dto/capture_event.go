package dto

// CaptureOp тип события каталога съемки
type CaptureOp int

const (
	CaptureCreated CaptureOp = iota
	CaptureRemoved
)

func (op CaptureOp) String() string {
	switch op {
	case CaptureCreated:
		return "created"
	case CaptureRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// CaptureEvent событие появления или удаления снимка
type CaptureEvent struct {
	Op   CaptureOp
	Path string
}
