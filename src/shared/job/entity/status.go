package jobentity

type Status string

const (
	QueuedStatus     Status = "queued"
	InProgressStatus Status = "in_progress"
	DoneStatus       Status = "done"
	ErrorStatus      Status = "error"
)

func (s Status) IsTerminal() bool {
	return s == DoneStatus || s == ErrorStatus
}

func (s Status) IsActive() bool {
	return s == QueuedStatus || s == InProgressStatus
}

// HoldsKey reports whether a job in this status blocks another job with the same dedupe key.
func (s Status) HoldsKey() bool {
	return s != ErrorStatus
}

type Variant string

const (
	StaticVariant  Variant = "static"
	DynamicVariant Variant = "dynamic"
)

func ParseVariant(s string) (Variant, bool) {
	switch Variant(s) {
	case StaticVariant, DynamicVariant:
		return Variant(s), true
	}

	return "", false
}

type Device string

const (
	CPUDevice         Device = "cpu"
	AcceleratorDevice Device = "accelerator"
)

func ParseDevice(s string) (Device, bool) {
	switch Device(s) {
	case "":
		return CPUDevice, true
	case CPUDevice, AcceleratorDevice:
		return Device(s), true
	}

	return "", false
}
