package evdev

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const uinputPath = "/dev/uinput"

const (
	uiDevCreate  = iocBareUBase | (1 << iocNRShift)
	uiDevDestroy = iocBareUBase | (2 << iocNRShift)

	uiSetEvBit  = iocWriteUBase | (100 << iocNRShift) | (unsafe.Sizeof(int32(0)) << iocSizeShift)
	uiSetKeyBit = iocWriteUBase | (101 << iocNRShift) | (unsafe.Sizeof(int32(0)) << iocSizeShift)
	uiSetRelBit = iocWriteUBase | (102 << iocNRShift) | (unsafe.Sizeof(int32(0)) << iocSizeShift)
	uiSetAbsBit = iocWriteUBase | (103 << iocNRShift) | (unsafe.Sizeof(int32(0)) << iocSizeShift)
	uiSetFFBit  = iocWriteUBase | (107 << iocNRShift) | (unsafe.Sizeof(int32(0)) << iocSizeShift)
)

const uinputNameSize = 80

// userDev matches struct uinput_user_dev.
type userDev struct {
	Name         [uinputNameSize]byte
	ID           InputID
	FFEffectsMax uint32
	AbsMax       [absCount]int32
	AbsMin       [absCount]int32
	AbsFuzz      [absCount]int32
	AbsFlat      [absCount]int32
}

// AbsAxis declares an absolute axis and its range on a virtual device.
type AbsAxis struct {
	Code uint16
	Info AbsInfo
}

// UinputConfig declares the identity and capability sets of a virtual
// device.
type UinputConfig struct {
	Name string
	ID   InputID

	Keys []uint16
	Rel  []uint16
	Abs  []AbsAxis
	FF   []uint16

	// FFEffectsMax is how many force-feedback effects the device
	// claims to hold. Required to be nonzero when FF is non-empty.
	FFEffectsMax uint32
}

// Uinput is a synthesized input device. Events written to it appear to
// the rest of the system as coming from real hardware.
type Uinput struct {
	file *os.File
}

// Create registers a new virtual device with the uinput subsystem.
func Create(cfg UinputConfig) (*Uinput, error) {
	if len(cfg.Name) >= uinputNameSize {
		return nil, fmt.Errorf("device name %q too long", cfg.Name)
	}

	file, err := os.OpenFile(uinputPath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}

	u := Uinput{file: file}
	err = u.init(cfg)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &u, nil
}

func (u *Uinput) init(cfg UinputConfig) error {
	conn, err := u.file.SyscallConn()
	if err != nil {
		return err
	}

	set := func(name uintptr, code uint16) error {
		return control(conn, func(fd uintptr) error {
			return fromErrno(ioctlSet(fd, name, uintptr(code)))
		})
	}

	if len(cfg.Keys) > 0 {
		if err := set(uiSetEvBit, EvKey); err != nil {
			return fmt.Errorf("declare key events: %w", err)
		}
		for _, code := range cfg.Keys {
			if err := set(uiSetKeyBit, code); err != nil {
				return fmt.Errorf("declare key %#x: %w", code, err)
			}
		}
	}

	if len(cfg.Rel) > 0 {
		if err := set(uiSetEvBit, EvRel); err != nil {
			return fmt.Errorf("declare relative axes: %w", err)
		}
		for _, code := range cfg.Rel {
			if err := set(uiSetRelBit, code); err != nil {
				return fmt.Errorf("declare relative axis %#x: %w", code, err)
			}
		}
	}

	if len(cfg.Abs) > 0 {
		if err := set(uiSetEvBit, EvAbs); err != nil {
			return fmt.Errorf("declare absolute axes: %w", err)
		}
		for _, axis := range cfg.Abs {
			if err := set(uiSetAbsBit, axis.Code); err != nil {
				return fmt.Errorf("declare absolute axis %#x: %w", axis.Code, err)
			}
		}
	}

	if len(cfg.FF) > 0 {
		if err := set(uiSetEvBit, EvFf); err != nil {
			return fmt.Errorf("declare force feedback: %w", err)
		}
		for _, code := range cfg.FF {
			if err := set(uiSetFFBit, code); err != nil {
				return fmt.Errorf("declare effect %#x: %w", code, err)
			}
		}
	}

	ud := userDev{
		ID:           cfg.ID,
		FFEffectsMax: cfg.FFEffectsMax,
	}
	copy(ud.Name[:], cfg.Name)
	for _, axis := range cfg.Abs {
		ud.AbsMin[axis.Code] = axis.Info.Minimum
		ud.AbsMax[axis.Code] = axis.Info.Maximum
		ud.AbsFuzz[axis.Code] = axis.Info.Fuzz
		ud.AbsFlat[axis.Code] = axis.Info.Flat
	}

	buf := (*[unsafe.Sizeof(userDev{})]byte)(unsafe.Pointer(&ud))
	_, err = u.file.Write(buf[:])
	if err != nil {
		return fmt.Errorf("write device description: %w", err)
	}

	err = control(conn, func(fd uintptr) error {
		return fromErrno(ioctlSet(fd, uiDevCreate, 0))
	})
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}

	return nil
}

// WriteEvent queues one event on the device. Queued events are not
// visible to consumers until the next Sync.
func (u *Uinput) WriteEvent(t, code uint16, value int32) error {
	raw := rawEvent{InputEvent: InputEvent{Type: t, Code: code, Value: value}}
	buf := (*[unsafe.Sizeof(rawEvent{})]byte)(unsafe.Pointer(&raw))
	_, err := u.file.Write(buf[:])
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Sync flushes the current event frame to consumers.
func (u *Uinput) Sync() error {
	return u.WriteEvent(EvSyn, SynReport, 0)
}

// Close destroys the virtual device. It must be called exactly once.
func (u *Uinput) Close() error {
	conn, err := u.file.SyscallConn()
	if err != nil {
		return errors.Join(err, u.file.Close())
	}

	derr := control(conn, func(fd uintptr) error {
		return fromErrno(ioctlSet(fd, uiDevDestroy, 0))
	})
	return errors.Join(derr, u.file.Close())
}
